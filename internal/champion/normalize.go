package champion

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// aliases map normalized spellings the client does not use onto its aliases.
var aliases = map[string]string{
	"wukong": "monkeyking",
}

// Normalize folds a champion name to the catalog key: diacritics removed,
// case folded, everything but letters and digits dropped. "Kai'Sa",
// "kaisa" and "KAI SA" all yield "kaisa".
func Normalize(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}
	folded := cases.Fold().String(stripped)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	key := b.String()

	if strings.HasPrefix(key, "nunu") {
		return "nunu"
	}
	if alias, ok := aliases[key]; ok {
		return alias
	}
	return key
}

// Display title-cases a normalized name for page names and logs.
func Display(name string) string {
	return cases.Title(language.English).String(name)
}
