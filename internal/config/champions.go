package config

import (
	"errors"
	"fmt"
	"os"

	"lol-autopilot/internal/domain"

	"gopkg.in/yaml.v3"
)

// Champions holds the backup lists and operator preferences from the
// champions file.
type Champions struct {
	Pick        map[domain.Role][]string
	Ban         map[domain.Role][]string
	Preferences Preferences
}

// Preferences replace per-account special cases with named settings.
type Preferences struct {
	PinnedPick   string `yaml:"pinned_pick"`
	PinnedBan    string `yaml:"pinned_ban"`
	PinnedSpells []int  `yaml:"pinned_spells"`
}

type championsFile struct {
	Pick        map[string][]string `yaml:"pick"`
	Ban         map[string][]string `yaml:"ban"`
	Preferences Preferences         `yaml:"preferences"`
}

// Picks returns the ordered pick backups for role.
func (c Champions) Picks(role domain.Role) []string {
	return c.Pick[role]
}

// Bans returns the ordered ban backups for role.
func (c Champions) Bans(role domain.Role) []string {
	return c.Ban[role]
}

// All returns every champion name referenced by the file.
func (c Champions) All() []string {
	var out []string
	for _, m := range []map[domain.Role][]string{c.Pick, c.Ban} {
		for _, names := range m {
			out = append(out, names...)
		}
	}
	if c.Preferences.PinnedPick != "" {
		out = append(out, c.Preferences.PinnedPick)
	}
	if c.Preferences.PinnedBan != "" {
		out = append(out, c.Preferences.PinnedBan)
	}
	return out
}

// LoadChampions reads the champions file. A missing file yields empty
// lists only when optional is set; a bad role key fails.
func LoadChampions(path string, optional bool) (Champions, error) {
	data, err := os.ReadFile(path)
	if optional && errors.Is(err, os.ErrNotExist) {
		return Champions{Pick: map[domain.Role][]string{}, Ban: map[domain.Role][]string{}}, nil
	}
	if err != nil {
		return Champions{}, fmt.Errorf("reading champions file: %w", err)
	}
	return ParseChampions(data)
}

func ParseChampions(data []byte) (Champions, error) {
	var raw championsFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Champions{}, fmt.Errorf("parsing champions file: %w", err)
	}

	pick, err := byRole(raw.Pick)
	if err != nil {
		return Champions{}, fmt.Errorf("pick lists: %w", err)
	}
	ban, err := byRole(raw.Ban)
	if err != nil {
		return Champions{}, fmt.Errorf("ban lists: %w", err)
	}
	if n := len(raw.Preferences.PinnedSpells); n != 0 && n != 2 {
		return Champions{}, fmt.Errorf("pinned_spells needs exactly 2 ids, got %d", n)
	}

	return Champions{Pick: pick, Ban: ban, Preferences: raw.Preferences}, nil
}

func byRole(in map[string][]string) (map[domain.Role][]string, error) {
	out := make(map[domain.Role][]string, len(in))
	for key, names := range in {
		role, err := domain.ParseRole(key)
		if err != nil {
			return nil, err
		}
		if role == "" {
			return nil, fmt.Errorf("%w: empty role key", domain.ErrInvalidRole)
		}
		out[role] = append(out[role], names...)
	}
	return out, nil
}
