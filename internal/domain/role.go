package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidRole = errors.New("invalid role")

type Role string

const (
	RoleTop     Role = "top"
	RoleJungle  Role = "jungle"
	RoleMiddle  Role = "middle"
	RoleBottom  Role = "bottom"
	RoleUtility Role = "utility"
)

var roleAliases = map[string]Role{
	"top":     RoleTop,
	"t":       RoleTop,
	"jungle":  RoleJungle,
	"jg":      RoleJungle,
	"jgl":     RoleJungle,
	"j":       RoleJungle,
	"middle":  RoleMiddle,
	"mid":     RoleMiddle,
	"m":       RoleMiddle,
	"bottom":  RoleBottom,
	"bot":     RoleBottom,
	"adc":     RoleBottom,
	"adcarry": RoleBottom,
	"b":       RoleBottom,
	"utility": RoleUtility,
	"support": RoleUtility,
	"supp":    RoleUtility,
	"sup":     RoleUtility,
	"s":       RoleUtility,
}

// ParseRole maps the usual role spellings onto the client's position names.
// An empty input is allowed and means "no preference".
func ParseRole(s string) (Role, error) {
	cleaned := strings.ToLower(strings.Join(strings.Fields(s), ""))
	if cleaned == "" {
		return "", nil
	}
	if r, ok := roleAliases[cleaned]; ok {
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// Display renders utility as support.
func (r Role) Display() string {
	if r == RoleUtility {
		return "support"
	}
	return string(r)
}
