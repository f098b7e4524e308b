package champselect

import (
	"errors"
	"fmt"
	"slices"

	"lol-autopilot/internal/domain"
)

// ErrNoViableChampion means neither the pick intent nor any backup for the
// role can be picked. The operator has to step in.
var ErrNoViableChampion = errors.New("no viable champion")

// Intent is the operator's request and the engine's current targets.
// UserPick and UserBan are the request the session started with and never
// change; control-surface overrides go into OverridePick and OverrideBan.
type Intent struct {
	UserPick string
	UserBan  string
	UserRole domain.Role

	OverridePick string
	OverrideBan  string

	PickIntent   string
	BanIntent    string
	AssignedRole domain.Role
}

// RequestedPick is the override when one is set, else the original request.
func (i Intent) RequestedPick() string {
	if i.OverridePick != "" {
		return i.OverridePick
	}
	return i.UserPick
}

func (i Intent) RequestedBan() string {
	if i.OverrideBan != "" {
		return i.OverrideBan
	}
	return i.UserBan
}

// Role is the role backup lists are chosen for.
func (i Intent) Role() domain.Role {
	if i.AssignedRole != "" {
		return i.AssignedRole
	}
	return i.UserRole
}

func (i Intent) autofilled() bool {
	return i.AssignedRole != "" && i.UserRole != "" && i.AssignedRole != i.UserRole
}

// DecidePick returns the first valid entry of [pick intent] + backups.
func (e *Engine) DecidePick() (string, error) {
	if pinned := e.champions.Preferences.PinnedPick; pinned != "" {
		return e.canonical(pinned), nil
	}

	role := e.intent.Role()
	candidates := append([]string{e.intent.PickIntent}, e.champions.Picks(role)...)
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if ok, _ := e.IsValidPick(c); ok {
			return e.canonical(c), nil
		}
	}
	return "", fmt.Errorf("%w for %s", ErrNoViableChampion, role.Display())
}

// DecideBan searches like DecidePick. Exhaustion yields "" and a warning.
func (e *Engine) DecideBan() string {
	if pinned := e.champions.Preferences.PinnedBan; pinned != "" {
		return e.canonical(pinned)
	}

	role := e.intent.Role()
	candidates := append([]string{e.intent.BanIntent}, e.champions.Bans(role)...)
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if ok, _ := e.IsValidBan(c); ok {
			return e.canonical(c)
		}
	}
	e.logger.Warn().
		Str("role", string(role)).
		Int("invalid_bans", e.bans.Len()).
		Msg("no valid ban candidate left, skipping ban")
	return ""
}

// IsValidPick applies the pick rules in precedence order. The first
// failure of a known champion is cached with its reason.
func (e *Engine) IsValidPick(name string) (bool, string) {
	id := e.catalog.ID(name)
	if id == 0 {
		return false, ReasonUnknown
	}
	if reason, ok := e.picks.Get(id); ok {
		return false, reason
	}
	if reason := e.pickRule(id); reason != "" {
		e.invalidate(domain.ActionPick, id, reason)
		return false, reason
	}
	return true, ""
}

func (e *Engine) pickRule(id int) string {
	s := e.snapshot
	switch {
	case s != nil && slices.Contains(s.BannedIDs(), id):
		return ReasonBanned
	case !e.catalog.Owns(id):
		return ReasonUnowned
	case s != nil && e.lockedByOther(id):
		return ReasonAlreadyPicked
	case e.intent.autofilled() && id == e.catalog.ID(e.intent.UserPick):
		// Only the exact original request; backups for the assigned
		// role stay eligible.
		return ReasonAutofilled
	}
	return ""
}

func (e *Engine) IsValidBan(name string) (bool, string) {
	id := e.catalog.ID(name)
	if id == 0 {
		return false, ReasonUnknown
	}
	if reason, ok := e.bans.Get(id); ok {
		return false, reason
	}
	if reason := e.banRule(id); reason != "" {
		e.invalidate(domain.ActionBan, id, reason)
		return false, reason
	}
	return true, ""
}

func (e *Engine) banRule(id int) string {
	s := e.snapshot
	switch {
	case e.isOwnPick(id):
		return ReasonIntendedPick
	case s != nil && slices.Contains(s.BannedIDs(), id):
		return ReasonBanned
	case s != nil && e.hoveredByTeammate(id):
		return ReasonTeammateHover
	}
	return ""
}

func (e *Engine) isOwnPick(id int) bool {
	own := []string{e.intent.PickIntent, e.intent.UserPick, e.intent.OverridePick, e.champions.Preferences.PinnedPick}
	for _, name := range own {
		if name != "" && e.catalog.ID(name) == id {
			return true
		}
	}
	return false
}

// UpdateIntent re-decides whatever has not been committed yet. The pick
// goes first so the ban never lands on this round's pick intent. A pick
// exhaustion clears the pick intent and is returned after the ban intent
// has been updated.
func (e *Engine) UpdateIntent() error {
	var pickErr error
	if !e.local.HasPicked {
		var pick string
		pick, pickErr = e.DecidePick()
		e.setIntent(domain.ActionPick, pick)
	}
	if !e.local.HasBanned {
		e.setIntent(domain.ActionBan, e.DecideBan())
	}
	return pickErr
}

func (e *Engine) setIntent(kind domain.ActionKind, name string) {
	field := &e.intent.PickIntent
	if kind == domain.ActionBan {
		field = &e.intent.BanIntent
	}
	if *field == name {
		return
	}
	e.logger.Info().
		Str("kind", string(kind)).
		Str("from", *field).
		Str("champ", name).
		Msg("intent changed")
	*field = name
}

func (e *Engine) intentFor(kind domain.ActionKind) string {
	if kind == domain.ActionBan {
		return e.intent.BanIntent
	}
	return e.intent.PickIntent
}

func (e *Engine) cacheFor(kind domain.ActionKind) *InvalidCache {
	if kind == domain.ActionBan {
		return e.bans
	}
	return e.picks
}

func (e *Engine) invalidate(kind domain.ActionKind, id int, reason string) {
	if !e.cacheFor(kind).Add(id, reason) {
		return
	}
	name := e.catalog.Name(id)
	e.logger.Debug().
		Str("kind", string(kind)).
		Str("champ", name).
		Int("champ_id", id).
		Str("reason", reason).
		Msg("candidate invalidated")
	e.record(kind, id, OutcomeInvalid, reason)
}

// canonical maps input to the catalog name, keeping it as is when unknown.
func (e *Engine) canonical(name string) string {
	if id := e.catalog.ID(name); id != 0 {
		return e.catalog.Name(id)
	}
	return name
}
