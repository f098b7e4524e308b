package champselect

import (
	"context"

	"lol-autopilot/internal/domain"
)

// Refresh polls the session and rebuilds the local action state. Errors
// wrapping domain.ErrSessionDesync mean the tick should be skipped.
func (e *Engine) Refresh(ctx context.Context) error {
	snap, err := e.client.GetSession(ctx)
	if err != nil {
		return err
	}
	e.snapshot = snap
	e.setAssignedRole(snap.AssignedRole())

	if snap.Phase == domain.PhaseFinalization {
		return nil
	}

	var pick, ban *domain.ActionRecord
	for _, group := range snap.Actions {
		for i := range group {
			a := group[i]
			if a.ActorCellID != snap.LocalCellID {
				continue
			}
			switch a.Kind {
			case domain.ActionPick:
				pick = &a
			case domain.ActionBan:
				ban = &a
			}
		}
	}

	e.local.Pick = pick
	e.local.Ban = ban
	if pick != nil && pick.Completed {
		e.local.HasPicked = true
	}
	if ban != nil && ban.Completed {
		e.local.HasBanned = true
	}
	return nil
}

func (e *Engine) setAssignedRole(role domain.Role) {
	if role == e.intent.AssignedRole {
		return
	}
	e.intent.AssignedRole = role
	e.logger.Info().
		Str("assigned_role", string(role)).
		Str("user_role", string(e.intent.UserRole)).
		Msg("assigned role updated")
}

// lockedByOther reports whether another seat has completed a pick on id.
func (e *Engine) lockedByOther(id int) bool {
	for _, group := range e.snapshot.Actions {
		for _, a := range group {
			if a.Kind == domain.ActionPick && a.Completed && a.ChampionID == id && a.ActorCellID != e.snapshot.LocalCellID {
				return true
			}
		}
	}
	return false
}

// hoveredByTeammate reports whether an ally has id hovered but not locked.
func (e *Engine) hoveredByTeammate(id int) bool {
	for _, group := range e.snapshot.Actions {
		for _, a := range group {
			if a.Kind == domain.ActionPick && a.IsAllyAction && !a.Completed && a.ChampionID == id && a.ActorCellID != e.snapshot.LocalCellID {
				return true
			}
		}
	}
	return false
}
