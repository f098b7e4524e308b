package champselect

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"lol-autopilot/internal/api"
	"lol-autopilot/internal/domain"

	"github.com/rs/zerolog"
)

type State int

const (
	StateIdle State = iota
	StateHovering
	StateCommitted
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateHovering:
		return "hovering"
	case StateCommitted:
		return "committed"
	case StateRejected:
		return "rejected"
	default:
		return "idle"
	}
}

type mark struct {
	actionID int
	champID  int
	state    State
}

// Executor issues hover and commit requests, one mark per action kind so a
// repeated hover of the same champion on the same action is a no-op.
type Executor struct {
	client Client
	logger zerolog.Logger
	marks  map[domain.ActionKind]mark
}

func NewExecutor(client Client, logger zerolog.Logger) *Executor {
	return &Executor{
		client: client,
		logger: logger,
		marks:  make(map[domain.ActionKind]mark),
	}
}

func (x *Executor) State(kind domain.ActionKind) State {
	return x.marks[kind].state
}

// Hover shows champID on the action without completing it.
func (x *Executor) Hover(ctx context.Context, kind domain.ActionKind, action *domain.ActionRecord, champID int) error {
	if action == nil || action.Completed {
		return nil
	}
	m := x.marks[kind]
	if m.actionID == action.ID && m.champID == champID && (m.state == StateHovering || m.state == StateCommitted) {
		return nil
	}
	if action.ChampionID == champID {
		x.marks[kind] = mark{actionID: action.ID, champID: champID, state: StateHovering}
		return nil
	}

	if err := x.client.PatchAction(ctx, action.ID, api.ActionPatch{ChampionID: champID}); err != nil {
		return fmt.Errorf("hover %s %d on action %d: %w", kind, champID, action.ID, err)
	}
	x.marks[kind] = mark{actionID: action.ID, champID: champID, state: StateHovering}

	x.logger.Debug().
		Str("kind", string(kind)).
		Int("action_id", action.ID).
		Int("champ_id", champID).
		Msg("hovered")
	return nil
}

// Commit completes the action with champID. A rejection naming a ban is
// reported as StateRejected with a nil error; any other failure is
// returned and leaves the mark untouched.
func (x *Executor) Commit(ctx context.Context, kind domain.ActionKind, action *domain.ActionRecord, champID int) (State, error) {
	err := x.client.PatchAction(ctx, action.ID, api.ActionPatch{ChampionID: champID, Completed: true})
	if err == nil {
		x.marks[kind] = mark{actionID: action.ID, champID: champID, state: StateCommitted}
		return StateCommitted, nil
	}

	if isUnavailable(err) {
		x.marks[kind] = mark{actionID: action.ID, champID: champID, state: StateRejected}
		return StateRejected, nil
	}
	return x.marks[kind].state, fmt.Errorf("commit %s %d on action %d: %w", kind, champID, action.ID, err)
}

func (x *Executor) Reset() {
	clear(x.marks)
}

// isUnavailable matches the client's "champion is banned" refusal.
func isUnavailable(err error) bool {
	var apiErr *api.APIError
	return errors.As(err, &apiErr) &&
		apiErr.Status == http.StatusInternalServerError &&
		apiErr.Mentions("banned")
}
