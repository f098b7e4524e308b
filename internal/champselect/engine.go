package champselect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lol-autopilot/internal/api"
	"lol-autopilot/internal/champion"
	"lol-autopilot/internal/config"
	"lol-autopilot/internal/domain"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// History outcomes.
const (
	OutcomeInvalid   = "invalid"
	OutcomeRejected  = "rejected"
	OutcomeCommitted = "committed"
)

// Client is the slice of the local client API the engine drives.
type Client interface {
	GetSession(ctx context.Context) (*domain.SessionSnapshot, error)
	PatchAction(ctx context.Context, actionID int, patch api.ActionPatch) error
}

type Catalog interface {
	ID(name string) int
	Name(id int) string
	Owns(id int) bool
}

type Options struct {
	Client      Client
	Catalog     Catalog
	Champions   config.Champions
	Request     config.Request
	Clock       clockwork.Clock
	LockInDelay time.Duration
	Logger      zerolog.Logger
}

// Engine owns all champ select decision state. It is not safe for
// concurrent use; the autopilot worker is its only caller.
type Engine struct {
	client    Client
	catalog   Catalog
	champions config.Champions
	clock     clockwork.Clock
	logger    zerolog.Logger
	executor  *Executor
	timer     *LockInTimer

	sessionID string
	snapshot  *domain.SessionSnapshot
	local     domain.LocalActionState
	intent    Intent
	picks     *InvalidCache
	bans      *InvalidCache
	events    []domain.HistoryEntry

	// OnStep runs at every lock-in timer step, before the session is
	// polled again. The worker drains control commands here.
	OnStep func(ctx context.Context)
}

func New(opts Options) *Engine {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := opts.Logger.With().Str("component", "champselect").Logger()

	return &Engine{
		client:    opts.Client,
		catalog:   opts.Catalog,
		champions: opts.Champions,
		clock:     clock,
		logger:    logger,
		executor:  NewExecutor(opts.Client, logger),
		timer:     NewLockInTimer(clock, opts.LockInDelay),
		sessionID: uuid.NewString(),
		picks:     NewInvalidCache(),
		bans:      NewInvalidCache(),
		intent: Intent{
			UserPick:   opts.Request.Pick,
			UserBan:    opts.Request.Ban,
			UserRole:   opts.Request.Role,
			PickIntent: opts.Request.Pick,
			BanIntent:  opts.Request.Ban,
		},
	}
}

// Tick runs one poll, decide and act round. Session desync is swallowed;
// ErrNoViableChampion is returned after the ban side has been handled.
func (e *Engine) Tick(ctx context.Context) error {
	if err := e.Refresh(ctx); err != nil {
		return e.skipDesync(err)
	}

	switch e.snapshot.Phase {
	case domain.PhasePlanning:
		decideErr := e.UpdateIntent()
		if err := e.hover(ctx, domain.ActionPick); err != nil {
			return e.skipDesync(err)
		}
		return decideErr

	case domain.PhaseBanPick:
		decideErr := e.UpdateIntent()
		var err error
		switch {
		case e.inProgress(domain.ActionPick):
			err = e.commit(ctx, domain.ActionPick)
		case e.inProgress(domain.ActionBan):
			err = e.commit(ctx, domain.ActionBan)
		}
		if err == nil {
			err = e.hover(ctx, domain.ActionPick)
		}
		if err != nil {
			return e.skipDesync(err)
		}
		if e.local.HasPicked {
			return nil
		}
		return decideErr
	}
	return nil
}

func (e *Engine) skipDesync(err error) error {
	if errors.Is(err, domain.ErrSessionDesync) {
		e.logger.Debug().Err(err).Msg("session desync, skipping tick")
		return nil
	}
	return err
}

func (e *Engine) inProgress(kind domain.ActionKind) bool {
	a := e.local.Action(kind)
	return a != nil && a.InProgress && !a.Completed && !e.local.Done(kind)
}

// hover shows the current intent for kind. Refusals are logged, never
// cached: the client also refuses hovers during bans in tournament drafts.
func (e *Engine) hover(ctx context.Context, kind domain.ActionKind) error {
	action := e.local.Action(kind)
	target := e.intentFor(kind)
	if action == nil || action.Completed || target == "" {
		return nil
	}
	id := e.catalog.ID(target)
	if id == 0 {
		return nil
	}

	err := e.executor.Hover(ctx, kind, action, id)
	if err == nil || errors.Is(err, api.ErrTransport) {
		return err
	}
	e.logger.Warn().
		Err(err).
		Str("kind", string(kind)).
		Str("champ", target).
		Int("action_id", action.ID).
		Msg("hover refused")
	return nil
}

// commit hovers the intent, waits out the lock-in delay and completes the
// action with whatever the intent is by then.
func (e *Engine) commit(ctx context.Context, kind domain.ActionKind) error {
	if e.intentFor(kind) == "" {
		return nil
	}
	if err := e.hover(ctx, kind); err != nil {
		return err
	}
	actionID := e.local.Action(kind).ID

	err := e.timer.Wait(ctx, func(ctx context.Context) (bool, error) {
		if e.OnStep != nil {
			e.OnStep(ctx)
		}
		if err := e.Refresh(ctx); err != nil {
			return true, err
		}
		if !e.sameRound(kind, actionID) {
			return true, nil
		}
		if err := e.UpdateIntent(); err != nil {
			e.logger.Warn().Err(err).Str("kind", string(kind)).Msg("no candidate during lock-in wait")
		}
		if err := e.hover(ctx, kind); err != nil {
			return true, err
		}
		return false, nil
	})
	if err != nil {
		return err
	}

	if !e.sameRound(kind, actionID) {
		return nil
	}
	target := e.intentFor(kind)
	if target == "" {
		return nil
	}
	if err := e.hover(ctx, kind); err != nil {
		return err
	}

	action := e.local.Action(kind)
	id := e.catalog.ID(target)
	state, err := e.executor.Commit(ctx, kind, action, id)
	switch {
	case err != nil:
		if errors.Is(err, api.ErrTransport) {
			return err
		}
		e.logger.Warn().
			Err(err).
			Str("kind", string(kind)).
			Int("action_id", action.ID).
			Msg("commit failed, attempt aborted")
		return nil

	case state == StateRejected:
		if e.cacheFor(kind).Add(id, ReasonCommitRejected) {
			e.record(kind, id, OutcomeRejected, ReasonCommitRejected)
		}
		e.logger.Warn().
			Str("kind", string(kind)).
			Str("champ", target).
			Int("champ_id", id).
			Msg("commit rejected, champion unavailable")
		if err := e.UpdateIntent(); err != nil {
			e.logger.Warn().Err(err).Msg("no candidate after rejection")
		}
		return nil
	}

	if kind == domain.ActionBan {
		e.local.HasBanned = true
	} else {
		e.local.HasPicked = true
	}
	e.record(kind, id, OutcomeCommitted, "")
	e.logger.Info().
		Str("kind", string(kind)).
		Str("champ", target).
		Int("champ_id", id).
		Int("action_id", action.ID).
		Msg("committed")
	return nil
}

// sameRound reports whether the action for kind is still the open action
// actionID in the ban/pick phase.
func (e *Engine) sameRound(kind domain.ActionKind, actionID int) bool {
	if e.snapshot == nil || e.snapshot.Phase != domain.PhaseBanPick || e.local.Done(kind) {
		return false
	}
	a := e.local.Action(kind)
	return a != nil && a.ID == actionID && !a.Completed
}

// Reset forgets everything learned in the current session, e.g. after a
// dodge, and restores intents to the operator's request.
func (e *Engine) Reset() {
	e.snapshot = nil
	e.local = domain.LocalActionState{}
	e.picks.Reset()
	e.bans.Reset()
	e.executor.Reset()
	e.intent.PickIntent = e.intent.RequestedPick()
	e.intent.BanIntent = e.intent.RequestedBan()
	e.intent.AssignedRole = ""
	e.sessionID = uuid.NewString()

	e.logger.Info().Str("session_id", e.sessionID).Msg("champ select state reset")
}

// ResolveRequest canonicalises the requested pick and ban once the catalog
// is loaded.
func (e *Engine) ResolveRequest() error {
	var errs []error
	if e.intent.UserPick != "" {
		name, err := e.resolve(e.intent.UserPick)
		errs = append(errs, err)
		if err == nil {
			e.intent.UserPick, e.intent.PickIntent = name, name
		}
	}
	if e.intent.UserBan != "" {
		name, err := e.resolve(e.intent.UserBan)
		errs = append(errs, err)
		if err == nil {
			e.intent.UserBan, e.intent.BanIntent = name, name
		}
	}
	return errors.Join(errs...)
}

// SetUserPick overrides the requested pick. The override is kept even when
// the champion is not pickable right now, in which case the current
// intent stays put and the reason is returned. The original request is
// left alone, so the autofill rule keeps comparing against it.
func (e *Engine) SetUserPick(name string) (bool, string, error) {
	canon, err := e.resolve(name)
	if err != nil {
		return false, "", err
	}
	ok, reason := e.IsValidPick(canon)
	e.intent.OverridePick = canon
	if ok {
		e.setIntent(domain.ActionPick, canon)
	}
	return ok, reason, nil
}

func (e *Engine) SetUserBan(name string) (bool, string, error) {
	canon, err := e.resolve(name)
	if err != nil {
		return false, "", err
	}
	ok, reason := e.IsValidBan(canon)
	e.intent.OverrideBan = canon
	if ok {
		e.setIntent(domain.ActionBan, canon)
	}
	return ok, reason, nil
}

// SetUserRole records the role the operator queued for.
func (e *Engine) SetUserRole(role domain.Role) {
	if role == e.intent.UserRole {
		return
	}
	e.logger.Info().Str("role", string(role)).Msg("primary role updated")
	e.intent.UserRole = role
}

func (e *Engine) resolve(name string) (string, error) {
	id := e.catalog.ID(name)
	if id == 0 {
		return "", fmt.Errorf("%w: %q", champion.ErrUnknownChampion, name)
	}
	return e.catalog.Name(id), nil
}

func (e *Engine) record(kind domain.ActionKind, id int, outcome, reason string) {
	e.events = append(e.events, domain.HistoryEntry{
		SessionID:  e.sessionID,
		Kind:       kind,
		ChampionID: id,
		Champion:   e.catalog.Name(id),
		Outcome:    outcome,
		Reason:     reason,
		CreatedAt:  e.clock.Now(),
	})
}

// DrainEvents hands over history entries recorded since the last call.
func (e *Engine) DrainEvents() []domain.HistoryEntry {
	out := e.events
	e.events = nil
	return out
}

// View is a copy of the engine state for status reporting.
type View struct {
	SessionID    string
	Phase        string
	Intent       Intent
	HasPicked    bool
	HasBanned    bool
	PickState    State
	BanState     State
	InvalidPicks map[int]string
	InvalidBans  map[int]string
}

func (e *Engine) View() View {
	v := View{
		SessionID:    e.sessionID,
		Intent:       e.intent,
		HasPicked:    e.local.HasPicked,
		HasBanned:    e.local.HasBanned,
		PickState:    e.executor.State(domain.ActionPick),
		BanState:     e.executor.State(domain.ActionBan),
		InvalidPicks: e.picks.Entries(),
		InvalidBans:  e.bans.Entries(),
	}
	if e.snapshot != nil {
		v.Phase = e.snapshot.Phase
	}
	return v
}

// Phase is the sub-phase of the last polled session, "" when none.
func (e *Engine) Phase() string {
	if e.snapshot == nil {
		return ""
	}
	return e.snapshot.Phase
}

// Intent returns the current intent.
func (e *Engine) Intent() Intent {
	return e.intent
}
