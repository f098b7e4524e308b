package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"lol-autopilot/internal/api"
	"lol-autopilot/internal/champion"
	"lol-autopilot/internal/champselect"
	"lol-autopilot/internal/config"
	"lol-autopilot/internal/constants"
	"lol-autopilot/internal/domain"
	"lol-autopilot/internal/loadout"
	"lol-autopilot/internal/repository"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

var (
	ErrAlreadyRunning   = errors.New("autopilot already running")
	ErrNotRunning       = errors.New("autopilot not running")
	ErrNotInChampSelect = errors.New("not in champ select")
)

// Client is the client surface the worker needs outside champ select.
type Client interface {
	champion.Source
	Connect() error
	Reconnect() error
	GetGameflowPhase(ctx context.Context) (domain.GameflowPhase, error)
	GetPrimaryRole(ctx context.Context) (domain.Role, error)
	StartQueue(ctx context.Context) error
	AcceptReadyCheck(ctx context.Context) error
	GetCurrentChampion(ctx context.Context) (int, error)
}

type HistoryStore interface {
	RecordBatch(ctx context.Context, entries []domain.HistoryEntry) error
	Recent(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}

type PreferenceStore interface {
	GetBool(ctx context.Context, key string, def bool) (bool, error)
	SetBool(ctx context.Context, key string, v bool) error
}

type Deps struct {
	Client  Client
	Catalog *champion.Catalog
	Engine  *champselect.Engine
	Loadout *loadout.Resolver
	History HistoryStore
	Prefs   PreferenceStore
	Clock   clockwork.Clock
	Config  *config.Config
	Logger  zerolog.Logger
}

// Status is what the control surface reports.
type Status struct {
	Running          bool
	Phase            domain.GameflowPhase
	ChampSelectPhase string
	Role             domain.Role
	UserRole         domain.Role
	Pick             string
	Ban              string
	UserPick         string
	UserBan          string
	HasPicked        bool
	HasBanned        bool
	AutoLoadout      bool
	LoadoutSent      bool
	InvalidPicks     map[int]string
	InvalidBans      map[int]string
	LastError        string
	UpdatedAt        time.Time
}

// Autopilot runs the poll loop on a single goroutine. Everything below
// inbox is owned by that goroutine; status is the only state shared with
// callers.
type Autopilot struct {
	client  Client
	catalog *champion.Catalog
	engine  *champselect.Engine
	loadout *loadout.Resolver
	history HistoryStore
	prefs   PreferenceStore
	clock   clockwork.Clock
	cfg     *config.Config
	logger  zerolog.Logger

	inbox chan Msg

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}

	mu     sync.RWMutex
	status Status

	phase        domain.GameflowPhase
	autoLoadout  bool
	loadoutSent  bool
	queueStarted bool
	lastErr      error
}

func NewAutopilot(d Deps) *Autopilot {
	clock := d.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Autopilot{
		client:      d.Client,
		catalog:     d.Catalog,
		engine:      d.Engine,
		loadout:     d.Loadout,
		history:     d.History,
		prefs:       d.Prefs,
		clock:       clock,
		cfg:         d.Config,
		logger:      d.Logger.With().Str("component", "autopilot").Logger(),
		inbox:       make(chan Msg, 16),
		autoLoadout: d.Config.AutoLoadout,
	}
}

// Start connects to the client, loads the champion catalog and launches
// the worker. ctx bounds only the startup calls.
func (a *Autopilot) Start(ctx context.Context) error {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()
	if a.done != nil {
		select {
		case <-a.done:
			// A previous Stop gave up waiting; the worker has exited since.
			a.done = nil
		default:
			return ErrAlreadyRunning
		}
	}

	if err := a.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect to client: %w", err)
	}
	if err := a.catalog.Load(ctx, a.client); err != nil {
		return err
	}
	if err := a.catalog.Validate(a.cfg.Champions.All()); err != nil {
		return fmt.Errorf("champions file: %w", err)
	}
	if err := a.engine.ResolveRequest(); err != nil {
		return err
	}

	auto, err := a.prefs.GetBool(ctx, repository.PrefAutoLoadout, a.cfg.AutoLoadout)
	if err != nil {
		a.logger.Warn().Err(err).Msg("failed to load loadout preference, using config")
	}
	a.autoLoadout = auto

	runCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.done = make(chan struct{})
	a.engine.OnStep = a.drain
	a.phase = ""
	a.queueStarted = false

	a.publish()
	a.logger.Info().
		Dur("poll_interval", a.cfg.PollInterval).
		Bool("auto_loadout", a.autoLoadout).
		Msg("autopilot started")

	go a.run(runCtx, a.done)
	return nil
}

// Stop cancels the worker and waits for it to exit. When ctx expires first
// the worker still exits on its own and a later Start succeeds once it has.
func (a *Autopilot) Stop(ctx context.Context) error {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()
	if a.done == nil {
		return nil
	}

	a.cancel()
	select {
	case <-a.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	a.done = nil
	a.logger.Info().Msg("autopilot stopped")
	return nil
}

func (a *Autopilot) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

func (a *Autopilot) running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status.Running
}

func (a *Autopilot) run(ctx context.Context, done chan struct{}) {
	defer func() {
		a.mu.Lock()
		a.status.Running = false
		close(done)
		a.mu.Unlock()
	}()

	for ctx.Err() == nil {
		a.drain(ctx)

		wait := a.cfg.PollInterval
		err := a.tick(ctx)
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, api.ErrTransport) {
			a.logger.Warn().Err(err).Dur("backoff", a.cfg.ReconnectBackoff).Msg("client unreachable, reconnecting")
			if rerr := a.client.Reconnect(); rerr != nil {
				a.logger.Debug().Err(rerr).Msg("reconnect failed")
			} else {
				a.queueStarted = false
			}
			wait = a.cfg.ReconnectBackoff
		} else if err != nil && !sameError(err, a.lastErr) {
			a.logger.Error().Err(err).Str("phase", string(a.phase)).Msg("tick failed")
		}
		a.lastErr = err
		a.publish()

		if !a.sleep(ctx, wait) {
			return
		}
	}
}

func sameError(a, b error) bool {
	return a != nil && b != nil && a.Error() == b.Error()
}

// sleep waits d while still serving commands. It returns false once ctx
// is cancelled.
func (a *Autopilot) sleep(ctx context.Context, d time.Duration) bool {
	timer := a.clock.After(d)
	for {
		select {
		case <-ctx.Done():
			return false
		case m := <-a.inbox:
			a.handle(ctx, m)
		case <-timer:
			return true
		}
	}
}

// drain handles queued commands without blocking.
func (a *Autopilot) drain(ctx context.Context) {
	for {
		select {
		case m := <-a.inbox:
			a.handle(ctx, m)
		default:
			return
		}
	}
}

func (a *Autopilot) tick(ctx context.Context) error {
	phase, err := a.client.GetGameflowPhase(ctx)
	if err != nil {
		return err
	}
	if phase != a.phase {
		a.logger.Info().
			Str("from", string(a.phase)).
			Str("phase", string(phase)).
			Msg("gameflow phase changed")
		a.phase = phase
		if err := a.enter(ctx, phase); err != nil {
			return err
		}
	}

	if phase != domain.GameflowChampSelect {
		return nil
	}

	err = a.engine.Tick(ctx)
	a.persistEvents(ctx)
	if err != nil {
		return err
	}

	if a.engine.Phase() == domain.PhaseFinalization && a.autoLoadout && !a.loadoutSent {
		a.loadoutSent = true
		if err := a.sendLoadout(ctx); err != nil {
			if errors.Is(err, api.ErrTransport) {
				a.loadoutSent = false
				return err
			}
			a.logger.Error().Err(err).Msg("failed to send loadout")
		}
	}
	return nil
}

// enter runs the one-off work for a newly entered gameflow phase.
func (a *Autopilot) enter(ctx context.Context, phase domain.GameflowPhase) error {
	switch phase {
	case domain.GameflowLobby:
		a.resetSession()
		// Once per connection; back in the lobby after a game the operator
		// queues by hand.
		if a.cfg.AutoQueue && !a.queueStarted {
			if err := a.client.StartQueue(ctx); err != nil {
				return a.soft(err, "failed to start queue")
			}
			a.queueStarted = true
			a.logger.Info().Msg("queue started")
		}

	case domain.GameflowMatchmaking:
		a.resetSession()

	case domain.GameflowReadyCheck:
		role, err := a.client.GetPrimaryRole(ctx)
		if err != nil {
			if err := a.soft(err, "failed to read primary role"); err != nil {
				return err
			}
		} else if role != "" {
			a.engine.SetUserRole(role)
		}
		if a.cfg.AutoAccept {
			if err := a.client.AcceptReadyCheck(ctx); err != nil {
				return a.soft(err, "failed to accept ready check")
			}
			a.logger.Info().Msg("ready check accepted")
		}

	case domain.GameflowGameStart:
		a.logger.Info().Msg("game starting")

	case domain.GameflowInProgress:
		a.logger.Info().Msg("game in progress, idling")
	}
	return nil
}

// soft logs client refusals and passes transport errors through.
func (a *Autopilot) soft(err error, msg string) error {
	if errors.Is(err, api.ErrTransport) {
		return err
	}
	a.logger.Warn().Err(err).Msg(msg)
	return nil
}

func (a *Autopilot) resetSession() {
	a.engine.Reset()
	a.loadoutSent = false
}

// sendLoadout sends a build for the locked champion, or the pick intent
// when nothing is locked yet.
func (a *Autopilot) sendLoadout(ctx context.Context) error {
	champID, err := a.client.GetCurrentChampion(ctx)
	if err != nil || champID == 0 {
		champID = a.catalog.ID(a.engine.Intent().PickIntent)
	}
	if champID == 0 {
		return fmt.Errorf("no champion to send a loadout for")
	}

	_, err = a.loadout.Send(ctx, champID, a.catalog.Name(champID), a.engine.Intent().Role())
	return err
}

func (a *Autopilot) handle(ctx context.Context, m Msg) {
	switch msg := m.(type) {
	case SetPick:
		valid, reason, err := a.engine.SetUserPick(msg.Champion)
		msg.Reply <- SetResult{Champion: a.engine.Intent().RequestedPick(), Valid: valid, Reason: reason, Err: err}

	case SetBan:
		valid, reason, err := a.engine.SetUserBan(msg.Champion)
		msg.Reply <- SetResult{Champion: a.engine.Intent().RequestedBan(), Valid: valid, Reason: reason, Err: err}

	case SetLoadoutPreference:
		a.autoLoadout = msg.Enabled
		a.logger.Info().Bool("auto_loadout", msg.Enabled).Msg("loadout preference changed")
		msg.Reply <- a.prefs.SetBool(ctx, repository.PrefAutoLoadout, msg.Enabled)

	case SendLoadout:
		if a.phase != domain.GameflowChampSelect {
			msg.Reply <- ErrNotInChampSelect
			break
		}
		err := a.sendLoadout(ctx)
		if err == nil {
			a.loadoutSent = true
		}
		msg.Reply <- err
	}

	a.persistEvents(ctx)
	a.publish()
}

func (a *Autopilot) persistEvents(ctx context.Context) {
	events := a.engine.DrainEvents()
	if len(events) == 0 {
		return
	}
	dbCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	if err := a.history.RecordBatch(dbCtx, events); err != nil {
		a.logger.Error().Err(err).Int("count", len(events)).Msg("failed to record history")
	}
}

// publish copies worker state into the shared status.
func (a *Autopilot) publish() {
	v := a.engine.View()
	s := Status{
		Running:          true,
		Phase:            a.phase,
		ChampSelectPhase: v.Phase,
		Role:             v.Intent.Role(),
		UserRole:         v.Intent.UserRole,
		Pick:             v.Intent.PickIntent,
		Ban:              v.Intent.BanIntent,
		UserPick:         v.Intent.RequestedPick(),
		UserBan:          v.Intent.RequestedBan(),
		HasPicked:        v.HasPicked,
		HasBanned:        v.HasBanned,
		AutoLoadout:      a.autoLoadout,
		LoadoutSent:      a.loadoutSent,
		InvalidPicks:     v.InvalidPicks,
		InvalidBans:      v.InvalidBans,
		UpdatedAt:        a.clock.Now(),
	}
	if a.lastErr != nil {
		s.LastError = a.lastErr.Error()
	}

	a.mu.Lock()
	a.status = s
	a.mu.Unlock()
}

// request enqueues a command built around a reply channel and waits for
// the answer.
func request[T any](ctx context.Context, a *Autopilot, build func(chan T) Msg) (T, error) {
	var zero T
	if !a.running() {
		return zero, ErrNotRunning
	}
	ctx, cancel := context.WithTimeout(ctx, constants.CommandReplyTimeout)
	defer cancel()

	reply := make(chan T, 1)
	select {
	case a.inbox <- build(reply):
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	select {
	case r := <-reply:
		return r, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (a *Autopilot) SetPick(ctx context.Context, champ string) (SetResult, error) {
	r, err := request(ctx, a, func(reply chan SetResult) Msg { return SetPick{Champion: champ, Reply: reply} })
	if err != nil {
		return r, err
	}
	return r, r.Err
}

func (a *Autopilot) SetBan(ctx context.Context, champ string) (SetResult, error) {
	r, err := request(ctx, a, func(reply chan SetResult) Msg { return SetBan{Champion: champ, Reply: reply} })
	if err != nil {
		return r, err
	}
	return r, r.Err
}

func (a *Autopilot) SetLoadoutPreference(ctx context.Context, enabled bool) error {
	err, rerr := request(ctx, a, func(reply chan error) Msg { return SetLoadoutPreference{Enabled: enabled, Reply: reply} })
	if rerr != nil {
		return rerr
	}
	return err
}

func (a *Autopilot) SendLoadout(ctx context.Context) error {
	err, rerr := request(ctx, a, func(reply chan error) Msg { return SendLoadout{Reply: reply} })
	if rerr != nil {
		return rerr
	}
	return err
}

// History reads recent entries straight from the store.
func (a *Autopilot) History(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 || limit > constants.HistoryLimit {
		limit = constants.HistoryLimit
	}
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return a.history.Recent(ctx, limit)
}
