package champselect

import (
	"context"
	"sync"
	"testing"
	"time"

	"lol-autopilot/internal/api"
	"lol-autopilot/internal/champion"
	"lol-autopilot/internal/config"
	"lol-autopilot/internal/domain"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

const (
	idLeeSin = 64
	idVi     = 254
	idUdyr   = 77
	idAhri   = 103
	idZed    = 238
	idYasuo  = 157
)

const localCell = 2

type patchCall struct {
	ActionID int
	Patch    api.ActionPatch
}

type fakeClient struct {
	mu         sync.Mutex
	session    *domain.SessionSnapshot
	sessionErr error
	patches    []patchCall
	patchErr   func(actionID int, p api.ActionPatch) error
}

func (f *fakeClient) GetSession(context.Context) (*domain.SessionSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	cp := *f.session
	return &cp, nil
}

func (f *fakeClient) PatchAction(_ context.Context, actionID int, p api.ActionPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.patchErr != nil {
		if err := f.patchErr(actionID, p); err != nil {
			return err
		}
	}
	f.patches = append(f.patches, patchCall{ActionID: actionID, Patch: p})
	return nil
}

func (f *fakeClient) setSession(s *domain.SessionSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = s
}

func (f *fakeClient) calls() []patchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]patchCall(nil), f.patches...)
}

func testCatalog() *champion.Catalog {
	c := champion.NewCatalog(zerolog.Nop())
	c.Replace([]domain.Champion{
		{ID: idLeeSin, Alias: "LeeSin", Name: "Lee Sin"},
		{ID: idVi, Alias: "Vi", Name: "Vi"},
		{ID: idUdyr, Alias: "Udyr", Name: "Udyr"},
		{ID: idAhri, Alias: "Ahri", Name: "Ahri"},
		{ID: idZed, Alias: "Zed", Name: "Zed"},
		{ID: idYasuo, Alias: "Yasuo", Name: "Yasuo"},
	}, []int{idLeeSin, idVi, idUdyr, idAhri, idYasuo})
	return c
}

func testChampions() config.Champions {
	return config.Champions{
		Pick: map[domain.Role][]string{
			domain.RoleJungle: {"vi", "udyr"},
			domain.RoleMiddle: {"ahri", "yasuo"},
		},
		Ban: map[domain.Role][]string{
			domain.RoleJungle: {"zed", "yasuo"},
		},
	}
}

type engineOpt func(*Options)

func withDelay(clock clockwork.Clock, d time.Duration) engineOpt {
	return func(o *Options) {
		o.Clock = clock
		o.LockInDelay = d
	}
}

func withChampions(c config.Champions) engineOpt {
	return func(o *Options) { o.Champions = c }
}

func newTestEngine(t *testing.T, client *fakeClient, req config.Request, opts ...engineOpt) *Engine {
	t.Helper()
	o := Options{
		Client:    client,
		Catalog:   testCatalog(),
		Champions: testChampions(),
		Request:   req,
		Clock:     clockwork.NewFakeClock(),
		Logger:    zerolog.Nop(),
	}
	for _, fn := range opts {
		fn(&o)
	}
	e := New(o)
	if err := e.ResolveRequest(); err != nil {
		t.Fatalf("resolve request: %v", err)
	}
	return e
}

// session builds a snapshot where the local seat owns a ban action (id 1)
// and a pick action (id 2).
func session(phase string, bans []int, pick, ban domain.ActionRecord, others ...domain.ActionRecord) *domain.SessionSnapshot {
	pick.ID, pick.ActorCellID, pick.Kind, pick.IsAllyAction = 2, localCell, domain.ActionPick, true
	ban.ID, ban.ActorCellID, ban.Kind, ban.IsAllyAction = 1, localCell, domain.ActionBan, true
	return &domain.SessionSnapshot{
		Phase:       phase,
		LocalCellID: localCell,
		MyTeamBans:  bans,
		Actions: [][]domain.ActionRecord{
			{ban},
			append([]domain.ActionRecord{pick}, others...),
		},
		MyTeam: []domain.TeamMember{
			{CellID: 1, AssignedPosition: "top"},
			{CellID: localCell, AssignedPosition: "jungle"},
		},
	}
}
