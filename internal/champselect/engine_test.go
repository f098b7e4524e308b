package champselect

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"lol-autopilot/internal/api"
	"lol-autopilot/internal/config"
	"lol-autopilot/internal/domain"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pickTurn = domain.ActionRecord{InProgress: true}
	banDone  = domain.ActionRecord{ChampionID: idZed, Completed: true}
)

func TestTick_PlanningHoversOnce(t *testing.T) {
	client := &fakeClient{session: session(domain.PhasePlanning, nil, domain.ActionRecord{}, domain.ActionRecord{})}
	e := newTestEngine(t, client, config.Request{Pick: "Lee Sin", Role: domain.RoleJungle})

	require.NoError(t, e.Tick(t.Context()))
	require.NoError(t, e.Tick(t.Context()))

	calls := client.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, patchCall{ActionID: 2, Patch: api.ActionPatch{ChampionID: idLeeSin}}, calls[0])
	assert.False(t, e.View().HasPicked)
}

func TestTick_HoversBeforeCommit(t *testing.T) {
	client := &fakeClient{session: session(domain.PhaseBanPick, nil, pickTurn, banDone)}
	e := newTestEngine(t, client, config.Request{Pick: "leesin", Role: domain.RoleJungle})

	require.NoError(t, e.Tick(t.Context()))

	assert.Equal(t, []patchCall{
		{ActionID: 2, Patch: api.ActionPatch{ChampionID: idLeeSin}},
		{ActionID: 2, Patch: api.ActionPatch{ChampionID: idLeeSin, Completed: true}},
	}, client.calls())

	v := e.View()
	assert.True(t, v.HasPicked)
	assert.True(t, v.HasBanned)
	assert.Equal(t, StateCommitted, v.PickState)

	events := e.DrainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, OutcomeCommitted, events[0].Outcome)
	assert.Equal(t, domain.ActionPick, events[0].Kind)
	assert.Equal(t, v.SessionID, events[0].SessionID)
}

func TestTick_BanThenHoverPick(t *testing.T) {
	banTurn := domain.ActionRecord{InProgress: true}
	client := &fakeClient{session: session(domain.PhaseBanPick, nil, domain.ActionRecord{}, banTurn)}
	e := newTestEngine(t, client, config.Request{Pick: "vi", Ban: "zed", Role: domain.RoleJungle})

	require.NoError(t, e.Tick(t.Context()))

	assert.Equal(t, []patchCall{
		{ActionID: 1, Patch: api.ActionPatch{ChampionID: idZed}},
		{ActionID: 1, Patch: api.ActionPatch{ChampionID: idZed, Completed: true}},
		{ActionID: 2, Patch: api.ActionPatch{ChampionID: idVi}},
	}, client.calls())
	assert.True(t, e.View().HasBanned)
	assert.False(t, e.View().HasPicked)
}

func TestTick_CommitRejectionInvalidatesAndFallsBack(t *testing.T) {
	client := &fakeClient{session: session(domain.PhaseBanPick, nil, pickTurn, banDone)}
	client.patchErr = func(_ int, p api.ActionPatch) error {
		if p.Completed && p.ChampionID == idLeeSin {
			return &api.APIError{Status: http.StatusInternalServerError, Body: `{"message":"champion is banned"}`}
		}
		return nil
	}
	e := newTestEngine(t, client, config.Request{Pick: "leesin", Role: domain.RoleJungle})

	require.NoError(t, e.Tick(t.Context()))

	v := e.View()
	assert.False(t, v.HasPicked)
	assert.Equal(t, ReasonCommitRejected, v.InvalidPicks[idLeeSin])
	assert.Equal(t, "vi", v.Intent.PickIntent)
	assert.Equal(t, "leesin", v.Intent.UserPick)

	events := e.DrainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, OutcomeRejected, events[0].Outcome)

	require.NoError(t, e.Tick(t.Context()))
	calls := client.calls()
	assert.Equal(t, api.ActionPatch{ChampionID: idVi, Completed: true}, calls[len(calls)-1].Patch)
	assert.True(t, e.View().HasPicked)
}

func TestTick_HoverRejectionIsNotCached(t *testing.T) {
	client := &fakeClient{session: session(domain.PhasePlanning, nil, domain.ActionRecord{}, domain.ActionRecord{})}
	client.patchErr = func(int, api.ActionPatch) error {
		return &api.APIError{Status: http.StatusInternalServerError, Body: "banned"}
	}
	e := newTestEngine(t, client, config.Request{Pick: "leesin", Role: domain.RoleJungle})

	require.NoError(t, e.Tick(t.Context()))
	assert.Empty(t, e.View().InvalidPicks)
	assert.Equal(t, "leesin", e.Intent().PickIntent)
}

func TestTick_SessionDesyncIsNoop(t *testing.T) {
	client := &fakeClient{sessionErr: fmt.Errorf("%w: missing bans", domain.ErrSessionDesync)}
	e := newTestEngine(t, client, config.Request{Pick: "leesin"})

	assert.NoError(t, e.Tick(t.Context()))
	assert.Empty(t, client.calls())
}

func TestTick_TransportErrorPropagates(t *testing.T) {
	client := &fakeClient{sessionErr: api.ErrNotConnected}
	e := newTestEngine(t, client, config.Request{Pick: "leesin"})

	assert.ErrorIs(t, e.Tick(t.Context()), api.ErrTransport)
}

func TestTick_NoViablePickSurfaced(t *testing.T) {
	client := &fakeClient{session: session(domain.PhaseBanPick, []int{idLeeSin, idVi, idUdyr}, pickTurn, banDone)}
	e := newTestEngine(t, client, config.Request{Pick: "leesin", Role: domain.RoleJungle})

	err := e.Tick(t.Context())
	assert.ErrorIs(t, err, ErrNoViableChampion)
	assert.Empty(t, client.calls())
	assert.Equal(t, "", e.Intent().PickIntent)
}

func TestTick_FinalizationDoesNothing(t *testing.T) {
	client := &fakeClient{session: session(domain.PhaseFinalization, nil, pickTurn, domain.ActionRecord{})}
	e := newTestEngine(t, client, config.Request{Pick: "leesin"})

	require.NoError(t, e.Tick(t.Context()))
	assert.Empty(t, client.calls())
	assert.Equal(t, domain.PhaseFinalization, e.Phase())
}

func TestReset_RestoresRequest(t *testing.T) {
	client := &fakeClient{session: session(domain.PhaseBanPick, []int{idLeeSin}, pickTurn, banDone)}
	e := newTestEngine(t, client, config.Request{Pick: "leesin", Ban: "yasuo", Role: domain.RoleJungle})

	require.NoError(t, e.Tick(t.Context()))
	before := e.View()
	require.True(t, before.HasPicked)
	require.True(t, before.HasBanned)
	require.Equal(t, "vi", before.Intent.PickIntent)

	e.Reset()

	after := e.View()
	assert.False(t, after.HasPicked)
	assert.False(t, after.HasBanned)
	assert.Empty(t, after.InvalidPicks)
	assert.Empty(t, after.InvalidBans)
	assert.Equal(t, "leesin", after.Intent.PickIntent)
	assert.Equal(t, "yasuo", after.Intent.BanIntent)
	assert.Equal(t, StateIdle, after.PickState)
	assert.NotEqual(t, before.SessionID, after.SessionID)
}

func TestTick_LockInWaitFollowsOverride(t *testing.T) {
	clock := clockwork.NewFakeClock()
	client := &fakeClient{session: session(domain.PhaseBanPick, nil, pickTurn, banDone)}
	e := newTestEngine(t, client, config.Request{Pick: "leesin", Role: domain.RoleJungle}, withDelay(clock, 3*time.Second))

	steps := 0
	e.OnStep = func(context.Context) {
		steps++
		if steps == 1 {
			_, _, err := e.SetUserPick("udyr")
			assert.NoError(t, err)
		}
	}

	done := make(chan error, 1)
	go func() { done <- e.Tick(t.Context()) }()

	for i := 0; i < 3; i++ {
		require.NoError(t, clock.BlockUntilContext(t.Context(), 1))
		clock.Advance(time.Second)
	}

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("tick did not finish")
	}

	assert.Equal(t, 3, steps)
	assert.Equal(t, []patchCall{
		{ActionID: 2, Patch: api.ActionPatch{ChampionID: idLeeSin}},
		{ActionID: 2, Patch: api.ActionPatch{ChampionID: idUdyr}},
		{ActionID: 2, Patch: api.ActionPatch{ChampionID: idUdyr, Completed: true}},
	}, client.calls())
}

func TestTick_LockInWaitEndsOnManualLock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	client := &fakeClient{session: session(domain.PhaseBanPick, nil, pickTurn, banDone)}
	e := newTestEngine(t, client, config.Request{Pick: "leesin", Role: domain.RoleJungle}, withDelay(clock, 10*time.Second))

	locked := domain.ActionRecord{ChampionID: idAhri, Completed: true}
	e.OnStep = func(context.Context) {
		client.setSession(session(domain.PhaseBanPick, nil, locked, banDone))
	}

	done := make(chan error, 1)
	go func() { done <- e.Tick(t.Context()) }()

	require.NoError(t, clock.BlockUntilContext(t.Context(), 1))
	clock.Advance(time.Second)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("tick did not finish")
	}

	assert.Len(t, client.calls(), 1, "only the initial hover")
	assert.True(t, e.View().HasPicked)
}

func TestTick_LockInWaitCancelled(t *testing.T) {
	clock := clockwork.NewFakeClock()
	client := &fakeClient{session: session(domain.PhaseBanPick, nil, pickTurn, banDone)}
	e := newTestEngine(t, client, config.Request{Pick: "leesin", Role: domain.RoleJungle}, withDelay(clock, time.Minute))

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- e.Tick(ctx) }()

	require.NoError(t, clock.BlockUntilContext(t.Context(), 1))
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("tick ignored cancellation")
	}
	assert.False(t, e.View().HasPicked)
}

func TestTick_BanNeverTakesThisRoundsPickFallback(t *testing.T) {
	champs := config.Champions{
		Pick: map[domain.Role][]string{domain.RoleJungle: {"vi", "udyr"}},
		Ban:  map[domain.Role][]string{domain.RoleJungle: {"vi", "zed"}},
	}
	banTurn := domain.ActionRecord{InProgress: true}
	client := &fakeClient{session: session(domain.PhaseBanPick, []int{idLeeSin}, domain.ActionRecord{}, banTurn)}
	e := newTestEngine(t, client, config.Request{Pick: "leesin", Role: domain.RoleJungle}, withChampions(champs))

	require.NoError(t, e.Tick(t.Context()))

	v := e.View()
	assert.Equal(t, "vi", v.Intent.PickIntent)
	assert.Equal(t, "zed", v.Intent.BanIntent)
	assert.Equal(t, ReasonIntendedPick, v.InvalidBans[idVi])
	assert.Equal(t, []patchCall{
		{ActionID: 1, Patch: api.ActionPatch{ChampionID: idZed}},
		{ActionID: 1, Patch: api.ActionPatch{ChampionID: idZed, Completed: true}},
		{ActionID: 2, Patch: api.ActionPatch{ChampionID: idVi}},
	}, client.calls())
}

func TestSetUserPick_OverrideWhileAutofilled(t *testing.T) {
	// Queued middle with ahri, assigned jungle.
	client := &fakeClient{session: session(domain.PhasePlanning, nil, domain.ActionRecord{}, domain.ActionRecord{})}
	e := newTestEngine(t, client, config.Request{Pick: "ahri", Role: domain.RoleMiddle})
	require.NoError(t, e.Refresh(t.Context()))

	ok, reason, err := e.SetUserPick("Udyr")
	require.NoError(t, err)
	assert.True(t, ok, reason)

	require.NoError(t, e.Tick(t.Context()))

	v := e.View()
	assert.Equal(t, "udyr", v.Intent.PickIntent)
	assert.Equal(t, "ahri", v.Intent.UserPick)
	assert.Equal(t, "udyr", v.Intent.OverridePick)
	assert.NotContains(t, v.InvalidPicks, idUdyr)
	assert.Equal(t, []patchCall{{ActionID: 2, Patch: api.ActionPatch{ChampionID: idUdyr}}}, client.calls())

	// The original request still faces the autofill rule.
	ok, reason, err = e.SetUserPick("ahri")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, ReasonAutofilled, reason)

	e.Reset()
	assert.Equal(t, "ahri", e.Intent().PickIntent)
}
