package loadout

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"lol-autopilot/internal/api"
	"lol-autopilot/internal/constants"
	"lol-autopilot/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu        sync.Mutex
	pages     []domain.RunePage
	rec       *domain.RecommendedLoadout
	createErr error
	created   *domain.RunePage
	puts      []api.RunePageRequest
	spells    [][2]int
	creates   int
}

func (f *fakeClient) GetRunePages(context.Context) ([]domain.RunePage, error) {
	return f.pages, nil
}

func (f *fakeClient) CreateRunePage(context.Context, api.RunePageRequest) (*domain.RunePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.created, nil
}

func (f *fakeClient) PutRunePage(_ context.Context, _ int, req api.RunePageRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, req)
	return nil
}

func (f *fakeClient) GetRecommendedLoadout(context.Context, int, string) (*domain.RecommendedLoadout, error) {
	return f.rec, nil
}

func (f *fakeClient) PatchMySelection(_ context.Context, s1, s2 int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spells = append(f.spells, [2]int{s1, s2})
	return nil
}

func newResolver(client *fakeClient) *Resolver {
	return NewResolver(client, Options{Prefix: "Auto:", FlashOnF: true}, zerolog.Nop())
}

func pages(names ...string) []domain.RunePage {
	out := make([]domain.RunePage, 0, len(names))
	for i, n := range names {
		out = append(out, domain.RunePage{ID: 100 + i, Name: n})
	}
	return out
}

func TestSelectPage_OperatorPageWins(t *testing.T) {
	client := &fakeClient{}
	sel, err := newResolver(client).SelectPage(t.Context(), "ahri", pages("MyAhriPage", "Auto: Ahri middle runes"))
	require.NoError(t, err)
	assert.Equal(t, "MyAhriPage", sel.Page.Name)
	assert.False(t, sel.Overwrite)
	assert.Zero(t, client.creates)
}

func TestSelectPage_OperatorPageAfterGenerated(t *testing.T) {
	sel, err := newResolver(&fakeClient{}).SelectPage(t.Context(), "ahri", pages("Auto: Zed top runes", "ahri mid"))
	require.NoError(t, err)
	assert.Equal(t, "ahri mid", sel.Page.Name)
	assert.False(t, sel.Overwrite)
}

func TestSelectPage_OverwritesGenerated(t *testing.T) {
	client := &fakeClient{}
	sel, err := newResolver(client).SelectPage(t.Context(), "yasuo", pages("Auto: Zed top runes"))
	require.NoError(t, err)
	assert.Equal(t, "Auto: Zed top runes", sel.Page.Name)
	assert.True(t, sel.Overwrite)
	assert.Zero(t, client.creates)
}

func TestSelectPage_CreatesWhenNothingMatches(t *testing.T) {
	client := &fakeClient{created: &domain.RunePage{ID: 555, Name: "temp"}}
	sel, err := newResolver(client).SelectPage(t.Context(), "ahri", nil)
	require.NoError(t, err)
	assert.Equal(t, 555, sel.Page.ID)
	assert.True(t, sel.Overwrite)
}

func TestSelectPage_QuotaFallsBackToLastPage(t *testing.T) {
	client := &fakeClient{createErr: &api.APIError{
		Status:  http.StatusBadRequest,
		Message: constants.MaxRunePagesMessage,
		Body:    `{"message":"Max pages reached"}`,
	}}
	existing := pages("Stuff", "Other stuff")

	sel, err := newResolver(client).SelectPage(t.Context(), "ahri", existing)
	require.NoError(t, err)
	assert.Equal(t, 101, sel.Page.ID)
	assert.True(t, sel.Overwrite)

	_, err = newResolver(client).SelectPage(t.Context(), "ahri", nil)
	assert.ErrorIs(t, err, ErrPageQuota)
}

func TestSelectPage_OtherCreateFailureSurfaced(t *testing.T) {
	client := &fakeClient{createErr: &api.APIError{Status: http.StatusInternalServerError, Body: "boom"}}
	_, err := newResolver(client).SelectPage(t.Context(), "ahri", pages("Stuff"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrPageQuota))
}

func TestPageName(t *testing.T) {
	r := newResolver(&fakeClient{})
	assert.Equal(t, "Auto: Ahri middle runes", r.PageName("ahri", domain.RoleMiddle))
	assert.Equal(t, "Auto: Nami support runes", r.PageName("nami", domain.RoleUtility))
	assert.Equal(t, "Auto: Nami runes", r.PageName("nami", ""))
}

func TestFixSpells(t *testing.T) {
	flash, ghost, cleanse := constants.SpellFlash, constants.SpellGhost, constants.SpellCleanse

	assert.Equal(t, [2]int{14, flash}, FixSpells([2]int{flash, 14}, true, nil))
	assert.Equal(t, [2]int{flash, 14}, FixSpells([2]int{flash, 14}, false, nil))
	assert.Equal(t, [2]int{14, flash}, FixSpells([2]int{14, flash}, true, nil))
	assert.Equal(t, [2]int{ghost, cleanse}, FixSpells([2]int{flash, 14}, true, []int{ghost, cleanse}))
	assert.Equal(t, [2]int{ghost, flash}, FixSpells([2]int{7, 3}, true, []int{flash, ghost}))
}

func TestSend_OverwritesWithRecommendation(t *testing.T) {
	client := &fakeClient{
		pages: pages("Auto: Zed top runes"),
		rec: &domain.RecommendedLoadout{
			PrimaryStyleID:   8100,
			SubStyleID:       8300,
			PerkIDs:          []int{8112, 8139},
			SummonerSpellIDs: [2]int{constants.SpellFlash, 14},
		},
	}
	res, err := newResolver(client).Send(t.Context(), 103, "ahri", domain.RoleMiddle)
	require.NoError(t, err)

	require.Len(t, client.puts, 1)
	put := client.puts[0]
	assert.Equal(t, 100, put.ID)
	assert.Equal(t, "Auto: Ahri middle runes", put.Name)
	assert.Equal(t, 8100, put.PrimaryStyleID)
	assert.Equal(t, []int{8112, 8139}, put.SelectedPerkIDs)
	assert.True(t, put.Current)

	assert.Equal(t, [][2]int{{14, constants.SpellFlash}}, client.spells)
	assert.True(t, res.Overwrite)
}

func TestSend_KeepsOperatorPage(t *testing.T) {
	own := domain.RunePage{ID: 9, Name: "my ahri", PrimaryStyleID: 8200, SelectedPerkIDs: []int{1, 2}}
	client := &fakeClient{
		pages: []domain.RunePage{own},
		rec:   &domain.RecommendedLoadout{PrimaryStyleID: 8100, SummonerSpellIDs: [2]int{4, 12}},
	}
	_, err := newResolver(client).Send(t.Context(), 103, "ahri", domain.RoleMiddle)
	require.NoError(t, err)

	require.Len(t, client.puts, 1)
	assert.Equal(t, "my ahri", client.puts[0].Name)
	assert.Equal(t, 8200, client.puts[0].PrimaryStyleID)
}
