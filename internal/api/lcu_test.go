package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"lol-autopilot/internal/config"
	"lol-autopilot/internal/domain"
	"lol-autopilot/internal/lockfile"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) *LCUClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	c := NewLCUClient(&config.Config{RequestTimeout: 2 * time.Second}, zerolog.Nop())
	c.UseDescriptor(lockfile.Descriptor{Port: port, Password: "pw", Protocol: "http"})
	return c
}

const sessionJSON = `{
  "localPlayerCellId": 2,
  "timer": {"phase": "BAN_PICK", "adjustedTimeLeftInPhase": 25000},
  "bans": {"myTeamBans": [64], "theirTeamBans": []},
  "myTeam": [{"cellId": 2, "assignedPosition": "JUNGLE", "championId": 0}],
  "actions": [
    [{"id": 7, "actorCellId": 2, "championId": 0, "completed": false, "isAllyAction": true, "isInProgress": true, "type": "ban"}],
    [{"id": 11, "actorCellId": 2, "championId": 254, "completed": false, "isAllyAction": true, "isInProgress": false, "type": "pick"}]
  ]
}`

func TestGetSession_ParsesSnapshot(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lol-champ-select/v1/session", r.URL.Path)
		assert.Equal(t, "Basic cmlvdDpwdw==", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, sessionJSON)
	}))

	snap, err := c.GetSession(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.PhaseBanPick, snap.Phase)
	assert.Equal(t, []int{64}, snap.BannedIDs())
	assert.Equal(t, domain.RoleJungle, snap.AssignedRole())
	require.Len(t, snap.Actions, 2)
	assert.Equal(t, domain.ActionBan, snap.Actions[0][0].Kind)
	assert.True(t, snap.Actions[0][0].InProgress)
	assert.Equal(t, 254, snap.Actions[1][0].ChampionID)
}

func TestGetSession_DesyncOnMissingPhase(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"localPlayerCellId": 1, "timer": {"phase": null}, "bans": {}}`)
	}))

	_, err := c.GetSession(context.Background())
	assert.ErrorIs(t, err, domain.ErrSessionDesync)
}

func TestGetSession_DesyncOnNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"errorCode":"RPC_ERROR","httpStatus":404,"message":"No active delegate"}`)
	}))

	_, err := c.GetSession(context.Background())
	assert.ErrorIs(t, err, domain.ErrSessionDesync)
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
}

func TestPatchAction_SendsBodyAndParsesRejection(t *testing.T) {
	var got ActionPatch
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/lol-champ-select/v1/session/actions/11", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"httpStatus":500,"message":"Champion is Banned"}`)
	}))

	err := c.PatchAction(context.Background(), 11, ActionPatch{ChampionID: 64, Completed: true})
	require.Error(t, err)
	assert.Equal(t, ActionPatch{ChampionID: 64, Completed: true}, got)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "Champion is Banned", apiErr.Message)
	assert.True(t, apiErr.Mentions("banned"))
}

func TestRequest_NotConnected(t *testing.T) {
	c := NewLCUClient(&config.Config{RequestTimeout: time.Second}, zerolog.Nop())
	_, err := c.GetGameflowPhase(context.Background())
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestRequest_TransportErrorWhenServerGone(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	u, _ := url.Parse(srv.URL)
	port, _ := strconv.Atoi(u.Port())
	srv.Close()

	c := NewLCUClient(&config.Config{RequestTimeout: time.Second}, zerolog.Nop())
	c.UseDescriptor(lockfile.Descriptor{Port: port, Password: "pw", Protocol: "http"})

	_, err := c.GetGameflowPhase(context.Background())
	assert.ErrorIs(t, err, ErrTransport)
}

func TestGetGameflowPhaseAndRecommended(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/lol-gameflow/v1/gameflow-phase", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `"ChampSelect"`)
	})
	mux.HandleFunc("/lol-perks/v1/recommended-pages/champion/103/position/middle/map/11", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"primaryPerkStyleId":8100,"secondaryPerkStyleId":8300,"perks":[{"id":8112},{"id":8139}],"summonerSpellIds":[4,14]}]`)
	})
	c := newTestClient(t, mux)

	phase, err := c.GetGameflowPhase(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.GameflowChampSelect, phase)

	rec, err := c.GetRecommendedLoadout(context.Background(), 103, "middle")
	require.NoError(t, err)
	assert.Equal(t, 8100, rec.PrimaryStyleID)
	assert.Equal(t, []int{8112, 8139}, rec.PerkIDs)
	assert.Equal(t, [2]int{4, 14}, rec.SummonerSpellIDs)
}
