package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"lol-autopilot/internal/api"
	"lol-autopilot/internal/champion"
	"lol-autopilot/internal/service"

	"github.com/rs/zerolog"
)

const (
	msgNotConnected     = "Not connected to League client"
	msgUnknownChampion  = "Specified champion doesn't exist"
	msgMissingChampion  = "Invalid data parameter: POST request should contain a 'champ' key."
	msgMissingSetRunes  = "Invalid data parameter: POST request should contain a 'setrunes' key."
	msgAlreadyRunning   = "Autopilot already running"
	msgNotInChampSelect = "Not in champ select"
)

// envelope is the body every REST route answers with.
type envelope struct {
	Success    bool   `json:"success"`
	StatusText string `json:"statusText"`
	Body       any    `json:"body,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, body any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Body: body})
}

func fail(w http.ResponseWriter, status int, text string) {
	writeJSON(w, status, envelope{Success: false, StatusText: text})
}

// failErr maps a controller error onto a status code and message.
func failErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotRunning):
		fail(w, http.StatusServiceUnavailable, msgNotConnected)
	case errors.Is(err, service.ErrAlreadyRunning):
		fail(w, http.StatusConflict, msgAlreadyRunning)
	case errors.Is(err, service.ErrNotInChampSelect):
		fail(w, http.StatusConflict, msgNotInChampSelect)
	case errors.Is(err, champion.ErrUnknownChampion):
		fail(w, http.StatusNotFound, msgUnknownChampion)
	case errors.Is(err, api.ErrTransport):
		fail(w, http.StatusBadGateway, err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		fail(w, http.StatusInternalServerError, err.Error())
	}
}

type handlers struct {
	ctrl Controller
}

func (h handlers) start(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.Start(r.Context()); err != nil {
		failErr(w, r, err)
		return
	}
	ok(w, nil)
}

func (h handlers) status(w http.ResponseWriter, r *http.Request) {
	s := h.ctrl.Status()
	writeJSON(w, http.StatusOK, envelope{Success: s.Running, Body: toStatusResponse(s)})
}

// field serves one status field, only while the worker runs.
func (h handlers) field(get func(service.Status) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := h.ctrl.Status()
		if !s.Running {
			fail(w, http.StatusServiceUnavailable, msgNotConnected)
			return
		}
		ok(w, get(s))
	}
}

func (h handlers) setChampion(set func(*http.Request, string) (service.SetResult, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChampionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Champion == "" {
			fail(w, http.StatusBadRequest, msgMissingChampion)
			return
		}
		res, err := set(r, req.Champion)
		if err != nil {
			failErr(w, r, err)
			return
		}
		if !res.Valid {
			writeJSON(w, http.StatusOK, envelope{
				Success:    false,
				StatusText: res.Reason,
				Body:       toChampionResponse(res),
			})
			return
		}
		ok(w, toChampionResponse(res))
	}
}

func (h handlers) setLoadoutPreference(w http.ResponseWriter, r *http.Request) {
	var req LoadoutPreferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		fail(w, http.StatusBadRequest, msgMissingSetRunes)
		return
	}
	if err := h.ctrl.SetLoadoutPreference(r.Context(), *req.Enabled); err != nil {
		failErr(w, r, err)
		return
	}
	ok(w, LoadoutPreferenceResponse{Enabled: *req.Enabled})
}

func (h handlers) sendLoadout(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.SendLoadout(r.Context()); err != nil {
		failErr(w, r, err)
		return
	}
	ok(w, nil)
}

func (h handlers) history(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			fail(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	entries, err := h.ctrl.History(r.Context(), limit)
	if err != nil {
		failErr(w, r, err)
		return
	}
	ok(w, toHistory(entries))
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
