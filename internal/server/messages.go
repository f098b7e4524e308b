package server

import (
	"strconv"
	"time"

	"lol-autopilot/internal/domain"
	"lol-autopilot/internal/service"
)

type Empty struct{}

type StatusResponse struct {
	Running          bool              `json:"running"`
	Phase            string            `json:"phase"`
	PhaseDisplay     string            `json:"phase_display"`
	ChampSelectPhase string            `json:"champ_select_phase,omitempty"`
	Role             string            `json:"role"`
	UserRole         string            `json:"user_role,omitempty"`
	Pick             string            `json:"pick"`
	Ban              string            `json:"ban"`
	UserPick         string            `json:"user_pick,omitempty"`
	UserBan          string            `json:"user_ban,omitempty"`
	HasPicked        bool              `json:"has_picked"`
	HasBanned        bool              `json:"has_banned"`
	AutoLoadout      bool              `json:"auto_loadout"`
	LoadoutSent      bool              `json:"loadout_sent"`
	InvalidPicks     map[string]string `json:"invalid_picks,omitempty"`
	InvalidBans      map[string]string `json:"invalid_bans,omitempty"`
	LastError        string            `json:"last_error,omitempty"`
	UpdatedAt        *time.Time        `json:"updated_at,omitempty"`
}

type ChampionRequest struct {
	Champion string `json:"champ"`
}

type ChampionResponse struct {
	Champion string `json:"champ"`
	Valid    bool   `json:"valid"`
	Reason   string `json:"reason,omitempty"`
}

type LoadoutPreferenceRequest struct {
	Enabled *bool `json:"setrunes"`
}

type LoadoutPreferenceResponse struct {
	Enabled bool `json:"setrunes"`
}

type HistoryEntry struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Kind       string    `json:"kind"`
	ChampionID int       `json:"champion_id"`
	Champion   string    `json:"champion"`
	Outcome    string    `json:"outcome"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func toStatusResponse(s service.Status) *StatusResponse {
	resp := &StatusResponse{
		Running:          s.Running,
		Phase:            string(s.Phase),
		PhaseDisplay:     s.Phase.Display(),
		ChampSelectPhase: s.ChampSelectPhase,
		Role:             s.Role.Display(),
		UserRole:         s.UserRole.Display(),
		Pick:             s.Pick,
		Ban:              s.Ban,
		UserPick:         s.UserPick,
		UserBan:          s.UserBan,
		HasPicked:        s.HasPicked,
		HasBanned:        s.HasBanned,
		AutoLoadout:      s.AutoLoadout,
		LoadoutSent:      s.LoadoutSent,
		InvalidPicks:     stringKeys(s.InvalidPicks),
		InvalidBans:      stringKeys(s.InvalidBans),
		LastError:        s.LastError,
	}
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		resp.UpdatedAt = &t
	}
	return resp
}

func stringKeys(m map[int]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for id, reason := range m {
		out[strconv.Itoa(id)] = reason
	}
	return out
}

func toChampionResponse(r service.SetResult) *ChampionResponse {
	return &ChampionResponse{Champion: r.Champion, Valid: r.Valid, Reason: r.Reason}
}

func toHistory(entries []domain.HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntry{
			ID:         e.ID,
			SessionID:  e.SessionID,
			Kind:       string(e.Kind),
			ChampionID: e.ChampionID,
			Champion:   e.Champion,
			Outcome:    e.Outcome,
			Reason:     e.Reason,
			CreatedAt:  e.CreatedAt,
		})
	}
	return out
}
