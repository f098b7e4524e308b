package domain

import (
	"errors"
	"time"
)

// ErrSessionDesync means the polled session is missing fields the engine
// relies on, usually because someone dodged and the lobby collapsed.
var ErrSessionDesync = errors.New("champ select session desync")

type ActionKind string

const (
	ActionPick ActionKind = "pick"
	ActionBan  ActionKind = "ban"
)

// Gameflow phases reported by the client.
type GameflowPhase string

const (
	GameflowNone        GameflowPhase = "None"
	GameflowLobby       GameflowPhase = "Lobby"
	GameflowMatchmaking GameflowPhase = "Matchmaking"
	GameflowReadyCheck  GameflowPhase = "ReadyCheck"
	GameflowChampSelect GameflowPhase = "ChampSelect"
	GameflowGameStart   GameflowPhase = "GameStart"
	GameflowInProgress  GameflowPhase = "InProgress"
)

// Display renders the phase the way the control surface shows it.
func (p GameflowPhase) Display() string {
	switch p {
	case GameflowNone, "":
		return "Main Menu"
	case GameflowMatchmaking:
		return "In Queue"
	case GameflowReadyCheck:
		return "Ready Check"
	case GameflowChampSelect:
		return "Champselect"
	default:
		return string(p)
	}
}

// Champ select sub-phases (session timer phase).
const (
	PhasePlanning     = "PLANNING"
	PhaseBanPick      = "BAN_PICK"
	PhaseFinalization = "FINALIZATION"
)

type ActionRecord struct {
	ID           int
	ActorCellID  int
	Kind         ActionKind
	ChampionID   int
	Completed    bool
	InProgress   bool
	IsAllyAction bool
}

type TeamMember struct {
	CellID           int
	AssignedPosition string
	ChampionID       int
}

type SessionSnapshot struct {
	Phase         string
	LocalCellID   int
	MyTeamBans    []int
	TheirTeamBans []int
	Actions       [][]ActionRecord
	MyTeam        []TeamMember
}

// BannedIDs returns the union of both teams' bans.
func (s *SessionSnapshot) BannedIDs() []int {
	out := make([]int, 0, len(s.MyTeamBans)+len(s.TheirTeamBans))
	out = append(out, s.MyTeamBans...)
	return append(out, s.TheirTeamBans...)
}

// AssignedRole is the local player's assigned position, empty in modes
// without positions.
func (s *SessionSnapshot) AssignedRole() Role {
	for _, m := range s.MyTeam {
		if m.CellID == s.LocalCellID {
			return Role(m.AssignedPosition)
		}
	}
	return ""
}

// LocalActionState is the local player's view of the current round.
type LocalActionState struct {
	Pick      *ActionRecord
	Ban       *ActionRecord
	HasPicked bool
	HasBanned bool
}

func (s *LocalActionState) Action(kind ActionKind) *ActionRecord {
	if kind == ActionBan {
		return s.Ban
	}
	return s.Pick
}

func (s *LocalActionState) Done(kind ActionKind) bool {
	if kind == ActionBan {
		return s.HasBanned
	}
	return s.HasPicked
}

type Champion struct {
	ID    int
	Alias string
	Name  string
}

type RunePage struct {
	ID              int
	Name            string
	PrimaryStyleID  int
	SubStyleID      int
	SelectedPerkIDs []int
}

type RecommendedLoadout struct {
	PrimaryStyleID   int
	SubStyleID       int
	PerkIDs          []int
	SummonerSpellIDs [2]int
}

type HistoryEntry struct {
	ID         string
	SessionID  string
	Kind       ActionKind
	ChampionID int
	Champion   string
	Outcome    string
	Reason     string
	CreatedAt  time.Time
}
