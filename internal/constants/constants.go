package constants

import "time"

const (
	DefaultPollInterval     = 1 * time.Second
	LockInStep              = 1 * time.Second
	DefaultRequestTimeout   = 5 * time.Second
	DefaultReconnectBackoff = 3 * time.Second
	CommandReplyTimeout     = 10 * time.Second
)

const (
	DatabaseTimeout = 5 * time.Second
	HistoryLimit    = 50
)

const (
	DBMaxOpenConns    = 4
	DBMaxIdleConns    = 2
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

// Local client endpoints.
const (
	EndpointGameflowPhase      = "/lol-gameflow/v1/gameflow-phase"
	EndpointSession            = "/lol-champ-select/v1/session"
	EndpointSessionAction      = "/lol-champ-select/v1/session/actions/%d"
	EndpointMySelection        = "/lol-champ-select/v1/session/my-selection"
	EndpointCurrentChampion    = "/lol-champ-select/v1/current-champion"
	EndpointCurrentSummoner    = "/lol-summoner/v1/current-summoner"
	EndpointOwnedChampions     = "/lol-champions/v1/owned-champions-minimal"
	EndpointAllChampions       = "/lol-champions/v1/inventories/%d/champions"
	EndpointRunePages          = "/lol-perks/v1/pages"
	EndpointRunePage           = "/lol-perks/v1/pages/%d"
	EndpointRecommendedPages   = "/lol-perks/v1/recommended-pages/champion/%d/position/%s/map/%d"
	EndpointLobby              = "/lol-lobby/v2/lobby"
	EndpointMatchmakingSearch  = "/lol-lobby/v2/lobby/matchmaking/search"
	EndpointReadyCheckAccept   = "/lol-matchmaking/v1/ready-check/accept"
	LockfileUser               = "riot"
	SummonersRiftMapID         = 11
	MaxRunePagesMessage        = "Max pages reached"
	DefaultRunePagePrefix      = "Auto:"
	DefaultRecommendedPosition = "none"
)

// Summoner spell ids.
const (
	SpellGhost   = 1
	SpellFlash   = 4
	SpellCleanse = 6
)
