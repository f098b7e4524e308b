package api

type SessionResponse struct {
	LocalPlayerCellID *int               `json:"localPlayerCellId"`
	Actions           [][]ActionResponse `json:"actions"`
	Bans              *struct {
		MyTeamBans    []int `json:"myTeamBans"`
		TheirTeamBans []int `json:"theirTeamBans"`
	} `json:"bans"`
	Timer *struct {
		Phase *string `json:"phase"`
	} `json:"timer"`
	MyTeam []struct {
		CellID           int    `json:"cellId"`
		AssignedPosition string `json:"assignedPosition"`
		ChampionID       int    `json:"championId"`
	} `json:"myTeam"`
}

type ActionResponse struct {
	ID           int    `json:"id"`
	ActorCellID  int    `json:"actorCellId"`
	ChampionID   int    `json:"championId"`
	Completed    bool   `json:"completed"`
	IsAllyAction bool   `json:"isAllyAction"`
	IsInProgress bool   `json:"isInProgress"`
	Type         string `json:"type"`
}

// ActionPatch is the body of a hover (Completed false) or commit
// (Completed true) against the same action id.
type ActionPatch struct {
	ChampionID int  `json:"championId"`
	Completed  bool `json:"completed"`
}

type MySelectionPatch struct {
	Spell1ID int `json:"spell1Id"`
	Spell2ID int `json:"spell2Id"`
}

type SummonerResponse struct {
	SummonerID  int64  `json:"summonerId"`
	AccountID   int64  `json:"accountId"`
	DisplayName string `json:"displayName"`
	GameName    string `json:"gameName"`
}

type ChampionResponse struct {
	ID    int    `json:"id"`
	Alias string `json:"alias"`
	Name  string `json:"name"`
}

type RunePageResponse struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	PrimaryStyleID  int    `json:"primaryStyleId"`
	SubStyleID      int    `json:"subStyleId"`
	SelectedPerkIDs []int  `json:"selectedPerkIds"`
	Current         bool   `json:"current"`
}

type RunePageRequest struct {
	ID              int    `json:"id,omitempty"`
	Name            string `json:"name"`
	PrimaryStyleID  int    `json:"primaryStyleId,omitempty"`
	SubStyleID      int    `json:"subStyleId,omitempty"`
	SelectedPerkIDs []int  `json:"selectedPerkIds,omitempty"`
	Current         bool   `json:"current"`
	IsTemporary     bool   `json:"isTemporary"`
	Order           int    `json:"order"`
}

type RecommendedPageResponse struct {
	PrimaryPerkStyleID   int `json:"primaryPerkStyleId"`
	SecondaryPerkStyleID int `json:"secondaryPerkStyleId"`
	Perks                []struct {
		ID int `json:"id"`
	} `json:"perks"`
	SummonerSpellIDs []int `json:"summonerSpellIds"`
}

type LobbyResponse struct {
	LocalMember struct {
		FirstPositionPreference  string `json:"firstPositionPreference"`
		SecondPositionPreference string `json:"secondPositionPreference"`
	} `json:"localMember"`
}
