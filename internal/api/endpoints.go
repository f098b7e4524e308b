package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"lol-autopilot/internal/constants"
	"lol-autopilot/internal/domain"
)

func (c *LCUClient) GetGameflowPhase(ctx context.Context) (domain.GameflowPhase, error) {
	phase, err := doRequest[string](ctx, c, http.MethodGet, constants.EndpointGameflowPhase, nil)
	if err != nil {
		return "", err
	}
	return domain.GameflowPhase(*phase), nil
}

// GetSession fetches the champ select session and validates it into a
// snapshot. Outside champ select, or after a dodge, it returns
// domain.ErrSessionDesync.
func (c *LCUClient) GetSession(ctx context.Context) (*domain.SessionSnapshot, error) {
	resp, err := doRequest[SessionResponse](ctx, c, http.MethodGet, constants.EndpointSession, nil)
	if err != nil {
		if StatusOf(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %w", domain.ErrSessionDesync, err)
		}
		return nil, err
	}
	return resp.Snapshot()
}

func (c *LCUClient) PatchAction(ctx context.Context, actionID int, patch ActionPatch) error {
	_, err := c.do(ctx, http.MethodPatch, fmt.Sprintf(constants.EndpointSessionAction, actionID), patch)
	return err
}

func (c *LCUClient) PatchMySelection(ctx context.Context, spell1, spell2 int) error {
	body := MySelectionPatch{Spell1ID: spell1, Spell2ID: spell2}
	_, err := c.do(ctx, http.MethodPatch, constants.EndpointMySelection, body)
	return err
}

// GetCurrentChampion only answers after the local player has locked in.
func (c *LCUClient) GetCurrentChampion(ctx context.Context) (int, error) {
	id, err := doRequest[int](ctx, c, http.MethodGet, constants.EndpointCurrentChampion, nil)
	if err != nil {
		return 0, err
	}
	return *id, nil
}

func (c *LCUClient) GetCurrentSummoner(ctx context.Context) (*SummonerResponse, error) {
	return doRequest[SummonerResponse](ctx, c, http.MethodGet, constants.EndpointCurrentSummoner, nil)
}

func (c *LCUClient) GetAllChampions(ctx context.Context, summonerID int64) ([]domain.Champion, error) {
	resp, err := doRequest[[]ChampionResponse](ctx, c, http.MethodGet, fmt.Sprintf(constants.EndpointAllChampions, summonerID), nil)
	if err != nil {
		return nil, err
	}
	return toChampions(*resp), nil
}

func (c *LCUClient) GetOwnedChampions(ctx context.Context) ([]domain.Champion, error) {
	resp, err := doRequest[[]ChampionResponse](ctx, c, http.MethodGet, constants.EndpointOwnedChampions, nil)
	if err != nil {
		return nil, err
	}
	return toChampions(*resp), nil
}

func (c *LCUClient) GetRunePages(ctx context.Context) ([]domain.RunePage, error) {
	resp, err := doRequest[[]RunePageResponse](ctx, c, http.MethodGet, constants.EndpointRunePages, nil)
	if err != nil {
		return nil, err
	}
	pages := make([]domain.RunePage, 0, len(*resp))
	for _, p := range *resp {
		pages = append(pages, p.toDomain())
	}
	return pages, nil
}

func (c *LCUClient) CreateRunePage(ctx context.Context, req RunePageRequest) (*domain.RunePage, error) {
	resp, err := doRequest[RunePageResponse](ctx, c, http.MethodPost, constants.EndpointRunePages, req)
	if err != nil {
		return nil, err
	}
	page := resp.toDomain()
	return &page, nil
}

func (c *LCUClient) PutRunePage(ctx context.Context, id int, req RunePageRequest) error {
	_, err := c.do(ctx, http.MethodPut, fmt.Sprintf(constants.EndpointRunePage, id), req)
	return err
}

func (c *LCUClient) GetRecommendedLoadout(ctx context.Context, championID int, position string) (*domain.RecommendedLoadout, error) {
	if position == "" {
		position = constants.DefaultRecommendedPosition
	}
	path := fmt.Sprintf(constants.EndpointRecommendedPages, championID, position, constants.SummonersRiftMapID)
	resp, err := doRequest[[]RecommendedPageResponse](ctx, c, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if len(*resp) == 0 {
		return nil, fmt.Errorf("no recommended pages for champion %d (%s)", championID, position)
	}

	rec := (*resp)[0]
	out := &domain.RecommendedLoadout{
		PrimaryStyleID: rec.PrimaryPerkStyleID,
		SubStyleID:     rec.SecondaryPerkStyleID,
	}
	for _, p := range rec.Perks {
		out.PerkIDs = append(out.PerkIDs, p.ID)
	}
	copy(out.SummonerSpellIDs[:], rec.SummonerSpellIDs)
	return out, nil
}

// GetPrimaryRole reads the role the local member queued for.
func (c *LCUClient) GetPrimaryRole(ctx context.Context) (domain.Role, error) {
	resp, err := doRequest[LobbyResponse](ctx, c, http.MethodGet, constants.EndpointLobby, nil)
	if err != nil {
		return "", err
	}
	return domain.Role(strings.ToLower(resp.LocalMember.FirstPositionPreference)), nil
}

func (c *LCUClient) StartQueue(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, constants.EndpointMatchmakingSearch, nil)
	return err
}

func (c *LCUClient) AcceptReadyCheck(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, constants.EndpointReadyCheckAccept, nil)
	return err
}

// Snapshot validates the wire session into the engine's schema.
func (s *SessionResponse) Snapshot() (*domain.SessionSnapshot, error) {
	switch {
	case s.LocalPlayerCellID == nil:
		return nil, fmt.Errorf("%w: missing localPlayerCellId", domain.ErrSessionDesync)
	case s.Timer == nil || s.Timer.Phase == nil:
		return nil, fmt.Errorf("%w: missing timer phase", domain.ErrSessionDesync)
	case s.Bans == nil:
		return nil, fmt.Errorf("%w: missing bans", domain.ErrSessionDesync)
	}

	snap := &domain.SessionSnapshot{
		Phase:         *s.Timer.Phase,
		LocalCellID:   *s.LocalPlayerCellID,
		MyTeamBans:    s.Bans.MyTeamBans,
		TheirTeamBans: s.Bans.TheirTeamBans,
	}
	for _, group := range s.Actions {
		records := make([]domain.ActionRecord, 0, len(group))
		for _, a := range group {
			records = append(records, domain.ActionRecord{
				ID:           a.ID,
				ActorCellID:  a.ActorCellID,
				Kind:         domain.ActionKind(a.Type),
				ChampionID:   a.ChampionID,
				Completed:    a.Completed,
				InProgress:   a.IsInProgress,
				IsAllyAction: a.IsAllyAction,
			})
		}
		snap.Actions = append(snap.Actions, records)
	}
	for _, m := range s.MyTeam {
		snap.MyTeam = append(snap.MyTeam, domain.TeamMember{
			CellID:           m.CellID,
			AssignedPosition: strings.ToLower(m.AssignedPosition),
			ChampionID:       m.ChampionID,
		})
	}
	return snap, nil
}

func toChampions(in []ChampionResponse) []domain.Champion {
	out := make([]domain.Champion, 0, len(in))
	for _, c := range in {
		if c.ID <= 0 {
			continue
		}
		out = append(out, domain.Champion{ID: c.ID, Alias: c.Alias, Name: c.Name})
	}
	return out
}

func (p RunePageResponse) toDomain() domain.RunePage {
	return domain.RunePage{
		ID:              p.ID,
		Name:            p.Name,
		PrimaryStyleID:  p.PrimaryStyleID,
		SubStyleID:      p.SubStyleID,
		SelectedPerkIDs: p.SelectedPerkIDs,
	}
}
