package loadout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"lol-autopilot/internal/api"
	"lol-autopilot/internal/champion"
	"lol-autopilot/internal/constants"
	"lol-autopilot/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrPageQuota means the client refused to create another rune page.
var ErrPageQuota = errors.New("rune page quota reached")

type Client interface {
	GetRunePages(ctx context.Context) ([]domain.RunePage, error)
	CreateRunePage(ctx context.Context, req api.RunePageRequest) (*domain.RunePage, error)
	PutRunePage(ctx context.Context, id int, req api.RunePageRequest) error
	GetRecommendedLoadout(ctx context.Context, championID int, position string) (*domain.RecommendedLoadout, error)
	PatchMySelection(ctx context.Context, spell1, spell2 int) error
}

type Options struct {
	Prefix       string
	FlashOnF     bool
	PinnedSpells []int
}

// Selection is the page a build goes into. Overwrite false means the page
// is the operator's own and is used as it is.
type Selection struct {
	Page      domain.RunePage
	Overwrite bool
}

type Result struct {
	Selection
	Name   string
	Spells [2]int
}

type Resolver struct {
	client Client
	opts   Options
	logger zerolog.Logger
}

func NewResolver(client Client, opts Options, logger zerolog.Logger) *Resolver {
	if opts.Prefix == "" {
		opts.Prefix = constants.DefaultRunePagePrefix
	}
	return &Resolver{
		client: client,
		opts:   opts,
		logger: logger.With().Str("component", "loadout").Logger(),
	}
}

// SelectPage picks the page for champ. A page naming the champion that this
// tool did not create wins outright; otherwise the last prefixed page is
// overwritten; otherwise a page is created, falling back to the last
// listed page when the quota is full.
func (r *Resolver) SelectPage(ctx context.Context, champ string, pages []domain.RunePage) (Selection, error) {
	key := champion.Normalize(champ)

	var candidate *domain.RunePage
	for i := range pages {
		p := &pages[i]
		if strings.HasPrefix(p.Name, r.opts.Prefix) {
			candidate = p
			continue
		}
		if key != "" && strings.Contains(champion.Normalize(p.Name), key) {
			r.logger.Info().Str("page", p.Name).Str("champ", key).Msg("using operator rune page")
			return Selection{Page: *p, Overwrite: false}, nil
		}
	}
	if candidate != nil {
		r.logger.Info().Str("page", candidate.Name).Msg("overwriting generated rune page")
		return Selection{Page: *candidate, Overwrite: true}, nil
	}

	created, err := r.client.CreateRunePage(ctx, api.RunePageRequest{Name: "temp", Current: true})
	if err == nil {
		r.logger.Info().Int("page_id", created.ID).Msg("created rune page")
		return Selection{Page: *created, Overwrite: true}, nil
	}
	if !isQuota(err) {
		return Selection{}, fmt.Errorf("failed to create rune page: %w", err)
	}
	if len(pages) == 0 {
		return Selection{}, fmt.Errorf("%w with no page to overwrite", ErrPageQuota)
	}

	last := pages[len(pages)-1]
	r.logger.Warn().Str("page", last.Name).Msg("rune page quota reached, overwriting last page")
	return Selection{Page: last, Overwrite: true}, nil
}

func isQuota(err error) bool {
	var apiErr *api.APIError
	return errors.As(err, &apiErr) &&
		apiErr.Status == http.StatusBadRequest &&
		apiErr.Mentions(constants.MaxRunePagesMessage)
}

// PageName is "<prefix> <Champion> <role> runes".
func (r *Resolver) PageName(champ string, role domain.Role) string {
	parts := []string{r.opts.Prefix, champion.Display(champ)}
	if role != "" {
		parts = append(parts, role.Display())
	}
	return strings.Join(append(parts, "runes"), " ")
}

// FixSpells applies the pinned spells, then moves Flash to the right slot
// when flashOnF is set.
func FixSpells(spells [2]int, flashOnF bool, pinned []int) [2]int {
	if len(pinned) == 2 {
		spells = [2]int{pinned[0], pinned[1]}
	}
	if flashOnF && spells[0] == constants.SpellFlash {
		spells[0], spells[1] = spells[1], spells[0]
	}
	return spells
}

// Send writes the recommended build for champ into the selected page and
// sends the summoner spells.
func (r *Resolver) Send(ctx context.Context, champID int, champ string, role domain.Role) (*Result, error) {
	var (
		pages []domain.RunePage
		rec   *domain.RecommendedLoadout
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pages, err = r.client.GetRunePages(gctx)
		if err != nil {
			return fmt.Errorf("failed to get rune pages: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		rec, err = r.client.GetRecommendedLoadout(gctx, champID, string(role))
		if err != nil {
			return fmt.Errorf("failed to get recommended loadout: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sel, err := r.SelectPage(ctx, champ, pages)
	if err != nil {
		return nil, err
	}

	req := api.RunePageRequest{
		ID:              sel.Page.ID,
		Name:            sel.Page.Name,
		PrimaryStyleID:  sel.Page.PrimaryStyleID,
		SubStyleID:      sel.Page.SubStyleID,
		SelectedPerkIDs: sel.Page.SelectedPerkIDs,
		Current:         true,
	}
	if sel.Overwrite {
		req.Name = r.PageName(champ, role)
		req.PrimaryStyleID = rec.PrimaryStyleID
		req.SubStyleID = rec.SubStyleID
		req.SelectedPerkIDs = rec.PerkIDs
	}
	if err := r.client.PutRunePage(ctx, sel.Page.ID, req); err != nil {
		return nil, fmt.Errorf("failed to send rune page %d: %w", sel.Page.ID, err)
	}

	spells := FixSpells(rec.SummonerSpellIDs, r.opts.FlashOnF, r.opts.PinnedSpells)
	if err := r.client.PatchMySelection(ctx, spells[0], spells[1]); err != nil {
		return nil, fmt.Errorf("failed to send summoner spells: %w", err)
	}

	r.logger.Info().
		Str("champ", champ).
		Str("role", string(role)).
		Int("page_id", sel.Page.ID).
		Str("page", req.Name).
		Bool("overwrite", sel.Overwrite).
		Ints("spells", spells[:]).
		Msg("loadout sent")

	return &Result{Selection: sel, Name: req.Name, Spells: spells}, nil
}
