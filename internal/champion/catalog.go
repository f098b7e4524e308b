package champion

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"lol-autopilot/internal/api"
	"lol-autopilot/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var ErrUnknownChampion = errors.New("unknown champion")

// Source is the part of the client the catalog loads from.
type Source interface {
	GetCurrentSummoner(ctx context.Context) (*api.SummonerResponse, error)
	GetAllChampions(ctx context.Context, summonerID int64) ([]domain.Champion, error)
	GetOwnedChampions(ctx context.Context) ([]domain.Champion, error)
}

// Catalog maps normalized champion names to ids and tracks ownership.
type Catalog struct {
	logger zerolog.Logger

	mu     sync.RWMutex
	byName map[string]int
	byID   map[int]string
	owned  map[int]struct{}
}

func NewCatalog(logger zerolog.Logger) *Catalog {
	return &Catalog{
		logger: logger,
		byName: map[string]int{},
		byID:   map[int]string{},
		owned:  map[int]struct{}{},
	}
}

// Load replaces the catalog contents with the client's champion lists.
func (c *Catalog) Load(ctx context.Context, src Source) error {
	summoner, err := src.GetCurrentSummoner(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current summoner: %w", err)
	}

	var all, owned []domain.Champion
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		all, err = src.GetAllChampions(gctx, summoner.SummonerID)
		if err != nil {
			return fmt.Errorf("failed to get champions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		owned, err = src.GetOwnedChampions(gctx)
		if err != nil {
			return fmt.Errorf("failed to get owned champions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	ownedIDs := make([]int, 0, len(owned))
	for _, ch := range owned {
		ownedIDs = append(ownedIDs, ch.ID)
	}
	c.Replace(all, ownedIDs)

	c.logger.Info().
		Int("champions", len(all)).
		Int("owned", len(ownedIDs)).
		Msg("champion catalog loaded")
	return nil
}

// Replace swaps in a new champion set.
func (c *Catalog) Replace(all []domain.Champion, ownedIDs []int) {
	byName := make(map[string]int, len(all)*2)
	byID := make(map[int]string, len(all))
	for _, ch := range all {
		key := Normalize(ch.Alias)
		if key == "" {
			key = Normalize(ch.Name)
		}
		if key == "" {
			continue
		}
		byName[key] = ch.ID
		byID[ch.ID] = key
		if n := Normalize(ch.Name); n != "" {
			if _, taken := byName[n]; !taken {
				byName[n] = ch.ID
			}
		}
	}
	owned := make(map[int]struct{}, len(ownedIDs))
	for _, id := range ownedIDs {
		owned[id] = struct{}{}
	}

	c.mu.Lock()
	c.byName, c.byID, c.owned = byName, byID, owned
	c.mu.Unlock()
}

// ID returns the id for a champion name, or 0 when unknown.
func (c *Catalog) ID(name string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byName[Normalize(name)]
}

// Name returns the normalized name for id, or "" when unknown.
func (c *Catalog) Name(id int) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byID[id]
}

func (c *Catalog) Owns(id int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.owned[id]
	return ok
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// Resolve maps free-form input to the catalog's normalized name.
func (c *Catalog) Resolve(input string) (string, error) {
	id := c.ID(input)
	if id == 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownChampion, input)
	}
	return c.Name(id), nil
}

// Validate checks that every name resolves, collecting all failures.
func (c *Catalog) Validate(names []string) error {
	var errs []error
	for _, n := range names {
		if _, err := c.Resolve(n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
