package repository

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/deckforge/tabletop-server-go/internal/card"
	"github.com/deckforge/tabletop-server-go/internal/deck"
)

// cardStore is the slice of CardRepository the caching fetcher needs.
type cardStore interface {
	FindBySetNumber(ctx context.Context, set, number string) (*card.Card, error)
	FindByName(ctx context.Context, name string) ([]*card.Card, error)
	Upsert(ctx context.Context, c *card.Card) error
}

// CachingFetcher serves card lookups from the database first and falls
// back to the remote fetcher on misses, writing the fetched cards
// through so the next import hits the cache.
type CachingFetcher struct {
	repo   cardStore
	remote deck.CardFetcher
	logger *zap.Logger
}

// NewCachingFetcher wraps a remote fetcher with the database cache.
func NewCachingFetcher(repo *CardRepository, remote deck.CardFetcher, logger *zap.Logger) *CachingFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingFetcher{repo: repo, remote: remote, logger: logger}
}

// FetchCards resolves identifiers from the cache, then asks the remote
// fetcher for whatever is left. Remote results are written through.
func (cf *CachingFetcher) FetchCards(ctx context.Context, ids []deck.Identifier) ([]*card.Card, []deck.Identifier, error) {
	var found []*card.Card
	var misses []deck.Identifier

	for _, id := range ids {
		c, err := cf.lookup(ctx, id)
		switch {
		case err == nil:
			found = append(found, c)
		case errors.Is(err, ErrNotFound):
			misses = append(misses, id)
		default:
			return nil, nil, err
		}
	}
	cf.logger.Debug("card cache lookup",
		zap.Int("requested", len(ids)),
		zap.Int("hits", len(found)),
		zap.Int("misses", len(misses)),
	)
	if len(misses) == 0 {
		return found, nil, nil
	}

	fetched, notFound, err := cf.remote.FetchCards(ctx, misses)
	if err != nil {
		return nil, nil, err
	}
	for _, c := range fetched {
		if c.Set == "" || c.CollectorNumber == "" {
			continue
		}
		if err := cf.repo.Upsert(ctx, c); err != nil {
			// Cache writes are best effort; the import still succeeds.
			cf.logger.Warn("card cache write failed", zap.String("card", c.Name), zap.Error(err))
		}
	}
	return append(found, fetched...), notFound, nil
}

func (cf *CachingFetcher) lookup(ctx context.Context, id deck.Identifier) (*card.Card, error) {
	if id.Set != "" && id.CollectorNumber != "" {
		return cf.repo.FindBySetNumber(ctx, id.Set, id.CollectorNumber)
	}
	cards, err := cf.repo.FindByName(ctx, id.Name)
	if err != nil {
		return nil, err
	}
	// Prefer an exact name match so "Fire // Ice" is not shadowed by a
	// different printing row carrying only the front face name.
	for _, c := range cards {
		if strings.EqualFold(c.Name, id.Name) {
			return c, nil
		}
	}
	return cards[0], nil
}

// FetchCardByURI always goes to the remote source. Related-part URIs
// point at the remote API, not at cache keys.
func (cf *CachingFetcher) FetchCardByURI(ctx context.Context, uri string) (*card.Card, error) {
	return cf.remote.FetchCardByURI(ctx, uri)
}
