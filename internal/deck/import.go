package deck

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/deckforge/tabletop-server-go/internal/card"
)

// CardFetcher is the card data source the importer pulls from. Fetches
// are batched and rate limited by the implementation.
type CardFetcher interface {
	// FetchCards looks up a batch of identifiers, returning the cards it
	// found plus the identifiers it could not match.
	FetchCards(ctx context.Context, ids []Identifier) (found []*card.Card, notFound []Identifier, err error)
	// FetchCardByURI fetches a single card by its data-source URI.
	FetchCardByURI(ctx context.Context, uri string) (*card.Card, error)
}

// ImportResult is the outcome of a deck import. An import only fails
// outright on I/O errors: unmatched lines are reported through Unresolved
// and the deck is still built from whatever resolved.
type ImportResult struct {
	Deck       *Deck
	Unresolved []Identifier
	Skipped    []string
}

// Complete reports whether every requested card resolved.
func (r *ImportResult) Complete() bool {
	return len(r.Unresolved) == 0
}

// Importer builds decks from decklist text.
type Importer struct {
	fetcher CardFetcher
	logger  *zap.Logger
}

// NewImporter creates a deck importer backed by the given card source.
func NewImporter(fetcher CardFetcher, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{fetcher: fetcher, logger: logger}
}

// Import parses the decklist text, resolves every line against the card
// source and assembles a Deck. Identical identifiers are deduplicated
// before the fetch and re-expanded to their original multiplicity
// afterwards, so a playset costs one lookup.
func (im *Importer) Import(ctx context.Context, name, text string) (*ImportResult, error) {
	ids, skipped := ParseList(text)

	unique := make([]Identifier, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id.Key()] {
			seen[id.Key()] = true
			unique = append(unique, id)
		}
	}

	var found []*card.Card
	if len(unique) > 0 {
		var err error
		found, _, err = im.fetcher.FetchCards(ctx, unique)
		if err != nil {
			return nil, err
		}
	}

	d := &Deck{Name: name}
	result := &ImportResult{Deck: d, Skipped: skipped}
	melds := make(map[string]*card.Card)

	for _, id := range ids {
		template := resolve(id, found)
		if template == nil {
			result.Unresolved = append(result.Unresolved, id)
			continue
		}
		copyCard := template.Clone()
		copyCard.InstanceID = card.NewInstanceID()
		im.attachMeldResult(ctx, copyCard, melds)
		d.Cards = append(d.Cards, copyCard)
	}

	im.logger.Info("deck imported",
		zap.String("deck", name),
		zap.Int("requested", len(ids)),
		zap.Int("resolved", len(d.Cards)),
		zap.Int("unresolved", len(result.Unresolved)),
		zap.Int("skipped_lines", len(skipped)),
	)
	return result, nil
}

// resolve matches a requested identifier against the fetched cards: exact
// (set, collector number) first, then case-insensitive name, ignoring any
// "//"-joined second face of the fetched card's name.
func resolve(id Identifier, found []*card.Card) *card.Card {
	if id.Set != "" && id.CollectorNumber != "" {
		for _, c := range found {
			if strings.EqualFold(c.Set, id.Set) && strings.EqualFold(c.CollectorNumber, id.CollectorNumber) {
				return c
			}
		}
		return nil
	}
	want := strings.ToLower(strings.TrimSpace(id.Name))
	for _, c := range found {
		name := strings.ToLower(c.Name)
		if front, _, ok := strings.Cut(name, "//"); ok {
			name = strings.TrimSpace(front)
		}
		if name == want || strings.ToLower(c.Name) == want {
			return c
		}
	}
	return nil
}

// attachMeldResult resolves and nests the linked meld-result card for meld
// pairs. A failed fetch is non-fatal and simply leaves the field unset.
func (im *Importer) attachMeldResult(ctx context.Context, c *card.Card, cache map[string]*card.Card) {
	uri := c.MeldResultURI()
	if uri == "" || c.MeldResult != nil {
		return
	}
	if cached, ok := cache[uri]; ok {
		c.MeldResult = cached.Clone()
		return
	}
	result, err := im.fetcher.FetchCardByURI(ctx, uri)
	if err != nil || result == nil {
		im.logger.Warn("meld result fetch failed",
			zap.String("card", c.Name),
			zap.String("uri", uri),
			zap.Error(err),
		)
		return
	}
	cache[uri] = result
	c.MeldResult = result.Clone()
}
