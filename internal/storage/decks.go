package storage

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/deckforge/tabletop-server-go/internal/deck"
)

const deckExt = ".json"

// DeckStore persists decks as JSON files, one per deck, named after the
// deck. The round trip is lossless, instance ids included; counters are
// reset at the next game start regardless of what a file carries.
type DeckStore struct {
	store  *Store
	logger *zap.Logger
}

// NewDeckStore opens a deck store rooted at dir.
func NewDeckStore(dir string, logger *zap.Logger) (*DeckStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	store, err := NewStore(dir)
	if err != nil {
		return nil, err
	}
	return &DeckStore{store: store, logger: logger}, nil
}

// Save writes the deck to its file.
func (ds *DeckStore) Save(d *deck.Deck) error {
	if d.Name == "" {
		return fmt.Errorf("save deck: deck has no name")
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("save deck %s: %w", d.Name, err)
	}
	if err := ds.store.Write(Sanitize(d.Name)+deckExt, data); err != nil {
		return err
	}
	ds.logger.Info("deck saved",
		zap.String("deck", d.Name),
		zap.Int("cards", len(d.Cards)),
	)
	return nil
}

// Load reads one deck by name.
func (ds *DeckStore) Load(name string) (*deck.Deck, error) {
	data, err := ds.store.Read(Sanitize(name) + deckExt)
	if err != nil {
		return nil, err
	}
	var d deck.Deck
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("load deck %s: %w", name, err)
	}
	return &d, nil
}

// List returns the display names of all stored decks. The name inside
// the file is authoritative; the filename may carry a digest suffix when
// the display name needed sanitizing.
func (ds *DeckStore) List() ([]string, error) {
	files, err := ds.store.List(deckExt)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, f := range files {
		data, err := ds.store.Read(f)
		if err != nil {
			continue
		}
		var d deck.Deck
		if err := json.Unmarshal(data, &d); err != nil || d.Name == "" {
			names = append(names, strings.TrimSuffix(f, deckExt))
			continue
		}
		names = append(names, d.Name)
	}
	return names, nil
}

// Delete removes a stored deck.
func (ds *DeckStore) Delete(name string) error {
	return ds.store.Delete(Sanitize(name) + deckExt)
}
