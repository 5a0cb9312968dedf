package scryfall

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/deckforge/tabletop-server-go/internal/card"
)

// ParseBulkData streams a bulk-data export (a JSON array of card
// objects, e.g. the "Default Cards" download) and maps each entry to a
// card template. Entries are decoded one at a time so multi-hundred-MB
// exports do not need to fit in memory twice.
func ParseBulkData(r io.Reader, fn func(*card.Card) error) (int, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return 0, fmt.Errorf("read bulk data: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return 0, fmt.Errorf("read bulk data: expected array, got %v", tok)
	}

	count := 0
	for dec.More() {
		var a apiCard
		if err := dec.Decode(&a); err != nil {
			return count, fmt.Errorf("decode bulk card %d: %w", count, err)
		}
		if err := fn(a.toCard()); err != nil {
			return count, err
		}
		count++
	}
	if _, err := dec.Token(); err != nil {
		return count, fmt.Errorf("read bulk data: %w", err)
	}
	return count, nil
}
