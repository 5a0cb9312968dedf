package deck

import (
	"github.com/deckforge/tabletop-server-go/internal/card"
)

// Deck is a named, ordered list of card templates plus the set of copies
// designated as commanders. Commander designation is by instance id so two
// copies of the same card can be told apart. Deck files persist across
// games; instance ids are regenerated at the start of every game so
// concurrent games never alias instance identity.
type Deck struct {
	Name       string       `json:"name"`
	Cards      []*card.Card `json:"cards"`
	Commanders []string     `json:"commanders"`
}

// IsCommander reports whether the copy with the given instance id is
// designated as a commander.
func (d *Deck) IsCommander(instanceID string) bool {
	for _, id := range d.Commanders {
		if id == instanceID {
			return true
		}
	}
	return false
}

// SetCommander adds or removes a commander designation for the given copy.
func (d *Deck) SetCommander(instanceID string, commander bool) {
	for i, id := range d.Commanders {
		if id == instanceID {
			if !commander {
				d.Commanders = append(d.Commanders[:i], d.Commanders[i+1:]...)
			}
			return
		}
	}
	if commander {
		d.Commanders = append(d.Commanders, instanceID)
	}
}

// Clone deep-copies the deck.
func (d *Deck) Clone() *Deck {
	out := &Deck{Name: d.Name}
	if d.Cards != nil {
		out.Cards = make([]*card.Card, len(d.Cards))
		for i, c := range d.Cards {
			out.Cards[i] = c.Clone()
		}
	}
	if d.Commanders != nil {
		out.Commanders = append([]string(nil), d.Commanders...)
	}
	return out
}
