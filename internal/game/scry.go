package game

import (
	"fmt"

	"github.com/deckforge/tabletop-server-go/internal/card"
)

// BeginScry removes up to count cards from the top of a player's library
// and returns them for review. While under review the cards belong to no
// zone; the caller (a short-lived UI workflow) owns them until it resolves
// the scry with ResolveScry. Returns the reviewed cards in library order.
func (s *GameState) BeginScry(playerID string, count int) (*GameState, []*card.Card, error) {
	p := s.Player(playerID)
	if p == nil {
		return s, nil, fmt.Errorf("scry: player %s not found", playerID)
	}
	if count <= 0 {
		return s, nil, nil
	}

	next := s.Clone()
	np := next.Player(playerID)

	n := count
	if n > len(np.Library) {
		n = len(np.Library)
	}
	reviewed := np.Library[:n]
	np.Library = np.Library[n:]
	return next, reviewed, nil
}

// ResolveScry returns reviewed cards to the library. toTop and toBottom
// are ordered lists of instance ids drawn from the reviewed set; the first
// id in toTop ends up closest to the top and the first id in toBottom
// closest to the start of the bottom run. Reviewed cards named in neither
// list default to the top, after the explicit choices, preserving their
// review order.
//
// Every decided id must name a reviewed card and no card may be decided
// twice; a violation leaves the state unchanged. The resolution conserves
// cards: the library grows by exactly len(reviewed).
func (s *GameState) ResolveScry(playerID string, reviewed []*card.Card, toTop, toBottom []string) (*GameState, error) {
	p := s.Player(playerID)
	if p == nil {
		return s, fmt.Errorf("scry: player %s not found", playerID)
	}

	byID := make(map[string]*card.Card, len(reviewed))
	for _, c := range reviewed {
		if _, dup := byID[c.InstanceID]; dup {
			return s, fmt.Errorf("scry: duplicate reviewed card %s", c.InstanceID)
		}
		byID[c.InstanceID] = c
	}

	decided := make(map[string]bool, len(toTop)+len(toBottom))
	take := func(ids []string) ([]*card.Card, error) {
		out := make([]*card.Card, 0, len(ids))
		for _, id := range ids {
			c, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("scry: card %s is not under review", id)
			}
			if decided[id] {
				return nil, fmt.Errorf("scry: card %s decided twice", id)
			}
			decided[id] = true
			out = append(out, c)
		}
		return out, nil
	}

	topCards, err := take(toTop)
	if err != nil {
		return s, err
	}
	bottomCards, err := take(toBottom)
	if err != nil {
		return s, err
	}

	// Undecided cards keep their review order and default to the top.
	var undecided []*card.Card
	for _, c := range reviewed {
		if !decided[c.InstanceID] {
			undecided = append(undecided, c)
		}
	}

	next := s.Clone()
	np := next.Player(playerID)

	library := make([]*card.Card, 0, len(reviewed)+len(np.Library))
	library = append(library, cloneCards(topCards)...)
	library = append(library, cloneCards(undecided)...)
	library = append(library, np.Library...)
	library = append(library, cloneCards(bottomCards)...)
	np.Library = library
	return next, nil
}
