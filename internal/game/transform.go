package game

import (
	"fmt"

	"github.com/deckforge/tabletop-server-go/internal/card"
	"github.com/deckforge/tabletop-server-go/internal/game/counters"
	"github.com/deckforge/tabletop-server-go/internal/game/mana"
)

// Transforms in this file are pure: each clones the receiver, mutates the
// clone and returns it. On error the original state is returned unchanged
// so a failed intent is always a no-op, never a partial mutation.

// Placement selects which end of the destination collection a moved card
// lands on. Only the library distinguishes the two; everywhere else a
// moved card is appended.
type Placement int

const (
	// PlaceDefault appends to the destination (bottom of the library).
	PlaceDefault Placement = iota
	// PlaceTop prepends to the library ("put on top").
	PlaceTop
)

// MoveRequest describes a zone transfer.
type MoveRequest struct {
	InstanceID string
	From       Location
	To         Location
	Placement  Placement
	// Drop is the board coordinate the card was released at. Stored only
	// when the destination is a freeform battlefield; ignored otherwise.
	Drop *Position
}

// Move transfers one card between zones. Crossing into a different
// player's area or a different zone kind resets tap and flip state;
// moving within the same zone preserves it. If the card is not present in
// the declared source zone the state is returned unchanged with an error.
func (s *GameState) Move(req MoveRequest) (*GameState, error) {
	if !req.From.Zone.Valid() || !req.To.Zone.Valid() {
		return s, fmt.Errorf("move %s: unknown zone (%s -> %s)", req.InstanceID, req.From.Zone, req.To.Zone)
	}

	next := s.Clone()

	src := next.Player(req.From.PlayerID)
	if src == nil {
		return s, fmt.Errorf("move %s: source player %s not found", req.InstanceID, req.From.PlayerID)
	}
	dst := next.Player(req.To.PlayerID)
	if dst == nil {
		return s, fmt.Errorf("move %s: destination player %s not found", req.InstanceID, req.To.PlayerID)
	}

	srcZone, err := src.zoneRef(req.From)
	if err != nil {
		return s, fmt.Errorf("move %s: %w", req.InstanceID, err)
	}
	dstZone, err := dst.zoneRef(req.To)
	if err != nil {
		return s, fmt.Errorf("move %s: %w", req.InstanceID, err)
	}

	moved := removeByInstanceID(srcZone, req.InstanceID)
	if moved == nil {
		return s, fmt.Errorf("move %s: card not found in %s", req.InstanceID, req.From)
	}

	if !req.From.SameZone(req.To) {
		moved.Tapped = false
		moved.Flipped = false
	}

	if req.To.Zone == ZoneBattlefield && next.Settings.PlayArea == PlayAreaFreeform {
		if req.Drop != nil {
			drop := next.adjustDrop(*req.Drop)
			moved.X = &drop.X
			moved.Y = &drop.Y
		}
	} else {
		moved.X = nil
		moved.Y = nil
	}

	if req.To.Zone == ZoneLibrary && req.Placement == PlaceTop {
		*dstZone = append([]*card.Card{moved}, *dstZone...)
	} else {
		*dstZone = append(*dstZone, moved)
	}

	return next, nil
}

// adjustDrop maps a drop coordinate from the viewer's frame into board
// coordinates. A 180°-rotated view mirrors both axes around the board
// center so peers with opposite orientations agree on card placement.
func (s *GameState) adjustDrop(p Position) Position {
	if !s.Rotated {
		return p
	}
	return Position{X: boardWidth - p.X, Y: boardHeight - p.Y}
}

// Nominal board extent used to mirror freeform coordinates for rotated
// views. All peers lay out the freeform area in the same virtual space.
const (
	boardWidth  = 1920.0
	boardHeight = 1080.0
)

// DrawTop moves up to count cards from the top of the library to the end
// of the hand, in library order. Drawing from an empty library is a no-op.
func (s *GameState) DrawTop(playerID string, count int) (*GameState, error) {
	p := s.Player(playerID)
	if p == nil {
		return s, fmt.Errorf("draw: player %s not found", playerID)
	}
	if count <= 0 || len(p.Library) == 0 {
		return s, nil
	}

	next := s.Clone()
	np := next.Player(playerID)

	n := count
	if n > len(np.Library) {
		n = len(np.Library)
	}
	drawn := np.Library[:n]
	np.Library = np.Library[n:]
	for _, c := range drawn {
		c.Tapped = false
		c.Flipped = false
	}
	np.Hand = append(np.Hand, drawn...)
	return next, nil
}

// ToggleTap flips the tapped flag of a card instance wherever it sits.
func (s *GameState) ToggleTap(instanceID string) (*GameState, error) {
	next := s.Clone()
	_, c := next.FindCard(instanceID)
	if c == nil {
		return s, fmt.Errorf("tap: card %s not found", instanceID)
	}
	c.Tapped = !c.Tapped
	return next, nil
}

// ToggleFlip flips the flipped flag of a card instance. Whether the card
// actually has another face to show is the presentation layer's concern;
// the toggle itself is unconditional.
func (s *GameState) ToggleFlip(instanceID string) (*GameState, error) {
	next := s.Clone()
	_, c := next.FindCard(instanceID)
	if c == nil {
		return s, fmt.Errorf("flip: card %s not found", instanceID)
	}
	c.Flipped = !c.Flipped
	return next, nil
}

// UntapAll clears the tapped flag on every battlefield card of one player.
// Other players' cards and other zones are untouched.
func (s *GameState) UntapAll(playerID string) (*GameState, error) {
	p := s.Player(playerID)
	if p == nil {
		return s, fmt.Errorf("untap all: player %s not found", playerID)
	}

	next := s.Clone()
	np := next.Player(playerID)
	for row := range np.Battlefield {
		for _, c := range np.Battlefield[row] {
			c.Tapped = false
		}
	}
	return next, nil
}

// CounterTarget selects which counter collection of a card an operation
// acts on.
type CounterTarget int

const (
	// StandardCounters are the well-known counter types.
	StandardCounters CounterTarget = iota
	// CustomCounters are user-defined labels.
	CustomCounters
)

// ApplyCardCounter increments a counter of the given type on a card by
// one, creating the entry if absent.
func (s *GameState) ApplyCardCounter(instanceID, name string, target CounterTarget) (*GameState, error) {
	next := s.Clone()
	_, c := next.FindCard(instanceID)
	if c == nil {
		return s, fmt.Errorf("apply counter: card %s not found", instanceID)
	}
	if target == CustomCounters {
		c.CustomCounters = counters.Set(c.CustomCounters).Apply(name)
	} else {
		c.Counters = counters.Set(c.Counters).Apply(name)
	}
	return next, nil
}

// RemoveCardCounter decrements a counter on a card by one, floored at
// zero; the entry disappears when it reaches zero.
func (s *GameState) RemoveCardCounter(instanceID, name string, target CounterTarget) (*GameState, error) {
	next := s.Clone()
	_, c := next.FindCard(instanceID)
	if c == nil {
		return s, fmt.Errorf("remove counter: card %s not found", instanceID)
	}
	if target == CustomCounters {
		c.CustomCounters = counters.Set(c.CustomCounters).Remove(name)
	} else {
		c.Counters = counters.Set(c.Counters).Remove(name)
	}
	return next, nil
}

// RemoveAllCardCounters deletes every counter of the given type from a
// card regardless of count.
func (s *GameState) RemoveAllCardCounters(instanceID, name string, target CounterTarget) (*GameState, error) {
	next := s.Clone()
	_, c := next.FindCard(instanceID)
	if c == nil {
		return s, fmt.Errorf("remove all counters: card %s not found", instanceID)
	}
	if target == CustomCounters {
		c.CustomCounters = counters.Set(c.CustomCounters).RemoveAll(name)
	} else {
		c.Counters = counters.Set(c.Counters).RemoveAll(name)
	}
	return next, nil
}

// ApplyPlayerCounter increments a player-level counter by one.
func (s *GameState) ApplyPlayerCounter(playerID, name string) (*GameState, error) {
	next := s.Clone()
	p := next.Player(playerID)
	if p == nil {
		return s, fmt.Errorf("apply counter: player %s not found", playerID)
	}
	p.Counters = p.Counters.Apply(name)
	return next, nil
}

// RemovePlayerCounter decrements a player-level counter by one, floored
// at zero with the entry deleted at zero.
func (s *GameState) RemovePlayerCounter(playerID, name string) (*GameState, error) {
	next := s.Clone()
	p := next.Player(playerID)
	if p == nil {
		return s, fmt.Errorf("remove counter: player %s not found", playerID)
	}
	p.Counters = p.Counters.Remove(name)
	return next, nil
}

// RemoveAllPlayerCounters deletes a player-level counter entry outright.
func (s *GameState) RemoveAllPlayerCounters(playerID, name string) (*GameState, error) {
	next := s.Clone()
	p := next.Player(playerID)
	if p == nil {
		return s, fmt.Errorf("remove all counters: player %s not found", playerID)
	}
	p.Counters = p.Counters.RemoveAll(name)
	return next, nil
}

// UpdateMana adds delta to one of a player's mana colors, floored at zero.
func (s *GameState) UpdateMana(playerID string, color mana.Color, delta int) (*GameState, error) {
	if !color.Valid() {
		return s, fmt.Errorf("update mana: unknown color %q", color)
	}
	next := s.Clone()
	p := next.Player(playerID)
	if p == nil {
		return s, fmt.Errorf("update mana: player %s not found", playerID)
	}
	p.Mana = p.Mana.Adjust(color, delta)
	return next, nil
}

// ResetMana zeroes all six mana colors for a player.
func (s *GameState) ResetMana(playerID string) (*GameState, error) {
	next := s.Clone()
	p := next.Player(playerID)
	if p == nil {
		return s, fmt.Errorf("reset mana: player %s not found", playerID)
	}
	p.Mana = p.Mana.Reset()
	return next, nil
}

// UpdateLife adds delta to a player's life total. Life is unbounded in
// both directions; negative totals are left to the table to adjudicate.
func (s *GameState) UpdateLife(playerID string, delta int) (*GameState, error) {
	next := s.Clone()
	p := next.Player(playerID)
	if p == nil {
		return s, fmt.Errorf("update life: player %s not found", playerID)
	}
	p.Life += delta
	return next, nil
}

// removeByInstanceID removes and returns the card with the given instance
// id from the slice, or nil when absent.
func removeByInstanceID(cards *[]*card.Card, instanceID string) *card.Card {
	for i, c := range *cards {
		if c.InstanceID == instanceID {
			*cards = append((*cards)[:i], (*cards)[i+1:]...)
			return c
		}
	}
	return nil
}
