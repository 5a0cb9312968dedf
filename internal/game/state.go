package game

import (
	"fmt"

	"github.com/deckforge/tabletop-server-go/internal/card"
	"github.com/deckforge/tabletop-server-go/internal/game/counters"
	"github.com/deckforge/tabletop-server-go/internal/game/mana"
)

// ZoneKind identifies one of the named card containers a player owns.
type ZoneKind string

const (
	ZoneHand        ZoneKind = "hand"
	ZoneLibrary     ZoneKind = "library"
	ZoneGraveyard   ZoneKind = "graveyard"
	ZoneExile       ZoneKind = "exile"
	ZoneCommand     ZoneKind = "commandZone"
	ZoneBattlefield ZoneKind = "battlefield"
)

// Valid reports whether z names a known zone.
func (z ZoneKind) Valid() bool {
	switch z {
	case ZoneHand, ZoneLibrary, ZoneGraveyard, ZoneExile, ZoneCommand, ZoneBattlefield:
		return true
	}
	return false
}

// NumBattlefieldRows is the number of fixed battlefield rows in row layout.
const NumBattlefieldRows = 4

// Location identifies a slot a card can be moved to or from. It is a
// reference only and is never stored on a card. Row is meaningful only
// when Zone is ZoneBattlefield.
type Location struct {
	PlayerID string   `json:"playerId"`
	Zone     ZoneKind `json:"zone"`
	Row      int      `json:"row,omitempty"`
}

// SameZone reports whether two locations name the same zone of the same
// player. Battlefield rows are intentionally ignored: moving between rows
// counts as staying in the zone.
func (l Location) SameZone(other Location) bool {
	return l.PlayerID == other.PlayerID && l.Zone == other.Zone
}

func (l Location) String() string {
	if l.Zone == ZoneBattlefield {
		return fmt.Sprintf("%s/%s[%d]", l.PlayerID, l.Zone, l.Row)
	}
	return fmt.Sprintf("%s/%s", l.PlayerID, l.Zone)
}

// Position is an absolute board coordinate used in freeform play areas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PlayAreaMode selects how the battlefield is laid out.
type PlayAreaMode string

const (
	// PlayAreaRows places battlefield cards into four fixed ordered rows.
	PlayAreaRows PlayAreaMode = "rows"
	// PlayAreaFreeform places battlefield cards at absolute coordinates.
	PlayAreaFreeform PlayAreaMode = "freeform"
)

// LayoutMode selects how opponents are presented around the board.
type LayoutMode string

const (
	LayoutTabs  LayoutMode = "tabs"
	LayoutSplit LayoutMode = "split"
)

// Settings carries the table-wide display options that travel with the
// game snapshot so every peer renders the same board.
type Settings struct {
	Layout   LayoutMode   `json:"layout"`
	PlayArea PlayAreaMode `json:"playArea"`
}

// StartingLife is the life total every player begins with.
const StartingLife = 40

// OpeningHandSize is the number of cards dealt at game start.
const OpeningHandSize = 7

// PlayerState is the complete per-player game state: identity, life, mana,
// player-level counters and the card zones.
type PlayerState struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Color    string       `json:"color"`
	Life     int          `json:"life"`
	Mana     mana.Pool    `json:"mana"`
	Counters counters.Set `json:"counters,omitempty"`

	Hand        []*card.Card `json:"hand"`
	Library     []*card.Card `json:"library"`
	Graveyard   []*card.Card `json:"graveyard"`
	Exile       []*card.Card `json:"exile"`
	CommandZone []*card.Card `json:"commandZone"`

	// Battlefield always holds four rows. In freeform play-area mode only
	// row 0 is populated and every card on it carries absolute X/Y.
	Battlefield [NumBattlefieldRows][]*card.Card `json:"battlefield"`
}

// GameState is the full table snapshot: the unit of persistence and of
// peer broadcast.
type GameState struct {
	Players         []*PlayerState `json:"players"`
	Settings        Settings       `json:"settings"`
	FocusedOpponent string         `json:"focusedOpponent,omitempty"`
	HandHeights     map[string]int `json:"handHeights,omitempty"`
	CardSizes       map[string]int `json:"cardSizes,omitempty"`
	Rotated         bool           `json:"rotated,omitempty"`
}

// Player returns the state for the given player id, or nil.
func (s *GameState) Player(playerID string) *PlayerState {
	for _, p := range s.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// zoneRef returns a pointer to the slice backing the location's zone, so
// transforms can rewrite it in place on a cloned state.
func (p *PlayerState) zoneRef(loc Location) (*[]*card.Card, error) {
	switch loc.Zone {
	case ZoneHand:
		return &p.Hand, nil
	case ZoneLibrary:
		return &p.Library, nil
	case ZoneGraveyard:
		return &p.Graveyard, nil
	case ZoneExile:
		return &p.Exile, nil
	case ZoneCommand:
		return &p.CommandZone, nil
	case ZoneBattlefield:
		if loc.Row < 0 || loc.Row >= NumBattlefieldRows {
			return nil, fmt.Errorf("battlefield row %d out of range", loc.Row)
		}
		return &p.Battlefield[loc.Row], nil
	}
	return nil, fmt.Errorf("unknown zone %q", loc.Zone)
}

// Zones iterates every zone slice of the player, battlefield rows
// included, calling fn with a mutable reference to each.
func (p *PlayerState) Zones(fn func(zone ZoneKind, row int, cards *[]*card.Card)) {
	fn(ZoneHand, 0, &p.Hand)
	fn(ZoneLibrary, 0, &p.Library)
	fn(ZoneGraveyard, 0, &p.Graveyard)
	fn(ZoneExile, 0, &p.Exile)
	fn(ZoneCommand, 0, &p.CommandZone)
	for row := range p.Battlefield {
		fn(ZoneBattlefield, row, &p.Battlefield[row])
	}
}

// FindCard locates a card instance anywhere in the game, returning the
// owning player and the card. Returns nils when the instance is absent.
func (s *GameState) FindCard(instanceID string) (*PlayerState, *card.Card) {
	for _, p := range s.Players {
		var found *card.Card
		p.Zones(func(_ ZoneKind, _ int, cards *[]*card.Card) {
			if found != nil {
				return
			}
			for _, c := range *cards {
				if c.InstanceID == instanceID {
					found = c
					return
				}
			}
		})
		if found != nil {
			return p, found
		}
	}
	return nil, nil
}

// InstanceIDs returns the multiset of instance ids present across every
// zone of every player. Used to check the conservation invariant: no
// transform may duplicate or drop a card.
func (s *GameState) InstanceIDs() map[string]int {
	ids := make(map[string]int)
	for _, p := range s.Players {
		p.Zones(func(_ ZoneKind, _ int, cards *[]*card.Card) {
			for _, c := range *cards {
				ids[c.InstanceID]++
			}
		})
	}
	return ids
}

// Clone deep-copies the full game state. Every transform operates on a
// clone so callers can hold earlier snapshots safely.
func (s *GameState) Clone() *GameState {
	out := &GameState{
		Settings:        s.Settings,
		FocusedOpponent: s.FocusedOpponent,
		Rotated:         s.Rotated,
	}
	if s.Players != nil {
		out.Players = make([]*PlayerState, len(s.Players))
		for i, p := range s.Players {
			out.Players[i] = p.Clone()
		}
	}
	if s.HandHeights != nil {
		out.HandHeights = make(map[string]int, len(s.HandHeights))
		for k, v := range s.HandHeights {
			out.HandHeights[k] = v
		}
	}
	if s.CardSizes != nil {
		out.CardSizes = make(map[string]int, len(s.CardSizes))
		for k, v := range s.CardSizes {
			out.CardSizes[k] = v
		}
	}
	return out
}

// Clone deep-copies the player state.
func (p *PlayerState) Clone() *PlayerState {
	out := &PlayerState{
		ID:       p.ID,
		Name:     p.Name,
		Color:    p.Color,
		Life:     p.Life,
		Mana:     p.Mana,
		Counters: p.Counters.Clone(),

		Hand:        cloneCards(p.Hand),
		Library:     cloneCards(p.Library),
		Graveyard:   cloneCards(p.Graveyard),
		Exile:       cloneCards(p.Exile),
		CommandZone: cloneCards(p.CommandZone),
	}
	for row := range p.Battlefield {
		out.Battlefield[row] = cloneCards(p.Battlefield[row])
	}
	return out
}

func cloneCards(cards []*card.Card) []*card.Card {
	if cards == nil {
		return nil
	}
	out := make([]*card.Card, len(cards))
	for i, c := range cards {
		out[i] = c.Clone()
	}
	return out
}
