package game

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/deckforge/tabletop-server-go/internal/card"
	"github.com/deckforge/tabletop-server-go/internal/deck"
)

// Seat describes one player joining a new game.
type Seat struct {
	PlayerID string // assigned when empty
	Name     string
	Color    string
	Deck     *deck.Deck
}

// NewGame builds the initial state for a set of seated players: every
// card gets a fresh instance id, commanders start in the command zone, the
// remaining pool is shuffled uniformly and the opening hand is dealt.
// Initialization is all-or-nothing: a bad deck fails the whole call and no
// partial state is returned.
func NewGame(seats []Seat, settings Settings) (*GameState, error) {
	if len(seats) == 0 {
		return nil, fmt.Errorf("init game: no players")
	}

	state := &GameState{Settings: settings}
	for i, seat := range seats {
		player, err := initPlayer(seat)
		if err != nil {
			return nil, fmt.Errorf("init game: seat %d (%s): %w", i, seat.Name, err)
		}
		state.Players = append(state.Players, player)
	}
	return state, nil
}

func initPlayer(seat Seat) (*PlayerState, error) {
	if seat.Deck == nil || len(seat.Deck.Cards) == 0 {
		return nil, fmt.Errorf("deck is empty or unreadable")
	}

	playerID := seat.PlayerID
	if playerID == "" {
		playerID = uuid.New().String()
	}

	// Regenerate every instance id, keeping an old->new table so the
	// deck's commander designations can be remapped. Fresh ids per game
	// break aliasing with the stored deck file and with other games using
	// the same deck.
	remap := make(map[string]string, len(seat.Deck.Cards))
	cards := make([]*card.Card, len(seat.Deck.Cards))
	for i, template := range seat.Deck.Cards {
		if template == nil || template.ID == "" {
			return nil, fmt.Errorf("card %d has no template id", i)
		}
		c := template.Clone()
		c.ResetInstanceState()
		newID := card.NewInstanceID()
		if template.InstanceID != "" {
			remap[template.InstanceID] = newID
		}
		c.InstanceID = newID
		cards[i] = c
	}

	commanders := make(map[string]bool, len(seat.Deck.Commanders))
	for _, oldID := range seat.Deck.Commanders {
		if newID, ok := remap[oldID]; ok {
			commanders[newID] = true
		}
	}

	player := &PlayerState{
		ID:    playerID,
		Name:  seat.Name,
		Color: seat.Color,
		Life:  StartingLife,
	}

	var pool []*card.Card
	for _, c := range cards {
		if commanders[c.InstanceID] {
			player.CommandZone = append(player.CommandZone, c)
		} else {
			pool = append(pool, c)
		}
	}

	// Fisher-Yates via rand.Shuffle: uniform over all orderings.
	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	handSize := OpeningHandSize
	if handSize > len(pool) {
		handSize = len(pool)
	}
	player.Hand = pool[:handSize]
	player.Library = pool[handSize:]
	return player, nil
}
