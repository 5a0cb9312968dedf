package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckforge/tabletop-server-go/internal/card"
	"github.com/deckforge/tabletop-server-go/internal/deck"
)

func testDeck(size int) *deck.Deck {
	d := &deck.Deck{Name: "test"}
	for i := 0; i < size; i++ {
		d.Cards = append(d.Cards, &card.Card{
			ID:         fmt.Sprintf("tpl-%d", i),
			Name:       fmt.Sprintf("Card %d", i),
			InstanceID: card.NewInstanceID(),
		})
	}
	return d
}

func TestNewGameOpeningHand(t *testing.T) {
	d := testDeck(40)
	state, err := NewGame([]Seat{{Name: "Alice", Deck: d}}, Settings{PlayArea: PlayAreaRows})
	require.NoError(t, err)
	require.Len(t, state.Players, 1)

	p := state.Players[0]
	assert.Len(t, p.Hand, 7)
	assert.Len(t, p.Library, 33)
	assert.Empty(t, p.Graveyard)
	assert.Empty(t, p.Exile)
	assert.Empty(t, p.CommandZone)
	for row := range p.Battlefield {
		assert.Empty(t, p.Battlefield[row])
	}
	assert.Equal(t, 40, p.Life)
	assert.Equal(t, 0, p.Mana.Total())
	assert.Empty(t, p.Counters)
}

func TestNewGameSmallDeck(t *testing.T) {
	state, err := NewGame([]Seat{{Name: "Alice", Deck: testDeck(5)}}, Settings{})
	require.NoError(t, err)
	p := state.Players[0]
	assert.Len(t, p.Hand, 5)
	assert.Empty(t, p.Library)
}

func TestNewGameCommanders(t *testing.T) {
	d := testDeck(10)
	d.SetCommander(d.Cards[3].InstanceID, true)
	d.SetCommander(d.Cards[7].InstanceID, true)

	state, err := NewGame([]Seat{{Name: "Alice", Deck: d}}, Settings{})
	require.NoError(t, err)
	p := state.Players[0]

	require.Len(t, p.CommandZone, 2)
	names := []string{p.CommandZone[0].Name, p.CommandZone[1].Name}
	assert.ElementsMatch(t, []string{"Card 3", "Card 7"}, names)
	assert.Len(t, p.Hand, 7)
	assert.Len(t, p.Library, 1)
}

func TestNewGameRegeneratesInstanceIDs(t *testing.T) {
	d := testDeck(8)
	oldIDs := make(map[string]bool)
	for _, c := range d.Cards {
		oldIDs[c.InstanceID] = true
	}

	state, err := NewGame([]Seat{{Name: "Alice", Deck: d}}, Settings{})
	require.NoError(t, err)

	for id, count := range state.InstanceIDs() {
		assert.Equal(t, 1, count)
		assert.False(t, oldIDs[id], "instance id %s aliases the deck file", id)
	}

	// A second game from the same deck shares no instance ids either.
	state2, err := NewGame([]Seat{{Name: "Alice", Deck: d}}, Settings{})
	require.NoError(t, err)
	for id := range state2.InstanceIDs() {
		_, clash := state.InstanceIDs()[id]
		assert.False(t, clash)
	}

	// The deck file itself is untouched.
	for _, c := range d.Cards {
		assert.True(t, oldIDs[c.InstanceID])
	}
}

func TestNewGameResetsStoredInstanceState(t *testing.T) {
	d := testDeck(8)
	d.Cards[0].Tapped = true
	d.Cards[0].Counters = map[string]int{"+1/+1": 3}

	state, err := NewGame([]Seat{{Name: "Alice", Deck: d}}, Settings{})
	require.NoError(t, err)

	for _, p := range state.Players {
		p.Zones(func(_ ZoneKind, _ int, cards *[]*card.Card) {
			for _, c := range *cards {
				assert.False(t, c.Tapped)
				assert.Empty(t, c.Counters)
			}
		})
	}
}

func TestNewGameAllOrNothing(t *testing.T) {
	good := testDeck(20)
	bad := &deck.Deck{Name: "empty"}

	state, err := NewGame([]Seat{
		{Name: "Alice", Deck: good},
		{Name: "Bob", Deck: bad},
	}, Settings{})
	assert.Error(t, err)
	assert.Nil(t, state)

	// A card without a template id also fails the whole init.
	broken := testDeck(20)
	broken.Cards[4].ID = ""
	state, err = NewGame([]Seat{{Name: "Alice", Deck: broken}}, Settings{})
	assert.Error(t, err)
	assert.Nil(t, state)
}

// TestShuffleUniformity deals a 3-card deck many times and checks every
// permutation of the library shows up at roughly equal frequency. A
// comparator-based pseudo-shuffle fails this badly.
func TestShuffleUniformity(t *testing.T) {
	const trials = 6000
	counts := make(map[string]int)

	for i := 0; i < trials; i++ {
		d := testDeck(3)
		state, err := NewGame([]Seat{{Name: "Alice", Deck: d}}, Settings{})
		require.NoError(t, err)
		// Opening hand size exceeds the deck, so the order shows up in
		// the hand; use template ids since instance ids are fresh.
		key := ""
		for _, c := range state.Players[0].Hand {
			key += c.ID + ","
		}
		counts[key]++
	}

	require.Len(t, counts, 6, "all 3! orderings must occur")
	expected := trials / 6
	for key, n := range counts {
		assert.InDelta(t, expected, n, float64(expected)*0.25,
			"ordering %s frequency off: %d of %d", key, n, trials)
	}
}
