package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckforge/tabletop-server-go/internal/card"
	"github.com/deckforge/tabletop-server-go/internal/game/mana"
)

func testCard(name string) *card.Card {
	return &card.Card{
		ID:         "tpl-" + name,
		Name:       name,
		InstanceID: card.NewInstanceID(),
	}
}

// newTestState builds a two-player state with a few cards in Alice's hand
// and library.
func newTestState() *GameState {
	alice := &PlayerState{ID: "alice", Name: "Alice", Life: StartingLife}
	bob := &PlayerState{ID: "bob", Name: "Bob", Life: StartingLife}
	for _, name := range []string{"Forest", "Island", "Sol Ring"} {
		alice.Hand = append(alice.Hand, testCard(name))
	}
	for _, name := range []string{"Swamp", "Mountain", "Plains", "Llanowar Elves"} {
		alice.Library = append(alice.Library, testCard(name))
	}
	return &GameState{
		Players:  []*PlayerState{alice, bob},
		Settings: Settings{Layout: LayoutTabs, PlayArea: PlayAreaRows},
	}
}

func conserved(t *testing.T, before, after *GameState) {
	t.Helper()
	assert.Equal(t, before.InstanceIDs(), after.InstanceIDs(), "instance ids must be conserved")
}

func TestMoveHandToBattlefield(t *testing.T) {
	s := newTestState()
	c := s.Player("alice").Hand[0]

	next, err := s.Move(MoveRequest{
		InstanceID: c.InstanceID,
		From:       Location{PlayerID: "alice", Zone: ZoneHand},
		To:         Location{PlayerID: "alice", Zone: ZoneBattlefield, Row: 1},
	})
	require.NoError(t, err)
	conserved(t, s, next)

	assert.Len(t, next.Player("alice").Hand, 2)
	require.Len(t, next.Player("alice").Battlefield[1], 1)
	assert.Equal(t, c.InstanceID, next.Player("alice").Battlefield[1][0].InstanceID)

	// The original state is untouched.
	assert.Len(t, s.Player("alice").Hand, 3)
}

func TestMoveZoneChangeResetsTapFlip(t *testing.T) {
	s := newTestState()
	c := s.Player("alice").Hand[0]
	c.Tapped = true
	c.Flipped = true

	next, err := s.Move(MoveRequest{
		InstanceID: c.InstanceID,
		From:       Location{PlayerID: "alice", Zone: ZoneHand},
		To:         Location{PlayerID: "alice", Zone: ZoneGraveyard},
	})
	require.NoError(t, err)

	moved := next.Player("alice").Graveyard[0]
	assert.False(t, moved.Tapped)
	assert.False(t, moved.Flipped)
}

func TestMoveWithinZonePreservesTapFlip(t *testing.T) {
	s := newTestState()
	c := s.Player("alice").Hand[0]

	// hand -> battlefield row 1 resets, tap it, then reorder within the
	// battlefield: tap state must survive.
	next, err := s.Move(MoveRequest{
		InstanceID: c.InstanceID,
		From:       Location{PlayerID: "alice", Zone: ZoneHand},
		To:         Location{PlayerID: "alice", Zone: ZoneBattlefield, Row: 1},
	})
	require.NoError(t, err)
	assert.False(t, next.Player("alice").Battlefield[1][0].Tapped)

	next, err = next.ToggleTap(c.InstanceID)
	require.NoError(t, err)

	next, err = next.Move(MoveRequest{
		InstanceID: c.InstanceID,
		From:       Location{PlayerID: "alice", Zone: ZoneBattlefield, Row: 1},
		To:         Location{PlayerID: "alice", Zone: ZoneBattlefield, Row: 1},
	})
	require.NoError(t, err)
	assert.True(t, next.Player("alice").Battlefield[1][0].Tapped)

	// Row changes also stay within the zone.
	next, err = next.Move(MoveRequest{
		InstanceID: c.InstanceID,
		From:       Location{PlayerID: "alice", Zone: ZoneBattlefield, Row: 1},
		To:         Location{PlayerID: "alice", Zone: ZoneBattlefield, Row: 3},
	})
	require.NoError(t, err)
	assert.True(t, next.Player("alice").Battlefield[3][0].Tapped)
}

func TestMoveToOtherPlayerResets(t *testing.T) {
	s := newTestState()
	c := s.Player("alice").Hand[0]

	next, err := s.Move(MoveRequest{
		InstanceID: c.InstanceID,
		From:       Location{PlayerID: "alice", Zone: ZoneHand},
		To:         Location{PlayerID: "alice", Zone: ZoneBattlefield, Row: 0},
	})
	require.NoError(t, err)
	next, err = next.ToggleTap(c.InstanceID)
	require.NoError(t, err)

	// Same zone kind but a different player's battlefield: resets.
	next, err = next.Move(MoveRequest{
		InstanceID: c.InstanceID,
		From:       Location{PlayerID: "alice", Zone: ZoneBattlefield, Row: 0},
		To:         Location{PlayerID: "bob", Zone: ZoneBattlefield, Row: 0},
	})
	require.NoError(t, err)
	assert.False(t, next.Player("bob").Battlefield[0][0].Tapped)
}

func TestMoveToLibraryTop(t *testing.T) {
	s := newTestState()
	c := s.Player("alice").Hand[0]

	next, err := s.Move(MoveRequest{
		InstanceID: c.InstanceID,
		From:       Location{PlayerID: "alice", Zone: ZoneHand},
		To:         Location{PlayerID: "alice", Zone: ZoneLibrary},
		Placement:  PlaceTop,
	})
	require.NoError(t, err)
	require.Len(t, next.Player("alice").Library, 5)
	assert.Equal(t, c.InstanceID, next.Player("alice").Library[0].InstanceID)

	// Default placement goes to the bottom.
	c2 := s.Player("alice").Hand[1]
	next, err = next.Move(MoveRequest{
		InstanceID: c2.InstanceID,
		From:       Location{PlayerID: "alice", Zone: ZoneHand},
		To:         Location{PlayerID: "alice", Zone: ZoneLibrary},
	})
	require.NoError(t, err)
	lib := next.Player("alice").Library
	assert.Equal(t, c2.InstanceID, lib[len(lib)-1].InstanceID)
}

func TestMoveFreeformStoresDropPosition(t *testing.T) {
	s := newTestState()
	s.Settings.PlayArea = PlayAreaFreeform
	c := s.Player("alice").Hand[0]

	next, err := s.Move(MoveRequest{
		InstanceID: c.InstanceID,
		From:       Location{PlayerID: "alice", Zone: ZoneHand},
		To:         Location{PlayerID: "alice", Zone: ZoneBattlefield},
		Drop:       &Position{X: 240, Y: 130},
	})
	require.NoError(t, err)
	moved := next.Player("alice").Battlefield[0][0]
	require.NotNil(t, moved.X)
	assert.Equal(t, 240.0, *moved.X)
	assert.Equal(t, 130.0, *moved.Y)

	// Leaving the battlefield clears the position.
	next, err = next.Move(MoveRequest{
		InstanceID: c.InstanceID,
		From:       Location{PlayerID: "alice", Zone: ZoneBattlefield},
		To:         Location{PlayerID: "alice", Zone: ZoneHand},
	})
	require.NoError(t, err)
	assert.Nil(t, next.Player("alice").Hand[len(next.Player("alice").Hand)-1].X)
}

func TestMoveFreeformRotatedViewMirrorsDrop(t *testing.T) {
	s := newTestState()
	s.Settings.PlayArea = PlayAreaFreeform
	s.Rotated = true
	c := s.Player("alice").Hand[0]

	next, err := s.Move(MoveRequest{
		InstanceID: c.InstanceID,
		From:       Location{PlayerID: "alice", Zone: ZoneHand},
		To:         Location{PlayerID: "alice", Zone: ZoneBattlefield},
		Drop:       &Position{X: 100, Y: 80},
	})
	require.NoError(t, err)
	moved := next.Player("alice").Battlefield[0][0]
	assert.Equal(t, boardWidth-100, *moved.X)
	assert.Equal(t, boardHeight-80, *moved.Y)
}

func TestMoveMissingCardIsNoOp(t *testing.T) {
	s := newTestState()
	before := s.InstanceIDs()

	next, err := s.Move(MoveRequest{
		InstanceID: "no-such-instance",
		From:       Location{PlayerID: "alice", Zone: ZoneHand},
		To:         Location{PlayerID: "alice", Zone: ZoneGraveyard},
	})
	assert.Error(t, err)
	assert.Same(t, s, next)
	assert.Equal(t, before, s.InstanceIDs())

	// Card exists but not in the declared source zone.
	c := s.Player("alice").Library[0]
	next, err = s.Move(MoveRequest{
		InstanceID: c.InstanceID,
		From:       Location{PlayerID: "alice", Zone: ZoneHand},
		To:         Location{PlayerID: "alice", Zone: ZoneGraveyard},
	})
	assert.Error(t, err)
	assert.Same(t, s, next)
}

func TestDrawExhaustion(t *testing.T) {
	s := newTestState() // library has 4 cards

	next, err := s.DrawTop("alice", 10)
	require.NoError(t, err)
	conserved(t, s, next)
	assert.Len(t, next.Player("alice").Hand, 7)
	assert.Empty(t, next.Player("alice").Library)

	again, err := next.DrawTop("alice", 1)
	require.NoError(t, err)
	assert.Same(t, next, again)
}

func TestDrawKeepsLibraryOrder(t *testing.T) {
	s := newTestState()
	first := s.Player("alice").Library[0].InstanceID
	second := s.Player("alice").Library[1].InstanceID

	next, err := s.DrawTop("alice", 2)
	require.NoError(t, err)
	hand := next.Player("alice").Hand
	assert.Equal(t, first, hand[len(hand)-2].InstanceID)
	assert.Equal(t, second, hand[len(hand)-1].InstanceID)
}

func TestUntapAll(t *testing.T) {
	s := newTestState()
	a := s.Player("alice")
	a.Battlefield[0] = append(a.Battlefield[0], testCard("Goblin"))
	a.Battlefield[2] = append(a.Battlefield[2], testCard("Dragon"))
	a.Battlefield[0][0].Tapped = true
	a.Battlefield[2][0].Tapped = true
	b := s.Player("bob")
	b.Battlefield[1] = append(b.Battlefield[1], testCard("Wall"))
	b.Battlefield[1][0].Tapped = true

	next, err := s.UntapAll("alice")
	require.NoError(t, err)
	assert.False(t, next.Player("alice").Battlefield[0][0].Tapped)
	assert.False(t, next.Player("alice").Battlefield[2][0].Tapped)
	// Only the named player's cards untap.
	assert.True(t, next.Player("bob").Battlefield[1][0].Tapped)
}

func TestCardCounterFloor(t *testing.T) {
	s := newTestState()
	c := s.Player("alice").Hand[0]

	next, err := s.ApplyCardCounter(c.InstanceID, "+1/+1", StandardCounters)
	require.NoError(t, err)
	next, err = next.RemoveCardCounter(c.InstanceID, "+1/+1", StandardCounters)
	require.NoError(t, err)

	_, got := next.FindCard(c.InstanceID)
	assert.NotContains(t, got.Counters, "+1/+1")

	// Removing from empty never goes negative.
	next, err = next.RemoveCardCounter(c.InstanceID, "+1/+1", StandardCounters)
	require.NoError(t, err)
	_, got = next.FindCard(c.InstanceID)
	assert.Equal(t, 0, got.Counters["+1/+1"])
}

func TestRemoveAllCardCounters(t *testing.T) {
	s := newTestState()
	c := s.Player("alice").Hand[0]

	next := s
	var err error
	for i := 0; i < 4; i++ {
		next, err = next.ApplyCardCounter(c.InstanceID, "charge", CustomCounters)
		require.NoError(t, err)
	}
	_, got := next.FindCard(c.InstanceID)
	assert.Equal(t, 4, got.CustomCounters["charge"])

	next, err = next.RemoveAllCardCounters(c.InstanceID, "charge", CustomCounters)
	require.NoError(t, err)
	_, got = next.FindCard(c.InstanceID)
	assert.NotContains(t, got.CustomCounters, "charge")
}

func TestPlayerCounters(t *testing.T) {
	s := newTestState()

	next, err := s.ApplyPlayerCounter("bob", "poison")
	require.NoError(t, err)
	next, err = next.ApplyPlayerCounter("bob", "poison")
	require.NoError(t, err)
	assert.Equal(t, 2, next.Player("bob").Counters.Count("poison"))

	next, err = next.RemovePlayerCounter("bob", "poison")
	require.NoError(t, err)
	next, err = next.RemovePlayerCounter("bob", "poison")
	require.NoError(t, err)
	assert.NotContains(t, next.Player("bob").Counters, "poison")

	next, err = next.RemovePlayerCounter("bob", "poison")
	require.NoError(t, err)
	assert.Equal(t, 0, next.Player("bob").Counters.Count("poison"))
}

func TestManaFloorAndReset(t *testing.T) {
	s := newTestState()

	next, err := s.UpdateMana("alice", mana.Red, -1)
	require.NoError(t, err)
	assert.Equal(t, 0, next.Player("alice").Mana.Red)

	for _, color := range mana.Colors {
		next, err = next.UpdateMana("alice", color, 2)
		require.NoError(t, err)
	}
	assert.Equal(t, 12, next.Player("alice").Mana.Total())

	next, err = next.ResetMana("alice")
	require.NoError(t, err)
	assert.Equal(t, 0, next.Player("alice").Mana.Total())

	_, err = s.UpdateMana("alice", "purple", 1)
	assert.Error(t, err)
}

func TestLifeIsUnbounded(t *testing.T) {
	s := newTestState()

	next, err := s.UpdateLife("alice", -45)
	require.NoError(t, err)
	assert.Equal(t, -5, next.Player("alice").Life)

	next, err = next.UpdateLife("alice", 100)
	require.NoError(t, err)
	assert.Equal(t, 95, next.Player("alice").Life)
}

func TestConservationAcrossMixedOperations(t *testing.T) {
	s := newTestState()
	before := s.InstanceIDs()

	next, err := s.DrawTop("alice", 2)
	require.NoError(t, err)
	c := next.Player("alice").Hand[0]
	next, err = next.Move(MoveRequest{
		InstanceID: c.InstanceID,
		From:       Location{PlayerID: "alice", Zone: ZoneHand},
		To:         Location{PlayerID: "bob", Zone: ZoneExile},
	})
	require.NoError(t, err)

	reviewed := []*card.Card{}
	next, reviewed, err = next.BeginScry("alice", 2)
	require.NoError(t, err)
	next, err = next.ResolveScry("alice", reviewed, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, before, next.InstanceIDs())
}
