package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksumStableAcrossClone(t *testing.T) {
	s := newTestState()
	s.HandHeights = map[string]int{"alice": 220, "bob": 180}
	next, err := s.ApplyPlayerCounter("alice", "poison")
	require.NoError(t, err)

	assert.Equal(t, next.Checksum(), next.Clone().Checksum())
}

func TestChecksumDetectsChange(t *testing.T) {
	s := newTestState()
	base := s.Checksum()

	next, err := s.UpdateLife("alice", -1)
	require.NoError(t, err)
	assert.NotEqual(t, base, next.Checksum())

	tapped, err := s.ToggleTap(s.Player("alice").Hand[0].InstanceID)
	require.NoError(t, err)
	assert.NotEqual(t, base, tapped.Checksum())

	// The no-op path hashes identically.
	again, err := s.DrawTop("alice", 0)
	require.NoError(t, err)
	assert.Equal(t, base, again.Checksum())
}

func TestChecksumDetectsTinyDrag(t *testing.T) {
	s := newTestState()
	s.Settings.PlayArea = PlayAreaFreeform

	placed, err := s.Move(MoveRequest{
		InstanceID: s.Player("alice").Hand[0].InstanceID,
		From:       Location{PlayerID: "alice", Zone: ZoneHand},
		To:         Location{PlayerID: "alice", Zone: ZoneBattlefield},
		Drop:       &Position{X: 100, Y: 100},
	})
	require.NoError(t, err)

	// A nudge far below any rounding granularity still changes the digest.
	nudged := placed.Clone()
	c := nudged.Player("alice").Battlefield[0][0]
	*c.X += 0.001
	assert.NotEqual(t, placed.Checksum(), nudged.Checksum())

	// A card at the board origin is distinct from one with no position.
	origin := placed.Clone()
	oc := origin.Player("alice").Battlefield[0][0]
	*oc.X, *oc.Y = 0, 0
	unplaced := placed.Clone()
	uc := unplaced.Player("alice").Battlefield[0][0]
	uc.X, uc.Y = nil, nil
	assert.NotEqual(t, origin.Checksum(), unplaced.Checksum())
}

func TestHistoryBackForward(t *testing.T) {
	h := NewHistory(10)
	s := newTestState()
	h.Record(s)

	next, err := s.UpdateLife("alice", -3)
	require.NoError(t, err)
	h.Record(next)

	assert.Equal(t, 2, h.Size())
	assert.Equal(t, 37, h.Current().Player("alice").Life)

	back := h.Back()
	require.NotNil(t, back)
	assert.Equal(t, 40, back.Player("alice").Life)
	assert.Nil(t, h.Back())

	fwd := h.Forward()
	require.NotNil(t, fwd)
	assert.Equal(t, 37, fwd.Player("alice").Life)
	assert.Nil(t, h.Forward())
}

func TestHistoryBounded(t *testing.T) {
	h := NewHistory(3)
	s := newTestState()
	for i := 0; i < 5; i++ {
		next, err := s.UpdateLife("alice", -1)
		require.NoError(t, err)
		s = next
		h.Record(s)
	}
	assert.Equal(t, 3, h.Size())
	assert.Equal(t, 35, h.Current().Player("alice").Life)
}

func TestHistoryRecordDropsRedoTail(t *testing.T) {
	h := NewHistory(0)
	s := newTestState()
	h.Record(s)
	s2, _ := s.UpdateLife("alice", -1)
	h.Record(s2)
	s3, _ := s2.UpdateLife("alice", -1)
	h.Record(s3)

	h.Back()
	h.Back()
	branch, _ := s.UpdateLife("alice", 5)
	h.Record(branch)

	assert.Equal(t, 2, h.Size())
	assert.Equal(t, 45, h.Current().Player("alice").Life)
	assert.Nil(t, h.Forward())
}
