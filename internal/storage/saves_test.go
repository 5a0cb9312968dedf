package storage

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deckforge/tabletop-server-go/internal/card"
	"github.com/deckforge/tabletop-server-go/internal/deck"
	"github.com/deckforge/tabletop-server-go/internal/game"
)

func testState(t *testing.T) *game.GameState {
	t.Helper()
	d := &deck.Deck{Name: "test", Cards: []*card.Card{
		{ID: "tmpl-forest", Name: "Forest", InstanceID: card.NewInstanceID()},
	}}
	state, err := game.NewGame([]game.Seat{{Name: "Alice", Deck: d}}, game.Settings{PlayArea: game.PlayAreaRows})
	require.NoError(t, err)
	return state
}

func TestSaveStoreRoundtrip(t *testing.T) {
	ss, err := NewSaveStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	stamp := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	ss.now = func() time.Time { return stamp }

	state := testState(t)
	require.NoError(t, ss.Save("evening-game", state))

	loaded, savedAt, err := ss.Load("evening-game")
	require.NoError(t, err)
	assert.Equal(t, stamp, savedAt)
	assert.Equal(t, state.Checksum(), loaded.Checksum())
}

func TestSaveStoreRejectsMissingVersion(t *testing.T) {
	dir := t.TempDir()
	ss, err := NewSaveStore(dir, zap.NewNop())
	require.NoError(t, err)

	raw, err := json.Marshal(map[string]any{"savedAt": time.Now(), "gameState": testState(t)})
	require.NoError(t, err)
	require.NoError(t, ss.store.Write("legacy"+saveExt, raw))

	_, _, err = ss.Load("legacy")
	assert.ErrorIs(t, err, ErrInvalidSave)
}

func TestSaveStoreRejectsUnknownVersion(t *testing.T) {
	ss, err := NewSaveStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	raw, err := json.Marshal(map[string]any{
		"saveVersion": "999",
		"savedAt":     time.Now(),
		"gameState":   testState(t),
	})
	require.NoError(t, err)
	require.NoError(t, ss.store.Write("future"+saveExt, raw))

	_, _, err = ss.Load("future")
	assert.ErrorIs(t, err, ErrInvalidSave)
}

func TestSaveStoreRejectsCorruptPayload(t *testing.T) {
	ss, err := NewSaveStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, ss.store.Write("junk"+saveExt, []byte("not json")))

	_, _, err = ss.Load("junk")
	assert.ErrorIs(t, err, ErrInvalidSave)
}

func TestSaveStoreListSkipsInvalidSaves(t *testing.T) {
	ss, err := NewSaveStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, ss.Save("good", testState(t)))
	require.NoError(t, ss.store.Write("bad"+saveExt, []byte("{}")))

	infos, err := ss.List()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "good", infos[0].Name)
}
