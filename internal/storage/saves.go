package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/deckforge/tabletop-server-go/internal/game"
)

const saveExt = ".save.json"

// CurrentSaveVersion tags the save-file envelope shape this build writes.
const CurrentSaveVersion = "1"

// ErrInvalidSave marks a save file whose envelope is missing or carries
// an unknown version tag. The caller surfaces it to the user; any game in
// progress is left untouched.
var ErrInvalidSave = errors.New("invalid save file")

// saveEnvelope is the persisted shape of a saved game.
type saveEnvelope struct {
	SaveVersion string          `json:"saveVersion"`
	SavedAt     time.Time       `json:"savedAt"`
	GameState   *game.GameState `json:"gameState"`
}

// SaveInfo describes one stored save for listings.
type SaveInfo struct {
	Name    string
	SavedAt time.Time
}

// SaveStore persists game snapshots in a versioned JSON envelope.
type SaveStore struct {
	store  *Store
	logger *zap.Logger
	now    func() time.Time
}

// NewSaveStore opens a save store rooted at dir.
func NewSaveStore(dir string, logger *zap.Logger) (*SaveStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	store, err := NewStore(dir)
	if err != nil {
		return nil, err
	}
	return &SaveStore{store: store, logger: logger, now: time.Now}, nil
}

// Save checkpoints a game state under the given save name.
func (ss *SaveStore) Save(name string, state *game.GameState) error {
	if state == nil {
		return fmt.Errorf("save game %s: no state", name)
	}
	env := saveEnvelope{
		SaveVersion: CurrentSaveVersion,
		SavedAt:     ss.now().UTC(),
		GameState:   state,
	}
	data, err := json.MarshalIndent(&env, "", "  ")
	if err != nil {
		return fmt.Errorf("save game %s: %w", name, err)
	}
	if err := ss.store.Write(Sanitize(name)+saveExt, data); err != nil {
		return err
	}
	ss.logger.Info("game saved",
		zap.String("save", name),
		zap.Int("players", len(state.Players)),
	)
	return nil
}

// Load reads a saved game, validating the envelope before trusting the
// payload. A missing or unrecognized version tag yields ErrInvalidSave.
func (ss *SaveStore) Load(name string) (*game.GameState, time.Time, error) {
	data, err := ss.store.Read(Sanitize(name) + saveExt)
	if err != nil {
		return nil, time.Time{}, err
	}
	var env saveEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: %s: %v", ErrInvalidSave, name, err)
	}
	if env.SaveVersion == "" {
		return nil, time.Time{}, fmt.Errorf("%w: %s: missing version tag", ErrInvalidSave, name)
	}
	if env.SaveVersion != CurrentSaveVersion {
		return nil, time.Time{}, fmt.Errorf("%w: %s: unsupported version %q", ErrInvalidSave, name, env.SaveVersion)
	}
	if env.GameState == nil {
		return nil, time.Time{}, fmt.Errorf("%w: %s: missing game state", ErrInvalidSave, name)
	}
	return env.GameState, env.SavedAt, nil
}

// List returns the stored saves, name plus timestamp.
func (ss *SaveStore) List() ([]SaveInfo, error) {
	files, err := ss.store.List(".json")
	if err != nil {
		return nil, err
	}
	var infos []SaveInfo
	for _, f := range files {
		if !strings.HasSuffix(f, saveExt) {
			continue
		}
		name := strings.TrimSuffix(f, saveExt)
		if _, at, err := ss.Load(name); err == nil {
			infos = append(infos, SaveInfo{Name: name, SavedAt: at})
		}
	}
	return infos, nil
}

// Delete removes a stored save.
func (ss *SaveStore) Delete(name string) error {
	return ss.store.Delete(Sanitize(name) + saveExt)
}
