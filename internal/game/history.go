package game

import (
	"sync"
)

// History records sequential game state snapshots so the host can step
// backwards through the session. Because every transform returns a fresh
// value, recording is just keeping the pointer; older snapshots are never
// mutated.
type History struct {
	mu     sync.RWMutex
	states []*GameState
	index  int // position of the current state in states
	limit  int
}

// NewHistory creates a history bounded to limit snapshots. A limit of
// zero or less means unbounded.
func NewHistory(limit int) *History {
	return &History{limit: limit, index: -1}
}

// Record appends a snapshot, discarding any redo tail and the oldest
// entries beyond the bound.
func (h *History) Record(state *GameState) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.states = append(h.states[:h.index+1], state)
	if h.limit > 0 && len(h.states) > h.limit {
		h.states = h.states[len(h.states)-h.limit:]
	}
	h.index = len(h.states) - 1
}

// Current returns the snapshot at the cursor, or nil when empty.
func (h *History) Current() *GameState {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.index < 0 || h.index >= len(h.states) {
		return nil
	}
	return h.states[h.index]
}

// Back moves the cursor one snapshot earlier and returns it, or nil when
// already at the start.
func (h *History) Back() *GameState {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.index <= 0 {
		return nil
	}
	h.index--
	return h.states[h.index]
}

// Forward moves the cursor one snapshot later and returns it, or nil when
// already at the end.
func (h *History) Forward() *GameState {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.index+1 >= len(h.states) {
		return nil
	}
	h.index++
	return h.states[h.index]
}

// Size returns the number of recorded snapshots.
func (h *History) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.states)
}
