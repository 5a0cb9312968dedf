package peer

import (
	"encoding/json"
	"fmt"

	"github.com/deckforge/tabletop-server-go/internal/game"
)

// MessageType discriminates the host-to-client wire messages.
type MessageType string

const (
	// MessageHello is sent by the host immediately after a client
	// connects and carries the host's display name.
	MessageHello MessageType = "hello"
	// MessageState carries a full game state snapshot. Clients replace
	// their rendered state wholesale.
	MessageState MessageType = "state"
	// MessageKicked tells a client it was removed; the connection is
	// closed right after.
	MessageKicked MessageType = "kicked"
)

// Message is the envelope for every host-to-client payload.
type Message struct {
	Type   MessageType     `json:"type"`
	Name   string          `json:"name,omitempty"`
	State  *game.GameState `json:"state,omitempty"`
	Reason string          `json:"reason,omitempty"`
}

// Encode marshals the message for the wire.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// DecodeMessage parses a wire payload, rejecting anything without a known
// type tag so a malformed peer message surfaces as an explicit error
// rather than a zero-valued update.
func DecodeMessage(payload []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("malformed peer message: %w", err)
	}
	switch m.Type {
	case MessageHello, MessageState, MessageKicked:
		return &m, nil
	}
	return nil, fmt.Errorf("unexpected peer message type %q", m.Type)
}
