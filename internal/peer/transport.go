package peer

import (
	"context"
)

// Metadata is carried on connection open: the ephemeral session identifier
// assigned to the connecting peer and the display name it chose.
type Metadata struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// Conn is one established peer connection. Send and Receive carry opaque
// message payloads; framing and routing are the transport's concern.
type Conn interface {
	// Send transmits one payload to the remote peer.
	Send(payload []byte) error
	// Receive blocks until the next payload arrives or the connection is
	// closed, in which case it returns an error.
	Receive() ([]byte, error)
	// Close tears the connection down. Safe to call more than once.
	Close() error
}

// Listener is the host's side of a session: it yields a connection per
// joining client.
type Listener interface {
	// SessionID is the globally shareable identifier clients join with.
	SessionID() string
	// Accept blocks until the next client connects, returning the
	// connection and the client's metadata. Returns an error once the
	// listener is closed.
	Accept() (Conn, Metadata, error)
	// Close ends the session and unblocks Accept.
	Close() error
}

// Transport establishes peer sessions. The production implementation runs
// over a websocket rendezvous relay; tests substitute in-process pipes.
type Transport interface {
	// Host creates a new session and returns a listener for it.
	Host(ctx context.Context, meta Metadata) (Listener, error)
	// Connect joins an existing session as a client.
	Connect(ctx context.Context, sessionID string, meta Metadata) (Conn, error)
}
