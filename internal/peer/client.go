package peer

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/deckforge/tabletop-server-go/internal/game"
)

// Status is the client's view of its connection to the host.
type Status string

const (
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
	StatusKicked       Status = "kicked"
)

// Client is a non-host participant. It holds a read-only replica of the
// host's game state, overwritten wholesale on every snapshot, and never
// mutates it locally.
type Client struct {
	name   string
	logger *zap.Logger

	mu       sync.RWMutex
	conn     Conn
	state    *game.GameState
	hostName string
	status   Status

	// OnState, when set before Join, is invoked with every replacement
	// snapshot. OnStatus fires on disconnect and kick.
	OnState  func(*game.GameState)
	OnStatus func(Status)
}

// NewClient creates a client with the given display name.
func NewClient(name string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{name: name, logger: logger, status: StatusDisconnected}
}

// Join connects to a session. A client that lost its connection can call
// Join again with the same session id to resume.
func (c *Client) Join(ctx context.Context, transport Transport, sessionID string) error {
	conn, err := transport.Connect(ctx, sessionID, Metadata{Name: c.name})
	if err != nil {
		return fmt.Errorf("join session %s: %w", sessionID, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.status = StatusConnected
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

func (c *Client) readLoop(conn Conn) {
	for {
		payload, err := conn.Receive()
		if err != nil {
			c.setStatus(StatusDisconnected)
			return
		}
		msg, err := DecodeMessage(payload)
		if err != nil {
			c.logger.Warn("dropping malformed host message", zap.Error(err))
			continue
		}
		switch msg.Type {
		case MessageHello:
			c.mu.Lock()
			c.hostName = msg.Name
			c.mu.Unlock()
			c.logger.Info("joined host", zap.String("host_name", msg.Name))
		case MessageState:
			if msg.State == nil {
				c.logger.Warn("snapshot message without state")
				continue
			}
			c.mu.Lock()
			c.state = msg.State
			handler := c.OnState
			c.mu.Unlock()
			if handler != nil {
				handler(msg.State)
			}
		case MessageKicked:
			c.logger.Info("kicked by host", zap.String("reason", msg.Reason))
			conn.Close()
			c.setStatus(StatusKicked)
			return
		}
	}
}

func (c *Client) setStatus(status Status) {
	c.mu.Lock()
	// A kick already recorded wins over the trailing close event.
	if c.status == StatusKicked && status == StatusDisconnected {
		c.mu.Unlock()
		return
	}
	c.status = status
	handler := c.OnStatus
	c.mu.Unlock()
	if handler != nil {
		handler(status)
	}
}

// State returns the latest replicated snapshot, nil before the first one.
func (c *Client) State() *game.GameState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// HostName returns the host's display name, learned from the greeting.
func (c *Client) HostName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hostName
}

// Status returns the current connection status.
func (c *Client) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Leave closes the connection to the host.
func (c *Client) Leave() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}
