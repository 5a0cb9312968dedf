package peer

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/deckforge/tabletop-server-go/internal/game"
)

// ClientInfo describes one connected client, exposed to the UI for the
// participant list and the kick action.
type ClientInfo struct {
	ID   string
	Name string
}

// Host owns the authoritative game state for a session. Every state
// change is rebroadcast to all connected clients as a full snapshot; the
// host is the sole writer, so client-observed states form a totally
// ordered sequence.
type Host struct {
	name   string
	logger *zap.Logger

	mu       sync.RWMutex
	listener Listener
	clients  map[string]*hostClient
	state    *game.GameState
	checksum string
	history  *game.History
	closed   bool
}

// hostClient pairs a connection with its send queue. Consecutive pending
// snapshots collapse to the newest one, so a slow client skips
// intermediate states instead of stalling the host (last-write-wins).
type hostClient struct {
	info ClientInfo
	conn Conn

	mu       sync.Mutex
	pending  []outbound
	wake     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

type outbound struct {
	payload  []byte
	snapshot bool
}

// historyLimit bounds how many snapshots the host keeps for stepping
// backwards through the session.
const historyLimit = 256

// NewHost creates a session host with the given display name.
func NewHost(name string, logger *zap.Logger) *Host {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Host{
		name:    name,
		logger:  logger,
		clients: make(map[string]*hostClient),
		history: game.NewHistory(historyLimit),
	}
}

// Serve opens a session on the transport and accepts clients until the
// context is cancelled or the listener closes. It returns the session id
// through the callback as soon as it is known; share it out of band.
func (h *Host) Serve(ctx context.Context, transport Transport, onSession func(sessionID string)) error {
	listener, err := transport.Host(ctx, Metadata{Name: h.name})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	h.mu.Lock()
	h.listener = listener
	h.mu.Unlock()

	if onSession != nil {
		onSession(listener.SessionID())
	}
	h.logger.Info("session open", zap.String("session_id", listener.SessionID()))

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, meta, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		h.attach(conn, meta)
	}
}

// attach registers a freshly connected client, greets it with the host's
// display name and the current snapshot, and starts its writer.
func (h *Host) attach(conn Conn, meta Metadata) {
	client := &hostClient{
		info: ClientInfo{ID: meta.ID, Name: meta.Name},
		conn: conn,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[client.info.ID] = client
	state := h.state
	h.mu.Unlock()

	h.logger.Info("client joined",
		zap.String("client_id", client.info.ID),
		zap.String("client_name", client.info.Name),
	)

	go client.writeLoop(h.logger)
	go h.readLoop(client)

	hello, err := (&Message{Type: MessageHello, Name: h.name}).Encode()
	if err == nil {
		client.enqueue(hello, false)
	}
	if state != nil {
		if snapshot, err := (&Message{Type: MessageState, State: state}).Encode(); err == nil {
			client.enqueue(snapshot, true)
		}
	}
}

// readLoop drains inbound frames so transport-level closes are noticed.
// Clients do not mutate host state over this channel; their intents
// travel out of band through the UI layer.
func (h *Host) readLoop(client *hostClient) {
	for {
		if _, err := client.conn.Receive(); err != nil {
			h.detach(client.info.ID, err)
			return
		}
	}
}

func (h *Host) detach(clientID string, cause error) {
	h.mu.Lock()
	client, ok := h.clients[clientID]
	if ok {
		delete(h.clients, clientID)
	}
	h.mu.Unlock()
	if !ok {
		return
	}
	client.stop()
	h.logger.Info("client left",
		zap.String("client_id", clientID),
		zap.NamedError("cause", cause),
	)
}

// SetState replaces the authoritative state and broadcasts it. Snapshots
// whose deterministic checksum matches the last broadcast are skipped.
func (h *Host) SetState(state *game.GameState) {
	if state == nil {
		return
	}
	sum := state.Checksum()

	h.mu.Lock()
	if sum == h.checksum {
		h.mu.Unlock()
		return
	}
	h.state = state
	h.checksum = sum
	clients := make([]*hostClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	h.history.Record(state)

	payload, err := (&Message{Type: MessageState, State: state}).Encode()
	if err != nil {
		h.logger.Error("encode snapshot", zap.Error(err))
		return
	}
	for _, c := range clients {
		c.enqueue(payload, true)
	}
}

// Apply runs a pure transform against the current state and broadcasts
// the result. The transform's error is returned as is; on error nothing
// is broadcast.
func (h *Host) Apply(transform func(*game.GameState) (*game.GameState, error)) error {
	h.mu.RLock()
	current := h.state
	h.mu.RUnlock()
	if current == nil {
		return fmt.Errorf("no game in progress")
	}
	next, err := transform(current)
	if err != nil {
		return err
	}
	h.SetState(next)
	return nil
}

// State returns the current authoritative snapshot.
func (h *Host) State() *game.GameState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// History exposes the recorded snapshot history.
func (h *Host) History() *game.History {
	return h.history
}

// Clients lists the currently connected clients.
func (h *Host) Clients() []ClientInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]ClientInfo, 0, len(h.clients))
	for _, c := range h.clients {
		out = append(out, c.info)
	}
	return out
}

// Kick sends an explicit kicked notice to the client and then closes its
// connection. The client must re-join to resume.
func (h *Host) Kick(clientID string) error {
	h.mu.RLock()
	client, ok := h.clients[clientID]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("kick: client %s not connected", clientID)
	}

	if payload, err := (&Message{Type: MessageKicked, Reason: "removed by host"}).Encode(); err == nil {
		// Best effort direct write so the notice beats the close.
		if err := client.conn.Send(payload); err != nil {
			h.logger.Warn("kick notice failed", zap.String("client_id", clientID), zap.Error(err))
		}
	}
	client.conn.Close()
	h.detach(clientID, fmt.Errorf("kicked"))
	return nil
}

// Close ends the session: every client connection drops and the listener
// shuts down.
func (h *Host) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := make([]*hostClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[string]*hostClient)
	listener := h.listener
	h.mu.Unlock()

	for _, c := range clients {
		c.conn.Close()
		c.stop()
	}
	if listener != nil {
		listener.Close()
	}
}

// enqueue queues a payload for the client. A pending snapshot is replaced
// rather than stacked when another snapshot arrives before it went out.
func (c *hostClient) enqueue(payload []byte, snapshot bool) {
	c.mu.Lock()
	if snapshot && len(c.pending) > 0 && c.pending[len(c.pending)-1].snapshot {
		c.pending[len(c.pending)-1] = outbound{payload: payload, snapshot: true}
	} else {
		c.pending = append(c.pending, outbound{payload: payload, snapshot: snapshot})
	}
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *hostClient) writeLoop(logger *zap.Logger) {
	for {
		select {
		case <-c.done:
			return
		case <-c.wake:
		}
		for {
			c.mu.Lock()
			if len(c.pending) == 0 {
				c.mu.Unlock()
				break
			}
			next := c.pending[0]
			c.pending = c.pending[1:]
			c.mu.Unlock()

			if err := c.conn.Send(next.payload); err != nil {
				logger.Debug("send to client failed", zap.String("client_id", c.info.ID), zap.Error(err))
				return
			}
		}
	}
}

func (c *hostClient) stop() {
	c.stopOnce.Do(func() { close(c.done) })
}
