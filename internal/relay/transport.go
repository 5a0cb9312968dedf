package relay

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/deckforge/tabletop-server-go/internal/peer"
)

// Transport implements peer.Transport over a relay server.
type Transport struct {
	baseURL string
	dialer  *websocket.Dialer
	logger  *zap.Logger
}

// NewTransport creates a transport pointed at the relay's base URL
// (http:// or https://; the websocket scheme is derived).
func NewTransport(baseURL string, logger *zap.Logger) *Transport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transport{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		dialer:  websocket.DefaultDialer,
		logger:  logger,
	}
}

func (t *Transport) wsURL(path string) string {
	u := t.baseURL + path
	u = strings.Replace(u, "https://", "wss://", 1)
	u = strings.Replace(u, "http://", "ws://", 1)
	return u
}

// Host registers a new session with the relay and returns a listener that
// yields one connection per joining client.
func (t *Transport) Host(ctx context.Context, meta peer.Metadata) (peer.Listener, error) {
	u := t.wsURL("/ws/host") + "?name=" + url.QueryEscape(meta.Name)
	conn, _, err := t.dialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}

	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		conn.Close()
		return nil, fmt.Errorf("read session envelope: %w", err)
	}
	if env.Type != envSession || env.SessionID == "" {
		conn.Close()
		return nil, fmt.Errorf("unexpected relay greeting %q", env.Type)
	}

	l := &hostListener{
		sessionID: env.SessionID,
		ws:        &wsPeer{conn: conn},
		accepts:   make(chan acceptedConn, 8),
		conns:     make(map[string]*hostConn),
		done:      make(chan struct{}),
		logger:    t.logger,
	}
	go l.readLoop()
	return l, nil
}

// Connect joins an existing session as a client. The returned connection
// carries raw payload frames; the relay handles routing to the host.
func (t *Transport) Connect(ctx context.Context, sessionID string, meta peer.Metadata) (peer.Conn, error) {
	u := t.wsURL("/ws/join/"+url.PathEscape(sessionID)) + "?name=" + url.QueryEscape(meta.Name)
	conn, _, err := t.dialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("dial session %s: %w", sessionID, err)
	}
	return &clientConn{ws: &wsPeer{conn: conn}}, nil
}

type acceptedConn struct {
	conn peer.Conn
	meta peer.Metadata
}

// hostListener demultiplexes the single relay websocket into one
// peer.Conn per client.
type hostListener struct {
	sessionID string
	ws        *wsPeer
	accepts   chan acceptedConn
	logger    *zap.Logger

	mu    sync.Mutex
	conns map[string]*hostConn
	done  chan struct{}
	once  sync.Once
}

func (l *hostListener) SessionID() string { return l.sessionID }

func (l *hostListener) Accept() (peer.Conn, peer.Metadata, error) {
	select {
	case a := <-l.accepts:
		return a.conn, a.meta, nil
	case <-l.done:
		return nil, peer.Metadata{}, fmt.Errorf("session %s closed", l.sessionID)
	}
}

func (l *hostListener) Close() error {
	l.once.Do(func() {
		close(l.done)
		l.ws.conn.Close()
		l.mu.Lock()
		for _, c := range l.conns {
			c.closeRecv()
		}
		l.conns = make(map[string]*hostConn)
		l.mu.Unlock()
	})
	return nil
}

func (l *hostListener) readLoop() {
	defer l.Close()
	for {
		var env envelope
		if err := l.ws.conn.ReadJSON(&env); err != nil {
			return
		}
		switch env.Type {
		case envOpen:
			conn := &hostConn{
				clientID: env.ClientID,
				listener: l,
				recv:     make(chan []byte, 64),
				done:     make(chan struct{}),
			}
			l.mu.Lock()
			l.conns[env.ClientID] = conn
			l.mu.Unlock()
			select {
			case l.accepts <- acceptedConn{conn: conn, meta: peer.Metadata{ID: env.ClientID, Name: env.Name}}:
			case <-l.done:
				return
			}
		case envData:
			l.mu.Lock()
			conn := l.conns[env.ClientID]
			l.mu.Unlock()
			if conn != nil {
				select {
				case conn.recv <- env.Payload:
				default:
					l.logger.Warn("dropping frame from slow client",
						zap.String("client_id", env.ClientID))
				}
			}
		case envClosed:
			l.mu.Lock()
			conn := l.conns[env.ClientID]
			delete(l.conns, env.ClientID)
			l.mu.Unlock()
			if conn != nil {
				conn.closeRecv()
			}
		default:
			l.logger.Warn("unexpected relay envelope", zap.String("type", env.Type))
		}
	}
}

// hostConn is the host's handle on one joined client, multiplexed over
// the relay websocket.
type hostConn struct {
	clientID string
	listener *hostListener
	recv     chan []byte
	done     chan struct{}
	once     sync.Once
}

func (c *hostConn) Send(payload []byte) error {
	select {
	case <-c.done:
		return fmt.Errorf("connection to %s closed", c.clientID)
	default:
	}
	return c.listener.ws.writeJSON(envelope{Type: envSend, ClientID: c.clientID, Payload: payload})
}

func (c *hostConn) Receive() ([]byte, error) {
	select {
	case payload := <-c.recv:
		return payload, nil
	case <-c.done:
		select {
		case payload := <-c.recv:
			return payload, nil
		default:
			return nil, fmt.Errorf("connection to %s closed", c.clientID)
		}
	}
}

// Close asks the relay to terminate the client's websocket.
func (c *hostConn) Close() error {
	err := c.listener.ws.writeJSON(envelope{Type: envClose, ClientID: c.clientID})
	c.listener.mu.Lock()
	delete(c.listener.conns, c.clientID)
	c.listener.mu.Unlock()
	c.closeRecv()
	return err
}

func (c *hostConn) closeRecv() {
	c.once.Do(func() { close(c.done) })
}

// clientConn is a client's direct line to the host via the relay.
type clientConn struct {
	ws *wsPeer
}

func (c *clientConn) Send(payload []byte) error {
	return c.ws.writeRaw(payload)
}

func (c *clientConn) Receive() ([]byte, error) {
	_, payload, err := c.ws.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *clientConn) Close() error {
	return c.ws.conn.Close()
}
