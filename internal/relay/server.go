package relay

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// The relay is the rendezvous point for peer sessions: a host registers
// and receives a session id to share out of band; clients join with that
// id and the relay pipes frames between them. The relay never inspects
// game payloads.

// envelope is the framing between relay and host. Client websockets carry
// raw payloads; the relay wraps them so the host can tell clients apart.
type envelope struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	Name      string          `json:"name,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Envelope types exchanged with the host connection.
const (
	// relay -> host
	envSession = "session" // session created, carries SessionID
	envOpen    = "open"    // client connected, carries ClientID and Name
	envData    = "data"    // frame from a client
	envClosed  = "closed"  // client connection ended
	// host -> relay
	envSend  = "send"  // deliver payload to one client
	envClose = "close" // terminate one client's connection
)

// wsPeer wraps a websocket with a write mutex: gorilla connections allow
// one concurrent writer.
type wsPeer struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (p *wsPeer) writeJSON(v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.WriteJSON(v)
}

func (p *wsPeer) writeRaw(payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.WriteMessage(websocket.TextMessage, payload)
}

type session struct {
	id   string
	host *wsPeer

	mu      sync.RWMutex
	clients map[string]*wsPeer
}

// Server is the relay HTTP service.
type Server struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewServer creates a relay server.
func NewServer(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sessions: make(map[string]*session),
	}
}

// Routes returns the relay's HTTP routes.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/ws/host", s.handleHost)
	r.Get("/ws/join/{session}", s.handleJoin)
	return r
}

// SessionCount reports the number of live sessions.
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Server) handleHost(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("host upgrade failed", zap.Error(err))
		return
	}

	sess := &session{
		id:      uuid.New().String(),
		host:    &wsPeer{conn: conn},
		clients: make(map[string]*wsPeer),
	}
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.logger.Info("session created",
		zap.String("session_id", sess.id),
		zap.String("host_name", r.URL.Query().Get("name")),
	)

	if err := sess.host.writeJSON(envelope{Type: envSession, SessionID: sess.id}); err != nil {
		s.dropSession(sess)
		return
	}

	// Host read loop: route send/close envelopes to client sockets.
	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			break
		}
		switch env.Type {
		case envSend:
			sess.mu.RLock()
			client := sess.clients[env.ClientID]
			sess.mu.RUnlock()
			if client != nil {
				if err := client.writeRaw(env.Payload); err != nil {
					s.logger.Debug("relay to client failed",
						zap.String("client_id", env.ClientID), zap.Error(err))
				}
			}
		case envClose:
			sess.mu.Lock()
			client := sess.clients[env.ClientID]
			delete(sess.clients, env.ClientID)
			sess.mu.Unlock()
			if client != nil {
				client.conn.Close()
			}
		default:
			s.logger.Warn("unexpected host envelope", zap.String("type", env.Type))
		}
	}

	s.dropSession(sess)
}

func (s *Server) dropSession(sess *session) {
	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()

	sess.mu.Lock()
	clients := sess.clients
	sess.clients = make(map[string]*wsPeer)
	sess.mu.Unlock()

	for _, c := range clients {
		c.conn.Close()
	}
	sess.host.conn.Close()
	s.logger.Info("session ended", zap.String("session_id", sess.id))
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session")
	s.mu.RLock()
	sess := s.sessions[sessionID]
	s.mu.RUnlock()
	if sess == nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("client upgrade failed", zap.Error(err))
		return
	}

	client := &wsPeer{conn: conn}
	clientID := uuid.New().String()
	name := r.URL.Query().Get("name")

	sess.mu.Lock()
	sess.clients[clientID] = client
	sess.mu.Unlock()

	if err := sess.host.writeJSON(envelope{Type: envOpen, ClientID: clientID, Name: name}); err != nil {
		conn.Close()
		return
	}
	s.logger.Info("client joined session",
		zap.String("session_id", sessionID),
		zap.String("client_id", clientID),
		zap.String("client_name", name),
	)

	// Client read loop: wrap frames and forward to the host.
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if err := sess.host.writeJSON(envelope{Type: envData, ClientID: clientID, Payload: payload}); err != nil {
			break
		}
	}

	conn.Close()
	sess.mu.Lock()
	_, present := sess.clients[clientID]
	delete(sess.clients, clientID)
	sess.mu.Unlock()
	if present {
		// Only notify for closes the host did not initiate itself.
		sess.host.writeJSON(envelope{Type: envClosed, ClientID: clientID})
	}
}
