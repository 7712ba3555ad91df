package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/FocuswithJustin/JuniperQuran/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// WebSocketConfig holds live search session limits.
type WebSocketConfig struct {
	// AllowedOrigins lists accepted Origin values. Entries may be "*" or
	// "*.example.com". Empty accepts every origin.
	AllowedOrigins []string

	// MaxMessageRate is the sustained number of queries per second per
	// session. Bursts of twice the rate are accepted.
	MaxMessageRate int

	// MaxMessageSize is the largest accepted query frame in bytes.
	MaxMessageSize int64
}

// DefaultWebSocketConfig returns the limits used when none are configured.
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		MaxMessageRate: 10,
		MaxMessageSize: 4096,
	}
}

// Session is one live search connection. Every text frame received is a
// query; every frame sent is a SearchResponse.
type Session struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	bucket *tokenBucket

	mu      sync.Mutex
	closed  bool
	queries int
}

// Hub tracks open sessions so they can be counted and closed together.
type Hub struct {
	sessions   map[*Session]bool
	register   chan *Session
	unregister chan *Session
	stop       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

// NewHub creates a hub. Run must be started before sessions register.
func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[*Session]bool),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run handles registration until Stop is called, then closes every session.
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case s := <-h.register:
			h.mu.Lock()
			h.sessions[s] = true
			n := len(h.sessions)
			h.mu.Unlock()
			logging.WebSocketEvent("session_opened", s.id, "sessions", n)

		case s := <-h.unregister:
			h.mu.Lock()
			if h.sessions[s] {
				delete(h.sessions, s)
				s.closeSend()
			}
			n := len(h.sessions)
			h.mu.Unlock()
			logging.WebSocketEvent("session_closed", s.id, "sessions", n, "queries", s.queryCount())

		case <-h.stop:
			h.mu.Lock()
			for s := range h.sessions {
				delete(h.sessions, s)
				s.closeSend()
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop ends Run and closes all sessions. It is safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

// Count returns the number of registered sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) add(s *Session) bool {
	select {
	case h.register <- s:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

func (s *Session) closeSend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.send)
	}
}

// enqueue drops the message when the session is closed or its buffer is
// full; the client only cares about the reply to its latest query.
func (s *Session) enqueue(msg []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.send <- msg:
		return true
	default:
		return false
	}
}

func (s *Session) queryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries
}

// isOriginAllowed supports exact matches, "*" and "*.domain" patterns.
func isOriginAllowed(origin string, allowedOrigins []string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
		if strings.HasPrefix(allowed, "*.") && strings.HasSuffix(origin, allowed[1:]) {
			return true
		}
	}
	return false
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.WebSocket.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if !isOriginAllowed(origin, s.cfg.WebSocket.AllowedOrigins) {
		logging.SecurityEvent("websocket_origin_rejected", "api", "origin", origin)
		return false
	}
	return true
}

func (s *Server) handleLiveSearch(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response.
		logging.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	rate := float64(s.cfg.WebSocket.MaxMessageRate)
	sess := &Session{
		id:     uuid.NewString(),
		hub:    s.hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		bucket: newTokenBucket(rate*2, rate),
	}
	if !s.hub.add(sess) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go sess.writePump()
	go sess.readPump(s)
}

// readPump runs one search per text frame.
func (sess *Session) readPump(s *Server) {
	defer func() {
		sess.hub.remove(sess)
		sess.conn.Close()
	}()

	sess.conn.SetReadLimit(s.cfg.WebSocket.MaxMessageSize)
	sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	sess.conn.SetPongHandler(func(string) error {
		sess.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	ctx := logging.WithRequestID(context.Background(), sess.id)
	for {
		msgType, data, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logging.WebSocketEvent("session_error", sess.id, "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		sess.conn.SetReadDeadline(time.Now().Add(pongWait))

		var resp SearchResponse
		if sess.bucket.allow() {
			sess.mu.Lock()
			sess.queries++
			sess.mu.Unlock()
			if resp, err = s.search(ctx, "websocket", string(data), s.cfg.SearchLimit); err != nil {
				resp = SearchResponse{Query: string(data), Results: []Verse{}, Error: err.Error()}
			}
		} else {
			resp = SearchResponse{Query: string(data), Results: []Verse{}, Error: "rate limit exceeded"}
		}

		out, err := json.Marshal(resp)
		if err != nil {
			logging.Error("failed to marshal search reply", "error", err)
			continue
		}
		sess.enqueue(out)
	}
}

// writePump sends replies and keepalive pings. It owns all writes to conn.
func (sess *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sess.conn.Close()
	}()

	for {
		select {
		case message, ok := <-sess.send:
			sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				sess.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sess.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sess.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
