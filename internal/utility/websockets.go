package utility

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow CORS for development
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one socket. Writes are serialized because replies and pushed events
// come from different goroutines.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{conn: conn}
}

// WriteJSON sends v as one text frame.
func (cl *Client) WriteJSON(v any) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.conn.WriteJSON(v)
}

// Conn exposes the socket for reading.
func (cl *Client) Conn() *websocket.Conn {
	return cl.conn
}

// Hub holds the open sockets of each planner session. A session may have several.
type Hub struct {
	mu      sync.Mutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*Client]struct{})}
}

// Register a new client connection
func (h *Hub) Register(sessionID string, cl *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[sessionID] == nil {
		h.clients[sessionID] = make(map[*Client]struct{})
	}
	h.clients[sessionID][cl] = struct{}{}
	log.Info().Str("session_id", sessionID).Msg("WebSocket Client Connected")
}

// Unregister a client (when the socket closes)
func (h *Hub) Unregister(sessionID string, cl *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[sessionID]
	if !ok {
		return
	}
	if _, ok := set[cl]; ok {
		delete(set, cl)
		log.Info().Str("session_id", sessionID).Msg("WebSocket Client Disconnected")
	}
	if len(set) == 0 {
		delete(h.clients, sessionID)
	}
}

// Count returns the number of open sockets of a session.
func (h *Hub) Count(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[sessionID])
}

// Notify pushes event to every socket of the session. Sockets that fail the write
// are closed and dropped.
func (h *Hub) Notify(sessionID string, event any) {
	h.mu.Lock()
	targets := make([]*Client, 0, len(h.clients[sessionID]))
	for cl := range h.clients[sessionID] {
		targets = append(targets, cl)
	}
	h.mu.Unlock()

	for _, cl := range targets {
		if err := cl.WriteJSON(event); err != nil {
			log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to send WS message, removing client")
			cl.conn.Close()
			h.Unregister(sessionID, cl)
		}
	}
}
