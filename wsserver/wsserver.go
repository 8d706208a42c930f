package wsserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AbhinavBM/Centralized-Firewall-sub000/logger"
)

// Event is the envelope broadcast to connected admin consoles.
type Event struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub fans events out to every connected websocket client. Handlers hold it
// behind a small Publisher interface so tests can swap in a recorder.
type Hub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]bool
	upgrader websocket.Upgrader
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Session auth happens before the upgrade; cross-origin consoles
			// are expected.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handle upgrades an HTTP request onto the hub and keeps the connection
// registered until the client goes away.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed: %v", err)
		return
	}

	// The welcome write happens before the connection is registered. Once a
	// connection is in h.clients, only Broadcast (under h.mu) may write to
	// it; the websocket package allows a single writer per connection.
	if err := conn.WriteJSON(Event{
		Type:      "connection",
		Payload:   map[string]string{"message": "Connected to firewall center"},
		Timestamp: time.Now(),
	}); err != nil {
		conn.Close()
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	count := len(h.clients)
	h.mu.Unlock()
	logger.Info("WebSocket client connected (%d connected)", count)

	// Drain the connection; the read loop ends when the client disconnects.
	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// Broadcast sends an event to every connected client. Clients that fail to
// accept the write are dropped.
func (h *Hub) Broadcast(eventType string, payload interface{}) {
	event := Event{Type: eventType, Payload: payload, Timestamp: time.Now()}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(event); err != nil {
			logger.Warn("Dropping websocket client: %v", err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
