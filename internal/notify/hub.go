package notify

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Event is one notification pushed to connected dashboard clients
type Event struct {
	ID        string `json:"id"`
	Level     Level  `json:"level"`
	Message   string `json:"message"`
	Timestamp string `json:"ts"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard may be served from a different origin than this API
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub broadcasts notification events to WebSocket subscribers. A slow or
// dead subscriber is dropped rather than blocking the broadcast.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]chan Event
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]chan Event)}
}

// HandleWS upgrades the request and streams events until the client leaves
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("NOTIFY: WebSocket upgrade failed: %v", err)
		return
	}

	events := make(chan Event, 16)
	h.mu.Lock()
	h.conns[conn] = events
	h.mu.Unlock()
	log.Printf("NOTIFY: WebSocket subscriber connected (%d total)", h.subscriberCount())

	// Drain reads so close frames are processed
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.drop(conn)
				return
			}
		}
	}()

	for ev := range events {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(ev); err != nil {
			h.drop(conn)
			return
		}
	}
}

func (h *Hub) subscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	events, ok := h.conns[conn]
	if ok {
		delete(h.conns, conn)
		close(events)
	}
	h.mu.Unlock()
	conn.Close()
}

func (h *Hub) broadcast(level Level, message string) {
	ev := Event{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	h.mu.Lock()
	for conn, events := range h.conns {
		select {
		case events <- ev:
		default:
			// Subscriber is not keeping up
			go h.drop(conn)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) Success(message string) { h.broadcast(LevelSuccess, message) }
func (h *Hub) Info(message string)    { h.broadcast(LevelInfo, message) }
func (h *Hub) Error(message string)   { h.broadcast(LevelError, message) }
