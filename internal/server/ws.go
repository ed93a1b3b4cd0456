package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jedawel/lenssafe/internal/monitor"
	"github.com/jedawel/lenssafe/internal/rubbing"
)

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Event is one message pushed to websocket clients.
type Event struct {
	Type   string              `json:"type"`
	Alert  *rubbing.AlertEvent `json:"alert,omitempty"`
	Status *monitor.Status     `json:"status,omitempty"`
}

// Event types.
const (
	EventAlert  = "alert"
	EventStatus = "status"
)

// Hub pushes alert events and periodic status snapshots to websocket clients.
// It is also an alert dispatcher.
type Hub struct {
	logger  *zap.Logger
	clients map[*websocket.Conn]*sync.Mutex
	mu      sync.RWMutex
}

// NewHub creates an empty Hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:  logger.Named("hub"),
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade error", zap.Error(err))
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = &sync.Mutex{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dispatch broadcasts an alert event.
func (h *Hub) Dispatch(_ context.Context, ev rubbing.AlertEvent) error {
	h.broadcast(Event{Type: EventAlert, Alert: &ev})
	return nil
}

// Run broadcasts status every interval until ctx is done.
func (h *Hub) Run(ctx context.Context, status func() monitor.Status, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if h.Clients() == 0 {
				continue
			}
			s := status()
			h.broadcast(Event{Type: EventStatus, Status: &s})
		}
	}
}

// broadcast writes ev to every client. Clients that fail the write are
// closed; their read loop then unregisters them.
func (h *Hub) broadcast(ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("failed to encode event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn, wmu := range h.clients {
		wmu.Lock()
		err := conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err == nil {
			err = conn.WriteMessage(websocket.TextMessage, msg)
		}
		wmu.Unlock()
		if err != nil {
			h.logger.Debug("dropping websocket client", zap.Error(err))
			conn.Close()
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.clients {
		conn.Close()
	}
}
