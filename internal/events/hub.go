// Package events broadcasts lifecycle changes to connected websocket clients.
package events

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

// Event types emitted after a successful commit.
const (
	VersionCreated        = "version_created"
	VersionStatusUpdated  = "version_status_updated"
	RfqCreated            = "rfq_created"
	RfqTransitioned       = "rfq_transitioned"
	CommunicationRecorded = "communication_recorded"
	FollowUpCompleted     = "follow_up_completed"
	SkuChangeRecorded     = "sku_change_recorded"
	ResponseRecorded      = "response_recorded"
)

// Event is the payload broadcast to all connected clients.
type Event struct {
	Type   string `json:"type"`
	RfqID  uint   `json:"rfq_id,omitempty"`
	ID     any    `json:"id"`
	Action string `json:"action"`
	Status string `json:"status,omitempty"`
}

// Publisher receives lifecycle events. Implementations must not block the caller.
type Publisher interface {
	Publish(evt Event)
}

const (
	sendBuffer = 64
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// client is one connection with its outbound queue. Only the writer goroutine writes to conn.
type client struct {
	conn *ws.Conn
	send chan []byte
}

// Hub maintains connected clients and broadcasts events to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// unregister removes c once; its queue is closed so the writer exits.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	if ok && c.conn != nil {
		_ = c.conn.Close()
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish queues evt for every connected client. A client whose queue is full is dropped.
func (h *Hub) Publish(evt Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		slog.Error("ws: marshal event", "type", evt.Type, "error", err)
		return
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		slog.Warn("ws: dropping slow client", "type", evt.Type)
		h.unregister(c)
	}
}

var upgrader = ws.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// writePump drains the client's queue and keeps the connection alive with pings.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.unregister(c)
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(ws.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(ws.TextMessage, data); err != nil {
				slog.Debug("ws: write failed", "error", err)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(ws.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// Handler upgrades the connection and reads until the client leaves.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("ws: upgrade failed", "error", err)
			return
		}

		c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
		h.register(c)
		slog.Info("ws: client connected", "clients", h.ClientCount())
		go h.writePump(c)

		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		h.unregister(c)
		slog.Info("ws: client disconnected", "clients", h.ClientCount())
	}
}
