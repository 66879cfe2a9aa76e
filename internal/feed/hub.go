// Package feed streams engine events to admin dashboards over WebSocket.
// Clients see turns and blocks as they happen instead of polling the
// report store.
package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/decoyline/scam-honeypot/internal/conversation"
	"github.com/decoyline/scam-honeypot/pkg/logging"
)

var normalCloseCodes = []int{
	websocket.CloseNormalClosure,
	websocket.CloseGoingAway,
	websocket.CloseNoStatusReceived,
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		host := r.Host
		return origin == "http://"+host || origin == "https://"+host
	},
}

// Subscription narrows which events a client receives. The zero value
// (sent by clients as a JSON frame) means everything.
type Subscription struct {
	BlockedOnly  bool   `json:"blockedOnly"`
	MinRiskScore int    `json:"minRiskScore"`
	RiskLevel    string `json:"riskLevel"`
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	mu   sync.RWMutex
	sub  Subscription
}

const maxClients = 1024

// Hub fans engine events out to connected WebSocket clients. It
// implements conversation.EventSink so the engine never blocks on a
// slow dashboard.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan conversation.Event
	register   chan *client
	unregister chan *client
	mu         sync.RWMutex
	logger     *logging.Logger
	done       chan struct{}

	totalEvents atomic.Int64
}

// NewHub creates a feed hub. Run must be started before clients connect.
func NewHub(logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan conversation.Event, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Publish satisfies conversation.EventSink. Drops the event if the
// broadcast buffer is full rather than stalling the engine.
func (h *Hub) Publish(event conversation.Event) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("feed broadcast buffer full, dropping event",
			"conversation_id", event.ConversationID)
	}
}

// Run owns the client set. Returns when ctx is cancelled, after closing
// every client connection.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("feed hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			h.logger.Info("feed hub stopped")
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("feed client connected", "total", n)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("feed client disconnected", "total", n)

		case event := <-h.broadcast:
			h.totalEvents.Add(1)
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			h.mu.RLock()
			var slow []*client
			for c := range h.clients {
				if !c.wants(event) {
					continue
				}
				select {
				case c.send <- payload:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.RUnlock()
			if len(slow) > 0 {
				h.mu.Lock()
				for _, c := range slow {
					if _, ok := h.clients[c]; ok {
						close(c.send)
						delete(h.clients, c)
					}
				}
				h.mu.Unlock()
			}
		}
	}
}

// Stats reports hub counters for the admin dashboard.
func (h *Hub) Stats() map[string]any {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return map[string]any{
		"connectedClients": len(h.clients),
		"totalEvents":      h.totalEvents.Load(),
	}
}

func (c *client) wants(event conversation.Event) bool {
	c.mu.RLock()
	sub := c.sub
	c.mu.RUnlock()

	if sub.BlockedOnly && !event.Blocked {
		return false
	}
	if sub.MinRiskScore > 0 && event.RiskScore < sub.MinRiskScore {
		return false
	}
	if sub.RiskLevel != "" && event.RiskLevel != sub.RiskLevel {
		return false
	}
	return true
}

// HandleWebSocket upgrades the request and attaches the client to the hub.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	select {
	case <-h.done:
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	h.mu.RLock()
	n := len(h.clients)
	h.mu.RUnlock()
	if n >= maxClients {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, 64)}
	if !h.attach(c) {
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// attach hands the client to Run. Returns false when the hub has already
// stopped, so the handler never blocks on a dead run loop.
func (h *Hub) attach(c *client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// detach mirrors attach for disconnects. After shutdown Run has already
// closed every client, so there is nothing left to hand over.
func (h *Hub) detach(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// readPump consumes subscription frames until the client disconnects.
func (c *client) readPump() {
	defer func() {
		c.hub.detach(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(4 * 1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, normalCloseCodes...) {
				c.hub.logger.Warn("websocket read error", "error", err)
			}
			break
		}

		var sub Subscription
		if err := json.Unmarshal(message, &sub); err == nil {
			c.mu.Lock()
			c.sub = sub
			c.mu.Unlock()
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
