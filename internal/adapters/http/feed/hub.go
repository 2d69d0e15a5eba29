// Package feed pushes rating activity to websocket subscribers.
//
// Every message is a JSON envelope {"type": ..., "data": ...}. Slow clients
// lose messages rather than holding up rating.
package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	service "github.com/okian/ladder/internal/app"
	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/pkg/logger"
	"github.com/okian/ladder/pkg/metrics"
)

// Message types.
const (
	TypeEventRated = "event_rated"
	TypeMatchRated = "match_rated"
)

const (
	sendBuffer   = 16
	writeTimeout = 10 * time.Second
)

// Envelope frames every message sent to subscribers.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks subscribers and fans messages out to them.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	logger   logger.Logger
}

// NewHub creates an empty hub.
func NewHub(l logger.Logger) *Hub {
	if l == nil {
		l = logger.Get().Named("feed")
	}
	return &Hub{
		clients:  make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 2048,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: l,
	}
}

// EventRated broadcasts a committed event report.
func (h *Hub) EventRated(_ context.Context, report service.EventReport) {
	h.Broadcast(TypeEventRated, report)
}

// MatchRated broadcasts a committed match.
func (h *Hub) MatchRated(_ context.Context, match model.Match) {
	h.Broadcast(TypeMatchRated, match)
}

// Broadcast sends v to every subscriber without blocking.
func (h *Hub) Broadcast(typ string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		metrics.RecordErrorByComponent("feed", "marshal")
		return
	}
	out, _ := json.Marshal(Envelope{Type: typ, Data: data}) // RawMessage is already valid JSON

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- out:
		default:
			metrics.RecordErrorByComponent("feed", "dropped")
		}
	}
}

// Subscribers returns the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams messages until the client
// goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go c.writer()
	c.reader()

	h.mu.Lock()
	delete(h.clients, c)
	close(c.send)
	h.mu.Unlock()
}

// reader discards inbound frames; it returns once the connection fails.
func (c *client) reader() {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writer() {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
