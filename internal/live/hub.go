// Package live pushes the simulated feed and report events to websocket
// clients.
package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mr1hm/go-ocean-hazards/internal/feed"
	"github.com/mr1hm/go-ocean-hazards/internal/hotspot"
	"github.com/mr1hm/go-ocean-hazards/internal/models"
	"github.com/mr1hm/go-ocean-hazards/internal/observability"
	"github.com/mr1hm/go-ocean-hazards/internal/stream"
)

const (
	TypeSnapshot = "snapshot"
	TypeEvent    = "event"
)

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type Snapshot struct {
	Reports  []models.HazardReport `json:"reports"`
	Hotspots []models.Hotspot      `json:"hotspots"`
}

// NewSnapshot clusters the open reports of the given set.
func NewSnapshot(reports []models.HazardReport) Snapshot {
	return Snapshot{
		Reports:  reports,
		Hotspots: hotspot.Generate(hotspot.Open(reports)),
	}
}

// Hub keeps the set of connected clients. The feed is subscribed to only
// while at least one client is connected.
type Hub struct {
	feed        *feed.Feed
	broadcaster *stream.Broadcaster
	metrics     *observability.Metrics
	upgrader    websocket.Upgrader

	mu        sync.Mutex
	clients   map[*Client]struct{}
	unsubFeed func()
	closed    bool
}

func NewHub(f *feed.Feed, b *stream.Broadcaster, metrics *observability.Metrics) *Hub {
	return &Hub{
		feed:        f,
		broadcaster: b,
		metrics:     metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*Client]struct{}),
	}
}

// Run forwards broadcaster events to clients until ctx is done, then
// disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	if h.broadcaster == nil {
		<-ctx.Done()
		h.shutdown()
		return
	}

	id, events := h.broadcaster.Subscribe(nil)
	defer h.broadcaster.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case ev, ok := <-events:
			if !ok {
				h.shutdown()
				return
			}
			h.broadcast(Message{Type: TypeEvent, Payload: ev})
		}
	}
}

// ServeWS upgrades the request and sends the current snapshot first.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	if snap, err := encode(Message{Type: TypeSnapshot, Payload: NewSnapshot(h.feed.Snapshot())}); err == nil {
		c.send <- snap
	}
	if !h.add(c) {
		conn.Close()
		return
	}

	slog.Info("websocket client connected", "remote", conn.RemoteAddr().String())
	go c.writePump()
	go c.readPump()
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) add(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	if h.unsubFeed == nil {
		h.unsubFeed = h.feed.Subscribe(h.onFeed)
	}
	h.setGauge()
	return true
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

// removeLocked must be called with mu held.
func (h *Hub) removeLocked(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	if len(h.clients) == 0 && h.unsubFeed != nil {
		h.unsubFeed()
		h.unsubFeed = nil
	}
	h.setGauge()
	slog.Info("websocket client disconnected", "remote", c.conn.RemoteAddr().String())
}

func (h *Hub) onFeed(reports []models.HazardReport) {
	h.broadcast(Message{Type: TypeSnapshot, Payload: NewSnapshot(reports)})
}

func (h *Hub) broadcast(msg Message) {
	data, err := encode(msg)
	if err != nil {
		slog.Error("error encoding websocket message", "type", msg.Type, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slog.Warn("websocket client too slow, dropping", "remote", c.conn.RemoteAddr().String())
			h.removeLocked(c)
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) setGauge() {
	if h.metrics != nil {
		h.metrics.WebsocketClients.Set(float64(len(h.clients)))
	}
}

func encode(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
