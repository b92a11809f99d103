package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"encore.app/pkg/config"
	"encore.app/pkg/logger"
	"encore.app/pkg/metrics"
)

// EventType names a platform event pushed to subscribers.
type EventType string

const (
	EventNewBid          EventType = "new-bid"
	EventNewAuction      EventType = "new-auction"
	EventBidPackPurchase EventType = "bidpack-purchase"
	EventNFTImported     EventType = "nft-imported"
	EventHeartbeat       EventType = "heartbeat"
)

// Frame is the wire format pushed to subscribers.
type Frame struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data"`
}

// client is one connected subscriber.
type client struct {
	id       string
	conn     *websocket.Conn
	lastSeen time.Time
	done     chan struct{}
	mu       sync.Mutex
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		id:       uuid.NewString(),
		conn:     conn,
		lastSeen: time.Now().UTC(),
		done:     make(chan struct{}),
	}
}

// touch records client liveness. lastSeen is written by the read pump
// and the hub's writer, so all access goes through c.mu.
func (c *client) touch() {
	c.mu.Lock()
	c.lastSeen = time.Now().UTC()
	c.mu.Unlock()
}

func (c *client) seen() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// Hub manages subscriber connections and broadcasts. Delivery is
// at-most-once per connected subscriber; there is no replay for clients
// that connect after an event fired.
type Hub struct {
	clients    map[string]*client
	register   chan *client
	unregister chan *client
	broadcast  chan *Frame
	mu         sync.RWMutex
}

// NewHub creates a hub and starts its run loop and heartbeat.
func NewHub() *Hub {
	h := &Hub{
		clients:    make(map[string]*client),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan *Frame, 64),
	}
	go h.run()
	go h.heartbeatLoop()
	return h
}

// Publish broadcasts a frame to all connected subscribers.
func (h *Hub) Publish(event EventType, data interface{}) {
	metrics.WSEventsTotal.WithLabelValues(string(event)).Inc()
	h.broadcast <- &Frame{Type: event, Data: data}
}

// Connections returns the current subscriber count.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.id] = c
			n := len(h.clients)
			h.mu.Unlock()
			metrics.WSConnections.Set(float64(n))
			logger.Debug(context.Background(), "ws client connected", logger.Fields{"client_id": c.id})

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c.id]; ok {
				delete(h.clients, c.id)
				close(c.done)
			}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.WSConnections.Set(float64(n))
			logger.Debug(context.Background(), "ws client disconnected", logger.Fields{"client_id": c.id})

		case frame := <-h.broadcast:
			h.mu.RLock()
			targets := make([]*client, 0, len(h.clients))
			for _, c := range h.clients {
				targets = append(targets, c)
			}
			h.mu.RUnlock()
			for _, c := range targets {
				h.send(c, frame)
			}
		}
	}
}

// send writes one frame to one client. A failed write marks the client
// for disconnection; the event is simply lost for that subscriber.
func (h *Hub) send(c *client, frame *Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := c.conn.WriteJSON(frame); err != nil {
		logger.Debug(context.Background(), "ws write failed, dropping client", logger.Fields{
			"client_id": c.id,
			"error":     err.Error(),
		})
		go func() { h.unregister <- c }()
		return
	}
	c.lastSeen = time.Now().UTC()
}

func (h *Hub) heartbeatLoop() {
	interval := time.Duration(config.Current().WSHeartbeatIntervalSecs) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		h.sendHeartbeat()
	}
}

func (h *Hub) sendHeartbeat() {
	frame := &Frame{
		Type: EventHeartbeat,
		Data: map[string]interface{}{"timestamp": time.Now().UTC().Unix()},
	}

	stale := 2 * time.Duration(config.Current().WSHeartbeatIntervalSecs) * time.Second

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if time.Since(c.seen()) > stale {
			go func(dead *client) { h.unregister <- dead }(c)
			continue
		}
		h.send(c, frame)
	}
}
