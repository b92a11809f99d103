package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"encore.app/pkg/config"
	"encore.app/pkg/logger"
)

var hub = NewHub()

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Browser clients connect from the marketplace frontend; origin
		// filtering happens at the edge.
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Subscribe upgrades the connection and streams platform events
// (new-bid, new-auction, bidpack-purchase, nft-imported) until the
// client disconnects.
//
//encore:api public raw method=GET path=/ws
func Subscribe(w http.ResponseWriter, req *http.Request) {
	if hub.Connections() >= config.Current().WSMaxConnections {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		logger.LogError(req.Context(), err, "websocket upgrade failed")
		return
	}
	defer conn.Close()

	c := newClient(conn)
	hub.register <- c

	hub.send(c, &Frame{
		Type: EventHeartbeat,
		Data: map[string]interface{}{"timestamp": time.Now().UTC().Unix()},
	})

	go readPump(c)

	select {
	case <-req.Context().Done():
		hub.unregister <- c
	case <-c.done:
	}
}

// readPump consumes client frames: pings refresh liveness, everything
// else is ignored.
func readPump(c *client) {
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		c.touch()
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug(context.Background(), "websocket read error", logger.Fields{"error": err.Error()})
			}
			break
		}

		c.touch()
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		switch messageType {
		case websocket.TextMessage:
			var msg struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(message, &msg); err == nil && msg.Type == "ping" {
				hub.send(c, &Frame{
					Type: EventHeartbeat,
					Data: map[string]interface{}{"type": "pong", "timestamp": time.Now().UTC().Unix()},
				})
			}
		case websocket.PingMessage:
			c.conn.WriteMessage(websocket.PongMessage, nil)
		}
	}

	hub.unregister <- c
}

// PublishRequest carries an event for broadcast.
type PublishRequest struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Publish broadcasts an event to all connected subscribers. Internal:
// called by the other services strictly after their transactions commit.
//
//encore:api private
func Publish(ctx context.Context, req *PublishRequest) error {
	hub.Publish(req.Event, req.Data)
	return nil
}
