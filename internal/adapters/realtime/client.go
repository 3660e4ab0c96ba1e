package realtime

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/domain"
	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/ports"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 64
)

// controlMessage is the subscribe/unsubscribe frame clients send.
type controlMessage struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

// Client is one persistent realtime connection. Identity and permissions
// are fixed at upgrade time from the bearer credential; there is no
// re-authentication over the socket.
type Client struct {
	id     string
	claims ports.AuthClaims
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	// limiter bounds inbound control messages per connection; excess is
	// dropped rather than queued to bound memory.
	limiter *rate.Limiter
}

// NewClient wraps an upgraded websocket connection. The caller must
// Register it with the hub and start both pumps.
func NewClient(hub *Hub, conn *websocket.Conn, claims ports.AuthClaims, msgRate rate.Limit, burst int) *Client {
	return &Client{
		id:      uuid.NewString(),
		claims:  claims,
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		limiter: rate.NewLimiter(msgRate, burst),
	}
}

// ID returns the connection id used in logs.
func (c *Client) ID() string { return c.id }

// enqueue offers a frame to the write pump without ever blocking the
// publisher. A full buffer means the client is too slow; the frame is
// dropped and delivery stays at-most-once.
func (c *Client) enqueue(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// ReadPump consumes control messages until the connection dies, then
// detaches the client from the hub. Runs as the connection's reader
// goroutine; there must be only one.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Drop(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if !c.limiter.Allow() {
			continue
		}
		var msg controlMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		c.handleControl(msg)
	}
}

func (c *Client) handleControl(msg controlMessage) {
	topic, err := domain.ParseTopic(msg.Topic)
	if err != nil {
		return
	}
	switch msg.Action {
	case "subscribe":
		c.hub.Subscribe(c, topic)
	case "unsubscribe":
		c.hub.Unsubscribe(c, topic)
	}
}

// WritePump drains the send buffer and keeps the connection alive with
// pings. Runs as the connection's writer goroutine; there must be only
// one.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
