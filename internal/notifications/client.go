package notifications

import (
	"log"
	"time"

	"exon/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// writeWait bounds a single outbound write.
	writeWait = 10 * time.Second

	// pongWait is how long the read side tolerates silence from the peer.
	// Pings go out every pingPeriod, which must stay below it.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize caps inbound frames.
	maxMessageSize = 16384
)

// WSHub is implemented by hubs that own client registration.
type WSHub interface {
	UnregisterClient(c *Client)
	Name() string
}

// Client couples one websocket connection to its hub. Outbound delivery is
// buffered; a full buffer drops the frame instead of blocking the hub.
type Client struct {
	Hub  WSHub
	Conn *websocket.Conn

	// Send buffers outbound frames for WritePump.
	Send chan []byte

	UserID string

	// IncomingHandler, when set, receives every frame the peer sends.
	IncomingHandler func(*Client, []byte)
}

// NewClient creates a new Client instance
func NewClient(hub WSHub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, 256),
	}
}

// ReadPump consumes inbound frames until the peer goes away, refreshing the
// read deadline on every pong. The client unregisters itself on exit.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket read for user %s ended: %v", c.UserID, err)
			}
			return
		}

		if c.IncomingHandler != nil {
			c.IncomingHandler(c, message)
		}
	}
}

// WritePump drains Send onto the wire and keeps the connection alive with
// periodic pings. A closed Send channel ends the connection cleanly.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues a frame without blocking. When the buffer is full the frame
// is dropped, counted, and a gap notice is queued so the client can re-fetch.
func (c *Client) TrySend(message []byte) {
	defer func() {
		if r := recover(); r != nil {
			observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "closed").Inc()
		}
	}()

	select {
	case c.Send <- message:
	default:
		observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "full").Inc()
		log.Printf("dropping frame for user %s on %s: send buffer full", c.UserID, c.Hub.Name())

		dropNotice := []byte(`{"event":"messages-dropped","data":{"reason":"buffer_full"}}`)
		select {
		case c.Send <- dropNotice:
		default:
		}
	}
}
