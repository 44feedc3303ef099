package ws

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chat-sync-service/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Client is one identity's live connection. Outbound events are
// enqueued on a bounded channel and drained by the write pump, so a
// slow or dead recipient never stalls delivery to anyone else.
type Client struct {
	identity models.Identity
	info     ConnInfo
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
	stopOnce sync.Once
}

// NewClient wraps an upgraded connection. queueSize bounds the
// outbound buffer; on overflow the client is aborted rather than
// buffered without limit.
func NewClient(identity models.Identity, conn *websocket.Conn, info ConnInfo, queueSize int) *Client {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Client{
		identity: identity,
		info:     info,
		conn:     conn,
		send:     make(chan []byte, queueSize),
		done:     make(chan struct{}),
	}
}

// Identity returns the authenticated principal behind the connection.
func (c *Client) Identity() models.Identity {
	return c.identity
}

// Info returns the connection metadata.
func (c *Client) Info() ConnInfo {
	return c.info
}

// Enqueue queues a payload for the write pump without blocking and
// reports whether the queue accepted it.
func (c *Client) Enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Abort tears the connection down. It only closes the socket and
// signals the pumps; presence cleanup happens on the read-loop exit
// path so leave runs exactly once per connection.
func (c *Client) Abort() {
	c.stopOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// writePump drains the outbound queue onto the socket and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Abort()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("websocket write error user=%d: %v", c.identity.ID, err)
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
