// Package transport implements the per-connection socket session: the join
// handshake, read/write pumps, and the ConnectionRegistry the Room core
// publishes frames through. Grounded on the teacher's session.Client
// (backend/go/internal/v1/session/client.go): a wsConnection abstraction, a
// buffered send channel, and twin readPump/writePump goroutines — adapted
// from binary protobuf framing to JSON, since this protocol has no SFU
// signalling payload to keep compact.
package transport

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tossemideia/synctube/internal/v1/metrics"
	"github.com/tossemideia/synctube/internal/v1/model"
)

const writeWait = 10 * time.Second

// wsConnection is the minimal surface transport needs from a socket,
// satisfied by *websocket.Conn in production and a mock in tests.
type wsConnection interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
	SetWriteDeadline(t time.Time) error
}

// Envelope is the wire format for every server->client frame: a type tag
// plus its JSON-encoded payload, mirroring the bus package's pub/sub
// envelope (backend/go/internal/v1/bus/redis.go's PubSubPayload).
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Client is one user's live socket session within a single room.
type Client struct {
	conn   wsConnection
	send   chan []byte
	UserID model.UserID
	RoomID model.RoomID
}

func newClient(conn wsConnection, userID model.UserID, roomID model.RoomID) *Client {
	return &Client{
		conn:   conn,
		send:   make(chan []byte, 256),
		UserID: userID,
		RoomID: roomID,
	}
}

// enqueue frames an outbound message and queues it for writePump, dropping
// it rather than blocking if the client's buffer is full.
func (c *Client) enqueue(frameType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	raw, err := json.Marshal(Envelope{Type: frameType, Payload: data})
	if err != nil {
		return
	}
	select {
	case c.send <- raw:
	default:
	}
}

// writePump drains the send channel onto the socket. Exits (and closes the
// connection) when the channel is closed by the owning registry on cleanup.
func (c *Client) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump reads frames off the socket and forwards each to handle, until
// the connection errors or closes, then runs onClose exactly once.
func (c *Client) readPump(handle func(raw []byte), onClose func()) {
	defer func() {
		onClose()
		c.conn.Close()
		metrics.DecConnection()
	}()

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		handle(data)
	}
}
