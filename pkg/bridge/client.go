package bridge

import (
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// client is one connected viewer.
type client struct {
	id      string
	conn    *websocket.Conn
	send    chan message
	dropped uint64
}

func newClient(id string, conn *websocket.Conn) *client {
	return &client{
		id:   id,
		conn: conn,
		send: make(chan message, sendBufferSize),
	}
}

// shortID returns the first uuid group, enough to tell viewers apart
// in logs.
func (c *client) shortID() string {
	if len(c.id) > 8 {
		return c.id[:8]
	}
	return c.id
}

// writePump drains the send queue onto the socket. It exits when the
// queue is closed by Hub.remove or when a write fails, closing the
// connection either way so the read loop unblocks too.
func (c *client) writePump(h *Hub) {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(msg.kind, msg.data); err != nil {
			return
		}
		atomic.AddUint64(&h.sent, 1)
	}
}
