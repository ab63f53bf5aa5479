package bridge

import (
	"sync"
	"sync/atomic"

	"github.com/user/replay/pkg/ports"
)

// sendBufferSize is the per-client queue depth. At 25fps a full queue
// is under a second of video, so a stalled viewer never holds more
// than that before frames start dropping.
const sendBufferSize = 16

// message is one websocket payload queued for delivery.
type message struct {
	kind int // websocket.TextMessage or websocket.BinaryMessage
	data []byte
}

// Stats counts hub traffic since startup.
type Stats struct {
	// Published is the number of broadcast calls.
	Published uint64
	// Sent is the number of messages written to sockets.
	Sent uint64
	// Dropped is the number of messages discarded from full client
	// queues.
	Dropped uint64
	// Clients is the number of currently connected viewers.
	Clients int
}

// Hub tracks connected viewers and fans broadcast messages out to
// them. Each client has a buffered queue; when a queue is full the
// oldest entry is discarded to make room, so a slow viewer falls
// behind the stream instead of stalling it.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	log     ports.Logger

	published uint64
	sent      uint64
	dropped   uint64
}

func newHub(log ports.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		log:     log,
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	count := len(h.clients)
	h.mu.Unlock()
	h.log.Info("Viewer %s connected (%d online)", c.shortID(), count)
}

// remove detaches a client and closes its queue, which ends the write
// pump. Safe to call more than once for the same id.
func (h *Hub) remove(id string) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
		close(c.send)
	}
	count := len(h.clients)
	h.mu.Unlock()
	if ok {
		if n := atomic.LoadUint64(&c.dropped); n > 0 {
			h.log.Debug("Dropped %d updates for viewer %s", n, c.shortID())
		}
		h.log.Info("Viewer %s disconnected (%d online)", c.shortID(), count)
	}
}

// broadcast queues msg for every connected client. Full queues shed
// their oldest entry first; if the retry still fails the new message
// is dropped instead. Never blocks.
func (h *Hub) broadcast(msg message) {
	atomic.AddUint64(&h.published, 1)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// shed the oldest queued message to make room
			select {
			case <-c.send:
				atomic.AddUint64(&c.dropped, 1)
				atomic.AddUint64(&h.dropped, 1)
			default:
			}
			select {
			case c.send <- msg:
			default:
				atomic.AddUint64(&c.dropped, 1)
				atomic.AddUint64(&h.dropped, 1)
			}
		}
	}
}

// sendTo queues msg for a single client, with the same shedding policy
// as broadcast.
func (h *Hub) sendTo(id string, msg message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.clients[id]
	if !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
		select {
		case <-c.send:
			atomic.AddUint64(&c.dropped, 1)
			atomic.AddUint64(&h.dropped, 1)
		default:
		}
		select {
		case c.send <- msg:
		default:
			atomic.AddUint64(&c.dropped, 1)
			atomic.AddUint64(&h.dropped, 1)
		}
	}
}

func (h *Hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// closeAll disconnects every viewer. Used on shutdown.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
		c.conn.Close()
	}
}

func (h *Hub) stats() Stats {
	return Stats{
		Published: atomic.LoadUint64(&h.published),
		Sent:      atomic.LoadUint64(&h.sent),
		Dropped:   atomic.LoadUint64(&h.dropped),
		Clients:   h.clientCount(),
	}
}
