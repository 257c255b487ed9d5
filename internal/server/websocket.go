package server

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/smartap-lifecycle/internal/deviceconfig"
	"github.com/muurk/smartap-lifecycle/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// Messages queued per client before new ones are dropped
	clientBuffer = 32
)

// client is one websocket subscriber of the event stream.
type client struct {
	id   string
	conn *websocket.Conn
	send chan *deviceconfig.EventMessage
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// hub fans events out to connected websocket clients. Slow clients lose
// messages rather than stall the notification dispatch.
type hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	seq     atomic.Uint64
	closed  bool
}

func newHub() *hub {
	return &hub{clients: make(map[string]*client)}
}

func (h *hub) add(conn *websocket.Conn) *client {
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan *deviceconfig.EventMessage, clientBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		c.close()
		return c
	}
	h.clients[c.id] = c
	return c
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		c.close()
	}
}

// publish stamps msg with the next sequence number and queues it for every
// client.
func (h *hub) publish(msg deviceconfig.EventMessage) {
	msg.Seq = h.seq.Add(1)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		m := msg
		select {
		case c.send <- &m:
		default:
			logging.Debug("Dropping event for slow client", zap.String("client", c.id), zap.String("kind", msg.Kind))
		}
	}
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// shutdown disconnects every client and refuses new ones.
func (h *hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, c := range h.clients {
		delete(h.clients, id)
		c.close()
	}
}

// writePump sends queued events and keepalive pings until the queue closes
// or a write fails.
func (c *client) writePump(remoteAddr string) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		logging.LogConnection(remoteAddr, "websocket_closed")
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				logging.Info("Event stream write failed", zap.String("remote_addr", remoteAddr), zap.Error(err))
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

// readPump consumes control frames so pongs and the peer's close are seen.
// It returns when the peer goes away.
func (c *client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
