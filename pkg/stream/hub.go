package stream

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/observe/pkg/middleware"
)

// MessageSnapshot is the event name of the first message each client gets.
const MessageSnapshot = "snapshot"

// Message is sent to WebSocket clients.
type Message struct {
	Event  string `json:"event"`
	Edits  any    `json:"edits,omitempty"`
	Values any    `json:"values,omitempty"`
}

// client is one WebSocket connection and its outgoing queue.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// hub tracks connected clients.
type hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[string]*client
	closed  bool
}

func newHub(logger *slog.Logger) *hub {
	return &hub{
		logger:  logger,
		clients: make(map[string]*client),
	}
}

// add registers c. It reports false once the hub is closed.
func (h *hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	return true
}

// remove unregisters c and closes its queue, ending its write loop.
func (h *hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	close(c.send)
}

// broadcast queues msg for every client without blocking. A client whose
// queue is full misses the message.
func (h *hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("encode stream message", "event", msg.Event, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			middleware.RecordMessageDropped()
			h.logger.Warn("client queue full, message dropped", "client", c.id, "event", msg.Event)
		}
	}
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// closeAll disconnects every client and rejects new ones.
func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
}

// handleWebSocket upgrades the connection, sends the snapshot and streams
// events until the client goes away.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		middleware.RecordWebSocketError("upgrade")
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, s.queueSize),
	}

	// Holding opMu keeps operations from landing between the snapshot and
	// registration.
	s.opMu.Lock()
	snapshot, err := json.Marshal(Message{Event: MessageSnapshot, Values: s.arr.Values()})
	if err == nil {
		c.send <- snapshot
	}
	ok := err == nil && s.hub.add(c)
	s.opMu.Unlock()

	if !ok {
		if err != nil {
			s.logger.Error("encode snapshot", "error", err)
		}
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			time.Now().Add(time.Second))
		conn.Close()
		return
	}

	middleware.RecordClientConnect()
	s.logger.Info("client connected", "client", c.id, "remote", r.RemoteAddr)

	go s.writeLoop(c)
	s.readLoop(c)

	s.hub.remove(c)
	middleware.RecordClientDisconnect()
	s.logger.Info("client disconnected", "client", c.id)
}

// readLoop discards incoming messages until the connection fails.
func (s *Server) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				middleware.RecordWebSocketError("read")
				s.logger.Debug("websocket read failed", "client", c.id, "error", err)
			}
			return
		}
	}
}

// writeLoop drains the client queue. When the queue is closed it sends a
// close frame; either way it closes the connection, which ends readLoop.
func (s *Server) writeLoop(c *client) {
	defer c.conn.Close()

	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			middleware.RecordWebSocketError("write")
			s.logger.Debug("websocket write failed", "client", c.id, "error", err)
			s.hub.remove(c)
			for range c.send {
			}
			return
		}
		middleware.RecordMessageSent()
	}

	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing"),
		time.Now().Add(time.Second))
}
