// Package ws tracks live WebSocket connections and fans out task updates
// and user-targeted notifications to them. Delivery is best-effort: there
// is no confirmation, no retry, and no persistence of missed messages.
package ws

import (
	"log/slog"
	"sync"
)

// Conn is the minimal transport surface the hub writes to. Both
// *websocket.Conn and test fakes satisfy it.
type Conn interface {
	WriteJSON(v interface{}) error
}

// Dispatcher is the fan-out surface the request handlers depend on.
type Dispatcher interface {
	NotifyUser(userID int64, payload interface{})
	Broadcast(payload interface{})
}

// Broker is the full registry-plus-dispatch surface the transport layer
// depends on. *Hub implements it; tests may substitute a fake.
type Broker interface {
	Register(id string, conn Conn)
	Authenticate(id string, userID int64)
	Unregister(id string)
	Dispatcher
}

// client is one live connection. userID stays zero until the client
// completes the auth handshake; anonymous connections receive broadcasts
// only, never user-targeted messages.
type client struct {
	conn   Conn
	userID int64
}

// Hub owns the set of currently-open connections. It is the only owner:
// connection entries never leak into the store and die with the process.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	logger  *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[string]*client),
		logger:  logger,
	}
}

// Register adds an anonymous connection under the given id and immediately
// sends the welcome message.
func (h *Hub) Register(id string, conn Conn) {
	h.mu.Lock()
	h.clients[id] = &client{conn: conn}
	h.mu.Unlock()

	h.logger.Info("websocket connected", "connID", id)

	h.send(conn, Envelope{
		Type:    TypeWelcome,
		Message: "Connected to Taskboard WebSocket server",
	})
}

// Authenticate binds a user identity to a registered connection and
// acknowledges it. Re-authenticating simply overwrites the previous
// binding; clients do this when their session changes without reconnecting.
func (h *Hub) Authenticate(id string, userID int64) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		c.userID = userID
	}
	h.mu.Unlock()

	if !ok {
		return
	}

	h.logger.Info("websocket authenticated", "connID", id, "userID", userID)

	h.send(c.conn, Envelope{
		Type:    TypeAuthSuccess,
		Message: "Authentication successful",
	})
}

// Unregister removes a connection. Unknown ids are a no-op, so it is safe
// to call on transport errors regardless of registration state.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	_, ok := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()

	if ok {
		h.logger.Info("websocket disconnected", "connID", id)
	}
}

// NotifyUser sends a notification envelope to every connection bound to
// userID. Zero or unknown user ids are a no-op.
func (h *Hub) NotifyUser(userID int64, payload interface{}) {
	if userID == 0 {
		return
	}

	h.mu.RLock()
	conns := make([]Conn, 0, 2)
	for _, c := range h.clients {
		if c.userID == userID {
			conns = append(conns, c.conn)
		}
	}
	h.mu.RUnlock()

	env := Envelope{Type: TypeNotification, Data: payload}
	for _, conn := range conns {
		h.send(conn, env)
	}
}

// Broadcast sends a task_update envelope to every connection, bound or
// anonymous.
func (h *Hub) Broadcast(payload interface{}) {
	h.mu.RLock()
	conns := make([]Conn, 0, len(h.clients))
	for _, c := range h.clients {
		conns = append(conns, c.conn)
	}
	h.mu.RUnlock()

	env := Envelope{Type: TypeTaskUpdate, Data: payload}
	for _, conn := range conns {
		h.send(conn, env)
	}
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// UserConnCount returns how many connections are bound to userID.
func (h *Hub) UserConnCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, c := range h.clients {
		if c.userID == userID {
			n++
		}
	}
	return n
}

// send writes one envelope. A connection that is no longer writable is
// skipped; its read loop will observe the close and unregister it.
func (h *Hub) send(conn Conn, env Envelope) {
	if err := conn.WriteJSON(env); err != nil {
		h.logger.Warn("websocket write failed", "type", env.Type, "error", err)
	}
}
