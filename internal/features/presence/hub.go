package presence

import (
	"sync"

	"go.uber.org/zap"
)

// RosterWriter is the slice of the websocket connection the hub needs for
// pushing snapshots.
type RosterWriter interface {
	WriteJSON(v interface{}) error
}

// RosterMessage is the frame written to every connected client whenever the
// membership changes.
type RosterMessage struct {
	Type string `json:"type"`
	Data Roster `json:"data"`
}

type client struct {
	user Identity
	conn RosterWriter
}

// Hub is the single owner of the presence registry. Joins and leaves mutate
// the registry and rebroadcast the fresh roster while holding the lock, so
// concurrent connects/disconnects interleave only at whole-operation
// granularity and no partial roster is ever written out.
type Hub struct {
	mu      sync.Mutex
	reg     *memoryRegistry
	clients map[string]*client
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		reg:     newMemoryRegistry(),
		clients: make(map[string]*client),
		logger:  logger,
	}
}

// Join registers the connection and pushes the updated roster to everyone.
func (h *Hub) Join(connID string, user Identity, conn RosterWriter) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.reg.Add(connID, user)
	h.clients[connID] = &client{user: user, conn: conn}

	h.logger.Info("presence: user connected",
		zap.String("user", user.Name),
		zap.String("role", user.Role),
	)

	h.broadcastLocked()
}

// Leave removes the connection and pushes the updated roster to everyone.
func (h *Hub) Leave(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[connID]
	if !ok {
		return
	}

	h.reg.Remove(connID)
	delete(h.clients, connID)

	h.logger.Info("presence: user disconnected",
		zap.String("user", c.user.Name),
	)

	h.broadcastLocked()
}

// Snapshot returns the current roster without broadcasting.
func (h *Hub) Snapshot() Roster {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reg.Snapshot()
}

// Online reports the number of registered connections.
func (h *Hub) Online() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcastLocked() {
	msg := RosterMessage{
		Type: "onlineUsers",
		Data: h.reg.Snapshot(),
	}

	for connID, c := range h.clients {
		if err := c.conn.WriteJSON(msg); err != nil {
			// The read loop will observe the dead connection and call Leave;
			// here we only log.
			h.logger.Warn("presence: broadcast failed",
				zap.String("conn_id", connID),
				zap.Error(err),
			)
		}
	}
}
