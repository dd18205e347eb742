package transport

import (
	"sync"

	"github.com/tossemideia/synctube/internal/v1/model"
	"github.com/tossemideia/synctube/internal/v1/room"
)

// Registry is a single room's live connection set. It implements
// room.ConnectionRegistry, the sole surface through which the room core
// reaches sockets (spec.md §1, §9: "the ConnectionRegistry exclusively owns
// each socket handle").
type Registry struct {
	mu      sync.Mutex
	clients map[model.UserID]*Client
}

// NewRegistry constructs an empty per-room Registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[model.UserID]*Client)}
}

func (reg *Registry) register(c *Client) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.clients[c.UserID] = c
}

// unregister removes the client for userID, closing its send
// channel so writePump exits. Safe to call more than once.
func (reg *Registry) unregister(userID model.UserID) {
	reg.mu.Lock()
	c, ok := reg.clients[userID]
	if ok {
		delete(reg.clients, userID)
	}
	reg.mu.Unlock()
	if ok {
		close(c.send)
	}
}

// Send delivers a frame to a single connected user. A no-op if that user has
// no live socket (e.g. disconnected but still within the reconnect window).
func (reg *Registry) Send(userID model.UserID, frameType string, payload any) {
	reg.mu.Lock()
	c, ok := reg.clients[userID]
	reg.mu.Unlock()
	if !ok {
		return
	}
	c.enqueue(frameType, payload)
}

// Broadcast delivers a frame to every connected user in the room except exclude.
func (reg *Registry) Broadcast(frameType string, payload any, exclude model.UserID) {
	reg.mu.Lock()
	targets := make([]*Client, 0, len(reg.clients))
	for id, c := range reg.clients {
		if id == exclude {
			continue
		}
		targets = append(targets, c)
	}
	reg.mu.Unlock()

	for _, c := range targets {
		c.enqueue(frameType, payload)
	}
}

// Count returns the number of currently connected sockets in this room.
func (reg *Registry) Count() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.clients)
}

var _ room.ConnectionRegistry = (*Registry)(nil)
