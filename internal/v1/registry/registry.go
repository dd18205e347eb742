// Package registry holds the process-wide map of active rooms: creation,
// lookup, and reaping of empty ones. Grounded on the teacher's session.Hub
// (backend/go/internal/v1/session/hub.go), which holds an equivalent
// map[RoomIdType]*Room guarded by a mutex and reaps on a grace period.
package registry

import (
	"sync"
	"time"

	"github.com/tossemideia/synctube/internal/v1/idgen"
	"github.com/tossemideia/synctube/internal/v1/metrics"
	"github.com/tossemideia/synctube/internal/v1/model"
	"github.com/tossemideia/synctube/internal/v1/room"
)

// reapGracePeriod delays reaping a just-created room to avoid a race with
// its first join (spec.md §3 "Lifecycles").
const reapGracePeriod = 30 * time.Second

// Registry is the process-wide room directory.
type Registry struct {
	mu    sync.Mutex
	rooms map[model.RoomID]*room.Room

	oracle room.MetadataOracle
	newConn func(model.RoomID) room.ConnectionRegistry
	cfg     room.Config
}

// New constructs an empty Registry. newConn mints a fresh ConnectionRegistry
// for each created room (transport.NewRegistry in the wired server).
func New(oracle room.MetadataOracle, newConn func(model.RoomID) room.ConnectionRegistry, cfg room.Config) *Registry {
	return &Registry{
		rooms:   make(map[model.RoomID]*room.Room),
		oracle:  oracle,
		newConn: newConn,
		cfg:     cfg,
	}
}

// CreateRoom allocates a fresh Room with a collision-free id.
func (reg *Registry) CreateRoom() *room.Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	id := idgen.GenerateRoomID()
	for {
		if _, exists := reg.rooms[id]; !exists {
			break
		}
		id = idgen.GenerateRoomID()
	}
	r := room.New(id, reg.oracle, reg.newConn(id), reg.cfg)
	reg.rooms[id] = r
	metrics.ActiveRooms.Inc()
	return r
}

// GetRoom returns the Room for id, or nil if none exists.
func (reg *Registry) GetRoom(id model.RoomID) *room.Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.rooms[id]
}

// Count returns the number of currently tracked rooms, satisfying the
// health package's RoomLister interface.
func (reg *Registry) Count() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

// List returns a snapshot of all tracked rooms.
func (reg *Registry) List() []*room.Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	out := make([]*room.Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		out = append(out, r)
	}
	return out
}

// CleanupEmptyRooms removes every room that has no live connections, no
// queued videos, and is older than the reap grace period (spec.md §4.7).
// Keys are snapshotted before iteration so reaping never mutates the map
// mid-range (spec.md §5 "Shared resources").
func (reg *Registry) CleanupEmptyRooms() {
	reg.mu.Lock()
	ids := make([]model.RoomID, 0, len(reg.rooms))
	for id := range reg.rooms {
		ids = append(ids, id)
	}
	reg.mu.Unlock()

	for _, id := range ids {
		reg.mu.Lock()
		r, ok := reg.rooms[id]
		if !ok {
			reg.mu.Unlock()
			continue
		}
		if r.IsEmpty() && time.Since(r.CreatedAt()) > reapGracePeriod {
			delete(reg.rooms, id)
			metrics.ActiveRooms.Dec()
			metrics.RoomParticipants.DeleteLabelValues(string(id))
			metrics.QueueLength.DeleteLabelValues(string(id))
		}
		reg.mu.Unlock()
	}
}
