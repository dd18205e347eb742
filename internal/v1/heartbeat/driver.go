// Package heartbeat runs the ticking driver that keeps every room's sync
// state broadcasting and reaps empty rooms, grounded directly on the
// original implementation's sync_engine.heartbeat_loop: iterate a snapshot
// of rooms, call heartbeat on each (swallowing per-room errors so one
// room's failure can't stall the rest), then sweep for empty rooms, sleep,
// repeat. Adapted to Go as a cancellable ticker goroutine (spec.md §5
// "The heartbeat driver is cancellable at process shutdown").
package heartbeat

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tossemideia/synctube/internal/v1/logging"
	"github.com/tossemideia/synctube/internal/v1/room"
)

// RoomLister is the subset of the room registry the driver needs.
type RoomLister interface {
	List() []*room.Room
	CleanupEmptyRooms()
}

// Driver ticks rooms' heartbeats and reaps empty ones.
type Driver struct {
	rooms    RoomLister
	interval time.Duration
}

// New builds a Driver. interval is HEARTBEAT_INTERVAL (default 1s).
func New(rooms RoomLister, interval time.Duration) *Driver {
	return &Driver{rooms: rooms, interval: interval}
}

// Run blocks ticking at d.interval until ctx is cancelled.
func (d *Driver) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

func (d *Driver) tick(ctx context.Context) {
	for _, r := range d.rooms.List() {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					logging.Error(ctx, "heartbeat panic recovered", zap.String("room_id", string(r.ID())), zap.Any("panic", rec))
				}
			}()
			r.Heartbeat()
		}()
	}
	d.rooms.CleanupEmptyRooms()
}
