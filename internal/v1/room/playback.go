package room

import (
	"time"

	"github.com/tossemideia/synctube/internal/v1/model"
)

// Play resumes playback from the current timestamp, preserving it.
func (r *Room) Play(userID model.UserID) (model.SyncState, error) {
	return r.mutatePlayback(userID, CodePlayFailed, func() {
		r.sync.IsPlaying = true
		r.sync.LastUpdated = time.Now()
	})
}

// Pause stops playback, adopting the caller's authoritative timestamp.
func (r *Room) Pause(userID model.UserID, clientTimestamp float64) (model.SyncState, error) {
	return r.mutatePlayback(userID, CodePauseFailed, func() {
		r.sync.IsPlaying = false
		r.sync.Timestamp = clientTimestamp
		r.sync.LastUpdated = time.Now()
	})
}

// Seek moves the playback position without changing play/pause state.
func (r *Room) Seek(userID model.UserID, clientTimestamp float64) (model.SyncState, error) {
	return r.mutatePlayback(userID, CodeSeekFailed, func() {
		r.sync.Timestamp = clientTimestamp
		r.sync.LastUpdated = time.Now()
	})
}

// mutatePlayback enforces the shared HOST-only / video-present preconditions
// for play/pause/seek (spec.md §4.2), applies mutate under the lock, and
// broadcasts the resulting sync outside it.
func (r *Room) mutatePlayback(userID model.UserID, failCode string, mutate func()) (model.SyncState, error) {
	r.mu.Lock()
	u, ok := r.users[userID]
	if !ok || u.Role != model.RoleHost {
		r.mu.Unlock()
		return model.SyncState{}, newErr(failCode, "only the host can control playback")
	}
	if r.sync.CurrentVideoID == nil {
		r.mu.Unlock()
		return model.SyncState{}, newErr(failCode, "no video playing")
	}
	mutate()
	snapshot := r.sync
	r.mu.Unlock()

	r.conn.Broadcast(FrameSync, SyncPayload{Sync: snapshot, ServerTime: nowUnix()}, "")
	return snapshot, nil
}
