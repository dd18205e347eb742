package room

import (
	"time"

	"github.com/tossemideia/synctube/internal/v1/model"
)

// GetFullState builds the one-time room_state snapshot sent to a freshly
// joined or reconnecting client (spec.md §4.6).
func (r *Room) GetFullState(userID model.UserID) (RoomStatePayload, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return RoomStatePayload{}, false
	}

	now := time.Now()
	sync := r.sync
	sync.Timestamp = r.sync.Extrapolate(now)

	return RoomStatePayload{
		Users:       snapshotUsers(r.users),
		Queue:       append([]model.Video(nil), r.queue...),
		Sync:        SyncPayload{Sync: sync, ServerTime: nowUnix()},
		Settings:    r.settings,
		ChatHistory: append([]model.ChatMessage(nil), r.chatHistory...),
		YourUserID:  userID,
		YourRole:    u.Role,
		ServerTime:  nowUnix(),
	}, true
}

// HostName returns the current host's display name, or "" if the room has
// no host (e.g. the room was just created and has no users yet).
func (r *Room) HostName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Role == model.RoleHost {
			return u.DisplayName
		}
	}
	return ""
}

// CurrentVideo returns the currently playing video, or false if nothing is
// queued for playback.
func (r *Room) CurrentVideo() (model.Video, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sync.CurrentVideoID == nil {
		return model.Video{}, false
	}
	for _, v := range r.queue {
		if v.VideoID == *r.sync.CurrentVideoID {
			return v, true
		}
	}
	return model.Video{}, false
}

func snapshotUsers(users map[model.UserID]*model.User) []model.User {
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		out = append(out, *u)
	}
	return out
}

// Heartbeat broadcasts an extrapolated sync frame if the room has at least
// one live connection; otherwise it is a no-op (spec.md §4.6).
func (r *Room) Heartbeat() {
	r.mu.Lock()
	if r.conn.Count() == 0 {
		r.mu.Unlock()
		return
	}
	sync := r.sync
	sync.Timestamp = r.sync.Extrapolate(time.Now())
	r.mu.Unlock()

	r.conn.Broadcast(FrameSync, SyncPayload{Sync: sync, ServerTime: nowUnix()}, "")
}
