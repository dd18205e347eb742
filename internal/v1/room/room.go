// Package room implements the per-room coordination core: user lifecycle,
// queue CRUD, playback transport, skip voting, chat, host transfer, and
// periodic synchronization — the stateful hub described in spec.md §3-4.
//
// Grounded on the teacher's session.Room (backend/go/internal/v1/session/room.go):
// a single struct guarded by one mutex, a router-style dispatch entry point,
// and broadcast-with-exclude semantics, adapted from a WebRTC signalling
// room to a video-queue coordination room.
package room

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tossemideia/synctube/internal/v1/idgen"
	"github.com/tossemideia/synctube/internal/v1/logging"
	"github.com/tossemideia/synctube/internal/v1/metrics"
	"github.com/tossemideia/synctube/internal/v1/model"
)

// Config carries the tunable constants documented in spec.md §6.
type Config struct {
	HeartbeatInterval time.Duration
	HostGracePeriod   time.Duration
	ReconnectWindow   time.Duration
	ChatHistoryLimit  int
	MaxMessageLength  int
}

// DefaultConfig returns the spec's documented defaults.
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: time.Second,
		HostGracePeriod:   60 * time.Second,
		ReconnectWindow:   30 * time.Second,
		ChatHistoryLimit:  100,
		MaxMessageLength:  500,
	}
}

// Room is the stateful hub for one synchronized viewing session. All
// mutating methods take the internal mutex; suspension points (metadata
// fetch, broadcast) happen outside it per spec.md §5.
type Room struct {
	mu sync.Mutex

	id        model.RoomID
	cfg       Config
	oracle    MetadataOracle
	conn      ConnectionRegistry
	createdAt time.Time

	users       map[model.UserID]*model.User
	queue       []model.Video
	sync        model.SyncState
	settings    model.RoomSettings
	chatHistory []model.ChatMessage
	skipVotes   map[model.UserID]bool

	hostGraceTimer    *time.Timer
	hostGraceDeadline *time.Time
}

// New constructs an empty Room identified by id. Callers (the room registry)
// own id allocation and collision handling (spec.md §4.7).
func New(id model.RoomID, oracle MetadataOracle, conn ConnectionRegistry, cfg Config) *Room {
	return &Room{
		id:        id,
		cfg:       cfg,
		oracle:    oracle,
		conn:      conn,
		createdAt: time.Now(),
		users:     make(map[model.UserID]*model.User),
		settings:  model.DefaultRoomSettings(),
		skipVotes: make(map[model.UserID]bool),
	}
}

// ID returns the room's identifier.
func (r *Room) ID() model.RoomID { return r.id }

// CreatedAt returns the room's creation time, used by the registry to delay
// reaping a just-created, still-empty room (spec.md §3 "Lifecycles").
func (r *Room) CreatedAt() time.Time { return r.createdAt }

// Conn returns the room's connection registry handle, so the transport layer
// can register and unregister sockets without the Room knowing about them.
func (r *Room) Conn() ConnectionRegistry { return r.conn }

// QueueLen returns the number of videos currently queued.
func (r *Room) QueueLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// IsEmpty reports whether the room has no live connections and no queued
// videos, the condition the registry uses to decide reaping (spec.md §4.7).
func (r *Room) IsEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn.Count() == 0 && len(r.queue) == 0
}

// AddUser enrolls a new participant. The first user in an empty room becomes
// HOST; every subsequent joiner is a VIEWER (spec.md §4.1).
func (r *Room) AddUser(displayName string) model.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	role := model.RoleViewer
	if len(r.users) == 0 {
		role = model.RoleHost
	}
	u := model.User{
		UserID:      idgen.GenerateUserID(),
		DisplayName: displayName,
		Role:        role,
		Connected:   true,
	}
	r.users[u.UserID] = &u
	return u
}

// Reconnect reclaims a disconnected user's identity and role, cancelling any
// pending host-grace timer if that user was HOST (spec.md §4.9, §9 resolved
// open question: join handshake accepts an optional resume_user_id).
func (r *Room) Reconnect(userID model.UserID, withinWindow time.Duration) (model.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok || u.Connected {
		return model.User{}, false
	}
	if u.DisconnectedAt != nil && time.Since(*u.DisconnectedAt) > withinWindow {
		return model.User{}, false
	}
	u.Connected = true
	u.DisconnectedAt = nil
	if u.Role == model.RoleHost {
		r.cancelHostGraceLocked()
	}
	return *u, true
}

// DisconnectUser marks a user disconnected and, if they held HOST, arms the
// host-grace timer; a disconnecting HOST is kept in the room (not subject to
// the retention rule here) so the grace timer can demote them or they can
// reconnect. Returns the user as it stood at disconnect and whether the
// retention rule erased them.
func (r *Room) DisconnectUser(userID model.UserID) (user model.User, erased bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return model.User{}, false
	}
	now := time.Now()
	u.Connected = false
	u.DisconnectedAt = &now
	snapshot := *u

	if u.Role == model.RoleHost {
		r.armHostGraceLocked()
		return snapshot, false
	}

	erased = r.applyRetentionLocked(userID)
	return snapshot, erased
}

// applyRetentionLocked erases userID from the room iff they are disconnected
// and own no remaining queue items (spec.md §4.1 retention rule). Must be
// called with mu held.
func (r *Room) applyRetentionLocked(userID model.UserID) bool {
	u, ok := r.users[userID]
	if !ok || u.Connected {
		return false
	}
	for _, v := range r.queue {
		if v.AddedBy == userID {
			return false
		}
	}
	delete(r.users, userID)
	delete(r.skipVotes, userID)
	return true
}

func (r *Room) connectedUserCountLocked() int {
	n := 0
	for _, u := range r.users {
		if u.Connected {
			n++
		}
	}
	return n
}

// AddVideo resolves url to an external ref, enforces the per-user queue
// limit, fetches display metadata (falling back on oracle failure), appends
// the video, and promotes it to "now playing" if the queue was empty
// (spec.md §4.1).
func (r *Room) AddVideo(ctx context.Context, userID model.UserID, rawURL string) (model.Video, bool, error) {
	ref, provider, sourceURL, ok := resolveVideoRef(rawURL)
	if !ok {
		return model.Video{}, false, newErr(CodeInvalidURL, "could not extract a playable video reference from that url")
	}

	r.mu.Lock()
	limit := r.settings.MaxVideosPerUser
	count := 0
	for _, v := range r.queue {
		if v.AddedBy == userID {
			count++
		}
	}
	if count >= limit {
		r.mu.Unlock()
		return model.Video{}, false, newErr(CodeQueueLimit, "you have reached the per-user queue limit for this room")
	}
	wasEmpty := r.sync.Empty()
	r.mu.Unlock()

	title, thumbnail := r.lookupMetadata(ctx, ref, provider, sourceURL)

	r.mu.Lock()

	v := model.Video{
		VideoID:     idgen.GenerateVideoID(),
		ExternalRef: ref,
		Title:       title,
		Thumbnail:   thumbnail,
		AddedBy:     userID,
		Provider:    provider,
		SourceURL:   sourceURL,
	}
	r.queue = append(r.queue, v)
	metrics.QueueLength.WithLabelValues(string(r.id)).Set(float64(len(r.queue)))

	promoted := false
	if wasEmpty {
		r.setCurrentVideoLocked(v)
		promoted = true
	}
	queueSnapshot := append([]model.Video(nil), r.queue...)
	var syncSnapshot model.SyncState
	if promoted {
		syncSnapshot = r.sync
	}
	r.mu.Unlock()

	r.conn.Broadcast(FrameQueueUpdated, QueueUpdatedPayload{Queue: queueSnapshot, Action: QueueActionAdd, Video: &v}, "")
	if promoted {
		r.conn.Broadcast(FrameSync, SyncPayload{Sync: syncSnapshot, ServerTime: nowUnix()}, "")
	}
	return v, promoted, nil
}

func nowUnix() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

func (r *Room) lookupMetadata(ctx context.Context, ref string, provider model.Provider, sourceURL string) (title, thumbnail string) {
	if r.oracle == nil || provider == model.ProviderDirect {
		return fallbackMetadata(ref, provider, sourceURL)
	}
	t, thumb, err := r.oracle.Lookup(ctx, ref)
	if err != nil {
		logging.Warn(ctx, "metadata oracle lookup failed, using fallback",
			zap.String("room_id", string(r.id)), zap.String("external_ref", ref), zap.Error(err))
		return fallbackMetadata(ref, provider, sourceURL)
	}
	return t, thumb
}

func fallbackMetadata(ref string, provider model.Provider, sourceURL string) (title, thumbnail string) {
	if provider == model.ProviderDirect {
		return idgen.LastPathSegment(sourceURL), ""
	}
	return fallbackTitle, FallbackThumbnail(ref)
}

// resolveVideoRef classifies a submitted url as a YouTube reference or a
// direct video-file link (SPEC_FULL.md §4.1 supplement).
func resolveVideoRef(rawURL string) (ref string, provider model.Provider, sourceURL string, ok bool) {
	if id, found := idgen.ExtractYouTubeID(rawURL); found {
		return id, model.ProviderYouTube, "", true
	}
	if src, found := idgen.DetectDirectVideoURL(rawURL); found {
		return "", model.ProviderDirect, src, true
	}
	return "", "", "", false
}

// setCurrentVideoLocked promotes v to "now playing": timestamp 0, playing,
// clears skip votes. Must be called with mu held.
func (r *Room) setCurrentVideoLocked(v model.Video) {
	id := v.VideoID
	r.sync = model.SyncState{
		CurrentVideoID: &id,
		ExternalRef:    v.ExternalRef,
		Provider:       v.Provider,
		SourceURL:      v.SourceURL,
		Timestamp:      0,
		IsPlaying:      true,
		LastUpdated:    time.Now(),
	}
	r.skipVotes = make(map[model.UserID]bool)
}

// resetSyncLocked clears playback state to "nothing queued". Must be called
// with mu held.
func (r *Room) resetSyncLocked() {
	r.sync = model.SyncState{}
	r.skipVotes = make(map[model.UserID]bool)
}

// RemoveVideo deletes a video from the queue. Only HOST or the video's owner
// may remove it. Always broadcasts queue_updated(action=remove); if the
// removed video was current, also drives AdvanceQueue, which emits its own
// queue_updated(action=advance) plus sync — a deliberate double broadcast
// for that case (spec.md §4.1, §4.8).
func (r *Room) RemoveVideo(userID model.UserID, videoID model.VideoID) error {
	r.mu.Lock()

	u, ok := r.users[userID]
	if !ok {
		r.mu.Unlock()
		return newErr(CodeRemoveFailed, "unknown user")
	}

	idx := -1
	for i, v := range r.queue {
		if v.VideoID == videoID {
			idx = i
			break
		}
	}
	if idx == -1 {
		r.mu.Unlock()
		return newErr(CodeRemoveFailed, "video not found in queue")
	}
	v := r.queue[idx]
	if u.Role != model.RoleHost && v.AddedBy != userID {
		r.mu.Unlock()
		return newErr(CodeRemoveFailed, "only the host or the video's owner may remove it")
	}

	wasCurrent := r.sync.CurrentVideoID != nil && *r.sync.CurrentVideoID == videoID
	r.queue = append(r.queue[:idx], r.queue[idx+1:]...)
	metrics.QueueLength.WithLabelValues(string(r.id)).Set(float64(len(r.queue)))
	r.applyRetentionLocked(v.AddedBy)
	queueSnapshot := append([]model.Video(nil), r.queue...)
	r.mu.Unlock()

	if wasCurrent {
		r.AdvanceQueue()
	}
	r.conn.Broadcast(FrameQueueUpdated, QueueUpdatedPayload{Queue: queueSnapshot, Action: QueueActionRemove, Video: &v}, "")
	return nil
}

// ReorderQueue applies a host-supplied permutation of the current queue's
// video ids. Rejects any ordering that is not an exact permutation
// (spec.md §4.1).
func (r *Room) ReorderQueue(userID model.UserID, newOrder []model.VideoID) error {
	r.mu.Lock()

	u, ok := r.users[userID]
	if !ok || u.Role != model.RoleHost {
		r.mu.Unlock()
		return newErr(CodeReorderFailed, "only the host can reorder the queue")
	}
	if len(newOrder) != len(r.queue) {
		r.mu.Unlock()
		return newErr(CodeReorderFailed, "video id mismatch")
	}

	byID := make(map[model.VideoID]model.Video, len(r.queue))
	for _, v := range r.queue {
		byID[v.VideoID] = v
	}
	reordered := make([]model.Video, 0, len(newOrder))
	for _, id := range newOrder {
		v, ok := byID[id]
		if !ok {
			r.mu.Unlock()
			return newErr(CodeReorderFailed, "video id mismatch")
		}
		reordered = append(reordered, v)
		delete(byID, id)
	}
	if len(byID) != 0 {
		r.mu.Unlock()
		return newErr(CodeReorderFailed, "video id mismatch")
	}

	r.queue = reordered
	queueSnapshot := append([]model.Video(nil), r.queue...)
	r.mu.Unlock()

	r.conn.Broadcast(FrameQueueUpdated, QueueUpdatedPayload{Queue: queueSnapshot, Action: QueueActionReorder}, "")
	return nil
}

// AdvanceQueue removes the currently-playing video (if any), applies
// retention to its owner, and promotes the new head or resets to empty
// playback state. Always broadcasts queue_updated(advance)+sync, even when
// there was no current video to remove (spec.md §4.1).
func (r *Room) AdvanceQueue() {
	r.mu.Lock()
	var owner model.UserID
	if r.sync.CurrentVideoID != nil {
		currentID := *r.sync.CurrentVideoID
		idx := -1
		for i, v := range r.queue {
			if v.VideoID == currentID {
				idx = i
				break
			}
		}
		if idx != -1 {
			owner = r.queue[idx].AddedBy
			r.queue = append(r.queue[:idx], r.queue[idx+1:]...)
		}
	}
	metrics.QueueLength.WithLabelValues(string(r.id)).Set(float64(len(r.queue)))

	if len(r.queue) > 0 {
		r.setCurrentVideoLocked(r.queue[0])
	} else {
		r.resetSyncLocked()
	}
	if owner != "" {
		r.applyRetentionLocked(owner)
	}

	queueSnapshot := append([]model.Video(nil), r.queue...)
	syncSnapshot := r.sync
	r.mu.Unlock()

	r.conn.Broadcast(FrameQueueUpdated, QueueUpdatedPayload{Queue: queueSnapshot, Action: QueueActionAdvance}, "")
	r.conn.Broadcast(FrameSync, SyncPayload{Sync: syncSnapshot, ServerTime: nowUnix()}, "")
}

// Settings returns a copy of the room's current settings.
func (r *Room) Settings() model.RoomSettings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings
}

// UpdateSettings applies a clamped whitelist of settings fields. HOST only.
func (r *Room) UpdateSettings(userID model.UserID, next model.RoomSettings) (model.RoomSettings, error) {
	r.mu.Lock()
	u, ok := r.users[userID]
	if !ok || u.Role != model.RoleHost {
		r.mu.Unlock()
		return model.RoomSettings{}, newErr(CodeSettingsFailed, "only the host can change room settings")
	}
	r.settings = next.Clamp()
	updated := r.settings
	r.mu.Unlock()

	r.conn.Broadcast(FrameSettings, SettingsUpdatedPayload{Settings: updated}, "")
	return updated, nil
}
