package room

import "github.com/tossemideia/synctube/internal/v1/model"

// Server→client frame type strings (spec.md §6).
const (
	FrameRoomState      = "room_state"
	FrameUserJoined     = "user_joined"
	FrameUserLeft       = "user_left"
	FrameHostChanged    = "host_changed"
	FrameQueueUpdated   = "queue_updated"
	FrameSync           = "sync"
	FrameSettings       = "settings_updated"
	FrameSkipVoteUpdate = "skip_vote_update"
	FrameChatMessage    = "chat_message"
	FrameError          = "error"
)

// Queue mutation actions carried by queue_updated frames.
const (
	QueueActionAdd     = "add"
	QueueActionRemove  = "remove"
	QueueActionReorder = "reorder"
	QueueActionAdvance = "advance"
)

// RoomStatePayload is the one-time full snapshot sent to a freshly joined or
// reconnecting client (spec.md §4.6).
type RoomStatePayload struct {
	Users       []model.User        `json:"users"`
	Queue       []model.Video       `json:"queue"`
	Sync        SyncPayload         `json:"sync"`
	Settings    model.RoomSettings  `json:"settings"`
	ChatHistory []model.ChatMessage `json:"chat_history"`
	YourUserID  model.UserID        `json:"your_user_id"`
	YourRole    model.Role          `json:"your_role"`
	ServerTime  float64             `json:"server_time"`
}

// SyncPayload carries an extrapolated sync state plus server time.
type SyncPayload struct {
	Sync       model.SyncState `json:"sync"`
	ServerTime float64         `json:"server_time"`
}

type UserJoinedPayload struct {
	User model.User `json:"user"`
}

type UserLeftPayload struct {
	UserID model.UserID `json:"user_id"`
}

type HostChangedPayload struct {
	NewHostID   model.UserID `json:"new_host_id"`
	NewHostName string       `json:"new_host_name"`
}

type QueueUpdatedPayload struct {
	Queue  []model.Video `json:"queue"`
	Action string        `json:"action"`
	Video  *model.Video  `json:"video,omitempty"`
}

type SettingsUpdatedPayload struct {
	Settings model.RoomSettings `json:"settings"`
}

type SkipVoteUpdatePayload struct {
	VideoID  model.VideoID  `json:"video_id"`
	Votes    int            `json:"votes"`
	Required int            `json:"required"`
	Voters   []model.UserID `json:"voters"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
