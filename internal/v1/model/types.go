// Package model holds the value types shared across the room core:
// User, Video, SyncState, RoomSettings, and ChatMessage, per SPEC_FULL.md §3.
package model

import "time"

// RoomID identifies a Room; 8 hex characters, minted by idgen.GenerateRoomID.
type RoomID string

// UserID identifies a User within a Room; 12 hex characters.
type UserID string

// VideoID identifies a Video within a Room's queue; 10 hex characters.
type VideoID string

// Role is a User's authority level within a Room.
type Role string

const (
	RoleHost   Role = "host"
	RoleViewer Role = "viewer"
)

// Provider is the source kind of a queued Video.
type Provider string

const (
	ProviderYouTube Provider = "youtube"
	ProviderDirect  Provider = "direct"
)

// SystemUserID is the reserved sender id for system chat messages.
const SystemUserID UserID = "system"

// User is a single participant of a Room.
type User struct {
	UserID         UserID     `json:"user_id"`
	DisplayName    string     `json:"display_name"`
	Role           Role       `json:"role"`
	Connected      bool       `json:"connected"`
	DisconnectedAt *time.Time `json:"disconnected_at,omitempty"`
}

// Video is a single queued item.
type Video struct {
	VideoID     VideoID  `json:"video_id"`
	ExternalRef string   `json:"external_ref"`
	Title       string   `json:"title"`
	Thumbnail   string   `json:"thumbnail"`
	Duration    float64  `json:"duration"`
	AddedBy     UserID   `json:"added_by"`
	Provider    Provider `json:"provider"`
	SourceURL   string   `json:"source_url,omitempty"`
}

// SyncState is the authoritative playback transport state.
type SyncState struct {
	CurrentVideoID *VideoID  `json:"current_video_id"`
	ExternalRef    string    `json:"external_ref"`
	Provider       Provider  `json:"provider,omitempty"`
	SourceURL      string    `json:"source_url,omitempty"`
	Timestamp      float64   `json:"timestamp"`
	IsPlaying      bool      `json:"is_playing"`
	LastUpdated    time.Time `json:"last_updated"`
}

// Extrapolate returns the effective playback position at wall time now.
func (s SyncState) Extrapolate(now time.Time) float64 {
	if s.IsPlaying {
		return s.Timestamp + now.Sub(s.LastUpdated).Seconds()
	}
	return s.Timestamp
}

// Empty reports whether no video is currently loaded.
func (s SyncState) Empty() bool {
	return s.CurrentVideoID == nil
}

// RoomSettings are per-room tunables within documented ranges.
type RoomSettings struct {
	MaxVideosPerUser  int     `json:"max_videos_per_user"`
	SkipVoteThreshold float64 `json:"skip_vote_threshold"`
}

// DefaultRoomSettings returns the spec.md §3 defaults.
func DefaultRoomSettings() RoomSettings {
	return RoomSettings{
		MaxVideosPerUser:  10,
		SkipVoteThreshold: 0.5,
	}
}

// Clamp restricts settings to the documented valid ranges ([1,50] and [0.1,1.0]).
func (s RoomSettings) Clamp() RoomSettings {
	if s.MaxVideosPerUser < 1 {
		s.MaxVideosPerUser = 1
	} else if s.MaxVideosPerUser > 50 {
		s.MaxVideosPerUser = 50
	}
	if s.SkipVoteThreshold < 0.1 {
		s.SkipVoteThreshold = 0.1
	} else if s.SkipVoteThreshold > 1.0 {
		s.SkipVoteThreshold = 1.0
	}
	return s
}

// ChatMessage is a single chat history entry.
type ChatMessage struct {
	UserID      UserID    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	IsSystem    bool      `json:"is_system"`
}

// SystemMessage builds a ChatMessage attributed to the reserved system sender.
func SystemMessage(message string) ChatMessage {
	return ChatMessage{
		UserID:      SystemUserID,
		DisplayName: "system",
		Message:     message,
		Timestamp:   time.Now(),
		IsSystem:    true,
	}
}
