// Package dispatch maps incoming typed client→server frames onto Room
// operations and relays per-operation failures back to the originating
// socket, per spec.md §4.8. Grounded on the teacher's session.handlers.go
// dispatch style (a generic payload-decoding helper feeding per-type
// handler functions) and session.Room's router switch-on-type entry point.
package dispatch

import (
	"context"
	"encoding/json"

	"github.com/tossemideia/synctube/internal/v1/model"
	"github.com/tossemideia/synctube/internal/v1/room"
)

// incomingFrame is the union of all client->server frame shapes (spec.md §4.8).
type incomingFrame struct {
	Type      string               `json:"type"`
	URL       string               `json:"url,omitempty"`
	VideoID   model.VideoID        `json:"video_id,omitempty"`
	VideoIDs  []model.VideoID      `json:"video_ids,omitempty"`
	Message   string               `json:"message,omitempty"`
	Timestamp *float64             `json:"timestamp,omitempty"`
	Settings  *model.RoomSettings  `json:"settings,omitempty"`
}

// Handle decodes raw as an incoming frame and applies its effect to r on
// behalf of senderID. Malformed JSON is dropped silently (spec.md §4.9);
// everything else always produces either a side effect or an error frame
// sent only to the sender.
func Handle(ctx context.Context, r *room.Room, registry room.ConnectionRegistry, senderID model.UserID, raw []byte) {
	var f incomingFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return
	}

	if f.Type == "" {
		sendError(registry, senderID, room.CodeMissingType, "frame is missing a type")
		return
	}

	switch f.Type {
	case "add_video":
		if _, _, err := r.AddVideo(ctx, senderID, f.URL); err != nil {
			sendOpError(registry, senderID, err)
		}

	case "remove_video":
		if err := r.RemoveVideo(senderID, f.VideoID); err != nil {
			sendOpError(registry, senderID, err)
		}

	case "reorder_queue":
		if err := r.ReorderQueue(senderID, f.VideoIDs); err != nil {
			sendOpError(registry, senderID, err)
		}

	case "skip_vote":
		r.HandleSkipVote(senderID, f.VideoID)

	case "chat_message":
		if err := r.HandleChat(senderID, f.Message); err != nil {
			sendOpError(registry, senderID, err)
		}

	case "play":
		if _, err := r.Play(senderID); err != nil {
			sendOpError(registry, senderID, err)
		}

	case "pause":
		ts := floatOrZero(f.Timestamp)
		if _, err := r.Pause(senderID, ts); err != nil {
			sendOpError(registry, senderID, err)
		}

	case "seek":
		ts := floatOrZero(f.Timestamp)
		if _, err := r.Seek(senderID, ts); err != nil {
			sendOpError(registry, senderID, err)
		}

	case "video_ended":
		r.AdvanceQueue()

	case "sync_report":
		// Reserved for client telemetry; no server-side effect.

	case "update_settings":
		settings := model.DefaultRoomSettings()
		if f.Settings != nil {
			settings = *f.Settings
		}
		if _, err := r.UpdateSettings(senderID, settings); err != nil {
			sendOpError(registry, senderID, err)
		}

	default:
		sendError(registry, senderID, room.CodeUnknownType, "unrecognized frame type: "+f.Type)
	}
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func sendOpError(registry room.ConnectionRegistry, senderID model.UserID, err error) {
	if opErr, ok := err.(*room.OpError); ok {
		sendError(registry, senderID, opErr.Code, opErr.Message)
		return
	}
	sendError(registry, senderID, "unknown_type", err.Error())
}

func sendError(registry room.ConnectionRegistry, senderID model.UserID, code, message string) {
	registry.Send(senderID, room.FrameError, room.ErrorPayload{Code: code, Message: message})
}
