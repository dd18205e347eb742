package room

import (
	"context"

	"github.com/tossemideia/synctube/internal/v1/model"
)

// MetadataOracle resolves an external video reference to display metadata.
// Implementations must never block the Room beyond a bounded deadline;
// failures are absorbed by the caller into fallback values (SPEC_FULL.md §4.10).
type MetadataOracle interface {
	Lookup(ctx context.Context, externalRef string) (title, thumbnail string, err error)
}

// ConnectionRegistry is the Room's only handle onto live sockets. It owns
// socket lifetime exclusively; the Room never retains an independent
// reference to a connection (spec.md §9 ownership note).
type ConnectionRegistry interface {
	// Send delivers frame to a single user, silently dropping it if the user
	// has no live connection or its outbound buffer is full.
	Send(userID model.UserID, frameType string, payload any)
	// Broadcast delivers frame to every connected user in the room, optionally
	// excluding one user id (typically the frame's originator).
	Broadcast(frameType string, payload any, exclude model.UserID)
	// Count returns the number of live connections.
	Count() int
}

// FallbackThumbnail is returned by callers when a MetadataOracle lookup fails,
// per spec.md §4.1's "default_thumbnail_for(ref)" fallback.
func FallbackThumbnail(externalRef string) string {
	if externalRef == "" {
		return ""
	}
	return "https://i.ytimg.com/vi/" + externalRef + "/hqdefault.jpg"
}

const fallbackTitle = "Unknown Video"
