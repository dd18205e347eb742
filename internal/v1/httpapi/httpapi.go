// Package httpapi implements the REST surface around room lifecycle:
// creating a room and looking up its public metadata (spec.md §4.12).
// Grounded on the teacher's cmd/v1/session/main.go routing shape, rebuilt
// around this server's room registry instead of a single session hub.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tossemideia/synctube/internal/v1/model"
	"github.com/tossemideia/synctube/internal/v1/registry"
	"github.com/tossemideia/synctube/internal/v1/room"
)

// roomSummary is the public view of a room returned by the REST surface;
// it never exposes chat history or per-user connection detail.
type roomSummary struct {
	RoomID       model.RoomID `json:"room_id"`
	HostName     string       `json:"host_name"`
	UserCount    int          `json:"user_count"`
	QueueLength  int          `json:"queue_length"`
	CurrentVideo *model.Video `json:"current_video"`
}

// Handler serves the room lifecycle REST endpoints.
type Handler struct {
	rooms *registry.Registry
}

// NewHandler builds an httpapi Handler backed by the given room registry.
func NewHandler(rooms *registry.Registry) *Handler {
	return &Handler{rooms: rooms}
}

// CreateRoom handles POST /api/rooms.
func (h *Handler) CreateRoom(c *gin.Context) {
	r := h.rooms.CreateRoom()
	c.JSON(http.StatusCreated, summarize(r))
}

// ListRooms handles GET /api/rooms. Rooms with no connected users are
// excluded from the listing (spec.md §6).
func (h *Handler) ListRooms(c *gin.Context) {
	rooms := h.rooms.List()
	out := make([]roomSummary, 0, len(rooms))
	for _, r := range rooms {
		if r.Conn().Count() == 0 {
			continue
		}
		out = append(out, summarize(r))
	}
	c.JSON(http.StatusOK, gin.H{"rooms": out})
}

// GetRoom handles GET /api/rooms/:roomId.
func (h *Handler) GetRoom(c *gin.Context) {
	id := model.RoomID(c.Param("roomId"))
	r := h.rooms.GetRoom(id)
	if r == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, summarize(r))
}

func summarize(r *room.Room) roomSummary {
	summary := roomSummary{
		RoomID:      r.ID(),
		HostName:    r.HostName(),
		UserCount:   r.Conn().Count(),
		QueueLength: r.QueueLen(),
	}
	if v, ok := r.CurrentVideo(); ok {
		summary.CurrentVideo = &v
	}
	return summary
}
