// Package transport's endpoint ties the HTTP upgrade, join handshake, and
// per-room registry lookup together. Grounded on the teacher's
// session.upgradeWebSocket + session.setupClientConnection shape
// (backend/go/internal/v1/session/hub_helpers.go): a websocket.Upgrader with
// CheckOrigin and a pooled write buffer, building a Client once the
// handshake succeeds. The JWT/origin-token validation the teacher layers on
// top is dropped: this protocol has no authentication beyond a display name
// the user picks at join time.
package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tossemideia/synctube/internal/v1/dispatch"
	"github.com/tossemideia/synctube/internal/v1/logging"
	"github.com/tossemideia/synctube/internal/v1/metrics"
	"github.com/tossemideia/synctube/internal/v1/model"
	"github.com/tossemideia/synctube/internal/v1/ratelimit"
	"github.com/tossemideia/synctube/internal/v1/room"
)

// maxDisplayNameRunes is spec.md §3's display_name length cap.
const maxDisplayNameRunes = 30

// RoomFinder resolves a room id to its live Room, or nil if unknown.
type RoomFinder interface {
	GetRoom(id model.RoomID) *room.Room
}

// CloseRoomNotFound is the close code sent when a socket targets an unknown
// room id (spec.md §6).
const CloseRoomNotFound = 4004

const joinDeadline = 10 * time.Second

// joinFrame is the first frame a client must send after the upgrade completes.
type joinFrame struct {
	Type         string `json:"type"`
	DisplayName  string `json:"display_name"`
	ResumeUserID string `json:"resume_user_id,omitempty"`
}

// Handler serves the room WebSocket endpoint.
type Handler struct {
	rooms           RoomFinder
	limiter         *ratelimit.RateLimiter
	reconnectWindow time.Duration
	upgrader        websocket.Upgrader
}

// NewHandler builds a socket endpoint Handler. allowedOrigins is the same
// comma-split allow-list the HTTP CORS middleware uses.
func NewHandler(rooms RoomFinder, limiter *ratelimit.RateLimiter, reconnectWindow time.Duration, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &Handler{
		rooms:           rooms,
		limiter:         limiter,
		reconnectWindow: reconnectWindow,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			WriteBufferPool: &sync.Pool{},
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				return allowed[origin]
			},
		},
	}
}

// ServeWS handles GET /ws/:roomId.
func (h *Handler) ServeWS(c *gin.Context) {
	ctx := c.Request.Context()
	roomID := model.RoomID(c.Param("roomId"))

	if h.limiter != nil && !h.limiter.CheckWebSocketUpgrade(ctx, c.ClientIP()) {
		c.AbortWithStatus(http.StatusTooManyRequests)
		return
	}

	r := h.rooms.GetRoom(roomID)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warn(ctx, "websocket upgrade failed", zap.Error(err))
		return
	}

	if r == nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(CloseRoomNotFound, "room not found"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	h.handleConnection(ctx, r, conn)
}

func (h *Handler) handleConnection(ctx context.Context, r *room.Room, conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(joinDeadline))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		_ = conn.Close()
		return
	}

	var jf joinFrame
	trimmed := ""
	if err := json.Unmarshal(raw, &jf); err == nil {
		trimmed = strings.TrimSpace(jf.DisplayName)
	}
	if jf.Type != "join" || trimmed == "" {
		writeErrorFrame(conn, room.CodeInvalidJoin, "first message must be {type: 'join', display_name: '...'}")
		_ = conn.Close()
		return
	}
	_ = conn.SetReadDeadline(time.Time{})
	jf.DisplayName = truncateRunes(trimmed, maxDisplayNameRunes)

	user, resumed := h.resolveUser(r, jf)
	logging.Info(ctx, "socket joined", zap.String("user_id", string(user.UserID)), zap.Bool("resumed", resumed))

	connReg := r.Conn().(*Registry)
	client := newClient(conn, user.UserID, r.ID())
	connReg.register(client)
	metrics.IncConnection()

	go client.writePump()

	if state, ok := r.GetFullState(user.UserID); ok {
		client.enqueue(room.FrameRoomState, state)
	}
	r.Conn().Broadcast(room.FrameUserJoined, room.UserJoinedPayload{User: user}, user.UserID)
	r.SystemChat(user.DisplayName + " entrou na sala.")

	client.readPump(func(data []byte) {
		dispatch.Handle(ctx, r, connReg, user.UserID, data)
	}, func() {
		h.onDisconnect(ctx, r, connReg, user)
	})
}

// resolveUser honors an optional resume_user_id within the reconnect window,
// falling back to minting a fresh user (spec.md §4.9 as expanded in SPEC_FULL.md §4.9).
func (h *Handler) resolveUser(r *room.Room, jf joinFrame) (model.User, bool) {
	if jf.ResumeUserID != "" {
		if u, ok := r.Reconnect(model.UserID(jf.ResumeUserID), h.reconnectWindow); ok {
			return u, true
		}
	}
	return r.AddUser(jf.DisplayName), false
}

// writeErrorFrame sends a one-off error envelope directly on conn, for
// failures that happen before a Client exists to enqueue through (spec.md
// §4.9: "any deviation yields an invalid_join error and close", matching the
// original's ws_endpoint.py which sends the error frame before closing).
func writeErrorFrame(conn *websocket.Conn, code, message string) {
	payload, err := json.Marshal(room.ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	raw, err := json.Marshal(Envelope{Type: room.FrameError, Payload: payload})
	if err != nil {
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.TextMessage, raw)
}

// truncateRunes caps s at n runes, leaving shorter strings untouched.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func (h *Handler) onDisconnect(ctx context.Context, r *room.Room, connReg *Registry, user model.User) {
	connReg.unregister(user.UserID)

	if _, erased := r.DisconnectUser(user.UserID); erased {
		logging.Info(ctx, "user erased on disconnect", zap.String("user_id", string(user.UserID)))
	}
	r.Conn().Broadcast(room.FrameUserLeft, room.UserLeftPayload{UserID: user.UserID}, "")
	r.SystemChat(user.DisplayName + " saiu da sala.")
}
