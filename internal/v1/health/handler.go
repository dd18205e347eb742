package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tossemideia/synctube/internal/v1/bus"
	"github.com/tossemideia/synctube/internal/v1/logging"
	"go.uber.org/zap"
)

// RoomLister reports how many rooms are currently active, for readiness/liveness payloads.
type RoomLister interface {
	Count() int
}

// Handler manages health check endpoints.
type Handler struct {
	redisService *bus.Service
	rooms        RoomLister
}

// NewHandler creates a new health check handler.
func NewHandler(redisService *bus.Service, rooms RoomLister) *Handler {
	return &Handler{
		redisService: redisService,
		rooms:        rooms,
	}
}

// LivenessResponse represents the liveness probe response.
type LivenessResponse struct {
	Status    string `json:"status"`
	Rooms     int    `json:"rooms"`
	Timestamp string `json:"timestamp"`
}

// ReadinessResponse represents the readiness probe response.
type ReadinessResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Liveness handles GET /api/health. Returns 200 if the process is alive.
func (h *Handler) Liveness(c *gin.Context) {
	count := 0
	if h.rooms != nil {
		count = h.rooms.Count()
	}
	c.JSON(http.StatusOK, LivenessResponse{
		Status:    "alive",
		Rooms:     count,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Readiness handles GET /health/ready. Returns 503 if a configured dependency is unhealthy.
func (h *Handler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	redisStatus := h.checkRedis(ctx)
	checks["redis"] = redisStatus
	if redisStatus != "healthy" {
		allHealthy = false
	}

	status := "ready"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "unavailable"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, ReadinessResponse{
		Status:    status,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// checkRedis verifies Redis connectivity using PING. A nil service (single-instance
// mode) is considered healthy since the bus is optional per SPEC_FULL.md §4.13.
func (h *Handler) checkRedis(ctx context.Context) string {
	if h.redisService == nil {
		return "healthy"
	}

	if err := h.redisService.Ping(ctx); err != nil {
		logging.Error(ctx, "redis health check failed", zap.Error(err))
		return "unhealthy"
	}

	return "healthy"
}
