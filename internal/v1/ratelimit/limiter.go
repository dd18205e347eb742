// Package ratelimit wraps ulule/limiter/v3 behind the rate buckets this
// server actually needs. Unlike the JWT-authenticated services in this
// codebase's history, synctube has no authentication beyond a self-chosen
// display name (spec.md §1 Non-goals), so every limiter here keys off
// connection identity instead of claims: client IP for the HTTP surface,
// and room-scoped user id for inbound WebSocket frames.
package ratelimit

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	mem "github.com/ulule/limiter/v3/drivers/store/memory"
	rstore "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/tossemideia/synctube/internal/v1/metrics"
)

// RateLimiter bundles the named limiter instances this server uses.
type RateLimiter struct {
	apiGlobal *limiter.Limiter
	apiRooms  *limiter.Limiter
	wsIP      *limiter.Limiter
	wsUser    *limiter.Limiter
}

// Config is the set of formatted rate strings ("<limit>-<period>", ulule/limiter syntax).
type Config struct {
	APIGlobal   string
	APIRooms    string
	WsIP        string
	WsMessages  string
}

// New builds a RateLimiter. If redisClient is nil, an in-memory store is used
// (adequate for a single-instance deployment; a Redis store is required to
// share limits across synctube instances behind the same load balancer).
func New(cfg Config, redisClient *redis.Client) (*RateLimiter, error) {
	store, err := newStore(redisClient)
	if err != nil {
		return nil, err
	}

	build := func(formatted string) (*limiter.Limiter, error) {
		rate, err := limiter.NewRateFromFormatted(formatted)
		if err != nil {
			return nil, fmt.Errorf("invalid rate %q: %w", formatted, err)
		}
		return limiter.New(store, rate), nil
	}

	apiGlobal, err := build(cfg.APIGlobal)
	if err != nil {
		return nil, err
	}
	apiRooms, err := build(cfg.APIRooms)
	if err != nil {
		return nil, err
	}
	wsIP, err := build(cfg.WsIP)
	if err != nil {
		return nil, err
	}
	wsUser, err := build(cfg.WsMessages)
	if err != nil {
		return nil, err
	}

	return &RateLimiter{
		apiGlobal: apiGlobal,
		apiRooms:  apiRooms,
		wsIP:      wsIP,
		wsUser:    wsUser,
	}, nil
}

func newStore(redisClient *redis.Client) (limiter.Store, error) {
	if redisClient == nil {
		return mem.NewStore(), nil
	}
	return rstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{
		Prefix: "synctube_ratelimit",
	})
}

// GlobalMiddleware rate-limits every HTTP request by client IP.
func (r *RateLimiter) GlobalMiddleware() gin.HandlerFunc {
	return r.middleware(r.apiGlobal, "global")
}

// RoomsMiddleware rate-limits room-creation traffic by client IP.
func (r *RateLimiter) RoomsMiddleware() gin.HandlerFunc {
	return r.middleware(r.apiRooms, "rooms")
}

func (r *RateLimiter) middleware(l *limiter.Limiter, endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.RateLimitRequests.WithLabelValues(endpoint).Inc()

		ctx, err := l.Get(c.Request.Context(), c.ClientIP())
		if err != nil {
			// Fail open: a limiter-store outage should not take the API down.
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", ctx.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", ctx.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", ctx.Reset))

		if ctx.Reached {
			metrics.RateLimitExceeded.WithLabelValues(endpoint, "limit_reached").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		c.Next()
	}
}

// CheckWebSocketUpgrade rate-limits new socket connections by remote IP,
// called once at handshake time before the connection is accepted.
func (r *RateLimiter) CheckWebSocketUpgrade(ctx context.Context, remoteIP string) bool {
	lctx, err := r.wsIP.Get(ctx, remoteIP)
	if err != nil {
		return true // fail open
	}
	if lctx.Reached {
		metrics.RateLimitExceeded.WithLabelValues("ws_upgrade", "limit_reached").Inc()
		return false
	}
	return true
}

// CheckWebSocketFrame rate-limits inbound frames from an already-joined user,
// keyed by the room-scoped user id so one noisy viewer can't starve others.
func (r *RateLimiter) CheckWebSocketFrame(ctx context.Context, userID string) bool {
	lctx, err := r.wsUser.Get(ctx, userID)
	if err != nil {
		return true
	}
	if lctx.Reached {
		metrics.RateLimitExceeded.WithLabelValues("ws_message", "limit_reached").Inc()
		return false
	}
	return true
}
