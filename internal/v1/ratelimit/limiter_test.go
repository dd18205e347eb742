package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		APIGlobal:  "2-M",
		APIRooms:   "2-M",
		WsIP:       "2-M",
		WsMessages: "2-M",
	}
}

func TestGlobalMiddleware_AllowsWithinLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl, err := New(testConfig(), nil)
	require.NoError(t, err)

	r := gin.New()
	r.Use(rl.GlobalMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/ping", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestGlobalMiddleware_BlocksOverLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl, err := New(testConfig(), nil)
	require.NoError(t, err)

	r := gin.New()
	r.Use(rl.GlobalMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	var lastCode int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/ping", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		lastCode = w.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, lastCode)
}

func TestCheckWebSocketUpgrade(t *testing.T) {
	rl, err := New(testConfig(), nil)
	require.NoError(t, err)

	ctx := context.Background()
	allowed := 0
	for i := 0; i < 3; i++ {
		if rl.CheckWebSocketUpgrade(ctx, "1.2.3.4") {
			allowed++
		}
	}
	assert.Equal(t, 2, allowed)
}

func TestCheckWebSocketFrame(t *testing.T) {
	rl, err := New(testConfig(), nil)
	require.NoError(t, err)

	ctx := context.Background()
	allowed := 0
	for i := 0; i < 3; i++ {
		if rl.CheckWebSocketFrame(ctx, "user-abc") {
			allowed++
		}
	}
	assert.Equal(t, 2, allowed)

	// A distinct user has an independent bucket.
	assert.True(t, rl.CheckWebSocketFrame(ctx, "user-def"))
}
