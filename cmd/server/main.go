// Command server boots the synctube coordination server: loads environment
// configuration, wires the room registry to its dependencies (metadata
// oracle, optional Redis bus, rate limiter), mounts the HTTP and WebSocket
// surfaces, and runs until an interrupt triggers a graceful shutdown.
// Grounded on the teacher's cmd/v1/session/main.go bootstrap shape: gin
// router + cors + recovery, a background ticking driver, signal.Notify plus
// srv.Shutdown with a bounded grace period.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tossemideia/synctube/internal/v1/bus"
	"github.com/tossemideia/synctube/internal/v1/config"
	"github.com/tossemideia/synctube/internal/v1/heartbeat"
	"github.com/tossemideia/synctube/internal/v1/health"
	"github.com/tossemideia/synctube/internal/v1/httpapi"
	"github.com/tossemideia/synctube/internal/v1/logging"
	"github.com/tossemideia/synctube/internal/v1/metadata"
	"github.com/tossemideia/synctube/internal/v1/middleware"
	"github.com/tossemideia/synctube/internal/v1/model"
	"github.com/tossemideia/synctube/internal/v1/ratelimit"
	"github.com/tossemideia/synctube/internal/v1/registry"
	"github.com/tossemideia/synctube/internal/v1/room"
	"github.com/tossemideia/synctube/internal/v1/searchapi"
	"github.com/tossemideia/synctube/internal/v1/transport"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on process environment")
	}

	cfg, err := config.ValidateEnv()
	if err != nil {
		slog.Error("invalid environment configuration", "error", err)
		os.Exit(1)
	}

	if err := logging.Initialize(cfg.GoEnv != "production"); err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}

	var redisClient *bus.Service
	if cfg.RedisEnabled {
		redisClient, err = bus.NewService(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			slog.Error("failed to connect to redis, continuing single-instance", "error", err)
			redisClient = nil
		}
	}

	oracle := metadata.New(cfg.MetadataOracleURL)

	roomCfg := room.Config{
		HeartbeatInterval: durationOf(cfg.HeartbeatIntervalSeconds),
		HostGracePeriod:   durationOf(cfg.HostGracePeriodSeconds),
		ReconnectWindow:   durationOf(cfg.ReconnectWindowSeconds),
		ChatHistoryLimit:  room.DefaultConfig().ChatHistoryLimit,
		MaxMessageLength:  room.DefaultConfig().MaxMessageLength,
	}

	rooms := registry.New(oracle, func(id model.RoomID) room.ConnectionRegistry {
		return transport.NewRegistry()
	}, roomCfg)

	limiter, err := ratelimit.New(ratelimit.Config{
		APIGlobal:  cfg.RateLimitAPIGlobal,
		APIRooms:   cfg.RateLimitAPIRooms,
		WsIP:       cfg.RateLimitWsIP,
		WsMessages: cfg.RateLimitWsMessages,
	}, redisClient.Client())
	if err != nil {
		slog.Error("failed to build rate limiter", "error", err)
		os.Exit(1)
	}

	driver := heartbeat.New(rooms, durationOf(cfg.HeartbeatIntervalSeconds))
	driverCtx, stopDriver := context.WithCancel(context.Background())
	go driver.Run(driverCtx)

	roomsAPI := httpapi.NewHandler(rooms)
	searchAPI := searchapi.NewHandler(cfg.YoutubeAPIKey)
	healthAPI := health.NewHandler(redisClient, rooms)
	wsHandler := transport.NewHandler(rooms, limiter, durationOf(cfg.ReconnectWindowSeconds), cfg.AllowedOriginsList())

	router := gin.Default()
	router.Use(middleware.CorrelationID())
	router.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = cfg.AllowedOriginsList()
	corsCfg.AllowCredentials = true
	router.Use(cors.New(corsCfg))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/api/health", healthAPI.Liveness)
	router.GET("/health/ready", healthAPI.Readiness)

	api := router.Group("/api")
	{
		api.POST("/rooms", limiter.RoomsMiddleware(), roomsAPI.CreateRoom)
		api.GET("/rooms", roomsAPI.ListRooms)
		api.GET("/rooms/:roomId", roomsAPI.GetRoom)
		api.GET("/videos/search", limiter.GlobalMiddleware(), searchAPI.Search)
	}

	router.GET("/ws/:roomId", wsHandler.ServeWS)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		slog.Info("synctube server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	stopDriver()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}

	slog.Info("server exiting")
}

func durationOf(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
