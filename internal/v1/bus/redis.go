// Package bus implements the optional cross-instance broadcast relay described
// in SPEC_FULL.md §4.13: Publish sends a frame envelope to a Redis channel
// keyed by room id, and Subscribe relays envelopes published by sibling
// instances to a handler. The server constructs a Service when Redis is
// enabled and uses it for the readiness probe; room broadcasts are not
// published through it. The bus never carries Room state or queue
// replication — only live broadcast traffic — so a process restart still
// loses all in-memory state, matching spec.md's no-persistence Non-goal.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/tossemideia/synctube/internal/v1/metrics"
)

// PubSubPayload is the envelope carried over the room broadcast channel.
type PubSubPayload struct {
	RoomID     string          `json:"roomId"`
	FrameType  string          `json:"frameType"`
	Payload    json.RawMessage `json:"payload"`
	InstanceID string          `json:"instanceId"` // identifies the publishing process, to prevent echo
}

// Service handles all interaction with the Redis cluster.
type Service struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker
}

// Client returns the underlying Redis client, or nil in single-instance mode.
func (s *Service) Client() *redis.Client {
	if s == nil {
		return nil
	}
	return s.client
}

// NewService connects to Redis and wraps outbound calls in a circuit breaker.
func NewService(addr, password string) (*Service, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	st := gobreaker.Settings{
		Name:        "redis",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     15 * time.Second,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			var stateVal float64
			switch to {
			case gobreaker.StateClosed:
				stateVal = 0
			case gobreaker.StateOpen:
				stateVal = 1
			case gobreaker.StateHalfOpen:
				stateVal = 2
			}
			metrics.CircuitBreakerState.WithLabelValues("redis").Set(stateVal)
		},
	}

	slog.Info("connected to Redis pub/sub", "addr", addr)
	return &Service{
		client: rdb,
		cb:     gobreaker.NewCircuitBreaker(st),
	}, nil
}

func channelFor(roomID string) string {
	return fmt.Sprintf("synctube:room:%s", roomID)
}

// Publish broadcasts a frame to sibling instances watching this room.
func (s *Service) Publish(ctx context.Context, roomID, frameType string, payload any, instanceID string) error {
	if s == nil || s.client == nil {
		return nil // single-instance mode, no Redis available
	}

	_, err := s.cb.Execute(func() (interface{}, error) {
		inner, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal inner payload: %w", err)
		}

		msg := PubSubPayload{
			RoomID:     roomID,
			FrameType:  frameType,
			Payload:    inner,
			InstanceID: instanceID,
		}

		data, err := json.Marshal(msg)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal pubsub envelope: %w", err)
		}

		return nil, s.client.Publish(ctx, channelFor(roomID), data).Err()
	})

	if err != nil {
		if err == gobreaker.ErrOpenState {
			metrics.CircuitBreakerFailures.WithLabelValues("redis").Inc()
			slog.Warn("redis circuit breaker open: dropping publish", "roomID", roomID)
			return nil // degrade gracefully: the room keeps working single-instance
		}
		slog.Error("redis publish failed", "roomID", roomID, "error", err)
		return err
	}

	return nil
}

// Subscribe starts a background goroutine relaying frames published by sibling
// instances for roomID into handler. The goroutine exits when ctx is cancelled.
func (s *Service) Subscribe(ctx context.Context, roomID string, wg *sync.WaitGroup, handler func(PubSubPayload)) {
	if s == nil || s.client == nil {
		return
	}

	channel := channelFor(roomID)
	pubsub := s.client.Subscribe(ctx, channel)

	if wg != nil {
		wg.Add(1)
	}
	go func() {
		defer pubsub.Close()
		if wg != nil {
			defer wg.Done()
		}

		slog.Info("subscribed to redis channel", "channel", channel)

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					slog.Warn("redis subscription channel closed", "channel", channel)
					return
				}

				var payload PubSubPayload
				if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
					slog.Error("failed to unmarshal redis message", "error", err)
					continue
				}

				handler(payload)
			}
		}
	}()
}

// Ping checks Redis connectivity. A nil Service is always healthy (single-instance mode).
func (s *Service) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}

	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.client.Ping(ctx).Err()
	})

	if err != nil {
		if err == gobreaker.ErrOpenState {
			metrics.CircuitBreakerFailures.WithLabelValues("redis").Inc()
		}
		return err
	}
	return nil
}

// Close gracefully shuts down the Redis connection.
func (s *Service) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
