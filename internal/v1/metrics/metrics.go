package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the synctube server.
//
// Naming convention: namespace_subsystem_name
//   - namespace: synctube (application-level grouping)
//   - subsystem: websocket, room, metadata_oracle, circuit_breaker, rate_limit, redis
//   - name: specific metric (connections_active, events_total, etc.)
var (
	// ActiveWebSocketConnections tracks the current number of active WebSocket connections.
	ActiveWebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "synctube",
		Subsystem: "websocket",
		Name:      "connections_active",
		Help:      "Current number of active WebSocket connections",
	})

	// ActiveRooms tracks the current number of active rooms.
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "synctube",
		Subsystem: "room",
		Name:      "rooms_active",
		Help:      "Current number of active rooms",
	})

	// RoomParticipants tracks the number of connected users in each room.
	RoomParticipants = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "synctube",
		Subsystem: "room",
		Name:      "participants_count",
		Help:      "Number of connected users in each room",
	}, []string{"room_id"})

	// QueueLength tracks the current queue size of each room.
	QueueLength = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "synctube",
		Subsystem: "room",
		Name:      "queue_length",
		Help:      "Number of videos queued in each room",
	}, []string{"room_id"})

	// WebsocketEvents tracks the total number of inbound frames processed.
	WebsocketEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "synctube",
		Subsystem: "websocket",
		Name:      "events_total",
		Help:      "Total WebSocket frames processed",
	}, []string{"frame_type", "status"})

	// MessageProcessingDuration tracks the time spent dispatching a frame to a Room operation.
	MessageProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "synctube",
		Subsystem: "websocket",
		Name:      "message_processing_seconds",
		Help:      "Time spent processing WebSocket frames",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"frame_type"})

	// HostTransfers tracks host-grace-driven transfers.
	HostTransfers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "synctube",
		Subsystem: "room",
		Name:      "host_transfers_total",
		Help:      "Total host role transfers triggered by grace timer expiry",
	}, []string{"reason"})

	// SkipVoteAdvances tracks skip-vote-driven advances.
	SkipVoteAdvances = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "synctube",
		Subsystem: "room",
		Name:      "skip_vote_advances_total",
		Help:      "Total queue advances triggered by skip voting",
	}, []string{"trigger"})

	// MetadataOracleRequests tracks outbound metadata lookups.
	MetadataOracleRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "synctube",
		Subsystem: "metadata_oracle",
		Name:      "requests_total",
		Help:      "Total metadata oracle lookups",
	}, []string{"status"})

	// MetadataOracleDuration tracks metadata oracle latency.
	MetadataOracleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "synctube",
		Subsystem: "metadata_oracle",
		Name:      "request_duration_seconds",
		Help:      "Duration of metadata oracle HTTP calls",
		Buckets:   prometheus.DefBuckets,
	})

	// CircuitBreakerState tracks the current state of a named circuit breaker.
	// 0: Closed (Healthy), 1: Open (Failure), 2: Half-Open (Recovering)
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "synctube",
		Subsystem: "circuit_breaker",
		Name:      "state",
		Help:      "Current state of the circuit breaker (0: Closed, 1: Open, 2: Half-Open)",
	}, []string{"service"})

	// CircuitBreakerFailures tracks the total number of requests rejected by a circuit breaker.
	CircuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "synctube",
		Subsystem: "circuit_breaker",
		Name:      "failures_total",
		Help:      "Total requests rejected by the circuit breaker",
	}, []string{"service"})

	// RateLimitExceeded tracks the total number of requests that exceeded the rate limit.
	RateLimitExceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "synctube",
		Subsystem: "rate_limit",
		Name:      "exceeded_total",
		Help:      "Total number of requests that exceeded the rate limit",
	}, []string{"endpoint", "reason"})

	// RateLimitRequests tracks the total number of requests checked against the rate limiter.
	RateLimitRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "synctube",
		Subsystem: "rate_limit",
		Name:      "requests_total",
		Help:      "Total number of requests checked against the rate limiter",
	}, []string{"endpoint"})

	// RedisOperationsTotal tracks the total number of Redis bus operations.
	RedisOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "synctube",
		Subsystem: "redis",
		Name:      "operations_total",
		Help:      "Total number of Redis operations",
	}, []string{"operation", "status"})

	// RedisOperationDuration tracks the duration of Redis bus operations.
	RedisOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "synctube",
		Subsystem: "redis",
		Name:      "operation_duration_seconds",
		Help:      "Duration of Redis operations",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
)

func IncConnection() {
	ActiveWebSocketConnections.Inc()
}

func DecConnection() {
	ActiveWebSocketConnections.Dec()
}
