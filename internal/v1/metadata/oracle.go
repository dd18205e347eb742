// Package metadata implements the Room-consumed MetadataOracle by calling
// YouTube's public oEmbed endpoint over HTTP, wrapped in a circuit breaker
// with a 5 s deadline per call. Grounded on the teacher's bus.Service
// (backend/go/internal/v1/bus/redis.go), which applies the same
// gobreaker-wrapped-outbound-call shape to Redis; here the flaky external
// dependency is an HTTP oracle instead (spec.md §5 "Cancellation").
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/tossemideia/synctube/internal/v1/logging"
	"github.com/tossemideia/synctube/internal/v1/metrics"
)

// lookupDeadline bounds every oracle call; timeout is absorbed by the
// caller into fallback values, never propagated (spec.md §4.10, §7).
const lookupDeadline = 5 * time.Second

// oEmbedResponse is the subset of youtube.com/oembed's JSON response we use.
type oEmbedResponse struct {
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// Oracle resolves a YouTube video id to (title, thumbnail) via oEmbed.
type Oracle struct {
	baseURL string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker
}

// New constructs an Oracle. baseURL defaults to YouTube's public oEmbed
// endpoint when empty, so a test or self-hosted deployment may override it.
func New(baseURL string) *Oracle {
	if baseURL == "" {
		baseURL = "https://www.youtube.com/oembed"
	}

	st := gobreaker.Settings{
		Name:        "metadata_oracle",
		MaxRequests: 5,
		Interval:    time.Minute,
		Timeout:     15 * time.Second,
		OnStateChange: func(name string, from, to gobreaker.State) {
			var stateVal float64
			switch to {
			case gobreaker.StateClosed:
				stateVal = 0
			case gobreaker.StateOpen:
				stateVal = 1
			case gobreaker.StateHalfOpen:
				stateVal = 2
			}
			metrics.CircuitBreakerState.WithLabelValues("metadata_oracle").Set(stateVal)
		},
	}

	return &Oracle{
		baseURL: baseURL,
		client:  &http.Client{Timeout: lookupDeadline},
		cb:      gobreaker.NewCircuitBreaker(st),
	}
}

// Lookup resolves externalRef (an 11-character YouTube video id) to its
// public title and thumbnail URL.
func (o *Oracle) Lookup(ctx context.Context, externalRef string) (title, thumbnail string, err error) {
	defer timeObserve(time.Now())

	ctx, cancel := context.WithTimeout(ctx, lookupDeadline)
	defer cancel()

	watchURL := "https://www.youtube.com/watch?v=" + url.QueryEscape(externalRef)
	reqURL := fmt.Sprintf("%s?url=%s&format=json", o.baseURL, url.QueryEscape(watchURL))

	result, err := o.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := o.client.Do(req)
		if err != nil {
			metrics.MetadataOracleRequests.WithLabelValues("error").Inc()
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			metrics.MetadataOracleRequests.WithLabelValues("non_200").Inc()
			return nil, fmt.Errorf("metadata oracle returned status %d", resp.StatusCode)
		}

		var parsed oEmbedResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			metrics.MetadataOracleRequests.WithLabelValues("decode_error").Inc()
			return nil, err
		}
		metrics.MetadataOracleRequests.WithLabelValues("ok").Inc()
		return parsed, nil
	})

	if err != nil {
		if err == gobreaker.ErrOpenState {
			metrics.CircuitBreakerFailures.WithLabelValues("metadata_oracle").Inc()
			logging.Warn(ctx, "metadata oracle circuit open, serving fallback")
		}
		return "", "", err
	}

	parsed := result.(oEmbedResponse)
	return parsed.Title, parsed.ThumbnailURL, nil
}

// timeObserve records the duration of a single Lookup call, deferred by
// Lookup so the measured wall time includes the circuit breaker.
func timeObserve(start time.Time) {
	metrics.MetadataOracleDuration.Observe(time.Since(start).Seconds())
}
