package clients

import (
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerConfig holds configuration for upstream call circuit breaking
type BreakerConfig struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
}

// DefaultBreakerConfig returns sensible defaults for collaborator HTTP calls
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests: 3,                // Allow 3 requests in half-open state
		Interval:    10 * time.Second, // Reset failure count every 10 seconds
		Timeout:     30 * time.Second, // Stay open for 30 seconds before trying half-open
	}
}

// Breaker wraps calls to one upstream service with circuit breaker
// protection, so a failing collaborator cannot pile up blocked requests.
type Breaker[T any] struct {
	name    string
	breaker *gobreaker.CircuitBreaker[T]
}

// NewBreaker creates a circuit breaker for the named upstream service
func NewBreaker[T any](name string, config BreakerConfig) *Breaker[T] {
	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("upstream_%s", name),
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		// A 4xx is the upstream answering; only 5xx and transport
		// failures indicate an outage worth tripping on.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.Status < 500
		},
	}

	return &Breaker[T]{
		name:    name,
		breaker: gobreaker.NewCircuitBreaker[T](settings),
	}
}

// Execute runs the provided call with circuit breaker protection
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	result, err := b.breaker.Execute(fn)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s call failed: %w", b.name, err)
	}
	return result, nil
}

// IsOpen returns true if the circuit breaker is open
func (b *Breaker[T]) IsOpen() bool {
	return b.breaker.State() == gobreaker.StateOpen
}

// GetName returns the name of the circuit breaker
func (b *Breaker[T]) GetName() string {
	return b.name
}
