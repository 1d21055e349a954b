// Package resilience provides circuit breakers and rate limiting for calls
// to external market-data sources.
package resilience

import (
	"time"

	"github.com/sony/gobreaker"

	apperrors "options-income/internal/errors"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState string

const (
	CircuitClosed   CircuitState = "CLOSED"
	CircuitOpen     CircuitState = "OPEN"
	CircuitHalfOpen CircuitState = "HALF_OPEN"
)

// CircuitBreakerConfig holds circuit breaker configuration.
type CircuitBreakerConfig struct {
	// MaxConsecutiveFailures trips the breaker.
	MaxConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
	// Interval clears closed-state counts; zero never clears.
	Interval time.Duration
	// IsSuccessful classifies errors that must not count as failures.
	IsSuccessful func(err error) bool
	// OnStateChange observes transitions.
	OnStateChange func(name string, from, to CircuitState)
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxConsecutiveFailures: 5,
		OpenTimeout:            30 * time.Second,
		Interval:               60 * time.Second,
	}
}

// CircuitBreaker guards one upstream dependency.
type CircuitBreaker struct {
	name string
	cb   *gobreaker.CircuitBreaker
}

// CircuitBreakerStats is a snapshot of a breaker's counters.
type CircuitBreakerStats struct {
	Name                 string       `json:"name"`
	State                CircuitState `json:"state"`
	Requests             uint32       `json:"requests"`
	TotalFailures        uint32       `json:"total_failures"`
	ConsecutiveFailures  uint32       `json:"consecutive_failures"`
	ConsecutiveSuccesses uint32       `json:"consecutive_successes"`
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(name string, config CircuitBreakerConfig) *CircuitBreaker {
	threshold := config.MaxConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}

	st := gobreaker.Settings{
		Name:     name,
		Interval: config.Interval,
		Timeout:  config.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			return config.IsSuccessful != nil && config.IsSuccessful(err)
		},
	}
	if config.OnStateChange != nil {
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			config.OnStateChange(name, fromGobreaker(from), fromGobreaker(to))
		}
	}

	return &CircuitBreaker{name: name, cb: gobreaker.NewCircuitBreaker(st)}
}

// Execute runs fn under breaker protection. Rejections wrap ErrCircuitOpen.
func (c *CircuitBreaker) Execute(fn func() error) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return apperrors.Wrapf(apperrors.ErrCircuitOpen, "%s", c.name)
	}
	return err
}

// Name returns the breaker name.
func (c *CircuitBreaker) Name() string {
	return c.name
}

// State returns the current state.
func (c *CircuitBreaker) State() CircuitState {
	return fromGobreaker(c.cb.State())
}

// Stats returns the current counters.
func (c *CircuitBreaker) Stats() CircuitBreakerStats {
	counts := c.cb.Counts()
	return CircuitBreakerStats{
		Name:                 c.name,
		State:                c.State(),
		Requests:             counts.Requests,
		TotalFailures:        counts.TotalFailures,
		ConsecutiveFailures:  counts.ConsecutiveFailures,
		ConsecutiveSuccesses: counts.ConsecutiveSuccesses,
	}
}

func fromGobreaker(s gobreaker.State) CircuitState {
	switch s {
	case gobreaker.StateOpen:
		return CircuitOpen
	case gobreaker.StateHalfOpen:
		return CircuitHalfOpen
	default:
		return CircuitClosed
	}
}
