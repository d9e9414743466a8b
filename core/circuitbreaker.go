package core

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// BreakerState is the state of a CircuitBreaker
type BreakerState string

const (
	// BreakerClosed lets calls through
	BreakerClosed BreakerState = "closed"
	// BreakerOpen rejects calls until the cooldown has passed
	BreakerOpen BreakerState = "open"
	// BreakerHalfOpen lets a single probe call through
	BreakerHalfOpen BreakerState = "half_open"
)

// ErrBreakerOpen is returned by Allow while calls are being skipped
var ErrBreakerOpen = errors.New("circuit breaker is open")

// BreakerConfig holds the thresholds of a CircuitBreaker
type BreakerConfig struct {
	// MaxFailures consecutive failures open the breaker
	MaxFailures uint32
	// Cooldown is how long the breaker stays open before probing
	Cooldown time.Duration
}

// Validate checks the thresholds
func (c BreakerConfig) Validate() error {
	if c.MaxFailures == 0 {
		return errors.New("MaxFailures must be greater than 0")
	}
	if c.Cooldown <= 0 {
		return errors.New("Cooldown must be greater than 0")
	}
	return nil
}

// DefaultBreakerConfig is used for the Redis rate limit counter
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures: 3,
		Cooldown:    30 * time.Second,
	}
}

// CircuitBreaker stops calling a failing dependency for a cooldown period.
// The rate limiter uses it so that an unreachable Redis costs one failed
// round trip per cooldown instead of one per request.
type CircuitBreaker struct {
	config   BreakerConfig
	state    BreakerState
	failures uint32
	openedAt time.Time
	probing  bool
	now      func() time.Time
	mu       sync.Mutex
}

// NewCircuitBreaker creates a closed breaker
func NewCircuitBreaker(config BreakerConfig) (*CircuitBreaker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid circuit breaker configuration: %w", err)
	}
	return &CircuitBreaker{
		config: config,
		state:  BreakerClosed,
		now:    time.Now,
	}, nil
}

// Allow reports whether a call may go through. In the half-open state only
// one probe is admitted until its outcome is recorded.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerOpen:
		if cb.now().Sub(cb.openedAt) < cb.config.Cooldown {
			return ErrBreakerOpen
		}
		cb.state = BreakerHalfOpen
		cb.probing = true
		return nil
	case BreakerHalfOpen:
		if cb.probing {
			return ErrBreakerOpen
		}
		cb.probing = true
		return nil
	default:
		return nil
	}
}

// RecordSuccess closes the breaker. It returns the previous state.
func (cb *CircuitBreaker) RecordSuccess() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	prev := cb.state
	cb.state = BreakerClosed
	cb.failures = 0
	cb.probing = false
	return prev
}

// RecordFailure counts a failure and opens the breaker when the threshold is
// reached or a probe fails. It returns the new state.
func (cb *CircuitBreaker) RecordFailure() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.probing = false
	if cb.state == BreakerHalfOpen || cb.failures >= cb.config.MaxFailures {
		cb.state = BreakerOpen
		cb.openedAt = cb.now()
	}
	return cb.state
}

// State returns the current state
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
