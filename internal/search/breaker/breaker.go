package breaker

import (
	"sync"
	"time"

	"github.com/searchmesh/searchmesh/internal/search/types"
)

// State represents the circuit breaker state
type State int

const (
	// StateClosed allows requests through (normal operation)
	StateClosed State = iota
	// StateOpen rejects requests immediately
	StateOpen
	// StateHalfOpen lets a trial request test recovery
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

const (
	// DefaultFailureThreshold is the consecutive-failure count that opens the circuit
	DefaultFailureThreshold = 5
	// DefaultTimeout is how long an open circuit waits before permitting a trial
	DefaultTimeout = 30 * time.Second
)

// CircuitBreaker tracks one provider's health and gates calls to it.
//
// Transitions:
//   - Closed -> Open: failure count reaches the threshold
//   - Open -> HalfOpen: TryAcquire after the timeout elapses
//   - HalfOpen -> Closed: a success is recorded
//   - HalfOpen -> Open: a failure is recorded
//
// All mutations happen under one mutex so concurrent callers observe
// transitions atomically. While HalfOpen, TryAcquire admits callers
// rather than strictly limiting to a single in-flight trial; the first
// recorded outcome resolves the trial.
type CircuitBreaker struct {
	mu sync.Mutex

	name             string
	failureThreshold int
	timeout          time.Duration

	state        State
	failureCount int
	successCount int
	lastFailure  time.Time
}

// New creates a circuit breaker in the Closed state. Non-positive
// threshold or timeout fall back to the defaults.
func New(name string, failureThreshold int, timeout time.Duration) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = DefaultFailureThreshold
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &CircuitBreaker{
		name:             name,
		failureThreshold: failureThreshold,
		timeout:          timeout,
		state:            StateClosed,
	}
}

// Name returns the breaker name
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// TryAcquire reports whether a call is permitted right now. When the
// circuit is Open and the timeout has elapsed, it transitions to
// HalfOpen as a side effect and admits the caller as the trial.
func (cb *CircuitBreaker) TryAcquire() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if cb.lastFailure.IsZero() || time.Since(cb.lastFailure) < cb.timeout {
			return false
		}
		cb.state = StateHalfOpen
		return true
	default:
		return false
	}
}

// RecordSuccess records a successful call. A success while HalfOpen
// closes the circuit and resets the failure count.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen {
		cb.state = StateClosed
		cb.failureCount = 0
	}
	cb.successCount++
}

// RecordFailure records a failed call and stamps the failure time.
// A failure while HalfOpen reopens the circuit; reaching the threshold
// while Closed opens it.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	cb.lastFailure = time.Now()

	switch cb.state {
	case StateHalfOpen:
		cb.state = StateOpen
	case StateClosed:
		if cb.failureCount >= cb.failureThreshold {
			cb.state = StateOpen
		}
	}
}

// State returns the current state
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats returns a read-only snapshot without side effects
func (cb *CircuitBreaker) Stats() types.BreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	stats := types.BreakerStats{
		Name:         cb.name,
		State:        cb.state.String(),
		FailureCount: cb.failureCount,
		SuccessCount: cb.successCount,
	}
	if !cb.lastFailure.IsZero() {
		t := cb.lastFailure
		stats.LastFailure = &t
	}
	return stats
}
