package inference

import (
	"sync"
	"time"

	"legal-extraction-engine/internal/xerrors"
)

// BreakerState is one of the three circuit breaker states in
// spec.md §4.6.
type BreakerState string

const (
	BreakerClosed   BreakerState = "closed"
	BreakerOpen     BreakerState = "open"
	BreakerHalfOpen BreakerState = "half_open"
)

// CircuitBreaker is a small, lock-protected state machine (spec.md §9):
// Closed → Open after FailureThreshold consecutive failures; remains
// Open for RecoveryTimeout; transitions to Half-Open, admits a single
// probe, and closes on success or re-opens on failure.
type CircuitBreaker struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration

	mu              sync.Mutex
	state           BreakerState
	consecutiveFail int
	openedAt        time.Time
	probeInFlight   bool
}

// NewCircuitBreaker builds a breaker starting Closed.
func NewCircuitBreaker(failureThreshold int, recoveryTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		FailureThreshold: failureThreshold,
		RecoveryTimeout:  recoveryTimeout,
		state:            BreakerClosed,
	}
}

// Allow reports whether a new call may proceed, and transitions
// Open→Half-Open when the recovery timeout has elapsed.
func (b *CircuitBreaker) Allow() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return true, nil
	case BreakerOpen:
		if time.Since(b.openedAt) >= b.RecoveryTimeout {
			b.state = BreakerHalfOpen
			b.probeInFlight = true
			return true, nil
		}
		return false, xerrors.NewFatalBackendError("circuit breaker open", 0)
	case BreakerHalfOpen:
		if b.probeInFlight {
			return false, xerrors.NewFatalBackendError("circuit breaker half-open: probe in flight", 0)
		}
		b.probeInFlight = true
		return true, nil
	default:
		return true, nil
	}
}

// RecordSuccess closes the breaker (from Closed or Half-Open).
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = BreakerClosed
	b.consecutiveFail = 0
	b.probeInFlight = false
}

// RecordFailure increments the failure count; opens the breaker when
// the threshold is reached, or immediately re-opens from Half-Open.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerHalfOpen {
		b.state = BreakerOpen
		b.openedAt = time.Now()
		b.probeInFlight = false
		return
	}

	b.consecutiveFail++
	if b.consecutiveFail >= b.FailureThreshold {
		b.state = BreakerOpen
		b.openedAt = time.Now()
	}
}

// State returns the current state (for metrics/inspection).
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
