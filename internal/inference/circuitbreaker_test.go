package inference

import (
	"testing"
	"time"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, 50*time.Millisecond)
	for i := 0; i < 3; i++ {
		allowed, _ := cb.Allow()
		if !allowed {
			t.Fatalf("expected call %d to be allowed while closed", i)
		}
		cb.RecordFailure()
	}
	if cb.State() != BreakerOpen {
		t.Fatalf("expected breaker to open after threshold failures, got %s", cb.State())
	}
	if allowed, _ := cb.Allow(); allowed {
		t.Fatal("expected breaker to reject calls while open")
	}
}

func TestCircuitBreakerHalfOpenRecovers(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond)
	cb.RecordFailure()
	if cb.State() != BreakerOpen {
		t.Fatal("expected open after single failure threshold=1")
	}
	time.Sleep(20 * time.Millisecond)
	allowed, _ := cb.Allow()
	if !allowed {
		t.Fatal("expected probe to be allowed once recovery timeout elapses")
	}
	if cb.State() != BreakerHalfOpen {
		t.Fatalf("expected half-open, got %s", cb.State())
	}
	cb.RecordSuccess()
	if cb.State() != BreakerClosed {
		t.Fatalf("expected closed after successful probe, got %s", cb.State())
	}
}
