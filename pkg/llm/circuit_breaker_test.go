package llm

import (
	"errors"
	"testing"
	"time"
)

var providerDown = NewError(ErrorTypeEndpoint, "server error", true, nil)

func newTestBreaker(threshold int) (*CircuitBreaker, *time.Time) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: threshold, ResetAfter: 30 * time.Second})
	cb.now = func() time.Time { return now }
	return cb, &now
}

func TestCircuitBreaker_TripsAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(3)

	for i := 0; i < 3; i++ {
		if err := cb.Allow(); err != nil {
			t.Fatalf("attempt %d: unexpected rejection: %v", i, err)
		}
		cb.Record(providerDown)
	}

	if cb.State() != CircuitOpen {
		t.Fatalf("expected open circuit, got %v", cb.State())
	}

	err := cb.Allow()
	if err == nil {
		t.Fatal("expected open circuit to reject")
	}
	if GetErrorType(err) != ErrorTypeUnavailable || !IsRetryable(err) {
		t.Errorf("expected retryable unavailable error, got %v", err)
	}
}

func TestCircuitBreaker_IgnoresModelFaults(t *testing.T) {
	cb, _ := newTestBreaker(2)

	for i := 0; i < 5; i++ {
		cb.Record(NewIncompleteError("length"))
		cb.Record(NewError(ErrorTypeAuth, "authentication failed", false, nil))
		cb.Record(errors.New("plain"))
	}

	if cb.State() != CircuitClosed {
		t.Errorf("expected closed circuit, got %v", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenTrial(t *testing.T) {
	cb, now := newTestBreaker(1)

	cb.Record(providerDown)
	if cb.Allow() == nil {
		t.Fatal("expected rejection while open")
	}

	*now = now.Add(31 * time.Second)
	if err := cb.Allow(); err != nil {
		t.Fatalf("expected trial request to be allowed, got %v", err)
	}
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("expected half-open, got %v", cb.State())
	}
	if cb.Allow() == nil {
		t.Error("expected second request during trial to be rejected")
	}

	cb.Record(nil)
	if cb.State() != CircuitClosed {
		t.Errorf("expected successful trial to close circuit, got %v", cb.State())
	}
}

func TestCircuitBreaker_FailedTrialReopens(t *testing.T) {
	cb, now := newTestBreaker(1)

	cb.Record(providerDown)
	*now = now.Add(31 * time.Second)
	_ = cb.Allow()
	cb.Record(providerDown)

	if cb.State() != CircuitOpen {
		t.Errorf("expected failed trial to reopen circuit, got %v", cb.State())
	}
}

func TestCircuitBreaker_DisabledWithZeroThreshold(t *testing.T) {
	cb, _ := newTestBreaker(0)
	for i := 0; i < 10; i++ {
		cb.Record(providerDown)
	}
	if err := cb.Allow(); err != nil {
		t.Errorf("disabled breaker should never reject, got %v", err)
	}
}

func TestCircuitState_String(t *testing.T) {
	if CircuitHalfOpen.String() != "half-open" || CircuitState(9).String() != "unknown" {
		t.Error("unexpected state names")
	}
}
