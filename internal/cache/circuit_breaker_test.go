package cache

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func newTestBreaker(maxFailures, halfOpenCalls int) (*CircuitBreaker, *time.Time) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(&CircuitBreakerConfig{
		MaxFailures:      maxFailures,
		Timeout:          time.Minute,
		HalfOpenMaxCalls: halfOpenCalls,
	})
	cb.now = func() time.Time { return now }
	return cb, &now
}

func fail() error { return fmt.Errorf("operation failed") }
func succeed() error { return nil }

func TestCircuitBreakerStartsClosed(t *testing.T) {
	cb, _ := newTestBreaker(3, 2)

	if cb.State() != CircuitBreakerClosed {
		t.Errorf("Expected initial state to be Closed, got %v", cb.State())
	}
	if err := cb.Execute(succeed); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if cb.State() != CircuitBreakerClosed {
		t.Errorf("Expected state to remain Closed after success, got %v", cb.State())
	}
}

func TestCircuitBreakerOpensAfterMaxFailures(t *testing.T) {
	cb, _ := newTestBreaker(2, 2)

	_ = cb.Execute(fail)
	if cb.State() != CircuitBreakerClosed {
		t.Errorf("Expected Closed after first failure, got %v", cb.State())
	}

	_ = cb.Execute(fail)
	if cb.State() != CircuitBreakerOpen {
		t.Errorf("Expected Open after reaching threshold, got %v", cb.State())
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitBreakerOpen) {
		t.Errorf("Expected ErrCircuitBreakerOpen, got %v", err)
	}
	if called {
		t.Error("Expected function not to run while open")
	}
}

func TestCircuitBreakerSuccessResetsFailureCount(t *testing.T) {
	cb, _ := newTestBreaker(2, 1)

	_ = cb.Execute(fail)
	_ = cb.Execute(succeed)
	_ = cb.Execute(fail)

	if cb.State() != CircuitBreakerClosed {
		t.Errorf("Expected Closed since failures were not consecutive, got %v", cb.State())
	}
}

func TestCircuitBreakerHalfOpenRecovers(t *testing.T) {
	cb, now := newTestBreaker(1, 2)

	_ = cb.Execute(fail)
	*now = now.Add(2 * time.Minute)

	if err := cb.Execute(succeed); err != nil {
		t.Fatalf("Expected trial call to run, got %v", err)
	}
	if cb.State() != CircuitBreakerHalfOpen {
		t.Errorf("Expected HalfOpen after first trial, got %v", cb.State())
	}

	if err := cb.Execute(succeed); err != nil {
		t.Fatalf("Expected second trial call to run, got %v", err)
	}
	if cb.State() != CircuitBreakerClosed {
		t.Errorf("Expected Closed after enough successes, got %v", cb.State())
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb, now := newTestBreaker(1, 2)

	_ = cb.Execute(fail)
	*now = now.Add(2 * time.Minute)
	_ = cb.Execute(fail)

	if cb.State() != CircuitBreakerOpen {
		t.Errorf("Expected Open after failed trial, got %v", cb.State())
	}
	if err := cb.Execute(succeed); !errors.Is(err, ErrCircuitBreakerOpen) {
		t.Errorf("Expected ErrCircuitBreakerOpen, got %v", err)
	}
}

func TestCircuitBreakerStats(t *testing.T) {
	cb, _ := newTestBreaker(1, 1)
	_ = cb.Execute(fail)

	stats := cb.Stats()
	if stats["state"] != "open" {
		t.Errorf("Expected state open, got %v", stats["state"])
	}
	if stats["failure_count"] != 1 {
		t.Errorf("Expected failure_count 1, got %v", stats["failure_count"])
	}
}

func TestCircuitBreakerStateString(t *testing.T) {
	cases := map[CircuitBreakerState]string{
		CircuitBreakerClosed:   "closed",
		CircuitBreakerOpen:     "open",
		CircuitBreakerHalfOpen: "half-open",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}
}
