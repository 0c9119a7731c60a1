package catrate

import (
	"testing"
	"time"
)

// These cover only the Limiter surface worker.Worker actually drives:
// NewLimiter + Allow, keyed per category (worker uses the thread as the
// category), one event per window.

func TestNewLimiterPanicsOnInvalidRates(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected NewLimiter to panic on an empty rates map")
		}
	}()
	NewLimiter(nil)
}

func TestLimiterAllowsFirstEventPerCategory(t *testing.T) {
	limiter := NewLimiter(map[time.Duration]int{time.Second: 1})

	if _, ok := limiter.Allow("worker-0"); !ok {
		t.Fatal("expected the first event for a fresh category to be allowed")
	}
}

func TestLimiterDeniesSecondEventWithinWindow(t *testing.T) {
	limiter := NewLimiter(map[time.Duration]int{time.Second: 1})

	if _, ok := limiter.Allow("worker-0"); !ok {
		t.Fatal("expected the first event to be allowed")
	}
	if _, ok := limiter.Allow("worker-0"); ok {
		t.Fatal("expected a second event within the same window to be denied")
	}
}

func TestLimiterCategoriesAreIndependent(t *testing.T) {
	limiter := NewLimiter(map[time.Duration]int{time.Second: 1})

	if _, ok := limiter.Allow("worker-0"); !ok {
		t.Fatal("expected worker-0's first event to be allowed")
	}
	if _, ok := limiter.Allow("worker-1"); !ok {
		t.Fatal("expected worker-1's first event to be allowed independently of worker-0")
	}
}
