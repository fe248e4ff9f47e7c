package main

import (
	"context"
	"testing"
	"time"
)

func TestRunHeadless_UnpacedStopsOnStep(t *testing.T) {
	calls := 0
	runHeadless(context.Background(), 0, func() bool {
		calls++
		return calls < 100
	})
	if calls != 100 {
		t.Errorf("calls = %d, want 100", calls)
	}
}

func TestRunHeadless_PacedByInterval(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	calls := 0
	runHeadless(ctx, 20*time.Millisecond, func() bool {
		calls++
		return true
	})
	// About five ticks fit in the window; an unpaced loop would run thousands.
	if calls < 1 || calls > 10 {
		t.Errorf("calls = %d, want roughly 5", calls)
	}
}

func TestRunHeadless_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, interval := range []time.Duration{0, time.Millisecond} {
		calls := 0
		runHeadless(ctx, interval, func() bool {
			calls++
			return true
		})
		if calls != 0 {
			t.Errorf("interval %v: calls = %d after cancel, want 0", interval, calls)
		}
	}
}
