package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry_SucceedsFirstAttempt(t *testing.T) {
	r := Retry{InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, MaxAttempts: 3}
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestRetry_RecoversAfterFailures(t *testing.T) {
	r := Retry{InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, MaxAttempts: 3}
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errTest
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_ExhaustionReturnsLastError(t *testing.T) {
	r := Retry{InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, MaxAttempts: 3}
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return errTest
	})
	if !errors.Is(err, errTest) {
		t.Fatalf("expected errTest, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_ExhaustionObservesFullBackoffWindow(t *testing.T) {
	r := Retry{InitialDelay: 10 * time.Millisecond, MaxDelay: 30 * time.Millisecond, MaxAttempts: 3}
	start := time.Now()
	err := r.Do(context.Background(), func() error { return errTest })
	if !errors.Is(err, errTest) {
		t.Fatalf("expected errTest, got %v", err)
	}
	// Delays escalate 10ms, 20ms, 30ms and the final failure backs off too.
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Fatalf("exhaustion took %v, want at least the 60ms backoff window", elapsed)
	}
}

func TestRetry_ContextCancelledWhileWaiting(t *testing.T) {
	r := Retry{InitialDelay: time.Minute, MaxDelay: time.Minute, MaxAttempts: 3}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := r.Do(ctx, func() error { return errTest })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRetry_DelayEscalatesAndCaps(t *testing.T) {
	r := DefaultConnectRetry()
	if d := r.Delay(1); d != time.Second {
		t.Fatalf("Delay(1) = %v, want 1s", d)
	}
	if d := r.Delay(2); d != 2*time.Second {
		t.Fatalf("Delay(2) = %v, want 2s", d)
	}
	if d := r.Delay(5); d != 3*time.Second {
		t.Fatalf("Delay(5) = %v, want cap 3s", d)
	}
}
