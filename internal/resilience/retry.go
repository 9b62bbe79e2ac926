package resilience

import (
	"context"
	"time"
)

// Retry is a reusable retry-with-backoff policy. The delay after failed
// attempt n (1-based) is InitialDelay*n capped at MaxDelay, and every failed
// attempt backs off, the last one included, so the default {1s, 3s, 3}
// waits 1s, 2s, and 3s for a 6s worst case before giving up.
type Retry struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
}

// DefaultConnectRetry is the policy for orchestration engine dials.
func DefaultConnectRetry() Retry {
	return Retry{InitialDelay: time.Second, MaxDelay: 3 * time.Second, MaxAttempts: 3}
}

// Delay returns the backoff before the given retry (attempt is 1-based and
// counts completed failures so far).
func (r Retry) Delay(attempt int) time.Duration {
	d := r.InitialDelay * time.Duration(attempt)
	if r.MaxDelay > 0 && d > r.MaxDelay {
		d = r.MaxDelay
	}
	return d
}

// Do runs fn up to MaxAttempts times, sleeping the policy's backoff after
// each failure. It returns nil on the first success, the last error after
// exhaustion, or the context error if ctx is cancelled while waiting.
func (r Retry) Do(ctx context.Context, fn func() error) error {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}

		timer := time.NewTimer(r.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
