// Package retry provides a small retry-with-backoff combinator used for
// chunk transfers. The delay schedule is a function of the attempt number,
// so callers fix the exact policy (linear, constant, ...) at the call site.
package retry

import (
	"context"
	"fmt"
	"time"
)

// DelayFunc maps a 1-based attempt number to the pause taken after that
// attempt fails.
type DelayFunc func(attempt int) time.Duration

// Linear returns a schedule of attempt × step: 1×step after the first
// failure, 2×step after the second, and so on.
func Linear(step time.Duration) DelayFunc {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * step
	}
}

// Do runs op up to maxAttempts times, sleeping delay(attempt) between
// failures. It returns nil on the first success, the last error once the
// attempts are exhausted, and the context error if ctx is done while
// waiting between attempts.
func Do(ctx context.Context, maxAttempts int, delay DelayFunc, op func(ctx context.Context) error) error {
	if maxAttempts < 1 {
		return fmt.Errorf("retry: maxAttempts must be >= 1, got %d", maxAttempts)
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}

		timer := time.NewTimer(delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("after %d attempts: %w", maxAttempts, err)
}
