package helpers

import (
	"context"
	"time"
)

// RetryPolicy describes how many times an operation is retried and how long
// to wait between attempts. Attempts are numbered from 1.
type RetryPolicy struct {
	// MaxRetries is the number of attempts after the first one
	MaxRetries int
	// Backoff returns the delay after the given failed attempt
	Backoff func(attempt int) time.Duration
	// Sleep waits for d or until ctx is done; nil means SleepContext
	Sleep func(ctx context.Context, d time.Duration) error
}

// LinearBackoff waits step*attempt after each failed attempt
func LinearBackoff(step time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * step
	}
}

// SleepContext sleeps for d, returning early with ctx.Err() on cancellation
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do runs op until it succeeds or the attempts are used up. It returns the
// number of attempts made and the last error. No delay follows the final
// attempt.
func (p RetryPolicy) Do(ctx context.Context, op func(attempt int) error) (int, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}
	maxAttempts := p.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = op(attempt); err == nil {
			return attempt, nil
		}
		if ctx.Err() != nil {
			return attempt, err
		}
		if attempt == maxAttempts {
			break
		}
		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff(attempt)
		}
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return attempt, err
		}
	}
	return maxAttempts, err
}
