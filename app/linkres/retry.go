package linkres

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

var ErrRetriesExhausted = errors.New("retries exhausted")

// Retry runs an operation a bounded number of times. Every attempt is
// preceded by a random pause of up to PreJitter, and every failed attempt
// except the last is followed by a random pause of up to BackoffJitter.
type Retry struct {
	Attempts      int
	PreJitter     time.Duration
	BackoffJitter time.Duration

	// Sleep and Jitter are replaced in tests.
	Sleep  func(ctx context.Context, d time.Duration) error
	Jitter func(max time.Duration) time.Duration
}

func DefaultRetry() Retry {
	return Retry{
		Attempts:      3,
		PreJitter:     2 * time.Second,
		BackoffJitter: 5 * time.Second,
		Sleep:         SleepContext,
		Jitter:        RandomJitter,
	}
}

func (r Retry) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := r.pause(ctx, r.PreJitter); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt < attempts {
			if err := r.pause(ctx, r.BackoffJitter); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempts, lastErr)
}

func (r Retry) pause(ctx context.Context, max time.Duration) error {
	if max <= 0 {
		return ctx.Err()
	}
	jitter := RandomJitter
	if r.Jitter != nil {
		jitter = r.Jitter
	}
	sleep := SleepContext
	if r.Sleep != nil {
		sleep = r.Sleep
	}
	return sleep(ctx, jitter(max))
}

// RandomJitter returns a uniformly distributed duration in [0, max).
func RandomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(max)))
}

// SleepContext sleeps for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
