// Package retry implements the bounded exponential backoff used around
// upstream feed fetches. The caller injects a Retryable classifier deciding
// which failures are worth repeating; the package itself stays free of
// domain imports so error-classification packages can build on it.
package retry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// Config bounds one retry loop.
type Config struct {
	// MaxAttempts is the total number of attempts, the first call included.
	// Zero or negative means a single attempt.
	MaxAttempts int
	// InitialDelay is the wait before the second attempt.
	InitialDelay time.Duration
	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration
	// Multiplier scales the delay after each failed attempt.
	Multiplier float64
	// AddJitter spreads delays by up to 25% so coalesced callers do not
	// hammer the upstream in lockstep.
	AddJitter bool
	// Retryable decides whether a failed attempt should be repeated. A nil
	// classifier retries every error until the attempt budget runs out.
	Retryable func(error) bool
}

// DefaultConfig returns the backoff used when a caller has no opinion.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		AddJitter:    true,
	}
}

// normalize fills in defaults and rejects configurations the loop cannot
// honor.
func (c Config) normalize() (Config, error) {
	if c.InitialDelay < 0 || c.MaxDelay < 0 || c.Multiplier < 0 {
		return c, fmt.Errorf("retry: delays and multiplier must be non-negative")
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 1
	}
	if c.InitialDelay == 0 {
		c.InitialDelay = 100 * time.Millisecond
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = 5 * time.Second
	}
	if c.Multiplier == 0 {
		c.Multiplier = 2.0
	}
	if c.Multiplier > 1000 {
		c.Multiplier = 1000
	}
	if c.MaxDelay < c.InitialDelay {
		return c, fmt.Errorf("retry: MaxDelay %v below InitialDelay %v", c.MaxDelay, c.InitialDelay)
	}
	return c, nil
}

// Do runs fn until it succeeds, the classifier rules the error out, the
// attempt budget is spent, or ctx is cancelled during a backoff wait.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	cfg, err := cfg.normalize()
	if err != nil {
		return err
	}

	delay := cfg.InitialDelay
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if cfg.Retryable != nil && !cfg.Retryable(err) {
			return err
		}
		if attempt == cfg.MaxAttempts {
			return fmt.Errorf("retry: gave up after %d attempts: %w", cfg.MaxAttempts, err)
		}

		if waitErr := wait(ctx, jittered(delay, cfg.AddJitter)); waitErr != nil {
			return fmt.Errorf("retry: attempt %d abandoned: %w", attempt+1, waitErr)
		}
		delay = nextDelay(delay, cfg.Multiplier, cfg.MaxDelay)
	}
}

// DoWithResult is Do for operations that produce a value.
func DoWithResult[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var result T
	err := Do(ctx, cfg, func() error {
		var err error
		result, err = fn()
		return err
	})
	return result, err
}

// wait blocks for d or until ctx is cancelled.
func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// jittered stretches a delay by up to a quarter of its length.
func jittered(d time.Duration, add bool) time.Duration {
	if !add || d <= 0 {
		return d
	}
	return d + rand.N(d/4+1)
}

// nextDelay grows the backoff geometrically up to the cap.
func nextDelay(d time.Duration, multiplier float64, maxDelay time.Duration) time.Duration {
	next := float64(d) * multiplier
	if next >= float64(maxDelay) {
		return maxDelay
	}
	return time.Duration(next)
}
