// Package retry runs operations with a bounded number of attempts and a fixed delay between them.
package retry

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/util/wait"
)

type config struct {
	attempts int
	delay    time.Duration
	onRetry  func(attempt int, err error)
}

type Option func(*config)

func WithAttempts(n int) Option {
	return func(c *config) {
		c.attempts = n
	}
}

func WithDelay(d time.Duration) Option {
	return func(c *config) {
		c.delay = d
	}
}

// WithOnRetry registers fn to be called after a failed attempt that will be retried.
func WithOnRetry(fn func(attempt int, err error)) Option {
	return func(c *config) {
		c.onRetry = fn
	}
}

// Do calls op until it succeeds or the attempts run out. It returns the number of attempts made
// and the last error. Cancelling ctx stops the loop during a delay.
func Do(ctx context.Context, op func(attempt int) error, opts ...Option) (int, error) {
	c := &config{attempts: 1}
	for _, opt := range opts {
		opt(c)
	}
	if c.attempts < 1 {
		c.attempts = 1
	}
	backoff := wait.Backoff{Duration: c.delay, Factor: 1, Steps: c.attempts}
	attempt := 0
	var lastErr error
	err := wait.ExponentialBackoffWithContext(ctx, backoff, func(ctx context.Context) (bool, error) {
		attempt++
		if lastErr = op(attempt); lastErr == nil {
			return true, nil
		}
		if attempt < c.attempts && c.onRetry != nil {
			c.onRetry(attempt, lastErr)
		}
		return false, nil
	})
	switch {
	case err == nil:
		return attempt, nil
	case ctx.Err() != nil:
		return attempt, ctx.Err()
	case wait.Interrupted(err) && lastErr != nil:
		return attempt, errors.Wrapf(lastErr, "giving up after %d attempts", attempt)
	}
	return attempt, err
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
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
