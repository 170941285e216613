// Package retry runs an operation a bounded number of times with a fixed
// pause between attempts.
package retry

import (
	"context"
	"time"
)

// Policy is a fixed-delay retry policy. The zero value makes one attempt.
type Policy struct {
	attempts int
	delay    time.Duration
	onRetry  func(attempt, attempts int, err error)
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option customizes a Policy.
type Option func(*Policy)

// WithOnRetry registers a hook called after every failed attempt that will
// be followed by another one.
func WithOnRetry(fn func(attempt, attempts int, err error)) Option {
	return func(p *Policy) {
		p.onRetry = fn
	}
}

// WithSleep overrides the pause between attempts, primarily for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Policy) {
		if sleep != nil {
			p.sleep = sleep
		}
	}
}

// New returns a policy making up to attempts attempts (at least one) with
// delay between them.
func New(attempts int, delay time.Duration, opts ...Option) *Policy {
	p := &Policy{
		attempts: attempts,
		delay:    delay,
		sleep:    pause,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Attempts returns the maximum number of attempts.
func (p *Policy) Attempts() int {
	if p == nil || p.attempts < 1 {
		return 1
	}
	return p.attempts
}

// Do calls op until it succeeds, fails with an error retryable rejects, or
// the attempts are used up. The last error of op is returned unchanged. A
// context cancelled during a pause also ends the loop with that error.
func (p *Policy) Do(ctx context.Context, op func() error, retryable func(error) bool) error {
	attempts := p.Attempts()

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if retryable == nil || !retryable(err) || attempt == attempts {
			return err
		}

		if p != nil && p.onRetry != nil {
			p.onRetry(attempt, attempts, err)
		}
		if p != nil && p.delay > 0 {
			sleep := p.sleep
			if sleep == nil {
				sleep = pause
			}
			if sleep(ctx, p.delay) != nil {
				return err
			}
		}
	}
	return err
}

func pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
