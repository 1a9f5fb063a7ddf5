// Package retry wraps remote calls in an injectable retry policy.
package retry

import (
	"context"
	"errors"
	"net"
	"time"
)

// Policy runs fn, possibly more than once. op names the call for logs.
type Policy interface {
	Do(ctx context.Context, op string, fn func(ctx context.Context) error) error
}

// None calls fn exactly once.
type None struct{}

// Do implements Policy.
func (None) Do(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Backoff retries transient failures with exponential backoff.
// Attempts counts the first call; values below 2 disable retries.
type Backoff struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
	// OnRetry is called before each sleep. Optional.
	OnRetry func(op string, attempt int, err error)

	sleep func(ctx context.Context, d time.Duration) error
}

// Do implements Policy.
func (b Backoff) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	sleep := b.sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	delay := b.Initial
	var err error
	for attempt := 1; ; attempt++ {
		err = fn(ctx)
		if err == nil || attempt >= b.Attempts || !Transient(err) {
			return err
		}
		if b.OnRetry != nil {
			b.OnRetry(op, attempt, err)
		}
		if serr := sleep(ctx, delay); serr != nil {
			return err
		}
		delay *= 2
		if b.Max > 0 && delay > b.Max {
			delay = b.Max
		}
	}
}

// New returns None when attempts <= 1 and a Backoff otherwise.
func New(attempts int, initial, maxDelay time.Duration) Policy {
	if attempts <= 1 {
		return None{}
	}
	return Backoff{Attempts: attempts, Initial: initial, Max: maxDelay}
}

// transient is implemented by errors that know whether a retry may help,
// such as *db.APIError.
type transient interface {
	Transient() bool
}

// Transient reports whether err looks worth retrying: throttling, 5xx and
// network timeouts. Context cancellation never is.
func Transient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var t transient
	if errors.As(err, &t) {
		return t.Transient()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
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
