package capability

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"time"
)

// RetryOptions bounds the retry loop around a single capability call.
type RetryOptions struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// RequestTimeout bounds each individual attempt.
	RequestTimeout time.Duration
	// BaseDelay is the sleep before the first retry.
	BaseDelay time.Duration
	// MaxDelay caps exponential backoff.
	MaxDelay time.Duration
	// JitterFrac applies +/- jitter to backoff sleeps (0.2 = +/-20%).
	// Negative disables jitter entirely.
	JitterFrac float64
}

func (o RetryOptions) withDefaults() RetryOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 30 * time.Second
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = 1 * time.Second
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 10 * time.Second
	}
	if o.JitterFrac == 0 {
		o.JitterFrac = 0.2
	}
	return o
}

// Call invokes fn with bounded retries. Only transient failures (timeouts,
// network errors, TransientError) are retried; parse and validation failures
// return immediately so fallback logic can take over.
func Call[T any](ctx context.Context, opts RetryOptions, fn func(context.Context) (T, error)) (T, error) {
	opts = opts.withDefaults()

	var last T
	var lastErr error
	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return last, err
		}

		reqCtx, cancel := context.WithTimeout(ctx, opts.RequestTimeout)
		out, err := fn(reqCtx)
		cancel()
		last = out
		if err == nil {
			return out, nil
		}
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return last, ctx.Err()
		}
		lastErr = err
		if !IsTransient(err) || attempt == opts.MaxAttempts-1 {
			return last, err
		}

		t := time.NewTimer(backoffSleep(opts.BaseDelay, opts.MaxDelay, opts.JitterFrac, attempt))
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return last, ctx.Err()
		}
	}
	return last, lastErr
}

// IsTransient reports whether an error is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}

func backoffSleep(base, max time.Duration, jitterFrac float64, attempt int) time.Duration {
	sleep := base
	for i := 0; i < attempt && sleep < max; i++ {
		sleep *= 2
		if sleep > max {
			sleep = max
			break
		}
	}
	if jitterFrac <= 0 {
		return sleep
	}
	j := 1 + (rand.Float64()*2-1)*jitterFrac
	return time.Duration(float64(sleep) * j)
}
