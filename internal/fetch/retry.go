package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/6529-Collections/flipscan/internal/metrics"
	"go.uber.org/zap"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 500 * time.Millisecond
)

// RetryPolicy retries with linear backoff: after the n-th failed attempt it
// waits n*BaseDelay before trying again.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Metrics     *metrics.Metrics
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
	}
}

// Delay returns the wait after the given 1-based failed attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return time.Duration(attempt) * p.BaseDelay
}

// Do runs fn until it succeeds, returns a Permanent error, the context is
// done, or MaxAttempts is reached. Exhaustion yields an error wrapping
// ErrNoData and the last attempt's error.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			zap.L().Warn("Request failed permanently",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Error(perm.err),
			)
			return perm.err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		lastErr = err
		zap.L().Warn("Request attempt failed",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", attempts),
			zap.Error(err),
		)
		if attempt == attempts {
			break
		}

		p.Metrics.ObserveRetry()
		if SleepInterrupted(ctx, p.Delay(attempt)) {
			return ctx.Err()
		}
	}

	zap.L().Error("Retry limit reached",
		zap.String("op", op),
		zap.Int("attempts", attempts),
		zap.Error(lastErr),
	)
	return fmt.Errorf("%s: %w after %d attempts: %w", op, ErrNoData, attempts, lastErr)
}

// SleepInterrupted waits for d and reports whether ctx ended first.
func SleepInterrupted(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() != nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return true
	case <-timer.C:
		return false
	}
}
