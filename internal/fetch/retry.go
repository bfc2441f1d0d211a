package fetch

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"
)

const (
	defaultAttempts = 3
	defaultBackoff  = 100 * time.Millisecond
)

// withRetry calls fn up to attempts times, sleeping with exponential backoff
// and jitter between attempts. Only transient errors are retried. reset runs
// before each retry and may be nil.
func withRetry(ctx context.Context, attempts int, base time.Duration, reset func(), fn func() (Result, error)) (Result, error) {
	var lastErr error
	for attempt := range attempts {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if attempt == attempts-1 || !isTransientError(err) {
			break
		}
		if err := sleep(ctx, backoff(base, attempt)); err != nil {
			return Result{}, err
		}
		if reset != nil {
			reset()
		}
	}
	return Result{}, lastErr
}

func backoff(base time.Duration, attempt int) time.Duration {
	d := base * time.Duration(1<<uint(attempt))
	if d <= 1 {
		return d
	}
	return d + rand.N(d/2)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if isTimeoutError(err) || isTemporaryError(err) {
		return true
	}
	errStr := err.Error()
	switch {
	case strings.HasSuffix(errStr, "EOF"):
		return true
	case strings.Contains(errStr, "no recent network activity"):
		return true
	case strings.Contains(errStr, "connection refused"):
		return true
	case strings.Contains(errStr, "connection reset"):
		return true
	}
	return false
}

func isTimeoutError(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

func isTemporaryError(err error) bool {
	var te interface{ Temporary() bool }
	return errors.As(err, &te) && te.Temporary()
}
