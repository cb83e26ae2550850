package retry

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Policy parameterizes Do. The zero value is not usable; use DefaultPolicy
// or build one explicitly.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// IsRetryable decides whether an error is worth another attempt.
	// A nil predicate retries everything.
	IsRetryable func(error) bool
}

// DefaultPolicy retries transient network failures up to three times with
// exponential backoff starting at one second.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		IsRetryable: IsTransientNetworkError,
	}
}

// Do runs fn until it succeeds, the error is non-retryable, attempts are
// exhausted, or ctx is cancelled. The delay doubles after each failure.
func Do(ctx context.Context, policy Policy, fn func(ctx context.Context) error) error {
	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	delay := policy.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if policy.IsRetryable != nil && !policy.IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		logrus.WithError(lastErr).Warnf("[RETRY] Attempt %d/%d failed, retrying in %s", attempt, attempts, delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return lastErr
}

// IsTransientNetworkError matches the failure classes that usually resolve
// on their own: resets, timeouts, unreachable networks.
func IsTransientNetworkError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range []string{
		"connection reset",
		"connection refused",
		"timeout",
		"deadline exceeded",
		"network is unreachable",
		"temporary failure",
		"unavailable",
		"eof",
	} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
