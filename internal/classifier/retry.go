package classifier

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryClient is a decorator that retries transient classification
// failures with exponential backoff and jitter. Retries are local to the
// client; the dispatcher never retries at the batch level.
type RetryClient struct {
	inner  Client
	config RetryConfig
}

// WithRetry wraps a Client with retry logic.
func WithRetry(c Client, cfg RetryConfig) Client {
	return &RetryClient{inner: c, config: cfg}
}

func (r *RetryClient) Classify(ctx context.Context, text string) (*Verdict, error) {
	var lastErr error

	for attempt := range r.config.MaxAttempts {
		verdict, err := r.inner.Classify(ctx, text)
		if err == nil {
			return verdict, nil
		}
		lastErr = err

		if !shouldRetry(err) {
			return nil, err
		}

		// Last attempt — don't sleep, just return the error.
		if attempt == r.config.MaxAttempts-1 {
			break
		}

		wait := r.backoff(attempt, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	// Exhausted retries: surface as unavailable carrying the last cause.
	var unavail *ErrUnavailable
	if errors.As(lastErr, &unavail) {
		return nil, lastErr
	}
	return nil, &ErrUnavailable{Err: lastErr}
}

// shouldRetry determines if an error is transient.
func shouldRetry(err error) bool {
	// Context errors are never retried.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// 4xx is permanent: the request itself is wrong.
	var perm *ErrPermanent
	if errors.As(err, &perm) {
		return false
	}

	// Rate limits, 5xx, timeouts, connection errors are transient.
	return true
}

// backoff computes the wait duration for the given attempt.
func (r *RetryClient) backoff(attempt int, err error) time.Duration {
	// Respect Retry-After for rate limits.
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	if wait > float64(r.config.MaxWait) {
		wait = float64(r.config.MaxWait)
	}

	// Add ±20% jitter.
	jitter := wait * 0.2 * (2*rand.Float64() - 1)
	wait += jitter

	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
