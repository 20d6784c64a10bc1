package classifier

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedClient throttles outbound classification calls so the worker
// pool cannot exceed a configured request rate against the live classifier.
type RateLimitedClient struct {
	inner   Client
	limiter *rate.Limiter
}

// WithRateLimit wraps a Client with a request-rate cap.
// A non-positive rps disables throttling.
func WithRateLimit(c Client, rps float64) Client {
	if rps <= 0 {
		return c
	}
	return &RateLimitedClient{
		inner:   c,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (r *RateLimitedClient) Classify(ctx context.Context, text string) (*Verdict, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.Classify(ctx, text)
}
