package classifier

import (
	"fmt"
	"time"
)

// ErrUnavailable indicates the classifier could not produce a verdict:
// timeouts, connection failures, 5xx responses, or malformed replies.
// Callers decide how an unavailable classification is scored; a default
// severity is never substituted.
type ErrUnavailable struct {
	Err error
}

func (e *ErrUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("classifier unavailable: %v", e.Err)
	}
	return "classifier unavailable"
}

func (e *ErrUnavailable) Unwrap() error { return e.Err }

// ErrPermanent indicates the classifier rejected the request (4xx).
// Permanent errors are reported immediately and never retried.
type ErrPermanent struct {
	StatusCode int
	Body       string
}

func (e *ErrPermanent) Error() string {
	return fmt.Sprintf("classifier rejected request (status %d): %s", e.StatusCode, e.Body)
}

// ErrRateLimit indicates the classifier returned 429.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("classifier rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }
