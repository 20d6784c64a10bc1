package classifier

import (
	"context"

	"github.com/evanmorse/crisiseval/internal/severity"
)

// Verdict is the classifier's judgment of a single phrase.
type Verdict struct {
	Severity   severity.Severity
	Confidence float64 // 0.0 - 1.0
	LatencyMs  float64
	RawLabels  []string
}

// Client sends one phrase to the crisis classifier and returns its verdict.
// Implementations must be safe for concurrent use; the dispatcher fans
// calls out across a worker pool.
type Client interface {
	Classify(ctx context.Context, text string) (*Verdict, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, text string) (*Verdict, error)

func (f ClientFunc) Classify(ctx context.Context, text string) (*Verdict, error) {
	return f(ctx, text)
}
