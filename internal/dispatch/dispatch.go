package dispatch

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/evanmorse/crisiseval/internal/classifier"
	"github.com/evanmorse/crisiseval/internal/corpus"
)

// DefaultConcurrency is deliberately small so a batch does not overwhelm
// the remote classifier.
const DefaultConcurrency = 4

// Status records how a phrase's dispatch concluded.
type Status string

const (
	// StatusClassified means the classifier produced a verdict.
	StatusClassified Status = "classified"
	// StatusErrored means classification failed after retries.
	StatusErrored Status = "errored"
	// StatusCancelled means the phrase was never dispatched because the
	// run deadline elapsed or the run was cancelled.
	StatusCancelled Status = "cancelled"
)

// Result pairs a phrase with its verdict or error. Exactly one Result is
// produced per submitted phrase.
type Result struct {
	Phrase  corpus.Phrase
	Status  Status
	Verdict *classifier.Verdict // set when Status == StatusClassified
	Err     error               // set when Status == StatusErrored
}

// Options configures a batch run.
type Options struct {
	// Concurrency is the worker pool size. Defaults to DefaultConcurrency.
	Concurrency int
	// Deadline bounds the whole run. Zero means no deadline. When it
	// elapses, in-flight calls finish but nothing new is dispatched.
	Deadline time.Duration
}

// Run fans phrases out across a bounded worker pool and collects one
// result per phrase. Each slot is pre-allocated and written by exactly
// one worker, so collection needs no locking. Results carry no ordering
// guarantee beyond slot position matching the input slice.
func Run(ctx context.Context, client classifier.Client, phrases []corpus.Phrase, opts Options) []Result {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	var deadline time.Time
	if opts.Deadline > 0 {
		deadline = time.Now().Add(opts.Deadline)
	}

	// In-flight calls complete up to their own per-call timeout even when
	// the run is cancelled; only new dispatch stops.
	callCtx := context.WithoutCancel(ctx)

	results := make([]Result, len(phrases))

	g := new(errgroup.Group)
	g.SetLimit(limit)

	for i := range phrases {
		g.Go(func() error {
			phrase := phrases[i]

			// The gate is re-checked here, after any wait for a pool
			// slot, so nothing is dispatched past the deadline.
			if expired(ctx, deadline) {
				results[i] = Result{Phrase: phrase, Status: StatusCancelled}
				return nil
			}

			verdict, err := client.Classify(callCtx, phrase.Text)
			if err != nil {
				results[i] = Result{Phrase: phrase, Status: StatusErrored, Err: err}
				return nil
			}
			results[i] = Result{Phrase: phrase, Status: StatusClassified, Verdict: verdict}
			return nil
		})
	}

	g.Wait()
	return results
}

// expired reports whether the run deadline has passed or the run context
// was cancelled.
func expired(ctx context.Context, deadline time.Time) bool {
	select {
	case <-ctx.Done():
		return true
	default:
	}
	return !deadline.IsZero() && time.Now().After(deadline)
}
