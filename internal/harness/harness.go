// Package harness is the single trigger surface of the evaluation core:
// external CLI or API layers call Run with a category set, concurrency
// and deadline, and receive the report object or a typed error.
package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/evanmorse/crisiseval/internal/classifier"
	"github.com/evanmorse/crisiseval/internal/corpus"
	"github.com/evanmorse/crisiseval/internal/dispatch"
	"github.com/evanmorse/crisiseval/internal/eval"
	"github.com/evanmorse/crisiseval/internal/report"
	"github.com/evanmorse/crisiseval/internal/score"
	"github.com/evanmorse/crisiseval/internal/tuning"
)

// Options configures one evaluation run.
type Options struct {
	Corpus     *corpus.Corpus
	Client     classifier.Client
	Thresholds tuning.ThresholdMap
	History    tuning.History

	// Categories restricts the run to the named categories.
	// Empty means the whole corpus.
	Categories []string

	Concurrency int
	Deadline    time.Duration
}

// Run evaluates the corpus against the classifier and produces a report.
// Per-phrase classification failures and deadline expiry never fail the
// run; only corpus, threshold and taxonomy configuration errors do.
func Run(ctx context.Context, opts Options) (*report.Report, error) {
	if opts.Corpus == nil {
		return nil, fmt.Errorf("harness: corpus is required")
	}
	if opts.Client == nil {
		return nil, fmt.Errorf("harness: classifier client is required")
	}
	if opts.Thresholds == nil {
		tm, err := tuning.DefaultThresholdMap()
		if err != nil {
			return nil, err
		}
		opts.Thresholds = tm
	}
	if opts.History == nil {
		opts.History = tuning.NoHistory{}
	}

	categories, err := selectCategories(opts.Corpus, opts.Categories)
	if err != nil {
		return nil, err
	}
	if err := opts.Thresholds.Validate(categories); err != nil {
		return nil, err
	}

	var phrases []corpus.Phrase
	for _, cat := range categories {
		phrases = append(phrases, cat.Phrases...)
	}

	started := time.Now()
	results := dispatch.Run(ctx, opts.Client, phrases, dispatch.Options{
		Concurrency: opts.Concurrency,
		Deadline:    opts.Deadline,
	})

	input, err := evaluateResults(opts.Corpus, results)
	if err != nil {
		return nil, err
	}

	summary := score.Aggregate(input, categories)

	suggestions, err := tuning.Suggest(summary, opts.Thresholds, opts.History)
	if err != nil {
		return nil, err
	}

	return &report.Report{
		RunID:         uuid.NewString(),
		StartedAt:     started,
		FinishedAt:    time.Now(),
		CorpusVersion: opts.Corpus.Version,
		Summary:       summary,
		Failures:      report.Failures(summary),
		Suggestions:   suggestions,
	}, nil
}

// selectCategories resolves the requested category names against the
// corpus, preserving corpus order. Unknown names are an error.
func selectCategories(c *corpus.Corpus, names []string) ([]corpus.Category, error) {
	if len(names) == 0 {
		return c.Categories(), nil
	}

	requested := make(map[string]bool, len(names))
	for _, name := range names {
		if c.Category(name) == nil {
			return nil, fmt.Errorf("unknown category %q", name)
		}
		requested[name] = true
	}

	var selected []corpus.Category
	for _, cat := range c.Categories() {
		if requested[cat.Name] {
			selected = append(selected, cat)
		}
	}
	return selected, nil
}

// evaluateResults turns dispatch results into aggregator input.
// Evaluation errors indicate configuration bugs and abort the run.
func evaluateResults(c *corpus.Corpus, results []dispatch.Result) (score.Input, error) {
	var input score.Input

	for _, res := range results {
		switch res.Status {
		case dispatch.StatusClassified:
			out, err := eval.Evaluate(c.Category(res.Phrase.Category), res.Phrase, res.Verdict)
			if err != nil {
				return score.Input{}, err
			}
			input.Outcomes = append(input.Outcomes, out)
		case dispatch.StatusErrored:
			input.Errored = append(input.Errored, score.ErroredPhrase{Phrase: res.Phrase, Err: res.Err})
		case dispatch.StatusCancelled:
			input.Cancelled = append(input.Cancelled, res.Phrase)
		}
	}

	return input, nil
}
