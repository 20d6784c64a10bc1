package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/evanmorse/crisiseval/internal/classifier"
	"github.com/evanmorse/crisiseval/internal/corpus"
	"github.com/evanmorse/crisiseval/internal/severity"
)

func makePhrases(n int) []corpus.Phrase {
	phrases := make([]corpus.Phrase, n)
	for i := range phrases {
		phrases[i] = corpus.Phrase{
			ID:       fmt.Sprintf("p-%03d", i),
			Text:     fmt.Sprintf("phrase %d", i),
			Category: "definite-high",
			Expected: []severity.Severity{severity.High},
		}
	}
	return phrases
}

func alwaysHigh() classifier.Client {
	return classifier.ClientFunc(func(_ context.Context, _ string) (*classifier.Verdict, error) {
		return &classifier.Verdict{Severity: severity.High, Confidence: 0.9}, nil
	})
}

func TestRun_EveryPhraseYieldsExactlyOneResult(t *testing.T) {
	phrases := makePhrases(50)

	var inFlight, maxInFlight atomic.Int32
	client := classifier.ClientFunc(func(_ context.Context, _ string) (*classifier.Verdict, error) {
		cur := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			prev := maxInFlight.Load()
			if cur <= prev || maxInFlight.CompareAndSwap(prev, cur) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		return &classifier.Verdict{Severity: severity.High}, nil
	})

	results := Run(context.Background(), client, phrases, Options{Concurrency: 5})

	if len(results) != 50 {
		t.Fatalf("expected 50 results, got %d", len(results))
	}
	seen := make(map[string]bool)
	for _, r := range results {
		if seen[r.Phrase.ID] {
			t.Errorf("duplicate result for %s", r.Phrase.ID)
		}
		seen[r.Phrase.ID] = true
		if r.Status != StatusClassified {
			t.Errorf("%s: status %s, want classified", r.Phrase.ID, r.Status)
		}
	}
	if len(seen) != 50 {
		t.Errorf("expected 50 distinct phrases, got %d", len(seen))
	}
	if got := maxInFlight.Load(); got > 5 {
		t.Errorf("concurrency limit breached: %d in flight", got)
	}
}

func TestRun_FailureIsolation(t *testing.T) {
	phrases := makePhrases(10)

	client := classifier.ClientFunc(func(_ context.Context, text string) (*classifier.Verdict, error) {
		if text == "phrase 3" {
			return nil, &classifier.ErrUnavailable{Err: errors.New("down")}
		}
		return &classifier.Verdict{Severity: severity.High}, nil
	})

	results := Run(context.Background(), client, phrases, Options{Concurrency: 3})

	var errored, classified int
	for _, r := range results {
		switch r.Status {
		case StatusErrored:
			errored++
			var unavail *classifier.ErrUnavailable
			if !errors.As(r.Err, &unavail) {
				t.Errorf("errored result carries %v, want *ErrUnavailable", r.Err)
			}
		case StatusClassified:
			classified++
		}
	}
	if errored != 1 || classified != 9 {
		t.Errorf("errored=%d classified=%d, want 1/9", errored, classified)
	}
}

func TestRun_DeadlineCancelsUndispatched(t *testing.T) {
	phrases := makePhrases(20)

	client := classifier.ClientFunc(func(_ context.Context, _ string) (*classifier.Verdict, error) {
		time.Sleep(20 * time.Millisecond)
		return &classifier.Verdict{Severity: severity.High}, nil
	})

	results := Run(context.Background(), client, phrases, Options{
		Concurrency: 2,
		Deadline:    30 * time.Millisecond,
	})

	var cancelled int
	for _, r := range results {
		if r.Status == StatusCancelled {
			cancelled++
		}
	}
	if cancelled == 0 {
		t.Error("expected at least one cancelled phrase")
	}
	if len(results) != 20 {
		t.Errorf("every phrase must still yield a result, got %d", len(results))
	}
}

func TestRun_GenerousDeadlineCancelsNothing(t *testing.T) {
	phrases := makePhrases(10)

	results := Run(context.Background(), alwaysHigh(), phrases, Options{
		Concurrency: 5,
		Deadline:    10 * time.Second,
	})

	for _, r := range results {
		if r.Status == StatusCancelled {
			t.Errorf("%s cancelled under a generous deadline", r.Phrase.ID)
		}
	}
}

func TestRun_ContextCancelStopsDispatch(t *testing.T) {
	phrases := makePhrases(20)

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	client := classifier.ClientFunc(func(_ context.Context, _ string) (*classifier.Verdict, error) {
		if calls.Add(1) == 3 {
			cancel()
		}
		time.Sleep(5 * time.Millisecond)
		return &classifier.Verdict{Severity: severity.High}, nil
	})

	results := Run(ctx, client, phrases, Options{Concurrency: 1})

	var cancelled, classified int
	for _, r := range results {
		switch r.Status {
		case StatusCancelled:
			cancelled++
		case StatusClassified:
			classified++
		}
	}
	if cancelled == 0 {
		t.Error("expected cancelled phrases after explicit cancel")
	}
	// In-flight calls complete; the call that triggered cancel still counts.
	if classified < 3 {
		t.Errorf("in-flight calls must finish, classified=%d", classified)
	}
}
