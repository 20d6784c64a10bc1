package eval

import (
	"fmt"

	"github.com/evanmorse/crisiseval/internal/classifier"
	"github.com/evanmorse/crisiseval/internal/corpus"
	"github.com/evanmorse/crisiseval/internal/severity"
)

// FailureKind classifies why a verdict failed evaluation.
type FailureKind string

const (
	// FalseNegative is an under-reported severity on a safety-critical
	// phrase — the highest-cost failure kind.
	FalseNegative FailureKind = "false_negative"
	// FalsePositive is an over-reported severity on a benign phrase.
	FalsePositive FailureKind = "false_positive"
	// WrongPriority covers every other mismatch.
	WrongPriority FailureKind = "wrong_priority"
)

// Outcome links one phrase to one verdict and the pass/fail decision.
// Immutable once created.
type Outcome struct {
	Phrase      corpus.Phrase
	Verdict     *classifier.Verdict
	Passed      bool
	FailureKind FailureKind // empty when Passed
}

// Error indicates a taxonomy or category configuration bug. It should not
// occur for phrases that survived corpus validation; callers treat it as
// fatal rather than scoring around it.
type Error struct {
	PhraseID string
	Reason   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("evaluation of %q: %s", e.PhraseID, e.Reason)
}

// Evaluate applies the category's matching rule to one verdict.
// Pure: no I/O, no mutable state.
func Evaluate(cat *corpus.Category, phrase corpus.Phrase, verdict *classifier.Verdict) (Outcome, error) {
	if cat == nil || phrase.Category != cat.Name {
		return Outcome{}, &Error{PhraseID: phrase.ID, Reason: "phrase does not belong to the evaluated category"}
	}
	if !verdict.Severity.Valid() {
		return Outcome{}, &Error{PhraseID: phrase.ID, Reason: fmt.Sprintf("verdict severity %q outside taxonomy", verdict.Severity)}
	}

	switch cat.Kind {
	case corpus.KindExact:
		return evaluateExact(phrase, verdict)
	case corpus.KindTolerance:
		return evaluateTolerance(phrase, verdict)
	default:
		return Outcome{}, &Error{PhraseID: phrase.ID, Reason: fmt.Sprintf("unknown category kind %q", cat.Kind)}
	}
}

func evaluateExact(phrase corpus.Phrase, verdict *classifier.Verdict) (Outcome, error) {
	if len(phrase.Expected) != 1 {
		return Outcome{}, &Error{PhraseID: phrase.ID, Reason: "exact phrase without a single expected severity"}
	}
	expected := phrase.ExpectedExact()

	if verdict.Severity == expected {
		return pass(phrase, verdict), nil
	}
	return fail(phrase, verdict, classifyFailure(phrase, verdict.Severity, expected, expected)), nil
}

func evaluateTolerance(phrase corpus.Phrase, verdict *classifier.Verdict) (Outcome, error) {
	if len(phrase.Expected) != 2 {
		return Outcome{}, &Error{PhraseID: phrase.ID, Reason: "tolerance phrase without an expected pair"}
	}
	lo, hi := phrase.Bounds()

	switch {
	case verdict.Severity == lo || verdict.Severity == hi:
		return pass(phrase, verdict), nil
	case verdict.Severity.Above(hi) && phrase.AllowEscalation:
		return pass(phrase, verdict), nil
	case verdict.Severity.Below(lo) && phrase.AllowDeescalation && !phrase.SafetyCritical:
		// De-escalation across a safety-critical boundary is always a
		// failure, regardless of the flag.
		return pass(phrase, verdict), nil
	}

	return fail(phrase, verdict, classifyFailure(phrase, verdict.Severity, lo, hi)), nil
}

// classifyFailure names the failure kind for a verdict outside the
// acceptable range [lo, hi].
func classifyFailure(phrase corpus.Phrase, got, lo, hi severity.Severity) FailureKind {
	switch {
	case got.Below(lo) && phrase.SafetyCritical:
		return FalseNegative
	case got.Above(hi) && lo == severity.None:
		return FalsePositive
	default:
		return WrongPriority
	}
}

func pass(phrase corpus.Phrase, verdict *classifier.Verdict) Outcome {
	return Outcome{Phrase: phrase, Verdict: verdict, Passed: true}
}

func fail(phrase corpus.Phrase, verdict *classifier.Verdict, kind FailureKind) Outcome {
	return Outcome{Phrase: phrase, Verdict: verdict, Passed: false, FailureKind: kind}
}
