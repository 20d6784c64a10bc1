package score

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/evanmorse/crisiseval/internal/classifier"
	"github.com/evanmorse/crisiseval/internal/corpus"
	"github.com/evanmorse/crisiseval/internal/eval"
	"github.com/evanmorse/crisiseval/internal/severity"
)

func phrase(id, category string) corpus.Phrase {
	return corpus.Phrase{
		ID:       id,
		Text:     id,
		Category: category,
		Expected: []severity.Severity{severity.High},
	}
}

func outcome(id, category string, passed bool, kind eval.FailureKind) eval.Outcome {
	return eval.Outcome{
		Phrase:      phrase(id, category),
		Verdict:     &classifier.Verdict{Severity: severity.High, Confidence: 0.8, LatencyMs: 40},
		Passed:      passed,
		FailureKind: kind,
	}
}

func tenOutcomes(failKind eval.FailureKind) []eval.Outcome {
	outs := make([]eval.Outcome, 0, 10)
	for i := 0; i < 9; i++ {
		outs = append(outs, outcome(fmt.Sprintf("p-%d", i), "c", true, ""))
	}
	outs = append(outs, outcome("p-9", "c", false, failKind))
	return outs
}

func oneCategory() []corpus.Category {
	return []corpus.Category{{Name: "c", Kind: corpus.KindExact, TargetPassRate: 95}}
}

func TestAggregate_CountsBalance(t *testing.T) {
	in := Input{
		Outcomes: []eval.Outcome{
			outcome("p-1", "c", true, ""),
			outcome("p-2", "c", false, eval.WrongPriority),
		},
		Errored:   []ErroredPhrase{{Phrase: phrase("p-3", "c"), Err: errors.New("down")}},
		Cancelled: []corpus.Phrase{phrase("p-4", "c")},
	}

	s := Aggregate(in, oneCategory())

	cs := s.Categories[0]
	if cs.Passed+cs.Failed+cs.Errored+cs.Cancelled != cs.Total {
		t.Errorf("passed+failed+errored+cancelled=%d, total=%d",
			cs.Passed+cs.Failed+cs.Errored+cs.Cancelled, cs.Total)
	}
	if cs.Total != 4 {
		t.Errorf("total=%d, want 4", cs.Total)
	}
	if s.Errored != 1 || s.Cancelled != 1 {
		t.Errorf("errored=%d cancelled=%d, want 1/1", s.Errored, s.Cancelled)
	}
}

func TestAggregate_FalseNegativePenalty(t *testing.T) {
	withFN := Aggregate(Input{Outcomes: tenOutcomes(eval.FalseNegative)}, oneCategory())
	withFP := Aggregate(Input{Outcomes: tenOutcomes(eval.FalsePositive)}, oneCategory())

	if withFN.PlainPassRate != 90 {
		t.Errorf("plain rate = %.2f, want 90", withFN.PlainPassRate)
	}
	if withFN.WeightedPassRate >= withFN.PlainPassRate {
		t.Errorf("weighted %.2f must be below plain %.2f with a false negative",
			withFN.WeightedPassRate, withFN.PlainPassRate)
	}
	if withFP.WeightedPassRate <= withFN.WeightedPassRate {
		t.Errorf("false positive weighted %.2f must exceed false negative weighted %.2f",
			withFP.WeightedPassRate, withFN.WeightedPassRate)
	}
	// 9 passes over 10 + 2 weighted units.
	if want := 75.0; withFN.WeightedPassRate != want {
		t.Errorf("weighted = %.2f, want %.2f", withFN.WeightedPassRate, want)
	}
}

func TestAggregate_GoalMet(t *testing.T) {
	cats := []corpus.Category{{Name: "c", Kind: corpus.KindExact, TargetPassRate: 90}}

	s := Aggregate(Input{Outcomes: tenOutcomes(eval.WrongPriority)}, cats)
	if !s.Categories[0].GoalMet {
		t.Error("90%% pass rate must meet a 90 target")
	}

	cats[0].TargetPassRate = 95
	s = Aggregate(Input{Outcomes: tenOutcomes(eval.WrongPriority)}, cats)
	if s.Categories[0].GoalMet {
		t.Error("90%% pass rate must miss a 95 target")
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	in := Input{
		Outcomes: []eval.Outcome{
			outcome("p-b", "c", false, eval.WrongPriority),
			outcome("p-a", "c", false, eval.FalseNegative),
			outcome("p-c", "c", true, ""),
		},
	}

	first := Aggregate(in, oneCategory())
	second := Aggregate(in, oneCategory())

	if !reflect.DeepEqual(first, second) {
		t.Error("aggregating the same input twice must be identical")
	}

	failures := first.Categories[0].Failures
	if len(failures) != 2 || failures[0].Phrase.ID != "p-a" || failures[1].Phrase.ID != "p-b" {
		t.Errorf("failures must be ordered by phrase id, got %v", failures)
	}
}

func TestAggregate_Averages(t *testing.T) {
	in := Input{
		Outcomes: []eval.Outcome{
			{
				Phrase:  phrase("p-1", "c"),
				Verdict: &classifier.Verdict{Severity: severity.High, Confidence: 0.6, LatencyMs: 20},
				Passed:  true,
			},
			{
				Phrase:  phrase("p-2", "c"),
				Verdict: &classifier.Verdict{Severity: severity.High, Confidence: 1.0, LatencyMs: 60},
				Passed:  true,
			},
		},
	}

	s := Aggregate(in, oneCategory())
	cs := s.Categories[0]
	if cs.AvgConfidence != 0.8 {
		t.Errorf("avg confidence = %v, want 0.8", cs.AvgConfidence)
	}
	if cs.AvgLatencyMs != 40 {
		t.Errorf("avg latency = %v, want 40", cs.AvgLatencyMs)
	}
}

func TestFailureRate(t *testing.T) {
	cs := &CategoryScore{Passed: 6, Failed: 4, Errored: 2}
	if got := cs.FailureRate(); got != 0.4 {
		t.Errorf("failure rate = %v, want 0.4 (errored excluded)", got)
	}

	empty := &CategoryScore{}
	if empty.FailureRate() != 0 {
		t.Error("empty category must have zero failure rate")
	}
}
