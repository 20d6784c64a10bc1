package tuning

import (
	"fmt"
	"sort"

	"github.com/evanmorse/crisiseval/internal/eval"
	"github.com/evanmorse/crisiseval/internal/score"
)

// Direction is the proposed move for a configuration variable.
type Direction string

const (
	// DirectionLower proposes lowering the boundary so the classifier
	// escalates more readily.
	DirectionLower Direction = "lower"
	// DirectionRaise proposes raising the boundary so the classifier
	// escalates less readily.
	DirectionRaise Direction = "raise"
)

// ConfidenceLevel grades how much historical evidence backs a suggestion.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "LOW"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceHigh   ConfidenceLevel = "HIGH"
)

// RiskLevel grades the safety cost of leaving the category untuned.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskCritical RiskLevel = "CRITICAL"
)

var confidenceRank = map[ConfidenceLevel]int{ConfidenceLow: 0, ConfidenceMedium: 1, ConfidenceHigh: 2}
var riskRank = map[RiskLevel]int{RiskLow: 0, RiskModerate: 1, RiskCritical: 2}

// Suggestion proposes one configuration change. The advisor only
// proposes; it never mutates live configuration.
type Suggestion struct {
	Category   string          `json:"category"`
	Variable   string          `json:"variable"`
	Direction  Direction       `json:"direction"`
	Confidence ConfidenceLevel `json:"confidence_level"`
	Risk       RiskLevel       `json:"risk_level"`
	Delta      float64         `json:"suggested_delta"`
	Rationale  string          `json:"rationale"`
}

// History supplies pass rates from previous runs. Persistence lives
// outside the core; the advisor only reads through this interface.
type History interface {
	// PassRates returns up to lastN most-recent pass rates (0-100) for
	// the category, newest first. An empty slice means no history.
	PassRates(category string, lastN int) ([]float64, error)
}

// NoHistory is a History with no recorded runs. Every suggestion it
// backs comes out with LOW confidence.
type NoHistory struct{}

func (NoHistory) PassRates(string, int) ([]float64, error) { return nil, nil }

const (
	// historyWindow is how many past runs inform confidence grading.
	historyWindow = 5
	// minHistoryRuns is the fewest past runs that count as a trend.
	minHistoryRuns = 3
	// Variance bounds (pass-rate percentage points squared) separating
	// consistent from moderately consistent failure history.
	tightVariance = 50.0
	looseVariance = 200.0
)

// Suggest turns failing categories into ranked configuration proposals,
// sorted by risk descending then confidence descending.
func Suggest(summary *score.Summary, thresholds ThresholdMap, history History) ([]Suggestion, error) {
	var suggestions []Suggestion

	for i := range summary.Categories {
		cs := &summary.Categories[i]
		if cs.GoalMet {
			continue
		}
		mapping, ok := thresholds[cs.Category]
		if !ok {
			// Validate at load time keeps this unreachable for known
			// corpora; an unmapped failing category is a config bug.
			return nil, fmt.Errorf("no threshold mapping for failing category %q", cs.Category)
		}

		rates, err := history.PassRates(cs.Category, historyWindow)
		if err != nil {
			return nil, fmt.Errorf("history for %q: %w", cs.Category, err)
		}

		s := buildSuggestion(cs, mapping, rates)
		suggestions = append(suggestions, s)
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		if riskRank[suggestions[i].Risk] != riskRank[suggestions[j].Risk] {
			return riskRank[suggestions[i].Risk] > riskRank[suggestions[j].Risk]
		}
		if confidenceRank[suggestions[i].Confidence] != confidenceRank[suggestions[j].Confidence] {
			return confidenceRank[suggestions[i].Confidence] > confidenceRank[suggestions[j].Confidence]
		}
		return suggestions[i].Category < suggestions[j].Category
	})

	return suggestions, nil
}

func buildSuggestion(cs *score.CategoryScore, mapping Mapping, rates []float64) Suggestion {
	fn := cs.FailureKinds[eval.FalseNegative]
	fp := cs.FailureKinds[eval.FalsePositive]

	direction := DirectionRaise
	if fn >= fp {
		// Ties go to lowering: under-detection is the costlier miss.
		direction = DirectionLower
	}

	delta := mapping.Step
	if cs.FailureRate() > 0.5 {
		delta *= 2
	}
	if direction == DirectionLower {
		delta = -delta
	}

	risk := RiskLow
	switch {
	case anyCriticalFalseNegative(cs, fn):
		risk = RiskCritical
	case fn > 0:
		risk = RiskModerate
	}

	return Suggestion{
		Category:   cs.Category,
		Variable:   mapping.Variable,
		Direction:  direction,
		Confidence: gradeConfidence(cs.FailureRate(), rates),
		Risk:       risk,
		Delta:      delta,
		Rationale:  rationale(cs, direction, fn, fp, len(rates)),
	}
}

// anyCriticalFalseNegative reports whether false negatives dominate the
// failures of a critical category.
func anyCriticalFalseNegative(cs *score.CategoryScore, fn int) bool {
	if !cs.Critical || cs.Failed == 0 {
		return false
	}
	return fn*2 > cs.Failed // strict majority
}

// gradeConfidence applies the historical-consistency rules: HIGH needs a
// consistent failing trend and a failure rate above 0.3, MEDIUM a
// moderately consistent trend above 0.2.
func gradeConfidence(failureRate float64, rates []float64) ConfidenceLevel {
	if len(rates) < minHistoryRuns {
		return ConfidenceLow
	}
	v := variance(rates)
	switch {
	case v <= tightVariance && failureRate > 0.3:
		return ConfidenceHigh
	case v <= looseVariance && failureRate > 0.2:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	var v float64
	for _, x := range xs {
		d := x - mean
		v += d * d
	}
	return v / float64(len(xs))
}

func rationale(cs *score.CategoryScore, direction Direction, fn, fp, historyRuns int) string {
	verb := "raise"
	cause := fmt.Sprintf("%d false positives", fp)
	effect := "so benign phrases stop escalating"
	if direction == DirectionLower {
		verb = "lower"
		cause = fmt.Sprintf("%d false negatives", fn)
		effect = "so under-escalated phrases are caught"
	}
	return fmt.Sprintf(
		"%s at %.1f%% against a %.1f%% goal (%s of %d failures, %d historical runs); %s the boundary %s",
		cs.Category, cs.PassRate, cs.TargetPassRate, cause, cs.Failed, historyRuns, verb, effect)
}
