// Package report defines the run report handed to external persistence
// and dashboard collaborators. The core produces it deterministically;
// it never writes to a database or webhook itself.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/evanmorse/crisiseval/internal/eval"
	"github.com/evanmorse/crisiseval/internal/score"
	"github.com/evanmorse/crisiseval/internal/severity"
	"github.com/evanmorse/crisiseval/internal/tuning"
)

// Report is the complete result of one evaluation run.
type Report struct {
	RunID         string    `json:"run_id"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	CorpusVersion string    `json:"corpus_version"`

	Summary     *score.Summary      `json:"summary"`
	Failures    []FailureDetail     `json:"failures,omitempty"`
	Suggestions []tuning.Suggestion `json:"suggestions,omitempty"`
}

// FailureDetail is one failing phrase, flattened for external consumers.
type FailureDetail struct {
	Category   string              `json:"category"`
	PhraseID   string              `json:"phrase_id"`
	Text       string              `json:"text"`
	Expected   []severity.Severity `json:"expected"`
	Got        severity.Severity   `json:"got"`
	Confidence float64             `json:"confidence"`
	Kind       eval.FailureKind    `json:"kind"`
}

// Failures flattens a summary's per-category failure lists in category
// order, preserving the aggregator's phrase-ID ordering within each.
func Failures(summary *score.Summary) []FailureDetail {
	var details []FailureDetail
	for _, cs := range summary.Categories {
		for _, out := range cs.Failures {
			details = append(details, FailureDetail{
				Category:   cs.Category,
				PhraseID:   out.Phrase.ID,
				Text:       out.Phrase.Text,
				Expected:   out.Phrase.Expected,
				Got:        out.Verdict.Severity,
				Confidence: out.Verdict.Confidence,
				Kind:       out.FailureKind,
			})
		}
	}
	return details
}

// WriteJSON renders the report to a file for external collaborators.
func WriteJSON(path string, r *Report) error {
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return os.WriteFile(path, raw, 0o644)
}
