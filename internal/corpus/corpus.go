package corpus

import (
	"fmt"
	"strings"

	"github.com/evanmorse/crisiseval/internal/severity"
)

// Kind distinguishes how a category's phrases are matched.
type Kind string

const (
	// KindExact requires the verdict to equal the single expected severity.
	KindExact Kind = "exact"
	// KindTolerance accepts either bound of an ordered severity pair,
	// optionally widened by escalation rules.
	KindTolerance Kind = "tolerance"
)

// Phrase is one test case. Immutable after load.
type Phrase struct {
	ID                string
	Text              string
	Category          string
	Expected          []severity.Severity // 1 entry for exact, 2 ordered for tolerance
	AllowEscalation   bool
	AllowDeescalation bool
	SafetyCritical    bool
}

// ExpectedExact returns the single expected severity of an exact phrase.
func (p *Phrase) ExpectedExact() severity.Severity {
	return p.Expected[0]
}

// Bounds returns the (lo, hi) pair of a tolerance phrase.
func (p *Phrase) Bounds() (severity.Severity, severity.Severity) {
	return p.Expected[0], p.Expected[1]
}

// Category groups phrases that share a matching rule and a pass-rate goal.
type Category struct {
	Name           string
	Kind           Kind
	TargetPassRate float64 // 0-100
	Critical       bool
	PhraseTarget   int // declared phrase count; 0 means unchecked
	Phrases        []Phrase
}

// Corpus is the validated, immutable test set.
type Corpus struct {
	Version    string
	categories []Category
	byName     map[string]*Category
}

// Categories returns all categories in document order.
func (c *Corpus) Categories() []Category {
	return c.categories
}

// Category returns the named category, or nil if absent.
func (c *Corpus) Category(name string) *Category {
	return c.byName[name]
}

// PhrasesFor returns the ordered phrase slice for a category.
// The slice is shared; callers must not mutate it.
func (c *Corpus) PhrasesFor(name string) []Phrase {
	if cat := c.byName[name]; cat != nil {
		return cat.Phrases
	}
	return nil
}

// TotalPhrases returns the phrase count across all categories.
func (c *Corpus) TotalPhrases() int {
	n := 0
	for _, cat := range c.categories {
		n += len(cat.Phrases)
	}
	return n
}

// IntegrityError reports every structural problem found at load time.
// A corpus that fails integrity checks must never reach the network.
type IntegrityError struct {
	Problems []string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("corpus integrity: %s", strings.Join(e.Problems, "; "))
}
