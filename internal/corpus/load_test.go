package corpus

import (
	"errors"
	"strings"
	"testing"

	"github.com/evanmorse/crisiseval/internal/severity"
)

func TestLoadDefault(t *testing.T) {
	c, err := LoadDefault()
	if err != nil {
		t.Fatalf("embedded corpus must load: %v", err)
	}
	if c.Version == "" {
		t.Error("embedded corpus has no version")
	}
	if len(c.Categories()) == 0 {
		t.Fatal("embedded corpus has no categories")
	}
	for _, cat := range c.Categories() {
		if cat.PhraseTarget > 0 && len(cat.Phrases) != cat.PhraseTarget {
			t.Errorf("category %q: %d phrases, target %d", cat.Name, len(cat.Phrases), cat.PhraseTarget)
		}
	}
}

func TestLoadValid(t *testing.T) {
	doc := `
version: "test"
categories:
  - name: definite-high
    kind: exact
    target_pass_rate: 95
    critical: true
    phrases:
      - id: p1
        text: "phrase one"
        expected: [high]
        safety_critical: true
  - name: maybe-high-medium
    kind: tolerance
    target_pass_rate: 75
    phrases:
      - id: p2
        text: "phrase two"
        expected: [medium, high]
        allow_escalation: true
        safety_critical: true
`
	c, err := Load([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.TotalPhrases() != 2 {
		t.Errorf("expected 2 phrases, got %d", c.TotalPhrases())
	}

	exact := c.PhrasesFor("definite-high")
	if len(exact) != 1 || exact[0].ExpectedExact() != severity.High {
		t.Errorf("unexpected exact phrases: %+v", exact)
	}

	tol := c.PhrasesFor("maybe-high-medium")
	lo, hi := tol[0].Bounds()
	if lo != severity.Medium || hi != severity.High {
		t.Errorf("unexpected bounds: (%s, %s)", lo, hi)
	}
}

func TestLoadIntegrityFailures(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "duplicate phrase ids",
			doc: `
categories:
  - name: a
    kind: exact
    phrases:
      - {id: p1, text: "t", expected: [high]}
      - {id: p1, text: "t", expected: [low]}
`,
			want: "duplicate phrase id",
		},
		{
			name: "unordered tolerance pair",
			doc: `
categories:
  - name: a
    kind: tolerance
    phrases:
      - {id: p1, text: "t", expected: [high, medium]}
`,
			want: "not strictly ordered",
		},
		{
			name: "phrase count deviates from target",
			doc: `
categories:
  - name: a
    kind: exact
    phrase_target: 3
    phrases:
      - {id: p1, text: "t", expected: [high]}
`,
			want: "target is 3",
		},
		{
			name: "unknown severity",
			doc: `
categories:
  - name: a
    kind: exact
    phrases:
      - {id: p1, text: "t", expected: [catastrophic]}
`,
			want: "unknown severity",
		},
		{
			name: "unknown kind",
			doc: `
categories:
  - name: a
    kind: fuzzy
    phrases: []
`,
			want: "unknown kind",
		},
		{
			name: "exact with pair",
			doc: `
categories:
  - name: a
    kind: exact
    phrases:
      - {id: p1, text: "t", expected: [medium, high]}
`,
			want: "exactly one expected severity",
		},
		{
			name: "empty corpus",
			doc:  `categories: []`,
			want: "no categories",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.doc))
			var ie *IntegrityError
			if !errors.As(err, &ie) {
				t.Fatalf("expected *IntegrityError, got %v", err)
			}
			if !strings.Contains(ie.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", ie.Error(), tt.want)
			}
		})
	}
}
