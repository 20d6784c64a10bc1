package corpus

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/evanmorse/crisiseval/internal/severity"
)

//go:embed corpus.yaml
var defaultCorpus []byte

// document is the YAML wire shape of a corpus file.
type document struct {
	Version    string        `yaml:"version"`
	Categories []categoryDoc `yaml:"categories"`
}

type categoryDoc struct {
	Name           string      `yaml:"name"`
	Kind           string      `yaml:"kind"`
	TargetPassRate float64     `yaml:"target_pass_rate"`
	Critical       bool        `yaml:"critical"`
	PhraseTarget   int         `yaml:"phrase_target"`
	Phrases        []phraseDoc `yaml:"phrases"`
}

type phraseDoc struct {
	ID                string   `yaml:"id"`
	Text              string   `yaml:"text"`
	Expected          []string `yaml:"expected"`
	AllowEscalation   bool     `yaml:"allow_escalation"`
	AllowDeescalation bool     `yaml:"allow_deescalation"`
	SafetyCritical    bool     `yaml:"safety_critical"`
}

// LoadDefault loads the corpus embedded in the binary.
func LoadDefault() (*Corpus, error) {
	return Load(defaultCorpus)
}

// LoadFile loads and validates a corpus from a YAML file.
func LoadFile(path string) (*Corpus, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}
	return Load(raw)
}

// Load parses and validates a YAML corpus document.
// Returns *IntegrityError if the document is structurally unsound.
func Load(raw []byte) (*Corpus, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}

	c := &Corpus{Version: doc.Version}

	var problems []string
	seenIDs := make(map[string]bool)
	seenNames := make(map[string]bool)

	for _, cd := range doc.Categories {
		cat := Category{
			Name:           cd.Name,
			Kind:           Kind(cd.Kind),
			TargetPassRate: cd.TargetPassRate,
			Critical:       cd.Critical,
			PhraseTarget:   cd.PhraseTarget,
		}

		if cat.Name == "" {
			problems = append(problems, "category with empty name")
			continue
		}
		if seenNames[cat.Name] {
			problems = append(problems, fmt.Sprintf("duplicate category %q", cat.Name))
			continue
		}
		seenNames[cat.Name] = true
		if cat.Kind != KindExact && cat.Kind != KindTolerance {
			problems = append(problems, fmt.Sprintf("category %q: unknown kind %q", cat.Name, cd.Kind))
			continue
		}
		if cat.TargetPassRate < 0 || cat.TargetPassRate > 100 {
			problems = append(problems, fmt.Sprintf("category %q: target_pass_rate %.1f out of range", cat.Name, cat.TargetPassRate))
		}

		for _, pd := range cd.Phrases {
			p, errs := buildPhrase(cat, pd, seenIDs)
			problems = append(problems, errs...)
			if len(errs) == 0 {
				cat.Phrases = append(cat.Phrases, p)
			}
		}

		if cat.PhraseTarget > 0 && len(cd.Phrases) != cat.PhraseTarget {
			problems = append(problems, fmt.Sprintf(
				"category %q: %d phrases declared, target is %d",
				cat.Name, len(cd.Phrases), cat.PhraseTarget))
		}

		c.categories = append(c.categories, cat)
	}

	if len(c.categories) == 0 {
		problems = append(problems, "corpus declares no categories")
	}

	if len(problems) > 0 {
		return nil, &IntegrityError{Problems: problems}
	}

	// Index after the slice stops growing so the pointers stay valid.
	c.byName = make(map[string]*Category, len(c.categories))
	for i := range c.categories {
		c.byName[c.categories[i].Name] = &c.categories[i]
	}
	return c, nil
}

func buildPhrase(cat Category, pd phraseDoc, seenIDs map[string]bool) (Phrase, []string) {
	var problems []string

	if pd.ID == "" {
		problems = append(problems, fmt.Sprintf("category %q: phrase with empty id", cat.Name))
	} else if seenIDs[pd.ID] {
		problems = append(problems, fmt.Sprintf("duplicate phrase id %q", pd.ID))
	}
	seenIDs[pd.ID] = true

	if pd.Text == "" {
		problems = append(problems, fmt.Sprintf("phrase %q: empty text", pd.ID))
	}

	expected := make([]severity.Severity, 0, len(pd.Expected))
	for _, raw := range pd.Expected {
		sev, err := severity.Parse(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("phrase %q: %v", pd.ID, err))
			continue
		}
		expected = append(expected, sev)
	}

	switch cat.Kind {
	case KindExact:
		if len(pd.Expected) != 1 {
			problems = append(problems, fmt.Sprintf(
				"phrase %q: exact category needs exactly one expected severity, got %d",
				pd.ID, len(pd.Expected)))
		}
	case KindTolerance:
		if len(pd.Expected) != 2 {
			problems = append(problems, fmt.Sprintf(
				"phrase %q: tolerance category needs an expected pair, got %d",
				pd.ID, len(pd.Expected)))
		} else if len(expected) == 2 && !expected[0].Below(expected[1]) {
			problems = append(problems, fmt.Sprintf(
				"phrase %q: expected pair (%s, %s) is not strictly ordered",
				pd.ID, expected[0], expected[1]))
		}
	}

	return Phrase{
		ID:                pd.ID,
		Text:              pd.Text,
		Category:          cat.Name,
		Expected:          expected,
		AllowEscalation:   pd.AllowEscalation,
		AllowDeescalation: pd.AllowDeescalation,
		SafetyCritical:    pd.SafetyCritical,
	}, problems
}
