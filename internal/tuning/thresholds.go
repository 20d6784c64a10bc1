package tuning

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/evanmorse/crisiseval/internal/corpus"
)

//go:embed thresholds.yaml
var defaultThresholds []byte

// Mapping names the classifier configuration variable that controls a
// category's decision boundary, and the step a single tuning move adjusts
// it by.
type Mapping struct {
	Variable string  `yaml:"variable"`
	Step     float64 `yaml:"step"`
}

// ThresholdMap is the static category → configuration-variable table.
// Validated against the corpus category set at startup so a missing
// mapping is a load-time error, not a runtime surprise.
type ThresholdMap map[string]Mapping

// LoadThresholdMap parses a YAML threshold table.
func LoadThresholdMap(raw []byte) (ThresholdMap, error) {
	var doc struct {
		Categories map[string]Mapping `yaml:"categories"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse threshold map: %w", err)
	}
	if len(doc.Categories) == 0 {
		return nil, fmt.Errorf("threshold map declares no categories")
	}
	for name, m := range doc.Categories {
		if m.Variable == "" {
			return nil, fmt.Errorf("threshold map: category %q has no variable", name)
		}
		if m.Step <= 0 {
			return nil, fmt.Errorf("threshold map: category %q has non-positive step %v", name, m.Step)
		}
	}
	return doc.Categories, nil
}

// LoadThresholdMapFile loads a threshold table from a YAML file.
func LoadThresholdMapFile(path string) (ThresholdMap, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read threshold map %s: %w", path, err)
	}
	return LoadThresholdMap(raw)
}

// DefaultThresholdMap loads the table embedded in the binary.
func DefaultThresholdMap() (ThresholdMap, error) {
	return LoadThresholdMap(defaultThresholds)
}

// Validate checks that every corpus category has a mapping.
func (tm ThresholdMap) Validate(categories []corpus.Category) error {
	var missing []string
	for _, cat := range categories {
		if _, ok := tm[cat.Name]; !ok {
			missing = append(missing, cat.Name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("threshold map missing categories: %s", strings.Join(missing, ", "))
	}
	return nil
}
