package severity

import "fmt"

// Severity is one level of the fixed crisis taxonomy.
type Severity string

const (
	None   Severity = "none"
	Low    Severity = "low"
	Medium Severity = "medium"
	High   Severity = "high"
)

// ranks defines the total order over the taxonomy.
var ranks = map[Severity]int{
	None:   0,
	Low:    1,
	Medium: 2,
	High:   3,
}

// All returns every severity in order from least to most severe.
func All() []Severity {
	return []Severity{None, Low, Medium, High}
}

// Parse converts a classifier label into a Severity.
// Unknown labels are an error, never coerced to a default level.
func Parse(s string) (Severity, error) {
	sev := Severity(s)
	if _, ok := ranks[sev]; !ok {
		return "", fmt.Errorf("unknown severity %q", s)
	}
	return sev, nil
}

// Rank returns the position of s in the total order (none=0 … high=3).
// Unknown severities rank below none; Parse at the API boundary keeps
// them out of the system.
func (s Severity) Rank() int {
	if r, ok := ranks[s]; ok {
		return r
	}
	return -1
}

// Above reports whether s ranks strictly above other.
func (s Severity) Above(other Severity) bool {
	return s.Rank() > other.Rank()
}

// Below reports whether s ranks strictly below other.
func (s Severity) Below(other Severity) bool {
	return s.Rank() < other.Rank()
}

// Valid reports whether s is part of the taxonomy.
func (s Severity) Valid() bool {
	_, ok := ranks[s]
	return ok
}
