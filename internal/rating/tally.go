// Package rating reduces a set of findings to a severity score and a
// 0-5 star rating.
package rating

import (
	"encoding/json"

	"github.com/dshills/smartscan/internal/finding"
)

// Tally counts findings per severity class. The zero value has every class
// present with a count of zero.
type Tally [finding.NumSeverities]int

// Add folds one finding of severity s into the tally.
func (t *Tally) Add(s finding.Severity) {
	if s.Valid() {
		t[s]++
	}
}

// AddAll folds every finding into the tally.
func (t *Tally) AddAll(fs []finding.Finding) {
	for _, f := range fs {
		t.Add(f.Severity)
	}
}

// Count returns the number of findings of severity s.
func (t Tally) Count(s finding.Severity) int {
	if !s.Valid() {
		return 0
	}
	return t[s]
}

// Total counts Low, Medium, High and Critical findings. Informational and
// Optimization findings never participate in the rating thresholds.
func (t Tally) Total() int {
	return t[finding.SeverityLow] + t[finding.SeverityMedium] +
		t[finding.SeverityHigh] + t[finding.SeverityCritical]
}

// MarshalJSON renders the tally as a label-keyed object.
func (t Tally) MarshalJSON() ([]byte, error) {
	m := make(map[string]int, len(t))
	for _, s := range finding.DisplayOrder {
		m[s.String()] = t[s]
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads a label-keyed object; unknown labels are ignored.
func (t *Tally) UnmarshalJSON(b []byte) error {
	var m map[string]int
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*t = Tally{}
	for label, n := range m {
		if s, ok := finding.ParseSeverity(label); ok {
			t[s] = n
		}
	}
	return nil
}
