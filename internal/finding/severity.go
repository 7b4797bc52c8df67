package finding

import "strings"

// Severity is the analyzer-assigned impact class of a finding.
type Severity uint8

const (
	SeverityInformational Severity = iota
	SeverityOptimization
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical

	numSeverities
)

// NumSeverities is the size of the closed severity enumeration.
const NumSeverities = int(numSeverities)

var severityLabels = [numSeverities]string{
	SeverityInformational: "Informational",
	SeverityOptimization:  "Optimization",
	SeverityLow:           "Low",
	SeverityMedium:        "Medium",
	SeverityHigh:          "High",
	SeverityCritical:      "Critical",
}

// DisplayOrder is the order severities appear in the report frequency line.
var DisplayOrder = []Severity{
	SeverityLow,
	SeverityMedium,
	SeverityHigh,
	SeverityCritical,
	SeverityInformational,
	SeverityOptimization,
}

// PriorityOrder lists severities most severe first.
var PriorityOrder = []Severity{
	SeverityCritical,
	SeverityHigh,
	SeverityMedium,
	SeverityLow,
	SeverityOptimization,
	SeverityInformational,
}

func (s Severity) Valid() bool {
	return s < numSeverities
}

func (s Severity) String() string {
	if !s.Valid() {
		return "Unknown"
	}
	return severityLabels[s]
}

// ParseSeverity maps an analyzer impact label onto the enumeration.
// Matching ignores case and surrounding whitespace.
func ParseSeverity(label string) (Severity, bool) {
	label = strings.TrimSpace(label)
	for i, l := range severityLabels {
		if strings.EqualFold(l, label) {
			return Severity(i), true
		}
	}
	return 0, false
}

// MarshalText encodes the canonical label.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts any label ParseSeverity accepts.
func (s *Severity) UnmarshalText(b []byte) error {
	v, ok := ParseSeverity(string(b))
	if !ok {
		return &ValidationError{Path: "severity", Message: "unknown label " + quote(string(b))}
	}
	*s = v
	return nil
}
