// Package render produces the security report and alternative renderings of
// a scan result.
package render

import (
	"fmt"
	"os"
	"strings"

	"github.com/dshills/smartscan/internal/finding"
	"github.com/dshills/smartscan/internal/rating"
)

// DefaultReportPath is the report artifact written when no path is given.
const DefaultReportPath = "security_report.txt"

// Text renders the security report for r. The Result line is omitted when
// the rating has no label.
func Text(r rating.Rating) string {
	var b strings.Builder

	b.WriteString("Security report:\n")
	fmt.Fprintf(&b, "Severity rating: %d / %d\n", r.Stars, rating.MaxStars)
	fmt.Fprintf(&b, "Severity Score: %d\n", r.Score)
	if label := r.Label(); label != "" {
		fmt.Fprintf(&b, "Result: %s\n", label)
	}
	fmt.Fprintf(&b, "Severity frequency: %s\n", Frequency(r.Tally))

	return b.String()
}

// Frequency renders every severity class with its count in display order,
// e.g. "{Low: 1, Medium: 0, ...}".
func Frequency(t rating.Tally) string {
	parts := make([]string, 0, len(finding.DisplayOrder))
	for _, s := range finding.DisplayOrder {
		parts = append(parts, fmt.Sprintf("%s: %d", s, t.Count(s)))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// WriteError reports a report artifact that could not be persisted.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("render: write report %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// WriteReport writes text to path, or to DefaultReportPath when path is
// empty. Failures are returned as *WriteError.
func WriteReport(path, text string) error {
	if path == "" {
		path = DefaultReportPath
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
