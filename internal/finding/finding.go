// Package finding defines the normalized static-analysis finding and the
// conversion from raw analyzer records.
package finding

import (
	"path/filepath"
	"strings"
)

// Finding is one normalized analyzer result covering a contiguous,
// 1-based inclusive line range of a single source file.
type Finding struct {
	SourceFile  string   `json:"source_file"`
	FirstLine   int      `json:"first_line"`
	LastLine    int      `json:"last_line"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Check       string   `json:"check,omitempty"`
	Confidence  string   `json:"confidence,omitempty"`
}

// Covers reports whether line falls inside the finding's range.
func (f Finding) Covers(line int) bool {
	return line >= f.FirstLine && line <= f.LastLine
}

// RawFinding is an analyzer record before normalization.
type RawFinding struct {
	Check       string     `json:"check"`
	Impact      string     `json:"impact"`
	Confidence  string     `json:"confidence"`
	Description string     `json:"description"`
	Locations   []Location `json:"locations"`
}

// Location is a source-mapped element of a raw finding.
type Location struct {
	File      string `json:"file,omitempty"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// In reports whether the location lies in the file at path. Analyzers report
// files relative to their own working directory, so the two names match when
// one is a whole-component suffix of the other. A location without a file
// belongs to any path.
func (l Location) In(path string) bool {
	if l.File == "" {
		return true
	}
	a := filepath.ToSlash(filepath.Clean(l.File))
	b := filepath.ToSlash(filepath.Clean(path))
	if len(a) > len(b) {
		a, b = b, a
	}
	a = strings.TrimPrefix(a, "./")
	return b == a || strings.HasSuffix(b, "/"+a)
}
