package scan

import (
	"fmt"
	"sort"
	"time"

	"github.com/dshills/smartscan/internal/finding"
	"github.com/dshills/smartscan/internal/lineindex"
	"github.com/dshills/smartscan/internal/rating"
)

// FileFindings holds the findings of one file in discovery order together
// with their line index.
type FileFindings struct {
	Path     string
	Findings []finding.Finding
	Index    *lineindex.Index
}

func newFileFindings(path string, findings []finding.Finding) FileFindings {
	return FileFindings{Path: path, Findings: findings, Index: lineindex.New(findings)}
}

// FileError records a file whose analysis failed. The file contributes no
// findings to the result.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Result is the finalized outcome of one scan. It is read-only once Run
// returns.
type Result struct {
	ID         string
	Analyzer   string
	StartedAt  time.Time
	FinishedAt time.Time

	Rating rating.Rating

	// Failures lists per-file failures in input order.
	Failures []FileError
	// Dropped counts malformed findings discarded during normalization.
	Dropped int
	// Foreign counts findings skipped because they were located in a file
	// other than the one analyzed.
	Foreign int
	// Skipped counts files never started because the scan was cancelled.
	Skipped int
	// Duplicates lists paths analyzed more than once. Every analysis is
	// tallied; File and Findings keep the later one.
	Duplicates []string

	files map[string]FileFindings
}

// Tally returns the aggregate severity counts.
func (r *Result) Tally() rating.Tally { return r.Rating.Tally }

// Files returns the successfully analyzed file paths, sorted.
func (r *Result) Files() []string {
	out := make([]string, 0, len(r.files))
	for p := range r.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// File returns the findings recorded for path.
func (r *Result) File(path string) (FileFindings, bool) {
	ff, ok := r.files[path]
	return ff, ok
}

// Findings returns every finding of the result, ordered by file path and
// then discovery order.
func (r *Result) Findings() []finding.Finding {
	var out []finding.Finding
	for _, p := range r.Files() {
		out = append(out, r.files[p].Findings...)
	}
	return out
}

// FindingsForLine returns the first finding of file covering line, or false
// when the line carries no finding or the file is not in the result.
func (r *Result) FindingsForLine(file string, line int) (finding.Finding, bool) {
	ff, ok := r.files[file]
	if !ok {
		return finding.Finding{}, false
	}
	return ff.Index.At(line)
}

// HighlightedLines returns the sorted lines of file covered by at least one
// finding. See lineindex.Index.HighlightedLines for wide ranges.
func (r *Result) HighlightedLines(file string) []int {
	ff, ok := r.files[file]
	if !ok {
		return nil
	}
	return ff.Index.HighlightedLines()
}

// Duration returns the wall time of the scan.
func (r *Result) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }
