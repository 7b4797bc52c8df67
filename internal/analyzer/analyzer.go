// Package analyzer defines the static analyzer boundary and its
// implementations.
package analyzer

import (
	"context"
	"errors"

	"github.com/dshills/smartscan/internal/finding"
)

var (
	// ErrFileNotFound reports that the file to analyze does not exist.
	ErrFileNotFound = errors.New("source file not found")
	// ErrUnavailable reports that the analyzer executable cannot be found.
	ErrUnavailable = errors.New("analyzer unavailable")
	// ErrAnalyzer reports an internal analyzer failure or a malformed project.
	ErrAnalyzer = errors.New("analyzer failed")
	// ErrUnknown reports an analyzer name Resolve does not know.
	ErrUnknown = errors.New("unknown analyzer")
)

// Analyzer produces raw findings for one source file. Implementations must
// be safe for concurrent use; Analyze is called once per file and may block
// for a long time.
type Analyzer interface {
	Analyze(ctx context.Context, path string) ([]finding.RawFinding, error)
	Name() string
}

// Func adapts an ordinary function to the Analyzer interface.
type Func func(ctx context.Context, path string) ([]finding.RawFinding, error)

func (f Func) Analyze(ctx context.Context, path string) ([]finding.RawFinding, error) {
	return f(ctx, path)
}

func (f Func) Name() string { return "func" }
