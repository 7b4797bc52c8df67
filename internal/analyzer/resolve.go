package analyzer

import (
	"fmt"
	"os/exec"
	"strings"
)

// Options configures analyzer construction.
type Options struct {
	// Binary overrides the executable name or path.
	Binary string
	// Args are extra command-line arguments passed before the output flags.
	Args []string
}

// Resolve returns the analyzer registered under name. For analyzers backed
// by an external executable it verifies the executable can be located.
func Resolve(name string, opts Options) (Analyzer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "slither":
		s := NewSlither(opts.Binary, opts.Args...)
		if _, err := exec.LookPath(s.binary); err != nil {
			return nil, fmt.Errorf("analyzer.Resolve: %w: %s not found in PATH: %v", ErrUnavailable, s.binary, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("analyzer.Resolve: %w: %q", ErrUnknown, name)
	}
}
