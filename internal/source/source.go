// Package source enumerates and reads the source files a scan operates on.
package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"strings"
)

// File holds a loaded source file with its content and metadata.
type File struct {
	FilePath string
	Raw      string
	Lines    []string
	Hash     string
}

// Load reads a source file and computes its SHA-256 hash.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("source.Load: %w", err)
	}
	raw := string(data)
	h := sha256.Sum256(data)
	return &File{
		FilePath: path,
		Raw:      raw,
		Lines:    splitLines(raw),
		Hash:     fmt.Sprintf("sha256:%x", h),
	}, nil
}

// LineCount returns the number of lines in the file.
func (f *File) LineCount() int { return len(f.Lines) }

// Line returns the text of the 1-based line n, or false when n is out of range.
func (f *File) Line(n int) (string, bool) {
	if n < 1 || n > len(f.Lines) {
		return "", false
	}
	return f.Lines[n-1], true
}

// NumberWidth returns the gutter width used for a file of totalLines lines.
func NumberWidth(totalLines int) int {
	switch {
	case totalLines >= 10000:
		return 5
	case totalLines >= 1000:
		return 4
	default:
		return 3
	}
}

// splitLines splits on newlines, dropping a trailing empty line and any
// carriage returns so line numbers match what an editor shows.
func splitLines(raw string) []string {
	if raw == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(raw, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
