package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotDirectory reports a Discover root that is neither a directory nor a
// matching file.
var ErrNotDirectory = errors.New("not a directory")

// DefaultExcludeDirs are directory names skipped by every walk.
var DefaultExcludeDirs = []string{".git", "node_modules"}

// Filter selects which files Discover returns.
type Filter struct {
	// Extensions lists accepted file extensions including the dot, e.g.
	// ".sol". Matching is case-insensitive. Empty accepts every file.
	Extensions []string
	// ExcludeDirs lists directory base names that are not descended into.
	ExcludeDirs []string
}

// Match reports whether path passes the extension filter.
func (f Filter) Match(path string) bool {
	if len(f.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range f.Extensions {
		if strings.ToLower(normalizeExt(e)) == ext {
			return true
		}
	}
	return false
}

func (f Filter) excluded(name string) bool {
	for _, d := range f.ExcludeDirs {
		if d == name {
			return true
		}
	}
	for _, d := range DefaultExcludeDirs {
		if d == name {
			return true
		}
	}
	return false
}

// Discover returns the files under root accepted by filter, sorted. A root
// that is itself a file is returned as the only entry when it matches. An
// unreadable root is an error; unreadable subdirectories are skipped.
func Discover(root string, filter Filter) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("source.Discover: %w", err)
	}
	if !info.IsDir() {
		if filter.Match(root) {
			return []string{root}, nil
		}
		return nil, fmt.Errorf("source.Discover: %s: %w", root, ErrNotDirectory)
	}
	if _, err := os.ReadDir(root); err != nil {
		return nil, fmt.Errorf("source.Discover: %w", err)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && filter.excluded(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && filter.Match(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("source.Discover: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// DiscoverAll runs Discover for each root and concatenates the results in
// root order.
func DiscoverAll(roots []string, filter Filter) ([]string, error) {
	var all []string
	for _, r := range roots {
		files, err := Discover(r, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, files...)
	}
	return all, nil
}

func normalizeExt(e string) string {
	e = strings.TrimSpace(e)
	e = strings.TrimPrefix(e, "*")
	if e != "" && !strings.HasPrefix(e, ".") {
		e = "." + e
	}
	return e
}
