package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ManifestName is the project manifest file looked up by FindManifest.
const ManifestName = "smartscan.toml"

// Manifest is a loaded project manifest.
type Manifest struct {
	Path   string
	Root   string
	Config ManifestConfig
}

// ManifestConfig is the decoded content of smartscan.toml.
type ManifestConfig struct {
	Project ProjectSection `toml:"project"`
	Scan    ScanSection    `toml:"scan"`
}

type ProjectSection struct {
	Name string `toml:"name"`
}

// ScanSection overrides profile and command-line defaults for the project.
type ScanSection struct {
	Profile    string   `toml:"profile"`
	Analyzer   string   `toml:"analyzer"`
	Args       []string `toml:"args"`
	Extensions []string `toml:"extensions"`
	Exclude    []string `toml:"exclude"`
}

// Filter returns the Discover filter declared by the manifest.
func (m *Manifest) Filter() Filter {
	return Filter{Extensions: m.Config.Scan.Extensions, ExcludeDirs: m.Config.Scan.Exclude}
}

// FindManifest walks upward from startDir looking for smartscan.toml.
func FindManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("source.FindManifest: resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("source.FindManifest: stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadManifest finds and decodes the nearest smartscan.toml at or above
// startDir. The bool result is false when no manifest exists.
func LoadManifest(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := decodeManifest(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}, true, nil
}

func decodeManifest(path string) (ManifestConfig, error) {
	var cfg ManifestConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return ManifestConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("project") {
		return ManifestConfig{}, fmt.Errorf("%s: missing [project]", path)
	}
	if !meta.IsDefined("project", "name") || strings.TrimSpace(cfg.Project.Name) == "" {
		return ManifestConfig{}, fmt.Errorf("%s: missing [project].name", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return ManifestConfig{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	for i, e := range cfg.Scan.Extensions {
		cfg.Scan.Extensions[i] = normalizeExt(e)
	}
	return cfg, nil
}
