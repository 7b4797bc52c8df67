package main

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/dshills/smartscan/internal/config"
	"github.com/dshills/smartscan/internal/profile"
	"github.com/dshills/smartscan/internal/source"
)

// overrides is one layer of run settings. Empty fields defer to lower layers.
type overrides struct {
	profile  string
	analyzer string
	args     []string
	filter   source.Filter
}

func configOverrides(cfg *config.Config) overrides {
	if cfg == nil {
		return overrides{}
	}
	return overrides{
		profile:  cfg.Scan.Profile,
		analyzer: cfg.Analyzer.Name,
		args:     cfg.Analyzer.Args,
	}
}

func manifestOverrides(m *source.Manifest) overrides {
	if m == nil {
		return overrides{}
	}
	return overrides{
		profile:  m.Config.Scan.Profile,
		analyzer: m.Config.Scan.Analyzer,
		args:     m.Config.Scan.Args,
		filter:   m.Filter(),
	}
}

// runSettings is the profile, discovery filter and analyzer selected for a run.
type runSettings struct {
	profile  *profile.Profile
	filter   source.Filter
	analyzer string
	args     []string
}

// resolveSettings picks the profile named by the highest layer that names one
// and applies each layer's overrides on top of it. Layers are given highest
// precedence first.
func resolveSettings(layers ...overrides) (runSettings, error) {
	name := profile.Default
	for _, l := range layers {
		if l.profile != "" {
			name = l.profile
			break
		}
	}
	prof, err := profile.LoadBuiltin(name)
	if err != nil {
		return runSettings{}, err
	}

	rs := runSettings{
		profile:  prof,
		filter:   prof.Filter(),
		analyzer: prof.Analyzer.Name,
		args:     prof.Analyzer.Args,
	}
	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]
		if len(l.filter.Extensions) > 0 {
			rs.filter.Extensions = l.filter.Extensions
		}
		if len(l.filter.ExcludeDirs) > 0 {
			rs.filter.ExcludeDirs = l.filter.ExcludeDirs
		}
		if l.analyzer != "" {
			rs.analyzer = l.analyzer
		}
		if len(l.args) > 0 {
			rs.args = l.args
		}
	}
	return rs, nil
}

// findManifest loads the project manifest governing root, or returns nil
// when there is none.
func findManifest(root string, logger *zap.Logger) (*source.Manifest, error) {
	m, found, err := source.LoadManifest(manifestStart(root))
	if err != nil || !found {
		return nil, err
	}
	logger.Debug("using project manifest", zap.String("path", m.Path))
	return m, nil
}

// manifestStart returns the directory the manifest search begins in.
func manifestStart(root string) string {
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		return filepath.Dir(root)
	}
	return root
}
