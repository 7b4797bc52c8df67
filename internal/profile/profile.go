// Package profile handles loading and formatting built-in scan profiles.
package profile

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/smartscan/internal/source"
)

// Default is the profile used when none is requested.
const Default = "solidity"

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Profile binds a language to the analyzer that scans it.
type Profile struct {
	Name        string   `yaml:"name"`
	Version     int      `yaml:"version"`
	Description string   `yaml:"description"`
	Extensions  []string `yaml:"extensions"`
	ExcludeDirs []string `yaml:"exclude_dirs"`
	Analyzer    Analyzer `yaml:"analyzer"`
}

// Analyzer selects and parameterizes the analyzer for a profile.
type Analyzer struct {
	Name string   `yaml:"name"`
	Args []string `yaml:"args"`
}

// Filter returns the Discover filter for the profile.
func (p *Profile) Filter() source.Filter {
	return source.Filter{
		Extensions:  append([]string(nil), p.Extensions...),
		ExcludeDirs: append([]string(nil), p.ExcludeDirs...),
	}
}

// LoadBuiltin loads a built-in profile by name.
func LoadBuiltin(name string) (*Profile, error) {
	filename := name + ".yaml"
	data, err := builtinFS.ReadFile("builtin/" + filename)
	if err != nil {
		return nil, fmt.Errorf("profile.LoadBuiltin: unknown profile %q: %w", name, err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("profile.LoadBuiltin: parse %q: %w", name, err)
	}
	if len(p.Extensions) == 0 {
		return nil, fmt.Errorf("profile.LoadBuiltin: %q declares no extensions", name)
	}
	return &p, nil
}

// List returns the names of all available built-in profiles.
func List() ([]string, error) {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if strings.HasSuffix(n, ".yaml") {
			names = append(names, strings.TrimSuffix(n, ".yaml"))
		}
	}
	sort.Strings(names)
	return names, nil
}

// Format renders the profile as a short human-readable block.
func Format(p *Profile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s (v%d)\n", p.Name, p.Version)
	if p.Description != "" {
		fmt.Fprintf(&b, "  %s\n", strings.TrimSpace(p.Description))
	}
	fmt.Fprintf(&b, "  extensions: %s\n", strings.Join(p.Extensions, ", "))
	if len(p.ExcludeDirs) > 0 {
		fmt.Fprintf(&b, "  exclude:    %s\n", strings.Join(p.ExcludeDirs, ", "))
	}
	fmt.Fprintf(&b, "  analyzer:   %s", p.Analyzer.Name)
	if len(p.Analyzer.Args) > 0 {
		fmt.Fprintf(&b, " %s", strings.Join(p.Analyzer.Args, " "))
	}
	b.WriteString("\n")

	return b.String()
}
