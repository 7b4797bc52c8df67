package profile

import (
	"strings"
	"testing"
)

func TestLoadBuiltinAll(t *testing.T) {
	names := []string{"solidity", "vyper"}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			p, err := LoadBuiltin(name)
			if err != nil {
				t.Fatalf("LoadBuiltin(%q): %v", name, err)
			}
			if p.Name != name {
				t.Errorf("profile name = %q, want %q", p.Name, name)
			}
			if p.Analyzer.Name == "" {
				t.Error("profile has no analyzer")
			}
			for _, ext := range p.Extensions {
				if !strings.HasPrefix(ext, ".") {
					t.Errorf("extension %q lacks a leading dot", ext)
				}
			}
		})
	}
}

func TestLoadBuiltinNotFound(t *testing.T) {
	_, err := LoadBuiltin("nonexistent")
	if err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestList(t *testing.T) {
	names, err := List()
	if err != nil {
		t.Fatal(err)
	}
	required := map[string]bool{Default: false, "vyper": false}
	for _, n := range names {
		required[n] = true
	}
	for name, found := range required {
		if !found {
			t.Errorf("missing required profile: %s", name)
		}
	}
}

func TestFilter(t *testing.T) {
	p, err := LoadBuiltin(Default)
	if err != nil {
		t.Fatal(err)
	}
	f := p.Filter()
	if !f.Match("contracts/Bank.sol") {
		t.Error("solidity profile should match .sol")
	}
	if f.Match("contracts/Bank.vy") {
		t.Error("solidity profile should not match .vy")
	}
	f.Extensions[0] = ".changed"
	if p.Extensions[0] != ".sol" {
		t.Error("Filter must copy profile slices")
	}
}

func TestFormat(t *testing.T) {
	p, err := LoadBuiltin("solidity")
	if err != nil {
		t.Fatal(err)
	}

	text := Format(p)

	checks := []string{
		"solidity (v1)",
		"extensions: .sol",
		"exclude:    lib",
		"analyzer:   slither",
	}
	for _, want := range checks {
		if !strings.Contains(text, want) {
			t.Errorf("profile text missing %q", want)
		}
	}
}
