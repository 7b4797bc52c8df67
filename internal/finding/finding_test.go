package finding

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestSeverityValid(t *testing.T) {
	for _, s := range PriorityOrder {
		if !s.Valid() {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if Severity(42).Valid() {
		t.Error("expected out-of-range severity to be invalid")
	}
	if Severity(42).String() != "Unknown" {
		t.Errorf("got %q for invalid severity", Severity(42).String())
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		label string
		want  Severity
		ok    bool
	}{
		{"High", SeverityHigh, true},
		{"high", SeverityHigh, true},
		{"  Medium ", SeverityMedium, true},
		{"Low", SeverityLow, true},
		{"Critical", SeverityCritical, true},
		{"Informational", SeverityInformational, true},
		{"Optimization", SeverityOptimization, true},
		{"Info", 0, false},
		{"", 0, false},
		{"N/A", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := ParseSeverity(tt.label)
			if ok != tt.ok {
				t.Fatalf("ParseSeverity(%q) ok = %v, want %v", tt.label, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("ParseSeverity(%q) = %s, want %s", tt.label, got, tt.want)
			}
		})
	}
}

func TestOrdersCoverEverySeverity(t *testing.T) {
	for _, order := range [][]Severity{DisplayOrder, PriorityOrder} {
		if len(order) != NumSeverities {
			t.Fatalf("order has %d entries, want %d", len(order), NumSeverities)
		}
		seen := make(map[Severity]bool)
		for _, s := range order {
			seen[s] = true
		}
		if len(seen) != NumSeverities {
			t.Errorf("order has duplicates: %v", order)
		}
	}
}

func TestSeverityJSON(t *testing.T) {
	data, err := json.Marshal(Finding{Severity: SeverityHigh})
	if err != nil {
		t.Fatal(err)
	}
	var f Finding
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatal(err)
	}
	if f.Severity != SeverityHigh {
		t.Errorf("severity = %s, want High", f.Severity)
	}
	if err := json.Unmarshal([]byte(`{"severity":"Bogus"}`), &f); err == nil {
		t.Error("expected error for unknown severity label")
	}
}

func TestNormalizeTakesFirstLocation(t *testing.T) {
	raw := RawFinding{
		Check:       "reentrancy-eth",
		Impact:      "High",
		Confidence:  "Medium",
		Description: "  Reentrancy in Bank.withdraw()\n",
		Locations: []Location{
			{StartLine: 10, EndLine: 14},
			{StartLine: 30, EndLine: 31},
		},
	}
	f, err := Normalize(raw, "contracts/Bank.sol")
	if err != nil {
		t.Fatal(err)
	}
	if f.FirstLine != 10 || f.LastLine != 14 {
		t.Errorf("range = %d-%d, want 10-14", f.FirstLine, f.LastLine)
	}
	if f.SourceFile != "contracts/Bank.sol" {
		t.Errorf("source file = %q", f.SourceFile)
	}
	if f.Description != "Reentrancy in Bank.withdraw()" {
		t.Errorf("description = %q", f.Description)
	}
	if f.Check != "reentrancy-eth" || f.Confidence != "Medium" {
		t.Errorf("check/confidence not carried: %+v", f)
	}
}

func TestNormalizeRejects(t *testing.T) {
	tests := []struct {
		name        string
		raw         RawFinding
		wantUnknown bool
	}{
		{"unknown severity", RawFinding{Impact: "Severe", Locations: []Location{{StartLine: 1, EndLine: 1}}}, true},
		{"no locations", RawFinding{Impact: "Low"}, false},
		{"zero start", RawFinding{Impact: "Low", Locations: []Location{{StartLine: 0, EndLine: 3}}}, false},
		{"inverted", RawFinding{Impact: "Low", Locations: []Location{{StartLine: 5, EndLine: 4}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.raw, "a.sol")
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("error %v does not wrap ErrMalformed", err)
			}
			if got := errors.Is(err, ErrUnknownSeverity); got != tt.wantUnknown {
				t.Errorf("errors.Is(ErrUnknownSeverity) = %v, want %v", got, tt.wantUnknown)
			}
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	errs := Validate(RawFinding{Impact: "??", Locations: []Location{{StartLine: 0, EndLine: -1}}})
	if len(errs) != 3 {
		t.Fatalf("got %d errors, want 3: %v", len(errs), errs)
	}
	if errs[0].Path != "impact" {
		t.Errorf("first error path = %q", errs[0].Path)
	}
}

func TestCovers(t *testing.T) {
	f := Finding{FirstLine: 10, LastLine: 12}
	for line, want := range map[int]bool{9: false, 10: true, 11: true, 12: true, 13: false} {
		if f.Covers(line) != want {
			t.Errorf("Covers(%d) = %v, want %v", line, !want, want)
		}
	}
}

func TestLocationIn(t *testing.T) {
	tests := []struct {
		file string
		path string
		want bool
	}{
		{"", "contracts/Bank.sol", true},
		{"contracts/Bank.sol", "contracts/Bank.sol", true},
		{"contracts/Bank.sol", "/work/project/contracts/Bank.sol", true},
		{"/work/project/contracts/Bank.sol", "./contracts/Bank.sol", true},
		{"Bank.sol", "contracts/Bank.sol", true},
		{"lib/openzeppelin/ERC20.sol", "contracts/Bank.sol", false},
		{"contracts/MyBank.sol", "contracts/Bank.sol", false},
		{"other/Bank.sol", "contracts/Bank.sol", false},
	}
	for _, tt := range tests {
		got := Location{File: tt.file}.In(tt.path)
		if got != tt.want {
			t.Errorf("Location{File: %q}.In(%q) = %v, want %v", tt.file, tt.path, got, tt.want)
		}
	}
}
