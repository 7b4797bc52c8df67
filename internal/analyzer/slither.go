package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/dshills/smartscan/internal/finding"
)

const slitherDefaultBinary = "slither"

// runFunc executes a command and returns its stdout and stderr.
type runFunc func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// Slither runs the Slither static analyzer as a subprocess, one invocation
// per file, and decodes its JSON report.
type Slither struct {
	binary string
	args   []string
	run    runFunc
}

// NewSlither creates a Slither analyzer. An empty binary selects "slither"
// from PATH.
func NewSlither(binary string, args ...string) *Slither {
	if binary == "" {
		binary = slitherDefaultBinary
	}
	return &Slither{binary: binary, args: args, run: execRun}
}

func (s *Slither) Name() string { return "slither" }

func (s *Slither) Analyze(ctx context.Context, path string) ([]finding.RawFinding, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("slither: %w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("slither: stat %s: %w", path, err)
	}

	args := append([]string{path}, s.args...)
	args = append(args, "--json", "-")

	stdout, stderr, runErr := s.run(ctx, s.binary, args...)
	if errors.Is(runErr, exec.ErrNotFound) {
		return nil, fmt.Errorf("slither: %w: %v", ErrUnavailable, runErr)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("slither: %s: %w", path, ctxErr)
	}

	// Slither exits non-zero whenever a detector fires, so the exit status
	// alone does not signal failure; the JSON envelope does.
	results, decodeErr := DecodeReport(stdout)
	if decodeErr != nil {
		if runErr != nil {
			return nil, fmt.Errorf("slither: %w: %v: %s", ErrAnalyzer, runErr, lastLine(stderr))
		}
		return nil, fmt.Errorf("slither: %w", decodeErr)
	}
	return results, nil
}

// DecodeReport parses a Slither JSON report into raw findings, one per
// detector result, in report order.
func DecodeReport(data []byte) ([]finding.RawFinding, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty report", ErrAnalyzer)
	}
	var rep slitherReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("%w: parse report: %v", ErrAnalyzer, err)
	}
	if !rep.Success {
		msg := "unknown error"
		if rep.Error != nil && *rep.Error != "" {
			msg = *rep.Error
		}
		return nil, fmt.Errorf("%w: %s", ErrAnalyzer, msg)
	}

	out := make([]finding.RawFinding, 0, len(rep.Results.Detectors))
	for _, d := range rep.Results.Detectors {
		raw := finding.RawFinding{
			Check:       d.Check,
			Impact:      d.Impact,
			Confidence:  d.Confidence,
			Description: d.Description,
		}
		for _, el := range d.Elements {
			loc := finding.Location{File: el.SourceMapping.FilenameRelative}
			if n := len(el.SourceMapping.Lines); n > 0 {
				loc.StartLine = el.SourceMapping.Lines[0]
				loc.EndLine = el.SourceMapping.Lines[n-1]
			}
			raw.Locations = append(raw.Locations, loc)
		}
		out = append(out, raw)
	}
	return out, nil
}

func execRun(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

func lastLine(b []byte) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

type slitherReport struct {
	Success bool    `json:"success"`
	Error   *string `json:"error"`
	Results struct {
		Detectors []slitherDetector `json:"detectors"`
	} `json:"results"`
}

type slitherDetector struct {
	Check       string           `json:"check"`
	Impact      string           `json:"impact"`
	Confidence  string           `json:"confidence"`
	Description string           `json:"description"`
	Elements    []slitherElement `json:"elements"`
}

type slitherElement struct {
	Type          string `json:"type"`
	Name          string `json:"name"`
	SourceMapping struct {
		FilenameRelative string `json:"filename_relative"`
		Lines            []int  `json:"lines"`
	} `json:"source_mapping"`
}
