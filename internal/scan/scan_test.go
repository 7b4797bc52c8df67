package scan

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/dshills/smartscan/internal/analyzer"
	"github.com/dshills/smartscan/internal/finding"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func raw(impact string, start, end int, desc string) finding.RawFinding {
	return finding.RawFinding{
		Check:       "check-" + impact,
		Impact:      impact,
		Description: desc,
		Locations:   []finding.Location{{StartLine: start, EndLine: end}},
	}
}

func TestRunContainsPerFileFailure(t *testing.T) {
	m := &analyzer.Mock{
		Results: map[string][]finding.RawFinding{
			"b.sol": {raw("Medium", 3, 4, "unchecked call"), raw("Medium", 10, 10, "tx.origin")},
		},
		Errs: map[string]error{"a.sol": fmt.Errorf("slither: %w: boom", analyzer.ErrAnalyzer)},
	}
	s := New(m, Options{Workers: 2, Logger: zaptest.NewLogger(t)})

	res, err := s.Run(context.Background(), []string{"a.sol", "b.sol"})
	require.NoError(t, err)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "a.sol", res.Failures[0].Path)
	assert.ErrorIs(t, &res.Failures[0], analyzer.ErrAnalyzer)

	assert.Equal(t, []string{"b.sol"}, res.Files())
	assert.Equal(t, 2, res.Tally().Count(finding.SeverityMedium))
	assert.Equal(t, 10, res.Rating.Score)
	assert.Equal(t, 1, res.Rating.Stars)
	assert.Equal(t, "Great", res.Rating.Label())
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "mock", res.Analyzer)
	assert.False(t, res.FinishedAt.Before(res.StartedAt))

	_, ok := res.File("a.sol")
	assert.False(t, ok, "failed file must be absent from the index")
}

func TestRunEmptyInput(t *testing.T) {
	s := New(&analyzer.Mock{}, Options{})
	res, err := s.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Rating.Stars)
	assert.Equal(t, 0, res.Rating.Score)
	assert.Empty(t, res.Files())
	assert.Empty(t, res.Failures)
}

func TestRunZeroFindingsFile(t *testing.T) {
	s := New(&analyzer.Mock{}, Options{})
	res, err := s.Run(context.Background(), []string{"clean.sol"})
	require.NoError(t, err)
	ff, ok := res.File("clean.sol")
	require.True(t, ok)
	assert.Empty(t, ff.Findings)
	assert.Empty(t, res.HighlightedLines("clean.sol"))
}

func TestRunEmptyPathIsContained(t *testing.T) {
	m := &analyzer.Mock{Results: map[string][]finding.RawFinding{"a.sol": {raw("Low", 1, 1, "x")}}}
	s := New(m, Options{})
	res, err := s.Run(context.Background(), []string{"", "a.sol"})
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.ErrorIs(t, res.Failures[0].Err, ErrEmptyPath)
	assert.Equal(t, 1, res.Tally().Count(finding.SeverityLow))
	assert.Equal(t, []string{"a.sol"}, m.Calls(), "empty path never reaches the analyzer")
}

func TestRunDuplicatePathsTalliedIndependently(t *testing.T) {
	m := &analyzer.Mock{Results: map[string][]finding.RawFinding{"a.sol": {raw("High", 5, 7, "reentrancy")}}}
	s := New(m, Options{Workers: 1})
	res, err := s.Run(context.Background(), []string{"a.sol", "a.sol"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Tally().Count(finding.SeverityHigh))
	assert.Equal(t, []string{"a.sol"}, res.Files())
	assert.Equal(t, []string{"a.sol"}, res.Duplicates)
	assert.Len(t, m.Calls(), 2)
}

func TestRunDropsMalformedFindings(t *testing.T) {
	noLoc := finding.RawFinding{Impact: "High", Description: "no location"}
	m := &analyzer.Mock{Results: map[string][]finding.RawFinding{
		"a.sol": {raw("Severe", 1, 1, "unknown label"), noLoc, raw("low", 2, 3, "ok")},
	}}
	s := New(m, Options{})
	res, err := s.Run(context.Background(), []string{"a.sol"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Dropped)
	assert.Equal(t, 1, res.Tally().Count(finding.SeverityLow))
	assert.Equal(t, 0, res.Tally().Count(finding.SeverityHigh))
}

func TestRunSkipsFindingsInOtherFiles(t *testing.T) {
	imported := raw("High", 40, 52, "ERC20.transfer ignores return value")
	imported.Locations[0].File = "lib/openzeppelin/ERC20.sol"
	local := raw("Medium", 3, 4, "unchecked call")
	local.Locations[0].File = "contracts/Bank.sol"

	m := &analyzer.Mock{Results: map[string][]finding.RawFinding{
		"/work/contracts/Bank.sol": {imported, local},
	}}
	res, err := New(m, Options{Logger: zaptest.NewLogger(t)}).Run(context.Background(), []string{"/work/contracts/Bank.sol"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Foreign)
	assert.Equal(t, 0, res.Dropped)
	assert.Equal(t, 0, res.Tally().Count(finding.SeverityHigh))
	assert.Equal(t, 1, res.Tally().Count(finding.SeverityMedium))
	_, ok := res.FindingsForLine("/work/contracts/Bank.sol", 45)
	assert.False(t, ok, "lines of an imported file must not be highlighted")
}

func TestRunFileTimeout(t *testing.T) {
	m := &analyzer.Mock{Delay: 50 * time.Millisecond}
	s := New(m, Options{FileTimeout: 5 * time.Millisecond})
	res, err := s.Run(context.Background(), []string{"slow.sol"})
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.ErrorIs(t, res.Failures[0].Err, ErrTimeout)
	assert.Empty(t, res.Files())
}

func TestRunCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := &analyzer.Mock{}
	s := New(m, Options{})
	res, err := s.Run(ctx, []string{"a.sol", "b.sol"})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Equal(t, 2, res.Skipped)
	assert.Empty(t, m.Calls())
	assert.Equal(t, 0, res.Rating.Stars)
}

func TestRunCancelMidScanKeepsCompletedFiles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := &analyzer.Mock{Results: map[string][]finding.RawFinding{
		"a.sol": {raw("Critical", 1, 2, "selfdestruct")},
		"b.sol": {raw("Critical", 1, 2, "selfdestruct")},
		"c.sol": {raw("Critical", 1, 2, "selfdestruct")},
	}}
	s := New(m, Options{Workers: 1, Observer: func(FileFindings) { cancel() }})

	res, err := s.Run(ctx, []string{"a.sol", "b.sol", "c.sol"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a.sol"}, res.Files())
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 1, res.Tally().Count(finding.SeverityCritical))
	assert.Equal(t, 4, res.Rating.Stars)
}

func TestRunInFlightAnalysisIgnoresCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	release := make(chan struct{})
	a := analyzer.Func(func(actx context.Context, path string) ([]finding.RawFinding, error) {
		close(started)
		<-release
		if actx.Err() != nil {
			return nil, actx.Err()
		}
		return []finding.RawFinding{raw("Low", 1, 1, "x")}, nil
	})
	s := New(a, Options{})

	go func() {
		<-started
		cancel()
		close(release)
	}()
	res, err := s.Run(ctx, []string{"a.sol"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a.sol"}, res.Files())
	assert.Equal(t, 1, res.Tally().Count(finding.SeverityLow))
}

func TestRunObserverSerialized(t *testing.T) {
	results := map[string][]finding.RawFinding{}
	var paths []string
	for i := range 20 {
		p := fmt.Sprintf("f%02d.sol", i)
		paths = append(paths, p)
		results[p] = []finding.RawFinding{raw("Low", 1, 1, p)}
	}
	var active, peak, calls atomic.Int32
	s := New(&analyzer.Mock{Results: results}, Options{
		Workers: 8,
		Observer: func(FileFindings) {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			active.Add(-1)
			calls.Add(1)
		},
	})
	res, err := s.Run(context.Background(), paths)
	require.NoError(t, err)
	assert.Equal(t, int32(20), calls.Load())
	assert.Equal(t, int32(1), peak.Load(), "observer calls overlapped")
	assert.Equal(t, 20, res.Tally().Count(finding.SeverityLow))
	assert.Equal(t, 2, res.Rating.Stars)
}

func TestRunStartRate(t *testing.T) {
	m := &analyzer.Mock{}
	start := time.Now()
	res, err := New(m, Options{Workers: 4, StartRate: 100}).Run(context.Background(), []string{"a.sol", "b.sol", "c.sol"})
	require.NoError(t, err)
	assert.Len(t, res.Files(), 3)
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond, "launches should be spaced by the limiter")
}

func TestRunWideRangeCompletes(t *testing.T) {
	m := &analyzer.Mock{Results: map[string][]finding.RawFinding{
		"a.sol": {raw("High", math.MaxInt-2, math.MaxInt, "wide"), raw("Low", 1, 5_000_000, "long")},
	}}
	done := make(chan *Result, 1)
	go func() {
		res, _ := New(m, Options{}).Run(context.Background(), []string{"a.sol"})
		done <- res
	}()
	select {
	case res := <-done:
		f, ok := res.FindingsForLine("a.sol", math.MaxInt)
		require.True(t, ok)
		assert.Equal(t, "wide", f.Description)
		ff, _ := res.File("a.sol")
		assert.Equal(t, 5_000_003, ff.Index.HighlightedCount())
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not finish for findings with very wide ranges")
	}
}

func TestRunRedactsDescriptions(t *testing.T) {
	m := &analyzer.Mock{Results: map[string][]finding.RawFinding{
		"a.sol": {raw("Low", 1, 1, "hardcoded password=hunter2 in constructor")},
	}}
	res, err := New(m, Options{Redact: true}).Run(context.Background(), []string{"a.sol"})
	require.NoError(t, err)
	f, ok := res.FindingsForLine("a.sol", 1)
	require.True(t, ok)
	assert.NotContains(t, f.Description, "hunter2")
	assert.Contains(t, f.Description, "[REDACTED]")
}

func TestResultLineQueries(t *testing.T) {
	m := &analyzer.Mock{Results: map[string][]finding.RawFinding{
		"a.sol": {raw("High", 10, 12, "first"), raw("Low", 11, 11, "second")},
	}}
	res, err := New(m, Options{}).Run(context.Background(), []string{"a.sol"})
	require.NoError(t, err)

	assert.Equal(t, []int{10, 11, 12}, res.HighlightedLines("a.sol"))
	f, ok := res.FindingsForLine("a.sol", 11)
	require.True(t, ok)
	assert.Equal(t, "first", f.Description)
	assert.Equal(t, "a.sol", f.SourceFile)

	_, ok = res.FindingsForLine("a.sol", 13)
	assert.False(t, ok)
	_, ok = res.FindingsForLine("missing.sol", 10)
	assert.False(t, ok)
	assert.Nil(t, res.HighlightedLines("missing.sol"))
	assert.Len(t, res.Findings(), 2)
}

func TestFileErrorUnwrap(t *testing.T) {
	e := &FileError{Path: "a.sol", Err: analyzer.ErrFileNotFound}
	assert.True(t, errors.Is(e, analyzer.ErrFileNotFound))
	assert.Equal(t, "a.sol: source file not found", e.Error())
}
