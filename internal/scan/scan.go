// Package scan runs an analyzer over a set of files and aggregates the
// normalized findings into a rated result.
package scan

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/dshills/smartscan/internal/analyzer"
	"github.com/dshills/smartscan/internal/finding"
	"github.com/dshills/smartscan/internal/rating"
	"github.com/dshills/smartscan/internal/redact"
)

var (
	// ErrTimeout reports a file whose analysis exceeded Options.FileTimeout.
	ErrTimeout = errors.New("analysis timed out")
	// ErrEmptyPath reports an empty entry in the path list.
	ErrEmptyPath = errors.New("empty path")
)

// Options configures a Scanner.
type Options struct {
	// Workers bounds concurrent analyses. Zero selects GOMAXPROCS.
	Workers int
	// FileTimeout bounds each analysis. Zero means no limit.
	FileTimeout time.Duration
	// StartRate limits analyzer launches per second. Zero means unlimited.
	StartRate float64
	// Redact scrubs secrets from finding descriptions.
	Redact bool
	// Observer is called after each successfully analyzed file. Calls are
	// serialized.
	Observer func(FileFindings)
	Logger   *zap.Logger
}

// Scanner analyzes files with one analyzer.
type Scanner struct {
	analyzer analyzer.Analyzer
	opts     Options
	logger   *zap.Logger
}

// New creates a Scanner.
func New(a analyzer.Analyzer, opts Options) *Scanner {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{analyzer: a, opts: opts, logger: logger.Named("scan")}
}

type slot struct {
	started bool
	ff      FileFindings
	err     error
}

// Run analyzes every path and returns the aggregated result. Per-file
// failures are recorded in the result and do not fail the run. When ctx is
// cancelled no further files are started, in-flight analyses finish, and
// Run returns the partial result together with an error wrapping ctx.Err().
func (s *Scanner) Run(ctx context.Context, paths []string) (*Result, error) {
	res := &Result{
		ID:        uuid.NewString(),
		Analyzer:  s.analyzer.Name(),
		StartedAt: time.Now(),
		files:     make(map[string]FileFindings, len(paths)),
	}
	log := s.logger.With(zap.String("scan_id", res.ID))
	log.Info("scan started", zap.Int("files", len(paths)), zap.Int("workers", s.opts.Workers))

	var limiter *rate.Limiter
	if s.opts.StartRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.opts.StartRate), 1)
	}

	slots := make([]slot, len(paths))
	var (
		mu    sync.Mutex
		tally rating.Tally
	)

	g := new(errgroup.Group)
	g.SetLimit(s.opts.Workers)
	for i, path := range paths {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return nil
				}
			}
			slots[i].started = true

			ff, st, err := s.analyzeFile(ctx, path, log)

			mu.Lock()
			defer mu.Unlock()
			res.Dropped += st.dropped
			res.Foreign += st.foreign
			if err != nil {
				slots[i].err = err
				log.Warn("file failed", zap.String("file", path), zap.Error(err))
				return nil
			}
			slots[i].ff = ff
			tally.AddAll(ff.Findings)
			if s.opts.Observer != nil {
				s.opts.Observer(ff)
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, sl := range slots {
		switch {
		case !sl.started:
			res.Skipped++
		case sl.err != nil:
			res.Failures = append(res.Failures, FileError{Path: paths[i], Err: sl.err})
		default:
			if _, seen := res.files[paths[i]]; seen && !slices.Contains(res.Duplicates, paths[i]) {
				res.Duplicates = append(res.Duplicates, paths[i])
			}
			res.files[paths[i]] = sl.ff
		}
	}
	res.Rating = rating.Compute(tally)
	res.FinishedAt = time.Now()

	log.Info("scan finished",
		zap.Int("analyzed", len(res.files)),
		zap.Int("failed", len(res.Failures)),
		zap.Int("skipped", res.Skipped),
		zap.Int("dropped", res.Dropped),
		zap.Int("foreign", res.Foreign),
		zap.Int("score", res.Rating.Score),
		zap.Int("stars", res.Rating.Stars),
		zap.Duration("elapsed", res.Duration()),
	)

	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("scan.Run: %w", err)
	}
	return res, nil
}

// fileStats counts the raw findings of one file that did not become part of
// its result.
type fileStats struct {
	dropped int
	foreign int
}

// analyzeFile runs the analyzer on path and normalizes its output. The
// analysis is detached from ctx cancellation and bounded by FileTimeout.
// Findings located in another file, such as an import, are skipped.
func (s *Scanner) analyzeFile(ctx context.Context, path string, log *zap.Logger) (FileFindings, fileStats, error) {
	var st fileStats
	if strings.TrimSpace(path) == "" {
		return FileFindings{}, st, ErrEmptyPath
	}

	fctx := context.WithoutCancel(ctx)
	if s.opts.FileTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(fctx, s.opts.FileTimeout)
		defer cancel()
	}

	log.Debug("analyzing", zap.String("file", path))
	raws, err := s.analyzer.Analyze(fctx, path)
	if errors.Is(fctx.Err(), context.DeadlineExceeded) {
		return FileFindings{}, st, fmt.Errorf("%w after %s", ErrTimeout, s.opts.FileTimeout)
	}
	if err != nil {
		return FileFindings{}, st, err
	}

	findings := make([]finding.Finding, 0, len(raws))
	for _, raw := range raws {
		if len(raw.Locations) > 0 && !raw.Locations[0].In(path) {
			st.foreign++
			log.Debug("finding located in another file",
				zap.String("file", path),
				zap.String("location", raw.Locations[0].File),
				zap.String("check", raw.Check),
			)
			continue
		}
		f, err := finding.Normalize(raw, path)
		if err != nil {
			st.dropped++
			log.Debug("finding dropped", zap.String("file", path), zap.String("check", raw.Check), zap.Error(err))
			continue
		}
		if s.opts.Redact {
			f.Description = redact.Redact(f.Description)
		}
		log.Debug("finding",
			zap.String("file", path),
			zap.Int("first_line", f.FirstLine),
			zap.Int("last_line", f.LastLine),
			zap.Stringer("severity", f.Severity),
			zap.String("check", f.Check),
		)
		findings = append(findings, f)
	}
	if len(findings) == 0 {
		log.Info("no vulnerabilities found", zap.String("file", path))
	}
	return newFileFindings(path, findings), st, nil
}
