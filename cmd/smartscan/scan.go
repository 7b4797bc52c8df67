package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/smartscan/internal/analyzer"
	"github.com/dshills/smartscan/internal/config"
	"github.com/dshills/smartscan/internal/rating"
	"github.com/dshills/smartscan/internal/render"
	"github.com/dshills/smartscan/internal/scan"
	"github.com/dshills/smartscan/internal/source"
)

type scanFlags struct {
	profileName   string
	extensions    []string
	exclude       []string
	analyzerName  string
	binary        string
	workers       int
	timeout       time.Duration
	rate          float64
	reportPath    string
	format        string
	out           string
	failOn        int
	redactEnabled bool
	noManifest    bool

	// config holds the profile and analyzer settings from configuration.
	// They rank below the project manifest.
	config overrides

	analyzer analyzer.Analyzer
	stdout   io.Writer
	logger   *zap.Logger
}

func newScanCmd(env *cliEnv) *cobra.Command {
	f := &scanFlags{}

	cmd := &cobra.Command{
		Use:   "scan [path...]",
		Short: "Analyze source files and write a security report",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyScanConfig(cmd, f, env.cfg)
			f.logger = env.logger
			f.stdout = cmd.OutOrStdout()
			if len(args) == 0 {
				args = []string{"."}
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runScan(ctx, args, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.profileName, "profile", "", "Profile name (default: from smartscan.toml or config)")
	flags.StringSliceVar(&f.extensions, "ext", nil, "File extensions to scan, overriding the profile")
	flags.StringSliceVar(&f.exclude, "exclude", nil, "Directory names to skip, overriding the profile")
	flags.StringVar(&f.analyzerName, "analyzer", "", "Analyzer name, overriding the profile")
	flags.IntVar(&f.workers, "workers", 0, "Concurrent analyses (0: number of CPUs)")
	flags.DurationVar(&f.timeout, "timeout", 10*time.Minute, "Per-file analysis timeout (0: none)")
	flags.Float64Var(&f.rate, "rate", 0, "Analyzer launches per second (0: unlimited)")
	flags.StringVar(&f.reportPath, "report", render.DefaultReportPath, "Report artifact path")
	flags.StringVar(&f.format, "format", "text", "Output format: text, md, json, or sarif")
	flags.StringVar(&f.out, "out", "", "Output file path (default: stdout)")
	flags.IntVar(&f.failOn, "fail-on", 0, "Exit with code 2 if the rating reaches this many stars (0: never)")
	flags.BoolVar(&f.redactEnabled, "redact", true, "Redact secrets from finding descriptions")
	flags.BoolVar(&f.noManifest, "no-manifest", false, "Ignore smartscan.toml")

	return cmd
}

// applyScanConfig fills flags the user did not set from configuration.
func applyScanConfig(cmd *cobra.Command, f *scanFlags, cfg *config.Config) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	flags := cmd.Flags()
	if !flags.Changed("workers") {
		f.workers = cfg.Scan.Workers
	}
	if !flags.Changed("timeout") {
		f.timeout = cfg.Scan.FileTimeout
	}
	if !flags.Changed("rate") {
		f.rate = cfg.Scan.StartRate
	}
	if !flags.Changed("report") {
		f.reportPath = cfg.Report.Path
	}
	if !flags.Changed("format") {
		f.format = cfg.Report.Format
	}
	if !flags.Changed("redact") {
		f.redactEnabled = cfg.Report.Redact
	}
	f.binary = cfg.Analyzer.Binary
	f.config = configOverrides(cfg)
}

func runScan(ctx context.Context, roots []string, f *scanFlags) error {
	logger := f.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("cli")
	stdout := f.stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	// 1. Validate flags
	if !slices.Contains(config.Formats, f.format) {
		return exitError(3, "unknown format: %s", f.format)
	}
	if f.failOn < 0 || f.failOn > rating.MaxStars {
		return exitError(3, "--fail-on must be between 0 and %d, got %d", rating.MaxStars, f.failOn)
	}

	// 2. Project manifest
	var manifest *source.Manifest
	if !f.noManifest {
		m, err := findManifest(roots[0], logger)
		if err != nil {
			return exitError(3, "failed to load project manifest: %v", err)
		}
		manifest = m
	}

	// 3. Profile: flags > manifest > config > profile defaults
	settings, err := resolveSettings(
		overrides{
			profile:  f.profileName,
			analyzer: f.analyzerName,
			filter:   source.Filter{Extensions: f.extensions, ExcludeDirs: f.exclude},
		},
		manifestOverrides(manifest),
		f.config,
	)
	if err != nil {
		return exitError(3, "failed to load profile: %v", err)
	}

	// 4. Discover files
	paths, err := source.DiscoverAll(roots, settings.filter)
	if err != nil {
		return exitError(3, "failed to discover source files: %v", err)
	}
	logger.Info("discovered source files", zap.Int("files", len(paths)), zap.String("profile", settings.profile.Name))

	// 5. Resolve analyzer
	a := f.analyzer
	if a == nil {
		a, err = analyzer.Resolve(settings.analyzer, analyzer.Options{Binary: f.binary, Args: settings.args})
		if err != nil {
			return exitError(4, "analyzer error: %v", err)
		}
	}

	// 6. Scan
	s := scan.New(a, scan.Options{
		Workers:     f.workers,
		FileTimeout: f.timeout,
		StartRate:   f.rate,
		Redact:      f.redactEnabled,
		Logger:      logger,
		Observer: func(ff scan.FileFindings) {
			logger.Info("file analyzed",
				zap.String("file", ff.Path),
				zap.Int("findings", len(ff.Findings)),
				zap.Int("highlighted_lines", ff.Index.HighlightedCount()),
			)
		},
	})
	res, runErr := s.Run(ctx, paths)

	// 7. Report artifact
	if err := render.WriteReport(f.reportPath, render.Text(res.Rating)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	// 8. Output
	output, err := renderOutput(res, f.format)
	if err != nil {
		return fmt.Errorf("failed to render output: %w", err)
	}
	if f.out != "" {
		logger.Debug("writing output", zap.String("path", f.out))
		if err := os.WriteFile(f.out, output, 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else if _, err := stdout.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if runErr != nil {
		return exitError(1, "scan interrupted after %d of %d files: %v", len(paths)-res.Skipped, len(paths), runErr)
	}

	// 9. Exit code based on --fail-on
	if f.failOn > 0 && res.Rating.Stars >= f.failOn {
		return exitError(2, "severity rating %d / %d meets fail threshold %d", res.Rating.Stars, rating.MaxStars, f.failOn)
	}
	return nil
}

func renderOutput(res *scan.Result, format string) ([]byte, error) {
	switch format {
	case "md":
		return []byte(render.Markdown(res)), nil
	case "json":
		return render.JSON(res)
	case "sarif":
		return render.SARIF(res, version)
	default:
		return []byte(render.Text(res.Rating)), nil
	}
}
