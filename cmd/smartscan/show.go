package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/smartscan/internal/analyzer"
	"github.com/dshills/smartscan/internal/annotate"
	"github.com/dshills/smartscan/internal/config"
	"github.com/dshills/smartscan/internal/scan"
	"github.com/dshills/smartscan/internal/source"
)

type showFlags struct {
	line          int
	contextLines  int
	noColor       bool
	profileName   string
	timeout       time.Duration
	redactEnabled bool
	noManifest    bool
	binary        string
	config        overrides

	analyzer analyzer.Analyzer
	stdout   io.Writer
	logger   *zap.Logger
}

func newShowCmd(env *cliEnv) *cobra.Command {
	f := &showFlags{}

	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Print a source file with the lines of its findings highlighted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := env.cfg
			if cfg == nil {
				cfg = config.NewDefaultConfig()
			}
			f.timeout = cfg.Scan.FileTimeout
			f.redactEnabled = cfg.Report.Redact
			f.binary = cfg.Analyzer.Binary
			f.config = configOverrides(cfg)
			f.logger = env.logger
			f.stdout = cmd.OutOrStdout()
			return runShow(cmd.Context(), args[0], f)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&f.line, "line", "l", 0, "Describe the finding on this line")
	flags.IntVar(&f.contextLines, "context", -1, "Only print highlighted lines and this many around them (-1: whole file)")
	flags.BoolVar(&f.noColor, "no-color", false, "Disable colors")
	flags.StringVar(&f.profileName, "profile", "", "Profile name (default: from smartscan.toml or config)")
	flags.BoolVar(&f.noManifest, "no-manifest", false, "Ignore smartscan.toml")

	return cmd
}

func runShow(ctx context.Context, path string, f *showFlags) error {
	logger := f.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	stdout := f.stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	src, err := source.Load(path)
	if err != nil {
		return exitError(3, "failed to load source: %v", err)
	}
	if f.line < 0 || f.line > src.LineCount() {
		return exitError(3, "--line %d is outside %s (1-%d)", f.line, path, src.LineCount())
	}

	var manifest *source.Manifest
	if !f.noManifest {
		if manifest, err = findManifest(path, logger); err != nil {
			return exitError(3, "failed to load project manifest: %v", err)
		}
	}
	settings, err := resolveSettings(
		overrides{profile: f.profileName},
		manifestOverrides(manifest),
		f.config,
	)
	if err != nil {
		return exitError(3, "failed to load profile: %v", err)
	}

	a := f.analyzer
	if a == nil {
		a, err = analyzer.Resolve(settings.analyzer, analyzer.Options{Binary: f.binary, Args: settings.args})
		if err != nil {
			return exitError(4, "analyzer error: %v", err)
		}
	}

	res, err := scan.New(a, scan.Options{
		Workers:     1,
		FileTimeout: f.timeout,
		Redact:      f.redactEnabled,
		Logger:      logger.Named("cli"),
	}).Run(ctx, []string{path})
	if err != nil {
		return fmt.Errorf("scan interrupted: %w", err)
	}
	if len(res.Failures) > 0 {
		return fmt.Errorf("analysis failed: %w", &res.Failures[0])
	}
	ff, _ := res.File(path)

	useColor := !f.noColor && !color.NoColor
	header := color.New(color.Bold)
	if useColor {
		header.EnableColor()
	} else {
		header.DisableColor()
	}
	fmt.Fprintf(stdout, "%s  %s\n%d findings, %d highlighted lines\n\n",
		header.Sprint(path), shortHash(src.Hash), len(ff.Findings), len(ff.Index.HighlightedWithin(1, src.LineCount())))

	return annotate.Render(stdout, src, ff.Index, annotate.Options{
		Color:   useColor,
		Line:    f.line,
		Context: f.contextLines,
	})
}

// shortHash abbreviates a "sha256:<hex>" digest for display.
func shortHash(h string) string {
	const n = len("sha256:") + 12
	if len(h) <= n {
		return h
	}
	return h[:n]
}
