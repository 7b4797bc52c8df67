package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/smartscan/internal/config"
	"github.com/dshills/smartscan/internal/observability"
)

var version = "0.1.0"

// cliEnv carries state prepared by the root command for its subcommands.
type cliEnv struct {
	cfgFile string
	verbose bool
	cfg     *config.Config
	logger  *zap.Logger
}

func newRootCmd(env *cliEnv) *cobra.Command {
	root := &cobra.Command{
		Use:           "smartscan",
		Short:         "Scan smart contracts with a static analyzer and rate their severity",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.Configure(v, env.cfgFile)
			cfg, err := config.Load(v)
			if err != nil {
				return exitError(3, "failed to load config: %v", err)
			}
			if env.verbose {
				cfg.Logger = observability.Verbose(cfg.Logger)
			}
			env.cfg = cfg
			env.logger = observability.NewLogger(cfg.Logger, zapcore.Lock(os.Stderr))
			return nil
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	root.PersistentFlags().StringVarP(&env.cfgFile, "config", "c", "", "Config file (default: ./smartscan.yaml)")
	root.PersistentFlags().BoolVarP(&env.verbose, "verbose", "v", false, "Log processing steps at debug level")

	root.AddCommand(newScanCmd(env))
	root.AddCommand(newShowCmd(env))
	root.AddCommand(newProfilesCmd())
	return root
}

func main() {
	env := &cliEnv{}
	err := newRootCmd(env).Execute()
	if env.logger != nil {
		_ = env.logger.Sync()
	}
	if err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, ee.msg)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func exitError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}
