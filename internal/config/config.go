// Package config loads smartscan settings from defaults, an optional YAML
// file, and SMARTSCAN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SMARTSCAN_SCAN_WORKERS.
const EnvPrefix = "SMARTSCAN"

// Formats lists the accepted report.format values.
var Formats = []string{"text", "md", "json", "sarif"}

// Config is the complete smartscan configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Scan     ScanConfig     `mapstructure:"scan" yaml:"scan"`
	Analyzer AnalyzerConfig `mapstructure:"analyzer" yaml:"analyzer"`
	Report   ReportConfig   `mapstructure:"report" yaml:"report"`
}

// LoggerConfig configures console and file logging.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig names the console color of each log level.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// ScanConfig configures the scan orchestrator.
type ScanConfig struct {
	Workers     int           `mapstructure:"workers" yaml:"workers"`
	FileTimeout time.Duration `mapstructure:"file_timeout" yaml:"file_timeout"`
	StartRate   float64       `mapstructure:"start_rate" yaml:"start_rate"`
	Profile     string        `mapstructure:"profile" yaml:"profile"`
}

// AnalyzerConfig selects the analyzer. Empty fields defer to the profile.
type AnalyzerConfig struct {
	Name   string   `mapstructure:"name" yaml:"name"`
	Binary string   `mapstructure:"binary" yaml:"binary"`
	Args   []string `mapstructure:"args" yaml:"args"`
}

// ReportConfig configures the report artifact.
type ReportConfig struct {
	Path   string `mapstructure:"path" yaml:"path"`
	Format string `mapstructure:"format" yaml:"format"`
	Redact bool   `mapstructure:"redact" yaml:"redact"`
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "smartscan")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)
	v.SetDefault("logger.compress", false)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Scan --
	v.SetDefault("scan.workers", 0)
	v.SetDefault("scan.file_timeout", "10m")
	v.SetDefault("scan.start_rate", 0.0)
	v.SetDefault("scan.profile", "solidity")

	// -- Analyzer --
	v.SetDefault("analyzer.name", "")
	v.SetDefault("analyzer.binary", "")
	v.SetDefault("analyzer.args", []string{})

	// -- Report --
	v.SetDefault("report.path", "security_report.txt")
	v.SetDefault("report.format", "text")
	v.SetDefault("report.redact", true)
}

// Configure prepares v to read cfgFile, or smartscan.yaml in the working
// directory when cfgFile is empty, plus environment overrides.
func Configure(v *viper.Viper, cfgFile string) {
	SetDefaults(v)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("smartscan")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration through v, which must have been prepared with
// Configure. A missing default config file is not an error.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config.Load: read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: unmarshal: %w", err)
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Logger.LogFile, &c.Report.Path, &c.Analyzer.Binary} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("expand %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Scan.Workers < 0 {
		return fmt.Errorf("scan.workers must not be negative")
	}
	if c.Scan.FileTimeout < 0 {
		return fmt.Errorf("scan.file_timeout must not be negative")
	}
	if c.Scan.StartRate < 0 {
		return fmt.Errorf("scan.start_rate must not be negative")
	}
	if !slices.Contains(Formats, c.Report.Format) {
		return fmt.Errorf("report.format must be one of %s, got %q", strings.Join(Formats, ", "), c.Report.Format)
	}
	if c.Logger.Format != "console" && c.Logger.Format != "json" {
		return fmt.Errorf("logger.format must be console or json, got %q", c.Logger.Format)
	}
	return nil
}
