// Package config provides driver configuration domain models.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrInvalidConfiguration is returned when configuration is invalid.
	// It is the configuration error of the driver: fatal before any benchmark runs.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrMacroNotDefined is returned when a referenced macro has no definition.
	ErrMacroNotDefined = errors.New("macro not defined")

	// ErrDataSourceNotDefined is returned when a referenced data source has no definition.
	ErrDataSourceNotDefined = errors.New("data source not defined")
)

// BenchmarksConfig locates benchmark definitions and filters them.
type BenchmarksConfig struct {
	// Dir holds one YAML file per benchmark.
	Dir string `yaml:"dir"`

	// SQLDir holds <query-name>.sql files. Defaults to Dir.
	SQLDir string `yaml:"sql-dir"`

	// Active limits the run to these benchmark names. Empty means all.
	Active []string `yaml:"active"`

	// ActiveVariables keeps only benchmark instances whose variables match.
	ActiveVariables map[string]string `yaml:"active-variables"`
}

// Validate validates the benchmarks configuration.
func (c *BenchmarksConfig) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("%w: benchmarks dir is required", ErrInvalidConfiguration)
	}
	return nil
}

// LogConfig represents logging configuration.
type LogConfig struct {
	// Dir is the directory for dated log files. Empty disables file logging.
	Dir string `yaml:"dir"`

	// Level is the logging level (debug, info, warn, error).
	Level string `yaml:"level"`
}

// Validate validates the logging configuration.
func (c *LogConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("%w: invalid log level: %s", ErrInvalidConfiguration, c.Level)
	}
	return nil
}

// Config represents the complete driver configuration. It is read-only for
// the lifetime of a run.
type Config struct {
	// EnvironmentName names the system under test in reports.
	EnvironmentName string `yaml:"environment-name"`

	// ExecutionSequenceID correlates results of one logical invocation.
	// A new identifier is generated per run when empty.
	ExecutionSequenceID string `yaml:"execution-sequence-id"`

	// TimeLimit stops starting new benchmarks once elapsed. Nil means unlimited.
	TimeLimit *Duration `yaml:"time-limit"`

	BeforeAllMacros   []string `yaml:"before-all-macros"`
	AfterAllMacros    []string `yaml:"after-all-macros"`
	HealthCheckMacros []string `yaml:"health-check-macros"`

	Benchmarks  BenchmarksConfig            `yaml:"benchmarks"`
	Macros      map[string]MacroConfig      `yaml:"macros"`
	DataSources map[string]DataSourceConfig `yaml:"data-sources"`

	Results ResultsConfig `yaml:"results"`
	Service ServiceConfig `yaml:"benchmark-service"`
	Metrics MetricsConfig `yaml:"metrics"`
	Report  ReportConfig  `yaml:"report"`
	Log     LogConfig     `yaml:"log"`
}

// Validate validates the complete configuration.
func (c *Config) Validate() error {
	if c.TimeLimit != nil && c.TimeLimit.Duration < 0 {
		return fmt.Errorf("%w: time-limit cannot be negative", ErrInvalidConfiguration)
	}

	if err := c.Benchmarks.Validate(); err != nil {
		return fmt.Errorf("benchmarks: %w", err)
	}

	for name, ds := range c.DataSources {
		if err := ds.Validate(); err != nil {
			return fmt.Errorf("data source %s: %w", name, err)
		}
	}

	for name, macro := range c.Macros {
		if err := macro.Validate(); err != nil {
			return fmt.Errorf("macro %s: %w", name, err)
		}
		if macro.Type == MacroTypeSQL {
			if _, ok := c.DataSources[macro.DataSource]; !ok {
				return fmt.Errorf("macro %s: %w: %w: %s", name, ErrInvalidConfiguration, ErrDataSourceNotDefined, macro.DataSource)
			}
		}
	}

	for _, group := range []struct {
		key    string
		macros []string
	}{
		{"before-all-macros", c.BeforeAllMacros},
		{"after-all-macros", c.AfterAllMacros},
		{"health-check-macros", c.HealthCheckMacros},
	} {
		for _, name := range group.macros {
			if _, ok := c.Macros[name]; !ok {
				return fmt.Errorf("%s: %w: %w: %s", group.key, ErrInvalidConfiguration, ErrMacroNotDefined, name)
			}
		}
	}

	if err := c.Results.Validate(); err != nil {
		return fmt.Errorf("results: %w", err)
	}
	if err := c.Service.Validate(); err != nil {
		return fmt.Errorf("benchmark-service: %w", err)
	}
	if err := c.Report.Validate(); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	return nil
}

// ApplyDefaults fills optional fields left empty by the configuration file.
func (c *Config) ApplyDefaults() {
	if c.Benchmarks.SQLDir == "" {
		c.Benchmarks.SQLDir = c.Benchmarks.Dir
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Service.URL != "" {
		if c.Service.Attempts == 0 {
			c.Service.Attempts = 3
		}
		if c.Service.Delay.Duration == 0 {
			c.Service.Delay.Duration = defaultServiceDelay
		}
	}
	if c.Results.Path != "" && c.Results.MaxOpenConns == 0 {
		c.Results.MaxOpenConns = 1
	}
	for name, ds := range c.DataSources {
		ds.ApplyDefaults()
		c.DataSources[name] = ds
	}
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	userHomeDir, _ := os.UserHomeDir()
	return &Config{
		EnvironmentName: "default",
		Benchmarks: BenchmarksConfig{
			Dir: filepath.Join(".", "benchmarks"),
		},
		Macros:      map[string]MacroConfig{},
		DataSources: map[string]DataSourceConfig{},
		Report: ReportConfig{
			Formats: []string{"markdown"},
		},
		Log: LogConfig{
			Dir:   filepath.Join(userHomeDir, ".benchto-driver", "logs"),
			Level: "info",
		},
	}
}

// HasTimeLimit reports whether a time limit is configured.
func (c *Config) HasTimeLimit() bool {
	return c.TimeLimit != nil
}
