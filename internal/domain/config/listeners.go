package config

import (
	"fmt"
	"net/url"
	"time"
)

const defaultServiceDelay = 500 * time.Millisecond

// ResultsConfig represents the SQLite results store.
type ResultsConfig struct {
	// Path is the path to the SQLite database file. Empty disables the store.
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open connections.
	MaxOpenConns int `yaml:"max-open-conns"`
}

// Enabled reports whether results are persisted.
func (c *ResultsConfig) Enabled() bool {
	return c.Path != ""
}

// Validate validates the results store configuration.
func (c *ResultsConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.MaxOpenConns < 1 {
		return fmt.Errorf("%w: max-open-conns must be at least 1", ErrInvalidConfiguration)
	}
	return nil
}

// ServiceConfig represents the remote benchmark-service reporting backend.
type ServiceConfig struct {
	// URL is the service base URL. Empty disables the listener.
	URL string `yaml:"url"`

	// Attempts is the number of tries per request.
	Attempts uint `yaml:"attempts"`

	// Delay is the initial delay between retries.
	Delay Duration `yaml:"delay"`
}

// Enabled reports whether the benchmark-service listener is configured.
func (c *ServiceConfig) Enabled() bool {
	return c.URL != ""
}

// Validate validates the service configuration.
func (c *ServiceConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: invalid url: %s", ErrInvalidConfiguration, c.URL)
	}
	if c.Attempts < 1 {
		return fmt.Errorf("%w: attempts must be at least 1", ErrInvalidConfiguration)
	}
	return nil
}

// MetricsConfig represents Prometheus metrics export.
type MetricsConfig struct {
	// TextfilePath receives the metrics in text exposition format when the
	// suite finishes. Empty keeps metrics in memory only.
	TextfilePath string `yaml:"textfile-path"`
}

// ReportConfig represents suite report generation.
type ReportConfig struct {
	// OutputDir is the directory for report files. Empty disables reports.
	OutputDir string `yaml:"output-dir"`

	// Formats lists the report formats to write (markdown, json).
	Formats []string `yaml:"formats"`
}

// Enabled reports whether reports are written.
func (c *ReportConfig) Enabled() bool {
	return c.OutputDir != ""
}

// Validate validates the report configuration.
func (c *ReportConfig) Validate() error {
	validFormats := map[string]bool{
		"markdown": true,
		"json":     true,
	}

	for _, f := range c.Formats {
		if !validFormats[f] {
			return fmt.Errorf("%w: invalid report format: %s", ErrInvalidConfiguration, f)
		}
	}
	return nil
}
