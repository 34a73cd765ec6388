// Package report provides suite report domain models.
package report

import (
	"fmt"
	"time"

	"github.com/whhaicheng/benchto-driver/internal/domain/execution"
)

// ReportFormat represents the output format for a report.
type ReportFormat string

const (
	// FormatMarkdown generates Markdown format reports.
	FormatMarkdown ReportFormat = "markdown"
	// FormatJSON generates JSON format reports.
	FormatJSON ReportFormat = "json"
)

// String returns the string representation of the format.
func (f ReportFormat) String() string {
	return string(f)
}

// Validate checks if the format is valid.
func (f ReportFormat) Validate() error {
	switch f {
	case FormatMarkdown, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid report format: %s", f)
	}
}

// FileExtension returns the file extension for this format.
func (f ReportFormat) FileExtension() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}

// Report represents a generated report.
type Report struct {
	Format      ReportFormat
	Content     []byte
	GeneratedAt time.Time
	SequenceID  string

	// FilePath is the file path if saved to disk.
	FilePath string
}

// FileName returns the default file name of the report.
func (r *Report) FileName() string {
	return fmt.Sprintf("benchto-%s%s", r.SequenceID, r.Format.FileExtension())
}

// Generator is the interface for report generators.
type Generator interface {
	// Generate generates a report from the provided data.
	Generate(ctx *GenerateContext) (*Report, error)

	// Format returns the format this generator produces.
	Format() ReportFormat
}

// GenerateContext contains data for report generation.
type GenerateContext struct {
	// Title is the custom report title (optional).
	Title string

	// Environment names the system under test.
	Environment string

	// Suite is the finished run.
	Suite *execution.SuiteResult

	// ChartWidth is the width for text-based charts (default: 60).
	ChartWidth int
}

// NewGenerateContext creates a generate context with default chart width.
func NewGenerateContext(environment string, suite *execution.SuiteResult) *GenerateContext {
	return &GenerateContext{
		Environment: environment,
		Suite:       suite,
		ChartWidth:  60,
	}
}

// Validate validates the generate context.
func (ctx *GenerateContext) Validate() error {
	if ctx.Suite == nil {
		return fmt.Errorf("suite is required")
	}
	if ctx.Suite.SequenceID == "" {
		return fmt.Errorf("sequence_id is required")
	}
	return nil
}

// Status returns a display status of the run.
func (ctx *GenerateContext) Status() string {
	switch {
	case ctx.Suite.Successful() && ctx.Suite.TimeLimitReached:
		return "completed (time limit reached)"
	case ctx.Suite.Successful():
		return "completed"
	default:
		return string(ctx.Suite.State)
	}
}

// ErrorMessage returns the run error, or an empty string.
func (ctx *GenerateContext) ErrorMessage() string {
	if ctx.Suite.Err == nil {
		return ""
	}
	return ctx.Suite.Err.Error()
}

// FormatDuration formats a duration for display with millisecond precision.
func FormatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return d.Round(time.Millisecond).String()
}

// FormatTimestamp formats a timestamp for display.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("2006-01-02 15:04:05")
}
