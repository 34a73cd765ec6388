package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/whhaicheng/benchto-driver/internal/domain/report"
)

// MarkdownGenerator generates Markdown format reports.
type MarkdownGenerator struct {
	chartGen *ChartGenerator
	now      func() time.Time
}

// NewMarkdownGenerator creates a new Markdown generator.
func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{
		chartGen: NewChartGenerator(),
		now:      time.Now,
	}
}

// Generate generates a Markdown report.
func (g *MarkdownGenerator) Generate(data *report.GenerateContext) (*report.Report, error) {
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	generatedAt := g.now()
	var sb strings.Builder

	g.writeTitle(&sb, data)
	g.writeSummary(&sb, data)
	g.writeBenchmarks(&sb, data)
	g.writeCharts(&sb, data)
	g.writeFailures(&sb, data)
	g.writeFooter(&sb, generatedAt)

	return &report.Report{
		Format:      report.FormatMarkdown,
		Content:     []byte(sb.String()),
		GeneratedAt: generatedAt,
		SequenceID:  data.Suite.SequenceID,
	}, nil
}

// Format returns the format this generator produces.
func (g *MarkdownGenerator) Format() report.ReportFormat {
	return report.FormatMarkdown
}

func (g *MarkdownGenerator) writeTitle(sb *strings.Builder, data *report.GenerateContext) {
	title := data.Title
	if title == "" {
		title = fmt.Sprintf("Benchmark Report - %s", data.Suite.SequenceID)
	}
	sb.WriteString("# ")
	sb.WriteString(title)
	sb.WriteString("\n\n")
}

func (g *MarkdownGenerator) writeSummary(sb *strings.Builder, data *report.GenerateContext) {
	suite := data.Suite
	sb.WriteString("## Summary\n\n")

	status := "✅ " + data.Status()
	if !suite.Successful() {
		status = "❌ " + data.Status()
	}
	fmt.Fprintf(sb, "- **Status**: %s\n", status)
	fmt.Fprintf(sb, "- **Sequence ID**: `%s`\n", suite.SequenceID)
	if data.Environment != "" {
		fmt.Fprintf(sb, "- **Environment**: %s\n", data.Environment)
	}
	fmt.Fprintf(sb, "- **Benchmarks**: %d executed, %d skipped\n", len(suite.Results), len(suite.Skipped))
	fmt.Fprintf(sb, "- **Executions**: %d\n", suite.ExecutionCount())
	fmt.Fprintf(sb, "- **Duration**: %s\n", report.FormatDuration(suite.Duration()))
	fmt.Fprintf(sb, "- **Started**: %s\n", report.FormatTimestamp(suite.StartedAt))
	fmt.Fprintf(sb, "- **Completed**: %s\n", report.FormatTimestamp(suite.CompletedAt))
	if msg := data.ErrorMessage(); msg != "" {
		fmt.Fprintf(sb, "- **Error**: %s\n", msg)
	}
	sb.WriteString("\n")
}

func (g *MarkdownGenerator) writeBenchmarks(sb *strings.Builder, data *report.GenerateContext) {
	sb.WriteString("## Benchmarks\n\n")

	if len(data.Suite.Results) == 0 {
		sb.WriteString("*No benchmarks executed*\n\n")
		return
	}

	sb.WriteString("| # | Benchmark | Status | Executions | Failed | Mean | P50 | P90 | P99 | Max |\n")
	sb.WriteString("|---|-----------|--------|------------|--------|------|-----|-----|-----|-----|\n")
	for _, r := range data.Suite.Results {
		s := r.Summary()
		status := "ok"
		if !r.Successful() {
			status = "failed"
		}
		fmt.Fprintf(sb, "| %d | %s | %s | %d | %d | %s | %s | %s | %s | %s |\n",
			r.Ordinal(),
			r.BenchmarkName(),
			status,
			len(r.Executions()),
			r.FailedExecutions(),
			report.FormatDuration(s.Mean),
			report.FormatDuration(s.P50),
			report.FormatDuration(s.P90),
			report.FormatDuration(s.P99),
			report.FormatDuration(s.Max),
		)
	}
	sb.WriteString("\n")

	if len(data.Suite.Skipped) > 0 {
		sb.WriteString("### Skipped (time limit)\n\n")
		for _, name := range data.Suite.Skipped {
			fmt.Fprintf(sb, "- %s\n", name)
		}
		sb.WriteString("\n")
	}
}

func (g *MarkdownGenerator) writeCharts(sb *strings.Builder, data *report.GenerateContext) {
	if len(data.Suite.Results) == 0 {
		return
	}
	width := data.ChartWidth
	if width <= 0 {
		width = 60
	}

	sb.WriteString("## Charts\n\n")
	if chart := g.chartGen.GenerateMeanChart(data.Suite.Results, width); chart != "" {
		sb.WriteString("### Mean Duration (ms)\n\n")
		sb.WriteString("```\n")
		sb.WriteString(chart)
		sb.WriteString("```\n\n")
	}

	for _, r := range data.Suite.Results {
		chart := g.chartGen.GenerateDurationSparkline(r.Executions(), width, 8)
		if chart == "" {
			continue
		}
		fmt.Fprintf(sb, "### %s\n\n", r.BenchmarkName())
		sb.WriteString("```\n")
		sb.WriteString(chart)
		sb.WriteString("```\n\n")
	}
}

// writeFailures lists benchmark-level failures followed by failed executions.
func (g *MarkdownGenerator) writeFailures(sb *strings.Builder, data *report.GenerateContext) {
	var lines []string
	for _, r := range data.Suite.Results {
		for _, err := range r.Failures() {
			lines = append(lines, fmt.Sprintf("- **%s**: %s", r.BenchmarkName(), err))
		}
		for _, e := range r.Executions() {
			if !e.Successful() {
				lines = append(lines, fmt.Sprintf("- **%s** run %d `%s`: %s", r.BenchmarkName(), e.Run, e.Query, e.ErrorMessage()))
			}
		}
	}
	if len(lines) == 0 {
		return
	}

	sb.WriteString("## Failures\n\n")
	sb.WriteString(strings.Join(lines, "\n"))
	sb.WriteString("\n\n")
}

func (g *MarkdownGenerator) writeFooter(sb *strings.Builder, generatedAt time.Time) {
	sb.WriteString("---\n\n")
	fmt.Fprintf(sb, "*Generated by benchto-driver at %s*\n", generatedAt.Format(time.RFC1123))
}
