package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/whhaicheng/benchto-driver/internal/domain/execution"
	"github.com/whhaicheng/benchto-driver/internal/domain/report"
)

// JSONGenerator generates JSON format reports.
type JSONGenerator struct {
	now func() time.Time
}

// NewJSONGenerator creates a new JSON generator.
func NewJSONGenerator() *JSONGenerator {
	return &JSONGenerator{now: time.Now}
}

// Generate generates a JSON report.
func (g *JSONGenerator) Generate(data *report.GenerateContext) (*report.Report, error) {
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	generatedAt := g.now()
	content, err := json.MarshalIndent(g.buildJSON(data, generatedAt), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}

	return &report.Report{
		Format:      report.FormatJSON,
		Content:     content,
		GeneratedAt: generatedAt,
		SequenceID:  data.Suite.SequenceID,
	}, nil
}

// Format returns the format this generator produces.
func (g *JSONGenerator) Format() report.ReportFormat {
	return report.FormatJSON
}

type jsonReport struct {
	Meta       jsonMeta        `json:"meta"`
	Summary    jsonSummary     `json:"summary"`
	Benchmarks []jsonBenchmark `json:"benchmarks"`
	Skipped    []string        `json:"skipped,omitempty"`
}

type jsonMeta struct {
	SequenceID  string `json:"sequence_id"`
	Environment string `json:"environment,omitempty"`
	Format      string `json:"format"`
	GeneratedAt string `json:"generated_at"`
	Version     string `json:"version"`
}

type jsonSummary struct {
	Status           string `json:"status"`
	State            string `json:"state"`
	Successful       bool   `json:"successful"`
	TimeLimitReached bool   `json:"time_limit_reached"`
	Benchmarks       int    `json:"benchmarks"`
	Executions       int    `json:"executions"`
	DurationMs       int64  `json:"duration_ms"`
	StartedAt        string `json:"started_at,omitempty"`
	CompletedAt      string `json:"completed_at,omitempty"`
	Error            string `json:"error,omitempty"`
}

type jsonBenchmark struct {
	Name             string            `json:"name"`
	DataSource       string            `json:"data_source,omitempty"`
	Ordinal          int               `json:"ordinal"`
	Successful       bool              `json:"successful"`
	Variables        map[string]string `json:"variables,omitempty"`
	Executions       int               `json:"executions"`
	FailedExecutions int               `json:"failed_executions"`
	DurationMs       int64             `json:"duration_ms"`
	Measurements     jsonMeasurements  `json:"measurements"`
	Failures         []string          `json:"failures,omitempty"`
}

type jsonMeasurements struct {
	MeanMs float64 `json:"mean_ms"`
	MinMs  float64 `json:"min_ms"`
	MaxMs  float64 `json:"max_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P90Ms  float64 `json:"p90_ms"`
	P99Ms  float64 `json:"p99_ms"`
}

func (g *JSONGenerator) buildJSON(data *report.GenerateContext, generatedAt time.Time) *jsonReport {
	suite := data.Suite

	summary := jsonSummary{
		Status:           data.Status(),
		State:            suite.State.String(),
		Successful:       suite.Successful(),
		TimeLimitReached: suite.TimeLimitReached,
		Benchmarks:       len(suite.Results),
		Executions:       suite.ExecutionCount(),
		DurationMs:       suite.Duration().Milliseconds(),
		Error:            data.ErrorMessage(),
	}
	if !suite.StartedAt.IsZero() {
		summary.StartedAt = suite.StartedAt.UTC().Format(time.RFC3339)
	}
	if !suite.CompletedAt.IsZero() {
		summary.CompletedAt = suite.CompletedAt.UTC().Format(time.RFC3339)
	}

	benchmarks := make([]jsonBenchmark, 0, len(suite.Results))
	for _, r := range suite.Results {
		benchmarks = append(benchmarks, buildBenchmark(r))
	}

	return &jsonReport{
		Meta: jsonMeta{
			SequenceID:  suite.SequenceID,
			Environment: data.Environment,
			Format:      report.FormatJSON.String(),
			GeneratedAt: generatedAt.UTC().Format(time.RFC3339),
			Version:     "1.0",
		},
		Summary:    summary,
		Benchmarks: benchmarks,
		Skipped:    suite.Skipped,
	}
}

func buildBenchmark(r *execution.BenchmarkExecutionResult) jsonBenchmark {
	s := r.Summary()
	out := jsonBenchmark{
		Name:             r.BenchmarkName(),
		Ordinal:          r.Ordinal(),
		Successful:       r.Successful(),
		Executions:       len(r.Executions()),
		FailedExecutions: r.FailedExecutions(),
		DurationMs:       r.Duration().Milliseconds(),
		Measurements: jsonMeasurements{
			MeanMs: millis(s.Mean),
			MinMs:  millis(s.Min),
			MaxMs:  millis(s.Max),
			P50Ms:  millis(s.P50),
			P90Ms:  millis(s.P90),
			P99Ms:  millis(s.P99),
		},
	}
	if b := r.Benchmark(); b != nil {
		out.DataSource = b.DataSource
		out.Variables = b.Variables
	}
	for _, err := range r.Failures() {
		out.Failures = append(out.Failures, err.Error())
	}
	return out
}
