// Package listener provides benchmark execution listeners: logging, SQLite
// persistence, benchmark-service reporting, Prometheus metrics and reports.
package listener

import (
	"context"
	"log/slog"

	"github.com/whhaicheng/benchto-driver/internal/app/usecase"
	"github.com/whhaicheng/benchto-driver/internal/domain/benchmark"
	"github.com/whhaicheng/benchto-driver/internal/domain/execution"
)

// LoggingListener writes every hook to the given logger.
type LoggingListener struct {
	logger *slog.Logger
}

// NewLoggingListener creates a logging listener. A nil logger uses slog.Default.
func NewLoggingListener(logger *slog.Logger) *LoggingListener {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingListener{logger: logger}
}

// Name implements usecase.BenchmarkExecutionListener.
func (l *LoggingListener) Name() string { return "logging" }

func (l *LoggingListener) SuiteStarted(ctx context.Context, sequenceID string) error {
	l.logger.InfoContext(ctx, "Driver: suite started", "sequence_id", sequenceID)
	return nil
}

func (l *LoggingListener) BenchmarkStarted(ctx context.Context, b *benchmark.Benchmark, token usecase.Token) error {
	l.logger.InfoContext(ctx, "Driver: benchmark started",
		"benchmark", b.UniqueName(),
		"ordinal", token.Ordinal,
		"total", token.Total,
		"runs", b.Runs,
		"concurrency", b.Concurrency)
	return nil
}

func (l *LoggingListener) BenchmarkFinished(ctx context.Context, result *execution.BenchmarkExecutionResult) error {
	s := result.Summary()
	attrs := []any{
		"benchmark", result.BenchmarkName(),
		"successful", result.Successful(),
		"executions", len(result.Executions()),
		"failed", result.FailedExecutions(),
		"duration", result.Duration(),
		"mean", s.Mean,
		"p99", s.P99,
	}
	if err := result.Err(); err != nil {
		l.logger.WarnContext(ctx, "Driver: benchmark finished with failures", append(attrs, "error", err)...)
		return nil
	}
	l.logger.InfoContext(ctx, "Driver: benchmark finished", attrs...)
	return nil
}

func (l *LoggingListener) ExecutionStarted(ctx context.Context, b *benchmark.Benchmark, _ usecase.Token, e execution.QueryExecution) error {
	l.logger.DebugContext(ctx, "Driver: execution started",
		"benchmark", b.UniqueName(), "query", e.Query, "run", e.Run)
	return nil
}

func (l *LoggingListener) ExecutionFinished(ctx context.Context, b *benchmark.Benchmark, _ usecase.Token, e execution.QueryExecution) error {
	if e.Err != nil {
		l.logger.WarnContext(ctx, "Driver: execution failed",
			"benchmark", b.UniqueName(), "query", e.Query, "run", e.Run, "error", e.Err)
		return nil
	}
	l.logger.DebugContext(ctx, "Driver: execution finished",
		"benchmark", b.UniqueName(), "query", e.Query, "run", e.Run,
		"duration", e.Duration(), "rows", e.Rows)
	return nil
}

func (l *LoggingListener) SuiteFinished(ctx context.Context, result *execution.SuiteResult) error {
	attrs := []any{
		"sequence_id", result.SequenceID,
		"state", result.State,
		"benchmarks", len(result.Results),
		"skipped", len(result.Skipped),
		"duration", result.Duration(),
	}
	if result.Err != nil {
		l.logger.ErrorContext(ctx, "Driver: suite failed", append(attrs, "error", result.Err)...)
		return nil
	}
	l.logger.InfoContext(ctx, "Driver: suite finished", attrs...)
	return nil
}
