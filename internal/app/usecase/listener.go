package usecase

import (
	"context"

	"github.com/whhaicheng/benchto-driver/internal/domain/benchmark"
	"github.com/whhaicheng/benchto-driver/internal/domain/execution"
)

// BenchmarkExecutionListener observes a driver run. Any hook error is a
// reporting integrity violation and fails the whole run. Execution hooks are
// called from worker goroutines and must be safe for concurrent use.
type BenchmarkExecutionListener interface {
	// Name identifies the listener in errors and logs.
	Name() string

	SuiteStarted(ctx context.Context, sequenceID string) error
	BenchmarkStarted(ctx context.Context, b *benchmark.Benchmark, token Token) error
	BenchmarkFinished(ctx context.Context, result *execution.BenchmarkExecutionResult) error
	ExecutionStarted(ctx context.Context, b *benchmark.Benchmark, token Token, e execution.QueryExecution) error
	ExecutionFinished(ctx context.Context, b *benchmark.Benchmark, token Token, e execution.QueryExecution) error
	SuiteFinished(ctx context.Context, result *execution.SuiteResult) error
}

// NopListener implements every hook as a no-op. Embed it to implement only
// the hooks a listener cares about.
type NopListener struct{}

func (NopListener) SuiteStarted(context.Context, string) error { return nil }

func (NopListener) BenchmarkStarted(context.Context, *benchmark.Benchmark, Token) error { return nil }

func (NopListener) BenchmarkFinished(context.Context, *execution.BenchmarkExecutionResult) error {
	return nil
}

func (NopListener) ExecutionStarted(context.Context, *benchmark.Benchmark, Token, execution.QueryExecution) error {
	return nil
}

func (NopListener) ExecutionFinished(context.Context, *benchmark.Benchmark, Token, execution.QueryExecution) error {
	return nil
}

func (NopListener) SuiteFinished(context.Context, *execution.SuiteResult) error { return nil }
