// Package usecase defines the benchmark execution core and the interfaces it
// consumes. The interfaces are defined by the use case layer and implemented
// by the infrastructure layer.
package usecase

import (
	"context"

	"github.com/whhaicheng/benchto-driver/internal/domain/benchmark"
	"github.com/whhaicheng/benchto-driver/internal/domain/execution"
)

// BenchmarkLoader loads benchmark definitions.
type BenchmarkLoader interface {
	// LoadBenchmarks returns the benchmarks found under sourcePath in load
	// order. Malformed definitions fail with an error wrapping ErrLoad.
	LoadBenchmarks(sourcePath string) ([]*benchmark.Benchmark, error)
}

// MacroExecutor runs named macros.
type MacroExecutor interface {
	// RunMacro runs the macro with the given environment. env is never nil.
	RunMacro(ctx context.Context, name string, env map[string]string) error
}

// QueryExecutor executes one query of a benchmark.
type QueryExecutor interface {
	// ExecuteQuery runs q against the benchmark's data source and returns
	// the number of rows read or affected.
	ExecuteQuery(ctx context.Context, b *benchmark.Benchmark, q benchmark.Query) (int64, error)
}

// ResultRepository persists run outcomes. Saves are upserts keyed by the
// execution sequence id, so repeating a sequence overwrites its rows.
type ResultRepository interface {
	// SaveSuite stores the run-level outcome.
	SaveSuite(ctx context.Context, suite *execution.SuiteResult, environment string) error

	// SaveResult stores a benchmark result and its executions under key.
	SaveResult(ctx context.Context, key string, result *execution.BenchmarkExecutionResult) error
}
