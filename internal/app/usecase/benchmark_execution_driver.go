package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/whhaicheng/benchto-driver/internal/domain/benchmark"
	"github.com/whhaicheng/benchto-driver/internal/domain/execution"
)

// BenchmarkExecutor executes a single benchmark.
type BenchmarkExecutor interface {
	// Execute runs b and returns its result. The result is only returned
	// when every listener confirmed it; any returned error is fatal.
	Execute(ctx context.Context, b *benchmark.Benchmark, token Token) (*execution.BenchmarkExecutionResult, error)
}

// BenchmarkExecutionDriver runs one benchmark: per-benchmark macros, prewarm
// runs, then measured runs dispatched over a pool sized to the benchmark's
// concurrency.
type BenchmarkExecutionDriver struct {
	queries  QueryExecutor
	macros   *MacroService
	pools    *ExecutorServiceFactory
	reporter *BenchmarkStatusReporter
	now      func() time.Time
}

// NewBenchmarkExecutionDriver creates a new benchmark execution driver.
func NewBenchmarkExecutionDriver(
	queries QueryExecutor,
	macros *MacroService,
	pools *ExecutorServiceFactory,
	reporter *BenchmarkStatusReporter,
) *BenchmarkExecutionDriver {
	return &BenchmarkExecutionDriver{
		queries:  queries,
		macros:   macros,
		pools:    pools,
		reporter: reporter,
		now:      time.Now,
	}
}

// Execute runs b. BenchmarkFinished is reported on every exit path once
// BenchmarkStarted was attempted. Run failures are recorded in the result;
// macro and listener failures are returned.
func (d *BenchmarkExecutionDriver) Execute(ctx context.Context, b *benchmark.Benchmark, token Token) (*execution.BenchmarkExecutionResult, error) {
	slog.Info("Benchmark: Starting",
		"benchmark", b.UniqueName(),
		"sequence_id", token.SequenceID,
		"ordinal", token.Ordinal,
		"total", token.Total,
		"concurrency", b.Concurrency)

	builder := execution.NewBenchmarkExecutionResultBuilder(b).
		WithSequence(token.SequenceID, token.Ordinal).
		StartTimer()

	var fatal error
	if err := d.reporter.BenchmarkStarted(ctx, b, token); err != nil {
		fatal = err
	} else {
		fatal = d.run(ctx, b, token, builder)
	}

	builder.EndTimer().WithFailure(fatal)
	result := builder.Build()

	if err := d.reporter.BenchmarkFinished(ctx, result); err != nil {
		fatal = multierror.Append(fatal, err)
	}
	if fatal != nil {
		slog.Error("Benchmark: Failed", "benchmark", b.UniqueName(), "error", fatal)
		return nil, fatal
	}

	summary := result.Summary()
	slog.Info("Benchmark: Finished",
		"benchmark", b.UniqueName(),
		"executions", len(result.Executions()),
		"failed", result.FailedExecutions(),
		"duration", result.Duration(),
		"p50", summary.P50,
		"p99", summary.P99)
	return result, nil
}

func (d *BenchmarkExecutionDriver) run(ctx context.Context, b *benchmark.Benchmark, token Token, builder *execution.BenchmarkExecutionResultBuilder) error {
	if err := d.macros.RunMacros(ctx, b.BeforeBenchmarkMacros); err != nil {
		return err
	}

	pool, err := d.pools.Create(b.Concurrency)
	if err != nil {
		return err
	}
	defer pool.Shutdown()

	if b.PrewarmRuns > 0 {
		slog.Debug("Benchmark: Prewarming", "benchmark", b.UniqueName(), "runs", b.PrewarmRuns)
		d.dispatch(ctx, pool, b, token, b.PrewarmRuns, false)
	}

	executions, listenerErr := d.dispatch(ctx, pool, b, token, b.Runs, true)
	builder.WithExecutions(executions)

	var result *multierror.Error
	if listenerErr != nil {
		result = multierror.Append(result, listenerErr)
	}
	if err := d.macros.RunMacros(ctx, b.AfterBenchmarkMacros); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// dispatch submits runs x queries executions to the pool and waits for all
// of them. Executions are returned in submission order together with any
// execution listener failures. When measured is false nothing is reported.
func (d *BenchmarkExecutionDriver) dispatch(ctx context.Context, pool *WorkerPool, b *benchmark.Benchmark, token Token, runs int, measured bool) ([]execution.QueryExecution, error) {
	executions := make([]execution.QueryExecution, runs*len(b.Queries))

	var (
		mu           sync.Mutex
		listenerErrs *multierror.Error
	)
	reportErr := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		listenerErrs = multierror.Append(listenerErrs, err)
		mu.Unlock()
	}

	for run := 1; run <= runs; run++ {
		for qi, q := range b.Queries {
			seq := (run-1)*len(b.Queries) + qi
			pool.Submit(ctx, func(ctx context.Context) {
				executions[seq] = d.executeQuery(ctx, b, token, q, run, seq, measured, reportErr)
			})
		}
	}
	pool.Shutdown()

	return executions, listenerErrs.ErrorOrNil()
}

// executeQuery runs one query surrounded by the per-execution macros. Macro
// time is not part of the measured duration.
func (d *BenchmarkExecutionDriver) executeQuery(
	ctx context.Context,
	b *benchmark.Benchmark,
	token Token,
	q benchmark.Query,
	run, seq int,
	measured bool,
	reportErr func(error),
) execution.QueryExecution {
	e := execution.QueryExecution{
		Benchmark: b.UniqueName(),
		Query:     q.Name,
		Run:       run,
		Sequence:  seq,
	}
	env := map[string]string{
		EnvBenchmark:  b.UniqueName(),
		EnvQuery:      q.Name,
		EnvRun:        strconv.Itoa(run),
		EnvSequenceID: token.SequenceID,
	}

	if measured {
		reportErr(d.reporter.ExecutionStarted(ctx, b, token, e))
	}

	if err := d.macros.RunMacrosWithEnv(ctx, b.BeforeExecutionMacros, env); err != nil {
		e.StartedAt = d.now()
		e.CompletedAt = e.StartedAt
		e.Err = err
	} else {
		e.StartedAt = d.now()
		e.Rows, e.Err = d.queries.ExecuteQuery(ctx, b, q)
		e.CompletedAt = d.now()

		if err := d.macros.RunMacrosWithEnv(ctx, b.AfterExecutionMacros, env); err != nil && e.Err == nil {
			e.Err = err
		}
	}

	if e.Err != nil {
		slog.Warn("Benchmark: Execution failed",
			"benchmark", e.Benchmark, "query", e.Query, "run", run, "error", e.Err)
	}

	if measured {
		reportErr(d.reporter.ExecutionFinished(ctx, b, token, e))
	}
	return e
}
