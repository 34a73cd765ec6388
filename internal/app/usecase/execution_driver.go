package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/whhaicheng/benchto-driver/internal/domain/benchmark"
	"github.com/whhaicheng/benchto-driver/internal/domain/config"
	"github.com/whhaicheng/benchto-driver/internal/domain/execution"
)

// ExecutionDriver is the top-level controller of a run: it loads benchmarks,
// runs the before-all, health-check and after-all macros, executes every
// benchmark in load order and enforces the time limit.
type ExecutionDriver struct {
	cfg        *config.Config
	loader     BenchmarkLoader
	macros     *MacroService
	benchmarks BenchmarkExecutor
	reporter   *BenchmarkStatusReporter
	now        func() time.Time
}

// NewExecutionDriver creates a new execution driver.
func NewExecutionDriver(
	cfg *config.Config,
	loader BenchmarkLoader,
	macros *MacroService,
	benchmarks BenchmarkExecutor,
	reporter *BenchmarkStatusReporter,
) *ExecutionDriver {
	return &ExecutionDriver{
		cfg:        cfg,
		loader:     loader,
		macros:     macros,
		benchmarks: benchmarks,
		reporter:   reporter,
		now:        time.Now,
	}
}

// Execute performs one run. A time-limited stop is not an error: remaining
// benchmarks are skipped and after-all macros still run. Macro, listener and
// load failures are returned and skip the after-all macros.
func (d *ExecutionDriver) Execute(ctx context.Context) (*execution.SuiteResult, error) {
	start := d.now()
	synchronizer := NewExecutionSynchronizer(d.cfg.ExecutionSequenceID)
	suite := execution.NewSuiteResult(synchronizer.SequenceID(), start)

	slog.Info("Driver: Starting run",
		"sequence_id", suite.SequenceID,
		"environment", d.cfg.EnvironmentName,
		"time_limit", d.timeLimit())

	benchmarks, err := d.loader.LoadBenchmarks(d.cfg.Benchmarks.Dir)
	if err != nil {
		d.finish(suite, err)
		return suite, err
	}
	slog.Info("Driver: Loaded benchmarks", "count", len(benchmarks))

	if err := d.reporter.SuiteStarted(ctx, suite.SequenceID); err != nil {
		return suite, d.complete(ctx, suite, err)
	}

	return suite, d.complete(ctx, suite, d.run(ctx, suite, synchronizer, benchmarks))
}

func (d *ExecutionDriver) run(ctx context.Context, suite *execution.SuiteResult, synchronizer *ExecutionSynchronizer, benchmarks []*benchmark.Benchmark) error {
	if err := suite.SetState(execution.StateBeforeAllMacros); err != nil {
		return err
	}
	if err := d.macros.RunMacros(ctx, d.cfg.BeforeAllMacros); err != nil {
		return err
	}

	for i, b := range benchmarks {
		if d.timeLimitReached(suite.StartedAt) {
			for _, skipped := range benchmarks[i:] {
				suite.Skipped = append(suite.Skipped, skipped.UniqueName())
			}
			suite.TimeLimitReached = true
			slog.Info("Driver: Time limit reached, skipping remaining benchmarks",
				"time_limit", d.timeLimit(),
				"skipped", len(suite.Skipped))
			if err := suite.SetState(execution.StateAborted); err != nil {
				return err
			}
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if len(d.cfg.HealthCheckMacros) > 0 {
			if err := suite.SetState(execution.StateHealthCheck); err != nil {
				return err
			}
			if err := d.macros.RunMacros(ctx, d.cfg.HealthCheckMacros); err != nil {
				return err
			}
		}

		if err := suite.SetState(execution.StateRunBenchmark); err != nil {
			return err
		}
		result, err := d.benchmarks.Execute(ctx, b, synchronizer.Token(i+1, len(benchmarks)))
		if err != nil {
			return err
		}
		suite.Results = append(suite.Results, result)
	}

	if err := suite.SetState(execution.StateAfterAllMacros); err != nil {
		return err
	}
	if err := d.macros.RunMacros(ctx, d.cfg.AfterAllMacros); err != nil {
		return err
	}
	return suite.SetState(execution.StateDone)
}

// complete finalizes the suite and reports SuiteFinished. The finish hook
// runs even when ctx is cancelled.
func (d *ExecutionDriver) complete(ctx context.Context, suite *execution.SuiteResult, runErr error) error {
	d.finish(suite, runErr)

	if err := d.reporter.SuiteFinished(context.WithoutCancel(ctx), suite); err != nil {
		if runErr != nil {
			runErr = multierror.Append(runErr, err)
		} else {
			runErr = err
		}
		suite.Err = runErr
	}
	return runErr
}

func (d *ExecutionDriver) finish(suite *execution.SuiteResult, err error) {
	suite.CompletedAt = d.now()
	if err == nil {
		slog.Info("Driver: Run finished",
			"sequence_id", suite.SequenceID,
			"benchmarks", len(suite.Results),
			"skipped", len(suite.Skipped),
			"executions", suite.ExecutionCount(),
			"duration", suite.Duration())
		return
	}

	suite.Err = err
	state := execution.StateFailed
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		state = execution.StateCancelled
	}
	if !suite.State.IsTerminal() {
		_ = suite.SetState(state)
	}
	slog.Error("Driver: Run failed",
		"sequence_id", suite.SequenceID,
		"state", suite.State,
		"error", err)
}

func (d *ExecutionDriver) timeLimit() time.Duration {
	if !d.cfg.HasTimeLimit() {
		return 0
	}
	return d.cfg.TimeLimit.Duration
}

// timeLimitReached reports whether the configured time limit, measured from
// the run start, has elapsed. A zero limit is always reached.
func (d *ExecutionDriver) timeLimitReached(start time.Time) bool {
	if !d.cfg.HasTimeLimit() {
		return false
	}
	return d.now().Sub(start) >= d.cfg.TimeLimit.Duration
}
