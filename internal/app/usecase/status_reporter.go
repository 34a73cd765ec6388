package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/whhaicheng/benchto-driver/internal/domain/benchmark"
	"github.com/whhaicheng/benchto-driver/internal/domain/execution"
)

// Listener hook names used in ListenerError.
const (
	HookSuiteStarted      = "suite_started"
	HookBenchmarkStarted  = "benchmark_started"
	HookBenchmarkFinished = "benchmark_finished"
	HookExecutionStarted  = "execution_started"
	HookExecutionFinished = "execution_finished"
	HookSuiteFinished     = "suite_finished"
)

// BenchmarkStatusReporter fans driver events out to registered listeners.
// Every listener is invoked concurrently; the reporter waits for all of them
// and returns every failure folded into one error.
type BenchmarkStatusReporter struct {
	listeners []BenchmarkExecutionListener
}

// NewBenchmarkStatusReporter creates a reporter over a fixed listener list.
func NewBenchmarkStatusReporter(listeners ...BenchmarkExecutionListener) *BenchmarkStatusReporter {
	return &BenchmarkStatusReporter{
		listeners: append([]BenchmarkExecutionListener(nil), listeners...),
	}
}

// Listeners returns the registered listeners in registration order.
func (r *BenchmarkStatusReporter) Listeners() []BenchmarkExecutionListener {
	return append([]BenchmarkExecutionListener(nil), r.listeners...)
}

// SuiteStarted notifies listeners that a run started.
func (r *BenchmarkStatusReporter) SuiteStarted(ctx context.Context, sequenceID string) error {
	return r.notify(HookSuiteStarted, func(l BenchmarkExecutionListener) error {
		return l.SuiteStarted(ctx, sequenceID)
	})
}

// BenchmarkStarted notifies listeners that a benchmark started.
func (r *BenchmarkStatusReporter) BenchmarkStarted(ctx context.Context, b *benchmark.Benchmark, token Token) error {
	return r.notify(HookBenchmarkStarted, func(l BenchmarkExecutionListener) error {
		return l.BenchmarkStarted(ctx, b, token)
	})
}

// BenchmarkFinished notifies listeners of a finished benchmark result.
func (r *BenchmarkStatusReporter) BenchmarkFinished(ctx context.Context, result *execution.BenchmarkExecutionResult) error {
	return r.notify(HookBenchmarkFinished, func(l BenchmarkExecutionListener) error {
		return l.BenchmarkFinished(ctx, result)
	})
}

// ExecutionStarted notifies listeners that a measured execution started.
func (r *BenchmarkStatusReporter) ExecutionStarted(ctx context.Context, b *benchmark.Benchmark, token Token, e execution.QueryExecution) error {
	return r.notify(HookExecutionStarted, func(l BenchmarkExecutionListener) error {
		return l.ExecutionStarted(ctx, b, token, e)
	})
}

// ExecutionFinished notifies listeners of a finished measured execution.
func (r *BenchmarkStatusReporter) ExecutionFinished(ctx context.Context, b *benchmark.Benchmark, token Token, e execution.QueryExecution) error {
	return r.notify(HookExecutionFinished, func(l BenchmarkExecutionListener) error {
		return l.ExecutionFinished(ctx, b, token, e)
	})
}

// SuiteFinished notifies listeners that a run finished.
func (r *BenchmarkStatusReporter) SuiteFinished(ctx context.Context, result *execution.SuiteResult) error {
	return r.notify(HookSuiteFinished, func(l BenchmarkExecutionListener) error {
		return l.SuiteFinished(ctx, result)
	})
}

// notify invokes hook on every listener and waits for all of them. Errors
// are folded in registration order.
func (r *BenchmarkStatusReporter) notify(hook string, invoke func(BenchmarkExecutionListener) error) error {
	errs := make([]error, len(r.listeners))

	var wg sync.WaitGroup
	for i, l := range r.listeners {
		wg.Add(1)
		go func(i int, l BenchmarkExecutionListener) {
			defer wg.Done()
			errs[i] = callListener(l, hook, invoke)
		}(i, l)
	}
	wg.Wait()

	var result *multierror.Error
	for _, err := range errs {
		if err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func callListener(l BenchmarkExecutionListener, hook string, invoke func(BenchmarkExecutionListener) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &ListenerError{Listener: l.Name(), Hook: hook, Err: fmt.Errorf("panic: %v", p)}
		}
		if err != nil {
			slog.Error("Reporter: Listener failed", "listener", l.Name(), "hook", hook, "error", err)
		}
	}()

	if err := invoke(l); err != nil {
		return &ListenerError{Listener: l.Name(), Hook: hook, Err: err}
	}
	return nil
}
