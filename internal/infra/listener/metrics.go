package listener

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/whhaicheng/benchto-driver/internal/app/usecase"
	"github.com/whhaicheng/benchto-driver/internal/domain/benchmark"
	"github.com/whhaicheng/benchto-driver/internal/domain/execution"
)

const metricsNamespace = "benchto"

var durationBuckets = []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000}

// MetricsListener records executions and benchmarks in a Prometheus registry
// and writes it to a textfile when the suite finishes.
type MetricsListener struct {
	usecase.NopListener

	registry     *prometheus.Registry
	textfilePath string

	executions        *prometheus.CounterVec
	executionDuration *prometheus.HistogramVec
	benchmarks        *prometheus.CounterVec
	benchmarkDuration *prometheus.GaugeVec
	suiteSuccess      prometheus.Gauge
	suiteDuration     prometheus.Gauge
}

// NewMetricsListener creates a metrics listener with its own registry.
// An empty textfilePath keeps metrics in memory.
func NewMetricsListener(textfilePath string) *MetricsListener {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &MetricsListener{
		registry:     reg,
		textfilePath: textfilePath,
		executions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "execution",
			Name:      "total",
			Help:      "Number of measured query executions",
		}, []string{"benchmark", "query", "status"}),
		executionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "execution",
			Name:      "duration_milliseconds",
			Help:      "Duration of successful query executions in milliseconds",
			Buckets:   durationBuckets,
		}, []string{"benchmark", "query"}),
		benchmarks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "benchmark",
			Name:      "total",
			Help:      "Number of finished benchmarks",
		}, []string{"benchmark", "status"}),
		benchmarkDuration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "benchmark",
			Name:      "duration_milliseconds",
			Help:      "Wall-clock duration of the last run of a benchmark in milliseconds",
		}, []string{"benchmark"}),
		suiteSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "suite",
			Name:      "success",
			Help:      "1 if the last suite succeeded, 0 otherwise",
		}),
		suiteDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "suite",
			Name:      "duration_milliseconds",
			Help:      "Wall-clock duration of the last suite in milliseconds",
		}),
	}
}

// Name implements usecase.BenchmarkExecutionListener.
func (l *MetricsListener) Name() string { return "metrics" }

// Registry returns the registry holding the listener's metrics.
func (l *MetricsListener) Registry() *prometheus.Registry {
	return l.registry
}

func (l *MetricsListener) ExecutionFinished(_ context.Context, b *benchmark.Benchmark, _ usecase.Token, e execution.QueryExecution) error {
	name := b.UniqueName()
	if !e.Successful() {
		l.executions.WithLabelValues(name, e.Query, "failure").Inc()
		return nil
	}
	l.executions.WithLabelValues(name, e.Query, "success").Inc()
	l.executionDuration.WithLabelValues(name, e.Query).Observe(millis(e.Duration()))
	return nil
}

func (l *MetricsListener) BenchmarkFinished(_ context.Context, result *execution.BenchmarkExecutionResult) error {
	st := "success"
	if !result.Successful() {
		st = "failure"
	}
	l.benchmarks.WithLabelValues(result.BenchmarkName(), st).Inc()
	l.benchmarkDuration.WithLabelValues(result.BenchmarkName()).Set(millis(result.Duration()))
	return nil
}

// SuiteFinished records the suite outcome and writes the textfile.
func (l *MetricsListener) SuiteFinished(_ context.Context, result *execution.SuiteResult) error {
	if result.Successful() {
		l.suiteSuccess.Set(1)
	} else {
		l.suiteSuccess.Set(0)
	}
	l.suiteDuration.Set(millis(result.Duration()))

	if l.textfilePath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.textfilePath), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(l.textfilePath, l.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
