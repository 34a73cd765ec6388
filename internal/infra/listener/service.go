package listener

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go"

	"github.com/whhaicheng/benchto-driver/internal/app/usecase"
	"github.com/whhaicheng/benchto-driver/internal/domain/benchmark"
	"github.com/whhaicheng/benchto-driver/internal/domain/config"
	"github.com/whhaicheng/benchto-driver/internal/domain/execution"
)

const (
	statusSuccess = "ENDED"
	statusFailure = "FAILED"
)

// ServiceError is a non-2xx response from the benchmark service.
type ServiceError struct {
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("benchmark service returned %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed when repeated.
func (e *ServiceError) Retryable() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// Measurement is one named value reported to the benchmark service.
type Measurement struct {
	Name  string  `json:"name"`
	Unit  string  `json:"unit"`
	Value float64 `json:"value"`
}

// BenchmarkStartRequest is posted when a benchmark starts.
type BenchmarkStartRequest struct {
	Name            string            `json:"name"`
	EnvironmentName string            `json:"environmentName"`
	Variables       map[string]string `json:"variables,omitempty"`
	Attributes      map[string]string `json:"attributes,omitempty"`
}

// FinishRequest is posted when a benchmark or an execution finishes.
type FinishRequest struct {
	Status       string            `json:"status"`
	Measurements []Measurement     `json:"measurements,omitempty"`
	Attributes   map[string]string `json:"attributes,omitempty"`
}

// ExecutionStartRequest is posted when an execution starts.
type ExecutionStartRequest struct {
	Attributes map[string]string `json:"attributes,omitempty"`
}

// ServiceListener reports benchmarks and executions to a remote benchmark
// service over REST. Requests are retried on network errors and 5xx
// responses.
type ServiceListener struct {
	usecase.NopListener

	client      *http.Client
	baseURL     string
	environment string
	attempts    uint
	delay       time.Duration
}

// NewServiceListener creates a benchmark-service listener. A nil client uses
// a client with a 30s timeout.
func NewServiceListener(cfg config.ServiceConfig, environment string, client *http.Client) *ServiceListener {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	attempts := cfg.Attempts
	if attempts == 0 {
		attempts = 1
	}
	return &ServiceListener{
		client:      client,
		baseURL:     strings.TrimRight(cfg.URL, "/"),
		environment: environment,
		attempts:    attempts,
		delay:       cfg.Delay.Duration,
	}
}

// Name implements usecase.BenchmarkExecutionListener.
func (l *ServiceListener) Name() string { return "benchmark-service" }

func (l *ServiceListener) BenchmarkStarted(ctx context.Context, b *benchmark.Benchmark, token usecase.Token) error {
	req := BenchmarkStartRequest{
		Name:            b.Name,
		EnvironmentName: l.environment,
		Variables:       b.Variables,
		Attributes: map[string]string{
			"dataSource":  b.DataSource,
			"runs":        strconv.Itoa(b.Runs),
			"prewarmRuns": strconv.Itoa(b.PrewarmRuns),
			"concurrency": strconv.Itoa(b.Concurrency),
		},
	}
	return l.post(ctx, l.benchmarkPath(b.UniqueName(), token.SequenceID)+"/start", req)
}

func (l *ServiceListener) BenchmarkFinished(ctx context.Context, result *execution.BenchmarkExecutionResult) error {
	s := result.Summary()
	req := FinishRequest{
		Status: status(result.Successful()),
		Measurements: []Measurement{
			{Name: "duration", Unit: "MILLISECONDS", Value: millis(result.Duration())},
			{Name: "mean", Unit: "MILLISECONDS", Value: millis(s.Mean)},
			{Name: "p50", Unit: "MILLISECONDS", Value: millis(s.P50)},
			{Name: "p90", Unit: "MILLISECONDS", Value: millis(s.P90)},
			{Name: "p99", Unit: "MILLISECONDS", Value: millis(s.P99)},
			{Name: "failedExecutions", Unit: "NONE", Value: float64(result.FailedExecutions())},
		},
	}
	if err := result.Err(); err != nil {
		req.Attributes = map[string]string{"error": err.Error()}
	}
	return l.post(ctx, l.benchmarkPath(result.BenchmarkName(), result.SequenceID())+"/finish", req)
}

func (l *ServiceListener) ExecutionStarted(ctx context.Context, b *benchmark.Benchmark, token usecase.Token, e execution.QueryExecution) error {
	req := ExecutionStartRequest{
		Attributes: map[string]string{"query": e.Query, "run": strconv.Itoa(e.Run)},
	}
	return l.post(ctx, l.executionPath(b.UniqueName(), token.SequenceID, e.Sequence)+"/start", req)
}

func (l *ServiceListener) ExecutionFinished(ctx context.Context, b *benchmark.Benchmark, token usecase.Token, e execution.QueryExecution) error {
	req := FinishRequest{
		Status: status(e.Successful()),
		Measurements: []Measurement{
			{Name: "duration", Unit: "MILLISECONDS", Value: millis(e.Duration())},
			{Name: "rows", Unit: "NONE", Value: float64(e.Rows)},
		},
	}
	if e.Err != nil {
		req.Attributes = map[string]string{"error": e.Err.Error()}
	}
	return l.post(ctx, l.executionPath(b.UniqueName(), token.SequenceID, e.Sequence)+"/finish", req)
}

func (l *ServiceListener) benchmarkPath(uniqueName, sequenceID string) string {
	return fmt.Sprintf("%s/v1/benchmark/%s/%s", l.baseURL, url.PathEscape(uniqueName), url.PathEscape(sequenceID))
}

func (l *ServiceListener) executionPath(uniqueName, sequenceID string, n int) string {
	return fmt.Sprintf("%s/execution/%d", l.benchmarkPath(uniqueName, sequenceID), n)
}

// post sends body as JSON, retrying transient failures.
func (l *ServiceListener) post(ctx context.Context, endpoint string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	err = retry.Do(
		func() error { return l.send(ctx, endpoint, payload) },
		retry.Attempts(l.attempts),
		retry.Delay(l.delay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var se *ServiceError
			if errors.As(err, &se) {
				return se.Retryable()
			}
			return ctx.Err() == nil
		}),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("BenchmarkService: retrying request", "url", endpoint, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("post %s: %w", endpoint, err)
	}
	return nil
}

func (l *ServiceListener) send(ctx context.Context, endpoint string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &ServiceError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func status(ok bool) string {
	if ok {
		return statusSuccess
	}
	return statusFailure
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
