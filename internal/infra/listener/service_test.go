package listener

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whhaicheng/benchto-driver/internal/app/usecase"
	"github.com/whhaicheng/benchto-driver/internal/domain/config"
)

var _ usecase.BenchmarkExecutionListener = (*ServiceListener)(nil)

type recordedRequest struct {
	Path string
	Body map[string]any
}

type fakeService struct {
	mu       sync.Mutex
	requests []recordedRequest
	failures int32
	code     int
	calls    atomic.Int32
}

func (s *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := s.calls.Add(1)
	if n <= s.failures {
		w.WriteHeader(s.code)
		_, _ = w.Write([]byte("unavailable"))
		return
	}

	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	s.mu.Lock()
	s.requests = append(s.requests, recordedRequest{Path: r.URL.EscapedPath(), Body: body})
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func newServiceListener(t *testing.T, svc *fakeService, attempts uint) *ServiceListener {
	t.Helper()
	srv := httptest.NewServer(svc)
	t.Cleanup(srv.Close)

	cfg := config.ServiceConfig{URL: srv.URL + "/", Attempts: attempts, Delay: config.Duration{Duration: time.Millisecond}}
	return NewServiceListener(cfg, "staging", srv.Client())
}

func TestServiceListener_BenchmarkLifecycle(t *testing.T) {
	svc := &fakeService{}
	l := newServiceListener(t, svc, 1)
	ctx := context.Background()
	b := testBenchmark()

	require.NoError(t, l.BenchmarkStarted(ctx, b, testToken()))
	require.NoError(t, l.ExecutionStarted(ctx, b, testToken(), testExecution(1, 0, nil)))
	require.NoError(t, l.ExecutionFinished(ctx, b, testToken(), testExecution(1, 10*time.Millisecond, nil)))
	require.NoError(t, l.BenchmarkFinished(ctx, testResult(true)))

	require.Len(t, svc.requests, 4)
	assert.Equal(t, "/v1/benchmark/tpch_q1_scale=1/seq-7/start", svc.requests[0].Path)
	assert.Equal(t, "/v1/benchmark/tpch_q1_scale=1/seq-7/execution/0/start", svc.requests[1].Path)
	assert.Equal(t, "/v1/benchmark/tpch_q1_scale=1/seq-7/execution/0/finish", svc.requests[2].Path)
	assert.Equal(t, "/v1/benchmark/tpch_q1_scale=1/seq-7/finish", svc.requests[3].Path)

	start := svc.requests[0].Body
	assert.Equal(t, "tpch_q1", start["name"])
	assert.Equal(t, "staging", start["environmentName"])
	assert.Equal(t, map[string]any{"scale": "1"}, start["variables"])

	execFinish := svc.requests[2].Body
	assert.Equal(t, statusSuccess, execFinish["status"])
	measurements := execFinish["measurements"].([]any)
	first := measurements[0].(map[string]any)
	assert.Equal(t, "duration", first["name"])
	assert.InDelta(t, 10.0, first["value"], 0.001)

	finish := svc.requests[3].Body
	assert.Equal(t, statusFailure, finish["status"])
	assert.Contains(t, finish["attributes"].(map[string]any)["error"], "relation does not exist")
}

func TestServiceListener_RetriesServerErrors(t *testing.T) {
	svc := &fakeService{failures: 2, code: http.StatusServiceUnavailable}
	l := newServiceListener(t, svc, 3)

	require.NoError(t, l.BenchmarkStarted(context.Background(), testBenchmark(), testToken()))
	assert.Equal(t, int32(3), svc.calls.Load())
	assert.Len(t, svc.requests, 1)
}

func TestServiceListener_GivesUpAfterAttempts(t *testing.T) {
	svc := &fakeService{failures: 10, code: http.StatusBadGateway}
	l := newServiceListener(t, svc, 2)

	err := l.BenchmarkStarted(context.Background(), testBenchmark(), testToken())
	require.Error(t, err)

	var se *ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.Equal(t, int32(2), svc.calls.Load())
}

func TestServiceListener_DoesNotRetryClientErrors(t *testing.T) {
	svc := &fakeService{failures: 10, code: http.StatusBadRequest}
	l := newServiceListener(t, svc, 5)

	err := l.BenchmarkFinished(context.Background(), testResult(false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), svc.calls.Load())
}

func TestServiceError_Retryable(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{http.StatusInternalServerError, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusTooManyRequests, true},
		{http.StatusNotFound, false},
		{http.StatusConflict, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, (&ServiceError{StatusCode: tt.code}).Retryable(), "status %d", tt.code)
	}
}
