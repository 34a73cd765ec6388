package report

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whhaicheng/benchto-driver/internal/domain/execution"
	"github.com/whhaicheng/benchto-driver/internal/domain/report"
)

func TestJSONGenerator_Format(t *testing.T) {
	assert.Equal(t, report.FormatJSON, NewJSONGenerator().Format())
}

func TestJSONGenerator_Generate(t *testing.T) {
	gen := NewJSONGenerator()
	gen.now = func() time.Time { return testStart.Add(time.Minute) }

	r, err := gen.Generate(report.NewGenerateContext("staging", testSuite()))
	require.NoError(t, err)
	assert.Equal(t, report.FormatJSON, r.Format)
	assert.Equal(t, "seq-42", r.SequenceID)
	assert.Equal(t, "benchto-seq-42.json", r.FileName())

	var out jsonReport
	require.NoError(t, json.Unmarshal(r.Content, &out))

	assert.Equal(t, "seq-42", out.Meta.SequenceID)
	assert.Equal(t, "staging", out.Meta.Environment)
	assert.Equal(t, "2026-03-01T12:01:00Z", out.Meta.GeneratedAt)

	assert.False(t, out.Summary.Successful)
	assert.True(t, out.Summary.TimeLimitReached)
	assert.Equal(t, "done", out.Summary.State)
	assert.Equal(t, 2, out.Summary.Benchmarks)
	assert.Equal(t, 5, out.Summary.Executions)
	assert.Equal(t, int64(2000), out.Summary.DurationMs)
	assert.Equal(t, []string{"late_benchmark"}, out.Skipped)

	require.Len(t, out.Benchmarks, 2)
	first := out.Benchmarks[0]
	assert.Equal(t, "select_one_scale=10", first.Name)
	assert.Equal(t, "pg", first.DataSource)
	assert.Equal(t, 1, first.Ordinal)
	assert.True(t, first.Successful)
	assert.Equal(t, map[string]string{"scale": "10"}, first.Variables)
	assert.InDelta(t, 20.0, first.Measurements.MeanMs, 0.1)

	second := out.Benchmarks[1]
	assert.False(t, second.Successful)
	assert.Equal(t, 1, second.FailedExecutions)
	assert.Equal(t, []string{"after-benchmark macro cleanup failed"}, second.Failures)
}

func TestJSONGenerator_ValidationError(t *testing.T) {
	_, err := NewJSONGenerator().Generate(&report.GenerateContext{})
	assert.Error(t, err)

	_, err = NewJSONGenerator().Generate(report.NewGenerateContext("", execution.NewSuiteResult("", testStart)))
	assert.Error(t, err)
}
