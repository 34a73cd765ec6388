package listener

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whhaicheng/benchto-driver/internal/app/usecase"
	"github.com/whhaicheng/benchto-driver/internal/domain/execution"
	inforeport "github.com/whhaicheng/benchto-driver/internal/infra/report"
)

var _ usecase.BenchmarkExecutionListener = (*ReportListener)(nil)

func TestReportListener_WritesReports(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	l := NewReportListener(dir, "staging", inforeport.NewMarkdownGenerator(), inforeport.NewJSONGenerator())

	require.NoError(t, l.SuiteFinished(context.Background(), testSuite(execution.StateDone, testResult(false))))

	md, err := os.ReadFile(filepath.Join(dir, "benchto-seq-7.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Benchmark Report - seq-7")
	assert.Contains(t, string(md), "tpch_q1_scale=1")

	raw, err := os.ReadFile(filepath.Join(dir, "benchto-seq-7.json"))
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "seq-7", doc["meta"].(map[string]any)["sequence_id"])
}

func TestReportListener_NoGenerators(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	l := NewReportListener(dir, "")

	require.NoError(t, l.SuiteFinished(context.Background(), testSuite(execution.StateDone)))
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestReportListener_GenerateError(t *testing.T) {
	l := NewReportListener(t.TempDir(), "", inforeport.NewJSONGenerator())
	err := l.SuiteFinished(context.Background(), execution.NewSuiteResult("", testStart))
	assert.ErrorContains(t, err, "generate json report")
}
