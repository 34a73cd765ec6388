package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whhaicheng/benchto-driver/internal/domain/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// setupProject writes a driver configuration over a sqlite data source.
func setupProject(t *testing.T, query string) (dir, configPath string) {
	t.Helper()
	dir = t.TempDir()

	writeFile(t, filepath.Join(dir, "benchmarks", "counts.yaml"), `
datasource: local
query-names: [count]
runs: 2
concurrency: 2
variables:
  - table: items
`)
	writeFile(t, filepath.Join(dir, "benchmarks", "count.sql"), query)

	configPath = filepath.Join(dir, "driver.yaml")
	writeFile(t, configPath, fmt.Sprintf(`
environment-name: ci
execution-sequence-id: seq-cli
before-all-macros: [create-items]
benchmarks:
  dir: %[1]s/benchmarks
data-sources:
  local:
    type: sqlite
    path: %[1]s/local.db
macros:
  create-items:
    type: sql
    data-source: local
    sql: "CREATE TABLE IF NOT EXISTS items (id INTEGER); INSERT INTO items VALUES (1), (2)"
results:
  path: %[1]s/results.db
metrics:
  textfile-path: %[1]s/metrics/benchto.prom
report:
  output-dir: %[1]s/reports
  formats: [markdown, json]
log:
  dir: %[1]s/logs
`, dir))
	return dir, configPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRun_EndToEnd(t *testing.T) {
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil))) })
	dir, configPath := setupProject(t, "SELECT count(*) FROM {{.table}}")

	_, err := execute(t, "run", "--config", configPath)
	require.NoError(t, err)

	for _, path := range []string{
		filepath.Join(dir, "results.db"),
		filepath.Join(dir, "metrics", "benchto.prom"),
		filepath.Join(dir, "reports", "benchto-seq-cli.md"),
		filepath.Join(dir, "reports", "benchto-seq-cli.json"),
		filepath.Join(dir, "logs", logFileName(time.Now())),
	} {
		assert.FileExists(t, path)
	}

	md, err := os.ReadFile(filepath.Join(dir, "reports", "benchto-seq-cli.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "| 1 | counts_table=items | ok | 2 | 0 |")
}

func TestRun_FailedQueriesExitWithRunsFailed(t *testing.T) {
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil))) })
	_, configPath := setupProject(t, "SELECT * FROM missing_table")

	_, err := execute(t, "--config", configPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, errRunsFailed)
}

func TestRun_InvalidConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "driver.yaml")
	writeFile(t, configPath, "time-limit: soon\n")

	_, err := execute(t, "run", "--config", configPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidConfiguration)
	assert.NotErrorIs(t, err, errRunsFailed)
}

func TestList(t *testing.T) {
	_, configPath := setupProject(t, "SELECT 1")

	out, err := execute(t, "list", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Regexp(t, `counts_table=items\s+local\s+1\s+2\s+0\s+2`, out)
}

func TestCheck(t *testing.T) {
	_, configPath := setupProject(t, "SELECT 1")

	out, err := execute(t, "check", "--config", configPath)
	require.NoError(t, err)
	assert.Regexp(t, `local\s+OK`, out)

	out, err = execute(t, "check", "--config", configPath, "nope")
	require.Error(t, err)
	assert.Contains(t, out, "nope")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "benchto-driver v"+Version+"\n", out)
}

func TestApplyOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Benchmarks.SQLDir = cfg.Benchmarks.Dir

	applyOverrides(cfg, &options{
		sequenceID:       "seq-9",
		timeLimit:        time.Minute,
		benchmarksDir:    "/bench",
		activeBenchmarks: []string{"a", "b"},
		logDir:           "/logs",
		debug:            true,
	}, true)

	assert.Equal(t, "seq-9", cfg.ExecutionSequenceID)
	require.True(t, cfg.HasTimeLimit())
	assert.Equal(t, time.Minute, cfg.TimeLimit.Duration)
	assert.Equal(t, "/bench", cfg.Benchmarks.Dir)
	assert.Equal(t, "/bench", cfg.Benchmarks.SQLDir)
	assert.Equal(t, []string{"a", "b"}, cfg.Benchmarks.Active)
	assert.Equal(t, "/logs", cfg.Log.Dir)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestApplyOverrides_TimeLimitUnset(t *testing.T) {
	cfg := config.DefaultConfig()
	applyOverrides(cfg, &options{}, false)
	assert.False(t, cfg.HasTimeLimit())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestMultiHandler(t *testing.T) {
	var a, b bytes.Buffer
	logger := slog.New(newMultiHandler(&slog.HandlerOptions{Level: slog.LevelInfo}, &a, &b))

	logger.Debug("hidden")
	logger.With("component", "driver").Info("visible")

	for _, out := range []string{a.String(), b.String()} {
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, `msg=visible component=driver`)
	}
}

func TestLogFileName(t *testing.T) {
	assert.Equal(t, "benchto-driver-2026-03-01.log", logFileName(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)))
}
