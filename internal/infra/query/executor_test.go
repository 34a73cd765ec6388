package query

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whhaicheng/benchto-driver/internal/domain/benchmark"
	"github.com/whhaicheng/benchto-driver/internal/domain/config"
	"github.com/whhaicheng/benchto-driver/internal/infra/datasource"
)

func setupExecutor(t *testing.T) (*SQLExecutor, *benchmark.Benchmark) {
	t.Helper()
	dbs := datasource.NewRegistry(map[string]config.DataSourceConfig{
		"local": {Type: config.DataSourceSQLite, Path: filepath.Join(t.TempDir(), "query.db")},
	})
	t.Cleanup(func() { _ = dbs.Close() })

	db, err := dbs.DB(context.Background(), "local")
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE lineitem (id INTEGER, qty INTEGER);
		INSERT INTO lineitem VALUES (1, 10), (2, 20), (3, 30);`)
	require.NoError(t, err)

	return NewSQLExecutor(dbs), benchmark.New("tpch", "local", nil)
}

func TestSQLExecutor_SelectCountsRows(t *testing.T) {
	e, b := setupExecutor(t)

	rows, err := e.ExecuteQuery(context.Background(), b, benchmark.Query{Name: "q1", SQL: "SELECT * FROM lineitem WHERE qty > 10"})

	require.NoError(t, err)
	assert.Equal(t, int64(2), rows)
}

func TestSQLExecutor_MultipleStatements(t *testing.T) {
	e, b := setupExecutor(t)

	rows, err := e.ExecuteQuery(context.Background(), b, benchmark.Query{
		Name: "update",
		SQL:  "UPDATE lineitem SET qty = qty + 1; SELECT id FROM lineitem;",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(6), rows)
}

func TestSQLExecutor_Failure(t *testing.T) {
	e, b := setupExecutor(t)

	_, err := e.ExecuteQuery(context.Background(), b, benchmark.Query{Name: "bad", SQL: "SELECT * FROM missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query bad")

	_, err = e.ExecuteQuery(context.Background(), b, benchmark.Query{Name: "empty", SQL: " ; "})
	assert.Error(t, err)
}

func TestSQLExecutor_UnknownDataSource(t *testing.T) {
	e, _ := setupExecutor(t)

	_, err := e.ExecuteQuery(context.Background(), benchmark.New("x", "nope", nil), benchmark.Query{Name: "q", SQL: "SELECT 1"})
	assert.ErrorIs(t, err, config.ErrDataSourceNotDefined)
}

func TestReturnsRows(t *testing.T) {
	assert.True(t, returnsRows("  select 1"))
	assert.True(t, returnsRows("(SELECT 1) UNION (SELECT 2)"))
	assert.True(t, returnsRows("with x as (select 1) select * from x"))
	assert.False(t, returnsRows("INSERT INTO t VALUES (1)"))
	assert.False(t, returnsRows("DELETE FROM t"))
}

type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, errors.New("not supported") }

func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestRowsAffected(t *testing.T) {
	assert.Equal(t, int64(4), rowsAffected(fakeResult{rows: 4}, "DELETE FROM t"))
}

func TestRowsAffected_UnsupportedIsLogged(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	n := rowsAffected(fakeResult{err: errors.New("driver does not track affected rows")}, "CALL refresh()")

	assert.Equal(t, int64(0), n)
	assert.Contains(t, buf.String(), `msg="Query: rows affected unavailable"`)
	assert.Contains(t, buf.String(), "driver does not track affected rows")
}
