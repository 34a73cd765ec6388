// Package query executes benchmark queries against configured data sources.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/whhaicheng/benchto-driver/internal/domain/benchmark"
)

// DBProvider returns the shared handle of a named data source.
type DBProvider interface {
	DB(ctx context.Context, name string) (*sql.DB, error)
}

// rowReturningPrefixes are statement keywords whose results are read.
var rowReturningPrefixes = []string{"SELECT", "WITH", "SHOW", "EXPLAIN", "VALUES", "DESCRIBE", "PRAGMA", "TABLE"}

// SQLExecutor implements usecase.QueryExecutor with database/sql.
type SQLExecutor struct {
	dbs DBProvider
}

// NewSQLExecutor creates a new SQL query executor.
func NewSQLExecutor(dbs DBProvider) *SQLExecutor {
	return &SQLExecutor{dbs: dbs}
}

// ExecuteQuery runs every statement of q in order on the benchmark's data
// source. Result sets are read to completion; the returned count is the sum
// of rows read and rows affected.
func (e *SQLExecutor) ExecuteQuery(ctx context.Context, b *benchmark.Benchmark, q benchmark.Query) (int64, error) {
	db, err := e.dbs.DB(ctx, b.DataSource)
	if err != nil {
		return 0, err
	}

	stmts := q.Statements()
	if len(stmts) == 0 {
		return 0, fmt.Errorf("query %s has no statements", q.Name)
	}

	var total int64
	for _, stmt := range stmts {
		var n int64
		if returnsRows(stmt) {
			n, err = readRows(ctx, db, stmt)
		} else {
			n, err = execStatement(ctx, db, stmt)
		}
		if err != nil {
			return total, fmt.Errorf("query %s: %w", q.Name, err)
		}
		total += n
	}
	return total, nil
}

func readRows(ctx context.Context, db *sql.DB, stmt string) (int64, error) {
	rows, err := db.QueryContext(ctx, stmt)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return 0, err
	}
	dest := make([]any, len(cols))
	for i := range dest {
		dest[i] = new(sql.RawBytes)
	}

	var n int64
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return n, err
		}
		n++
	}
	return n, rows.Err()
}

func execStatement(ctx context.Context, db *sql.DB, stmt string) (int64, error) {
	res, err := db.ExecContext(ctx, stmt)
	if err != nil {
		return 0, err
	}
	return rowsAffected(res, stmt), nil
}

// rowsAffected returns the affected row count, or 0 when the driver cannot
// report it. The statement itself succeeded either way.
func rowsAffected(res sql.Result, stmt string) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		slog.Debug("Query: rows affected unavailable", "statement", stmt, "error", err)
		return 0
	}
	return n
}

func returnsRows(stmt string) bool {
	upper := strings.ToUpper(strings.TrimLeft(stmt, " \t\r\n("))
	for _, prefix := range rowReturningPrefixes {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return false
}

