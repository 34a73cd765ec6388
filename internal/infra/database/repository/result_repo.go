// Package repository provides SQLite repository implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/whhaicheng/benchto-driver/internal/domain/execution"
)

var (
	// ErrSuiteNotFound is returned when no suite exists for a sequence id.
	ErrSuiteNotFound = errors.New("suite not found")
)

const (
	statusSuccess = "SUCCESS"
	statusFailure = "FAILURE"
)

// SuiteRecord is a stored run.
type SuiteRecord struct {
	SequenceID       string
	Environment      string
	State            execution.DriverState
	StartedAt        time.Time
	CompletedAt      *time.Time
	TimeLimitReached bool
	Skipped          []string
	ErrorMessage     string
}

// ResultRecord is a stored benchmark result summary.
type ResultRecord struct {
	Key            string
	SequenceID     string
	UniqueName     string
	BenchmarkName  string
	DataSource     string
	Ordinal        int
	Status         string
	StartedAt      time.Time
	CompletedAt    time.Time
	Duration       time.Duration
	ExecutionCount int
	FailedCount    int
	P50            time.Duration
	P99            time.Duration
	Variables      map[string]string
	ErrorMessage   string
}

// SQLiteResultRepository implements usecase.ResultRepository using SQLite.
type SQLiteResultRepository struct {
	db *sql.DB
}

// NewSQLiteResultRepository creates a new SQLite result repository.
func NewSQLiteResultRepository(db *sql.DB) *SQLiteResultRepository {
	return &SQLiteResultRepository{db: db}
}

// SaveSuite saves a run. An existing row for the sequence id is updated.
func (r *SQLiteResultRepository) SaveSuite(ctx context.Context, suite *execution.SuiteResult, environment string) error {
	skippedJSON, err := json.Marshal(suite.Skipped)
	if err != nil {
		return fmt.Errorf("marshal skipped: %w", err)
	}

	var completedAt *string
	if !suite.CompletedAt.IsZero() {
		c := formatTime(suite.CompletedAt)
		completedAt = &c
	}

	var errMsg *string
	if suite.Err != nil {
		m := suite.Err.Error()
		errMsg = &m
	}

	query := `
		INSERT INTO suites (
			sequence_id, environment, state, started_at, completed_at,
			time_limit_reached, skipped_json, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sequence_id) DO UPDATE SET
			environment = excluded.environment,
			state = excluded.state,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at,
			time_limit_reached = excluded.time_limit_reached,
			skipped_json = excluded.skipped_json,
			error_message = excluded.error_message
	`

	_, err = r.db.ExecContext(ctx, query,
		suite.SequenceID,
		environment,
		string(suite.State),
		formatTime(suite.StartedAt),
		completedAt,
		boolToInt(suite.TimeLimitReached),
		string(skippedJSON),
		errMsg,
	)
	if err != nil {
		return fmt.Errorf("save suite: %w", err)
	}
	return nil
}

// SaveResult saves a benchmark result and replaces its executions in one
// transaction.
func (r *SQLiteResultRepository) SaveResult(ctx context.Context, key string, result *execution.BenchmarkExecutionResult) error {
	b := result.Benchmark()

	variablesJSON, err := json.Marshal(b.Variables)
	if err != nil {
		return fmt.Errorf("marshal variables: %w", err)
	}

	var errMsg *string
	if err := result.Err(); err != nil {
		m := err.Error()
		errMsg = &m
	}

	summary := result.Summary()
	executions := result.Executions()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO benchmark_results (
			result_key, sequence_id, unique_name, benchmark_name, data_source, ordinal,
			status, started_at, completed_at, duration_ms, execution_count, failed_count,
			mean_ms, min_ms, max_ms, p50_ms, p90_ms, p99_ms, variables_json, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(result_key) DO UPDATE SET
			ordinal = excluded.ordinal,
			status = excluded.status,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at,
			duration_ms = excluded.duration_ms,
			execution_count = excluded.execution_count,
			failed_count = excluded.failed_count,
			mean_ms = excluded.mean_ms,
			min_ms = excluded.min_ms,
			max_ms = excluded.max_ms,
			p50_ms = excluded.p50_ms,
			p90_ms = excluded.p90_ms,
			p99_ms = excluded.p99_ms,
			variables_json = excluded.variables_json,
			error_message = excluded.error_message
	`
	_, err = tx.ExecContext(ctx, query,
		key,
		result.SequenceID(),
		b.UniqueName(),
		b.Name,
		b.DataSource,
		result.Ordinal(),
		status(result.Successful()),
		formatTime(result.StartedAt()),
		formatTime(result.CompletedAt()),
		millis(result.Duration()),
		len(executions),
		result.FailedExecutions(),
		millis(summary.Mean),
		millis(summary.Min),
		millis(summary.Max),
		millis(summary.P50),
		millis(summary.P90),
		millis(summary.P99),
		string(variablesJSON),
		errMsg,
	)
	if err != nil {
		return fmt.Errorf("save benchmark result: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM executions WHERE result_key = ?", key); err != nil {
		return fmt.Errorf("clear executions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO executions (
			result_key, sequence, query_name, run, started_at, completed_at,
			duration_ms, rows_count, status, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare execution insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range executions {
		var execErr *string
		if e.Err != nil {
			m := e.ErrorMessage()
			execErr = &m
		}
		_, err := stmt.ExecContext(ctx,
			key,
			e.Sequence,
			e.Query,
			e.Run,
			formatTime(e.StartedAt),
			formatTime(e.CompletedAt),
			millis(e.Duration()),
			e.Rows,
			status(e.Successful()),
			execErr,
		)
		if err != nil {
			return fmt.Errorf("save execution %d: %w", e.Sequence, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// FindSuite finds a run by its sequence id.
func (r *SQLiteResultRepository) FindSuite(ctx context.Context, sequenceID string) (*SuiteRecord, error) {
	query := `
		SELECT sequence_id, environment, state, started_at, completed_at,
		       time_limit_reached, skipped_json, error_message
		FROM suites
		WHERE sequence_id = ?
	`

	var (
		rec            SuiteRecord
		environment    *string
		stateStr       string
		startedAtStr   string
		completedAtStr *string
		timeLimit      int
		skippedJSON    *string
		errMsg         *string
	)
	err := r.db.QueryRowContext(ctx, query, sequenceID).Scan(
		&rec.SequenceID,
		&environment,
		&stateStr,
		&startedAtStr,
		&completedAtStr,
		&timeLimit,
		&skippedJSON,
		&errMsg,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSuiteNotFound
		}
		return nil, fmt.Errorf("scan suite: %w", err)
	}

	rec.State = execution.DriverState(stateStr)
	rec.TimeLimitReached = timeLimit != 0
	if environment != nil {
		rec.Environment = *environment
	}
	if errMsg != nil {
		rec.ErrorMessage = *errMsg
	}

	if rec.StartedAt, err = parseTime(startedAtStr); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if completedAtStr != nil {
		t, err := parseTime(*completedAtStr)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		rec.CompletedAt = &t
	}
	if skippedJSON != nil && *skippedJSON != "" {
		if err := json.Unmarshal([]byte(*skippedJSON), &rec.Skipped); err != nil {
			return nil, fmt.Errorf("unmarshal skipped: %w", err)
		}
	}

	return &rec, nil
}

// FindResults finds the benchmark results of a sequence in ordinal order.
func (r *SQLiteResultRepository) FindResults(ctx context.Context, sequenceID string) ([]*ResultRecord, error) {
	query := `
		SELECT result_key, sequence_id, unique_name, benchmark_name, data_source, ordinal,
		       status, started_at, completed_at, duration_ms, execution_count, failed_count,
		       p50_ms, p99_ms, variables_json, error_message
		FROM benchmark_results
		WHERE sequence_id = ?
		ORDER BY ordinal ASC
	`

	rows, err := r.db.QueryContext(ctx, query, sequenceID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var records []*ResultRecord
	for rows.Next() {
		var (
			rec                        ResultRecord
			dataSource                 *string
			startedAtStr, completedStr string
			durationMs                 float64
			p50Ms, p99Ms               *float64
			variablesJSON, errMsg      *string
		)
		err := rows.Scan(
			&rec.Key,
			&rec.SequenceID,
			&rec.UniqueName,
			&rec.BenchmarkName,
			&dataSource,
			&rec.Ordinal,
			&rec.Status,
			&startedAtStr,
			&completedStr,
			&durationMs,
			&rec.ExecutionCount,
			&rec.FailedCount,
			&p50Ms,
			&p99Ms,
			&variablesJSON,
			&errMsg,
		)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}

		if dataSource != nil {
			rec.DataSource = *dataSource
		}
		if errMsg != nil {
			rec.ErrorMessage = *errMsg
		}
		if rec.StartedAt, err = parseTime(startedAtStr); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if rec.CompletedAt, err = parseTime(completedStr); err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		rec.Duration = fromMillis(durationMs)
		if p50Ms != nil {
			rec.P50 = fromMillis(*p50Ms)
		}
		if p99Ms != nil {
			rec.P99 = fromMillis(*p99Ms)
		}
		if variablesJSON != nil && *variablesJSON != "" && *variablesJSON != "null" {
			if err := json.Unmarshal([]byte(*variablesJSON), &rec.Variables); err != nil {
				return nil, fmt.Errorf("unmarshal variables: %w", err)
			}
		}
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return records, nil
}

// CountExecutions returns the number of stored executions under key.
func (r *SQLiteResultRepository) CountExecutions(ctx context.Context, key string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM executions WHERE result_key = ?", key).Scan(&n); err != nil {
		return 0, fmt.Errorf("count executions: %w", err)
	}
	return n, nil
}

func status(ok bool) string {
	if ok {
		return statusSuccess
	}
	return statusFailure
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func fromMillis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
