// Package connection provides data source connection models.
package connection

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/whhaicheng/benchto-driver/internal/domain/config"
)

// DatabaseType represents the type of database.
type DatabaseType = config.DataSourceType

// Connection defines the contract for all data source connections.
type Connection interface {
	// GetName returns the data source name.
	GetName() string

	// GetType returns the database type.
	GetType() DatabaseType

	// DriverName returns the database/sql driver the connection opens with.
	DriverName() string

	// Validate validates the connection parameters.
	Validate() error

	// GetDSN generates a connection string without password (for logging).
	GetDSN() string

	// GetDSNWithPassword generates a complete connection string with password.
	GetDSNWithPassword() string

	// Redact returns a redacted connection string for display.
	Redact() string

	// Endpoint returns the network address the connection dials. File-based
	// connections return an empty host.
	Endpoint() (host string, port int)

	// WithEndpoint returns a copy dialing host:port instead, used to route
	// the connection through an SSH tunnel.
	WithEndpoint(host string, port int) Connection

	// VersionQuery returns a statement reporting the server version.
	VersionQuery() string
}

// TestResult represents the result of a connection test.
type TestResult struct {
	Success         bool   `json:"success"`
	LatencyMs       int64  `json:"latency_ms"`
	DatabaseVersion string `json:"database_version"`
	Error           string `json:"error,omitempty"`
}

// New builds a connection from a named data source configuration.
func New(name string, cfg config.DataSourceConfig) (Connection, error) {
	password := cfg.ResolvePassword()
	base := BaseConnection{Name: name}

	var conn Connection
	switch cfg.Type {
	case config.DataSourceMySQL:
		conn = &MySQLConnection{
			BaseConnection: base,
			Host:           cfg.Host,
			Port:           cfg.Port,
			Database:       cfg.Database,
			Username:       cfg.Username,
			Password:       password,
			SSLMode:        cfg.SSLMode,
		}
	case config.DataSourcePostgreSQL:
		conn = &PostgreSQLConnection{
			BaseConnection: base,
			Host:           cfg.Host,
			Port:           cfg.Port,
			Database:       cfg.Database,
			Username:       cfg.Username,
			Password:       password,
			SSLMode:        cfg.SSLMode,
		}
	case config.DataSourceSQLServer:
		conn = &SQLServerConnection{
			BaseConnection:         base,
			Host:                   cfg.Host,
			Port:                   cfg.Port,
			Database:               cfg.Database,
			Username:               cfg.Username,
			Password:               password,
			TrustServerCertificate: cfg.TrustServerCertificate,
		}
	case config.DataSourceOracle:
		conn = &OracleConnection{
			BaseConnection: base,
			Host:           cfg.Host,
			Port:           cfg.Port,
			ServiceName:    cfg.ServiceName,
			SID:            cfg.SID,
			Username:       cfg.Username,
			Password:       password,
		}
	case config.DataSourceSQLite:
		conn = &SQLiteConnection{
			BaseConnection: base,
			Path:           cfg.Path,
		}
	default:
		return nil, fmt.Errorf("%w: unknown data source type: %s", config.ErrInvalidConfiguration, cfg.Type)
	}

	if err := conn.Validate(); err != nil {
		return nil, fmt.Errorf("%w: data source %s: %v", config.ErrInvalidConfiguration, name, err)
	}
	return conn, nil
}

// Test tests the connection availability. A failed connection is reported in
// the result, not as an error.
func Test(ctx context.Context, conn Connection) *TestResult {
	start := time.Now()

	db, err := sql.Open(conn.DriverName(), conn.GetDSNWithPassword())
	if err != nil {
		return &TestResult{
			Error:     fmt.Sprintf("failed to open connection: %v", err),
			LatencyMs: time.Since(start).Milliseconds(),
		}
	}
	defer db.Close()

	testCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = db.PingContext(testCtx)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return &TestResult{
			LatencyMs: latency,
			Error:     fmt.Sprintf("connection failed: %v", err),
		}
	}

	var version string
	if err := db.QueryRowContext(testCtx, conn.VersionQuery()).Scan(&version); err != nil {
		version = "unknown"
	}

	return &TestResult{
		Success:         true,
		LatencyMs:       latency,
		DatabaseVersion: version,
	}
}

// ValidatePort validates that a port number is in valid range (1-65535).
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return &ValidationError{
			Field:   "port",
			Message: "port must be between 1 and 65535",
			Value:   port,
		}
	}
	return nil
}

// ValidateRequired validates that a required string field is not empty.
func ValidateRequired(fieldName, value string) error {
	if value == "" {
		return &ValidationError{
			Field:   fieldName,
			Message: fieldName + " is required",
		}
	}
	return nil
}

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Value)
	}
	return e.Message
}

// MultiValidationError represents multiple validation errors.
type MultiValidationError struct {
	Errors []error
}

func (e *MultiValidationError) Error() string {
	var msg string
	for _, err := range e.Errors {
		if msg != "" {
			msg += "; "
		}
		msg += err.Error()
	}
	return msg
}

// validateNetwork collects the checks shared by host-based connections.
func validateNetwork(name, host, username string, port int) []error {
	var errs []error
	if err := ValidateRequired("name", name); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateRequired("host", host); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateRequired("username", username); err != nil {
		errs = append(errs, err)
	}
	if err := ValidatePort(port); err != nil {
		errs = append(errs, err)
	}
	return errs
}

func joinValidation(errs []error) error {
	if len(errs) > 0 {
		return &MultiValidationError{Errors: errs}
	}
	return nil
}

// BaseConnection contains common fields for all connection types.
type BaseConnection struct {
	Name string `json:"name"`
}

// GetName returns the connection name.
func (b *BaseConnection) GetName() string {
	return b.Name
}
