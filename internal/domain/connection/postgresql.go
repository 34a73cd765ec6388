package connection

import (
	"fmt"

	_ "github.com/lib/pq" // Register PostgreSQL driver
)

// PostgreSQLConnection represents a PostgreSQL data source.
type PostgreSQLConnection struct {
	BaseConnection

	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"-"`
	SSLMode  string `json:"ssl_mode"` // disable/allow/prefer/require/verify-ca/verify-full
}

// GetType returns DataSourcePostgreSQL.
func (c *PostgreSQLConnection) GetType() DatabaseType {
	return "postgresql"
}

// DriverName returns the lib/pq driver name.
func (c *PostgreSQLConnection) DriverName() string {
	return "postgres"
}

// GetDSN generates a connection string without password (for logging).
func (c *PostgreSQLConnection) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s", c.Host, c.Port, c.Database, c.Username)
}

// GetDSNWithPassword generates a complete connection string with password.
func (c *PostgreSQLConnection) GetDSNWithPassword() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Database, c.Username, c.Password, sslMode)
}

// Redact returns a redacted connection string for display.
func (c *PostgreSQLConnection) Redact() string {
	return fmt.Sprintf("%s (***@%s:%d/%s)", c.Name, c.Host, c.Port, c.Database)
}

// Endpoint returns host and port.
func (c *PostgreSQLConnection) Endpoint() (string, int) {
	return c.Host, c.Port
}

// WithEndpoint returns a copy dialing host:port.
func (c *PostgreSQLConnection) WithEndpoint(host string, port int) Connection {
	cp := *c
	cp.Host, cp.Port = host, port
	return &cp
}

// VersionQuery returns the PostgreSQL version statement.
func (c *PostgreSQLConnection) VersionQuery() string {
	return "SELECT version()"
}

// Validate validates the connection parameters. Database is optional.
func (c *PostgreSQLConnection) Validate() error {
	errs := validateNetwork(c.Name, c.Host, c.Username, c.Port)

	validSSLMode := map[string]bool{
		"disable":     true,
		"allow":       true,
		"prefer":      true,
		"require":     true,
		"verify-ca":   true,
		"verify-full": true,
	}
	if c.SSLMode != "" && !validSSLMode[c.SSLMode] {
		errs = append(errs, &ValidationError{
			Field:   "ssl_mode",
			Message: "ssl_mode must be one of: disable, allow, prefer, require, verify-ca, verify-full",
			Value:   c.SSLMode,
		})
	}
	return joinValidation(errs)
}
