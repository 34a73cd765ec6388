package connection

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// MySQLConnection represents a MySQL data source.
type MySQLConnection struct {
	BaseConnection

	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"-"`
	SSLMode  string `json:"ssl_mode"` // disabled/preferred/required
}

// GetType returns DataSourceMySQL.
func (c *MySQLConnection) GetType() DatabaseType {
	return "mysql"
}

// DriverName returns the go-sql-driver name.
func (c *MySQLConnection) DriverName() string {
	return "mysql"
}

// GetDSN generates a connection string without password (for logging).
// Format: username@tcp(host:port)/database
func (c *MySQLConnection) GetDSN() string {
	return fmt.Sprintf("%s@tcp(%s:%d)/%s", c.Username, c.Host, c.Port, c.Database)
}

// GetDSNWithPassword generates a complete connection string with password.
// Format: username:password@tcp(host:port)/database?tls=...
func (c *MySQLConnection) GetDSNWithPassword() string {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s", c.Username, c.Password, c.Host, c.Port, c.Database)
	switch c.SSLMode {
	case "required":
		return dsn + "?tls=true"
	case "preferred":
		return dsn + "?tls=preferred"
	default:
		return dsn
	}
}

// Redact returns a redacted connection string for display.
func (c *MySQLConnection) Redact() string {
	return fmt.Sprintf("%s (***@%s:%d/%s)", c.Name, c.Host, c.Port, c.Database)
}

// Endpoint returns host and port.
func (c *MySQLConnection) Endpoint() (string, int) {
	return c.Host, c.Port
}

// WithEndpoint returns a copy dialing host:port.
func (c *MySQLConnection) WithEndpoint(host string, port int) Connection {
	cp := *c
	cp.Host, cp.Port = host, port
	return &cp
}

// VersionQuery returns the MySQL version statement.
func (c *MySQLConnection) VersionQuery() string {
	return "SELECT VERSION()"
}

// Validate validates the connection parameters. Database is optional.
func (c *MySQLConnection) Validate() error {
	errs := validateNetwork(c.Name, c.Host, c.Username, c.Port)
	if c.SSLMode != "" && c.SSLMode != "disabled" && c.SSLMode != "preferred" && c.SSLMode != "required" {
		errs = append(errs, &ValidationError{
			Field:   "ssl_mode",
			Message: "ssl_mode must be one of: disabled, preferred, required",
			Value:   c.SSLMode,
		})
	}
	return joinValidation(errs)
}
