package connection

import (
	"fmt"
	"net/url"

	_ "github.com/microsoft/go-mssqldb" // SQL Server driver
)

// SQLServerConnection represents a SQL Server data source.
type SQLServerConnection struct {
	BaseConnection

	Host                   string `json:"host"`
	Port                   int    `json:"port"`
	Database               string `json:"database"`
	Username               string `json:"username"`
	Password               string `json:"-"`
	TrustServerCertificate bool   `json:"trust_server_certificate"`
}

// GetType returns DataSourceSQLServer.
func (c *SQLServerConnection) GetType() DatabaseType {
	return "sqlserver"
}

// DriverName returns the go-mssqldb driver name.
func (c *SQLServerConnection) DriverName() string {
	return "sqlserver"
}

// GetDSN generates a connection string without password (for logging).
// Format: sqlserver://username@host:port?database=dbname
func (c *SQLServerConnection) GetDSN() string {
	return fmt.Sprintf("sqlserver://%s@%s:%d?database=%s", c.Username, c.Host, c.Port, c.Database)
}

// GetDSNWithPassword generates a complete connection string with password.
func (c *SQLServerConnection) GetDSNWithPassword() string {
	u := &url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
	}
	q := url.Values{}
	q.Set("database", c.Database)
	q.Set("trustservercertificate", fmt.Sprintf("%t", c.TrustServerCertificate))
	u.RawQuery = q.Encode()
	return u.String()
}

// Redact returns a redacted connection string for display.
func (c *SQLServerConnection) Redact() string {
	return fmt.Sprintf("%s (***@%s:%d/%s)", c.Name, c.Host, c.Port, c.Database)
}

// Endpoint returns host and port.
func (c *SQLServerConnection) Endpoint() (string, int) {
	return c.Host, c.Port
}

// WithEndpoint returns a copy dialing host:port.
func (c *SQLServerConnection) WithEndpoint(host string, port int) Connection {
	cp := *c
	cp.Host, cp.Port = host, port
	return &cp
}

// VersionQuery returns the SQL Server version statement.
func (c *SQLServerConnection) VersionQuery() string {
	return "SELECT @@VERSION"
}

// Validate validates the connection parameters.
func (c *SQLServerConnection) Validate() error {
	errs := validateNetwork(c.Name, c.Host, c.Username, c.Port)
	if err := ValidateRequired("database", c.Database); err != nil {
		errs = append(errs, err)
	}
	return joinValidation(errs)
}
