package connection

import (
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteConnection represents a file-backed SQLite data source.
type SQLiteConnection struct {
	BaseConnection

	Path string `json:"path"`
}

// GetType returns DataSourceSQLite.
func (c *SQLiteConnection) GetType() DatabaseType {
	return "sqlite"
}

// DriverName returns the modernc driver name.
func (c *SQLiteConnection) DriverName() string {
	return "sqlite"
}

// GetDSN returns the file DSN.
func (c *SQLiteConnection) GetDSN() string {
	return fmt.Sprintf("file:%s", c.Path)
}

// GetDSNWithPassword returns the file DSN; SQLite has no credentials.
func (c *SQLiteConnection) GetDSNWithPassword() string {
	return c.GetDSN()
}

// Redact returns a display string.
func (c *SQLiteConnection) Redact() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.Path)
}

// Endpoint returns an empty host; SQLite is not dialed.
func (c *SQLiteConnection) Endpoint() (string, int) {
	return "", 0
}

// WithEndpoint returns the connection unchanged.
func (c *SQLiteConnection) WithEndpoint(string, int) Connection {
	return c
}

// VersionQuery returns the SQLite version statement.
func (c *SQLiteConnection) VersionQuery() string {
	return "SELECT sqlite_version()"
}

// Validate validates the connection parameters.
func (c *SQLiteConnection) Validate() error {
	var errs []error
	if err := ValidateRequired("name", c.Name); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateRequired("path", c.Path); err != nil {
		errs = append(errs, err)
	}
	return joinValidation(errs)
}
