package connection

import (
	"fmt"

	go_ora "github.com/sijms/go-ora/v2"
)

// OracleConnection represents an Oracle data source.
type OracleConnection struct {
	BaseConnection

	Host        string `json:"host"`
	Port        int    `json:"port"`
	ServiceName string `json:"service_name"`
	SID         string `json:"sid"` // Alternative to ServiceName
	Username    string `json:"username"`
	Password    string `json:"-"`
}

// GetType returns DataSourceOracle.
func (c *OracleConnection) GetType() DatabaseType {
	return "oracle"
}

// DriverName returns the go-ora driver name.
func (c *OracleConnection) DriverName() string {
	return "oracle"
}

// GetDSN generates a connection string without password (for logging).
func (c *OracleConnection) GetDSN() string {
	if c.ServiceName != "" {
		return fmt.Sprintf("%s@//%s:%d/%s", c.Username, c.Host, c.Port, c.ServiceName)
	}
	return fmt.Sprintf("%s@//%s:%d:%s", c.Username, c.Host, c.Port, c.SID)
}

// GetDSNWithPassword generates an oracle:// URL understood by go-ora.
func (c *OracleConnection) GetDSNWithPassword() string {
	if c.ServiceName != "" {
		return go_ora.BuildUrl(c.Host, c.Port, c.ServiceName, c.Username, c.Password, nil)
	}
	return go_ora.BuildUrl(c.Host, c.Port, "", c.Username, c.Password, map[string]string{"SID": c.SID})
}

// Redact returns a redacted connection string for display.
func (c *OracleConnection) Redact() string {
	identifier := c.ServiceName
	if identifier == "" {
		identifier = c.SID
	}
	return fmt.Sprintf("%s (***@%s:%d/%s)", c.Name, c.Host, c.Port, identifier)
}

// Endpoint returns host and port.
func (c *OracleConnection) Endpoint() (string, int) {
	return c.Host, c.Port
}

// WithEndpoint returns a copy dialing host:port.
func (c *OracleConnection) WithEndpoint(host string, port int) Connection {
	cp := *c
	cp.Host, cp.Port = host, port
	return &cp
}

// VersionQuery returns the Oracle version statement.
func (c *OracleConnection) VersionQuery() string {
	return "SELECT banner FROM v$version WHERE rownum = 1"
}

// Validate validates the connection parameters.
func (c *OracleConnection) Validate() error {
	errs := validateNetwork(c.Name, c.Host, c.Username, c.Port)
	if c.ServiceName == "" && c.SID == "" {
		errs = append(errs, &ValidationError{
			Field:   "service_name",
			Message: "either service_name or sid is required",
		})
	}
	return joinValidation(errs)
}
