package config

import (
	"fmt"
	"os"
)

// DataSourceType represents the kind of database a data source points at.
type DataSourceType string

const (
	DataSourceMySQL      DataSourceType = "mysql"
	DataSourcePostgreSQL DataSourceType = "postgresql"
	DataSourceSQLServer  DataSourceType = "sqlserver"
	DataSourceOracle     DataSourceType = "oracle"
	DataSourceSQLite     DataSourceType = "sqlite"
)

// defaultPorts maps network data source types to their standard port.
var defaultPorts = map[DataSourceType]int{
	DataSourceMySQL:      3306,
	DataSourcePostgreSQL: 5432,
	DataSourceSQLServer:  1433,
	DataSourceOracle:     1521,
}

// SSHTunnelConfig routes a data source through an SSH server.
type SSHTunnelConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	PasswordEnv string `yaml:"password-env"`
	KeyPath     string `yaml:"key-path"`
}

// DataSourceConfig represents one named database the driver talks to.
type DataSourceConfig struct {
	Type     DataSourceType `yaml:"type"`
	Host     string         `yaml:"host"`
	Port     int            `yaml:"port"`
	Database string         `yaml:"database"`
	Username string         `yaml:"username"`
	Password string         `yaml:"password"`

	// PasswordEnv names an environment variable holding the password.
	PasswordEnv string `yaml:"password-env"`

	SSLMode                string `yaml:"ssl-mode"`
	ServiceName            string `yaml:"service-name"` // Oracle
	SID                    string `yaml:"sid"`          // Oracle
	TrustServerCertificate bool   `yaml:"trust-server-certificate"`

	// Path is the database file of sqlite data sources.
	Path string `yaml:"path"`

	// MaxOpenConns caps the pool. Defaults to unlimited.
	MaxOpenConns int `yaml:"max-open-conns"`

	SSHTunnel *SSHTunnelConfig `yaml:"ssh-tunnel"`
}

// Validate validates the data source configuration.
func (c *DataSourceConfig) Validate() error {
	switch c.Type {
	case DataSourceSQLite:
		if c.Path == "" {
			return fmt.Errorf("%w: sqlite data source requires path", ErrInvalidConfiguration)
		}
		return nil
	case DataSourceMySQL, DataSourcePostgreSQL, DataSourceSQLServer, DataSourceOracle:
	default:
		return fmt.Errorf("%w: unknown data source type: %s", ErrInvalidConfiguration, c.Type)
	}

	if c.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidConfiguration)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port must be between 1 and 65535", ErrInvalidConfiguration)
	}
	if c.Username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidConfiguration)
	}
	if c.MaxOpenConns < 0 {
		return fmt.Errorf("%w: max-open-conns cannot be negative", ErrInvalidConfiguration)
	}
	if c.SSHTunnel != nil && (c.SSHTunnel.Host == "" || c.SSHTunnel.Username == "") {
		return fmt.Errorf("%w: ssh-tunnel requires host and username", ErrInvalidConfiguration)
	}
	return nil
}

// ApplyDefaults fills the standard port of network data sources.
func (c *DataSourceConfig) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPorts[c.Type]
	}
	if c.SSHTunnel != nil && c.SSHTunnel.Port == 0 {
		c.SSHTunnel.Port = 22
	}
}

// ResolvePassword returns the literal password or the value of PasswordEnv.
func (c *DataSourceConfig) ResolvePassword() string {
	return resolveSecret(c.Password, c.PasswordEnv)
}

// ResolvePassword returns the literal password or the value of PasswordEnv.
func (c *SSHTunnelConfig) ResolvePassword() string {
	return resolveSecret(c.Password, c.PasswordEnv)
}

// ResolvePassword returns the literal password or the value of PasswordEnv.
func (c *WinRMConfig) ResolvePassword() string {
	return resolveSecret(c.Password, c.PasswordEnv)
}

func resolveSecret(literal, env string) string {
	if literal != "" || env == "" {
		return literal
	}
	return os.Getenv(env)
}
