package connection

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/whhaicheng/benchto-driver/internal/domain/config"
)

// TestNew tests building connections from data source configuration.
func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.DataSourceConfig
		wantDriver string
		wantErr    bool
	}{
		{
			name:       "mysql",
			cfg:        config.DataSourceConfig{Type: config.DataSourceMySQL, Host: "db", Port: 3306, Username: "root", Database: "tpch"},
			wantDriver: "mysql",
		},
		{
			name:       "postgresql",
			cfg:        config.DataSourceConfig{Type: config.DataSourcePostgreSQL, Host: "db", Port: 5432, Username: "pg", Database: "tpch"},
			wantDriver: "postgres",
		},
		{
			name:       "sqlserver",
			cfg:        config.DataSourceConfig{Type: config.DataSourceSQLServer, Host: "db", Port: 1433, Username: "sa", Database: "tpch"},
			wantDriver: "sqlserver",
		},
		{
			name:       "oracle",
			cfg:        config.DataSourceConfig{Type: config.DataSourceOracle, Host: "db", Port: 1521, Username: "system", ServiceName: "ORCL"},
			wantDriver: "oracle",
		},
		{
			name:       "sqlite",
			cfg:        config.DataSourceConfig{Type: config.DataSourceSQLite, Path: "/tmp/x.db"},
			wantDriver: "sqlite",
		},
		{
			name:    "unknown type",
			cfg:     config.DataSourceConfig{Type: "db2", Host: "db", Port: 1, Username: "u"},
			wantErr: true,
		},
		{
			name:    "sqlserver without database",
			cfg:     config.DataSourceConfig{Type: config.DataSourceSQLServer, Host: "db", Port: 1433, Username: "sa"},
			wantErr: true,
		},
		{
			name:    "oracle without service",
			cfg:     config.DataSourceConfig{Type: config.DataSourceOracle, Host: "db", Port: 1521, Username: "system"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, err := New("ds", tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("New() expected error, got nil")
				}
				if !errors.Is(err, config.ErrInvalidConfiguration) {
					t.Errorf("New() error = %v, want ErrInvalidConfiguration", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() unexpected error: %v", err)
			}
			if conn.DriverName() != tt.wantDriver {
				t.Errorf("DriverName() = %s, want %s", conn.DriverName(), tt.wantDriver)
			}
			if conn.GetType() != tt.cfg.Type {
				t.Errorf("GetType() = %s, want %s", conn.GetType(), tt.cfg.Type)
			}
			if conn.GetName() != "ds" {
				t.Errorf("GetName() = %s, want ds", conn.GetName())
			}
		})
	}
}

func TestNew_PasswordFromEnv(t *testing.T) {
	t.Setenv("BENCH_DB_PASSWORD", "s3cret")

	conn, err := New("ds", config.DataSourceConfig{
		Type:        config.DataSourceMySQL,
		Host:        "db",
		Port:        3306,
		Username:    "root",
		PasswordEnv: "BENCH_DB_PASSWORD",
	})
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	if !strings.Contains(conn.GetDSNWithPassword(), "root:s3cret@") {
		t.Errorf("GetDSNWithPassword() = %s, want password from env", conn.GetDSNWithPassword())
	}
	if strings.Contains(conn.GetDSN(), "s3cret") || strings.Contains(conn.Redact(), "s3cret") {
		t.Error("password leaked into display strings")
	}
}

func TestWithEndpoint(t *testing.T) {
	conn := &PostgreSQLConnection{
		BaseConnection: BaseConnection{Name: "pg"},
		Host:           "10.0.0.5",
		Port:           5432,
		Username:       "pg",
	}

	tunneled := conn.WithEndpoint("127.0.0.1", 40001)

	host, port := tunneled.Endpoint()
	if host != "127.0.0.1" || port != 40001 {
		t.Errorf("Endpoint() = %s:%d, want 127.0.0.1:40001", host, port)
	}
	if conn.Host != "10.0.0.5" || conn.Port != 5432 {
		t.Error("WithEndpoint() modified the original connection")
	}
}

func TestMySQLConnection_GetDSNWithPassword(t *testing.T) {
	tests := []struct {
		sslMode string
		want    string
	}{
		{"", "root:pw@tcp(db:3306)/tpch"},
		{"disabled", "root:pw@tcp(db:3306)/tpch"},
		{"required", "root:pw@tcp(db:3306)/tpch?tls=true"},
		{"preferred", "root:pw@tcp(db:3306)/tpch?tls=preferred"},
	}
	for _, tt := range tests {
		conn := &MySQLConnection{Host: "db", Port: 3306, Database: "tpch", Username: "root", Password: "pw", SSLMode: tt.sslMode}
		if got := conn.GetDSNWithPassword(); got != tt.want {
			t.Errorf("GetDSNWithPassword(%q) = %s, want %s", tt.sslMode, got, tt.want)
		}
	}
}

func TestPostgreSQLConnection_Validate(t *testing.T) {
	conn := &PostgreSQLConnection{
		BaseConnection: BaseConnection{Name: "pg"},
		Host:           "db",
		Port:           5432,
		Username:       "pg",
		SSLMode:        "sometimes",
	}
	err := conn.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for invalid ssl_mode")
	}
	if !strings.Contains(err.Error(), "ssl_mode must be one of") {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestOracleConnection_GetDSNWithPassword(t *testing.T) {
	conn := &OracleConnection{Host: "db", Port: 1521, ServiceName: "ORCL", Username: "system", Password: "pw"}

	dsn := conn.GetDSNWithPassword()
	if !strings.HasPrefix(dsn, "oracle://system:pw@db:1521/ORCL") {
		t.Errorf("GetDSNWithPassword() = %s", dsn)
	}
}

func TestSQLServerConnection_GetDSNWithPassword(t *testing.T) {
	conn := &SQLServerConnection{Host: "db", Port: 1433, Database: "tpch", Username: "sa", Password: "p@ss", TrustServerCertificate: true}

	dsn := conn.GetDSNWithPassword()
	if !strings.HasPrefix(dsn, "sqlserver://sa:p%40ss@db:1433?") {
		t.Errorf("GetDSNWithPassword() = %s", dsn)
	}
	if !strings.Contains(dsn, "database=tpch") || !strings.Contains(dsn, "trustservercertificate=true") {
		t.Errorf("GetDSNWithPassword() = %s, missing query parameters", dsn)
	}
}

// TestTest_SQLite tests a live connection test against a local SQLite file.
func TestTest_SQLite(t *testing.T) {
	conn, err := New("local", config.DataSourceConfig{
		Type: config.DataSourceSQLite,
		Path: filepath.Join(t.TempDir(), "bench.db"),
	})
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}

	result := Test(context.Background(), conn)
	if !result.Success {
		t.Fatalf("Test() failed: %s", result.Error)
	}
	if result.DatabaseVersion == "" || result.DatabaseVersion == "unknown" {
		t.Errorf("DatabaseVersion = %q, want sqlite version", result.DatabaseVersion)
	}
}

func TestNewWinRMClient_Validation(t *testing.T) {
	if _, err := NewWinRMClient(config.WinRMConfig{}); !errors.Is(err, config.ErrInvalidConfiguration) {
		t.Errorf("NewWinRMClient() error = %v, want ErrInvalidConfiguration", err)
	}
	if _, err := NewWinRMClient(config.WinRMConfig{Host: "win", Port: 70000}); err == nil {
		t.Error("NewWinRMClient() expected error for out of range port")
	}
	client, err := NewWinRMClient(config.WinRMConfig{Host: "win", UseHTTPS: true, Username: "admin"})
	if err != nil {
		t.Fatalf("NewWinRMClient() unexpected error: %v", err)
	}
	if client.host != "win" {
		t.Errorf("host = %s, want win", client.host)
	}
}

func TestNewSSHTunnel_Validation(t *testing.T) {
	ctx := context.Background()
	if _, err := NewSSHTunnel(ctx, config.SSHTunnelConfig{Port: 22, Username: "u"}, "db", 5432); err == nil {
		t.Error("NewSSHTunnel() expected error for missing host")
	}
	if _, err := NewSSHTunnel(ctx, config.SSHTunnelConfig{Host: "bastion", Port: 22}, "db", 5432); err == nil {
		t.Error("NewSSHTunnel() expected error for missing username")
	}
	if _, err := buildSSHConfig(config.SSHTunnelConfig{Host: "bastion", Port: 22, Username: "u"}); err == nil {
		t.Error("buildSSHConfig() expected error without auth methods")
	}
}
