// Package datasource opens and caches database handles for configured data
// sources.
package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/whhaicheng/benchto-driver/internal/domain/config"
	"github.com/whhaicheng/benchto-driver/internal/domain/connection"
)

// Registry lazily opens one *sql.DB per named data source. Handles are
// shared by every macro and query that uses the data source.
type Registry struct {
	configs map[string]config.DataSourceConfig

	mu      sync.Mutex
	dbs     map[string]*sql.DB
	tunnels map[string]*connection.SSHTunnel
}

// NewRegistry creates a registry over the configured data sources.
func NewRegistry(configs map[string]config.DataSourceConfig) *Registry {
	return &Registry{
		configs: configs,
		dbs:     make(map[string]*sql.DB),
		tunnels: make(map[string]*connection.SSHTunnel),
	}
}

// Names returns the configured data source names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Connection builds the connection model of a data source, opening an SSH
// tunnel first when one is configured.
func (r *Registry) Connection(ctx context.Context, name string) (connection.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolve(ctx, name)
}

// resolve requires r.mu.
func (r *Registry) resolve(ctx context.Context, name string) (connection.Connection, error) {
	cfg, ok := r.configs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", config.ErrDataSourceNotDefined, name)
	}

	conn, err := connection.New(name, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.SSHTunnel == nil {
		return conn, nil
	}

	tunnel, ok := r.tunnels[name]
	if !ok {
		host, port := conn.Endpoint()
		tunnel, err = connection.NewSSHTunnel(ctx, *cfg.SSHTunnel, host, port)
		if err != nil {
			return nil, fmt.Errorf("ssh tunnel for %s: %w", name, err)
		}
		r.tunnels[name] = tunnel
	}
	return conn.WithEndpoint("127.0.0.1", tunnel.LocalPort()), nil
}

// DB returns the shared handle of a data source, opening it on first use.
func (r *Registry) DB(ctx context.Context, name string) (*sql.DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if db, ok := r.dbs[name]; ok {
		return db, nil
	}

	conn, err := r.resolve(ctx, name)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(conn.DriverName(), conn.GetDSNWithPassword())
	if err != nil {
		return nil, fmt.Errorf("open data source %s: %w", name, err)
	}
	if n := r.configs[name].MaxOpenConns; n > 0 {
		db.SetMaxOpenConns(n)
		db.SetMaxIdleConns(n)
	}

	slog.Info("DataSource: Opened", "data_source", name, "dsn", conn.GetDSN())
	r.dbs[name] = db
	return db, nil
}

// Test runs a connection test against a data source.
func (r *Registry) Test(ctx context.Context, name string) (*connection.TestResult, error) {
	conn, err := r.Connection(ctx, name)
	if err != nil {
		return nil, err
	}
	return connection.Test(ctx, conn), nil
}

// Close closes every opened handle and tunnel.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result *multierror.Error
	for name, db := range r.dbs {
		if err := db.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close data source %s: %w", name, err))
		}
		delete(r.dbs, name)
	}
	for name, tunnel := range r.tunnels {
		if err := tunnel.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close tunnel %s: %w", name, err))
		}
		delete(r.tunnels, name)
	}
	return result.ErrorOrNil()
}
