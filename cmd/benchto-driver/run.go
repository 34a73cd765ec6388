package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/whhaicheng/benchto-driver/internal/app/usecase"
	"github.com/whhaicheng/benchto-driver/internal/domain/config"
	"github.com/whhaicheng/benchto-driver/internal/domain/report"
	"github.com/whhaicheng/benchto-driver/internal/infra/database"
	"github.com/whhaicheng/benchto-driver/internal/infra/database/repository"
	"github.com/whhaicheng/benchto-driver/internal/infra/datasource"
	"github.com/whhaicheng/benchto-driver/internal/infra/listener"
	"github.com/whhaicheng/benchto-driver/internal/infra/loader"
	"github.com/whhaicheng/benchto-driver/internal/infra/macro"
	"github.com/whhaicheng/benchto-driver/internal/infra/query"
	inforeport "github.com/whhaicheng/benchto-driver/internal/infra/report"
)

func runSuite(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	closeLog, err := setupLogging(cfg.Log, opts.debug, time.Now())
	if err != nil {
		return err
	}
	defer closeLog()

	slog.Info("benchto-driver started", "version", Version, "config", opts.configPath)

	ctx := cmd.Context()
	registry := datasource.NewRegistry(cfg.DataSources)
	defer func() {
		if err := registry.Close(); err != nil {
			slog.Warn("DataSource: close failed", "error", err)
		}
	}()

	listeners, closeListeners, err := buildListeners(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeListeners()

	reporter := usecase.NewBenchmarkStatusReporter(listeners...)
	macros := usecase.NewMacroService(macro.NewExecutor(cfg.Macros, registry))
	benchmarks := usecase.NewBenchmarkExecutionDriver(
		query.NewSQLExecutor(registry),
		macros,
		usecase.NewExecutorServiceFactory(),
		reporter,
	)
	driver := usecase.NewExecutionDriver(
		cfg,
		loader.NewYAMLLoader(cfg.Benchmarks, cfg.Macros, cfg.DataSources),
		macros,
		benchmarks,
		reporter,
	)

	suite, err := driver.Execute(ctx)
	if err != nil {
		return err
	}
	if !suite.Successful() {
		return fmt.Errorf("%w: sequence %s", errRunsFailed, suite.SequenceID)
	}
	return nil
}

// buildListeners creates the configured listeners in reporting order. The
// returned func releases their resources.
func buildListeners(ctx context.Context, cfg *config.Config) ([]usecase.BenchmarkExecutionListener, func(), error) {
	listeners := []usecase.BenchmarkExecutionListener{listener.NewLoggingListener(nil)}
	var closers []func() error

	closeAll := func() {
		var result *multierror.Error
		for _, c := range closers {
			result = multierror.Append(result, c())
		}
		if err := result.ErrorOrNil(); err != nil {
			slog.Warn("Listener: close failed", "error", err)
		}
	}

	if cfg.Results.Enabled() {
		db, err := database.InitializeSQLite(ctx, cfg.Results.Path, cfg.Results.MaxOpenConns)
		if err != nil {
			return nil, nil, fmt.Errorf("results store: %w", err)
		}
		closers = append(closers, db.Close)
		listeners = append(listeners, listener.NewResultsListener(repository.NewSQLiteResultRepository(db), cfg.EnvironmentName))
	}

	if cfg.Service.Enabled() {
		listeners = append(listeners, listener.NewServiceListener(cfg.Service, cfg.EnvironmentName, nil))
	}

	listeners = append(listeners, listener.NewMetricsListener(cfg.Metrics.TextfilePath))

	if cfg.Report.Enabled() {
		var generators []report.Generator
		for _, f := range cfg.Report.Formats {
			switch report.ReportFormat(f) {
			case report.FormatMarkdown:
				generators = append(generators, inforeport.NewMarkdownGenerator())
			case report.FormatJSON:
				generators = append(generators, inforeport.NewJSONGenerator())
			}
		}
		listeners = append(listeners, listener.NewReportListener(cfg.Report.OutputDir, cfg.EnvironmentName, generators...))
	}

	return listeners, closeAll, nil
}
