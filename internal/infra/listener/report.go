package listener

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/whhaicheng/benchto-driver/internal/app/usecase"
	"github.com/whhaicheng/benchto-driver/internal/domain/execution"
	"github.com/whhaicheng/benchto-driver/internal/domain/report"
)

// ReportListener writes suite reports in each configured format when the
// suite finishes.
type ReportListener struct {
	usecase.NopListener

	outputDir   string
	environment string
	generators  []report.Generator
}

// NewReportListener creates a report listener writing to outputDir.
func NewReportListener(outputDir, environment string, generators ...report.Generator) *ReportListener {
	return &ReportListener{
		outputDir:   outputDir,
		environment: environment,
		generators:  generators,
	}
}

// Name implements usecase.BenchmarkExecutionListener.
func (l *ReportListener) Name() string { return "report" }

// SuiteFinished generates and saves every report.
func (l *ReportListener) SuiteFinished(_ context.Context, result *execution.SuiteResult) error {
	if len(l.generators) == 0 {
		return nil
	}
	if err := os.MkdirAll(l.outputDir, 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	data := report.NewGenerateContext(l.environment, result)
	for _, gen := range l.generators {
		r, err := gen.Generate(data)
		if err != nil {
			return fmt.Errorf("generate %s report: %w", gen.Format(), err)
		}

		r.FilePath = filepath.Join(l.outputDir, r.FileName())
		if err := os.WriteFile(r.FilePath, r.Content, 0o644); err != nil {
			return fmt.Errorf("write %s report: %w", gen.Format(), err)
		}
		slog.Info("Report: saved", "format", r.Format, "path", r.FilePath)
	}
	return nil
}
