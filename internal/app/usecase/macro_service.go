package usecase

import (
	"context"
	"log/slog"
	"time"
)

// Environment keys passed to per-execution macros.
const (
	EnvBenchmark  = "BENCHMARK"
	EnvQuery      = "QUERY"
	EnvRun        = "RUN"
	EnvSequenceID = "SEQUENCE_ID"
)

// MacroService runs named macros through a MacroExecutor.
type MacroService struct {
	executor MacroExecutor
}

// NewMacroService creates a new macro service.
func NewMacroService(executor MacroExecutor) *MacroService {
	return &MacroService{executor: executor}
}

// RunMacro runs a single macro with an empty environment.
func (s *MacroService) RunMacro(ctx context.Context, name string) error {
	return s.RunMacroWithEnv(ctx, name, nil)
}

// RunMacroWithEnv runs a single macro with the given environment.
func (s *MacroService) RunMacroWithEnv(ctx context.Context, name string, env map[string]string) error {
	if env == nil {
		env = map[string]string{}
	}
	if err := ctx.Err(); err != nil {
		return &MacroExecutionError{Macro: name, Err: err}
	}

	start := time.Now()
	if err := s.executor.RunMacro(ctx, name, env); err != nil {
		slog.Error("Macro: Failed", "macro", name, "error", err)
		return &MacroExecutionError{Macro: name, Err: err}
	}
	slog.Debug("Macro: Completed", "macro", name, "duration", time.Since(start))
	return nil
}

// RunMacros runs macros in order with an empty environment, stopping at the
// first failure.
func (s *MacroService) RunMacros(ctx context.Context, names []string) error {
	return s.RunMacrosWithEnv(ctx, names, nil)
}

// RunMacrosWithEnv runs macros in order, stopping at the first failure.
// Macros that already ran are not rolled back.
func (s *MacroService) RunMacrosWithEnv(ctx context.Context, names []string, env map[string]string) error {
	for _, name := range names {
		if err := s.RunMacroWithEnv(ctx, name, env); err != nil {
			return err
		}
	}
	return nil
}
