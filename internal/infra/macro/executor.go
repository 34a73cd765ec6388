// Package macro runs the macros defined in the driver configuration.
package macro

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"
	"text/template"

	"github.com/whhaicheng/benchto-driver/internal/domain/benchmark"
	"github.com/whhaicheng/benchto-driver/internal/domain/config"
	"github.com/whhaicheng/benchto-driver/internal/domain/connection"
)

var (
	// ErrMacroNotFound is returned for a macro name missing from the configuration.
	ErrMacroNotFound = errors.New("macro not found")
)

// DBProvider returns the shared handle of a named data source.
type DBProvider interface {
	DB(ctx context.Context, name string) (*sql.DB, error)
}

// RemoteRunner runs a command on a remote host.
type RemoteRunner interface {
	Run(ctx context.Context, command string) (string, error)
}

// Executor implements usecase.MacroExecutor over configured sql, command
// and winrm macros.
type Executor struct {
	macros    map[string]config.MacroConfig
	dbs       DBProvider
	newRemote func(config.WinRMConfig) (RemoteRunner, error)
}

// NewExecutor creates a macro executor.
func NewExecutor(macros map[string]config.MacroConfig, dbs DBProvider) *Executor {
	return &Executor{
		macros: macros,
		dbs:    dbs,
		newRemote: func(cfg config.WinRMConfig) (RemoteRunner, error) {
			return connection.NewWinRMClient(cfg)
		},
	}
}

// RunMacro runs the named macro with env.
func (e *Executor) RunMacro(ctx context.Context, name string, env map[string]string) error {
	macro, ok := e.macros[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMacroNotFound, name)
	}

	slog.Debug("Macro: Running", "macro", name, "type", macro.Type, "env_keys", envKeys(env))

	switch macro.Type {
	case config.MacroTypeSQL:
		return e.runSQL(ctx, macro, env)
	case config.MacroTypeCommand:
		return e.runCommand(ctx, macro, env)
	case config.MacroTypeWinRM:
		return e.runWinRM(ctx, macro, env)
	default:
		return fmt.Errorf("%w: unknown macro type: %s", config.ErrInvalidConfiguration, macro.Type)
	}
}

// runSQL executes every statement of the macro in order. Statements are
// templates over the environment.
func (e *Executor) runSQL(ctx context.Context, macro config.MacroConfig, env map[string]string) error {
	db, err := e.dbs.DB(ctx, macro.DataSource)
	if err != nil {
		return err
	}

	rendered, err := render(macro.SQL, env)
	if err != nil {
		return err
	}

	for _, stmt := range benchmark.SplitStatements(rendered) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute %q: %w", stmt, err)
		}
	}
	return nil
}

// runCommand runs the command with sh -c, appending env to the process
// environment.
func (e *Executor) runCommand(ctx context.Context, macro config.MacroConfig, env map[string]string) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", macro.Command)
	cmd.Env = append(os.Environ(), envList(env)...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("command %q failed: %w: %s", macro.Command, err, strings.TrimSpace(string(output)))
	}
	if len(output) > 0 {
		slog.Debug("Macro: Command output", "command", macro.Command, "output", strings.TrimSpace(string(output)))
	}
	return nil
}

// runWinRM runs the command on the remote host with env exported by set.
func (e *Executor) runWinRM(ctx context.Context, macro config.MacroConfig, env map[string]string) error {
	remote, err := e.newRemote(*macro.WinRM)
	if err != nil {
		return err
	}

	parts := make([]string, 0, len(env)+1)
	for _, kv := range envList(env) {
		parts = append(parts, fmt.Sprintf("set \"%s\"", kv))
	}
	parts = append(parts, macro.Command)

	output, err := remote.Run(ctx, strings.Join(parts, " && "))
	if err != nil {
		return err
	}
	if output != "" {
		slog.Debug("Macro: WinRM output", "host", macro.WinRM.Host, "output", strings.TrimSpace(output))
	}
	return nil
}

// envKeys returns the sorted variable names of env, without values.
func envKeys(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func envList(env map[string]string) []string {
	list := make([]string, 0, len(env))
	for k, v := range env {
		list = append(list, k+"="+v)
	}
	sort.Strings(list)
	return list
}

func render(text string, env map[string]string) (string, error) {
	tmpl, err := template.New("macro").Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse macro template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, env); err != nil {
		return "", fmt.Errorf("render macro template: %w", err)
	}
	return buf.String(), nil
}
