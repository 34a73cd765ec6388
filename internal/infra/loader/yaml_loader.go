// Package loader reads benchmark definitions from YAML files.
package loader

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/whhaicheng/benchto-driver/internal/app/usecase"
	"github.com/whhaicheng/benchto-driver/internal/domain/benchmark"
	"github.com/whhaicheng/benchto-driver/internal/domain/config"
)

// definition is the on-disk form of a benchmark. The file base name is the
// benchmark name.
type definition struct {
	DataSource  string              `yaml:"datasource"`
	QueryNames  []string            `yaml:"query-names"`
	Runs        int                 `yaml:"runs"`
	PrewarmRuns int                 `yaml:"prewarm-runs"`
	Concurrency int                 `yaml:"concurrency"`
	Variables   []map[string]string `yaml:"variables"`

	BeforeBenchmarkMacros []string `yaml:"before-benchmark-macros"`
	AfterBenchmarkMacros  []string `yaml:"after-benchmark-macros"`
	BeforeExecutionMacros []string `yaml:"before-execution-macros"`
	AfterExecutionMacros  []string `yaml:"after-execution-macros"`
}

// YAMLLoader implements usecase.BenchmarkLoader.
type YAMLLoader struct {
	cfg         config.BenchmarksConfig
	macros      map[string]config.MacroConfig
	dataSources map[string]config.DataSourceConfig
}

// NewYAMLLoader creates a loader. Macro and data source references are
// checked against the given definitions; nil maps skip the check.
func NewYAMLLoader(cfg config.BenchmarksConfig, macros map[string]config.MacroConfig, dataSources map[string]config.DataSourceConfig) *YAMLLoader {
	return &YAMLLoader{cfg: cfg, macros: macros, dataSources: dataSources}
}

// LoadBenchmarks loads every *.yaml and *.yml file in sourcePath in file name
// order. Each entry of a definition's variables produces one benchmark.
func (l *YAMLLoader) LoadBenchmarks(sourcePath string) ([]*benchmark.Benchmark, error) {
	files, err := definitionFiles(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", usecase.ErrLoad, err)
	}

	sqlDir := l.cfg.SQLDir
	if sqlDir == "" {
		sqlDir = sourcePath
	}

	var benchmarks []*benchmark.Benchmark
	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		if !l.isActive(name) {
			continue
		}

		loaded, err := l.loadFile(name, file, sqlDir)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", usecase.ErrLoad, file, err)
		}
		benchmarks = append(benchmarks, loaded...)
	}

	slog.Info("Loader: Benchmarks loaded", "dir", sourcePath, "files", len(files), "benchmarks", len(benchmarks))
	return benchmarks, nil
}

func (l *YAMLLoader) loadFile(name, file, sqlDir string) ([]*benchmark.Benchmark, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var def definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := l.checkReferences(def); err != nil {
		return nil, err
	}

	variables := def.Variables
	if len(variables) == 0 {
		variables = []map[string]string{nil}
	}

	var benchmarks []*benchmark.Benchmark
	for _, vars := range variables {
		if !l.matchesActiveVariables(vars) {
			continue
		}

		queries := make([]benchmark.Query, 0, len(def.QueryNames))
		for _, queryName := range def.QueryNames {
			sqlText, err := loadSQL(sqlDir, queryName, vars)
			if err != nil {
				return nil, err
			}
			queries = append(queries, benchmark.Query{Name: queryName, SQL: sqlText})
		}

		b := &benchmark.Benchmark{
			Name:                  name,
			DataSource:            def.DataSource,
			Queries:               queries,
			Runs:                  def.Runs,
			PrewarmRuns:           def.PrewarmRuns,
			Concurrency:           def.Concurrency,
			Variables:             vars,
			BeforeBenchmarkMacros: def.BeforeBenchmarkMacros,
			AfterBenchmarkMacros:  def.AfterBenchmarkMacros,
			BeforeExecutionMacros: def.BeforeExecutionMacros,
			AfterExecutionMacros:  def.AfterExecutionMacros,
		}
		b.ApplyDefaults()
		if err := b.Validate(); err != nil {
			return nil, err
		}
		benchmarks = append(benchmarks, b)
	}
	return benchmarks, nil
}

func (l *YAMLLoader) checkReferences(def definition) error {
	if def.DataSource == "" {
		return fmt.Errorf("datasource is required")
	}
	if l.dataSources != nil {
		if _, ok := l.dataSources[def.DataSource]; !ok {
			return fmt.Errorf("%w: %s", config.ErrDataSourceNotDefined, def.DataSource)
		}
	}
	if l.macros == nil {
		return nil
	}
	for _, group := range [][]string{
		def.BeforeBenchmarkMacros,
		def.AfterBenchmarkMacros,
		def.BeforeExecutionMacros,
		def.AfterExecutionMacros,
	} {
		for _, macro := range group {
			if _, ok := l.macros[macro]; !ok {
				return fmt.Errorf("%w: %s", config.ErrMacroNotDefined, macro)
			}
		}
	}
	return nil
}

func (l *YAMLLoader) isActive(name string) bool {
	if len(l.cfg.Active) == 0 {
		return true
	}
	for _, active := range l.cfg.Active {
		if active == name {
			return true
		}
	}
	return false
}

func (l *YAMLLoader) matchesActiveVariables(vars map[string]string) bool {
	for k, v := range l.cfg.ActiveVariables {
		if vars[k] != v {
			return false
		}
	}
	return true
}

func definitionFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read benchmarks dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// loadSQL reads <sqlDir>/<name>.sql and renders it as a template over the
// benchmark variables.
func loadSQL(sqlDir, name string, vars map[string]string) (string, error) {
	path := filepath.Join(sqlDir, name+".sql")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read query %s: %w", name, err)
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(data))
	if err != nil {
		return "", fmt.Errorf("parse query %s: %w", name, err)
	}
	if vars == nil {
		vars = map[string]string{}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render query %s: %w", name, err)
	}
	return buf.String(), nil
}
