package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/whhaicheng/benchto-driver/internal/domain/config"
	"github.com/whhaicheng/benchto-driver/internal/infra/datasource"
	"github.com/whhaicheng/benchto-driver/internal/infra/loader"
)

var errRunsFailed = errors.New("benchmark runs failed")

// options holds the command line flags shared by every command.
type options struct {
	configPath       string
	sequenceID       string
	timeLimit        time.Duration
	benchmarksDir    string
	activeBenchmarks []string
	logDir           string
	debug            bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "benchto-driver",
		Short: "Runs SQL benchmarks and reports their results",
		Long: `benchto-driver loads benchmark definitions, runs setup and teardown macros,
executes every benchmark at its configured concurrency and reports each run
to the configured listeners.

Running without a sub-command is the same as "benchto-driver run".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(cmd, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "driver.yaml", "driver configuration file")
	flags.StringVar(&opts.sequenceID, "sequence-id", "", "execution sequence id (generated when empty)")
	flags.DurationVar(&opts.timeLimit, "time-limit", 0, "stop starting new benchmarks after this duration")
	flags.StringVar(&opts.benchmarksDir, "benchmarks", "", "directory of benchmark definitions")
	flags.StringSliceVar(&opts.activeBenchmarks, "active-benchmarks", nil, "benchmark names to run (default all)")
	flags.StringVar(&opts.logDir, "log-dir", "", "directory for dated log files")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(
		runCmd(opts),
		listCmd(opts),
		checkCmd(opts),
		versionCmd(),
	)
	return cmd
}

func runCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the configured benchmarks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(cmd, opts)
		},
	}
}

func listCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the benchmarks that would run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			benchmarks, err := loader.NewYAMLLoader(cfg.Benchmarks, cfg.Macros, cfg.DataSources).
				LoadBenchmarks(cfg.Benchmarks.Dir)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDATA SOURCE\tQUERIES\tRUNS\tPREWARM\tCONCURRENCY")
			for _, b := range benchmarks {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\n",
					b.UniqueName(), b.DataSource, len(b.Queries), b.Runs, b.PrewarmRuns, b.Concurrency)
			}
			return w.Flush()
		},
	}
}

func checkCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check [data-source...]",
		Short: "Test connectivity to data sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			registry := datasource.NewRegistry(cfg.DataSources)
			defer registry.Close()

			names := args
			if len(names) == 0 {
				names = registry.Names()
			}
			return checkDataSources(cmd.Context(), cmd.OutOrStdout(), registry, names)
		},
	}
}

func checkDataSources(ctx context.Context, out io.Writer, registry *datasource.Registry, names []string) error {
	failed := 0
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATA SOURCE\tSTATUS\tLATENCY\tVERSION")
	for _, name := range names {
		result, err := registry.Test(ctx, name)
		switch {
		case err != nil:
			failed++
			fmt.Fprintf(w, "%s\tERROR\t-\t%v\n", name, err)
		case !result.Success:
			failed++
			fmt.Fprintf(w, "%s\tFAILED\t%dms\t%s\n", name, result.LatencyMs, result.Error)
		default:
			fmt.Fprintf(w, "%s\tOK\t%dms\t%s\n", name, result.LatencyMs, result.DatabaseVersion)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d data sources failed", failed, len(names))
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "benchto-driver v%s\n", Version)
		},
	}
}

// loadConfig reads the configuration file, applies flag overrides and
// validates the result.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg, opts, cmd.Flags().Changed("time-limit"))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config, opts *options, timeLimitSet bool) {
	if opts.sequenceID != "" {
		cfg.ExecutionSequenceID = opts.sequenceID
	}
	if timeLimitSet {
		cfg.TimeLimit = config.NewDuration(opts.timeLimit)
	}
	if opts.benchmarksDir != "" {
		if cfg.Benchmarks.SQLDir == cfg.Benchmarks.Dir {
			cfg.Benchmarks.SQLDir = opts.benchmarksDir
		}
		cfg.Benchmarks.Dir = opts.benchmarksDir
	}
	if len(opts.activeBenchmarks) > 0 {
		cfg.Benchmarks.Active = opts.activeBenchmarks
	}
	if opts.logDir != "" {
		cfg.Log.Dir = opts.logDir
	}
	if opts.debug {
		cfg.Log.Level = "debug"
	}
}
