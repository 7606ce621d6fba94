package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/runner"
	"mercator-hq/ganymede/pkg/telemetry/logging"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
	"mercator-hq/ganymede/pkg/trace"
	"mercator-hq/ganymede/pkg/trace/store"
)

var convertFlags struct {
	rules          string
	input          string
	output         string
	batch          bool
	watch          bool
	debug          bool
	strict         bool
	noProgress     bool
	sequenceStarts []string
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert YAML documents with a GML rule file",
	Long: `Convert id-keyed YAML documents by applying a GML rule file.

Single files are converted in place next to the input (with the output
prefix) unless --output names a file. Directory inputs run in batch
mode: every .yml and .yaml file under the input is converted in
lexicographic order, mirroring the tree under the output directory, and
sequence counters run across the whole batch.

Examples:
  # Convert one file, writing converted_items.yml next to it
  ganymede convert --rules rules.yml --input items.yml

  # Convert into an explicit output file
  ganymede convert --rules rules.yml --input items.yml --output v2/items.yml

  # Batch-convert a directory tree
  ganymede convert --rules rules.yml --input data/ --output converted/

  # Override a sequence start before the first draw
  ganymede convert --rules rules.yml --input items.yml --sequence-start model:9000

  # Stay up and reconvert whenever rules or inputs change
  ganymede convert --rules rules.yml --input items.yml --watch`,
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&convertFlags.rules, "rules", "r", "", "GML rule file (overrides config)")
	convertCmd.Flags().StringVarP(&convertFlags.input, "input", "i", "", "input file or directory (overrides config)")
	convertCmd.Flags().StringVarP(&convertFlags.output, "output", "o", "", "output file or directory (default: derived from input)")
	convertCmd.Flags().BoolVar(&convertFlags.batch, "batch", false, "force batch-mode output naming for single files")
	convertCmd.Flags().BoolVarP(&convertFlags.watch, "watch", "w", false, "reconvert whenever rules or inputs change")
	convertCmd.Flags().BoolVar(&convertFlags.debug, "debug", false, "log every trace event")
	convertCmd.Flags().BoolVar(&convertFlags.strict, "strict", false, "treat rule file warnings as errors")
	convertCmd.Flags().BoolVar(&convertFlags.noProgress, "no-progress", false, "suppress the progress bar")
	convertCmd.Flags().StringArrayVar(&convertFlags.sequenceStarts, "sequence-start", nil, "override a sequence start as KEY:VALUE (repeatable)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}

	// Apply flag overrides
	if convertFlags.rules != "" {
		cfg.Conversion.RulesFile = convertFlags.rules
	}
	if convertFlags.input != "" {
		cfg.Conversion.InputPath = convertFlags.input
	}
	if convertFlags.output != "" {
		cfg.Conversion.OutputPath = convertFlags.output
	}
	if convertFlags.batch {
		cfg.Conversion.Batch = true
	}
	if convertFlags.strict {
		cfg.Conversion.StrictValidation = true
	}
	if convertFlags.watch {
		cfg.Watch.Enabled = true
	}
	if verbose || convertFlags.debug {
		cfg.Telemetry.Logging.Level = "debug"
	}

	overrides, err := parseSequenceStarts(convertFlags.sequenceStarts)
	if err != nil {
		return cli.NewConfigError("conversion.sequence_overrides", err.Error())
	}
	for key, start := range overrides {
		if cfg.Conversion.SequenceOverrides == nil {
			cfg.Conversion.SequenceOverrides = make(map[string]int64)
		}
		cfg.Conversion.SequenceOverrides[key] = start
	}

	if cfg.Conversion.InputPath == "" {
		return &cli.ConfigError{
			Field:   "conversion.input_path",
			Message: "nothing to convert",
			Hint:    "pass --input or set input_path in the config file",
		}
	}

	// Initialize logging based on config
	logger, err := logging.New(logging.Config{
		Level:  cfg.Telemetry.Logging.Level,
		Format: cfg.Telemetry.Logging.Format,
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)

	opts := []runner.Option{runner.WithLogger(logger)}

	// Open the trace store (if enabled)
	var st *store.Store
	if cfg.Trace.Enabled {
		st, err = store.Open(&store.Config{
			Path:        cfg.Trace.SQLite.Path,
			BusyTimeout: cfg.Trace.SQLite.BusyTimeout,
			WALMode:     true,
		})
		if err != nil {
			return cli.NewCommandError("convert", fmt.Errorf("failed to open trace store: %w", err))
		}
		defer st.Close()
		opts = append(opts, runner.WithStore(st))
		fmt.Println("✓ Trace store opened")

		pruner := store.NewPruner(st, &store.Retention{
			Days:       cfg.Trace.Retention.Days,
			MaxRecords: cfg.Trace.Retention.MaxRecords,
			Schedule:   cfg.Trace.Retention.Schedule,
		})
		if cfg.Watch.Enabled && cfg.Trace.Retention.Schedule != "" {
			// Long-lived process: prune on the cron schedule.
			if err := pruner.Start(context.Background()); err != nil {
				slog.Warn("failed to start retention scheduler", "error", err)
			} else {
				defer pruner.Stop()
				if next := pruner.NextPruning(); next != nil {
					slog.Debug("trace retention scheduler started", "next_pruning", next)
				}
			}
		} else {
			// One-shot run: a single sweep on startup keeps the store bounded.
			if deleted, err := pruner.Prune(context.Background()); err != nil {
				slog.Warn("trace pruning failed", "error", err)
			} else if deleted > 0 {
				slog.Debug("pruned old trace events", "deleted", deleted)
			}
		}
	}

	if convertFlags.debug {
		opts = append(opts, runner.WithTraceSink(trace.NewLogSink(logger)))
	}

	if cfg.Telemetry.Metrics.Enabled {
		collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
		opts = append(opts, runner.WithMetrics(collector))
		if cfg.Watch.Enabled {
			go serveMetrics(&cfg.Telemetry.Metrics, collector)
		}
	}

	// Progress bar for one-shot runs on a terminal
	var progress cli.ProgressReporter
	if !convertFlags.noProgress && !cfg.Watch.Enabled {
		progress = cli.NewProgressReporter(nil)
		opts = append(opts, runner.WithFileHook(func(done, total int, path string) {
			if done == 1 {
				progress.Start(int64(total))
			}
			progress.Update(int64(done))
		}))
	}

	r := runner.New(&cfg.Conversion, opts...)

	if cfg.Watch.Enabled {
		return watchConvert(r, cfg)
	}

	sum, err := r.Run(context.Background())
	if err != nil {
		return cli.NewCommandError("convert", err)
	}
	if progress != nil {
		progress.Finish()
	}

	printSummary(sum)

	if sum.FilesFailed > 0 {
		return cli.NewCommandError("convert", fmt.Errorf("%d of %d files failed", sum.FilesFailed, sum.Files))
	}
	return nil
}

// watchConvert runs the initial conversion and then stays up, printing
// one line per triggered run until interrupted.
func watchConvert(r *runner.Runner, cfg *config.Config) error {
	ctx := cli.SetupSignalHandler()

	fmt.Printf("✓ Watching %s and %s\n", cfg.Conversion.RulesFile, cfg.Conversion.InputPath)
	fmt.Println("\nPress Ctrl+C to stop")

	err := r.Watch(ctx, cfg.Watch.Debounce, func(sum *runner.Summary, err error) {
		stamp := time.Now().Format("15:04:05")
		if err != nil {
			fmt.Printf("✗ [%s] conversion failed: %v\n", stamp, err)
			return
		}
		fmt.Printf("✓ [%s] converted %d/%d files (%d actions applied)\n",
			stamp, sum.FilesConverted, sum.Files, sum.Stats.ActionsApplied)
	})
	if err != nil {
		return cli.NewCommandError("convert", err)
	}

	fmt.Println("✓ Watch stopped")
	return nil
}

func printSummary(sum *runner.Summary) {
	fmt.Printf("✓ Converted %d of %d files in %s\n",
		sum.FilesConverted, sum.Files, sum.Duration.Round(time.Millisecond))
	fmt.Printf("  %d entries, %d rules executed, %d actions applied\n",
		sum.Stats.Entries, sum.Stats.RulesExecuted, sum.Stats.ActionsApplied)
	for _, out := range sum.Outputs {
		fmt.Printf("  wrote %s\n", out)
	}
	if sum.Stats.Diagnostics > 0 {
		fmt.Printf("⚠  %d diagnostic(s) recorded, re-run with --debug for details\n", sum.Stats.Diagnostics)
	}
}

// loadRunConfig loads the config file named by --config, or the
// defaults when no file is given. Environment variables override both.
func loadRunConfig() (*config.Config, error) {
	if cfgFile == "" {
		cfg, err := config.DefaultWithEnvOverrides()
		if err != nil {
			return nil, cli.NewConfigError("", err.Error())
		}
		return cfg, nil
	}

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg, nil
}

// parseSequenceStarts parses repeated --sequence-start KEY:VALUE flags.
// The value is split off at the last colon, so keys may themselves
// contain colons.
func parseSequenceStarts(specs []string) (map[string]int64, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	out := make(map[string]int64, len(specs))
	for _, spec := range specs {
		idx := strings.LastIndex(spec, ":")
		if idx <= 0 || idx == len(spec)-1 {
			return nil, fmt.Errorf("invalid sequence start %q (expected KEY:VALUE)", spec)
		}
		start, err := strconv.ParseInt(spec[idx+1:], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid sequence start %q: %q is not an integer", spec, spec[idx+1:])
		}
		out[spec[:idx]] = start
	}
	return out, nil
}

func serveMetrics(cfg *config.MetricsConfig, collector *metrics.Collector) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, collector.Handler())

	slog.Info("metrics listener started",
		"address", cfg.ListenAddress,
		"path", cfg.Path,
	)
	if err := http.ListenAndServe(cfg.ListenAddress, mux); err != nil {
		slog.Error("metrics listener failed", "error", err)
	}
}
