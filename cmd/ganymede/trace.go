package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/trace/store"
)

var traceFlags struct {
	dbPath    string
	run       string
	document  string
	ruleset   string
	entry     string
	rule      string
	kind      string
	timeRange string
	limit     int
	offset    int
	format    string
	output    string
}

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Inspect recorded trace events",
	Long: `Query and export trace events recorded by past conversion runs.

Every run with tracing enabled records one event per document, ruleset,
entry, rule decision and action outcome. The trace command reads those
records back for auditing and debugging.

Subcommands:
  runs    - List recorded conversion runs
  list    - List trace events with filters
  export  - Export trace events as JSON or CSV

Examples:
  # List recent runs
  ganymede trace runs

  # Show every decision for one entry
  ganymede trace list --run <run-id> --entry iron_sword

  # Export a run as CSV
  ganymede trace export --run <run-id> --format csv --output events.csv`,
}

var traceRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded conversion runs",
	Long:  `List recorded conversion runs, newest first.`,
	RunE:  listTraceRuns,
}

var traceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trace events",
	Long: `List trace events with various filters.

Time Range Format:
  RFC3339 interval format: "start/end"
  Example: "2026-08-24T00:00:00Z/2026-08-25T00:00:00Z"

Examples:
  # Events from one run
  ganymede trace list --run <run-id>

  # Rule decisions for one entry
  ganymede trace list --entry iron_sword --kind rule_decision

  # Events in a time window
  ganymede trace list --time-range "2026-08-24T00:00:00Z/2026-08-25T00:00:00Z"`,
	RunE: listTraceEvents,
}

var traceExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export trace events",
	Long: `Export trace events as JSON or CSV for external analysis.

Examples:
  # Export one run as pretty JSON
  ganymede trace export --run <run-id> --output events.json

  # Export as CSV
  ganymede trace export --run <run-id> --format csv --output events.csv`,
	RunE: exportTraceEvents,
}

func init() {
	rootCmd.AddCommand(traceCmd)
	traceCmd.AddCommand(traceRunsCmd, traceListCmd, traceExportCmd)

	traceCmd.PersistentFlags().StringVar(&traceFlags.dbPath, "db", "", "trace database path (uses config if not specified)")

	// limit and format are shared variables, so every registration must
	// carry the same default: pflag writes the default into the variable
	// at registration time and the last one would win.
	for _, cmd := range []*cobra.Command{traceListCmd, traceExportCmd} {
		cmd.Flags().StringVar(&traceFlags.run, "run", "", "filter by run id")
		cmd.Flags().StringVar(&traceFlags.document, "document", "", "filter by document path")
		cmd.Flags().StringVar(&traceFlags.ruleset, "ruleset", "", "filter by ruleset name")
		cmd.Flags().StringVar(&traceFlags.entry, "entry", "", "filter by entry id")
		cmd.Flags().StringVar(&traceFlags.rule, "rule", "", "filter by rule name")
		cmd.Flags().StringVar(&traceFlags.kind, "kind", "", "filter by event kind (e.g. rule_decision, action_outcome)")
		cmd.Flags().StringVar(&traceFlags.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
		cmd.Flags().IntVar(&traceFlags.limit, "limit", 0, "max results (0 for all)")
		cmd.Flags().IntVar(&traceFlags.offset, "offset", 0, "pagination offset")
		cmd.Flags().StringVarP(&traceFlags.output, "output", "o", "", "output file (default: stdout)")
	}

	traceListCmd.Flags().StringVar(&traceFlags.format, "format", "", "output format: text, json (default: text)")
	traceExportCmd.Flags().StringVar(&traceFlags.format, "format", "", "export format: json, csv (default: json)")

	traceRunsCmd.Flags().IntVar(&traceFlags.limit, "limit", 0, "max results (0 for all)")
	traceRunsCmd.Flags().StringVar(&traceFlags.format, "format", "", "output format: text, json (default: text)")
}

func listTraceRuns(cmd *cobra.Command, args []string) error {
	st, err := openTraceStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.Runs(context.Background(), traceFlags.limit)
	if err != nil {
		return cli.NewCommandError("trace", fmt.Errorf("failed to list runs: %w", err))
	}

	if traceFlags.format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]any{
			"total_runs": len(runs),
			"runs":       runs,
		})
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	for i, run := range runs {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("Run ID: %s\n", run.ID)
		fmt.Printf("Started: %s\n", run.StartedAt.Format(time.RFC3339))
		if run.FinishedAt != nil {
			fmt.Printf("Finished: %s\n", run.FinishedAt.Format(time.RFC3339))
		} else {
			fmt.Println("Finished: (incomplete)")
		}
		if run.RulesFile != "" {
			fmt.Printf("Rules File: %s\n", run.RulesFile)
		}
		fmt.Printf("Documents: %d, Entries: %d\n", run.Documents, run.Entries)
		fmt.Printf("Rules: %d executed, %d skipped\n", run.RulesExecuted, run.RulesSkipped)
		fmt.Printf("Actions Applied: %d\n", run.ActionsApplied)
		if run.Diagnostics > 0 {
			fmt.Printf("Diagnostics: %d\n", run.Diagnostics)
		}
	}

	return nil
}

func listTraceEvents(cmd *cobra.Command, args []string) error {
	st, err := openTraceStore()
	if err != nil {
		return err
	}
	defer st.Close()

	query, err := buildTraceQuery()
	if err != nil {
		return err
	}

	events, err := st.Events(context.Background(), query)
	if err != nil {
		return cli.NewCommandError("trace", fmt.Errorf("query failed: %w", err))
	}

	output, err := openOutputFile(traceFlags.output)
	if err != nil {
		return err
	}
	if output != os.Stdout {
		defer output.Close()
	}

	if traceFlags.format == "json" {
		encoder := json.NewEncoder(output)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]any{
			"total_events": len(events),
			"events":       events,
		})
	}

	return outputTraceText(output, events, query)
}

func exportTraceEvents(cmd *cobra.Command, args []string) error {
	st, err := openTraceStore()
	if err != nil {
		return err
	}
	defer st.Close()

	query, err := buildTraceQuery()
	if err != nil {
		return err
	}

	var exporter store.Exporter
	switch traceFlags.format {
	case "", "json":
		exporter = store.NewJSONExporter(true)
	case "csv":
		exporter = store.NewCSVExporter(true)
	default:
		return fmt.Errorf("unsupported export format: %s (supported: json, csv)", traceFlags.format)
	}

	ctx := context.Background()
	events, err := st.Events(ctx, query)
	if err != nil {
		return cli.NewCommandError("trace", fmt.Errorf("query failed: %w", err))
	}

	output, err := openOutputFile(traceFlags.output)
	if err != nil {
		return err
	}
	if output != os.Stdout {
		defer output.Close()
	}

	if err := exporter.Export(ctx, events, output); err != nil {
		return cli.NewCommandError("trace", fmt.Errorf("export failed: %w", err))
	}
	return nil
}

// buildTraceQuery assembles a store query from the shared filter flags.
func buildTraceQuery() (*store.Query, error) {
	query := &store.Query{
		RunID:    traceFlags.run,
		Document: traceFlags.document,
		RuleSet:  traceFlags.ruleset,
		EntryID:  traceFlags.entry,
		Rule:     traceFlags.rule,
		Kind:     traceFlags.kind,
		Limit:    traceFlags.limit,
		Offset:   traceFlags.offset,
	}

	if traceFlags.timeRange != "" {
		parts := strings.Split(traceFlags.timeRange, "/")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid time range format (expected: start/end)")
		}

		since, err := time.Parse(time.RFC3339, parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid start time: %w", err)
		}
		query.Since = &since

		until, err := time.Parse(time.RFC3339, parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid end time: %w", err)
		}
		query.Until = &until
	}

	return query, nil
}

func openTraceStore() (*store.Store, error) {
	cfg, err := loadRunConfig()
	if err != nil {
		return nil, err
	}

	path := traceFlags.dbPath
	if path == "" {
		path = cfg.Trace.SQLite.Path
	}

	st, err := store.Open(&store.Config{
		Path:        path,
		BusyTimeout: cfg.Trace.SQLite.BusyTimeout,
		WALMode:     true,
	})
	if err != nil {
		return nil, cli.NewCommandError("trace", fmt.Errorf("failed to open trace store: %w", err))
	}
	return st, nil
}

func openOutputFile(path string) (*os.File, error) {
	if path == "" {
		return os.Stdout, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

func outputTraceText(output *os.File, events []*store.StoredEvent, query *store.Query) error {
	if query.Since != nil && query.Until != nil {
		fmt.Fprintf(output, "Time range: %s to %s\n",
			query.Since.Format(time.RFC3339),
			query.Until.Format(time.RFC3339))
	}
	fmt.Fprintf(output, "Total events: %d\n", len(events))
	fmt.Fprintln(output)

	if len(events) == 0 {
		fmt.Fprintln(output, "No events found.")
		return nil
	}

	for _, ev := range events {
		fmt.Fprintf(output, "#%d %s %s", ev.Seq, ev.Time.Format("15:04:05.000"), ev.Kind)
		if ev.Document != "" {
			fmt.Fprintf(output, " doc=%s", ev.Document)
		}
		if ev.RuleSet != "" {
			fmt.Fprintf(output, " ruleset=%s", ev.RuleSet)
		}
		if ev.EntryID != "" {
			fmt.Fprintf(output, " entry=%s", ev.EntryID)
		}
		if ev.Rule != "" {
			fmt.Fprintf(output, " rule=%s", ev.Rule)
		}
		if ev.Decision != "" {
			fmt.Fprintf(output, " decision=%s", ev.Decision)
		}
		if ev.Action != "" {
			fmt.Fprintf(output, " action=%s", ev.Action)
		}
		if ev.Outcome != "" {
			fmt.Fprintf(output, " outcome=%s", ev.Outcome)
		}
		if ev.Path != "" {
			fmt.Fprintf(output, " path=%s", ev.Path)
		}
		if ev.Detail != "" {
			fmt.Fprintf(output, " detail=%q", ev.Detail)
		}
		fmt.Fprintln(output)
	}

	if query.Limit > 0 && len(events) == query.Limit {
		fmt.Fprintln(output)
		fmt.Fprintf(output, "Showing %d events. Use --limit and --offset for more.\n", len(events))
	}

	return nil
}
