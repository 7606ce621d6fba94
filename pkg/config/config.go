package config

import "time"

// Config is the root configuration structure for Ganymede.
// It contains all configuration sections for conversion runs, watch mode,
// the trace store, and telemetry settings. Command-line flags override
// individual fields after loading.
type Config struct {
	// Conversion contains the conversion run configuration including the
	// rule file location, input and output paths, and sequence overrides.
	Conversion ConversionConfig `yaml:"conversion"`

	// Watch contains configuration for watch mode, which re-runs the
	// conversion when the rule file or input files change.
	Watch WatchConfig `yaml:"watch"`

	// Trace contains configuration for the trace store where per-entry
	// execution records are kept.
	Trace TraceConfig `yaml:"trace"`

	// Telemetry contains configuration for observability including
	// logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ConversionConfig contains configuration for a conversion run.
type ConversionConfig struct {
	// RulesFile is the path to the GML rule file driving the conversion.
	// Default: "rules.yml"
	RulesFile string `yaml:"rules_file"`

	// InputPath is the data file or directory to convert. Directories are
	// walked recursively for .yml and .yaml files, visited in lexicographic
	// order so sequence counters allocate reproducibly.
	InputPath string `yaml:"input_path"`

	// OutputPath is where converted files are written. When empty, single
	// files are written next to the input with the output prefix and
	// directories into a sibling batch directory.
	OutputPath string `yaml:"output_path"`

	// OutputPrefix is prepended to converted file names when no explicit
	// output path is given.
	// Default: "converted_"
	OutputPrefix string `yaml:"output_prefix"`

	// Batch forces directory-mode output naming even when the input is a
	// single file. Directory inputs always convert in batch mode.
	// Default: false
	Batch bool `yaml:"batch"`

	// StrictValidation promotes rule file validation warnings to errors,
	// refusing to run on a rule file with any finding.
	// Default: false
	StrictValidation bool `yaml:"strict_validation"`

	// SequenceOverrides replaces sequence start values before the first
	// draw. Keys name a shared sequence id or an independent sequence's
	// target path.
	SequenceOverrides map[string]int64 `yaml:"sequence_overrides"`
}

// WatchConfig contains configuration for watch mode.
type WatchConfig struct {
	// Enabled turns on watch mode: after an initial conversion the process
	// stays up and re-runs when inputs change.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Debounce is how long to wait after the last file event before
	// re-running, coalescing editor save bursts into one conversion.
	// Default: 500ms
	Debounce time.Duration `yaml:"debounce"`
}

// TraceConfig contains configuration for the execution trace store.
type TraceConfig struct {
	// Enabled turns on persistent tracing. When disabled trace events are
	// only visible in debug logs.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// SQLite contains settings for the SQLite trace backend.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Retention controls pruning of old trace runs.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains settings for the SQLite trace backend.
type SQLiteConfig struct {
	// Path is the SQLite database file location. Parent directories are
	// created on first open.
	// Default: "data/trace.db"
	Path string `yaml:"path"`

	// BusyTimeout is how long a connection waits on a locked database
	// before failing.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig controls pruning of old trace runs.
type RetentionConfig struct {
	// Days is how many days of runs to keep. A negative value disables
	// pruning.
	// Default: 30
	Days int `yaml:"days"`

	// MaxRecords caps the number of stored trace events; when the cap is
	// exceeded the oldest events are deleted first. Zero means no cap.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`

	// Schedule is a standard cron expression for the background sweep in
	// watch mode. One-shot runs prune on startup instead.
	// Default: "0 3 * * *"
	Schedule string `yaml:"schedule"`
}

// TelemetryConfig groups the logging and metrics settings.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum level to emit: "debug", "info", "warn" or
	// "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format selects the output encoding: "text" or "json".
	// Default: "text"
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled starts an HTTP listener exposing run metrics. Mostly useful
	// in watch mode where the process is long-lived.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address for the metrics listener.
	// Format: "host:port".
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path serving the metrics.
	// Default: "/metrics"
	Path string `yaml:"path"`
}
