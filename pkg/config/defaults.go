package config

import "time"

// Defaults for every configurable field. Exported so tests and docs can
// refer to them by name.
const (
	// Conversion defaults
	DefaultRulesFile    = "rules.yml"
	DefaultOutputPrefix = "converted_"

	// Watch defaults
	DefaultWatchDebounce = 500 * time.Millisecond

	// Trace defaults
	DefaultTraceSQLitePath    = "data/trace.db"
	DefaultTraceSQLiteBusy    = 5 * time.Second
	DefaultTraceRetentionDays = 30
	DefaultTraceRetentionCron = "0 3 * * *"

	// Telemetry defaults
	DefaultLoggingLevel         = "info"
	DefaultLoggingFormat        = "text"
	DefaultMetricsListenAddress = "127.0.0.1:9090"
	DefaultMetricsPath          = "/metrics"
)

// ApplyDefaults fills every zero-valued field with its default. Calling
// it again changes nothing, so it is safe after partial construction.
//
// A zero value that is also a legal setting cannot be expressed in the
// file; use a negative value where a field documents one (retention
// days) or the section's enabled flag.
func ApplyDefaults(cfg *Config) {
	// Conversion defaults
	if cfg.Conversion.RulesFile == "" {
		cfg.Conversion.RulesFile = DefaultRulesFile
	}
	if cfg.Conversion.OutputPrefix == "" {
		cfg.Conversion.OutputPrefix = DefaultOutputPrefix
	}

	// Watch defaults
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}

	// Trace defaults
	if cfg.Trace.SQLite.Path == "" {
		cfg.Trace.SQLite.Path = DefaultTraceSQLitePath
	}
	if cfg.Trace.SQLite.BusyTimeout == 0 {
		cfg.Trace.SQLite.BusyTimeout = DefaultTraceSQLiteBusy
	}
	if cfg.Trace.Retention.Days == 0 {
		cfg.Trace.Retention.Days = DefaultTraceRetentionDays
	}
	if cfg.Trace.Retention.Schedule == "" {
		cfg.Trace.Retention.Schedule = DefaultTraceRetentionCron
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}
