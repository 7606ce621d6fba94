package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError flags a single configuration value that failed validation.
type FieldError struct {
	// Field is the dotted YAML path of the offending value, such as
	// "conversion.rules_file".
	Field string

	// Message says what is wrong with the value.
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every FieldError found in one Validate pass so a
// caller can surface all problems at once.
type ValidationError struct {
	Errors []FieldError
}

// Error lists the offending fields. The message carries no prefix of its
// own; callers wrap it with context about which configuration was checked.
func (e ValidationError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "invalid configuration"
	case 1:
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d invalid fields:", len(e.Errors))
	for _, fe := range e.Errors {
		sb.WriteString("\n  - ")
		sb.WriteString(fe.Error())
	}
	return sb.String()
}

// Validate checks every section of the configuration and reports all
// violations together. A nil return means the configuration is usable.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateConversion(&cfg.Conversion)...)
	errs = append(errs, validateWatch(&cfg.Watch)...)
	errs = append(errs, validateTrace(&cfg.Trace)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateConversion validates conversion configuration.
func validateConversion(cfg *ConversionConfig) []FieldError {
	var errs []FieldError

	if cfg.RulesFile == "" {
		errs = append(errs, FieldError{
			Field:   "conversion.rules_file",
			Message: "rules file is required",
		})
	}
	if cfg.OutputPrefix == "" {
		errs = append(errs, FieldError{
			Field:   "conversion.output_prefix",
			Message: "output prefix must not be empty",
		})
	}
	for key := range cfg.SequenceOverrides {
		if key == "" {
			errs = append(errs, FieldError{
				Field:   "conversion.sequence_overrides",
				Message: "override keys must name a sequence id or target path",
			})
		}
	}

	return errs
}

// validateWatch validates watch mode configuration.
func validateWatch(cfg *WatchConfig) []FieldError {
	var errs []FieldError

	if cfg.Debounce < 0 {
		errs = append(errs, FieldError{
			Field:   "watch.debounce",
			Message: "debounce must be non-negative",
		})
	}

	return errs
}

// validateTrace validates trace store configuration.
func validateTrace(cfg *TraceConfig) []FieldError {
	var errs []FieldError

	if cfg.Enabled && cfg.SQLite.Path == "" {
		errs = append(errs, FieldError{
			Field:   "trace.sqlite.path",
			Message: "path is required when tracing is enabled",
		})
	}
	if cfg.SQLite.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "trace.sqlite.busy_timeout",
			Message: "busy timeout must be non-negative",
		})
	}
	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{
			Field:   "trace.retention.max_records",
			Message: "max records must be non-negative",
		})
	}
	if cfg.Retention.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "trace.retention.schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid level %q, must be one of: debug, info, warn, error", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid format %q, must be one of: text, json", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(cfg.Metrics.ListenAddress); err != nil {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.listen_address",
				Message: fmt.Sprintf("invalid listen address %q, expected host:port", cfg.Metrics.ListenAddress),
			})
		}
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "path must start with /",
			})
		}
	}

	return errs
}
