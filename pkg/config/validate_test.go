package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Errorf("expected valid config, got: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := Default()
	cfg.Conversion.RulesFile = ""
	cfg.Telemetry.Logging.Level = "loud"
	cfg.Telemetry.Logging.Format = "xml"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}

	verr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Errors) != 3 {
		t.Errorf("expected 3 errors, got %d: %v", len(verr.Errors), verr.Errors)
	}
	if !strings.Contains(err.Error(), "3 invalid fields") {
		t.Errorf("expected error count in message, got: %v", err)
	}
}

func TestValidate_Conversion(t *testing.T) {
	tests := []struct {
		name       string
		conv       ConversionConfig
		wantError  bool
		errorField string
	}{
		{
			name: "valid conversion config",
			conv: ConversionConfig{
				RulesFile:    "rules.yml",
				OutputPrefix: DefaultOutputPrefix,
			},
			wantError: false,
		},
		{
			name: "missing rules file",
			conv: ConversionConfig{
				OutputPrefix: DefaultOutputPrefix,
			},
			wantError:  true,
			errorField: "conversion.rules_file",
		},
		{
			name: "empty output prefix",
			conv: ConversionConfig{
				RulesFile: "rules.yml",
			},
			wantError:  true,
			errorField: "conversion.output_prefix",
		},
		{
			name: "empty override key",
			conv: ConversionConfig{
				RulesFile:         "rules.yml",
				OutputPrefix:      DefaultOutputPrefix,
				SequenceOverrides: map[string]int64{"": 5},
			},
			wantError:  true,
			errorField: "conversion.sequence_overrides",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkFieldErrors(t, validateConversion(&tt.conv), tt.wantError, tt.errorField)
		})
	}
}

func TestValidate_Watch(t *testing.T) {
	errs := validateWatch(&WatchConfig{Debounce: -1})
	checkFieldErrors(t, errs, true, "watch.debounce")
}

func TestValidate_Trace(t *testing.T) {
	tests := []struct {
		name       string
		trace      TraceConfig
		wantError  bool
		errorField string
	}{
		{
			name: "valid trace config",
			trace: TraceConfig{
				Enabled:   true,
				SQLite:    SQLiteConfig{Path: "trace.db", BusyTimeout: DefaultTraceSQLiteBusy},
				Retention: RetentionConfig{Days: 30, Schedule: "0 3 * * *"},
			},
			wantError: false,
		},
		{
			name: "enabled without path",
			trace: TraceConfig{
				Enabled: true,
			},
			wantError:  true,
			errorField: "trace.sqlite.path",
		},
		{
			name: "negative busy timeout",
			trace: TraceConfig{
				SQLite: SQLiteConfig{Path: "trace.db", BusyTimeout: -1},
			},
			wantError:  true,
			errorField: "trace.sqlite.busy_timeout",
		},
		{
			name: "bad cron expression",
			trace: TraceConfig{
				SQLite:    SQLiteConfig{Path: "trace.db"},
				Retention: RetentionConfig{Schedule: "every day at 3"},
			},
			wantError:  true,
			errorField: "trace.retention.schedule",
		},
		{
			name: "negative max records",
			trace: TraceConfig{
				SQLite:    SQLiteConfig{Path: "trace.db"},
				Retention: RetentionConfig{MaxRecords: -5},
			},
			wantError:  true,
			errorField: "trace.retention.max_records",
		},
		{
			name: "macro cron expressions accepted",
			trace: TraceConfig{
				SQLite:    SQLiteConfig{Path: "trace.db"},
				Retention: RetentionConfig{Schedule: "@daily"},
			},
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkFieldErrors(t, validateTrace(&tt.trace), tt.wantError, tt.errorField)
		})
	}
}

func TestValidate_Telemetry(t *testing.T) {
	tests := []struct {
		name       string
		telemetry  TelemetryConfig
		wantError  bool
		errorField string
	}{
		{
			name: "valid telemetry config",
			telemetry: TelemetryConfig{
				Logging: LoggingConfig{Level: "info", Format: "text"},
				Metrics: MetricsConfig{Enabled: true, ListenAddress: "127.0.0.1:9090", Path: "/metrics"},
			},
			wantError: false,
		},
		{
			name: "invalid level",
			telemetry: TelemetryConfig{
				Logging: LoggingConfig{Level: "loud", Format: "text"},
			},
			wantError:  true,
			errorField: "telemetry.logging.level",
		},
		{
			name: "invalid format",
			telemetry: TelemetryConfig{
				Logging: LoggingConfig{Level: "info", Format: "xml"},
			},
			wantError:  true,
			errorField: "telemetry.logging.format",
		},
		{
			name: "metrics address without port",
			telemetry: TelemetryConfig{
				Logging: LoggingConfig{Level: "info", Format: "text"},
				Metrics: MetricsConfig{Enabled: true, ListenAddress: "localhost", Path: "/metrics"},
			},
			wantError:  true,
			errorField: "telemetry.metrics.listen_address",
		},
		{
			name: "metrics path without slash",
			telemetry: TelemetryConfig{
				Logging: LoggingConfig{Level: "info", Format: "text"},
				Metrics: MetricsConfig{Enabled: true, ListenAddress: "127.0.0.1:9090", Path: "metrics"},
			},
			wantError:  true,
			errorField: "telemetry.metrics.path",
		},
		{
			name: "disabled metrics skip address checks",
			telemetry: TelemetryConfig{
				Logging: LoggingConfig{Level: "info", Format: "text"},
				Metrics: MetricsConfig{Enabled: false, ListenAddress: "bogus", Path: "nope"},
			},
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkFieldErrors(t, validateTelemetry(&tt.telemetry), tt.wantError, tt.errorField)
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	single := ValidationError{Errors: []FieldError{
		{Field: "watch.debounce", Message: "debounce must be non-negative"},
	}}
	if single.Error() != "watch.debounce: debounce must be non-negative" {
		t.Errorf("unexpected single-error message: %q", single.Error())
	}

	multi := ValidationError{Errors: []FieldError{
		{Field: "watch.debounce", Message: "debounce must be non-negative"},
		{Field: "trace.sqlite.path", Message: "path is required when tracing is enabled"},
	}}
	for _, want := range []string{"2 invalid fields", "watch.debounce", "trace.sqlite.path"} {
		if !strings.Contains(multi.Error(), want) {
			t.Errorf("multi-error message missing %q: %q", want, multi.Error())
		}
	}

	empty := ValidationError{}
	if empty.Error() != "invalid configuration" {
		t.Errorf("unexpected empty error message: %q", empty.Error())
	}
}

func checkFieldErrors(t *testing.T, errs []FieldError, wantError bool, errorField string) {
	t.Helper()
	if wantError && len(errs) == 0 {
		t.Error("expected validation error, got none")
	}
	if !wantError && len(errs) > 0 {
		t.Errorf("expected no validation error, got: %v", errs)
	}
	if wantError && len(errs) > 0 {
		found := false
		for _, err := range errs {
			if err.Field == errorField {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected error for field %q, got errors: %v", errorField, errs)
		}
	}
}
