package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads the YAML file at path, fills in defaults and validates
// the result. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides when they should be able to override the file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration with every default applied, for runs
// without a configuration file.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// DefaultWithEnvOverrides returns the default configuration with
// environment variable overrides applied, for runs without a
// configuration file.
func DefaultWithEnvOverrides() (*Config, error) {
	cfg := Default()
	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads the file like LoadConfig and then lets
// GANYMEDE_SECTION_FIELD environment variables (GANYMEDE_CONVERSION_RULES_FILE,
// GANYMEDE_WATCH_DEBOUNCE, ...) override individual fields. The merged
// configuration is validated a second time, since an override can break a
// file that was valid on its own.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables use the format GANYMEDE_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Conversion overrides
	if val := os.Getenv("GANYMEDE_CONVERSION_RULES_FILE"); val != "" {
		cfg.Conversion.RulesFile = val
	}
	if val := os.Getenv("GANYMEDE_CONVERSION_INPUT_PATH"); val != "" {
		cfg.Conversion.InputPath = val
	}
	if val := os.Getenv("GANYMEDE_CONVERSION_OUTPUT_PATH"); val != "" {
		cfg.Conversion.OutputPath = val
	}
	if val := os.Getenv("GANYMEDE_CONVERSION_OUTPUT_PREFIX"); val != "" {
		cfg.Conversion.OutputPrefix = val
	}
	if val := os.Getenv("GANYMEDE_CONVERSION_STRICT_VALIDATION"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Conversion.StrictValidation = b
		}
	}

	// Watch overrides
	if val := os.Getenv("GANYMEDE_WATCH_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Watch.Enabled = b
		}
	}
	if val := os.Getenv("GANYMEDE_WATCH_DEBOUNCE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Watch.Debounce = d
		}
	}

	// Trace overrides
	if val := os.Getenv("GANYMEDE_TRACE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Trace.Enabled = b
		}
	}
	if val := os.Getenv("GANYMEDE_TRACE_SQLITE_PATH"); val != "" {
		cfg.Trace.SQLite.Path = val
	}
	if val := os.Getenv("GANYMEDE_TRACE_SQLITE_BUSY_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Trace.SQLite.BusyTimeout = d
		}
	}
	if val := os.Getenv("GANYMEDE_TRACE_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Trace.Retention.Days = i
		}
	}
	if val := os.Getenv("GANYMEDE_TRACE_RETENTION_MAX_RECORDS"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Trace.Retention.MaxRecords = i
		}
	}
	if val := os.Getenv("GANYMEDE_TRACE_RETENTION_SCHEDULE"); val != "" {
		cfg.Trace.Retention.Schedule = val
	}

	// Telemetry overrides
	if val := os.Getenv("GANYMEDE_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("GANYMEDE_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("GANYMEDE_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("GANYMEDE_TELEMETRY_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
	if val := os.Getenv("GANYMEDE_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
}
