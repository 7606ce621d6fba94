// Package config loads and validates Ganymede's YAML configuration.
//
// A configuration file is optional. Every setting has a default, the file
// overrides defaults, environment variables override the file, and
// command-line flags override everything.
//
// # Loading
//
// Load a file on its own, or with environment overrides folded in:
//
//	cfg, err := config.LoadConfig("config.yaml")
//	cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// Runs without a configuration file start from config.Default(), which
// carries every default; command-line flags then override individual
// fields.
//
// # Environment Variables
//
// Variables are named GANYMEDE_SECTION_FIELD after the YAML path they
// override:
//
//   - GANYMEDE_CONVERSION_RULES_FILE overrides conversion.rules_file
//   - GANYMEDE_WATCH_DEBOUNCE overrides watch.debounce
//   - GANYMEDE_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// When a variable is set, its value wins over whatever the file says.
//
// # Validation
//
// The merged configuration is validated after the file is read and again
// after environment overrides, so loading fails fast on a bad value. Every
// problem is reported with its YAML path:
//
//	configuration validation failed: 2 invalid fields:
//	  - conversion.rules_file: rules file is required
//	  - telemetry.logging.level: invalid level "loud", must be one of: debug, info, warn, error
//
// # Example
//
// A small but complete file:
//
//	conversion:
//	  rules_file: "migrations/v2.yml"
//	  input_path: "data/"
//
//	watch:
//	  enabled: true
//	  debounce: "500ms"
//
//	trace:
//	  enabled: true
//	  sqlite:
//	    path: "data/trace.db"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "text"
package config
