package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogFormat selects the log output encoding.
type LogFormat string

const (
	// FormatText emits human-readable key=value lines.
	FormatText LogFormat = "text"
	// FormatJSON emits one JSON object per line.
	FormatJSON LogFormat = "json"
)

// Config contains configuration for building a logger.
type Config struct {
	// Level is the minimum level to emit: "debug", "info", "warn" or
	// "error"
	Level string

	// Format is the output encoding, "text" or "json"
	Format string

	// AddSource annotates records with the caller's file and line
	AddSource bool

	// Writer is the output writer (defaults to os.Stderr, keeping
	// stdout free for converted documents)
	Writer io.Writer
}

// New builds a *slog.Logger from the configuration. Level and format
// strings are matched case-insensitively; empty strings take the
// defaults ("info", "text").
func New(cfg Config) (*slog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	format, err := parseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), nil
}

// parseLevel converts a level string to slog.Level.
func parseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", levelStr)
	}
}

// parseFormat converts a format string to LogFormat.
func parseFormat(formatStr string) (LogFormat, error) {
	switch strings.ToLower(formatStr) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown log format: %s", formatStr)
	}
}
