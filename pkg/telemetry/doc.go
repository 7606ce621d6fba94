// Package telemetry provides observability for Ganymede.
//
// # Components
//
//   - logging: Structured slog setup (level, format, destination)
//   - metrics: Prometheus metrics for conversion throughput and rule
//     activity, exposed on a configurable endpoint in watch mode
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  cfg.Telemetry.Logging.Level,
//	    Format: cfg.Telemetry.Logging.Format,
//	})
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	eng := engine.New(
//	    engine.WithLogger(logger),
//	    engine.WithTraceSink(collector.Sink()),
//	)
//
// Run evidence (per-rule decisions and action outcomes) lives in
// pkg/trace, not here; telemetry covers operator-facing logs and
// aggregate metrics only.
package telemetry
