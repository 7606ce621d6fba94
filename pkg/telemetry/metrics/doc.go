// Package metrics provides Prometheus metrics collection for Ganymede.
//
// # Overview
//
// The metrics package exposes conversion throughput and rule activity
// as Prometheus metrics. It is wired in two places: the runner records
// documents and run durations directly, and the collector's trace sink
// derives entry, rule, action, and diagnostic counts from engine
// events.
//
// # Metrics
//
//   - ganymede_documents_total{status}: Documents processed
//   - ganymede_entries_total: Entries matched by rulesets
//   - ganymede_rules_executed_total: Rules whose action bundle ran
//   - ganymede_rules_skipped_total{reason}: Rules skipped
//   - ganymede_actions_applied_total{action}: Actions that changed an entry
//   - ganymede_sequence_allocations_total: Sequence counter draws
//   - ganymede_diagnostics_total{stage}: Recoverable faults
//   - ganymede_run_duration_seconds: Run duration histogram
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	// Feed rule-level metrics from the engine
//	eng := engine.New(engine.WithTraceSink(collector.Sink()))
//
//	// Record per-document and per-run metrics
//	collector.RecordDocument("converted")
//	collector.RecordRun(elapsed)
//
// # Prometheus Endpoint
//
// In watch mode the collector's handler is served on the configured
// listen address:
//
//	# HELP ganymede_documents_total Total number of documents processed
//	# TYPE ganymede_documents_total counter
//	ganymede_documents_total{status="converted"} 12
//
// All label values come from fixed enumerations, so metric cardinality
// is bounded by construction.
package metrics
