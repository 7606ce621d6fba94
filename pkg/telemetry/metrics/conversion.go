package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ConversionMetrics tracks document conversion throughput and rule
// activity.
//
// Metrics:
//   - ganymede_documents_total: Documents processed, by status
//   - ganymede_entries_total: Entries matched by rulesets
//   - ganymede_rules_executed_total: Rules whose action bundle ran
//   - ganymede_rules_skipped_total: Rules skipped, by reason
//   - ganymede_actions_applied_total: Actions that changed an entry, by action
//   - ganymede_sequence_allocations_total: Sequence counter draws
//   - ganymede_diagnostics_total: Recoverable faults, by stage
//   - ganymede_run_duration_seconds: Conversion run duration histogram
type ConversionMetrics struct {
	// Documents processed
	documentsTotal *prometheus.CounterVec

	// Entries matched by at least one ruleset
	entriesTotal prometheus.Counter

	// Rule decisions
	rulesExecuted prometheus.Counter
	rulesSkipped  *prometheus.CounterVec

	// Actions that mutated an entry (no-ops excluded)
	actionsApplied *prometheus.CounterVec

	// Sequence counter draws
	sequenceAllocations prometheus.Counter

	// Recoverable faults surfaced as diagnostics
	diagnosticsTotal *prometheus.CounterVec

	// Run duration histogram
	runDuration prometheus.Histogram
}

// NewConversionMetrics creates and registers conversion metrics with the
// provided registry.
func NewConversionMetrics(registry *prometheus.Registry) *ConversionMetrics {
	cm := &ConversionMetrics{
		documentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "documents_total",
				Help:      "Total number of documents processed",
			},
			[]string{"status"},
		),

		entriesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "entries_total",
				Help:      "Total number of entries matched by rulesets",
			},
		),

		rulesExecuted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "rules_executed_total",
				Help:      "Total number of rules whose action bundle was executed",
			},
		),

		rulesSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "rules_skipped_total",
				Help:      "Total number of rules skipped, by reason",
			},
			[]string{"reason"},
		),

		actionsApplied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "actions_applied_total",
				Help:      "Total number of actions that changed an entry",
			},
			[]string{"action"},
		),

		sequenceAllocations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "sequence_allocations_total",
				Help:      "Total number of sequence counter values assigned",
			},
		),

		diagnosticsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "diagnostics_total",
				Help:      "Total number of recoverable conversion faults, by stage",
			},
			[]string{"stage"},
		),

		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of conversion runs in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		cm.documentsTotal,
		cm.entriesTotal,
		cm.rulesExecuted,
		cm.rulesSkipped,
		cm.actionsApplied,
		cm.sequenceAllocations,
		cm.diagnosticsTotal,
		cm.runDuration,
	)

	return cm
}

// RecordDocument counts one processed document by status.
func (cm *ConversionMetrics) RecordDocument(status string) {
	cm.documentsTotal.WithLabelValues(status).Inc()
}

// RecordEntry counts one entry matched by a ruleset.
func (cm *ConversionMetrics) RecordEntry() {
	cm.entriesTotal.Inc()
}

// RecordRuleExecuted counts one executed rule.
func (cm *ConversionMetrics) RecordRuleExecuted() {
	cm.rulesExecuted.Inc()
}

// RecordRuleSkipped counts one skipped rule by reason
// ("dependency_unmet", "condition_false", "skip_flag").
func (cm *ConversionMetrics) RecordRuleSkipped(reason string) {
	cm.rulesSkipped.WithLabelValues(reason).Inc()
}

// RecordAction counts one applied action by name ("set", "delete",
// "rename", "append", "prepend", "sequence").
func (cm *ConversionMetrics) RecordAction(action string) {
	cm.actionsApplied.WithLabelValues(action).Inc()
}

// RecordSequenceAllocation counts one sequence counter draw.
func (cm *ConversionMetrics) RecordSequenceAllocation() {
	cm.sequenceAllocations.Inc()
}

// RecordDiagnostic counts one diagnostic by stage ("structure",
// "context", "condition", "action", "sequence").
func (cm *ConversionMetrics) RecordDiagnostic(stage string) {
	cm.diagnosticsTotal.WithLabelValues(stage).Inc()
}

// RecordRun observes one conversion run's duration.
func (cm *ConversionMetrics) RecordRun(duration time.Duration) {
	cm.runDuration.Observe(duration.Seconds())
}
