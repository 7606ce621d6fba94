package metrics

import (
	"time"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/trace"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric exported by the collector.
const Namespace = "ganymede"

// Collector owns the Prometheus registry and the conversion metric
// family. All Record methods are no-ops when metrics are disabled, so
// callers never guard their own calls. Every label value comes from a
// fixed enumeration (statuses, decisions, action names, stages), so
// cardinality is bounded by construction.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Conversion throughput and rule activity
	conversion *ConversionMetrics
}

// NewCollector creates a metrics collector backed by the given registry,
// or by a fresh one when registry is nil. Passing a registry is mainly
// useful in tests that want to scrape the collector directly.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}

	c.conversion = NewConversionMetrics(registry)

	return c
}

// RecordDocument counts one processed document. Status is "converted"
// or "failed".
func (c *Collector) RecordDocument(status string) {
	if !c.config.Enabled {
		return
	}

	c.conversion.RecordDocument(status)
}

// RecordRun observes the wall-clock duration of one conversion run.
// In watch mode every rebuild counts as a run.
func (c *Collector) RecordRun(duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.conversion.RecordRun(duration)
}

// Sink returns a trace sink that derives rule-level metrics (entries,
// decisions, applied actions, diagnostics) from engine events. Attach
// it to the engine alongside any other sinks. When metrics are
// disabled the returned sink discards everything.
func (c *Collector) Sink() trace.Sink {
	if !c.config.Enabled {
		return trace.NopSink{}
	}
	return eventSink{c}
}

// Registry exposes the underlying registry. Handler serves it over HTTP;
// tests gather from it directly.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
