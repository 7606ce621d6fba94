package trace

import (
	"log/slog"
	"time"
)

// Sink receives trace events. Implementations must tolerate being
// called from a single goroutine per run; the engine never emits
// concurrently within one run.
type Sink interface {
	Emit(ev Event)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Emit(Event) {}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

func (f SinkFunc) Emit(ev Event) { f(ev) }

// LogSink mirrors events onto a structured logger at debug level.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink writing to logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(ev Event) {
	if s.logger == nil {
		return
	}
	attrs := make([]any, 0, 16)
	add := func(key, val string) {
		if val != "" {
			attrs = append(attrs, key, val)
		}
	}
	add("document", ev.Document)
	add("ruleset", ev.RuleSet)
	add("entry", ev.EntryID)
	add("rule", ev.Rule)
	add("decision", ev.Decision)
	add("action", ev.Action)
	add("outcome", ev.Outcome)
	add("path", ev.Path)
	add("detail", ev.Detail)
	s.logger.Debug(string(ev.Kind), attrs...)
}

// MultiSink fans events out to every child sink in order.
type MultiSink []Sink

func (m MultiSink) Emit(ev Event) {
	for _, s := range m {
		s.Emit(ev)
	}
}

// Stamp fills the event time if unset and returns the event.
func Stamp(ev Event) Event {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	return ev
}
