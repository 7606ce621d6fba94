package engine

import (
	"strconv"
	"strings"
	"sync"

	"mercator-hq/ganymede/pkg/gml/ast"
)

// SequenceRegistry owns every sequence counter for the lifetime of a
// run. Shared counters are keyed by their id and advance across rules,
// paths, entries and documents; independent counters are keyed by
// (rule name, target path). Counters never reset within a run.
//
// Allocation is serialized by a mutex so a parallel caller still gets
// monotone draws, but allocation ORDER is only reproducible when calls
// follow the canonical document/entry/rule order; the engine processes
// everything sequentially for exactly that reason.
type SequenceRegistry struct {
	mu        sync.Mutex
	counters  map[counterKey]int64
	overrides map[string]int64
}

type counterKey struct {
	shared bool
	id     string // shared mode
	rule   string // independent mode
	path   string
}

// NewSequenceRegistry creates an empty registry.
func NewSequenceRegistry() *SequenceRegistry {
	return &SequenceRegistry{
		counters:  make(map[counterKey]int64),
		overrides: make(map[string]int64),
	}
}

// SetOverride replaces the start value for the counter named by key
// before its first draw. The key is a sequence id for shared counters or
// a target path for independent ones. Overrides set after the first draw
// of a key have no effect.
func (r *SequenceRegistry) SetOverride(key string, start int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[key] = start
}

// Next draws the next value for the sequence described by spec at the
// given rule and substituted target path. The returned value is the
// counter's current value; the counter then advances by the spec's step.
// ok is false when the spec is an independent sequence on an unnamed
// rule, which allocates nothing.
func (r *SequenceRegistry) Next(spec *ast.SequenceSpec, ruleName, path string) (value int64, ok bool) {
	var key counterKey
	var overrideKey string
	if spec.ID != "" {
		key = counterKey{shared: true, id: spec.ID}
		overrideKey = spec.ID
	} else {
		if ruleName == "" {
			return 0, false
		}
		key = counterKey{rule: ruleName, path: path}
		overrideKey = path
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.counters[key]
	if !exists {
		current = spec.Start
		if o, has := r.overrides[overrideKey]; has {
			current = o
		}
	}
	r.counters[key] = current + spec.Step
	return current, true
}

// FormatValue renders a drawn counter value through a format template by
// substituting {counter}, or returns the raw number when the template is
// empty.
func FormatValue(value int64, format string) any {
	if format == "" {
		return value
	}
	return strings.ReplaceAll(format, "{counter}", strconv.FormatInt(value, 10))
}
