package engine

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"mercator-hq/ganymede/pkg/codec"
	"mercator-hq/ganymede/pkg/gml/ast"
	"mercator-hq/ganymede/pkg/trace"
)

// Engine applies a parsed rule file to documents. One Engine carries the
// run-wide state: the sequence registry and the compiled-regex cache.
// Apply documents through the same Engine to keep sequence counters
// advancing across files.
type Engine struct {
	logger   *slog.Logger
	sink     trace.Sink
	registry *SequenceRegistry
	regexes  *regexCache
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTraceSink sets the destination for trace events. Defaults to a
// sink that discards them.
func WithTraceSink(sink trace.Sink) Option {
	return func(e *Engine) {
		if sink != nil {
			e.sink = sink
		}
	}
}

// WithRegistry shares a sequence registry with the engine, typically to
// seed overrides before the run.
func WithRegistry(reg *SequenceRegistry) Option {
	return func(e *Engine) {
		if reg != nil {
			e.registry = reg
		}
	}
}

// New creates an Engine ready to apply documents.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:   slog.Default(),
		sink:     trace.NopSink{},
		registry: NewSequenceRegistry(),
		regexes:  newRegexCache(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the engine's sequence registry.
func (e *Engine) Registry() *SequenceRegistry {
	return e.registry
}

// Stats counts what one or more ApplyDocument calls did.
type Stats struct {
	RuleSetsApplied int
	RuleSetsSkipped int
	Entries         int
	RulesExecuted   int
	RulesSkipped    int
	ActionsApplied  int
	Diagnostics     int
}

// Add accumulates other into s.
func (s *Stats) Add(other *Stats) {
	s.RuleSetsApplied += other.RuleSetsApplied
	s.RuleSetsSkipped += other.RuleSetsSkipped
	s.Entries += other.Entries
	s.RulesExecuted += other.RulesExecuted
	s.RulesSkipped += other.RulesSkipped
	s.ActionsApplied += other.ActionsApplied
	s.Diagnostics += other.Diagnostics
}

// ApplyDocument runs every ruleset of the file against the document, in
// file order, mutating the document's record bodies in place. Top-level
// keys no ruleset matches are left untouched. The document never fails
// as a whole; problems surface as diagnostics in the stats and the
// trace.
func (e *Engine) ApplyDocument(file *ast.RuleFile, doc *codec.Document) *Stats {
	stats := &Stats{}
	e.emit(trace.Event{Kind: trace.KindDocumentStarted, Document: doc.Path})

	// Ruleset dependencies resolve against completions within this
	// document only.
	completed := make(map[string]bool)

	for _, rs := range file.RuleSets {
		name := rs.DisplayName()

		if missing := unmetDeps(rs.DependsOn, completed); len(missing) > 0 {
			detail := "dependencies not completed: " + strings.Join(missing, ", ")
			e.logger.Info("ruleset skipped", "document", doc.Path, "ruleset", name, "reason", detail)
			e.emit(trace.Event{Kind: trace.KindRuleSetSkipped, Document: doc.Path, RuleSet: name, Detail: detail})
			stats.RuleSetsSkipped++
			continue
		}

		if sections := e.applyRuleSet(doc, rs, stats); sections == 0 {
			e.logger.Debug("ruleset skipped", "document", doc.Path, "ruleset", name,
				"reason", "no matching top-level key", "content", rs.Content)
			e.emit(trace.Event{Kind: trace.KindRuleSetSkipped, Document: doc.Path, RuleSet: name, Detail: "no matching top-level key"})
			stats.RuleSetsSkipped++
			continue
		}
		completed[name] = true
		stats.RuleSetsApplied++
	}

	e.emit(trace.Event{Kind: trace.KindDocumentDone, Document: doc.Path})
	return stats
}

// applyRuleSet runs one ruleset over every matching section and returns
// the number of sections it could work on.
func (e *Engine) applyRuleSet(doc *codec.Document, rs *ast.RuleSet, stats *Stats) (sections int) {
	name := rs.DisplayName()
	pattern := sectionPattern(rs.Content)

	entered := false
	for _, sec := range doc.Sections {
		if !pattern.MatchString(sec.Key) {
			continue
		}
		if !sec.Keyed {
			msg := fmt.Sprintf("top-level key %q matches content %q but is not a mapping of entries", sec.Key, rs.Content)
			e.logger.Warn(msg, "document", doc.Path, "ruleset", name)
			e.emit(trace.Event{Kind: trace.KindDiagnostic, Document: doc.Path, RuleSet: name, Detail: msg})
			stats.Diagnostics++
			continue
		}
		if !entered {
			e.emit(trace.Event{Kind: trace.KindRuleSetEntered, Document: doc.Path, RuleSet: name, Detail: "key " + sec.Key})
			entered = true
		}
		sections++

		for _, rec := range sec.Records {
			if rec.Body == nil {
				msg := fmt.Sprintf("entry %q under %q is not a mapping; entry skipped", rec.ID, sec.Key)
				e.logger.Warn(msg, "document", doc.Path, "ruleset", name)
				e.emit(trace.Event{Kind: trace.KindDiagnostic, Document: doc.Path, RuleSet: name, EntryID: rec.ID, Detail: msg})
				stats.Diagnostics++
				continue
			}
			e.applyEntry(doc, rs, rec, stats)
		}
	}
	return sections
}

// applyEntry builds the entry context, then runs the ruleset's rules in
// order, tracking which named rules executed for dependency gating.
func (e *Engine) applyEntry(doc *codec.Document, rs *ast.RuleSet, rec *codec.Record, stats *Stats) {
	p := &pass{
		eng:         e,
		docPath:     doc.Path,
		rsName:      rs.DisplayName(),
		entryID:     rec.ID,
		contentType: rs.Content,
		body:        rec.Body,
		stats:       stats,
	}
	p.buildContext(rs.Context)
	e.emit(trace.Event{Kind: trace.KindEntryMatched, Document: p.docPath, RuleSet: p.rsName, EntryID: p.entryID})
	stats.Entries++

	executed := make(map[string]bool, len(rs.Rules))
	for _, rule := range rs.Rules {
		p.ruleName = rule.DisplayName()
		decision, detail := p.runRule(rule, executed)

		if decision == trace.DecisionExecuted {
			stats.RulesExecuted++
			if rule.Name != "" {
				executed[rule.Name] = true
			}
		} else {
			stats.RulesSkipped++
		}
		e.emit(trace.Event{
			Kind:     trace.KindRuleDecision,
			Document: p.docPath,
			RuleSet:  p.rsName,
			EntryID:  p.entryID,
			Rule:     p.ruleName,
			Decision: decision,
			Detail:   detail,
		})
	}
}

// pass is the per-entry execution state.
type pass struct {
	eng         *Engine
	docPath     string
	rsName      string
	ruleName    string
	entryID     string
	contentType string

	body  map[string]any
	scope *entryScope
	ph    *placeholders

	stats *Stats
}

func (p *pass) runRule(rule *ast.Rule, executed map[string]bool) (decision, detail string) {
	for _, dep := range rule.DependsOn {
		if !executed[dep] {
			return trace.DecisionDependencyUnmet, "waiting on " + dep
		}
	}
	if !p.evalConditions(rule) {
		return trace.DecisionConditionFalse, ""
	}
	if p.applyActions(rule) {
		return trace.DecisionSkipFlag, ""
	}
	return trace.DecisionExecuted, ""
}

// diag records one diagnostic: a warning log line, a trace event and a
// stats bump. Diagnostics never abort the entry.
func (p *pass) diag(action, path, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	attrs := make([]any, 0, 10)
	attrs = append(attrs, "document", p.docPath, "ruleset", p.rsName, "entry", p.entryID)
	if action != "" {
		attrs = append(attrs, "action", action)
	}
	if path != "" {
		attrs = append(attrs, "path", path)
	}
	p.eng.logger.Warn(msg, attrs...)

	p.eng.emit(trace.Event{
		Kind:     trace.KindDiagnostic,
		Document: p.docPath,
		RuleSet:  p.rsName,
		EntryID:  p.entryID,
		Rule:     p.ruleName,
		Action:   action,
		Path:     path,
		Detail:   msg,
	})
	p.stats.Diagnostics++
}

// applied records a mutation performed by an action.
func (p *pass) applied(action, path, detail string) {
	p.stats.ActionsApplied++
	p.traceAction(action, path, detail, trace.OutcomeApplied)
}

func (p *pass) noop(action, path string) {
	p.traceAction(action, path, "absent, no-op", trace.OutcomeNoop)
}

func (p *pass) traceAction(action, path, detail, outcome string) {
	p.eng.emit(trace.Event{
		Kind:     trace.KindActionOutcome,
		Document: p.docPath,
		RuleSet:  p.rsName,
		EntryID:  p.entryID,
		Rule:     p.ruleName,
		Action:   action,
		Outcome:  outcome,
		Path:     path,
		Detail:   detail,
	})
}

func (e *Engine) emit(ev trace.Event) {
	e.sink.Emit(trace.Stamp(ev))
}

func unmetDeps(deps []string, completed map[string]bool) []string {
	var missing []string
	for _, dep := range deps {
		if !completed[dep] {
			missing = append(missing, dep)
		}
	}
	return missing
}

// sectionPattern matches the top-level keys a content category owns: the
// pluralized category name with an optional numeric suffix, so content
// "item" matches "items" and "items2" but not "itemsets".
func sectionPattern(content string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(pluralize(content)) + `\d*$`)
}

// pluralize appends an "s" unless the name already ends in one.
func pluralize(content string) string {
	if strings.HasSuffix(content, "s") {
		return content
	}
	return content + "s"
}
