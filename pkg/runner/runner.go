package runner

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mercator-hq/ganymede/pkg/codec"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/engine"
	"mercator-hq/ganymede/pkg/gml/ast"
	"mercator-hq/ganymede/pkg/gml/parser"
	"mercator-hq/ganymede/pkg/gml/validator"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
	"mercator-hq/ganymede/pkg/trace"
	"mercator-hq/ganymede/pkg/trace/store"
)

// Runner executes conversion runs over the configured input. Each Run
// call parses the rule file, discovers the input documents and applies
// every ruleset to each document through a single engine, so sequence
// counters span the whole invocation.
type Runner struct {
	cfg     *config.ConversionConfig
	logger  *slog.Logger
	sink    trace.Sink
	store   *store.Store
	metrics *metrics.Collector
	onFile  func(done, total int, path string)
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTraceSink attaches an additional trace sink to the engines the
// runner builds, alongside the store and metrics sinks.
func WithTraceSink(sink trace.Sink) Option {
	return func(r *Runner) {
		r.sink = sink
	}
}

// WithStore persists run rows and trace events to the given store.
func WithStore(s *store.Store) Option {
	return func(r *Runner) {
		r.store = s
	}
}

// WithMetrics records document and run counters on the given collector
// and attaches its event sink to the engine.
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Runner) {
		r.metrics = c
	}
}

// WithFileHook calls fn after each document, converted or failed. done
// counts finished documents including the current one.
func WithFileHook(fn func(done, total int, path string)) Option {
	return func(r *Runner) {
		r.onFile = fn
	}
}

// New creates a Runner for the given conversion configuration.
func New(cfg *config.ConversionConfig, opts ...Option) *Runner {
	r := &Runner{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "runner")
	return r
}

// Summary reports what one conversion run did.
type Summary struct {
	RunID          string
	RulesFile      string
	Files          int
	FilesConverted int
	FilesFailed    int
	Outputs        []string
	Stats          engine.Stats
	Duration       time.Duration
}

// Run executes one conversion. Per-document failures are logged and
// counted in the summary; Run itself returns an error only when the run
// cannot start at all: unreadable or invalid rule file, missing input,
// unusable output path.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	sum := &Summary{
		RunID:     uuid.NewString(),
		RulesFile: r.cfg.RulesFile,
	}

	rules, err := r.loadRules()
	if err != nil {
		return nil, err
	}

	jobs, err := planJobs(r.cfg)
	if err != nil {
		return nil, err
	}
	sum.Files = len(jobs)

	r.logger.Info("Conversion run started",
		"run_id", sum.RunID,
		"rules_file", sum.RulesFile,
		"files", sum.Files,
	)

	r.beginRun(ctx, sum, start)
	eng := r.newEngine(sum.RunID)

	for i, j := range jobs {
		if err := ctx.Err(); err != nil {
			sum.Duration = time.Since(start)
			r.finishRun(context.WithoutCancel(ctx), sum)
			return sum, err
		}
		r.convertOne(eng, rules, j, sum)
		if r.onFile != nil {
			r.onFile(i+1, sum.Files, j.input)
		}
	}

	sum.Duration = time.Since(start)
	r.finishRun(ctx, sum)
	if r.metrics != nil {
		r.metrics.RecordRun(sum.Duration)
	}

	r.logger.Info("Conversion run finished",
		"run_id", sum.RunID,
		"converted", sum.FilesConverted,
		"failed", sum.FilesFailed,
		"entries", sum.Stats.Entries,
		"rules_executed", sum.Stats.RulesExecuted,
		"actions_applied", sum.Stats.ActionsApplied,
		"diagnostics", sum.Stats.Diagnostics,
		"duration_ms", sum.Duration.Milliseconds(),
	)
	return sum, nil
}

func (r *Runner) convertOne(eng *engine.Engine, rules *ast.RuleFile, j job, sum *Summary) {
	doc, err := codec.DecodeFile(j.input)
	if err != nil {
		r.fileFailed(sum, j, err)
		return
	}

	sum.Stats.Add(eng.ApplyDocument(rules, doc))

	if err := writeDocument(doc, j.output); err != nil {
		r.fileFailed(sum, j, err)
		return
	}

	sum.FilesConverted++
	sum.Outputs = append(sum.Outputs, j.output)
	r.logger.Debug("Document converted", "input", j.input, "output", j.output)
	if r.metrics != nil {
		r.metrics.RecordDocument("converted")
	}
}

func (r *Runner) fileFailed(sum *Summary, j job, err error) {
	sum.FilesFailed++
	r.logger.Error("Document conversion failed", "input", j.input, "error", err)
	if r.metrics != nil {
		r.metrics.RecordDocument("failed")
	}
}

// loadRules parses and validates the rule file. Strict mode promotes
// validation warnings to errors.
func (r *Runner) loadRules() (*ast.RuleFile, error) {
	p := parser.NewParser().WithStrictMode(r.cfg.StrictValidation)
	file, err := p.Parse(r.cfg.RulesFile)
	if err != nil {
		return nil, err
	}
	v := validator.NewValidator().WithStrictMode(r.cfg.StrictValidation)
	if err := v.Validate(file); err != nil {
		return nil, err
	}
	return file, nil
}

// newEngine builds the engine for one run: a fresh sequence registry
// with the configured overrides and every attached sink fanned in.
func (r *Runner) newEngine(runID string) *engine.Engine {
	reg := engine.NewSequenceRegistry()
	for key, start := range r.cfg.SequenceOverrides {
		reg.SetOverride(key, start)
	}

	var sinks trace.MultiSink
	if r.sink != nil {
		sinks = append(sinks, r.sink)
	}
	if r.store != nil {
		sinks = append(sinks, r.store.Sink(runID))
	}
	if r.metrics != nil {
		sinks = append(sinks, r.metrics.Sink())
	}

	opts := []engine.Option{
		engine.WithLogger(r.logger),
		engine.WithRegistry(reg),
	}
	if len(sinks) > 0 {
		opts = append(opts, engine.WithTraceSink(sinks))
	}
	return engine.New(opts...)
}

// beginRun and finishRun record the run row. Trace persistence never
// aborts a conversion; failures are logged and dropped.
func (r *Runner) beginRun(ctx context.Context, sum *Summary, start time.Time) {
	if r.store == nil {
		return
	}
	run := &store.Run{ID: sum.RunID, StartedAt: start, RulesFile: sum.RulesFile}
	if err := r.store.BeginRun(ctx, run); err != nil {
		r.logger.Warn("Failed to record run start", "run_id", sum.RunID, "error", err)
	}
}

func (r *Runner) finishRun(ctx context.Context, sum *Summary) {
	if r.store == nil {
		return
	}
	finished := time.Now()
	run := &store.Run{
		ID:             sum.RunID,
		FinishedAt:     &finished,
		Documents:      sum.FilesConverted + sum.FilesFailed,
		Entries:        sum.Stats.Entries,
		RulesExecuted:  sum.Stats.RulesExecuted,
		RulesSkipped:   sum.Stats.RulesSkipped,
		ActionsApplied: sum.Stats.ActionsApplied,
		Diagnostics:    sum.Stats.Diagnostics,
	}
	if err := r.store.FinishRun(ctx, run); err != nil {
		r.logger.Warn("Failed to record run finish", "run_id", sum.RunID, "error", err)
	}
}
