package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/patchplan-ai/engine/compliance"
	"github.com/patchplan-ai/engine/depgraph"
	"github.com/patchplan-ai/engine/patch"
	"github.com/patchplan-ai/engine/plan"
	"github.com/patchplan-ai/engine/planerr"
	"github.com/patchplan-ai/engine/record"
	"github.com/patchplan-ai/engine/risk"
	"github.com/patchplan-ai/engine/schedule"
)

// Input is the complete set of values the pipeline consumes. Everything is
// resolved up front; no stage blocks on external I/O.
type Input struct {
	// Records are the vulnerability records to plan for.
	Records []record.VulnRecord

	// Notes are the vendor notes; zero, one, or many per record.
	Notes []record.VendorNote

	// Availability declares per-target busy intervals. Targets absent
	// from the map are always free.
	Availability map[string]schedule.Availability

	// Classifications maps target identifiers to their declared
	// regulatory classifications.
	Classifications map[string][]string

	// Signals are pre-resolved contextual relevance signals, keyed by
	// vulnerability ID. Optional.
	Signals map[string]*risk.ContextSignal

	// SignalProvider, when set, is queried once before scoring for
	// signals not already present in Signals. A provider failure degrades
	// to "no signal"; it never stalls the pipeline.
	SignalProvider SignalProvider
}

// Pipeline runs the staged transformation from vulnerability records to a
// deployment plan. Each stage consumes the complete output of the previous
// one; the whole run either completes or fails atomically, and re-running
// on identical inputs yields an identical plan.
type Pipeline struct {
	logger        *slog.Logger
	tracer        trace.Tracer
	metrics       *metrics
	scoringCfg    risk.Config
	policy        compliance.Policy
	planOpts      plan.Options
	signalTimeout time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the structured logger for stage progress.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithScoringConfig overrides the default scoring weights and thresholds.
func WithScoringConfig(cfg risk.Config) Option {
	return func(p *Pipeline) { p.scoringCfg = cfg }
}

// WithPolicy overrides the default compliance policy.
func WithPolicy(policy compliance.Policy) Option {
	return func(p *Pipeline) { p.policy = policy }
}

// WithClock injects the plan timestamp source for deterministic output.
func WithClock(clock func() time.Time) Option {
	return func(p *Pipeline) { p.planOpts.Clock = clock }
}

// WithIDFunc injects the plan identifier source for deterministic output.
func WithIDFunc(newID func() string) Option {
	return func(p *Pipeline) { p.planOpts.NewID = newID }
}

// WithSignalTimeout bounds how long the signal provider may take before
// the pipeline degrades to scoring without signals. Default 10s.
func WithSignalTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.signalTimeout = d }
}

// WithTracer sets the tracer used for per-stage spans. Defaults to the
// global tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Pipeline) { p.tracer = tracer }
}

// New creates a pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		logger:        slog.Default(),
		scoringCfg:    risk.DefaultConfig(),
		policy:        compliance.DefaultPolicy(),
		signalTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.tracer == nil {
		p.tracer = otel.Tracer(tracerName)
	}
	p.metrics = newMetrics()
	return p
}

// Run executes the full pipeline: validate, resolve signals, score, build
// the dependency graph, schedule, annotate, assemble.
//
// Fatal errors (ingestion, cyclic dependency, assembly) abort the run and
// name the offending identifiers. Unschedulable patches are non-fatal:
// they appear in the plan's unscheduled list with their blocking reason
// while independent patches keep their slots.
func (p *Pipeline) Run(ctx context.Context, input Input) (*plan.Plan, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.run")
	defer span.End()

	if err := p.validate(ctx, input); err != nil {
		return nil, err
	}

	notes := record.ResolveNotes(input.Notes)
	signals := p.resolveSignals(ctx, input)

	patches := p.score(ctx, input.Records, notes, signals)

	edges, err := p.buildGraph(ctx, patches, notes)
	if err != nil {
		return nil, err
	}

	result, err := p.runScheduler(ctx, patches, edges, input.Availability)
	if err != nil {
		return nil, err
	}

	annotator := compliance.NewAnnotator(p.policy)
	p.annotate(ctx, annotator, patches, input.Classifications)

	return p.assemble(ctx, annotator, result)
}

func (p *Pipeline) validate(ctx context.Context, input Input) error {
	_, span := p.tracer.Start(ctx, "pipeline.validate")
	defer span.End()

	seen := make(map[string]struct{}, len(input.Records))
	for i := range input.Records {
		rec := &input.Records[i]
		if err := rec.Validate(); err != nil {
			return err
		}
		if _, dup := seen[rec.ID]; dup {
			return planerr.New("ingest", planerr.ErrCodeIngestion, "duplicate record ID", rec.ID)
		}
		seen[rec.ID] = struct{}{}
	}

	for i := range input.Notes {
		note := &input.Notes[i]
		if err := note.Validate(); err != nil {
			return err
		}
		if _, known := seen[note.VulnerabilityID]; !known {
			return planerr.New("ingest", planerr.ErrCodeIngestion,
				"vendor note references an unknown vulnerability", note.VulnerabilityID)
		}
	}

	p.logger.Info("input validated",
		"records", len(input.Records),
		"notes", len(input.Notes))
	return nil
}

func (p *Pipeline) score(ctx context.Context, records []record.VulnRecord,
	notes map[string]*record.VendorNote, signals map[string]*risk.ContextSignal) []*patch.Patch {

	_, span := p.tracer.Start(ctx, "pipeline.score")
	defer span.End()

	scorer := risk.NewScorer(p.scoringCfg)
	patches := scorer.Assess(records, notes, signals)

	span.SetAttributes(attribute.Int("patches.count", len(patches)))
	p.metrics.scored.Add(ctx, int64(len(patches)))
	p.logger.Info("records scored", "patches", len(patches))
	return patches
}

func (p *Pipeline) buildGraph(ctx context.Context, patches []*patch.Patch,
	notes map[string]*record.VendorNote) ([]depgraph.Edge, error) {

	_, span := p.tracer.Start(ctx, "pipeline.depgraph")
	defer span.End()

	edges, err := depgraph.Build(patches, notes)
	if err != nil {
		p.logger.Error("dependency graph construction failed", "error", err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("edges.count", len(edges)))
	p.logger.Info("dependency graph built", "edges", len(edges))
	return edges, nil
}

func (p *Pipeline) runScheduler(ctx context.Context, patches []*patch.Patch,
	edges []depgraph.Edge, availability map[string]schedule.Availability) (*schedule.Result, error) {

	_, span := p.tracer.Start(ctx, "pipeline.schedule")
	defer span.End()

	result, err := schedule.Schedule(patches, edges, availability)
	if err != nil {
		return nil, fmt.Errorf("scheduling failed: %w", err)
	}

	for _, schedErr := range result.Errors {
		p.logger.Warn("patch could not be scheduled", "error", schedErr)
	}

	span.SetAttributes(
		attribute.Int("patches.scheduled", len(result.Scheduled)),
		attribute.Int("patches.unscheduled", len(result.Unscheduled)),
	)
	p.metrics.scheduled.Add(ctx, int64(len(result.Scheduled)))
	p.metrics.unscheduled.Add(ctx, int64(len(result.Unscheduled)))
	p.logger.Info("scheduling complete",
		"scheduled", len(result.Scheduled),
		"unscheduled", len(result.Unscheduled))
	return result, nil
}

func (p *Pipeline) annotate(ctx context.Context, annotator *compliance.Annotator,
	patches []*patch.Patch, classifications map[string][]string) {

	_, span := p.tracer.Start(ctx, "pipeline.annotate")
	defer span.End()

	annotator.AnnotateAll(patches, classifications)
	p.logger.Info("compliance annotation complete", "patches", len(patches))
}

func (p *Pipeline) assemble(ctx context.Context, annotator *compliance.Annotator,
	result *schedule.Result) (*plan.Plan, error) {

	_, span := p.tracer.Start(ctx, "pipeline.assemble")
	defer span.End()

	reasons := make(map[string]string, len(result.Errors))
	for _, schedErr := range result.Errors {
		if len(schedErr.IDs) > 0 {
			reasons[schedErr.IDs[0]] = schedErr.Error()
		}
	}

	opts := p.planOpts
	opts.ResolveTimeline = annotator.StrictestTimeline

	doc, err := plan.Assemble(result.Scheduled, result.Unscheduled, reasons, opts)
	if err != nil {
		p.logger.Error("plan assembly failed", "error", err)
		return nil, err
	}

	p.logger.Info("plan assembled",
		"plan_id", doc.ID,
		"entries", len(doc.Entries),
		"unscheduled", len(doc.Unscheduled))
	return doc, nil
}
