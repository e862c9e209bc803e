package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/signalsfoundry/satrouting/internal/logging"
	"github.com/signalsfoundry/satrouting/internal/observability"
	"github.com/signalsfoundry/satrouting/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Search outcome labels reported to the metrics collector.
const (
	OutcomeDetourFound  = "detour_found"
	OutcomeBaselineOnly = "baseline_only"
	OutcomeBelowTarget  = "below_target"
)

// Result is the output of one analysis run: the baseline path, the weight
// target derived from it, and the detour if one was found. A nil Detour
// with a nil error means the caller should fall back to the baseline.
type Result struct {
	Baseline     model.Path
	TargetWeight float64
	Detour       *Detour
}

// Analyzer runs the zone-constrained detour analysis over one immutable
// topology snapshot. The canonical graph, position model, and zone
// membership are built once and shared read-only by every search trial.
type Analyzer struct {
	cfg       *Config
	graph     *Graph
	positions *PositionModel
	zones     *ZoneLocator

	log       logging.Logger
	collector *observability.RoutingCollector
	tracer    trace.Tracer
}

// AnalyzerOption customises analyzer construction.
type AnalyzerOption func(*Analyzer)

// WithLogger attaches a structured logger.
func WithLogger(log logging.Logger) AnalyzerOption {
	return func(a *Analyzer) { a.log = log }
}

// WithCollector attaches a metrics collector.
func WithCollector(c *observability.RoutingCollector) AnalyzerOption {
	return func(a *Analyzer) { a.collector = c }
}

// NewAnalyzer validates the configuration against the snapshot, derives the
// position model and zone membership, and returns an analyzer ready to run.
func NewAnalyzer(g *Graph, cfg *Config, opts ...AnalyzerOption) (*Analyzer, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: graph is nil", ErrBadConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Analyzer{
		cfg:    cfg,
		graph:  g,
		log:    logging.Noop(),
		tracer: otel.Tracer("satrouting/core"),
	}
	for _, opt := range opts {
		opt(a)
	}

	pm, err := NewPositionModel(g, cfg.SatsPerPlane, cfg.GroundStations)
	if err != nil {
		return nil, err
	}
	zones, err := LocateZones(g, pm, cfg.Zones)
	if err != nil {
		return nil, err
	}
	a.positions = pm
	a.zones = zones

	for i := 0; i < zones.ZoneCount(); i++ {
		a.collector.SetZoneMembers(i, len(zones.Members(i)))
	}
	return a, nil
}

// Positions exposes the computed position model for rendering.
func (a *Analyzer) Positions() *PositionModel { return a.positions }

// Zones exposes the computed zone membership for rendering.
func (a *Analyzer) Zones() *ZoneLocator { return a.zones }

// Run executes one deterministic analysis between the configured endpoints.
// Only baseline disconnection is fatal; a missing detour is reported through
// Result.Detour == nil, and an under-target detour carries BelowTarget.
func (a *Analyzer) Run(ctx context.Context) (*Result, error) {
	source, target := a.cfg.Endpoints()
	ctx, span := a.tracer.Start(ctx, "routing.analysis", trace.WithAttributes(
		attribute.Int("source", int(source)),
		attribute.Int("target", int(target)),
		attribute.Float64("target_factor", a.cfg.TargetFactor),
	))
	defer span.End()

	ctx, log := logging.WithRunLogger(ctx, a.log)

	base, err := a.computeBaseline(ctx, source, target)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "baseline computed",
		logging.Float64("weight", base.Path.Weight),
		logging.Float64("target_weight", base.TargetWeight),
		logging.Int("hops", base.Path.Len()-1),
	)

	detour, err := a.buildDetour(ctx, base)
	result := &Result{Baseline: base.Path, TargetWeight: base.TargetWeight, Detour: detour}
	switch {
	case errors.Is(err, ErrNoDetourFound):
		log.Warn(ctx, "no qualifying detour; reporting baseline only", logging.String("error", err.Error()))
		a.collector.ObserveSearch(OutcomeBaselineOnly)
		result.Detour = nil
		return result, nil
	case errors.Is(err, ErrInsertionExhausted):
		log.Warn(ctx, "detour below target weight",
			logging.Float64("weight", detour.Path.Weight),
			logging.Float64("target_weight", base.TargetWeight),
		)
		a.collector.ObserveSearch(OutcomeBelowTarget)
		a.collector.ObserveWeightRatio(detour.Path.Weight / base.Path.Weight)
		return result, nil
	case err != nil:
		return nil, err
	}

	log.Info(ctx, "detour found",
		logging.String("strategy", detour.Strategy),
		logging.Float64("weight", detour.Path.Weight),
		logging.Int("zones_visited", len(detour.VisitedZones)),
	)
	a.collector.ObserveSearch(OutcomeDetourFound)
	a.collector.ObserveWeightRatio(detour.Path.Weight / base.Path.Weight)
	return result, nil
}

func (a *Analyzer) computeBaseline(ctx context.Context, source, target model.NodeID) (*Baseline, error) {
	_, span := a.tracer.Start(ctx, "routing.baseline")
	defer span.End()

	base, err := ComputeBaseline(a.graph, source, target, a.cfg.TargetFactor)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(
		attribute.Float64("weight", base.Path.Weight),
		attribute.Int("excluded_edges", len(base.Excluded)/2),
	)
	return base, nil
}

func (a *Analyzer) buildDetour(ctx context.Context, base *Baseline) (*Detour, error) {
	ctx, span := a.tracer.Start(ctx, "routing.detour_search")
	defer span.End()

	builder := NewDetourBuilder(a.graph, a.positions, a.zones, base, a.log, a.collector)
	detour, err := builder.Build(ctx)
	if err != nil {
		span.RecordError(err)
		return detour, err
	}
	span.SetAttributes(
		attribute.String("strategy", detour.Strategy),
		attribute.Float64("weight", detour.Path.Weight),
	)
	return detour, nil
}
