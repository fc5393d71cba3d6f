package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoSim-25-26J-441/netgen/internal/metrics"
	"github.com/GoSim-25-26J-441/netgen/internal/network"
	"github.com/GoSim-25-26J-441/netgen/internal/observability"
	"github.com/GoSim-25-26J-441/netgen/internal/scenario"
	"github.com/GoSim-25-26J-441/netgen/internal/topology"
	"github.com/GoSim-25-26J-441/netgen/internal/traffic"
	"github.com/GoSim-25-26J-441/netgen/pkg/config"
	"github.com/GoSim-25-26J-441/netgen/pkg/logger"
	"github.com/GoSim-25-26J-441/netgen/pkg/models"
	"github.com/GoSim-25-26J-441/netgen/pkg/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// TopologyBuilder builds the topology of one scenario
type TopologyBuilder interface {
	Build(params models.ScenarioParams) (*topology.Topology, error)
}

// Orchestrator runs a batch of scenarios through
// generate, build, assign, simulate, extract and write
type Orchestrator struct {
	cfg       *config.Config
	generator *scenario.Generator
	builder   TopologyBuilder
	assigner  *traffic.Assigner
	extractor *metrics.Extractor
	sink      Sink
	metrics   *observability.BatchMetrics
	tracer    trace.Tracer
	logger    *slog.Logger
	backoff   utils.BackoffStrategy
	timeout   time.Duration
	end       time.Duration
	batchID   string
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithBuilder replaces the topology builder
func WithBuilder(b TopologyBuilder) Option {
	return func(o *Orchestrator) { o.builder = b }
}

// WithSink replaces the output sink
func WithSink(s Sink) Option {
	return func(o *Orchestrator) { o.sink = s }
}

// WithMetrics records batch progress on m
func WithMetrics(m *observability.BatchMetrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithTracer emits batch, scenario and stage spans on t
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithBatchID fixes the batch ID instead of generating one
func WithBatchID(id string) Option {
	return func(o *Orchestrator) { o.batchID = id }
}

// New validates cfg and creates an orchestrator. By default outputs go to
// cfg.Batch.OutputDir.
func New(cfg *config.Config, opts ...Option) (*Orchestrator, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	timeout, err := cfg.Batch.GetScenarioTimeout()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	base, err := cfg.Batch.GetRetryBase()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	o := &Orchestrator{
		cfg:       cfg,
		generator: scenario.NewGenerator(cfg.Batch.Seed, cfg.Topology.Tiers),
		builder:   topology.NewBuilder(cfg.Topology),
		assigner:  traffic.NewAssigner(cfg.Traffic, cfg.Simulation),
		extractor: metrics.NewExtractor(cfg.QoS),
		sink:      NewDirSink(cfg.Batch.OutputDir),
		tracer:    observability.Tracer(),
		logger:    logger.Default,
		backoff:   utils.BackoffFromConfig(cfg.Batch.RetryBackoff, base, 0),
		timeout:   timeout,
		end:       utils.SecondsToDuration(cfg.Simulation.EndS),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.batchID == "" {
		o.batchID = utils.GenerateBatchID()
	}
	return o, nil
}

// BatchID returns the identifier of the batch
func (o *Orchestrator) BatchID() string {
	return o.batchID
}

// Run processes scenarios 0..N-1 on a bounded worker pool. A failed scenario
// is recorded against its index and never stops the batch; the report always
// holds N outcomes. The returned error is only set when the manifest cannot
// be written or ctx ends before the batch completes.
func (o *Orchestrator) Run(ctx context.Context) (*models.BatchReport, error) {
	report := &models.BatchReport{
		BatchID:   o.batchID,
		Seed:      o.cfg.Batch.Seed,
		StartTime: time.Now(),
	}
	o.logger.Info("Starting batch",
		"batch_id", o.batchID,
		"seed", o.cfg.Batch.Seed,
		"scenarios", o.cfg.Batch.Scenarios,
		"workers", o.cfg.Batch.Workers)

	ctx, span := observability.StartSpan(ctx, o.tracer, "batch",
		attribute.String("netgen.batch_id", o.batchID),
		attribute.Int("netgen.scenarios", o.cfg.Batch.Scenarios))

	var g errgroup.Group
	g.SetLimit(o.cfg.Batch.Workers)
	for i := 0; i < o.cfg.Batch.Scenarios; i++ {
		index := i
		g.Go(func() error {
			report.Record(o.runScenario(ctx, index))
			return nil
		})
	}
	_ = g.Wait()
	report.Finish(time.Now())

	err := ctx.Err()
	if werr := utils.Retry(context.WithoutCancel(ctx), o.cfg.Batch.WriteAttempts, o.backoff, func() error {
		return o.sink.WriteManifest(context.WithoutCancel(ctx), report)
	}); werr != nil {
		werr = fmt.Errorf("%w: manifest: %w", ErrOutput, werr)
		if err == nil {
			err = werr
		}
	}
	observability.EndSpan(span, err)

	o.logger.Info("Batch completed",
		"batch_id", o.batchID,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"wall_time", report.EndTime.Sub(report.StartTime))
	return report, err
}

// runScenario runs one index end to end and converts the result to an outcome
func (o *Orchestrator) runScenario(ctx context.Context, index int) models.ScenarioOutcome {
	started := time.Now()
	log := logger.ForScenario(o.logger, index, models.ScenarioID(index))
	o.metrics.ScenarioStarted()

	ctx, span := observability.StartSpan(ctx, o.tracer, "scenario", attribute.Int("netgen.scenario_index", index))

	out, err := o.Simulate(ctx, index)
	if err == nil {
		err = o.write(ctx, out)
	}

	outcome := models.ScenarioOutcome{
		Index:      index,
		ScenarioID: models.ScenarioID(index),
		SubSeed:    o.generator.SubSeed(index),
		Status:     models.ScenarioStatusSucceeded,
		Elapsed:    time.Since(started),
	}
	if err != nil {
		outcome.Status = models.ScenarioStatusFailed
		outcome.ErrorKind = Classify(err)
		outcome.Error = err.Error()
		log.Warn("Scenario failed", "error_kind", outcome.ErrorKind, "error", err)
		out = nil
	} else {
		outcome.Flows = len(out.Flows)
		outcome.QoSSatisfied = out.QoSSatisfiedCount()
		outcome.Events = out.Events
		log.Info("Scenario completed",
			"flows", outcome.Flows,
			"qos_satisfied", outcome.QoSSatisfied,
			"events", outcome.Events,
			"wall_time", outcome.Elapsed)
	}

	span.SetAttributes(attribute.String("netgen.status", string(outcome.Status)))
	observability.EndSpan(span, err)
	o.metrics.ScenarioFinished(outcome, out)
	return outcome
}

// Simulate runs the pipeline of one scenario under the per-scenario timeout
// without writing anything
func (o *Orchestrator) Simulate(ctx context.Context, index int) (*models.ScenarioOutput, error) {
	started := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	params, err := stage(ctx, o.tracer, "generate", func() (models.ScenarioParams, error) {
		return o.generator.Generate(index)
	})
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	topo, err := stage(ctx, o.tracer, "build", func() (*topology.Topology, error) {
		return o.builder.Build(params)
	})
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	s := &models.Scenario{Params: params, Nodes: topo.Nodes(), Links: topo.Links()}
	_, err = stage(ctx, o.tracer, "assign", func() (struct{}, error) {
		profiles, flows, err := o.assigner.Assign(topo, params)
		s.Profiles, s.Flows = profiles, flows
		return struct{}{}, err
	})
	if err != nil {
		return nil, fmt.Errorf("assign: %w", err)
	}

	state, err := stage(ctx, o.tracer, "simulate", func() (*network.State, error) {
		sim, err := network.New(s, network.WithLogger(logger.ForScenario(o.logger, index, s.ID())))
		if err != nil {
			return nil, err
		}
		return sim.Run(ctx, o.end)
	})
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}

	flows, links := o.extractor.Extract(s, state)
	return &models.ScenarioOutput{
		Scenario: s,
		Flows:    flows,
		Links:    links,
		Events:   state.Events,
		Elapsed:  time.Since(started),
	}, nil
}

// write persists one output, retrying with the configured backoff
func (o *Orchestrator) write(ctx context.Context, out *models.ScenarioOutput) error {
	_, span := observability.StartSpan(ctx, o.tracer, "write")
	err := utils.Retry(ctx, o.cfg.Batch.WriteAttempts, o.backoff, func() error {
		return o.sink.WriteScenario(ctx, out)
	})
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrOutput, err)
	}
	observability.EndSpan(span, err)
	return err
}

// stage runs fn inside a child span of ctx
func stage[T any](ctx context.Context, tracer trace.Tracer, name string, fn func() (T, error)) (T, error) {
	_, span := observability.StartSpan(ctx, tracer, name)
	v, err := fn()
	observability.EndSpan(span, err)
	return v, err
}
