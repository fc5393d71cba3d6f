package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/GoSim-25-26J-441/netgen/internal/observability"
	"github.com/GoSim-25-26J-441/netgen/internal/orchestrator"
	"github.com/GoSim-25-26J-441/netgen/pkg/config"
	"github.com/GoSim-25-26J-441/netgen/pkg/logger"
	"github.com/GoSim-25-26J-441/netgen/pkg/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
)

const tracesFile = "traces.jsonl"

type runOptions struct {
	outputDir   string
	seed        int64
	scenarios   int
	workers     int
	metricsAddr string
	healthAddr  string
	tracing     bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate, simulate and label a batch of scenarios.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig(cmd)
			if err != nil {
				return err
			}
			opts.apply(cmd, cfg)
			if err := config.Validate(cfg); err != nil {
				return err
			}
			return runBatch(cmd, root, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.outputDir, "output", "o", "", "output directory; overrides batch.output_dir")
	flags.Int64Var(&opts.seed, "seed", 0, "global seed; overrides batch.seed")
	flags.IntVarP(&opts.scenarios, "scenarios", "n", 0, "number of scenarios; overrides batch.scenarios")
	flags.IntVarP(&opts.workers, "workers", "w", 0, "parallel scenarios; overrides batch.workers")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	flags.StringVar(&opts.healthAddr, "health-addr", "", "serve gRPC health checks on this address")
	flags.BoolVar(&opts.tracing, "tracing", false, "write OpenTelemetry spans to <output>/"+tracesFile)
	return cmd
}

// apply copies the flags the user set onto cfg
func (o *runOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Batch.OutputDir = o.outputDir
	}
	if flags.Changed("seed") {
		cfg.Batch.Seed = o.seed
	}
	if flags.Changed("scenarios") {
		cfg.Batch.Scenarios = o.scenarios
	}
	if flags.Changed("workers") {
		cfg.Batch.Workers = o.workers
	}
	if flags.Changed("metrics-addr") {
		cfg.Observability.MetricsAddr = o.metricsAddr
	}
	if flags.Changed("health-addr") {
		cfg.Observability.HealthAddr = o.healthAddr
	}
	if flags.Changed("tracing") {
		cfg.Observability.Tracing = o.tracing
	}
}

func runBatch(cmd *cobra.Command, root *rootOptions, cfg *config.Config) error {
	ctx := cmd.Context()
	root.newLogger(cmd, cfg)
	batchID := utils.GenerateBatchID()
	log := logger.With("batch_id", batchID)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	opts := []orchestrator.Option{
		orchestrator.WithLogger(log),
		orchestrator.WithBatchID(batchID),
		orchestrator.WithMetrics(observability.NewBatchMetrics(reg)),
	}

	obs := cfg.Observability
	var srv *observability.Server
	if obs.MetricsAddr != "" || obs.HealthAddr != "" {
		srv = observability.NewServer(reg, log)
		if obs.MetricsAddr != "" {
			lis, err := net.Listen("tcp", obs.MetricsAddr)
			if err != nil {
				return fmt.Errorf("failed to listen for metrics: %w", err)
			}
			srv.ServeMetrics(lis)
		}
		if obs.HealthAddr != "" {
			lis, err := net.Listen("tcp", obs.HealthAddr)
			if err != nil {
				return fmt.Errorf("failed to listen for health checks: %w", err)
			}
			srv.ServeHealth(lis)
		}
		srv.SetServing(true)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("observability shutdown error", "error", err)
			}
		}()
	}

	if obs.Tracing {
		if err := os.MkdirAll(cfg.Batch.OutputDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		f, err := os.Create(filepath.Join(cfg.Batch.OutputDir, tracesFile))
		if err != nil {
			return fmt.Errorf("failed to create trace file: %w", err)
		}
		defer f.Close()
		tp, err := observability.NewTracerProvider(f, batchID)
		if err != nil {
			return err
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("tracer shutdown error", "error", err)
			}
		}()
		otel.SetTracerProvider(tp)
		logger.Debug("tracing enabled", "file", f.Name())
		opts = append(opts, orchestrator.WithTracer(tp.Tracer(observability.TracerName)))
	}

	o, err := orchestrator.New(cfg, opts...)
	if err != nil {
		return err
	}
	report, err := o.Run(ctx)
	if srv != nil {
		srv.SetServing(false)
	}
	if err != nil {
		return err
	}
	if report.Failed > 0 {
		logger.Warn("batch finished with failed scenarios", "batch_id", report.BatchID, "failed", report.Failed)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "batch %s: %d succeeded, %d failed, output in %s\n",
		report.BatchID, report.Succeeded, report.Failed, cfg.Batch.OutputDir)
	return nil
}
