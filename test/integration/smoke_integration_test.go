//go:build integration
// +build integration

package integration_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/GoSim-25-26J-441/netgen/internal/orchestrator"
	"github.com/GoSim-25-26J-441/netgen/pkg/config"
	"github.com/GoSim-25-26J-441/netgen/pkg/logger"
	"github.com/GoSim-25-26J-441/netgen/pkg/models"
)

// Full-size scenarios with the default 150-200 leaf hierarchy
func TestIntegration_FullSizeBatchSmoke(t *testing.T) {
	cfgPath := filepath.Join("..", "..", "config", "netgen.yaml")
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		t.Fatalf("LoadConfig(%s) failed: %v", cfgPath, err)
	}
	cfg.Batch.Scenarios = 2
	cfg.Batch.Workers = 2
	cfg.Batch.OutputDir = t.TempDir()

	o, err := orchestrator.New(cfg, orchestrator.WithLogger(logger.Discard()))
	if err != nil {
		t.Fatalf("orchestrator.New failed: %v", err)
	}
	report, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Succeeded != 2 {
		t.Fatalf("expected 2 succeeded scenarios, got %+v", report.Outcomes)
	}

	for _, outcome := range report.Outcomes {
		if outcome.Flows < 300 || outcome.Flows > 400 {
			t.Errorf("scenario %d: expected 2 flows per leaf for 150-200 leaves, got %d", outcome.Index, outcome.Flows)
		}

		dir := orchestrator.NewDirSink(cfg.Batch.OutputDir).ScenarioDir(outcome.Index)
		data, err := os.ReadFile(filepath.Join(dir, orchestrator.FlowRecordFile))
		if err != nil {
			t.Fatalf("reading flow records: %v", err)
		}
		records, err := orchestrator.DecodeFlowRecords(data)
		if err != nil {
			t.Fatalf("decoding flow records: %v", err)
		}
		if len(records) != outcome.Flows {
			t.Errorf("scenario %d: expected %d flow records, got %d", outcome.Index, outcome.Flows, len(records))
		}
		for _, r := range records {
			if r.OfferedPackets != r.DeliveredPackets+r.LostPackets {
				t.Fatalf("scenario %d flow %d: packets not conserved", outcome.Index, r.FlowID)
			}
			if r.DestinationTier == "" {
				t.Fatalf("scenario %d flow %d: missing destination tier", outcome.Index, r.FlowID)
			}
		}
	}

	if _, err := os.Stat(filepath.Join(cfg.Batch.OutputDir, orchestrator.ManifestFile)); err != nil {
		t.Fatalf("manifest missing: %v", err)
	}
}

func TestIntegration_WarehouseConfigSmoke(t *testing.T) {
	cfgPath := filepath.Join("..", "..", "config", "warehouse.yaml")
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		t.Fatalf("LoadConfig(%s) failed: %v", cfgPath, err)
	}
	cfg.Batch.OutputDir = t.TempDir()

	o, err := orchestrator.New(cfg, orchestrator.WithLogger(logger.Discard()))
	if err != nil {
		t.Fatalf("orchestrator.New failed: %v", err)
	}
	out, err := o.Simulate(context.Background(), 0)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if got := out.Scenario.Params.Size(models.TierLeaf); got != 6 {
		t.Fatalf("expected 6 leaves, got %d", got)
	}
	for _, l := range out.Links {
		if !l.Conserved() {
			t.Errorf("link %d %s->%s not conserved: %+v", l.LinkID, l.From, l.To, l)
		}
	}
}
