package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/netgen/pkg/models"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}

	leaf := cfg.Topology.Tiers[models.TierLeaf]
	if leaf.Min != 150 || leaf.Max != 200 {
		t.Errorf("Expected leaf range [150,200], got [%d,%d]", leaf.Min, leaf.Max)
	}
	if cfg.Topology.Wired.BandwidthBps() != 10e9 {
		t.Errorf("Expected 10 Gbps wired links, got %f", cfg.Topology.Wired.BandwidthBps())
	}
	if cfg.Topology.Wired.Delay() != 5*time.Millisecond {
		t.Errorf("Expected 5ms wired delay, got %v", cfg.Topology.Wired.Delay())
	}
	if cfg.QoS.MaxLatencyMs != 100 || cfg.QoS.MinThroughputMbps != 2 || cfg.QoS.MaxLossPct != 5 {
		t.Errorf("Unexpected default QoS thresholds: %+v", cfg.QoS)
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("../../config/netgen.yaml")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Batch.Seed != 20240601 {
		t.Errorf("Expected seed 20240601, got %d", cfg.Batch.Seed)
	}
	if cfg.Batch.Workers != 4 {
		t.Errorf("Expected 4 workers, got %d", cfg.Batch.Workers)
	}
	timeout, err := cfg.Batch.GetScenarioTimeout()
	if err != nil {
		t.Fatalf("Failed to parse scenario timeout: %v", err)
	}
	if timeout != 60*time.Second {
		t.Errorf("Expected 60s timeout, got %v", timeout)
	}

	// model baselines come from defaults
	if cfg.Traffic.Models[models.ModelHeavy].FrameSizeBytes != 2000 {
		t.Errorf("Expected heavy frame size 2000, got %f", cfg.Traffic.Models[models.ModelHeavy].FrameSizeBytes)
	}
}

func TestLoadWarehouseConfig(t *testing.T) {
	cfg, err := LoadConfig("../../config/warehouse.yaml")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if !cfg.Topology.Tiers[models.TierAggregation].Empty() {
		t.Error("Expected aggregation tier to be removed")
	}
	if !cfg.Topology.Tiers[models.TierCore].Empty() {
		t.Error("Expected core tier to be removed")
	}
	if len(cfg.Traffic.Overrides) != 1 {
		t.Fatalf("Expected 1 override, got %d", len(cfg.Traffic.Overrides))
	}
	o := cfg.Traffic.Overrides[0]
	if o.ModelClass != models.ModelMedium || o.ProcessingTier != models.TierLeaf {
		t.Errorf("Unexpected override: %+v", o)
	}
	// untouched sections keep their defaults
	if cfg.Topology.Wired.QueuePackets != 100 {
		t.Errorf("Expected default queue capacity, got %d", cfg.Topology.Wired.QueuePackets)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

func TestParseConfigYAMLInvalid(t *testing.T) {
	tests := []struct {
		name     string
		yamlText string
	}{
		{
			name:     "Malformed yaml",
			yamlText: "batch: [",
		},
		{
			name:     "Invalid log level",
			yamlText: "log_level: verbose",
		},
		{
			name: "Empty range",
			yamlText: `
topology:
  tiers:
    access: {min: 15, max: 10}`,
		},
		{
			name: "Negative range",
			yamlText: `
topology:
  tiers:
    leaf: {min: -1, max: 10}`,
		},
		{
			name: "Cloud tier removed",
			yamlText: `
topology:
  tiers:
    cloud: {min: 0, max: 0}`,
		},
		{
			name: "Unknown tier",
			yamlText: `
topology:
  tiers:
    edge: {min: 1, max: 1}`,
		},
		{
			name:     "Zero workers",
			yamlText: "batch: {workers: 0}",
		},
		{
			name:     "Bad timeout",
			yamlText: "batch: {scenario_timeout: soon}",
		},
		{
			name:     "Inverted horizon",
			yamlText: "simulation: {start_s: 5, stop_s: 2, end_s: 22}",
		},
		{
			name:     "Unknown assignment",
			yamlText: "traffic: {model_assignment: weighted}",
		},
		{
			name: "Cloud processing override",
			yamlText: `
traffic:
  overrides:
    - leaf: 1
      processing: cloud`,
		},
		{
			name: "Duplicate override",
			yamlText: `
traffic:
  overrides:
    - {leaf: 1, model: small}
    - {leaf: 1, model: heavy}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfigYAMLString(tt.yamlText)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestValidateRejectsZeroClamps(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *ModelTable)
	}{
		{"Zero frame size clamp", func(m *ModelTable) { m.FrameSizeSpread = Spread{RelStdDev: 5, Min: 0} }},
		{"Sub-byte result size clamp", func(m *ModelTable) { m.ResultSizeSpread.Min = 0.4 }},
		{"Zero inference clamp", func(m *ModelTable) { m.InferenceSpread.Min = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			table := cfg.Traffic.Models[models.ModelMedium]
			tt.mutate(&table)
			cfg.Traffic.Models[models.ModelMedium] = table

			err := Validate(cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	cfg := DefaultConfig()
	table := cfg.Traffic.Models[models.ModelSmall]
	table.FrameSizeSpread.Min = 1
	cfg.Traffic.Models[models.ModelSmall] = table
	if err := Validate(cfg); err != nil {
		t.Errorf("A one-byte clamp should be accepted: %v", err)
	}
}

func TestValidateTiersOptional(t *testing.T) {
	tiers := DefaultConfig().Topology.Tiers
	tiers[models.TierAggregation] = Range{}
	if err := ValidateTiers(tiers); err != nil {
		t.Errorf("Removing aggregation should be allowed: %v", err)
	}

	tiers[models.TierAggregation] = Range{Min: 0, Max: 3}
	if err := ValidateTiers(tiers); err == nil {
		t.Error("A range that may draw zero nodes should be rejected")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Batch.Seed = 99

	data, err := Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	parsed, err := ParseConfigYAML(data)
	if err != nil {
		t.Fatalf("Failed to parse marshalled config: %v", err)
	}
	if parsed.Batch.Seed != 99 {
		t.Errorf("Expected seed 99, got %d", parsed.Batch.Seed)
	}
}
