package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/GoSim-25-26J-441/netgen/pkg/models"
)

// ErrInvalidConfig is wrapped by every configuration validation failure
var ErrInvalidConfig = errors.New("invalid config")

// LoadConfig loads and parses a configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseConfigYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate checks the configuration before any scenario runs
func Validate(cfg *Config) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return invalid("invalid log_level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return invalid("invalid log_format: %s (must be json or text)", cfg.LogFormat)
	}

	if err := validateBatch(&cfg.Batch); err != nil {
		return err
	}
	if err := ValidateTiers(cfg.Topology.Tiers); err != nil {
		return err
	}
	if err := validateLink("wireless", cfg.Topology.Wireless); err != nil {
		return err
	}
	if err := validateLink("wired", cfg.Topology.Wired); err != nil {
		return err
	}
	if err := validateTraffic(&cfg.Traffic); err != nil {
		return err
	}

	sim := cfg.Simulation
	if sim.StartS < 0 || sim.StopS <= sim.StartS || sim.EndS < sim.StopS {
		return invalid("simulation horizon must satisfy 0 <= start_s < stop_s <= end_s, got %g/%g/%g",
			sim.StartS, sim.StopS, sim.EndS)
	}

	q := cfg.QoS
	if q.MaxLatencyMs < 0 || q.MinThroughputMbps < 0 || q.MaxLossPct < 0 || q.MinActiveWindowS < 0 {
		return invalid("qos thresholds cannot be negative")
	}
	if q.MaxLossPct > 100 {
		return invalid("qos max_loss_pct must be at most 100, got %g", q.MaxLossPct)
	}

	return nil
}

func validateBatch(b *BatchConfig) error {
	if b.Scenarios < 0 {
		return invalid("batch scenarios cannot be negative, got %d", b.Scenarios)
	}
	if b.Workers < 1 {
		return invalid("batch workers must be at least 1, got %d", b.Workers)
	}
	if d, err := b.GetScenarioTimeout(); err != nil || d <= 0 {
		return invalid("invalid batch scenario_timeout %q", b.ScenarioTimeout)
	}
	if b.OutputDir == "" {
		return invalid("batch output_dir cannot be empty")
	}
	if b.WriteAttempts < 1 {
		return invalid("batch write_attempts must be at least 1, got %d", b.WriteAttempts)
	}
	validBackoffs := map[string]bool{
		"exponential": true,
		"linear":      true,
		"constant":    true,
	}
	if !validBackoffs[b.RetryBackoff] {
		return invalid("invalid retry_backoff: %s (must be exponential, linear, or constant)", b.RetryBackoff)
	}
	if d, err := b.GetRetryBase(); err != nil || d < 0 {
		return invalid("invalid batch retry_base %q", b.RetryBase)
	}
	return nil
}

// ValidateTiers checks the tier size ranges. A {0,0} range removes a tier,
// which is only allowed for aggregation and core.
func ValidateTiers(tiers map[models.Tier]Range) error {
	for t := range tiers {
		if !t.Valid() {
			return invalid("unknown tier %q", t)
		}
	}
	for _, t := range models.Tiers {
		r, ok := tiers[t]
		if !ok {
			return invalid("tier %s: size range missing", t)
		}
		if r.Min < 0 || r.Max < 0 {
			return invalid("tier %s: size range cannot be negative, got [%d,%d]", t, r.Min, r.Max)
		}
		if r.Min > r.Max {
			return invalid("tier %s: empty size range [%d,%d]", t, r.Min, r.Max)
		}
		optional := t == models.TierAggregation || t == models.TierCore
		if r.Min == 0 && !(optional && r.Empty()) {
			return invalid("tier %s: at least one node is required, got [%d,%d]", t, r.Min, r.Max)
		}
	}
	return nil
}

func validateLink(name string, l LinkConfig) error {
	if l.BandwidthMbps <= 0 {
		return invalid("%s link bandwidth_mbps must be positive, got %g", name, l.BandwidthMbps)
	}
	if l.DelayMs < 0 {
		return invalid("%s link delay_ms cannot be negative, got %g", name, l.DelayMs)
	}
	if l.QueuePackets < 1 {
		return invalid("%s link queue_packets must be at least 1, got %d", name, l.QueuePackets)
	}
	return nil
}

func validateSpread(name string, s Spread) error {
	if s.RelStdDev < 0 {
		return invalid("%s rel_stddev cannot be negative, got %g", name, s.RelStdDev)
	}
	if s.Min < 0 {
		return invalid("%s min cannot be negative, got %g", name, s.Min)
	}
	return nil
}

func validateTraffic(tc *TrafficConfig) error {
	if tc.ModelAssignment != AssignRoundRobin && tc.ModelAssignment != AssignUniform {
		return invalid("invalid model_assignment: %s (must be round_robin or uniform)", tc.ModelAssignment)
	}
	if tc.ProcessingAssignment != AssignRoundRobin && tc.ProcessingAssignment != AssignUniform {
		return invalid("invalid processing_assignment: %s (must be round_robin or uniform)", tc.ProcessingAssignment)
	}
	if tc.ResultIntervalS <= 0 {
		return invalid("result_interval_s must be positive, got %g", tc.ResultIntervalS)
	}

	for _, mc := range models.ModelClasses {
		m, ok := tc.Models[mc]
		if !ok {
			return invalid("model %s: baselines missing", mc)
		}
		if m.FrameSizeBytes <= 0 || m.ResultSizeBytes <= 0 || m.InferenceDelayS < 0 {
			return invalid("model %s: baselines must be positive", mc)
		}
		if err := validateSpread(fmt.Sprintf("model %s frame_size_spread", mc), m.FrameSizeSpread); err != nil {
			return err
		}
		if err := validateSpread(fmt.Sprintf("model %s inference_spread", mc), m.InferenceSpread); err != nil {
			return err
		}
		if err := validateSpread(fmt.Sprintf("model %s result_size_spread", mc), m.ResultSizeSpread); err != nil {
			return err
		}
		if m.FrameSizeSpread.Min < 1 || m.ResultSizeSpread.Min < 1 {
			return invalid("model %s: frame and result size min must be at least 1 byte", mc)
		}
		if m.InferenceSpread.Min <= 0 {
			return invalid("model %s: inference_spread min must be positive, got %g", mc, m.InferenceSpread.Min)
		}
	}
	if len(tc.Models) != len(models.ModelClasses) {
		return invalid("models: unknown model class configured")
	}

	for _, t := range models.Tiers[:len(models.Tiers)-1] {
		if tc.FrameIntervals[t] <= 0 {
			return invalid("frame_interval_s for processing tier %s must be positive", t)
		}
	}
	if err := validateSpread("frame_interval_spread", tc.FrameIntervalSpread); err != nil {
		return err
	}
	if tc.FrameIntervalSpread.Min <= 0 {
		return invalid("frame_interval_spread min must be positive, got %g", tc.FrameIntervalSpread.Min)
	}

	seen := make(map[int]bool)
	for _, o := range tc.Overrides {
		if o.Leaf < 0 {
			return invalid("override leaf index cannot be negative, got %d", o.Leaf)
		}
		if seen[o.Leaf] {
			return invalid("duplicate override for leaf %d", o.Leaf)
		}
		seen[o.Leaf] = true
		if o.ModelClass != "" {
			if _, ok := tc.Models[o.ModelClass]; !ok {
				return invalid("override leaf %d: unknown model %q", o.Leaf, o.ModelClass)
			}
		}
		if o.ProcessingTier != "" && (!o.ProcessingTier.Valid() || o.ProcessingTier == models.TierCloud) {
			return invalid("override leaf %d: invalid processing tier %q", o.Leaf, o.ProcessingTier)
		}
	}
	return nil
}
