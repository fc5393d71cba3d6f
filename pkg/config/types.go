package config

import (
	"time"

	"github.com/GoSim-25-26J-441/netgen/pkg/models"
)

// Config represents the batch generation configuration
type Config struct {
	LogLevel      string              `yaml:"log_level"`
	LogFormat     string              `yaml:"log_format"` // json or text
	Batch         BatchConfig         `yaml:"batch"`
	Topology      TopologyConfig      `yaml:"topology"`
	Traffic       TrafficConfig       `yaml:"traffic"`
	Simulation    SimulationConfig    `yaml:"simulation"`
	QoS           QoSConfig           `yaml:"qos"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// BatchConfig controls how many scenarios run and where their output goes
type BatchConfig struct {
	Seed            int64  `yaml:"seed"`
	Scenarios       int    `yaml:"scenarios"`
	Workers         int    `yaml:"workers"`
	ScenarioTimeout string `yaml:"scenario_timeout"` // e.g. "60s"
	OutputDir       string `yaml:"output_dir"`
	WriteAttempts   int    `yaml:"write_attempts"`
	RetryBackoff    string `yaml:"retry_backoff"` // constant, linear, exponential
	RetryBase       string `yaml:"retry_base"`    // e.g. "100ms"
}

// GetScenarioTimeout parses the per-scenario wall-clock timeout
func (b *BatchConfig) GetScenarioTimeout() (time.Duration, error) {
	return time.ParseDuration(b.ScenarioTimeout)
}

// GetRetryBase parses the base delay between output write attempts
func (b *BatchConfig) GetRetryBase() (time.Duration, error) {
	return time.ParseDuration(b.RetryBase)
}

// Range is an inclusive integer interval
type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Empty reports whether the range removes its tier
func (r Range) Empty() bool {
	return r.Min == 0 && r.Max == 0
}

// TopologyConfig holds the tier size ranges and link parameters
type TopologyConfig struct {
	Tiers    map[models.Tier]Range `yaml:"tiers"`
	Wireless LinkConfig            `yaml:"wireless"`
	Wired    LinkConfig            `yaml:"wired"`
}

// LinkConfig describes one class of links
type LinkConfig struct {
	BandwidthMbps float64 `yaml:"bandwidth_mbps"`
	DelayMs       float64 `yaml:"delay_ms"`
	QueuePackets  int     `yaml:"queue_packets"`
}

// BandwidthBps returns the configured bandwidth in bits per second
func (l LinkConfig) BandwidthBps() float64 {
	return l.BandwidthMbps * 1e6
}

// Delay returns the configured propagation delay
func (l LinkConfig) Delay() time.Duration {
	return time.Duration(l.DelayMs * float64(time.Millisecond))
}

// Assignment strategies
const (
	AssignRoundRobin = "round_robin"
	AssignUniform    = "uniform"
)

// TrafficConfig controls per-leaf workload assignment and sampling
type TrafficConfig struct {
	ModelAssignment      string                           `yaml:"model_assignment"`
	ProcessingAssignment string                           `yaml:"processing_assignment"`
	ResultIntervalS      float64                          `yaml:"result_interval_s"`
	Models               map[models.ModelClass]ModelTable `yaml:"models"`
	FrameIntervals       map[models.Tier]float64          `yaml:"frame_interval_s"`
	FrameIntervalSpread  Spread                           `yaml:"frame_interval_spread"`
	Overrides            []LeafOverride                   `yaml:"overrides,omitempty"`
}

// ModelTable holds the per-model-class baselines
type ModelTable struct {
	FrameSizeBytes   float64 `yaml:"frame_size_bytes"`
	InferenceDelayS  float64 `yaml:"inference_delay_s"`
	ResultSizeBytes  float64 `yaml:"result_size_bytes"`
	FrameSizeSpread  Spread  `yaml:"frame_size_spread"`
	InferenceSpread  Spread  `yaml:"inference_spread"`
	ResultSizeSpread Spread  `yaml:"result_size_spread"`
}

// Spread is the relative standard deviation and hard lower clamp of a sampled value
type Spread struct {
	RelStdDev float64 `yaml:"rel_stddev"`
	Min       float64 `yaml:"min"`
}

// LeafOverride pins the model class and/or processing tier of one leaf
type LeafOverride struct {
	Leaf           int               `yaml:"leaf"`
	ModelClass     models.ModelClass `yaml:"model,omitempty"`
	ProcessingTier models.Tier       `yaml:"processing,omitempty"`
}

// SimulationConfig holds the simulated time horizon in seconds
type SimulationConfig struct {
	StartS float64 `yaml:"start_s"`
	StopS  float64 `yaml:"stop_s"`
	EndS   float64 `yaml:"end_s"`
}

// QoSConfig holds the thresholds of the QoS verdict
type QoSConfig struct {
	MaxLatencyMs      float64 `yaml:"max_latency_ms"`
	MinThroughputMbps float64 `yaml:"min_throughput_mbps"`
	MaxLossPct        float64 `yaml:"max_loss_pct"`
	MinActiveWindowS  float64 `yaml:"min_active_window_s"`
}

// ObservabilityConfig configures the optional batch endpoints
type ObservabilityConfig struct {
	MetricsAddr string `yaml:"metrics_addr,omitempty"`
	HealthAddr  string `yaml:"health_addr,omitempty"`
	Tracing     bool   `yaml:"tracing"`
}
