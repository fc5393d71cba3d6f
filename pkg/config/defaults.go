package config

import "github.com/GoSim-25-26J-441/netgen/pkg/models"

// DefaultConfig returns the configuration observed in the reference deployments:
// tier ranges 150-200 / 10-15 / 4-6 / 2 / 1, 10 Gbps 5 ms wired links and a
// 1 s to 20 s traffic horizon drained until 22 s.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "json",
		Batch: BatchConfig{
			Seed:            1,
			Scenarios:       100,
			Workers:         1,
			ScenarioTimeout: "60s",
			OutputDir:       "output",
			WriteAttempts:   2,
			RetryBackoff:    "constant",
			RetryBase:       "100ms",
		},
		Topology: TopologyConfig{
			Tiers: map[models.Tier]Range{
				models.TierLeaf:        {Min: 150, Max: 200},
				models.TierAccess:      {Min: 10, Max: 15},
				models.TierAggregation: {Min: 4, Max: 6},
				models.TierCore:        {Min: 2, Max: 2},
				models.TierCloud:       {Min: 1, Max: 1},
			},
			Wireless: LinkConfig{BandwidthMbps: 72, DelayMs: 0.1, QueuePackets: 100},
			Wired:    LinkConfig{BandwidthMbps: 10000, DelayMs: 5, QueuePackets: 100},
		},
		Traffic: TrafficConfig{
			ModelAssignment:      AssignRoundRobin,
			ProcessingAssignment: AssignUniform,
			ResultIntervalS:      0.5,
			Models: map[models.ModelClass]ModelTable{
				models.ModelSmall:  modelTable(1000, 0.01, 200),
				models.ModelMedium: modelTable(1500, 0.05, 500),
				models.ModelHeavy:  modelTable(2000, 0.12, 1200),
			},
			FrameIntervals: map[models.Tier]float64{
				models.TierLeaf:        0.15,
				models.TierAccess:      0.10,
				models.TierAggregation: 0.08,
				models.TierCore:        0.05,
			},
			FrameIntervalSpread: Spread{RelStdDev: 0.05, Min: 0.01},
		},
		Simulation: SimulationConfig{StartS: 1.0, StopS: 20.0, EndS: 22.0},
		QoS: QoSConfig{
			MaxLatencyMs:      100,
			MinThroughputMbps: 2,
			MaxLossPct:        5,
			MinActiveWindowS:  1,
		},
	}
}

func modelTable(frameBytes, inferenceS, resultBytes float64) ModelTable {
	return ModelTable{
		FrameSizeBytes:   frameBytes,
		InferenceDelayS:  inferenceS,
		ResultSizeBytes:  resultBytes,
		FrameSizeSpread:  Spread{RelStdDev: 0.10, Min: 500},
		InferenceSpread:  Spread{RelStdDev: 0.20, Min: 0.001},
		ResultSizeSpread: Spread{RelStdDev: 0.15, Min: 50},
	}
}
