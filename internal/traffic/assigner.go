package traffic

import (
	"fmt"
	"math"
	"time"

	"github.com/GoSim-25-26J-441/netgen/internal/scenario"
	"github.com/GoSim-25-26J-441/netgen/internal/topology"
	"github.com/GoSim-25-26J-441/netgen/pkg/config"
	"github.com/GoSim-25-26J-441/netgen/pkg/models"
	"github.com/GoSim-25-26J-441/netgen/pkg/utils"
)

// Assigner gives every leaf a workload profile and derives its two flows
type Assigner struct {
	cfg       config.TrafficConfig
	start     time.Duration
	stop      time.Duration
	overrides map[int]config.LeafOverride
}

// NewAssigner creates an assigner for the traffic settings and simulated horizon
func NewAssigner(cfg config.TrafficConfig, sim config.SimulationConfig) *Assigner {
	overrides := make(map[int]config.LeafOverride, len(cfg.Overrides))
	for _, o := range cfg.Overrides {
		overrides[o.Leaf] = o
	}
	return &Assigner{
		cfg:       cfg,
		start:     utils.SecondsToDuration(sim.StartS),
		stop:      utils.SecondsToDuration(sim.StopS),
		overrides: overrides,
	}
}

// Assign samples a profile per leaf in leaf order and resolves the frame flow
// (leaf to processing node, ID 2i) and result flow (processing node to its
// cloud sink, ID 2i+1). Every leaf consumes the same number of draws whatever
// its overrides, so one leaf's settings never shift another leaf's samples.
func (a *Assigner) Assign(topo *topology.Topology, params models.ScenarioParams) ([]models.LeafProfile, []*models.Flow, error) {
	rng := utils.NewRandSource(utils.StreamSeed(params.SubSeed, scenario.StreamTraffic))

	processing := make([]models.Tier, 0, len(models.Tiers))
	for _, tier := range topo.PresentTiers() {
		if tier != models.TierCloud {
			processing = append(processing, tier)
		}
	}
	present := make(map[models.Tier]bool, len(processing))
	for _, tier := range processing {
		present[tier] = true
	}

	leaves := topo.NodesInTier(models.TierLeaf)
	profiles := make([]models.LeafProfile, 0, len(leaves))
	flows := make([]*models.Flow, 0, 2*len(leaves))

	for i, leaf := range leaves {
		modelDraw := rng.Intn(len(models.ModelClasses))
		procDraw := rng.Intn(len(processing))

		model := models.ModelClasses[i%len(models.ModelClasses)]
		if a.cfg.ModelAssignment == config.AssignUniform {
			model = models.ModelClasses[modelDraw]
		}
		procTier := processing[procDraw]
		if a.cfg.ProcessingAssignment == config.AssignRoundRobin {
			procTier = processing[i%len(processing)]
		}
		if o, ok := a.overrides[i]; ok {
			if o.ModelClass != "" {
				model = o.ModelClass
			}
			if o.ProcessingTier != "" {
				if !present[o.ProcessingTier] {
					return nil, nil, fmt.Errorf("%w: leaf %d override: processing tier %s is not present",
						config.ErrInvalidConfig, i, o.ProcessingTier)
				}
				procTier = o.ProcessingTier
			}
		}

		table := a.cfg.Models[model]
		frameSize := sampleBytes(rng, table.FrameSizeBytes, table.FrameSizeSpread)
		frameInterval := sampleSeconds(rng, a.cfg.FrameIntervals[procTier], a.cfg.FrameIntervalSpread)
		inference := sampleSeconds(rng, table.InferenceDelayS, table.InferenceSpread)
		resultSize := sampleBytes(rng, table.ResultSizeBytes, table.ResultSizeSpread)

		procNode := processingNode(topo, leaf, i, procTier)
		sink, err := topo.Ancestor(procNode, models.TierCloud)
		if err != nil {
			return nil, nil, fmt.Errorf("leaf %s: sink: %w", leaf.Name, err)
		}

		p := models.LeafProfile{
			LeafID:         leaf.ID,
			LeafName:       leaf.Name,
			ModelClass:     model,
			ProcessingTier: procTier,
			ProcessingNode: procNode,
			SinkNode:       sink,
			FrameSize:      frameSize,
			FrameInterval:  frameInterval,
			InferenceDelay: inference,
			ResultSize:     resultSize,
			ResultInterval: utils.SecondsToDuration(a.cfg.ResultIntervalS),
			FrameFlowID:    2 * i,
			ResultFlowID:   2*i + 1,
		}

		frame := &models.Flow{
			ID:           p.FrameFlowID,
			Kind:         models.FlowKindFrame,
			LeafID:       leaf.ID,
			Origin:       leaf.ID,
			Destination:  procNode,
			PayloadBytes: frameSize,
			Interval:     frameInterval,
			Start:        a.start,
			Stop:         a.stop,
		}
		result := &models.Flow{
			ID:           p.ResultFlowID,
			Kind:         models.FlowKindResult,
			LeafID:       leaf.ID,
			Origin:       procNode,
			Destination:  sink,
			PayloadBytes: resultSize,
			Interval:     p.ResultInterval,
			Start:        a.start + inference,
			Stop:         a.stop,
		}
		for _, f := range []*models.Flow{frame, result} {
			hops, err := topo.Path(f.Origin, f.Destination)
			if err != nil {
				return nil, nil, fmt.Errorf("flow %d: %w", f.ID, err)
			}
			f.Path = hops
		}

		profiles = append(profiles, p)
		flows = append(flows, frame, result)
	}
	return profiles, flows, nil
}

// processingNode picks node i mod n of the processing tier so that every node
// of that tier serves an equal share of the leaves. Access processing lands on
// the leaf's own access point since leaf i attaches to access i mod A.
func processingNode(topo *topology.Topology, leaf *models.Node, i int, tier models.Tier) int64 {
	if tier == models.TierLeaf {
		return leaf.ID
	}
	nodes := topo.NodesInTier(tier)
	return nodes[i%len(nodes)].ID
}

// sampleBytes draws a size around a baseline, clamps it and rounds to whole bytes
func sampleBytes(rng *utils.RandSource, base float64, s config.Spread) int {
	v := rng.NormClamped(base, s.RelStdDev, s.Min)
	return int(math.Round(v))
}

// sampleSeconds draws a duration in seconds around a baseline and clamps it
func sampleSeconds(rng *utils.RandSource, base float64, s config.Spread) time.Duration {
	return utils.SecondsToDuration(rng.NormClamped(base, s.RelStdDev, s.Min))
}
