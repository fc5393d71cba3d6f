package topology

import (
	"fmt"

	"github.com/GoSim-25-26J-441/netgen/pkg/config"
	"github.com/GoSim-25-26J-441/netgen/pkg/models"
)

// Builder constructs scenario topologies from tier sizes
type Builder struct {
	wireless config.LinkConfig
	wired    config.LinkConfig
}

// NewBuilder creates a builder with the given link parameters
func NewBuilder(cfg config.TopologyConfig) *Builder {
	return &Builder{wireless: cfg.Wireless, wired: cfg.Wired}
}

// Build creates the nodes of every present tier and wires them:
// leaf i attaches to access i mod A over a wireless link; access and the tiers
// above are joined round robin, except aggregation-core and core-cloud which
// are full meshes.
func (b *Builder) Build(params models.ScenarioParams) (*Topology, error) {
	for _, tier := range []models.Tier{models.TierLeaf, models.TierAccess, models.TierCloud} {
		if params.Size(tier) < 1 {
			return nil, fmt.Errorf("%w: tier %s requires at least one node", config.ErrInvalidConfig, tier)
		}
	}

	t := New()
	present := params.PresentTiers()
	for _, tier := range present {
		uplink := b.wired.BandwidthBps()
		switch tier {
		case models.TierLeaf:
			uplink = b.wireless.BandwidthBps()
		case models.TierCloud:
			uplink = 0
		}
		for i := 0; i < params.Size(tier); i++ {
			t.AddNode(tier, uplink)
		}
	}

	for i := 0; i+1 < len(present); i++ {
		if err := b.connect(t, present[i], present[i+1]); err != nil {
			return nil, err
		}
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// connect wires one tier to the next present tier above it and sets parents
func (b *Builder) connect(t *Topology, lower, upper models.Tier) error {
	xs := t.NodesInTier(lower)
	ys := t.NodesInTier(upper)

	if lower == models.TierLeaf {
		for i, leaf := range xs {
			ap := ys[i%len(ys)]
			if _, err := t.AddLink(leaf.ID, ap.ID, b.spec(models.MediumWireless, ap.ID)); err != nil {
				return err
			}
		}
	} else if isMesh(lower, upper) {
		for _, x := range xs {
			for _, y := range ys {
				if _, err := t.AddLink(x.ID, y.ID, b.spec(models.MediumWired, -1)); err != nil {
					return err
				}
			}
		}
	} else {
		n := len(xs)
		if len(ys) > n {
			n = len(ys)
		}
		for m := 0; m < n; m++ {
			if _, err := t.AddLink(xs[m%len(xs)].ID, ys[m%len(ys)].ID, b.spec(models.MediumWired, -1)); err != nil {
				return err
			}
		}
	}

	for j, x := range xs {
		if err := t.SetParent(x.ID, ys[j%len(ys)].ID); err != nil {
			return err
		}
	}
	return nil
}

func isMesh(lower, upper models.Tier) bool {
	return (lower == models.TierAggregation && upper == models.TierCore) ||
		(lower == models.TierCore && upper == models.TierCloud)
}

func (b *Builder) spec(medium models.Medium, shared int64) LinkSpec {
	lc := b.wired
	if medium == models.MediumWireless {
		lc = b.wireless
	}
	return LinkSpec{
		Medium:           medium,
		BandwidthBps:     lc.BandwidthBps(),
		PropagationDelay: lc.Delay(),
		QueueCapacity:    lc.QueuePackets,
		SharedMedium:     shared,
	}
}
