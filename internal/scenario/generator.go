package scenario

import (
	"fmt"

	"github.com/GoSim-25-26J-441/netgen/pkg/config"
	"github.com/GoSim-25-26J-441/netgen/pkg/models"
	"github.com/GoSim-25-26J-441/netgen/pkg/utils"
)

// Stream names partition a scenario sub-seed between pipeline stages
const (
	StreamStructure = "structure"
	StreamTraffic   = "traffic"
)

// Generator draws the structural parameters of each scenario
type Generator struct {
	seed  int64
	tiers map[models.Tier]config.Range
}

// NewGenerator creates a generator for a batch seed and tier ranges
func NewGenerator(seed int64, tiers map[models.Tier]config.Range) *Generator {
	return &Generator{seed: seed, tiers: tiers}
}

// SubSeed returns the sub-seed of the scenario at index. It depends only on
// the batch seed and the index.
func (g *Generator) SubSeed(index int) int64 {
	return utils.DeriveSeed(g.seed, index)
}

// Generate returns the parameters of the scenario at index. Tier sizes are
// drawn uniformly from the inclusive configured ranges.
func (g *Generator) Generate(index int) (models.ScenarioParams, error) {
	if index < 0 {
		return models.ScenarioParams{}, fmt.Errorf("%w: negative scenario index %d", config.ErrInvalidConfig, index)
	}
	if err := config.ValidateTiers(g.tiers); err != nil {
		return models.ScenarioParams{}, err
	}

	subSeed := g.SubSeed(index)
	rng := utils.NewRandSource(utils.StreamSeed(subSeed, StreamStructure))

	params := models.ScenarioParams{
		Index:   index,
		SubSeed: subSeed,
		Sizes:   make(map[models.Tier]int, len(models.Tiers)),
	}
	for _, tier := range models.Tiers {
		r := g.tiers[tier]
		if r.Empty() {
			params.Sizes[tier] = 0
			continue
		}
		params.Sizes[tier] = rng.IntRange(r.Min, r.Max)
	}
	return params, nil
}
