package metrics

import (
	"sort"
	"time"

	"github.com/GoSim-25-26J-441/netgen/pkg/models"
	"github.com/GoSim-25-26J-441/netgen/pkg/utils"
)

// calculateAggregation calculates aggregated statistics from raw values.
// The input is not modified.
func calculateAggregation(values []float64) models.Aggregation {
	if len(values) == 0 {
		return models.Aggregation{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return models.Aggregation{
		Count: int64(len(sorted)),
		Sum:   utils.Sum(sorted),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		Mean:  utils.Mean(sorted),
		P50:   utils.PercentileSorted(sorted, 50),
		P95:   utils.PercentileSorted(sorted, 95),
		P99:   utils.PercentileSorted(sorted, 99),
	}
}

// durationsToMs converts per-packet latencies to milliseconds
func durationsToMs(ds []time.Duration) []float64 {
	out := make([]float64, len(ds))
	for i, d := range ds {
		out[i] = utils.TimeToMs(d)
	}
	return out
}
