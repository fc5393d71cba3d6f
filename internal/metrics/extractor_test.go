package metrics

import (
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/netgen/internal/network"
	"github.com/GoSim-25-26J-441/netgen/pkg/config"
	"github.com/GoSim-25-26J-441/netgen/pkg/models"
	"github.com/stretchr/testify/require"
)

func fixture() (*models.Scenario, *network.State) {
	leaf := &models.Node{ID: 0, Name: "leaf-0", Tier: models.TierLeaf, Parent: 1}
	access := &models.Node{ID: 1, Name: "access-0", Tier: models.TierAccess, Parent: -1}
	link := &models.Link{ID: 0, From: 0, To: 1, Medium: models.MediumWireless, PropagationDelay: 100 * time.Microsecond, SharedMedium: 1}

	fast := &models.Flow{
		ID: 1, Kind: models.FlowKindFrame, Origin: 0, Destination: 1,
		PayloadBytes: 2500, Interval: 10 * time.Millisecond, Start: time.Second, Stop: 11 * time.Second,
		Path: []models.Hop{{LinkID: 0, From: 0, To: 1}},
	}
	short := &models.Flow{
		ID: 0, Kind: models.FlowKindResult, Origin: 1, Destination: 0,
		PayloadBytes: 500, Interval: 100 * time.Millisecond, Start: time.Second, Stop: 1500 * time.Millisecond,
		Path: []models.Hop{{LinkID: 0, From: 1, To: 0}},
	}

	fastLedger := &network.FlowLedger{
		Flow:           fast,
		Injected:       1000,
		Delivered:      990,
		DeliveredBytes: 990 * 2500,
		Lost:           map[models.LossReason]int64{models.LossQueueOverflow: 6, models.LossHorizonExpired: 4},
	}
	for i := 0; i < 990; i++ {
		fastLedger.Latencies = append(fastLedger.Latencies, time.Duration(1+i%10)*time.Millisecond)
	}
	shortLedger := &network.FlowLedger{
		Flow:           short,
		Injected:       5,
		Delivered:      5,
		DeliveredBytes: 2500,
		Lost:           map[models.LossReason]int64{},
		Latencies:      []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond, time.Millisecond, time.Millisecond},
	}

	s := &models.Scenario{
		Nodes: []*models.Node{leaf, access},
		Links: []*models.Link{link},
		Flows: []*models.Flow{short, fast},
	}
	st := &network.State{
		Flows: []*network.FlowLedger{fastLedger, shortLedger},
		Channels: []network.ChannelStats{
			{Link: link, From: 1, To: 0, Offered: 5, Forwarded: 5},
			{Link: link, From: 0, To: 1, Offered: 1000, Forwarded: 990, Dropped: 6, Stranded: 4, MaxQueueDepth: 100, Busy: 11 * time.Second},
		},
		Horizon: 22 * time.Second,
	}
	return s, st
}

func TestExtractFlowResults(t *testing.T) {
	s, st := fixture()
	flows, _ := NewExtractor(config.DefaultConfig().QoS).Extract(s, st)
	require.Len(t, flows, 2)
	require.Equal(t, 0, flows[0].FlowID)
	require.Equal(t, 1, flows[1].FlowID)

	f := flows[1]
	require.Equal(t, "leaf-0", f.Origin)
	require.Equal(t, "access-0", f.Destination)
	require.Equal(t, models.TierLeaf, f.OriginTier)
	require.Equal(t, 1, f.Hops)
	require.InDelta(t, 0.1, f.PathPropagationMs, 1e-9)
	require.InDelta(t, 2.0, f.OfferedRateMbps, 1e-9)
	require.EqualValues(t, 10, f.LostPackets)
	require.Equal(t, 6, f.LossByReason[models.LossQueueOverflow])
	require.Equal(t, 4, f.LossByReason[models.LossHorizonExpired])
	require.InDelta(t, 1.0, f.LossPct, 1e-9)
	require.InDelta(t, 1.98, f.ThroughputMbps, 1e-9)
	require.InDelta(t, 5.5, f.LatencyMs, 1e-9)
	require.EqualValues(t, 990, f.Latency.Count)
	require.InDelta(t, 1.0, f.Latency.Min, 1e-9)
	require.InDelta(t, 10.0, f.Latency.Max, 1e-9)
	require.False(t, f.Degenerate)
	// 1.98 Mbps misses the 2 Mbps floor
	require.False(t, f.QoSSatisfied)
}

func TestExtractQoSVerdict(t *testing.T) {
	s, st := fixture()
	qos := config.DefaultConfig().QoS
	qos.MinThroughputMbps = 1.5

	flows, _ := NewExtractor(qos).Extract(s, st)
	require.True(t, flows[1].QoSSatisfied)

	qos.MaxLossPct = 0.5
	flows, _ = NewExtractor(qos).Extract(s, st)
	require.False(t, flows[1].QoSSatisfied)
}

func TestExtractDegenerateWindow(t *testing.T) {
	s, st := fixture()
	qos := config.DefaultConfig().QoS
	qos.MinThroughputMbps = 0

	flows, _ := NewExtractor(qos).Extract(s, st)
	short := flows[0]
	require.InDelta(t, 0.5, short.ActiveWindowS, 1e-9)
	require.True(t, short.Degenerate)
	require.False(t, short.QoSSatisfied)
	require.Nil(t, short.LossByReason)
}

func TestExtractNothingDelivered(t *testing.T) {
	s, st := fixture()
	st.Flows[0].Delivered = 0
	st.Flows[0].DeliveredBytes = 0
	st.Flows[0].Latencies = nil
	st.Flows[0].Lost = map[models.LossReason]int64{models.LossQueueOverflow: 1000}

	qos := config.DefaultConfig().QoS
	qos.MinThroughputMbps = 0
	qos.MaxLossPct = 100
	flows, _ := NewExtractor(qos).Extract(s, st)
	require.Zero(t, flows[1].Latency.Count)
	require.False(t, flows[1].QoSSatisfied)
}

func TestExtractLinkResults(t *testing.T) {
	s, st := fixture()
	_, links := NewExtractor(config.DefaultConfig().QoS).Extract(s, st)
	require.Len(t, links, 2)

	up := links[0]
	require.Equal(t, "leaf-0", up.From)
	require.Equal(t, "access-0", up.To)
	require.Equal(t, models.MediumWireless, up.Medium)
	require.True(t, up.Conserved())
	require.InDelta(t, 0.5, up.Utilization, 1e-9)
	require.InDelta(t, 11.0, up.BusyS, 1e-9)

	require.Equal(t, "access-0", links[1].From)
	require.True(t, links[1].Conserved())
}

func TestExtractIsPure(t *testing.T) {
	s, st := fixture()
	x := NewExtractor(config.DefaultConfig().QoS)
	f1, l1 := x.Extract(s, st)
	f2, l2 := x.Extract(s, st)
	require.Equal(t, f1, f2)
	require.Equal(t, l1, l2)
	// the state is not reordered
	require.Equal(t, int64(1), st.Channels[0].From)
}

func TestCalculateAggregation(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(100 - i)
	}

	agg := calculateAggregation(values)
	require.EqualValues(t, 100, agg.Count)
	require.InDelta(t, 1.0, agg.Min, 1e-9)
	require.InDelta(t, 100.0, agg.Max, 1e-9)
	require.InDelta(t, 50.5, agg.Mean, 1e-9)
	require.InDelta(t, 50.5, agg.P50, 1e-9)
	require.InDelta(t, 95.05, agg.P95, 1e-9)
	// input left untouched
	require.InDelta(t, 100.0, values[0], 1e-9)

	require.Equal(t, models.Aggregation{}, calculateAggregation(nil))
}
