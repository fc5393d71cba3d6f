package metrics

import (
	"sort"
	"strconv"
	"time"

	"github.com/GoSim-25-26J-441/netgen/internal/network"
	"github.com/GoSim-25-26J-441/netgen/pkg/config"
	"github.com/GoSim-25-26J-441/netgen/pkg/models"
	"github.com/GoSim-25-26J-441/netgen/pkg/utils"
)

// Extractor derives per-flow and per-link results from a finished simulation
type Extractor struct {
	qos config.QoSConfig
}

// NewExtractor creates an extractor that judges flows against qos
func NewExtractor(qos config.QoSConfig) *Extractor {
	return &Extractor{qos: qos}
}

// Extract is a pure function of the scenario and its final simulation state.
// Flow results are ordered by flow ID, link results by link ID with the
// upward direction first.
func (x *Extractor) Extract(s *models.Scenario, st *network.State) ([]models.FlowResult, []models.LinkResult) {
	nodes := make(map[int64]*models.Node, len(s.Nodes))
	for _, n := range s.Nodes {
		nodes[n.ID] = n
	}
	links := make(map[int]*models.Link, len(s.Links))
	for _, l := range s.Links {
		links[l.ID] = l
	}

	flows := make([]models.FlowResult, 0, len(st.Flows))
	for _, ledger := range st.Flows {
		flows = append(flows, x.flowResult(ledger, nodes, links))
	}
	sort.SliceStable(flows, func(i, j int) bool { return flows[i].FlowID < flows[j].FlowID })

	channels := make([]network.ChannelStats, len(st.Channels))
	copy(channels, st.Channels)
	sort.SliceStable(channels, func(i, j int) bool {
		a, b := channels[i], channels[j]
		if a.Link.ID != b.Link.ID {
			return a.Link.ID < b.Link.ID
		}
		return a.From == a.Link.From && b.From != b.Link.From
	})

	out := make([]models.LinkResult, 0, len(channels))
	for _, c := range channels {
		out = append(out, linkResult(c, nodes, st.Horizon))
	}
	return flows, out
}

func (x *Extractor) flowResult(ledger *network.FlowLedger, nodes map[int64]*models.Node, links map[int]*models.Link) models.FlowResult {
	f := ledger.Flow
	window := f.ActiveWindow()

	r := models.FlowResult{
		FlowID:           f.ID,
		Kind:             f.Kind,
		LeafID:           f.LeafID,
		Origin:           nodeName(nodes, f.Origin),
		Destination:      nodeName(nodes, f.Destination),
		OriginTier:       nodeTier(nodes, f.Origin),
		DestinationTier:  nodeTier(nodes, f.Destination),
		Hops:             len(f.Path),
		OfferedRateMbps:  f.RateBps() / 1e6,
		OfferedPackets:   ledger.Injected,
		DeliveredPackets: ledger.Delivered,
		LostPackets:      ledger.LostTotal(),
		DeliveredBytes:   ledger.DeliveredBytes,
		ActiveWindowS:    window.Seconds(),
		Latency:          calculateAggregation(durationsToMs(ledger.Latencies)),
	}

	var prop time.Duration
	for _, hop := range f.Path {
		if l, ok := links[hop.LinkID]; ok {
			prop += l.PropagationDelay
		}
	}
	r.PathPropagationMs = utils.TimeToMs(prop)
	r.LatencyMs = r.Latency.Mean

	if len(ledger.Lost) > 0 {
		r.LossByReason = make(map[models.LossReason]int, len(ledger.Lost))
		for reason, n := range ledger.Lost {
			if n > 0 {
				r.LossByReason[reason] = int(n)
			}
		}
	}
	if window > 0 {
		r.ThroughputMbps = float64(ledger.DeliveredBytes*8) / window.Seconds() / 1e6
	}
	if ledger.Injected > 0 {
		r.LossPct = float64(r.LostPackets) / float64(ledger.Injected) * 100
	}

	r.Degenerate = window.Seconds() < x.qos.MinActiveWindowS
	r.QoSSatisfied = x.satisfied(r)
	return r
}

// satisfied is the QoS verdict of one flow
func (x *Extractor) satisfied(r models.FlowResult) bool {
	if r.Degenerate || r.DeliveredPackets == 0 {
		return false
	}
	return r.LatencyMs <= x.qos.MaxLatencyMs &&
		r.ThroughputMbps >= x.qos.MinThroughputMbps &&
		r.LossPct <= x.qos.MaxLossPct
}

func linkResult(c network.ChannelStats, nodes map[int64]*models.Node, horizon time.Duration) models.LinkResult {
	r := models.LinkResult{
		LinkID:        c.Link.ID,
		From:          nodeName(nodes, c.From),
		To:            nodeName(nodes, c.To),
		Medium:        c.Link.Medium,
		Offered:       c.Offered,
		Forwarded:     c.Forwarded,
		Dropped:       c.Dropped,
		Stranded:      c.Stranded,
		MaxQueueDepth: c.MaxQueueDepth,
		BusyS:         c.Busy.Seconds(),
	}
	if horizon > 0 {
		r.Utilization = utils.ClampFloat64(c.Busy.Seconds()/horizon.Seconds(), 0, 1)
	}
	return r
}

func nodeName(nodes map[int64]*models.Node, id int64) string {
	if n, ok := nodes[id]; ok && n.Name != "" {
		return n.Name
	}
	return strconv.FormatInt(id, 10)
}

func nodeTier(nodes map[int64]*models.Node, id int64) models.Tier {
	if n, ok := nodes[id]; ok {
		return n.Tier
	}
	return ""
}
