package network

import (
	"time"

	"github.com/GoSim-25-26J-441/netgen/pkg/models"
)

// Packet is one unit of a constant-rate flow in transit
type Packet struct {
	ID      int64
	FlowID  int
	Bytes   int
	Created time.Duration
	Hop     int // index into the flow path of the hop the packet is on
}

// FlowLedger accounts for every packet a flow injected
type FlowLedger struct {
	Flow           *models.Flow
	Injected       int64
	Delivered      int64
	Lost           map[models.LossReason]int64
	DeliveredBytes int64
	Latencies      []time.Duration

	active bool
}

func newFlowLedger(f *models.Flow) *FlowLedger {
	return &FlowLedger{
		Flow: f,
		Lost: make(map[models.LossReason]int64),
	}
}

// LostTotal returns the packets lost for any reason
func (l *FlowLedger) LostTotal() int64 {
	var n int64
	for _, v := range l.Lost {
		n += v
	}
	return n
}

// Balanced reports whether injected = delivered + lost
func (l *FlowLedger) Balanced() bool {
	return l.Injected == l.Delivered+l.LostTotal()
}

func (l *FlowLedger) deliver(p *Packet, now time.Duration) {
	l.Delivered++
	l.DeliveredBytes += int64(p.Bytes)
	l.Latencies = append(l.Latencies, now-p.Created)
}

func (l *FlowLedger) lose(reason models.LossReason) {
	l.Lost[reason]++
}

// ChannelStats are the final counters of one direction of a link
type ChannelStats struct {
	Link          *models.Link
	From          int64
	To            int64
	Offered       int64
	Forwarded     int64
	Dropped       int64
	Stranded      int64
	MaxQueueDepth int
	Busy          time.Duration
}

// Conserved reports whether offered = forwarded + dropped + stranded
func (s ChannelStats) Conserved() bool {
	return s.Offered == s.Forwarded+s.Dropped+s.Stranded
}

// State is the final simulation state of one scenario
type State struct {
	Flows    []*FlowLedger  // ordered by flow ID
	Channels []ChannelStats // ordered by link ID, upward direction first
	Horizon  time.Duration
	Events   int64
}
