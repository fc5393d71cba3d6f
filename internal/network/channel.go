package network

import (
	"sort"
	"time"

	"github.com/GoSim-25-26J-441/netgen/pkg/models"
)

// channel is one direction of a link: a transmitter with a bounded FIFO of
// waiting packets. The packet in transmission does not occupy a queue slot.
type channel struct {
	index    int
	link     *models.Link
	from, to int64
	capacity int

	queue     []*Packet
	busy      *Packet
	busySince time.Duration

	medium      *medium
	activeFlows int
	demand      float64 // offered bits/s of the active flows crossing this channel
	share       float64 // bits/s granted by the shared medium

	offered   int64
	forwarded int64
	dropped   int64
	stranded  int64
	maxDepth  int
	busyTime  time.Duration
}

func channelIndex(linkID int, upward bool) int {
	if upward {
		return 2 * linkID
	}
	return 2*linkID + 1
}

// bandwidth is the rate at which the next packet will be serialized
func (c *channel) bandwidth() float64 {
	if c.medium != nil {
		return c.share
	}
	return c.link.BandwidthBps
}

func (c *channel) idle() bool {
	return c.busy == nil && len(c.queue) == 0
}

// enqueue appends a waiting packet, reporting false when the queue is full
func (c *channel) enqueue(p *Packet) bool {
	if len(c.queue) >= c.capacity {
		return false
	}
	c.queue = append(c.queue, p)
	if len(c.queue) > c.maxDepth {
		c.maxDepth = len(c.queue)
	}
	return true
}

func (c *channel) dequeue() *Packet {
	if len(c.queue) == 0 {
		return nil
	}
	p := c.queue[0]
	c.queue[0] = nil
	c.queue = c.queue[1:]
	return p
}

func (c *channel) addFlow(rate float64) {
	c.activeFlows++
	c.demand += rate
}

func (c *channel) removeFlow(rate float64) {
	c.activeFlows--
	if c.activeFlows <= 0 {
		c.activeFlows = 0
		c.demand = 0
		return
	}
	c.demand -= rate
	if c.demand < 0 {
		c.demand = 0
	}
}

// medium is the shared wireless channel of one access point
type medium struct {
	accessNode int64
	capacity   float64
	channels   []*channel
	slot       float64 // share a channel would get by joining the medium now
}

// participates reports whether c currently competes for the medium
func (m *medium) participates(c *channel) bool {
	return (c.activeFlows > 0 && c.demand > 0) || !c.idle()
}

// rebalance recomputes the share of every channel on the medium so that the
// shares never sum to more than its capacity. Channels without active flows
// that still hold packets get one fair slot; the rest of the capacity is a
// max-min fair allocation of the active offered loads, with whatever is left
// once every demand is met spread in proportion to demand. Channels that
// neither carry flows nor hold packets get nothing.
func (m *medium) rebalance() {
	var active, draining []*channel
	for _, c := range m.channels {
		switch {
		case c.activeFlows > 0 && c.demand > 0:
			active = append(active, c)
		case !c.idle():
			draining = append(draining, c)
		default:
			c.share = 0
		}
	}

	n := len(active) + len(draining)
	m.slot = m.capacity / float64(n+1)
	if n == 0 {
		return
	}

	fair := m.capacity / float64(n)
	for _, c := range draining {
		c.share = fair
	}
	if len(active) == 0 {
		return
	}
	alloc := maxMinFair(m.capacity-fair*float64(len(draining)), active)
	for _, c := range active {
		c.share = alloc[c.index]
	}
}

// maxMinFair water-fills capacity over the demands of the given channels and
// hands any remainder out proportionally to demand
func maxMinFair(capacity float64, chans []*channel) map[int]float64 {
	sorted := make([]*channel, len(chans))
	copy(sorted, chans)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].demand != sorted[j].demand {
			return sorted[i].demand < sorted[j].demand
		}
		return sorted[i].index < sorted[j].index
	})

	alloc := make(map[int]float64, len(sorted))
	remaining := capacity
	totalDemand := 0.0
	for i, c := range sorted {
		totalDemand += c.demand
		fair := remaining / float64(len(sorted)-i)
		if c.demand <= fair {
			alloc[c.index] = c.demand
			remaining -= c.demand
			continue
		}
		for _, rest := range sorted[i:] {
			alloc[rest.index] = fair
		}
		return alloc
	}

	if remaining > 0 && totalDemand > 0 {
		for _, c := range sorted {
			alloc[c.index] += remaining * c.demand / totalDemand
		}
	}
	return alloc
}
