package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/GoSim-25-26J-441/netgen/internal/engine"
	"github.com/GoSim-25-26J-441/netgen/pkg/logger"
	"github.com/GoSim-25-26J-441/netgen/pkg/models"
	"github.com/GoSim-25-26J-441/netgen/pkg/utils"
)

var (
	// ErrInvalidScenario is returned when a scenario cannot be simulated as built
	ErrInvalidScenario = errors.New("invalid scenario")
	// ErrAlreadyRun is returned when Run is called twice on one simulation
	ErrAlreadyRun = errors.New("simulation already run")
)

// Simulation replays the flows of one scenario over its links packet by packet
type Simulation struct {
	scenario *models.Scenario
	eng      *engine.Engine
	logger   *slog.Logger

	links    map[int]*models.Link
	channels []*channel
	media    map[int64]*medium
	paths    map[int][]*channel // flow ID -> channel per hop
	flows    map[int]*FlowLedger
	order    []*FlowLedger
	inFlight map[int64]*Packet

	nextPacket int64
	ran        bool
}

// Option configures a Simulation
type Option func(*Simulation)

// WithLogger sets the logger used by the simulation and its engine
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) {
		s.logger = l
	}
}

// New prepares a simulation of the scenario's flows over its links
func New(scenario *models.Scenario, opts ...Option) (*Simulation, error) {
	s := &Simulation{
		scenario: scenario,
		eng:      engine.NewEngine(),
		logger:   logger.Default,
		links:    make(map[int]*models.Link, len(scenario.Links)),
		media:    make(map[int64]*medium),
		paths:    make(map[int][]*channel, len(scenario.Flows)),
		flows:    make(map[int]*FlowLedger, len(scenario.Flows)),
		inFlight: make(map[int64]*Packet),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.eng.SetLogger(s.logger)

	if err := s.buildChannels(); err != nil {
		return nil, err
	}
	if err := s.buildFlows(); err != nil {
		return nil, err
	}
	s.registerHandlers()
	return s, nil
}

func (s *Simulation) buildChannels() error {
	maxID := -1
	for _, l := range s.scenario.Links {
		if _, dup := s.links[l.ID]; dup {
			return fmt.Errorf("%w: duplicate link %d", ErrInvalidScenario, l.ID)
		}
		if l.BandwidthBps <= 0 {
			return fmt.Errorf("%w: link %d has no bandwidth", ErrInvalidScenario, l.ID)
		}
		if l.QueueCapacity < 0 {
			return fmt.Errorf("%w: link %d has negative queue capacity", ErrInvalidScenario, l.ID)
		}
		s.links[l.ID] = l
		if l.ID > maxID {
			maxID = l.ID
		}
	}

	s.channels = make([]*channel, 2*(maxID+1))
	for _, l := range s.scenario.Links {
		up := &channel{index: channelIndex(l.ID, true), link: l, from: l.From, to: l.To, capacity: l.QueueCapacity}
		down := &channel{index: channelIndex(l.ID, false), link: l, from: l.To, to: l.From, capacity: l.QueueCapacity}
		s.channels[up.index] = up
		s.channels[down.index] = down

		if l.Medium != models.MediumWireless || l.SharedMedium < 0 {
			continue
		}
		m, ok := s.media[l.SharedMedium]
		if !ok {
			m = &medium{accessNode: l.SharedMedium, capacity: l.BandwidthBps}
			s.media[l.SharedMedium] = m
		}
		up.medium, down.medium = m, m
		m.channels = append(m.channels, up, down)
	}
	for _, m := range s.media {
		m.rebalance()
	}
	return nil
}

func (s *Simulation) buildFlows() error {
	for _, f := range s.scenario.Flows {
		if _, dup := s.flows[f.ID]; dup {
			return fmt.Errorf("%w: duplicate flow %d", ErrInvalidScenario, f.ID)
		}
		if f.Interval <= 0 || f.PayloadBytes <= 0 {
			return fmt.Errorf("%w: flow %d needs a positive interval and payload", ErrInvalidScenario, f.ID)
		}
		path := make([]*channel, 0, len(f.Path))
		for i, hop := range f.Path {
			l, ok := s.links[hop.LinkID]
			if !ok {
				return fmt.Errorf("%w: flow %d hop %d uses unknown link %d", ErrInvalidScenario, f.ID, i, hop.LinkID)
			}
			if hop.From != l.From && hop.From != l.To {
				return fmt.Errorf("%w: flow %d hop %d does not start on link %d", ErrInvalidScenario, f.ID, i, hop.LinkID)
			}
			path = append(path, s.channels[channelIndex(l.ID, hop.Upward(l))])
		}
		s.paths[f.ID] = path
		ledger := newFlowLedger(f)
		s.flows[f.ID] = ledger
		s.order = append(s.order, ledger)
	}
	sort.Slice(s.order, func(i, j int) bool { return s.order[i].Flow.ID < s.order[j].Flow.ID })
	return nil
}

// registerHandlers registers all event handlers for the engine
func (s *Simulation) registerHandlers() {
	s.eng.RegisterHandler(engine.EventTypeFlowStart, s.handleFlowStart)
	s.eng.RegisterHandler(engine.EventTypeFlowStop, s.handleFlowStop)
	s.eng.RegisterHandler(engine.EventTypePacketInject, s.handleInject)
	s.eng.RegisterHandler(engine.EventTypePacketArrival, s.handleArrival)
	s.eng.RegisterHandler(engine.EventTypeDeparture, s.handleDeparture)
	s.eng.RegisterHandler(engine.EventTypeSimulationEnd, s.handleEnd)
}

// Run simulates until end and returns the final state. Flows with an empty
// active window inject nothing.
func (s *Simulation) Run(ctx context.Context, end time.Duration) (*State, error) {
	if s.ran {
		return nil, ErrAlreadyRun
	}
	s.ran = true

	for _, ledger := range s.order {
		f := ledger.Flow
		if f.ActiveWindow() == 0 {
			continue
		}
		if err := s.eng.ScheduleAt(engine.EventTypeFlowStart, f.Start, f.ID, 0, nil); err != nil {
			return nil, fmt.Errorf("%w: flow %d: %w", ErrInvalidScenario, f.ID, err)
		}
		if err := s.eng.ScheduleAt(engine.EventTypeFlowStop, f.Stop, f.ID, 0, nil); err != nil {
			return nil, fmt.Errorf("%w: flow %d: %w", ErrInvalidScenario, f.ID, err)
		}
	}

	if err := s.eng.Run(ctx, end); err != nil {
		return nil, err
	}
	return s.state(end), nil
}

func (s *Simulation) state(end time.Duration) *State {
	st := &State{
		Flows:   s.order,
		Horizon: end,
		Events:  s.eng.Stats().Processed(),
	}
	for _, c := range s.channels {
		if c == nil {
			continue
		}
		st.Channels = append(st.Channels, ChannelStats{
			Link:          c.link,
			From:          c.from,
			To:            c.to,
			Offered:       c.offered,
			Forwarded:     c.forwarded,
			Dropped:       c.dropped,
			Stranded:      c.stranded,
			MaxQueueDepth: c.maxDepth,
			Busy:          c.busyTime,
		})
	}
	return st
}

// handleFlowStart activates a flow, rebalances the media it crosses and
// schedules its first packet
func (s *Simulation) handleFlowStart(eng *engine.Engine, evt *engine.Event) error {
	ledger, ok := s.flows[evt.FlowID]
	if !ok {
		return fmt.Errorf("unknown flow %d", evt.FlowID)
	}
	ledger.active = true
	rate := ledger.Flow.RateBps()
	for _, c := range s.paths[evt.FlowID] {
		c.addFlow(rate)
	}
	s.rebalance(evt.FlowID)
	return eng.ScheduleAt(engine.EventTypePacketInject, eng.Now(), evt.FlowID, 0, nil)
}

// handleFlowStop withdraws a flow from the media it crosses
func (s *Simulation) handleFlowStop(_ *engine.Engine, evt *engine.Event) error {
	ledger, ok := s.flows[evt.FlowID]
	if !ok {
		return fmt.Errorf("unknown flow %d", evt.FlowID)
	}
	if !ledger.active {
		return nil
	}
	ledger.active = false
	rate := ledger.Flow.RateBps()
	for _, c := range s.paths[evt.FlowID] {
		c.removeFlow(rate)
	}
	s.rebalance(evt.FlowID)
	return nil
}

func (s *Simulation) rebalance(flowID int) {
	var seen []*medium
	for _, c := range s.paths[flowID] {
		if c.medium == nil {
			continue
		}
		dup := false
		for _, m := range seen {
			if m == c.medium {
				dup = true
				break
			}
		}
		if !dup {
			seen = append(seen, c.medium)
			c.medium.rebalance()
		}
	}
}

// handleInject creates one packet and schedules the next while the flow is active
func (s *Simulation) handleInject(eng *engine.Engine, evt *engine.Event) error {
	ledger, ok := s.flows[evt.FlowID]
	if !ok {
		return fmt.Errorf("unknown flow %d", evt.FlowID)
	}
	if !ledger.active {
		return nil
	}
	f := ledger.Flow
	now := eng.Now()

	s.nextPacket++
	p := &Packet{ID: s.nextPacket, FlowID: f.ID, Bytes: f.PayloadBytes, Created: now}
	ledger.Injected++

	path := s.paths[f.ID]
	if len(path) == 0 {
		ledger.deliver(p, now)
	} else if err := s.offer(eng, path[0], p); err != nil {
		return err
	}

	if next := now + f.Interval; next < f.Stop {
		return eng.ScheduleAt(engine.EventTypePacketInject, next, f.ID, 0, nil)
	}
	return nil
}

// handleArrival delivers a packet at its destination or offers it to the next hop
func (s *Simulation) handleArrival(eng *engine.Engine, evt *engine.Event) error {
	p, ok := evt.Payload.(*Packet)
	if !ok {
		return fmt.Errorf("arrival without packet for flow %d", evt.FlowID)
	}
	delete(s.inFlight, p.ID)

	path := s.paths[p.FlowID]
	if p.Hop >= len(path) {
		s.flows[p.FlowID].deliver(p, eng.Now())
		return nil
	}
	return s.offer(eng, path[p.Hop], p)
}

// handleDeparture completes a transmission, puts the packet on the wire and
// starts the next queued packet
func (s *Simulation) handleDeparture(eng *engine.Engine, evt *engine.Event) error {
	if evt.Target < 0 || evt.Target >= len(s.channels) || s.channels[evt.Target] == nil {
		return fmt.Errorf("departure on unknown channel %d", evt.Target)
	}
	c := s.channels[evt.Target]
	p := c.busy
	if p == nil {
		return fmt.Errorf("departure on idle channel %d", evt.Target)
	}
	now := eng.Now()

	c.busy = nil
	c.forwarded++
	c.busyTime += now - c.busySince

	p.Hop++
	s.inFlight[p.ID] = p
	if err := eng.ScheduleAt(engine.EventTypePacketArrival, now+c.link.PropagationDelay, p.FlowID, 0, p); err != nil {
		return err
	}

	if next := c.dequeue(); next != nil {
		return s.transmit(eng, c, next)
	}
	if c.medium != nil && c.activeFlows == 0 {
		// drained: hand the slot back
		c.medium.rebalance()
	}
	return nil
}

// handleEnd strands every packet still queued, in transmission or on the wire
func (s *Simulation) handleEnd(eng *engine.Engine, _ *engine.Event) error {
	now := eng.Now()
	stranded := 0
	for _, c := range s.channels {
		if c == nil {
			continue
		}
		if c.busy != nil {
			c.stranded++
			c.busyTime += now - c.busySince
			s.flows[c.busy.FlowID].lose(models.LossHorizonExpired)
			c.busy = nil
			stranded++
		}
		for p := c.dequeue(); p != nil; p = c.dequeue() {
			c.stranded++
			s.flows[p.FlowID].lose(models.LossHorizonExpired)
			stranded++
		}
	}
	for id, p := range s.inFlight {
		s.flows[p.FlowID].lose(models.LossHorizonExpired)
		delete(s.inFlight, id)
		stranded++
	}
	if stranded > 0 {
		s.logger.Debug("Packets stranded at horizon", "count", stranded, "sim_time", now)
	}
	return nil
}

// offer hands a packet to a channel: it transmits at once when idle, queues
// when busy and is dropped when the queue is full
func (s *Simulation) offer(eng *engine.Engine, c *channel, p *Packet) error {
	c.offered++
	if c.busy == nil {
		return s.transmit(eng, c, p)
	}
	if !c.enqueue(p) {
		c.dropped++
		s.flows[p.FlowID].lose(models.LossQueueOverflow)
	}
	return nil
}

func (s *Simulation) transmit(eng *engine.Engine, c *channel, p *Packet) error {
	joined := c.medium != nil && !c.medium.participates(c)
	now := eng.Now()
	c.busy = p
	c.busySince = now
	if joined {
		// a channel without flows starts draining and takes a slot
		c.medium.rebalance()
	}
	bw := c.bandwidth()
	if bw <= 0 {
		return fmt.Errorf("channel %d has no bandwidth", c.index)
	}
	return eng.ScheduleAt(engine.EventTypeDeparture, now+utils.TransmissionTime(p.Bytes, bw), p.FlowID, c.index, nil)
}

// Share returns the bandwidth granted to one direction of a link. A channel
// idle on its shared medium reports the slot it would get by joining.
func (s *Simulation) Share(linkID int, upward bool) float64 {
	idx := channelIndex(linkID, upward)
	if idx < 0 || idx >= len(s.channels) || s.channels[idx] == nil {
		return 0
	}
	c := s.channels[idx]
	if c.medium != nil && !c.medium.participates(c) {
		return c.medium.slot
	}
	return c.bandwidth()
}
