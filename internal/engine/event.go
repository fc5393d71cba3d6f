package engine

import (
	"container/heap"
	"sync"
	"time"
)

// EventType represents the type of simulation event
type EventType string

const (
	// EventTypeFlowStart activates a flow and schedules its first packet
	EventTypeFlowStart EventType = "flow_start"

	// EventTypeFlowStop withdraws a flow; no packet is injected at or after it
	EventTypeFlowStop EventType = "flow_stop"

	// EventTypePacketInject creates the next packet of a constant-rate flow
	EventTypePacketInject EventType = "packet_inject"

	// EventTypePacketArrival represents a packet reaching the transmitter of its next hop
	EventTypePacketArrival EventType = "packet_arrival"

	// EventTypeDeparture represents a transmitter finishing a packet and draining its queue
	EventTypeDeparture EventType = "departure"

	// EventTypeSimulationEnd represents the end of the simulation
	EventTypeSimulationEnd EventType = "simulation_end"
)

// Tie-break priorities for events at the same instant; lower runs first.
// A flow stop precedes an injection at the same instant so that traffic is
// injected over [start, stop).
const (
	PriorityFlowStart     = 0
	PriorityFlowStop      = 1
	PriorityDeparture     = 2
	PriorityArrival       = 3
	PriorityInject        = 4
	PrioritySimulationEnd = 9
)

// DefaultPriority returns the tie-break priority of an event type
func DefaultPriority(t EventType) int {
	switch t {
	case EventTypeFlowStart:
		return PriorityFlowStart
	case EventTypeFlowStop:
		return PriorityFlowStop
	case EventTypeDeparture:
		return PriorityDeparture
	case EventTypePacketArrival:
		return PriorityArrival
	case EventTypePacketInject:
		return PriorityInject
	default:
		return PrioritySimulationEnd
	}
}

// Event represents a discrete event in the simulation
type Event struct {
	Type     EventType     `json:"type"`
	Time     time.Duration `json:"time"`     // offset from simulation start
	Priority int           `json:"priority"` // Lower values = higher priority
	FlowID   int           `json:"flow_id"`
	Seq      uint64        `json:"seq"` // scheduling order, assigned by the engine
	Target   int           `json:"target,omitempty"`
	Payload  any           `json:"-"`
}

// before reports whether a is ordered before b by (time, priority, flow ID, sequence)
func (a *Event) before(b *Event) bool {
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	if a.FlowID != b.FlowID {
		return a.FlowID < b.FlowID
	}
	return a.Seq < b.Seq
}

// EventQueue is a priority queue of events ordered by time
type EventQueue struct {
	events []*Event
	mu     sync.RWMutex
}

// NewEventQueue creates a new event queue
func NewEventQueue() *EventQueue {
	eq := &EventQueue{
		events: make([]*Event, 0),
	}
	heap.Init(eq)
	return eq
}

// Len returns the number of events in the queue
func (eq *EventQueue) Len() int {
	return len(eq.events)
}

// Less orders events by time, then priority, then flow ID, then sequence
func (eq *EventQueue) Less(i, j int) bool {
	return eq.events[i].before(eq.events[j])
}

// Swap swaps two events in the queue
func (eq *EventQueue) Swap(i, j int) {
	eq.events[i], eq.events[j] = eq.events[j], eq.events[i]
}

// Push adds an event to the queue
func (eq *EventQueue) Push(x interface{}) {
	eq.events = append(eq.events, x.(*Event))
}

// Pop removes and returns the next event from the queue
func (eq *EventQueue) Pop() interface{} {
	old := eq.events
	n := len(old)
	event := old[n-1]
	old[n-1] = nil // avoid memory leak
	eq.events = old[0 : n-1]
	return event
}

// Schedule adds an event to the queue (thread-safe)
func (eq *EventQueue) Schedule(event *Event) {
	eq.mu.Lock()
	defer eq.mu.Unlock()
	heap.Push(eq, event)
}

// Next removes and returns the next event (thread-safe)
func (eq *EventQueue) Next() *Event {
	eq.mu.Lock()
	defer eq.mu.Unlock()
	if eq.Len() == 0 {
		return nil
	}
	return heap.Pop(eq).(*Event)
}

// Peek returns the next event without removing it (thread-safe)
func (eq *EventQueue) Peek() *Event {
	eq.mu.RLock()
	defer eq.mu.RUnlock()
	if eq.Len() == 0 {
		return nil
	}
	return eq.events[0]
}

// Clear removes all events from the queue (thread-safe)
func (eq *EventQueue) Clear() {
	eq.mu.Lock()
	defer eq.mu.Unlock()
	eq.events = make([]*Event, 0)
	heap.Init(eq)
}

// Size returns the current queue size (thread-safe)
func (eq *EventQueue) Size() int {
	eq.mu.RLock()
	defer eq.mu.RUnlock()
	return eq.Len()
}

// IsEmpty returns true if the queue is empty (thread-safe)
func (eq *EventQueue) IsEmpty() bool {
	return eq.Size() == 0
}
