package engine

import (
	"sync"
	"testing"
	"time"
)

func TestNewEventQueue(t *testing.T) {
	eq := NewEventQueue()
	if eq == nil {
		t.Fatal("NewEventQueue returned nil")
	}
	if !eq.IsEmpty() {
		t.Error("New event queue should be empty")
	}
}

func TestEventQueueScheduleAndNext(t *testing.T) {
	eq := NewEventQueue()

	eq.Schedule(&Event{Type: EventTypePacketInject, Time: 1 * time.Second, Seq: 1})
	eq.Schedule(&Event{Type: EventTypePacketArrival, Time: 2 * time.Second, Seq: 2})
	eq.Schedule(&Event{Type: EventTypeDeparture, Time: 500 * time.Millisecond, Seq: 3})

	if eq.Size() != 3 {
		t.Errorf("Expected queue size 3, got %d", eq.Size())
	}

	for _, want := range []uint64{3, 1, 2} {
		next := eq.Next()
		if next.Seq != want {
			t.Errorf("Expected event seq %d, got %d", want, next.Seq)
		}
	}

	if !eq.IsEmpty() {
		t.Error("Queue should be empty after removing all events")
	}
}

func TestEventQueueTieBreaking(t *testing.T) {
	eq := NewEventQueue()
	at := time.Second

	// inserted in reverse of the expected order
	eq.Schedule(&Event{Time: at, Priority: PriorityInject, FlowID: 1, Seq: 6})
	eq.Schedule(&Event{Time: at, Priority: PriorityArrival, FlowID: 2, Seq: 5})
	eq.Schedule(&Event{Time: at, Priority: PriorityArrival, FlowID: 1, Seq: 4})
	eq.Schedule(&Event{Time: at, Priority: PriorityDeparture, FlowID: 3, Seq: 3})
	eq.Schedule(&Event{Time: at, Priority: PriorityFlowStop, FlowID: 1, Seq: 2})
	eq.Schedule(&Event{Time: at, Priority: PriorityFlowStop, FlowID: 1, Seq: 1})

	for _, want := range []uint64{1, 2, 3, 4, 5, 6} {
		next := eq.Next()
		if next.Seq != want {
			t.Fatalf("Expected event seq %d, got %d", want, next.Seq)
		}
	}
}

func TestEventQueuePeek(t *testing.T) {
	eq := NewEventQueue()
	eq.Schedule(&Event{Type: EventTypeFlowStart, Time: 0, Seq: 1})

	peeked := eq.Peek()
	if peeked.Seq != 1 {
		t.Errorf("Expected peeked event seq 1, got %d", peeked.Seq)
	}
	if eq.Size() != 1 {
		t.Error("Peek should not remove event from queue")
	}

	eq.Next()
	if eq.Peek() != nil {
		t.Error("Peek on empty queue should return nil")
	}
}

func TestEventQueueClear(t *testing.T) {
	eq := NewEventQueue()
	for i := 0; i < 10; i++ {
		eq.Schedule(&Event{Time: time.Duration(i) * time.Millisecond})
	}
	eq.Clear()
	if !eq.IsEmpty() {
		t.Error("Queue should be empty after Clear()")
	}
	if eq.Next() != nil {
		t.Error("Next on cleared queue should return nil")
	}
}

func TestEventQueueConcurrency(t *testing.T) {
	eq := NewEventQueue()
	const numGoroutines = 10
	const eventsPerGoroutine = 100

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < eventsPerGoroutine; j++ {
				eq.Schedule(&Event{Time: time.Duration(id*eventsPerGoroutine+j) * time.Millisecond})
			}
		}(i)
	}
	wg.Wait()

	if eq.Size() != numGoroutines*eventsPerGoroutine {
		t.Fatalf("Expected %d events, got %d", numGoroutines*eventsPerGoroutine, eq.Size())
	}

	var last time.Duration = -1
	for !eq.IsEmpty() {
		ev := eq.Next()
		if ev.Time < last {
			t.Fatalf("Events out of order: %v after %v", ev.Time, last)
		}
		last = ev.Time
	}
}

func TestDefaultPriority(t *testing.T) {
	if DefaultPriority(EventTypeFlowStop) >= DefaultPriority(EventTypePacketInject) {
		t.Error("Flow stop must precede injection at the same instant")
	}
	if DefaultPriority(EventTypeDeparture) >= DefaultPriority(EventTypePacketArrival) {
		t.Error("Departure must precede arrival at the same instant")
	}
	if DefaultPriority(EventTypeSimulationEnd) <= DefaultPriority(EventTypePacketInject) {
		t.Error("Simulation end must run last at its instant")
	}
}
