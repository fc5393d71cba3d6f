package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoSim-25-26J-441/netgen/pkg/logger"
)

var (
	// ErrTimeout is returned when the wall-clock budget of a run expires
	ErrTimeout = errors.New("simulation timed out")
	// ErrCancelled is returned when the run context is cancelled
	ErrCancelled = errors.New("simulation cancelled")
	// ErrPastEvent is returned when an event is scheduled before the current time
	ErrPastEvent = errors.New("event scheduled in the past")
	// ErrHandler is wrapped around errors returned by event handlers
	ErrHandler = errors.New("event handler failed")
)

// contextCheckInterval is how many events are processed between context checks
const contextCheckInterval = 1024

// Engine is the discrete-event simulation engine. It is single-threaded:
// handlers run on the goroutine that called Run.
type Engine struct {
	eventQueue *EventQueue
	run        *RunStats
	now        time.Duration
	handlers   map[EventType]EventHandler
	logger     *slog.Logger
	seq        uint64
}

// EventHandler is a function that handles a specific event type
type EventHandler func(*Engine, *Event) error

// NewEngine creates a new simulation engine
func NewEngine() *Engine {
	return &Engine{
		eventQueue: NewEventQueue(),
		run:        NewRunStats(),
		handlers:   make(map[EventType]EventHandler),
		logger:     logger.Default,
	}
}

// SetLogger sets the engine's logger
func (e *Engine) SetLogger(l *slog.Logger) {
	e.logger = l
}

// RegisterHandler registers an event handler
func (e *Engine) RegisterHandler(eventType EventType, handler EventHandler) {
	e.handlers[eventType] = handler
}

// ScheduleEvent schedules an event, assigning its sequence number
func (e *Engine) ScheduleEvent(event *Event) error {
	if event.Time < e.now {
		return fmt.Errorf("%w: %s at %v, now %v", ErrPastEvent, event.Type, event.Time, e.now)
	}
	e.seq++
	event.Seq = e.seq
	e.eventQueue.Schedule(event)
	e.run.recordScheduled()
	return nil
}

// ScheduleAt schedules an event at a specific simulation time with the
// default priority of its type
func (e *Engine) ScheduleAt(eventType EventType, at time.Duration, flowID, target int, payload any) error {
	return e.ScheduleEvent(&Event{
		Type:     eventType,
		Time:     at,
		Priority: DefaultPriority(eventType),
		FlowID:   flowID,
		Target:   target,
		Payload:  payload,
	})
}

// ScheduleAfter schedules an event after a delay from the current simulation time
func (e *Engine) ScheduleAfter(eventType EventType, delay time.Duration, flowID, target int, payload any) error {
	return e.ScheduleAt(eventType, e.now+delay, flowID, target, payload)
}

// Run processes events in (time, priority, flow, sequence) order until the
// simulation end event at end. The context is checked every 1024 events; an
// expired deadline yields ErrTimeout. The handler registered for
// EventTypeSimulationEnd, if any, runs once with the clock at end.
func (e *Engine) Run(ctx context.Context, end time.Duration) error {
	e.logger.Info("Starting simulation", "end", end, "events_pending", e.eventQueue.Size())
	e.run.Start()

	if err := e.ScheduleAt(EventTypeSimulationEnd, end, 0, 0, nil); err != nil {
		e.run.Fail(err)
		return err
	}
	debug := e.logger.Enabled(ctx, slog.LevelDebug)

	var processed int
	for {
		if processed%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				err = contextError(err, e.now)
				e.run.Fail(err)
				e.logger.Warn("Simulation aborted", "sim_time", e.now, "events_processed", processed, "error", err)
				return err
			}
		}

		event := e.eventQueue.Next()
		if event == nil {
			// the end event is always queued, so an empty queue is a bug
			err := fmt.Errorf("%w: event queue drained before end", ErrHandler)
			e.run.Fail(err)
			return err
		}
		processed++
		e.now = event.Time
		e.run.recordProcessed(event.Type)

		if debug {
			e.logger.Debug("Processing event",
				"type", event.Type,
				"sim_time", event.Time,
				"flow_id", event.FlowID,
				"seq", event.Seq,
				"queue_size", e.eventQueue.Size())
		}

		handler, ok := e.handlers[event.Type]
		if ok {
			if err := handler(e, event); err != nil {
				err = fmt.Errorf("%w: %s at %v: %w", ErrHandler, event.Type, event.Time, err)
				e.run.Fail(err)
				e.logger.Error("Event handler error", "type", event.Type, "sim_time", event.Time, "error", err)
				return err
			}
		} else if event.Type != EventTypeSimulationEnd {
			e.logger.Warn("No handler for event type", "event_type", event.Type)
		}

		if event.Type == EventTypeSimulationEnd {
			break
		}
	}

	e.run.Complete()
	e.logger.Info("Simulation completed",
		"sim_time", e.now,
		"events_processed", e.run.Processed(),
		"events_abandoned", e.eventQueue.Size(),
		"wall_time", e.run.Elapsed())
	return nil
}

func contextError(err error, now time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w at sim time %v: %w", ErrTimeout, now, err)
	}
	return fmt.Errorf("%w at sim time %v: %w", ErrCancelled, now, err)
}

// Now returns the current simulation time
func (e *Engine) Now() time.Duration {
	return e.now
}

// Stats returns the run statistics
func (e *Engine) Stats() *RunStats {
	return e.run
}

// GetEventQueue returns the event queue
func (e *Engine) GetEventQueue() *EventQueue {
	return e.eventQueue
}
