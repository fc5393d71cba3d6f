package engine

import (
	"sync"
	"time"
)

// RunStatus represents the lifecycle state of an engine run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunStats tracks the lifecycle and event counters of an engine run.
// Readers may call its getters from other goroutines while the engine runs.
type RunStats struct {
	mu        sync.RWMutex
	status    RunStatus
	startTime time.Time
	endTime   time.Time
	err       error
	scheduled int64
	processed int64
	byType    map[EventType]int64
}

// NewRunStats creates a pending run
func NewRunStats() *RunStats {
	return &RunStats{
		status: RunStatusPending,
		byType: make(map[EventType]int64),
	}
}

// Start marks the run as started
func (rs *RunStats) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.status = RunStatusRunning
	rs.startTime = time.Now()
}

// Complete marks the run as completed
func (rs *RunStats) Complete() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.status = RunStatusCompleted
	rs.endTime = time.Now()
}

// Fail marks the run as failed
func (rs *RunStats) Fail(err error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.status = RunStatusFailed
	rs.endTime = time.Now()
	rs.err = err
}

func (rs *RunStats) recordScheduled() {
	rs.mu.Lock()
	rs.scheduled++
	rs.mu.Unlock()
}

func (rs *RunStats) recordProcessed(t EventType) {
	rs.mu.Lock()
	rs.processed++
	rs.byType[t]++
	rs.mu.Unlock()
}

// Status returns the current lifecycle state
func (rs *RunStats) Status() RunStatus {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.status
}

// Err returns the error that failed the run, if any
func (rs *RunStats) Err() error {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.err
}

// Scheduled returns how many events were scheduled
func (rs *RunStats) Scheduled() int64 {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.scheduled
}

// Processed returns how many events were processed
func (rs *RunStats) Processed() int64 {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.processed
}

// ProcessedByType returns how many events of a type were processed
func (rs *RunStats) ProcessedByType(t EventType) int64 {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.byType[t]
}

// Elapsed returns the wall-clock duration of the run so far
func (rs *RunStats) Elapsed() time.Duration {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	if rs.startTime.IsZero() {
		return 0
	}
	if rs.endTime.IsZero() {
		return time.Since(rs.startTime)
	}
	return rs.endTime.Sub(rs.startTime)
}
