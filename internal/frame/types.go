package frame

import (
	"errors"
	"time"
)

// Handle identifies a registered task. Registries key on handles rather than
// on callback identity, so the same function may back any number of tasks.
// Callers either supply their own stable handle (e.g. "watchdog") or pass ""
// to have one generated.
type Handle string

// Frame is the record passed to a task when it fires.
type Frame struct {
	// Delta is the time since the task's own last fire (interval tasks) or
	// since its start (timeout tasks).
	Delta time.Duration

	// Elapsed is whole seconds since the task's start.
	Elapsed int64
}

// TaskFunc is a caller-supplied unit of work.
type TaskFunc func(Frame)

// Kind values used in events and snapshots.
const (
	KindInterval = "interval"
	KindTimeout  = "timeout"
)

// TaskEvent is the eventbus payload for frame.* events.
type TaskEvent struct {
	Handle  Handle
	Kind    string
	At      time.Time
	Delta   time.Duration
	Elapsed int64
}

// TaskInfo describes one registered task in a Snapshot.
type TaskInfo struct {
	Handle   Handle
	Kind     string
	Duration time.Duration // interval period or timeout deadline
	Armed    bool
	Locked   bool
	Start    time.Time
	Last     time.Time // interval tasks only
	Fires    uint64
}

// Snapshot is a point-in-time diagnostic view of the scheduler.
type Snapshot struct {
	Running bool
	Ticks   uint64
	Fires   uint64
	Tasks   []TaskInfo
}

var (
	// ErrNegativeDuration is returned when a registration passes a negative
	// duration. Zero is valid: an interval with duration 0 fires every tick,
	// a timeout with duration 0 fires on the first tick after arming.
	ErrNegativeDuration = errors.New("frame: negative duration")

	// ErrNilTask is returned when a registration passes a nil TaskFunc.
	ErrNilTask = errors.New("frame: nil task func")
)

type intervalEntry struct {
	fn    TaskFunc
	every time.Duration
	last  time.Time
	start time.Time
	armed bool
	fires uint64
}

type timeoutEntry struct {
	fn    TaskFunc
	after time.Duration
	start time.Time
	armed bool
}
