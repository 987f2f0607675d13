package runner

import (
	"time"

	"framesched/internal/eventbus"
	"framesched/internal/frame"
	"framesched/internal/history"
	logx "framesched/pkg/logx"
)

// Config controls the runner service.
type Config struct {
	// FrameRate is ticks per second for the wall ticker; 0 means the default.
	FrameRate int

	// Tasks declared in config. Task names double as scheduler handles.
	Tasks []TaskDef

	// Housekeeping cron specs (5-field or descriptors). Empty PruneSpec means
	// "@hourly"; empty SnapshotSpec disables snapshot logging.
	PruneSpec    string
	SnapshotSpec string

	// Retention bounds fire-history age; 0 means 7 days.
	Retention time.Duration
}

// TaskDef is one declared scheduler task.
type TaskDef struct {
	Name    string
	Kind    string // frame.KindInterval or frame.KindTimeout
	Every   time.Duration
	After   time.Duration
	Locked  bool
	Message string
}

// Deps carries the runner's collaborators. Ticker and Clock are optional
// overrides; when nil the runner creates a wall ticker and uses the system
// clock (tests inject a fake).
type Deps struct {
	Log    logx.Logger
	Bus    eventbus.Bus
	Store  history.Store
	Ticker frame.Ticker
	Clock  frame.Clock
}

// Snapshot is a point-in-time diagnostic view of the runner.
type Snapshot struct {
	Running   bool
	FrameRate int
	Ticks     uint64
	Fires     uint64
	Retention time.Duration
	Tasks     []frame.TaskInfo
}

const defaultRetention = 7 * 24 * time.Hour
