package config

// Config is the daemon's file configuration (YAML or JSON).
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type Config struct {
	Logging LoggingConfig `json:"logging"`

	// Frame controls the host tick source driving the scheduler.
	Frame FrameConfig `json:"frame"`

	// History controls the optional fire-history persistence layer.
	History *HistoryConfig `json:"history,omitempty"`

	// Housekeeping holds cron specs for background maintenance.
	Housekeeping HousekeepingConfig `json:"housekeeping,omitempty"`

	// Tasks declares scheduler tasks registered at startup (and upserted on
	// hot reload). Mostly useful for probes and watchdog-style work.
	Tasks []TaskConfig `json:"tasks,omitempty"`
}

type LoggingConfig struct {
	Level   string        `json:"level"`
	Console bool          `json:"console"`
	File    LogFileConfig `json:"file"`
	Bus     LogBusConfig  `json:"bus"`
}

type LogFileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// LogBusConfig controls the eventbus log sink.
//
// Defaults (when fields are omitted/zero):
//   - min_level: "WARN"
//   - rate_per_sec: 1
type LogBusConfig struct {
	Enabled    bool   `json:"enabled"`
	MinLevel   string `json:"min_level,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

// FrameConfig controls the wall ticker.
//
// Rate is ticks per second; 0 means the default (60). Rate can be changed at
// runtime via config hot reload.
type FrameConfig struct {
	Rate int `json:"rate,omitempty"`
}

// HistoryConfig controls the optional persistence layer recording task fires.
//
// Driver values:
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", history is disabled.
type HistoryConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"`

	// Retention bounds how long fire records are kept. Rows older than this
	// are removed by the housekeeping prune job. Empty means 7 days.
	Retention string `json:"retention,omitempty"`
}

// HousekeepingConfig holds cron specs (robfig/cron syntax, 5-field or
// descriptors like "@hourly") for background maintenance jobs.
//
// Defaults (when fields are omitted):
//   - prune: "@hourly"
//   - snapshot: "" (disabled)
type HousekeepingConfig struct {
	// Prune removes expired history rows.
	Prune string `json:"prune,omitempty"`

	// Snapshot logs a one-line scheduler snapshot for operators.
	Snapshot string `json:"snapshot,omitempty"`
}

// TaskConfig declares one scheduler task.
//
// Kind values:
//   - "interval": recurring, fires whenever at least Every has passed
//   - "timeout": one-shot, fires once After has passed, then self-removes
//
// Name doubles as the task handle, so re-declaring a name replaces the task.
type TaskConfig struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Every string `json:"every,omitempty"` // interval period; "0s" fires every tick
	After string `json:"after,omitempty"` // timeout deadline

	// Locked registers the task suppressed; an operator (or another task)
	// unlocks it later.
	Locked bool `json:"locked,omitempty"`

	// Message is logged each time the task fires. Empty logs a generic line.
	Message string `json:"message,omitempty"`
}
