package history

import (
	"context"
	"errors"
	"time"
)

var ErrDisabled = errors.New("history disabled")

// Config configures history persistence.
//
// Driver values:
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", history is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // 0 means default

	// Retention bounds how old fire records may get before Prune removes
	// them. 0 means the 7-day default.
	Retention time.Duration
}

// FireRecord is one task fire. Keep it compact and schema-stable.
type FireRecord struct {
	At      time.Time
	Handle  string
	Kind    string // "interval" or "timeout"
	Delta   time.Duration
	Elapsed int64 // whole seconds since the task's start
}

// Store is the minimal persistence API used by the runner.
type Store interface {
	AppendFire(ctx context.Context, r FireRecord) error
	RecentFires(ctx context.Context, limit int) ([]FireRecord, error)
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
	Close() error
}
