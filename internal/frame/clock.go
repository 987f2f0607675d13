package frame

import "time"

// Clock provides the scheduler's time source.
// The interface enables simulated clocks in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the default Clock backed by the standard library.
var SystemClock Clock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Ticker is the host "request next tick" primitive.
//
// RequestTick must invoke fn exactly once, asynchronously, at the next
// periodic boundary. Implementations must not call fn synchronously from
// within RequestTick; the scheduler may hold its own lock at call time.
type Ticker interface {
	RequestTick(fn func())
}
