package ticker

import (
	"sync"
	"time"
)

// Fake is a manual clock and manual ticker for deterministic tests. It
// satisfies both the scheduler's Clock and Ticker host dependencies.
//
// Typical use: Advance the clock, then Step to run the callbacks queued
// before the step. Callbacks re-requested during a step run on the next one.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	pending []func()
}

// NewFake creates a fake tick source starting at the given instant.
func NewFake(start time.Time) *Fake {
	if start.IsZero() {
		start = time.Unix(0, 0)
	}
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward without firing any ticks.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func (f *Fake) RequestTick(fn func()) {
	if fn == nil {
		return
	}
	f.mu.Lock()
	f.pending = append(f.pending, fn)
	f.mu.Unlock()
}

// Step fires every callback queued before the step and reports how many ran.
func (f *Fake) Step() int {
	f.mu.Lock()
	p := f.pending
	f.pending = nil
	f.mu.Unlock()

	for _, fn := range p {
		fn()
	}
	return len(p)
}

// Run performs n steps.
func (f *Fake) Run(n int) {
	for i := 0; i < n; i++ {
		f.Step()
	}
}

// Pending reports how many callbacks are queued for the next step.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}
