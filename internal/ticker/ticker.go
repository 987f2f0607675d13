// Package ticker provides host tick sources for the frame scheduler.
//
// Wall drives ticks from a wall-clock time.Ticker at a configurable frame
// rate. Fake is a manual clock plus manual ticker for deterministic tests.
package ticker

import (
	"context"
	"sync"
	"time"

	logx "framesched/pkg/logx"
)

// DefaultRate is the frame rate used when config leaves it unset.
const DefaultRate = 60

// Wall invokes requested tick callbacks once per period on a single
// goroutine, so all scheduler callbacks share one execution stream.
type Wall struct {
	mu      sync.Mutex
	every   time.Duration
	pending []func()

	log logx.Logger
}

// NewWall creates a wall ticker firing every rate-th of a second.
func NewWall(rate int, log logx.Logger) *Wall {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Wall{every: periodFor(rate), log: log}
}

// RequestTick queues fn to run exactly once at the next period boundary.
func (w *Wall) RequestTick(fn func()) {
	if fn == nil {
		return
	}
	w.mu.Lock()
	w.pending = append(w.pending, fn)
	w.mu.Unlock()
}

// Apply changes the frame rate. It takes effect at the next period boundary.
func (w *Wall) Apply(rate int) {
	every := periodFor(rate)
	w.mu.Lock()
	changed := every != w.every
	w.every = every
	w.mu.Unlock()
	if changed {
		w.log.Info("frame rate changed", logx.Duration("period", every))
	}
}

// Run blocks driving the tick loop until ctx is done.
func (w *Wall) Run(ctx context.Context) error {
	cur := w.period()
	t := time.NewTicker(cur)
	defer t.Stop()

	w.log.Debug("ticker running", logx.Duration("period", cur))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if e := w.period(); e != cur {
				cur = e
				t.Reset(cur)
			}
			for _, fn := range w.take() {
				fn()
			}
		}
	}
}

func (w *Wall) period() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.every
}

func (w *Wall) take() []func() {
	w.mu.Lock()
	p := w.pending
	w.pending = nil
	w.mu.Unlock()
	return p
}

func periodFor(rate int) time.Duration {
	if rate <= 0 {
		rate = DefaultRate
	}
	return time.Second / time.Duration(rate)
}
