package ticker

import (
	"testing"
	"time"

	logx "framesched/pkg/logx"
)

func TestFakeStepRunsOnlyPriorRequests(t *testing.T) {
	t.Parallel()
	fk := NewFake(time.Unix(0, 0))

	runs := 0
	var chain func()
	chain = func() {
		runs++
		fk.RequestTick(chain) // re-request lands on the next step
	}
	fk.RequestTick(chain)

	if n := fk.Step(); n != 1 || runs != 1 {
		t.Fatalf("step ran %d callbacks (runs=%d), want 1", n, runs)
	}
	if fk.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", fk.Pending())
	}
	fk.Run(3)
	if runs != 4 {
		t.Fatalf("runs = %d, want 4", runs)
	}
}

func TestFakeAdvance(t *testing.T) {
	t.Parallel()
	fk := NewFake(time.Unix(100, 0))
	fk.Advance(1500 * time.Millisecond)
	if got := fk.Now(); !got.Equal(time.Unix(101, int64(500*time.Millisecond))) {
		t.Fatalf("Now = %v", got)
	}
}

func TestWallPendingSwap(t *testing.T) {
	t.Parallel()
	w := NewWall(60, logx.Nop())

	ran := 0
	w.RequestTick(func() { ran++ })
	w.RequestTick(func() { ran++ })
	w.RequestTick(nil) // ignored

	p := w.take()
	if len(p) != 2 {
		t.Fatalf("take = %d callbacks, want 2", len(p))
	}
	for _, fn := range p {
		fn()
	}
	if ran != 2 || len(w.take()) != 0 {
		t.Fatalf("ran=%d, leftover=%d", ran, len(w.take()))
	}
}

func TestWallPeriod(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		rate int
		want time.Duration
	}{
		{name: "sixty", rate: 60, want: time.Second / 60},
		{name: "ten", rate: 10, want: 100 * time.Millisecond},
		{name: "zero defaults", rate: 0, want: time.Second / DefaultRate},
		{name: "negative defaults", rate: -5, want: time.Second / DefaultRate},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := periodFor(tt.rate); got != tt.want {
				t.Fatalf("periodFor(%d) = %v, want %v", tt.rate, got, tt.want)
			}
		})
	}
}

func TestWallApplyChangesPeriod(t *testing.T) {
	t.Parallel()
	w := NewWall(60, logx.Nop())
	w.Apply(10)
	if got := w.period(); got != 100*time.Millisecond {
		t.Fatalf("period = %v, want 100ms", got)
	}
}
