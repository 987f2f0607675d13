package runner

import (
	"context"
	"testing"
	"time"

	"framesched/internal/eventbus"
	"framesched/internal/frame"
	"framesched/internal/ticker"
)

func newTestRunner(t *testing.T, cfg Config) (*Service, *ticker.Fake, eventbus.Bus) {
	t.Helper()
	fk := ticker.NewFake(time.Unix(2000, 0))
	bus := eventbus.New()
	s := New(cfg, Deps{Bus: bus, Ticker: fk, Clock: fk})
	t.Cleanup(func() { s.Stop(context.Background()) })
	return s, fk, bus
}

func advance(fk *ticker.Fake, d time.Duration) {
	fk.Advance(d)
	fk.Step()
}

func TestDeclaredTasksFire(t *testing.T) {
	t.Parallel()
	s, fk, bus := newTestRunner(t, Config{
		Tasks: []TaskDef{
			{Name: "heartbeat", Kind: frame.KindInterval, Every: time.Second},
			{Name: "boot-probe", Kind: frame.KindTimeout, After: 500 * time.Millisecond},
		},
	})

	ch, unsub := bus.Subscribe(16)
	defer unsub()

	s.Start(context.Background())
	advance(fk, 1200*time.Millisecond)

	fired := map[string]int{}
	for done := false; !done; {
		select {
		case ev := <-ch:
			if te, ok := ev.Data.(frame.TaskEvent); ok {
				fired[string(te.Handle)]++
			}
		default:
			done = true
		}
	}
	if fired["heartbeat"] != 1 || fired["boot-probe"] != 1 {
		t.Fatalf("fired = %v, want heartbeat and boot-probe once each", fired)
	}
	if s.Scheduler().Has("boot-probe") {
		t.Fatal("timeout task must self-remove after firing")
	}
	if !s.Scheduler().Has("heartbeat") {
		t.Fatal("interval task must stay registered")
	}
}

func TestApplyReconcilesDeclaredTasks(t *testing.T) {
	t.Parallel()
	s, fk, _ := newTestRunner(t, Config{
		Tasks: []TaskDef{{Name: "old", Kind: frame.KindInterval, Every: time.Second}},
	})
	s.Start(context.Background())

	s.Apply(Config{
		Tasks: []TaskDef{{Name: "new", Kind: frame.KindInterval, Every: time.Second}},
	})
	if s.Scheduler().Has("old") {
		t.Fatal("task dropped from config must be cancelled")
	}
	if !s.Scheduler().Has("new") {
		t.Fatal("task added via Apply must be registered")
	}

	// The new task is armed by the registration itself (runner is running).
	advance(fk, 2*time.Second)
	snap := s.Snapshot()
	if snap.Fires != 1 {
		t.Fatalf("fires = %d, want 1", snap.Fires)
	}
}

func TestApplyKeepsUnchangedTaskTiming(t *testing.T) {
	t.Parallel()
	def := TaskDef{Name: "steady", Kind: frame.KindInterval, Every: time.Minute}
	s, fk, _ := newTestRunner(t, Config{Tasks: []TaskDef{def}})
	s.Start(context.Background())

	started := taskInfo(t, s, "steady").Start
	advance(fk, 5*time.Second)
	s.Apply(Config{Tasks: []TaskDef{def}})
	if got := taskInfo(t, s, "steady").Start; !got.Equal(started) {
		t.Fatalf("unchanged declaration reset timing: start %v -> %v", started, got)
	}

	// A changed declaration replaces the entry and restamps it.
	def.Message = "changed"
	s.Apply(Config{Tasks: []TaskDef{def}})
	if got := taskInfo(t, s, "steady").Start; got.Equal(started) {
		t.Fatal("changed declaration must reset timing")
	}
}

func TestLockedDeclaration(t *testing.T) {
	t.Parallel()
	def := TaskDef{Name: "gated", Kind: frame.KindInterval, Locked: true}
	s, fk, _ := newTestRunner(t, Config{Tasks: []TaskDef{def}})
	s.Start(context.Background())

	advance(fk, time.Second)
	if snap := s.Snapshot(); snap.Fires != 0 {
		t.Fatalf("locked task fired %d times", snap.Fires)
	}
	if !s.Scheduler().IsLocked("gated") {
		t.Fatal("IsLocked = false for locked declaration")
	}

	def.Locked = false
	s.Apply(Config{Tasks: []TaskDef{def}})
	advance(fk, time.Second)
	if snap := s.Snapshot(); snap.Fires != 1 {
		t.Fatalf("fires after unlock = %d, want 1", snap.Fires)
	}
}

func TestValidateSpecs(t *testing.T) {
	t.Parallel()
	s, _, _ := newTestRunner(t, Config{})
	if err := s.ValidateSpecs(Config{PruneSpec: "@hourly", SnapshotSpec: "*/5 * * * *"}); err != nil {
		t.Fatalf("ValidateSpecs error: %v", err)
	}
	if err := s.ValidateSpecs(Config{PruneSpec: "not a spec"}); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}

func TestStartIsIdempotent(t *testing.T) {
	t.Parallel()
	s, fk, _ := newTestRunner(t, Config{
		Tasks: []TaskDef{{Name: "once", Kind: frame.KindInterval}},
	})
	s.Start(context.Background())
	s.Start(context.Background())

	advance(fk, time.Millisecond)
	if snap := s.Snapshot(); snap.Fires != 1 {
		t.Fatalf("fires = %d, want 1", snap.Fires)
	}
}

func taskInfo(t *testing.T, s *Service, name string) frame.TaskInfo {
	t.Helper()
	for _, ti := range s.Snapshot().Tasks {
		if string(ti.Handle) == name {
			return ti
		}
	}
	t.Fatalf("task %q not found in snapshot", name)
	return frame.TaskInfo{}
}
