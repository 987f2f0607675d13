package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	logx "framesched/pkg/logx"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	st, err := Open(Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "history.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none"} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil || st != nil {
			t.Fatalf("Open(%q) = (%v, %v), want (nil, nil)", driver, st, err)
		}
	}
	if _, err := Open(Config{Driver: "postgres"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestAppendAndRecentFires(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := st.AppendFire(ctx, FireRecord{
			At:      base.Add(time.Duration(i) * time.Second),
			Handle:  "heartbeat",
			Kind:    "interval",
			Delta:   time.Second,
			Elapsed: int64(i),
		})
		if err != nil {
			t.Fatalf("AppendFire error: %v", err)
		}
	}

	got, err := st.RecentFires(ctx, 2)
	if err != nil {
		t.Fatalf("RecentFires error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("records = %d, want 2", len(got))
	}
	// Newest first.
	if got[0].Elapsed != 2 || got[1].Elapsed != 1 {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[0].Handle != "heartbeat" || got[0].Kind != "interval" || got[0].Delta != time.Second {
		t.Fatalf("unexpected record: %+v", got[0])
	}
	if !got[0].At.Equal(base.Add(2 * time.Second)) {
		t.Fatalf("at = %v, want %v", got[0].At, base.Add(2*time.Second))
	}
}

func TestPrune(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := st.AppendFire(ctx, FireRecord{At: base.Add(time.Duration(i) * time.Hour), Handle: "h", Kind: "interval"}); err != nil {
			t.Fatalf("AppendFire error: %v", err)
		}
	}

	n, err := st.Prune(ctx, base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("Prune error: %v", err)
	}
	if n != 3 {
		t.Fatalf("pruned = %d, want 3", n)
	}
	rest, err := st.RecentFires(ctx, 10)
	if err != nil {
		t.Fatalf("RecentFires error: %v", err)
	}
	if len(rest) != 2 {
		t.Fatalf("remaining = %d, want 2", len(rest))
	}
}
