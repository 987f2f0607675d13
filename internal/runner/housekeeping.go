package runner

import (
	"context"
	"strings"
	"time"

	logx "framesched/pkg/logx"
)

const defaultPruneSpec = "@hourly"

// rescheduleHousekeepingLocked (re)registers the prune and snapshot cron
// jobs. Call with s.mu held and s.c non-nil.
func (s *Service) rescheduleHousekeepingLocked() {
	if s.c == nil {
		return
	}
	if s.pruneID != 0 {
		s.c.Remove(s.pruneID)
		s.pruneID = 0
	}
	if s.snapID != 0 {
		s.c.Remove(s.snapID)
		s.snapID = 0
	}

	if s.store != nil {
		spec := strings.TrimSpace(s.cfg.PruneSpec)
		if spec == "" {
			spec = defaultPruneSpec
		}
		id, err := s.c.AddFunc(spec, s.pruneHistory)
		if err != nil {
			s.log.Error("prune schedule rejected", logx.String("spec", spec), logx.Err(err))
		} else {
			s.pruneID = id
		}
	}

	if spec := strings.TrimSpace(s.cfg.SnapshotSpec); spec != "" {
		id, err := s.c.AddFunc(spec, s.logSnapshot)
		if err != nil {
			s.log.Error("snapshot schedule rejected", logx.String("spec", spec), logx.Err(err))
		} else {
			s.snapID = id
		}
	}
}

func (s *Service) pruneHistory() {
	s.mu.Lock()
	store := s.store
	retention := s.cfg.Retention
	s.mu.Unlock()
	if store == nil {
		return
	}
	if retention <= 0 {
		retention = defaultRetention
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	n, err := store.Prune(ctx, time.Now().Add(-retention))
	if err != nil {
		s.log.Warn("history prune failed", logx.Err(err))
		return
	}
	if n > 0 {
		s.log.Info("history pruned", logx.Int64("rows", n), logx.Duration("retention", retention))
	}
}

func (s *Service) logSnapshot() {
	snap := s.Snapshot()
	locked := 0
	for _, t := range snap.Tasks {
		if t.Locked {
			locked++
		}
	}
	s.log.Info("scheduler snapshot",
		logx.Bool("running", snap.Running),
		logx.Uint64("ticks", snap.Ticks),
		logx.Uint64("fires", snap.Fires),
		logx.Int("tasks", len(snap.Tasks)),
		logx.Int("locked", locked),
		logx.Int("frame_rate", snap.FrameRate),
	)
}
