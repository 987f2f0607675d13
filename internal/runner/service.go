package runner

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"framesched/internal/frame"
	"framesched/internal/history"
	"framesched/internal/ticker"
	logx "framesched/pkg/logx"
)

type Service struct {
	mu sync.Mutex

	log   logx.Logger
	cfg   Config
	store history.Store

	wall  *ticker.Wall // nil when a ticker override is injected
	sched *frame.Scheduler

	parser  cron.Parser
	c       *cron.Cron
	pruneID cron.EntryID
	snapID  cron.EntryID

	// declared tracks task names registered from config, so Apply can cancel
	// tasks removed from the file without touching programmatic ones.
	declared map[string]TaskDef

	cancel context.CancelFunc
}

func New(cfg Config, deps Deps) *Service {
	log := deps.Log
	if log.IsZero() {
		log = logx.Nop()
	}

	tk := deps.Ticker
	var wall *ticker.Wall
	if tk == nil {
		wall = ticker.NewWall(cfg.FrameRate, log.With(logx.String("comp", "ticker")))
		tk = wall
	}

	s := &Service{
		log:   log,
		cfg:   cfg,
		store: deps.Store,
		wall:  wall,
		sched: frame.New(tk, frame.Options{
			Clock:  deps.Clock,
			Logger: log.With(logx.String("comp", "frame")),
			Bus:    deps.Bus,
		}),
		parser:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		declared: map[string]TaskDef{},
	}
	return s
}

// Scheduler exposes the frame scheduler for programmatic tasks (watchdog,
// probes). Callers must not assume exclusive use of any handle namespace.
func (s *Service) Scheduler() *frame.Scheduler { return s.sched }

// ValidateSpecs checks the housekeeping cron specs in cfg without applying
// anything. Used as a config validator before hot reloads commit.
func (s *Service) ValidateSpecs(cfg Config) error {
	for _, spec := range []string{cfg.PruneSpec, cfg.SnapshotSpec} {
		if spec == "" {
			continue
		}
		if _, err := s.parser.Parse(spec); err != nil {
			return err
		}
	}
	return nil
}

// Start arms the declared tasks, starts housekeeping, begins driving frames,
// and calls Exec on the scheduler. Calling Start twice is a no-op.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.applyTasksLocked(s.cfg.Tasks)

	s.c = cron.New(cron.WithParser(s.parser))
	s.rescheduleHousekeepingLocked()
	s.c.Start()

	wall := s.wall
	rate := s.cfg.FrameRate
	taskCount := len(s.declared)
	s.mu.Unlock()

	if wall != nil {
		go func() { _ = wall.Run(runCtx) }()
	}
	s.sched.Exec()

	s.log.Info("runner started", logx.Int("frame_rate", rate), logx.Int("tasks", taskCount))
}

// Stop halts housekeeping and frame delivery. Registered tasks and their
// timing state stay in the scheduler; the drive chain resumes if frames are
// ever delivered again.
func (s *Service) Stop(ctx context.Context) {
	start := time.Now()

	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	c := s.c
	s.c = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	if c != nil {
		select {
		case <-c.Stop().Done():
		case <-ctx.Done():
			// best-effort
		}
	}
	s.log.Info("runner stopped", logx.Duration("took", time.Since(start)))
}

// Apply reconfigures the runner at runtime: frame rate, declared task set,
// housekeeping schedules, and retention.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	oldPrune, oldSnap := s.cfg.PruneSpec, s.cfg.SnapshotSpec
	s.cfg = cfg

	if s.wall != nil {
		s.wall.Apply(cfg.FrameRate)
	}

	running := s.cancel != nil
	if running {
		s.applyTasksLocked(cfg.Tasks)
		if s.c != nil && (oldPrune != cfg.PruneSpec || oldSnap != cfg.SnapshotSpec) {
			s.rescheduleHousekeepingLocked()
		}
	}
	s.mu.Unlock()

	if running {
		s.log.Info("runner reconfigured",
			logx.Int("frame_rate", cfg.FrameRate), logx.Int("tasks", len(cfg.Tasks)))
	}
}

// Snapshot returns a diagnostic view of the runner and its scheduler.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	rate := s.cfg.FrameRate
	if rate <= 0 {
		rate = ticker.DefaultRate
	}
	retention := s.cfg.Retention
	if retention <= 0 {
		retention = defaultRetention
	}
	running := s.cancel != nil
	s.mu.Unlock()

	fs := s.sched.Snapshot()
	return Snapshot{
		Running:   running,
		FrameRate: rate,
		Ticks:     fs.Ticks,
		Fires:     fs.Fires,
		Retention: retention,
		Tasks:     fs.Tasks,
	}
}
