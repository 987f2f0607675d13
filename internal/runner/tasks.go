package runner

import (
	"strings"

	"framesched/internal/frame"
	logx "framesched/pkg/logx"
)

// applyTasksLocked reconciles the scheduler against the declared task set:
// new and changed declarations are upserted (which resets their timing),
// unchanged ones are left alone, and declarations dropped from config are
// cancelled. Call with s.mu held.
func (s *Service) applyTasksLocked(defs []TaskDef) {
	seen := map[string]bool{}
	for _, d := range defs {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			continue
		}
		seen[name] = true

		prev, existed := s.declared[name]
		if existed && prev == d {
			continue
		}

		h := frame.Handle(name)
		fn := s.taskFunc(name, d)
		var err error
		switch strings.TrimSpace(strings.ToLower(d.Kind)) {
		case frame.KindTimeout:
			_, err = s.sched.Timeout(h, d.After, fn)
		default:
			_, err = s.sched.Interval(h, d.Every, fn)
		}
		if err != nil {
			s.log.Error("task declaration rejected", logx.String("name", name), logx.Err(err))
			continue
		}
		if d.Locked {
			s.sched.Lock(h)
		} else {
			s.sched.Unlock(h)
		}
		s.declared[name] = d
		s.log.Debug("task declared",
			logx.String("name", name), logx.String("kind", d.Kind), logx.Bool("locked", d.Locked))
	}

	for name := range s.declared {
		if seen[name] {
			continue
		}
		s.sched.Cancel(frame.Handle(name))
		delete(s.declared, name)
		s.log.Debug("task undeclared", logx.String("name", name))
	}
}

func (s *Service) taskFunc(name string, d TaskDef) frame.TaskFunc {
	msg := strings.TrimSpace(d.Message)
	if msg == "" {
		msg = "task fired"
	}
	log := s.log.With(logx.String("task", name))
	return func(f frame.Frame) {
		log.Info(msg, logx.Duration("delta", f.Delta), logx.Int64("elapsed_s", f.Elapsed))
	}
}
