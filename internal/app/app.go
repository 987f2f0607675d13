// Package app wires the process together: config manager, logging,
// event bus, history store, and the frame runner. It owns startup
// order, config hot-reload fan-out, and bounded shutdown.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"framesched/internal/config"
	"framesched/internal/eventbus"
	"framesched/internal/history"
	"framesched/internal/runner"
	"framesched/internal/runtime/supervisor"
	logx "framesched/pkg/logx"
)

type App struct {
	cfgPath string

	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store history.Store
	rec   *history.Recorder

	run *runner.Service
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	bus := eventbus.New()

	logSvc, log := logx.New(mapLoggingConfig(cfg), bus)
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	// History (optional)
	hcfg, err := mapHistoryConfig(cfg)
	if err != nil {
		return nil, err
	}
	store, err := history.Open(hcfg, log.With(logx.String("comp", "history")))
	if err != nil {
		return nil, err
	}
	var rec *history.Recorder
	if store != nil {
		rec = history.NewRecorder(store, log.With(logx.String("comp", "history")), bus)
		log.Info("history enabled", logx.String("driver", hcfg.Driver), logx.String("path", hcfg.Path))
	}

	rcfg, err := mapRunnerConfig(cfg)
	if err != nil {
		return nil, err
	}
	runSvc := runner.New(rcfg, runner.Deps{
		Log:   log.With(logx.String("comp", "runner")),
		Bus:   bus,
		Store: store,
	})

	return &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		bus:     bus,
		store:   store,
		rec:     rec,
		run:     runSvc,
	}, nil
}

// Runner exposes the frame runner, mainly so operational code can reach
// the scheduler (register tasks, lock/unlock handles).
func (a *App) Runner() *runner.Service { return a.run }

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	// transactional config reload: validate before commit/publish
	a.cfgm.SetValidator(func(c context.Context, cfg *config.Config) error {
		if err := config.Validate(cfg); err != nil {
			return err
		}
		rcfg, err := mapRunnerConfig(cfg)
		if err != nil {
			return err
		}
		if _, err := mapHistoryConfig(cfg); err != nil {
			return err
		}
		return a.run.ValidateSpecs(rcfg)
	})

	a.run.Start(a.sup.Context())
	if a.rec != nil {
		a.sup.Go("history.recorder", a.rec.Run)
	}

	// Optional: log events for observability/debug (components can also subscribe themselves).
	if a.bus != nil {
		events, unsub := a.bus.Subscribe(128)
		a.sup.Go0("eventbus.log", func(c context.Context) {
			defer unsub()
			for {
				select {
				case <-c.Done():
					return
				case e, ok := <-events:
					if !ok {
						return
					}
					// Log records already went through the logger once;
					// echoing them here would feed the bus sink its own output.
					if e.Type == eventbus.TypeLog {
						continue
					}
					a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
				}
			}
		})
	}

	// hot reload config fan-out
	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		lastApplied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				// Coalesce bursts: keep only the latest config in the channel.
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							newCfg = newer
						}
					default:
						goto APPLY
					}
				}
			APPLY:
				sections, attrs := config.SummarizeChange(lastApplied, newCfg)
				if len(sections) > 0 {
					fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
					a.log.Debug("config change summary", fields...)
				} else {
					a.log.Debug("config reload received, but no effective changes detected")
				}
				lastApplied = newCfg

				for _, s := range sections {
					if s == "history" {
						a.log.Warn("history config changed; restart required for changes to take effect")
						break
					}
				}

				a.logs.Apply(mapLoggingConfig(newCfg))

				rcfg, err := mapRunnerConfig(newCfg)
				if err != nil {
					a.log.Warn("invalid runner config; keeping previous", logx.Err(err))
				} else {
					a.run.Apply(rcfg)
				}

				if len(sections) > 0 {
					fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
					a.log.Info("config reloaded", fields...)
				} else {
					a.log.Info("config reloaded (no changes)")
				}
			}
		}
	})

	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	a.notifyReady()

	a.log.Info("app started")
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping")
	a.notifyStopping()

	// First, cancel the app run context so background loops start unwinding immediately.
	a.sup.Cancel()

	// Helper: run a shutdown step with an upper bound so one component can't stall the whole stop.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()

		stepCtx := ctx
		var cancel context.CancelFunc
		if max > 0 {
			// respect the caller's deadline; never extend it
			if dl, ok := ctx.Deadline(); ok {
				rem := time.Until(dl)
				if rem <= 0 {
					max = 0
				} else if rem < max {
					max = rem
				}
			}
			if max > 0 {
				stepCtx, cancel = context.WithTimeout(ctx, max)
				defer cancel()
			}
		}

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			// Contract: fn MUST honor stepCtx and return promptly. If it doesn't, log a leak signal.
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name),
				logx.Err(stepCtx.Err()),
				logx.Duration("elapsed", time.Since(start)),
			)
		}
	}

	step("runner", 2*time.Second, func(c context.Context) error { a.run.Stop(c); return nil })
	step("supervisor", 2*time.Second, func(c context.Context) error { return a.sup.Wait(c) })
	step("history", time.Second, func(c context.Context) error {
		if a.store != nil {
			return a.store.Close()
		}
		return nil
	})

	a.log.Info("stopped")
	if a.logs != nil {
		a.logs.Close()
	}
	return nil
}

func mapLoggingConfig(cfg *config.Config) logx.Config {
	if cfg == nil {
		return logx.Config{Console: true}
	}
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Bus: logx.BusConfig{
			Enabled:    cfg.Logging.Bus.Enabled,
			MinLevel:   cfg.Logging.Bus.MinLevel,
			RatePerSec: cfg.Logging.Bus.RatePerSec,
		},
	}
}

func mapHistoryConfig(cfg *config.Config) (history.Config, error) {
	if cfg == nil || cfg.History == nil {
		return history.Config{}, nil
	}
	busy, err := config.ParseDurationOrDefault("history.busy_timeout", cfg.History.BusyTimeout, 0)
	if err != nil {
		return history.Config{}, err
	}
	retention, err := config.ParseDurationOrDefault("history.retention", cfg.History.Retention, 0)
	if err != nil {
		return history.Config{}, err
	}
	return history.Config{
		Driver:      cfg.History.Driver,
		Path:        cfg.History.Path,
		BusyTimeout: busy,
		Retention:   retention,
	}, nil
}

func mapRunnerConfig(cfg *config.Config) (runner.Config, error) {
	if cfg == nil {
		return runner.Config{}, nil
	}
	out := runner.Config{
		FrameRate:    cfg.Frame.Rate,
		PruneSpec:    cfg.Housekeeping.Prune,
		SnapshotSpec: cfg.Housekeeping.Snapshot,
	}
	if cfg.History != nil {
		retention, err := config.ParseDurationOrDefault("history.retention", cfg.History.Retention, 0)
		if err != nil {
			return runner.Config{}, err
		}
		out.Retention = retention
	}
	for _, t := range cfg.Tasks {
		def := runner.TaskDef{
			Name:    t.Name,
			Kind:    t.Kind,
			Locked:  t.Locked,
			Message: t.Message,
		}
		every, err := config.ParseDurationOrDefault(fmt.Sprintf("tasks[%s].every", t.Name), t.Every, 0)
		if err != nil {
			return runner.Config{}, err
		}
		after, err := config.ParseDurationOrDefault(fmt.Sprintf("tasks[%s].after", t.Name), t.After, 0)
		if err != nil {
			return runner.Config{}, err
		}
		def.Every = every
		def.After = after
		out.Tasks = append(out.Tasks, def)
	}
	return out, nil
}
