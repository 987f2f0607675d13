package app

import (
	"framesched/internal/frame"
	logx "framesched/pkg/logx"

	"github.com/coreos/go-systemd/v22/daemon"
)

// watchdogHandle names the scheduler task that pets the systemd watchdog.
// Reserved: a config task with the same name would replace it.
const watchdogHandle frame.Handle = "systemd.watchdog"

// notifyReady tells systemd the service is up and, when WatchdogSec is set
// on the unit, registers an interval task that pets the watchdog at half
// the configured period. Outside systemd both calls are no-ops.
func (a *App) notifyReady() {
	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Warn("systemd notify failed", logx.Err(err))
	} else if sent {
		a.log.Debug("systemd notified ready")
	}

	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		a.log.Warn("systemd watchdog query failed", logx.Err(err))
		return
	}
	if interval <= 0 {
		return
	}
	pet := interval / 2
	if _, err := a.run.Scheduler().Interval(watchdogHandle, pet, func(frame.Frame) {
		_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
	}); err != nil {
		a.log.Warn("watchdog task registration failed", logx.Err(err))
		return
	}
	a.log.Info("systemd watchdog enabled", logx.Duration("interval", interval), logx.Duration("pet_every", pet))
}

func (a *App) notifyStopping() {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
}
