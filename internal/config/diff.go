package config

import (
	"reflect"
	"strings"

	logx "framesched/pkg/logx"
)

// SummarizeChange returns a compact list of changed sections plus safe
// structured attrs for logging the reload.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 5)
	attrs := make([]logx.Field, 0, 10)

	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logging.bus_enabled", newCfg.Logging.Bus.Enabled),
		)
	}

	if oldCfg.Frame.Rate != newCfg.Frame.Rate {
		changed = append(changed, "frame")
		attrs = append(attrs, logx.Int("frame.rate", newCfg.Frame.Rate))
	}

	if !reflect.DeepEqual(oldCfg.History, newCfg.History) {
		changed = append(changed, "history")
		driver := ""
		if newCfg.History != nil {
			driver = strings.TrimSpace(newCfg.History.Driver)
		}
		attrs = append(attrs, logx.String("history.driver", driver))
	}

	if !reflect.DeepEqual(oldCfg.Housekeeping, newCfg.Housekeeping) {
		changed = append(changed, "housekeeping")
		attrs = append(attrs,
			logx.String("housekeeping.prune", strings.TrimSpace(newCfg.Housekeeping.Prune)),
			logx.String("housekeeping.snapshot", strings.TrimSpace(newCfg.Housekeeping.Snapshot)),
		)
	}

	if !reflect.DeepEqual(oldCfg.Tasks, newCfg.Tasks) {
		changed = append(changed, "tasks")
		attrs = append(attrs, logx.Int("tasks.count", len(newCfg.Tasks)))
	}

	return changed, attrs
}
