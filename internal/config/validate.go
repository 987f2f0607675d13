package config

import (
	"fmt"
	"strings"
)

// Validate checks shape-level constraints the strict decoder can't express.
// Cron specs under housekeeping are validated by the runner, which owns the
// parser.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if cfg.History != nil {
		switch strings.TrimSpace(strings.ToLower(cfg.History.Driver)) {
		case "", "none", "sqlite":
		default:
			return fmt.Errorf("history.driver: unknown driver %q", cfg.History.Driver)
		}
		if _, err := ParseDurationField("history.busy_timeout", cfg.History.BusyTimeout); err != nil {
			return err
		}
		if _, err := ParseDurationField("history.retention", cfg.History.Retention); err != nil {
			return err
		}
	}

	seen := map[string]bool{}
	for i, t := range cfg.Tasks {
		name := strings.TrimSpace(t.Name)
		path := fmt.Sprintf("tasks[%d]", i)
		if name == "" {
			return fmt.Errorf("%s: name required", path)
		}
		if seen[name] {
			return fmt.Errorf("%s: duplicate task name %q", path, name)
		}
		seen[name] = true

		switch strings.TrimSpace(strings.ToLower(t.Kind)) {
		case "interval":
			if _, err := ParseDurationField(path+".every", t.Every); err != nil {
				return err
			}
		case "timeout":
			if _, err := ParseDurationField(path+".after", t.After); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%s: unknown kind %q (want interval or timeout)", path, t.Kind)
		}
	}
	return nil
}
