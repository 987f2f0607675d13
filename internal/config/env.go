package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// envOverrides are the environment knobs layered on top of the config file.
// They win over file values, which keeps containerized deployments from
// having to template the file for the common tweaks.
type envOverrides struct {
	LogLevel  string `env:"FRAMESCHED_LOG_LEVEL"`
	FrameRate int    `env:"FRAMESCHED_FRAME_RATE"`
}

func applyEnvOverrides(cfg *Config) error {
	var ov envOverrides
	if err := envconfig.Process(context.Background(), &ov); err != nil {
		return fmt.Errorf("env overrides: %w", err)
	}
	if lvl := strings.TrimSpace(ov.LogLevel); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if ov.FrameRate > 0 {
		cfg.Frame.Rate = ov.FrameRate
	}
	return nil
}
