package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestParseYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
logging:
  level: DEBUG
  console: true
frame:
  rate: 30
history:
  driver: sqlite
  path: ./history.db
  retention: 48h
tasks:
  - name: heartbeat
    kind: interval
    every: 5s
    message: still alive
`)

	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Logging.Level != "DEBUG" || !cfg.Logging.Console {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Frame.Rate != 30 {
		t.Fatalf("frame.rate = %d, want 30", cfg.Frame.Rate)
	}
	if cfg.History == nil || cfg.History.Driver != "sqlite" {
		t.Fatalf("unexpected history config: %+v", cfg.History)
	}
	if len(cfg.Tasks) != 1 || cfg.Tasks[0].Name != "heartbeat" {
		t.Fatalf("unexpected tasks: %+v", cfg.Tasks)
	}
	if got := m.Get(); got != cfg {
		t.Fatal("Get must return the committed config")
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "config.json", `{"logging":{"level":"INFO"},"bogus":true}`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	path := writeConfig(t, "config.json", `{"logging":{"level":"INFO"}}{"more":1}`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatal("expected error for trailing data")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FRAMESCHED_LOG_LEVEL", "ERROR")
	t.Setenv("FRAMESCHED_FRAME_RATE", "120")

	path := writeConfig(t, "config.yaml", "logging:\n  level: INFO\nframe:\n  rate: 30\n")
	cfg, err := NewManager(path).Parse()
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if cfg.Logging.Level != "ERROR" {
		t.Fatalf("level = %q, want env override ERROR", cfg.Logging.Level)
	}
	if cfg.Frame.Rate != 120 {
		t.Fatalf("frame.rate = %d, want env override 120", cfg.Frame.Rate)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "empty ok"},
		{
			name: "valid tasks",
			cfg: Config{Tasks: []TaskConfig{
				{Name: "a", Kind: "interval", Every: "5s"},
				{Name: "b", Kind: "timeout", After: "1m"},
			}},
		},
		{
			name:    "missing name",
			cfg:     Config{Tasks: []TaskConfig{{Kind: "interval"}}},
			wantErr: true,
		},
		{
			name: "duplicate name",
			cfg: Config{Tasks: []TaskConfig{
				{Name: "a", Kind: "interval"},
				{Name: "a", Kind: "timeout"},
			}},
			wantErr: true,
		},
		{
			name:    "bad kind",
			cfg:     Config{Tasks: []TaskConfig{{Name: "a", Kind: "cron"}}},
			wantErr: true,
		},
		{
			name:    "negative duration",
			cfg:     Config{Tasks: []TaskConfig{{Name: "a", Kind: "interval", Every: "-2s"}}},
			wantErr: true,
		},
		{
			name:    "bad history driver",
			cfg:     Config{History: &HistoryConfig{Driver: "postgres"}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSummarizeChange(t *testing.T) {
	t.Parallel()
	oldCfg := &Config{Frame: FrameConfig{Rate: 30}}
	newCfg := &Config{
		Frame:   FrameConfig{Rate: 60},
		Logging: LoggingConfig{Level: "DEBUG"},
	}
	changed, _ := SummarizeChange(oldCfg, newCfg)
	if len(changed) != 2 {
		t.Fatalf("changed = %v, want logging+frame", changed)
	}

	changed, _ = SummarizeChange(newCfg, newCfg)
	if len(changed) != 0 {
		t.Fatalf("identical configs reported changes: %v", changed)
	}
}

func TestParseDurationOrDefault(t *testing.T) {
	t.Parallel()
	d, err := ParseDurationOrDefault("x", "", 5*time.Second)
	if err != nil || d != 5*time.Second {
		t.Fatalf("got (%v, %v), want 5s default", d, err)
	}
	d, err = ParseDurationOrDefault("x", "250ms", 5*time.Second)
	if err != nil || d != 250*time.Millisecond {
		t.Fatalf("got (%v, %v), want 250ms", d, err)
	}
	if _, err := ParseDurationField("x", "nope"); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}
