package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := Default()
	cfg.DefaultSession = "work"
	cfg.Channel = "team"
	cfg.Timing.Heartbeat = 250 * time.Millisecond
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultSession != "work" {
		t.Errorf("DefaultSession = %q, want %q", loaded.DefaultSession, "work")
	}
	if loaded.Channel != "team" {
		t.Errorf("Channel = %q, want %q", loaded.Channel, "team")
	}
	if loaded.Timing.Heartbeat != 250*time.Millisecond {
		t.Errorf("Heartbeat = %v, want 250ms", loaded.Timing.Heartbeat)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "channel = \"ops\"\n\n[timing]\nexpire_sweep = \"5s\"\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Timing.ExpireSweep != 5*time.Second {
		t.Errorf("ExpireSweep = %v, want 5s", cfg.Timing.ExpireSweep)
	}
	if cfg.Timing.Heartbeat != 100*time.Millisecond {
		t.Errorf("Heartbeat = %v, want default 100ms", cfg.Timing.Heartbeat)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want default info", cfg.LogLevel)
	}
}

func TestResolveWithoutFile(t *testing.T) {
	cfg, err := Resolve(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if cfg.Channel != "lobby" {
		t.Errorf("Channel = %q, want lobby", cfg.Channel)
	}
	if cfg.Timing != DefaultTiming() {
		t.Errorf("Timing = %+v, want defaults", cfg.Timing)
	}
}

func TestResolveEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("channel = \"file\"\nlog_level = \"warn\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HUDDLE_CHANNEL", "env")
	t.Setenv("HUDDLE_TIMING_TYPING_DEBOUNCE", "1500ms")

	cfg, err := Resolve(path)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if cfg.Channel != "env" {
		t.Errorf("Channel = %q, want env", cfg.Channel)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn from file", cfg.LogLevel)
	}
	if cfg.Timing.TypingDebounce != 1500*time.Millisecond {
		t.Errorf("TypingDebounce = %v, want 1.5s", cfg.Timing.TypingDebounce)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero heartbeat", func(c *Config) { c.Timing.Heartbeat = 0 }, true},
		{"negative sweep", func(c *Config) { c.Timing.ExpireSweep = -time.Second }, true},
		{"stale not above heartbeat", func(c *Config) { c.Timing.PresenceStale = c.Timing.Heartbeat }, true},
		{"empty channel", func(c *Config) { c.Channel = "" }, true},
		{"channel with slash", func(c *Config) { c.Channel = "a/b" }, true},
		{"bad default session", func(c *Config) { c.DefaultSession = "Main" }, true},
		{"unknown log level", func(c *Config) { c.LogLevel = "trace" }, true},
		{"debug log level", func(c *Config) { c.LogLevel = "debug" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
