package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Storage.DB != nil || cfg.Coach.Model != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigAndResolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[storage]
db = "/tmp/studo-test.db"

[coach]
model = "gemini-test"
timeout = "3s"

[focus]
tick = "250ms"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	file, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	env := map[string]string{APIKeyEnv: "from-env"}
	cfg := Resolve(file, func(k string) string { return env[k] })
	if cfg.DBPath != "/tmp/studo-test.db" || cfg.Model != "gemini-test" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Timeout != 3*time.Second || cfg.Tick != 250*time.Millisecond {
		t.Fatalf("unexpected durations: %+v", cfg)
	}
	if cfg.APIKey != "from-env" {
		t.Fatalf("expected API key from environment, got %q", cfg.APIKey)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestFileKeyOverridesEnvironment(t *testing.T) {
	key := "from-file"
	cfg := Resolve(FileConfig{Coach: CoachConfig{APIKey: &key}}, func(string) string { return "from-env" })
	if cfg.APIKey != "from-file" {
		t.Fatalf("expected file key, got %q", cfg.APIKey)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[focus]\nspeed = 2\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), "focus.speed") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadConfigBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[coach]\ntimeout = \"soon\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected duration error")
	}
}

func TestValidate(t *testing.T) {
	cfg := Resolve(FileConfig{}, func(string) string { return "" })
	cfg.Tick = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected tick validation error")
	}
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "studo", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/data", "studo", "studo.db") {
		t.Fatalf("unexpected db path %q", got)
	}
}
