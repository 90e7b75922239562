package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, DefaultTimeout)
	}
	if !cfg.History.Enabled {
		t.Error("History.Enabled = false, want true")
	}
	if cfg.Tracing.Enabled {
		t.Error("Tracing.Enabled = true, want false by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, true},
		{"sample rate too high", func(c *Config) { c.Tracing.SampleRate = 1.5 }, true},
		{"unknown exporter", func(c *Config) { c.Tracing.ExporterType = "jaeger" }, true},
		{"otlp exporter", func(c *Config) { c.Tracing.ExporterType = "otlp" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoaderMissingDefaultFile(t *testing.T) {
	loader, err := NewLoader(t.TempDir())
	if err != nil {
		t.Fatalf("NewLoader() returned error: %v", err)
	}

	cfg, err := loader.Load("")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want defaults when file missing", cfg.Timeout)
	}
}

func TestLoaderMissingExplicitFile(t *testing.T) {
	loader, err := NewLoader(t.TempDir())
	if err != nil {
		t.Fatalf("NewLoader() returned error: %v", err)
	}

	if _, err := loader.Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() = nil error for missing explicit file, want error")
	}
}

func TestLoaderParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := strings.Join([]string{
		"default_target: npx -y @modelcontextprotocol/server-everything",
		"timeout: 10s",
		"logging:",
		"  level: debug",
		"tracing:",
		"  enabled: true",
		"  exporter_type: stdout",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	loader, err := NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader() returned error: %v", err)
	}
	cfg, err := loader.Load("")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.DefaultTarget != "npx -y @modelcontextprotocol/server-everything" {
		t.Errorf("DefaultTarget = %q", cfg.DefaultTarget)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if !cfg.Tracing.Enabled {
		t.Error("Tracing.Enabled = false, want true")
	}
	// Unset sections keep their defaults.
	if cfg.History.Path != DefaultHistoryPath {
		t.Errorf("History.Path = %q, want default", cfg.History.Path)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	loader, err := NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader() returned error: %v", err)
	}

	cfg := NewDefaultConfig()
	cfg.DefaultTarget = "./server"
	if err := loader.Save(cfg, ""); err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}

	loaded, err := loader.Load("")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if loaded.DefaultTarget != "./server" {
		t.Errorf("DefaultTarget = %q, want ./server", loaded.DefaultTarget)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	if got := ExpandPath("~/x/y.db"); got != filepath.Join(home, "x/y.db") {
		t.Errorf("ExpandPath(~/x/y.db) = %q", got)
	}
	if got := ExpandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("ExpandPath(/abs/path) = %q", got)
	}
}
