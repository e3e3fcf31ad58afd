package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vango-dev/reconciler/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Scheduler.FrameInterval != DefaultFrameInterval {
		t.Errorf("Scheduler.FrameInterval = %v, want %v", cfg.Scheduler.FrameInterval, DefaultFrameInterval)
	}
	if cfg.Devtools.Port != DefaultDevtoolsPort {
		t.Errorf("Devtools.Port = %d, want %d", cfg.Devtools.Port, DefaultDevtoolsPort)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	// Missing file
	_, err := Load(tmpDir)
	if err == nil {
		t.Fatal("Expected error for missing config")
	}
	if !errors.HasCode(err, errors.CodeInvalidConfigFile) {
		t.Errorf("error code = %v, want %s", err, errors.CodeInvalidConfigFile)
	}

	configYAML := `log:
  level: debug
scheduler:
  frameInterval: 12ms
reconciler:
  debug: true
devtools:
  port: 9090
bench:
  roots: 4
`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Scheduler.FrameInterval != 12*time.Millisecond {
		t.Errorf("Scheduler.FrameInterval = %v, want 12ms", cfg.Scheduler.FrameInterval)
	}
	if !cfg.Reconciler.Debug {
		t.Error("Reconciler.Debug should be true")
	}
	if cfg.Devtools.Port != 9090 {
		t.Errorf("Devtools.Port = %d, want %d", cfg.Devtools.Port, 9090)
	}
	if cfg.Bench.Roots != 4 {
		t.Errorf("Bench.Roots = %d, want 4", cfg.Bench.Roots)
	}

	// Defaults for omitted fields
	if cfg.Devtools.Host != DefaultDevtoolsHost {
		t.Errorf("Devtools.Host = %q, want %q", cfg.Devtools.Host, DefaultDevtoolsHost)
	}
	if cfg.Bench.Items != 1000 {
		t.Errorf("Bench.Items = %d, want 1000", cfg.Bench.Items)
	}
	if cfg.Path() != filepath.Join(tmpDir, ConfigFileName) {
		t.Errorf("Path() = %q", cfg.Path())
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(t.TempDir())
	if err != nil {
		t.Fatalf("LoadOrDefault error: %v", err)
	}
	if cfg.Devtools.Port != DefaultDevtoolsPort {
		t.Errorf("Devtools.Port = %d, want default", cfg.Devtools.Port)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantCode string
	}{
		{"bad yaml", "log: [unterminated", errors.CodeInvalidConfigFile},
		{"bad level", "log:\n  level: loud\n", errors.CodeInvalidConfigValue},
		{"bad port", "devtools:\n  port: 70000\n", errors.CodeInvalidConfigValue},
		{"bad format", "log:\n  format: xml\n", errors.CodeInvalidConfigValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ConfigFileName)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadFile(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.HasCode(err, tt.wantCode) {
				t.Errorf("error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)

	cfg := New()
	cfg.Scheduler.FrameInterval = 8 * time.Millisecond
	cfg.Devtools.Port = 8181
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if loaded.Scheduler.FrameInterval != 8*time.Millisecond {
		t.Errorf("FrameInterval = %v, want 8ms", loaded.Scheduler.FrameInterval)
	}
	if loaded.Devtools.Port != 8181 {
		t.Errorf("Devtools.Port = %d, want 8181", loaded.Devtools.Port)
	}
}

func TestDevtoolsAddress(t *testing.T) {
	cfg := New()
	if got := cfg.DevtoolsAddress(); got != "localhost:7070" {
		t.Errorf("DevtoolsAddress() = %q, want %q", got, "localhost:7070")
	}
}
