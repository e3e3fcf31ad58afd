package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	l.Info("hidden")
	l.Warn("shown", "lane", "Sync")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "lane=Sync") {
		t.Errorf("warn record missing: %s", out)
	}

	l.Level.Set(slog.LevelDebug)
	l.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("level change not applied")
	}
}

func TestNewFansOutToFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "reconcile.log")
	l, err := New(Options{Level: "info", Format: "json", File: path, Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("commit", "fibers", 3)
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, out := range []string{buf.String(), string(data)} {
		if !strings.Contains(out, `"msg":"commit"`) || !strings.Contains(out, `"fibers":3`) {
			t.Errorf("record missing from output: %s", out)
		}
	}
}

func TestSetLevel(t *testing.T) {
	level := new(slog.LevelVar)
	tests := []struct {
		name string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		if err := SetLevel(level, tt.name); err != nil {
			t.Fatalf("SetLevel(%q): %v", tt.name, err)
		}
		if level.Level() != tt.want {
			t.Errorf("SetLevel(%q) = %v, want %v", tt.name, level.Level(), tt.want)
		}
	}
	if err := SetLevel(level, "loud"); err == nil {
		t.Error("SetLevel(loud) should fail")
	}
}
