package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/dshills/gridpipe/internal/config"
)

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: "info", Format: "text", Writer: &buf})

	logger.Info("pipeline started", "queue_depth", 0)
	out := buf.String()
	if !strings.Contains(out, "pipeline started") {
		t.Errorf("output missing message: %q", out)
	}
	if !strings.Contains(out, "queue_depth=0") {
		t.Errorf("output missing attribute: %q", out)
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: "info", Format: "json", Writer: &buf})

	logger.Info("pipeline started")
	if !strings.Contains(buf.String(), `"msg":"pipeline started"`) {
		t.Errorf("output not JSON: %q", buf.String())
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: "warn", Format: "text", Writer: &buf})

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info leaked through warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn missing: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"  ERROR ", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewFromConfig(t *testing.T) {
	logger := NewFromConfig(config.Default().Logging)
	if logger == nil {
		t.Fatal("nil logger")
	}
	ctx := context.Background()
	if !logger.Enabled(ctx, slog.LevelInfo) {
		t.Error("info not enabled at default level")
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		t.Error("debug enabled at default level")
	}
}
