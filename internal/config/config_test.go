package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gridpipe.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
[dispatcher]
feedback_window_ms = 75

[logging]
format = "json"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dispatcher.FeedbackWindowMS != 75 {
		t.Errorf("feedback_window_ms = %d, want 75", cfg.Dispatcher.FeedbackWindowMS)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("format = %q, want json", cfg.Logging.Format)
	}
	// Untouched sections keep their defaults.
	if cfg.Queue.SizeBits != Default().Queue.SizeBits {
		t.Errorf("size_bits = %d, want default %d", cfg.Queue.SizeBits, Default().Queue.SizeBits)
	}
}

func TestLoad_PreferredProductIDs(t *testing.T) {
	path := writeConfig(t, `
[transport]
preferred_product_ids = [79, 40]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []uint16{0x4F, 0x28}
	if !reflect.DeepEqual(cfg.Transport.PreferredProductIDs, want) {
		t.Errorf("preferred_product_ids = %v, want %v", cfg.Transport.PreferredProductIDs, want)
	}
}

func TestLoad_ParseError(t *testing.T) {
	path := writeConfig(t, "queue = [broken")
	_, err := Load(path)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Load = %v, want ParseError", err)
	}
	if perr.Path != path {
		t.Errorf("Path = %q, want %q", perr.Path, path)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"size bits too small", "[queue]\nsize_bits = 2", "queue.size_bits"},
		{"size bits too large", "[queue]\nsize_bits = 20", "queue.size_bits"},
		{"zero batch", "[dispatcher]\nmax_batch = 0", "dispatcher.max_batch"},
		{"negative window", "[dispatcher]\nfeedback_window_ms = -1", "dispatcher.feedback_window_ms"},
		{"tick too fast", "[loop]\npoll_interval_us = 10", "loop.poll_interval_us"},
		{"bad level", "[logging]\nlevel = \"verbose\"", "logging.level"},
		{"bad format", "[logging]\nformat = \"xml\"", "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Load = %v, want ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := Default()
	if got := cfg.Dispatcher.FeedbackWindow(); got != 50*time.Millisecond {
		t.Errorf("FeedbackWindow = %v", got)
	}
	if got := cfg.Loop.PollInterval(); got != time.Millisecond {
		t.Errorf("PollInterval = %v", got)
	}
	if got := cfg.Transport.PauseTimeout(); got != 250*time.Millisecond {
		t.Errorf("PauseTimeout = %v", got)
	}
	if got := cfg.Transport.ReadTimeout(); got != 10*time.Millisecond {
		t.Errorf("ReadTimeout = %v", got)
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "[dispatcher]\nmax_batch = 16\n")

	reloads := make(chan Config, 4)
	w, err := Watch(path, func(c Config) { reloads <- c }, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("[dispatcher]\nmax_batch = 8\n"), 0o644); err != nil {
		t.Fatalf("rewriting config: %v", err)
	}

	select {
	case cfg := <-reloads:
		if cfg.Dispatcher.MaxBatch != 8 {
			t.Errorf("max_batch = %d, want 8", cfg.Dispatcher.MaxBatch)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}
}

func TestWatch_InvalidChangeSkipped(t *testing.T) {
	path := writeConfig(t, "[queue]\nsize_bits = 12\n")

	reloads := make(chan Config, 4)
	w, err := Watch(path, func(c Config) { reloads <- c }, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("[queue]\nsize_bits = 99\n"), 0o644); err != nil {
		t.Fatalf("rewriting config: %v", err)
	}

	select {
	case cfg := <-reloads:
		t.Errorf("invalid config delivered: %+v", cfg)
	case <-time.After(300 * time.Millisecond):
	}
}
