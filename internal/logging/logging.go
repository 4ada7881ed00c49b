// Package logging constructs the structured logger shared by every
// component from the logging section of the configuration.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dshills/gridpipe/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	Writer io.Writer
}

// New constructs a slog logger from the given options. Unknown levels
// fall back to info, unknown formats to text.
func New(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	hopts := &slog.HandlerOptions{Level: parseLevel(opts.Level)}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "json":
		handler = slog.NewJSONHandler(w, hopts)
	default:
		handler = slog.NewTextHandler(w, hopts)
	}
	return slog.New(handler)
}

// NewFromConfig constructs the logger described by a loaded config.
func NewFromConfig(cfg config.LoggingConfig) *slog.Logger {
	return New(Options{Level: cfg.Level, Format: cfg.Format})
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
