package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full pipeline configuration.
type Config struct {
	Queue      QueueConfig      `toml:"queue"`
	Dispatcher DispatcherConfig `toml:"dispatcher"`
	Loop       LoopConfig       `toml:"loop"`
	Transport  TransportConfig  `toml:"transport"`
	Logging    LoggingConfig    `toml:"logging"`
}

// QueueConfig sizes the inbound event ring.
type QueueConfig struct {
	// SizeBits is the ring capacity exponent: capacity = 1 << SizeBits.
	SizeBits int `toml:"size_bits"`
}

// DispatcherConfig controls callback dispatch.
type DispatcherConfig struct {
	MaxBatch         int `toml:"max_batch"`
	MaxCallbacks     int `toml:"max_callbacks"`
	FeedbackWindowMS int `toml:"feedback_window_ms"`
}

// LoopConfig controls the processing loop.
type LoopConfig struct {
	PollIntervalUS int `toml:"poll_interval_us"`
}

// TransportConfig controls the device connection.
type TransportConfig struct {
	PauseTimeoutMS int `toml:"pause_timeout_ms"`
	ReadTimeoutMS  int `toml:"read_timeout_ms"`

	// PreferredProductIDs orders device selection when more than one
	// supported controller is attached. Empty means first discovered.
	PreferredProductIDs []uint16 `toml:"preferred_product_ids"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text, json
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Queue:      QueueConfig{SizeBits: 12},
		Dispatcher: DispatcherConfig{MaxBatch: 32, MaxCallbacks: 32, FeedbackWindowMS: 50},
		Loop:       LoopConfig{PollIntervalUS: 1000},
		Transport:  TransportConfig{PauseTimeoutMS: 250, ReadTimeoutMS: 10},
		Logging:    LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads a TOML file over the defaults. A missing file is not an
// error: defaults apply. Values the file does not set keep their
// defaults; set values are validated.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), &ParseError{Path: path, Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// Validate checks every field against its legal range.
func (c Config) Validate() error {
	if c.Queue.SizeBits < 4 || c.Queue.SizeBits > 16 {
		return &ValidationError{Field: "queue.size_bits", Message: "must be between 4 and 16"}
	}
	if c.Dispatcher.MaxBatch < 1 {
		return &ValidationError{Field: "dispatcher.max_batch", Message: "must be at least 1"}
	}
	if c.Dispatcher.MaxCallbacks < 1 {
		return &ValidationError{Field: "dispatcher.max_callbacks", Message: "must be at least 1"}
	}
	if c.Dispatcher.FeedbackWindowMS < 0 {
		return &ValidationError{Field: "dispatcher.feedback_window_ms", Message: "must not be negative"}
	}
	if c.Loop.PollIntervalUS < 100 {
		return &ValidationError{Field: "loop.poll_interval_us", Message: "must be at least 100"}
	}
	if c.Transport.PauseTimeoutMS < 1 {
		return &ValidationError{Field: "transport.pause_timeout_ms", Message: "must be at least 1"}
	}
	if c.Transport.ReadTimeoutMS < 1 {
		return &ValidationError{Field: "transport.read_timeout_ms", Message: "must be at least 1"}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Field: "logging.level", Message: "must be debug, info, warn, or error"}
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return &ValidationError{Field: "logging.format", Message: "must be text or json"}
	}
	return nil
}

// FeedbackWindow returns the echo suppression window as a duration.
func (c DispatcherConfig) FeedbackWindow() time.Duration {
	return time.Duration(c.FeedbackWindowMS) * time.Millisecond
}

// PollInterval returns the loop tick as a duration.
func (c LoopConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalUS) * time.Microsecond
}

// PauseTimeout returns the pause acknowledgement window as a duration.
func (c TransportConfig) PauseTimeout() time.Duration {
	return time.Duration(c.PauseTimeoutMS) * time.Millisecond
}

// ReadTimeout returns the reader blocking window as a duration.
func (c TransportConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMS) * time.Millisecond
}
