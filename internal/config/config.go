// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers defaults, an optional YAML file and PITWALL_* env vars.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"context"
	"fmt"
	"runtime"

	"github.com/okian/pitwall/internal/domain/catalog"
	"github.com/okian/pitwall/internal/domain/detect"
	"github.com/okian/pitwall/internal/domain/profile"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: json or text.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// WorkerCount bounds how many vehicles are analysed at once.
	WorkerCount int `koanf:"worker_count"`

	// KeyEventLimit caps the key events selected per session.
	KeyEventLimit int `koanf:"key_event_limit"`

	// MajorMistakeCount is how many key events after the turning point are
	// labelled major mistakes.
	MajorMistakeCount int `koanf:"major_mistake_count"`

	// FormationLapSeconds excludes slower laps from driver profiles.
	FormationLapSeconds float64 `koanf:"formation_lap_seconds"`

	// MaxSessions caps how many analysed sessions are kept in memory.
	MaxSessions int `koanf:"max_sessions"`

	// MaxBodyBytes caps request bodies on the HTTP API.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// Detection holds every rule threshold.
	Detection detect.Thresholds `koanf:"detection"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "json",
		Addr:                ":9080",
		WorkerCount:         runtime.NumCPU() * 2,
		KeyEventLimit:       catalog.DefaultKeyEventLimit,
		MajorMistakeCount:   catalog.DefaultMajorMistakes,
		FormationLapSeconds: profile.DefaultFormationLapSeconds,
		MaxSessions:         64,
		MaxBodyBytes:        64 << 20,
		Detection:           detect.DefaultThresholds(),
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != "json" && c.LogFormat != "text":
		return fmt.Errorf("%w: log_format must be json or text, got %q", ErrInvalidConfig, c.LogFormat)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.KeyEventLimit < 1:
		return fmt.Errorf("%w: key_event_limit must be positive", ErrInvalidConfig)
	case c.MajorMistakeCount < 0 || c.MajorMistakeCount >= c.KeyEventLimit:
		return fmt.Errorf("%w: major_mistake_count must be within [0, key_event_limit)", ErrInvalidConfig)
	case c.FormationLapSeconds <= 0:
		return fmt.Errorf("%w: formation_lap_seconds must be positive", ErrInvalidConfig)
	case c.MaxSessions < 1:
		return fmt.Errorf("%w: max_sessions must be positive", ErrInvalidConfig)
	case c.MaxBodyBytes < 1:
		return fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig)
	}
	if err := c.Detection.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
