package synth

import (
	"fmt"
	"time"
)

// Default generation settings.
const (
	DefaultVehicles       = 8
	DefaultLaps           = 8
	DefaultSampleRate     = 10
	DefaultSegmentSeconds = 6
	DefaultLapSeconds     = 92.0
	DefaultSeed           = 1
)

// Config holds configuration for a synthetic race.
type Config struct {
	BaseURL        string        // Service to post the race to; empty analyses in process
	Vehicles       int           // Number of cars
	Laps           int           // Laps per car
	SampleRate     int           // Telemetry samples per second
	SegmentSeconds int           // Seconds of telemetry recorded per lap
	LapSeconds     float64       // Nominal lap time of the field
	Seed           int64         // Seed for every random choice
	Incidents      bool          // Inject one incident per car
	Timeout        time.Duration // HTTP request timeout
	OutputFile     string        // Optional JSON dump of the generated race
	Verbose        bool          // Log every detected event
}

// DefaultConfig returns a small race with incidents.
func DefaultConfig() Config {
	return Config{
		Vehicles:       DefaultVehicles,
		Laps:           DefaultLaps,
		SampleRate:     DefaultSampleRate,
		SegmentSeconds: DefaultSegmentSeconds,
		LapSeconds:     DefaultLapSeconds,
		Seed:           DefaultSeed,
		Incidents:      true,
		Timeout:        30 * time.Second,
	}
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	switch {
	case c.Vehicles < 1:
		return fmt.Errorf("%w: vehicles must be positive", ErrInvalidConfig)
	case c.Laps < 1:
		return fmt.Errorf("%w: laps must be positive", ErrInvalidConfig)
	case c.SampleRate < 1:
		return fmt.Errorf("%w: sample rate must be positive", ErrInvalidConfig)
	case c.SegmentSeconds*c.SampleRate < minSegmentSamples:
		return fmt.Errorf("%w: segment must hold at least %d samples", ErrInvalidConfig, minSegmentSamples)
	case c.LapSeconds < 30:
		return fmt.Errorf("%w: lap seconds must be at least 30", ErrInvalidConfig)
	}
	return nil
}
