package model

import "time"

// Channel identifies one telemetry channel of a sample.
type Channel int

// Telemetry channels.
const (
	Speed Channel = iota
	LateralAccel
	LongitudinalAccel
	Throttle
	FrontBrake
	RearBrake
	SteeringAngle
	EngineSpeed
	Gear
)

var channelNames = [...]string{
	Speed:             "speed",
	LateralAccel:      "lateral_accel",
	LongitudinalAccel: "longitudinal_accel",
	Throttle:          "throttle",
	FrontBrake:        "front_brake_pressure",
	RearBrake:         "rear_brake_pressure",
	SteeringAngle:     "steering_angle",
	EngineSpeed:       "engine_speed",
	Gear:              "gear",
}

func (c Channel) String() string {
	if c < 0 || int(c) >= len(channelNames) {
		return "unknown"
	}
	return channelNames[c]
}

// TelemetrySample is one high-frequency reading of a vehicle.
// Samples arrive ordered by (vehicle, lap, timestamp) and are never mutated.
type TelemetrySample struct {
	VehicleID         string    `json:"vehicle_id"`
	Lap               int       `json:"lap"`
	Timestamp         time.Time `json:"timestamp"`
	Speed             Reading   `json:"speed"`
	LateralAccel      Reading   `json:"lateral_accel"`
	LongitudinalAccel Reading   `json:"longitudinal_accel"`
	Throttle          Reading   `json:"throttle"`
	FrontBrake        Reading   `json:"front_brake_pressure"`
	RearBrake         Reading   `json:"rear_brake_pressure"`
	SteeringAngle     Reading   `json:"steering_angle"`
	EngineSpeed       Reading   `json:"engine_speed"`
	Gear              Reading   `json:"gear"`
}

// Channel returns the reading for c.
func (s *TelemetrySample) Channel(c Channel) Reading {
	switch c {
	case Speed:
		return s.Speed
	case LateralAccel:
		return s.LateralAccel
	case LongitudinalAccel:
		return s.LongitudinalAccel
	case Throttle:
		return s.Throttle
	case FrontBrake:
		return s.FrontBrake
	case RearBrake:
		return s.RearBrake
	case SteeringAngle:
		return s.SteeringAngle
	case EngineSpeed:
		return s.EngineSpeed
	case Gear:
		return s.Gear
	default:
		return None()
	}
}

// LapRecord aggregates one lap of one vehicle.
type LapRecord struct {
	VehicleID          string    `json:"vehicle_id"`
	Lap                int       `json:"lap"`
	StartTime          time.Time `json:"start_time"`
	EndTime            time.Time `json:"end_time"`
	LapTimeSeconds     Reading   `json:"lap_time_seconds"`
	MaxSpeed           Reading   `json:"max_speed"`
	PeakLateralG       Reading   `json:"peak_lateral_g"`
	PeakLongitudinalG  Reading   `json:"peak_longitudinal_g"`
	ThrottleSmoothness Reading   `json:"throttle_smoothness"`
	SteeringVariance   Reading   `json:"steering_variance"`
	BrakeSpikes        int       `json:"brake_spikes"`
	GearChanges        int       `json:"gear_changes"`
}

// Stamp is the instant a lap-level event is attributed to: the lap end,
// or the start when no end time was recorded.
func (l *LapRecord) Stamp() time.Time {
	if !l.EndTime.IsZero() {
		return l.EndTime
	}
	return l.StartTime
}
