package model

import (
	"fmt"
	"time"
)

// EventType classifies a detected driving event.
type EventType string

// Event types emitted by the detector.
const (
	PaceCollapse     EventType = "pace_collapse"
	DegradationPhase EventType = "degradation_phase"
	Lockup           EventType = "lockup"
	NearSpin         EventType = "near_spin"
	Understeer       EventType = "understeer"
	MissedShift      EventType = "missed_shift"
)

// EventTypes lists every type in detection priority order: lap-level
// first, then the sample-level chain.
var EventTypes = []EventType{PaceCollapse, DegradationPhase, Lockup, NearSpin, Understeer, MissedShift}

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Role is the narrative label the catalog assigns to a key event.
type Role string

// Narrative roles.
const (
	RoleNone         Role = ""
	RoleTurningPoint Role = "race_turning_point"
	RoleMajorMistake Role = "major_mistake"
)

// EventMetrics is the measured payload behind an event. Only the values a
// rule actually measured are present.
type EventMetrics struct {
	SteeringCorrectionDeg Reading `json:"steering_correction_deg"`
	LatGSpike             Reading `json:"latG_spike"`
	SpeedLoss             Reading `json:"speed_loss"`
	RPMDrop               Reading `json:"rpm_drop"`
	BrakeSpike            bool    `json:"brake_spike"`
}

// Event is an immutable detected incident.
type Event struct {
	ID          string       `json:"event_id"`
	VehicleID   string       `json:"vehicle_id"`
	Lap         int          `json:"lap"`
	Timestamp   time.Time    `json:"timestamp"`
	Type        EventType    `json:"event_type"`
	Severity    float64      `json:"severity"`
	TimeLoss    float64      `json:"time_loss_estimate"`
	Metrics     EventMetrics `json:"metrics"`
	Description string       `json:"description"`
	Role        Role         `json:"role,omitempty"`
}

const eventIDTimeLayout = "20060102T150405.000000"

// EventID derives the identifier of an event. It is unique per vehicle,
// lap, timestamp and type, and stable across runs on the same input.
func EventID(vehicleID string, lap int, ts time.Time, t EventType) string {
	return fmt.Sprintf("%s_L%d_T%s_%s", vehicleID, lap, ts.UTC().Format(eventIDTimeLayout), t)
}

// WithRole returns a copy of e carrying role.
func (e Event) WithRole(role Role) Event { //nolint:gocritic // value receiver keeps events immutable
	e.Role = role
	return e
}
