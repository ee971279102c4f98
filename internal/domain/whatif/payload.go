package whatif

import (
	"fmt"

	"github.com/okian/pitwall/internal/domain/model"
)

// Outcome describes how a scenario moved a driver.
type Outcome string

const (
	Improved  Outcome = "improved"
	Unchanged Outcome = "unchanged"
	Declined  Outcome = "declined"
)

// Payload is a single driver's view of one scenario, shaped for reports.
type Payload struct {
	Label            string  `json:"label"`
	VehicleID        string  `json:"vehicle_id"`
	OriginalTime     float64 `json:"original_time"`
	AdjustedTime     float64 `json:"adjusted_time"`
	TimeGain         float64 `json:"time_gain"`
	TimeGainPercent  float64 `json:"time_gain_percent"`
	OriginalPosition int     `json:"original_position"`
	AdjustedPosition int     `json:"adjusted_position"`
	PositionChange   int     `json:"position_change"`
	Outcome          Outcome `json:"outcome"`
}

// BuildPayload compares a vehicle's baseline result with its result under a
// scenario. baseline is a run with an empty filter; its official position is
// used when known, otherwise the rank by real total time.
func BuildPayload(label, vehicleID string, baseline, scenario []model.ScenarioResult) (Payload, error) {
	orig, ok := Find(baseline, vehicleID)
	if !ok {
		return Payload{}, fmt.Errorf("%w: %s (baseline)", ErrVehicleNotFound, vehicleID)
	}
	adj, ok := Find(scenario, vehicleID)
	if !ok {
		return Payload{}, fmt.Errorf("%w: %s (%s)", ErrVehicleNotFound, vehicleID, label)
	}

	origPos := orig.AdjustedPosition
	if orig.RealPosition != nil {
		origPos = *orig.RealPosition
	}

	p := Payload{
		Label:            label,
		VehicleID:        vehicleID,
		OriginalTime:     orig.RealTotalTime,
		AdjustedTime:     adj.AdjustedTotalTime,
		TimeGain:         orig.RealTotalTime - adj.AdjustedTotalTime,
		OriginalPosition: origPos,
		AdjustedPosition: adj.AdjustedPosition,
		PositionChange:   origPos - adj.AdjustedPosition,
	}
	if p.OriginalTime > 0 {
		p.TimeGainPercent = p.TimeGain / p.OriginalTime * 100
	}
	switch {
	case p.PositionChange > 0:
		p.Outcome = Improved
	case p.PositionChange == 0:
		p.Outcome = Unchanged
	default:
		p.Outcome = Declined
	}
	return p, nil
}

// SimulateByRole removes every event carrying role and returns a payload
// for each vehicle that lost one, keyed by vehicle id. It returns an empty
// map when no event has the role.
func SimulateByRole(totals []model.VehicleTotal, events []model.Event, official map[string]int, role model.Role) map[string]Payload {
	out := make(map[string]Payload)
	if role == model.RoleNone {
		return out
	}
	filter := Filter{Role: role}
	removed := filter.Select(events)
	if len(removed) == 0 {
		return out
	}

	baseline := Simulate(totals, events, Filter{}, official)
	scenario := Simulate(totals, events, filter, official)
	for i := range removed {
		id := removed[i].VehicleID
		if _, done := out[id]; done {
			continue
		}
		// Vehicles without a lap total have nothing to adjust.
		if p, err := BuildPayload(string(role), id, baseline, scenario); err == nil {
			out[id] = p
		}
	}
	return out
}
