package whatif

import "github.com/okian/pitwall/internal/domain/model"

// Projection is one vehicle's line in one scenario.
type Projection struct {
	AdjustedTime     float64 `json:"adjusted_time"`
	AdjustedPosition int     `json:"adjusted_position"`
	EventLoss        float64 `json:"event_loss"`
}

// Compare projects each labelled scenario onto vehicleID. Scenarios that do
// not contain the vehicle are left out.
func Compare(scenarios map[string][]model.ScenarioResult, vehicleID string) map[string]Projection {
	out := make(map[string]Projection, len(scenarios))
	for label, results := range scenarios {
		r, ok := Find(results, vehicleID)
		if !ok {
			continue
		}
		out[label] = Projection{
			AdjustedTime:     r.AdjustedTotalTime,
			AdjustedPosition: r.AdjustedPosition,
			EventLoss:        r.TotalEventLoss,
		}
	}
	return out
}
