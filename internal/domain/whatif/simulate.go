// Package whatif recomputes race totals and finishing order as if chosen
// events had not happened, and reshapes those results for comparison and
// reporting.
package whatif

import (
	"sort"

	"github.com/okian/pitwall/internal/domain/model"
)

// Totals sums lap times per vehicle. Vehicles appear in first-seen order;
// a vehicle with no present lap time has no total.
func Totals(laps []model.LapRecord) []model.VehicleTotal {
	index := make(map[string]int)
	var out []model.VehicleTotal
	for i := range laps {
		t, ok := laps[i].LapTimeSeconds.Get()
		if !ok {
			continue
		}
		id := laps[i].VehicleID
		pos, seen := index[id]
		if !seen {
			pos = len(out)
			index[id] = pos
			out = append(out, model.VehicleTotal{VehicleID: id})
		}
		out[pos].TotalTime += t
	}
	return out
}

// Simulate removes the time lost to events matching filter and re-ranks the
// field. official maps vehicle id to a known finishing position; positions
// below 1 are treated as unknown. Every vehicle of totals appears exactly
// once, ordered by adjusted position. Events of vehicles without a total
// contribute nothing.
func Simulate(totals []model.VehicleTotal, events []model.Event, filter Filter, official map[string]int) []model.ScenarioResult {
	merged := mergeTotals(totals)
	if len(merged) == 0 {
		return []model.ScenarioResult{}
	}

	loss := make(map[string]float64, len(merged))
	match := filter.Matcher()
	for i := range events {
		if match(&events[i]) {
			loss[events[i].VehicleID] += events[i].TimeLoss
		}
	}

	results := make([]model.ScenarioResult, len(merged))
	for i, t := range merged {
		results[i] = model.ScenarioResult{
			VehicleID:         t.VehicleID,
			RealTotalTime:     t.TotalTime,
			TotalEventLoss:    loss[t.VehicleID],
			AdjustedTotalTime: t.TotalTime - loss[t.VehicleID],
		}
		if pos, ok := official[t.VehicleID]; ok && pos > 0 {
			results[i].RealPosition = intPtr(pos)
		}
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].AdjustedTotalTime < results[b].AdjustedTotalTime
	})
	for i := range results {
		results[i].AdjustedPosition = i + 1
		if results[i].RealPosition != nil {
			results[i].PositionChange = intPtr(*results[i].RealPosition - results[i].AdjustedPosition)
		}
	}
	return results
}

// Find returns the result for vehicleID.
func Find(results []model.ScenarioResult, vehicleID string) (model.ScenarioResult, bool) {
	for i := range results {
		if results[i].VehicleID == vehicleID {
			return results[i], true
		}
	}
	return model.ScenarioResult{}, false
}

// Base is the per-vehicle starting point every scenario is measured from.
type Base struct {
	TotalTime map[string]float64 `json:"total_time"`
	EventLoss map[string]float64 `json:"event_loss"`
}

// NewBase collects real totals and the summed loss of every event per
// vehicle, including vehicles that only appear in events.
func NewBase(totals []model.VehicleTotal, events []model.Event) Base {
	b := Base{
		TotalTime: make(map[string]float64, len(totals)),
		EventLoss: make(map[string]float64),
	}
	for _, t := range totals {
		b.TotalTime[t.VehicleID] += t.TotalTime
	}
	for i := range events {
		b.EventLoss[events[i].VehicleID] += events[i].TimeLoss
	}
	return b
}

// mergeTotals folds repeated vehicles into their first occurrence.
func mergeTotals(totals []model.VehicleTotal) []model.VehicleTotal {
	index := make(map[string]int, len(totals))
	out := make([]model.VehicleTotal, 0, len(totals))
	for _, t := range totals {
		if pos, ok := index[t.VehicleID]; ok {
			out[pos].TotalTime += t.TotalTime
			continue
		}
		index[t.VehicleID] = len(out)
		out = append(out, t)
	}
	return out
}

func intPtr(v int) *int {
	return &v
}
