// Package signal builds causal per-vehicle views over lap and sample
// series. Nothing here looks ahead: every statistic for lap i or sample t
// is computed from data at or before it, so the same code serves a
// partial replay unchanged.
package signal

import (
	"sort"

	"github.com/okian/pitwall/internal/domain/model"
)

// VehicleLaps is one vehicle's lap history ordered by lap number.
type VehicleLaps struct {
	VehicleID string
	Laps      []model.LapRecord
}

// LapSamples is one lap's samples ordered by timestamp.
type LapSamples struct {
	Lap     int
	Samples []model.TelemetrySample
}

// VehicleSamples is one vehicle's samples grouped by lap, laps ascending.
type VehicleSamples struct {
	VehicleID string
	Laps      []LapSamples
}

// PartitionLaps groups laps by vehicle. Vehicles come back sorted by id,
// each history sorted by lap number. The input slice is not modified.
func PartitionLaps(laps []model.LapRecord) []VehicleLaps {
	byVehicle := make(map[string][]model.LapRecord)
	for i := range laps {
		id := laps[i].VehicleID
		byVehicle[id] = append(byVehicle[id], laps[i])
	}

	out := make([]VehicleLaps, 0, len(byVehicle))
	for _, id := range sortedKeys(byVehicle) {
		history := byVehicle[id]
		sort.SliceStable(history, func(a, b int) bool { return history[a].Lap < history[b].Lap })
		out = append(out, VehicleLaps{VehicleID: id, Laps: history})
	}
	return out
}

// PartitionSamples groups samples by vehicle and lap. Samples within a lap
// are stably sorted by timestamp so lag offsets are well defined even when
// the source interleaves rows.
func PartitionSamples(samples []model.TelemetrySample) []VehicleSamples {
	byVehicle := make(map[string]map[int][]model.TelemetrySample)
	for i := range samples {
		s := samples[i]
		laps, ok := byVehicle[s.VehicleID]
		if !ok {
			laps = make(map[int][]model.TelemetrySample)
			byVehicle[s.VehicleID] = laps
		}
		laps[s.Lap] = append(laps[s.Lap], s)
	}

	out := make([]VehicleSamples, 0, len(byVehicle))
	for _, id := range sortedKeys(byVehicle) {
		laps := byVehicle[id]
		lapNums := make([]int, 0, len(laps))
		for n := range laps {
			lapNums = append(lapNums, n)
		}
		sort.Ints(lapNums)

		vs := VehicleSamples{VehicleID: id, Laps: make([]LapSamples, 0, len(lapNums))}
		for _, n := range lapNums {
			lap := laps[n]
			sort.SliceStable(lap, func(a, b int) bool { return lap[a].Timestamp.Before(lap[b].Timestamp) })
			vs.Laps = append(vs.Laps, LapSamples{Lap: n, Samples: lap})
		}
		out = append(out, vs)
	}
	return out
}

// Vehicles returns the sorted union of vehicle ids present in either
// partition.
func Vehicles(laps []VehicleLaps, samples []VehicleSamples) []string {
	seen := make(map[string]struct{}, len(laps)+len(samples))
	for _, v := range laps {
		seen[v.VehicleID] = struct{}{}
	}
	for _, v := range samples {
		seen[v.VehicleID] = struct{}{}
	}
	return sortedKeys(seen)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
