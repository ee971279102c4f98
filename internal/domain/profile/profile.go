// Package profile summarizes how each driver drove: pace, consistency,
// inputs, and style tags relative to the rest of the field.
package profile

import (
	"math"

	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/signal"
	"gonum.org/v1/gonum/stat"
)

// DefaultFormationLapSeconds marks laps slower than this as formation or
// safety-car laps; they are left out of pace statistics.
const DefaultFormationLapSeconds = 400.0

// Style tags.
const (
	TagAggressiveBraking = "aggressive_braking"
	TagSmoothSteering    = "smooth_steering"
	TagErraticSteering   = "erratic_steering"
	TagInconsistentLaps  = "inconsistent_laps"
	TagLateRaceFade      = "late_race_fade"
)

const (
	fadeLaps      = 3
	fadeMinLaps   = 2 * fadeLaps
	fadeThreshold = 0.5
	stabilityWin  = 3

	// Race pressure weights for steering variance and throttle jitter;
	// front brake pressure counts at face value.
	pressureSteerWeight    = 0.5
	pressureThrottleWeight = 0.2
)

// Profile is one driver's summary.
type Profile struct {
	VehicleID   string  `json:"vehicle_id"`
	RacingLaps  int     `json:"racing_laps"`
	MeanLapTime float64 `json:"mean_lap_time"`
	BestLapTime float64 `json:"best_lap_time"`
	LapTimeStd  float64 `json:"lap_time_std"`

	MeanMaxSpeed           model.Reading `json:"mean_max_speed"`
	MeanPeakLateralG       model.Reading `json:"mean_peak_lateral_g"`
	MeanPeakLongitudinalG  model.Reading `json:"mean_peak_longitudinal_g"`
	MeanThrottleSmoothness model.Reading `json:"mean_throttle_smoothness"`
	MeanSteeringVariance   model.Reading `json:"mean_steering_variance"`
	BrakeSpikes            int           `json:"brake_spikes"`
	GearChanges            int           `json:"gear_changes"`

	// PaceStability is the mean rolling standard deviation of lap-to-lap
	// deltas; lower is steadier.
	PaceStability float64 `json:"pace_stability_index"`
	// Fade is the last-three-lap mean minus the first-three-lap mean.
	Fade model.Reading `json:"fade_seconds"`
	// CorneringConfidence is mean |lateral G| over the root of steering
	// variance, from raw samples.
	CorneringConfidence model.Reading `json:"cornering_confidence"`
	// RacePressure is the relative change in driver workload from the
	// first half of the race to the second, from raw samples.
	RacePressure model.Reading `json:"race_pressure_index"`

	Tags []string `json:"tags"`
}

// Build profiles every vehicle in laps and tags them against the field.
// samples may be nil. Profiles are ordered by vehicle id.
func Build(laps []model.LapRecord, samples []model.TelemetrySample, formationSeconds float64) ([]Profile, Population) {
	if formationSeconds <= 0 {
		formationSeconds = DefaultFormationLapSeconds
	}
	cci := corneringConfidence(samples)
	rpi := racePressure(samples, totalLaps(laps))

	parts := signal.PartitionLaps(laps)
	profiles := make([]Profile, 0, len(parts))
	for _, p := range parts {
		pr := summarize(p.VehicleID, racing(p.Laps, formationSeconds))
		pr.CorneringConfidence = cci[p.VehicleID]
		pr.RacePressure = rpi[p.VehicleID]
		profiles = append(profiles, pr)
	}

	pop := NewPopulation(profiles)
	for i := range profiles {
		profiles[i].Tags = pop.Tag(&profiles[i])
	}
	return profiles, pop
}

// racing drops laps without a time and laps above the formation threshold.
func racing(history []model.LapRecord, formationSeconds float64) []model.LapRecord {
	out := make([]model.LapRecord, 0, len(history))
	for i := range history {
		if t, ok := history[i].LapTimeSeconds.Get(); ok && t <= formationSeconds {
			out = append(out, history[i])
		}
	}
	return out
}

func summarize(vehicleID string, laps []model.LapRecord) Profile {
	p := Profile{VehicleID: vehicleID, RacingLaps: len(laps), Tags: []string{}}
	if len(laps) == 0 {
		return p
	}

	times := make([]float64, len(laps))
	for i := range laps {
		times[i] = laps[i].LapTimeSeconds.Value
		p.BrakeSpikes += laps[i].BrakeSpikes
		p.GearChanges += laps[i].GearChanges
	}
	p.MeanLapTime = stat.Mean(times, nil)
	p.BestLapTime = times[0]
	for _, t := range times[1:] {
		p.BestLapTime = math.Min(p.BestLapTime, t)
	}
	if len(times) > 1 {
		p.LapTimeStd = stat.StdDev(times, nil)
	}

	p.MeanMaxSpeed = meanReading(laps, func(l *model.LapRecord) model.Reading { return l.MaxSpeed })
	p.MeanPeakLateralG = meanReading(laps, func(l *model.LapRecord) model.Reading { return l.PeakLateralG })
	p.MeanPeakLongitudinalG = meanReading(laps, func(l *model.LapRecord) model.Reading { return l.PeakLongitudinalG })
	p.MeanThrottleSmoothness = meanReading(laps, func(l *model.LapRecord) model.Reading { return l.ThrottleSmoothness })
	p.MeanSteeringVariance = meanReading(laps, func(l *model.LapRecord) model.Reading { return l.SteeringVariance })

	p.PaceStability = paceStability(times)
	if len(times) >= fadeMinLaps {
		p.Fade = model.Some(stat.Mean(times[len(times)-fadeLaps:], nil) - stat.Mean(times[:fadeLaps], nil))
	}
	return p
}

// paceStability averages the sample standard deviation of lap deltas over
// a trailing window of three; windows with a single delta are skipped.
func paceStability(times []float64) float64 {
	if len(times) < 2 {
		return 0
	}
	deltas := make([]float64, len(times)-1)
	for i := 1; i < len(times); i++ {
		deltas[i-1] = times[i] - times[i-1]
	}
	var stds []float64
	for j := range deltas {
		from := j - stabilityWin + 1
		if from < 0 {
			from = 0
		}
		if w := deltas[from : j+1]; len(w) >= 2 {
			stds = append(stds, stat.StdDev(w, nil))
		}
	}
	if len(stds) == 0 {
		return 0
	}
	return stat.Mean(stds, nil)
}

func meanReading(laps []model.LapRecord, field func(*model.LapRecord) model.Reading) model.Reading {
	var vals []float64
	for i := range laps {
		if v, ok := field(&laps[i]).Get(); ok {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return model.None()
	}
	return model.Some(stat.Mean(vals, nil))
}

func corneringConfidence(samples []model.TelemetrySample) map[string]model.Reading {
	lat := make(map[string][]float64)
	steer := make(map[string][]float64)
	for i := range samples {
		s := &samples[i]
		if v, ok := s.LateralAccel.Get(); ok {
			lat[s.VehicleID] = append(lat[s.VehicleID], math.Abs(v))
		}
		if v, ok := s.SteeringAngle.Get(); ok {
			steer[s.VehicleID] = append(steer[s.VehicleID], v)
		}
	}
	out := make(map[string]model.Reading, len(lat))
	for id, l := range lat {
		st := steer[id]
		if len(l) == 0 || len(st) < 2 {
			continue
		}
		if v := stat.Variance(st, nil); v > 0 {
			out[id] = model.Some(stat.Mean(l, nil) / math.Sqrt(v))
		}
	}
	return out
}

func totalLaps(laps []model.LapRecord) int {
	var n int
	for i := range laps {
		n = max(n, laps[i].Lap)
	}
	return n
}

// racePressure compares driver workload after the race midpoint with the
// workload up to it: (late - mid) / mid. Laps up to totalLaps/2 count as
// the first half. Vehicles without first-half workload get no value.
func racePressure(samples []model.TelemetrySample, totalLaps int) map[string]model.Reading {
	cutoff := totalLaps / 2
	parts := signal.PartitionSamples(samples)
	out := make(map[string]model.Reading, len(parts))
	for _, v := range parts {
		var mid, late []model.TelemetrySample
		for _, l := range v.Laps {
			if l.Lap <= cutoff {
				mid = append(mid, l.Samples...)
			} else {
				late = append(late, l.Samples...)
			}
		}
		if pm := pressure(mid); pm > 0 {
			out[v.VehicleID] = model.Some((pressure(late) - pm) / pm)
		}
	}
	return out
}

// pressure sums front brake pressure, weighted steering variance and
// weighted throttle jitter over ordered samples.
func pressure(samples []model.TelemetrySample) float64 {
	var brake, jitter float64
	steer := make([]float64, 0, len(samples))
	for i := range samples {
		s := &samples[i]
		if v, ok := s.FrontBrake.Get(); ok {
			brake += v
		}
		if v, ok := s.SteeringAngle.Get(); ok {
			steer = append(steer, v)
		}
		if i == 0 {
			continue
		}
		prev, ok1 := samples[i-1].Throttle.Get()
		cur, ok2 := s.Throttle.Get()
		if ok1 && ok2 {
			jitter += math.Abs(cur - prev)
		}
	}
	total := brake + pressureThrottleWeight*jitter
	if len(steer) >= 2 {
		total += pressureSteerWeight * stat.Variance(steer, nil)
	}
	return total
}
