package signal

import (
	"math"

	"github.com/okian/pitwall/internal/domain/model"
	"gonum.org/v1/gonum/stat"
)

const (
	// MinLapSamples is the fewest samples a lap needs to be summarized.
	MinLapSamples = 5
	// MinLapSeconds is the shortest lap duration accepted.
	MinLapSeconds = 1.0
	// BrakeSpikeDelta is the per-sample front brake change counted as a spike.
	BrakeSpikeDelta = 0.2
)

// SummarizeLap derives a lap record from one lap's ordered samples. It
// reports false when the lap is too short or too sparse to summarize.
func SummarizeLap(vehicleID string, lap int, samples []model.TelemetrySample) (model.LapRecord, bool) {
	if len(samples) < MinLapSamples {
		return model.LapRecord{}, false
	}
	start, end := samples[0].Timestamp, samples[len(samples)-1].Timestamp
	secs := end.Sub(start).Seconds()
	if secs < MinLapSeconds {
		return model.LapRecord{}, false
	}

	rec := model.LapRecord{
		VehicleID:          vehicleID,
		Lap:                lap,
		StartTime:          start,
		EndTime:            end,
		LapTimeSeconds:     model.Some(secs),
		MaxSpeed:           peak(samples, model.Speed),
		PeakLateralG:       peakAbs(samples, model.LateralAccel),
		PeakLongitudinalG:  peakAbs(samples, model.LongitudinalAccel),
		ThrottleSmoothness: meanAbsStep(samples, model.Throttle),
		SteeringVariance:   variance(samples, model.SteeringAngle),
	}

	for i := 1; i < len(samples); i++ {
		prev, ok1 := samples[i-1].FrontBrake.Get()
		cur, ok2 := samples[i].FrontBrake.Get()
		if ok1 && ok2 && math.Abs(cur-prev) > BrakeSpikeDelta {
			rec.BrakeSpikes++
		}
	}
	rec.GearChanges = gearChanges(samples)
	return rec, true
}

func peak(samples []model.TelemetrySample, ch model.Channel) model.Reading {
	top := model.None()
	for i := range samples {
		if v, ok := samples[i].Channel(ch).Get(); ok && (!top.Valid || v > top.Value) {
			top = model.Some(v)
		}
	}
	return top
}

func peakAbs(samples []model.TelemetrySample, ch model.Channel) model.Reading {
	peak := model.None()
	for i := range samples {
		v, ok := samples[i].Channel(ch).Get()
		if !ok {
			continue
		}
		if a := math.Abs(v); !peak.Valid || a > peak.Value {
			peak = model.Some(a)
		}
	}
	return peak
}

// meanAbsStep averages |x[i]-x[i-1]| over consecutive present pairs.
func meanAbsStep(samples []model.TelemetrySample, ch model.Channel) model.Reading {
	steps := make([]float64, 0, len(samples))
	for i := 1; i < len(samples); i++ {
		prev, ok1 := samples[i-1].Channel(ch).Get()
		cur, ok2 := samples[i].Channel(ch).Get()
		if ok1 && ok2 {
			steps = append(steps, math.Abs(cur-prev))
		}
	}
	if len(steps) == 0 {
		return model.None()
	}
	return model.Some(stat.Mean(steps, nil))
}

func variance(samples []model.TelemetrySample, ch model.Channel) model.Reading {
	values := presentValues(samples, ch)
	if len(values) < 2 {
		return model.None()
	}
	return model.Some(stat.Variance(values, nil))
}

// gearChanges counts transitions between consecutive present gear values.
func gearChanges(samples []model.TelemetrySample) int {
	var changes int
	last, seen := 0.0, false
	for i := range samples {
		g, ok := samples[i].Gear.Get()
		if !ok {
			continue
		}
		if seen && g != last {
			changes++
		}
		last, seen = g, true
	}
	return changes
}

func presentValues(samples []model.TelemetrySample, ch model.Channel) []float64 {
	out := make([]float64, 0, len(samples))
	for i := range samples {
		if v, ok := samples[i].Channel(ch).Get(); ok {
			out = append(out, v)
		}
	}
	return out
}
