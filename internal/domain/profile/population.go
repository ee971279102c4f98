package profile

import (
	"math"
	"sort"

	"github.com/okian/pitwall/internal/domain/model"
)

// Population holds field-wide cut-offs used to tag individual drivers. It
// is computed once per session and never mutated.
type Population struct {
	BrakeSpikesQ75      model.Reading `json:"brake_spikes_q75"`
	SteeringVarianceQ25 model.Reading `json:"steering_variance_q25"`
	SteeringVarianceQ75 model.Reading `json:"steering_variance_q75"`
	LapTimeStdQ75       model.Reading `json:"lap_time_std_q75"`
}

// NewPopulation derives quartile cut-offs from driver profiles. Drivers
// without racing laps are left out.
func NewPopulation(profiles []Profile) Population {
	var brakes, steer, std []float64
	for i := range profiles {
		p := &profiles[i]
		if p.RacingLaps == 0 {
			continue
		}
		brakes = append(brakes, float64(p.BrakeSpikes))
		std = append(std, p.LapTimeStd)
		if v, ok := p.MeanSteeringVariance.Get(); ok {
			steer = append(steer, v)
		}
	}
	return Population{
		BrakeSpikesQ75:      quantile(0.75, brakes),
		SteeringVarianceQ25: quantile(0.25, steer),
		SteeringVarianceQ75: quantile(0.75, steer),
		LapTimeStdQ75:       quantile(0.75, std),
	}
}

// Tag returns the style tags p earns against the population.
func (pop Population) Tag(p *Profile) []string {
	tags := []string{}
	if p.RacingLaps == 0 {
		return tags
	}
	if q, ok := pop.BrakeSpikesQ75.Get(); ok && float64(p.BrakeSpikes) > q {
		tags = append(tags, TagAggressiveBraking)
	}
	if v, ok := p.MeanSteeringVariance.Get(); ok {
		if q, ok := pop.SteeringVarianceQ25.Get(); ok && v < q {
			tags = append(tags, TagSmoothSteering)
		}
		if q, ok := pop.SteeringVarianceQ75.Get(); ok && v > q {
			tags = append(tags, TagErraticSteering)
		}
	}
	if q, ok := pop.LapTimeStdQ75.Get(); ok && p.LapTimeStd > q {
		tags = append(tags, TagInconsistentLaps)
	}
	if f, ok := p.Fade.Get(); ok && f > fadeThreshold {
		tags = append(tags, TagLateRaceFade)
	}
	return tags
}

// quantile interpolates linearly between the order statistics around
// rank (n-1)p, the usual default of dataframe and array libraries.
func quantile(p float64, xs []float64) model.Reading {
	if len(xs) == 0 {
		return model.None()
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	h := float64(len(sorted)-1) * math.Max(0, math.Min(1, p))
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	return model.Some(sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo]))
}
