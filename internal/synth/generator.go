package synth

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/okian/pitwall/internal/domain/model"
)

// minSegmentSamples leaves room for clean samples on both sides of an
// injected incident.
const minSegmentSamples = 12

// Noise amplitudes of clean driving. They stay well inside every detection
// threshold so that only injected incidents are reported.
const (
	lapTimeNoise = 0.05
	peakGNoise   = 0.004
	speedNoise   = 0.2
	latGNoise    = 0.02
	steerNoise   = 0.3
	rpmNoise     = 40
)

// Nominal car state while telemetry is recorded.
const (
	basePeakLatG  = 1.4
	basePeakLongG = 1.1
	baseLatG      = 1.0
	baseRPM       = 7000
	baseGear      = 4
	segmentOffset = 10 * time.Second
)

// Lap-level incident shapes.
const (
	collapseSeconds  = 5.0
	collapseLatG     = 0.4
	collapseLongG    = 0.3
	fadePerLap       = 0.6
	fadeLatGPerLap   = 0.04
	minLapsForLapEvt = 4
)

var raceStart = time.Date(2025, 8, 17, 14, 0, 0, 0, time.UTC)

// incidentCycle assigns incidents to cars in order.
var incidentCycle = []model.EventType{
	model.Lockup,
	model.NearSpin,
	model.Understeer,
	model.MissedShift,
	model.PaceCollapse,
	model.DegradationPhase,
}

// Incident is one injected event the detector is expected to report.
type Incident struct {
	VehicleID string          `json:"vehicle_id"`
	Lap       int             `json:"lap"`
	Type      model.EventType `json:"event_type"`
}

// Race is a generated session.
type Race struct {
	ID        string                  `json:"race_id"`
	Laps      []model.LapRecord       `json:"laps"`
	Samples   []model.TelemetrySample `json:"samples"`
	Official  map[string]int          `json:"official_positions"`
	Incidents []Incident              `json:"incidents"`
}

// delta is one telemetry row relative to the car's clean state.
type delta struct {
	speed, latG, brake, steer, rpm, gear float64
}

// samplePatterns are four-sample shapes ending on the sample that fires.
var samplePatterns = map[model.EventType][4]delta{
	model.Lockup: {
		{},
		{speed: -2, latG: -0.1, brake: 5},
		{speed: -5, latG: -0.2, brake: 12},
		{speed: -10, latG: -0.5, brake: 20},
	},
	model.NearSpin: {
		{},
		{speed: -1, latG: 0.3},
		{speed: -3, latG: 0.8, steer: 10},
		{speed: -6, latG: 1.8, steer: -25},
	},
	model.Understeer: {
		{},
		{speed: -1, steer: 3},
		{speed: -2, steer: 6},
		{speed: -5, steer: 10},
	},
	model.MissedShift: {
		{},
		{},
		{},
		{rpm: -1500, gear: -1},
	},
}

// Generate builds a deterministic race from cfg. The same config always
// yields the same race, id included.
func Generate(cfg Config) (*Race, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible test data

	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return nil, fmt.Errorf("race id: %w", err)
	}
	race := &Race{ID: id.String(), Official: make(map[string]int, cfg.Vehicles)}

	totals := make(map[string]float64, cfg.Vehicles)
	ids := make([]string, cfg.Vehicles)
	for v := 0; v < cfg.Vehicles; v++ {
		vehicleID := fmt.Sprintf("car-%02d", v+1)
		ids[v] = vehicleID

		incident := model.EventType("")
		if cfg.Incidents {
			incident = incidentCycle[v%len(incidentCycle)]
		}
		laps, injected := genLaps(rng, &cfg, vehicleID, v, incident)
		race.Laps = append(race.Laps, laps...)
		race.Incidents = append(race.Incidents, injected...)
		for i := range laps {
			totals[vehicleID] += laps[i].LapTimeSeconds.Or(0)
		}

		samples, injected := genSamples(rng, &cfg, vehicleID, v, laps, incident)
		race.Samples = append(race.Samples, samples...)
		race.Incidents = append(race.Incidents, injected...)
	}

	sort.SliceStable(ids, func(a, b int) bool { return totals[ids[a]] < totals[ids[b]] })
	for i, id := range ids {
		race.Official[id] = i + 1
	}
	return race, nil
}

func genLaps(rng *rand.Rand, cfg *Config, vehicleID string, idx int, incident model.EventType) ([]model.LapRecord, []Incident) {
	pace := cfg.LapSeconds + 0.15*float64(idx) + 0.3*rng.Float64()
	collapseLap := 0
	if incident == model.PaceCollapse && cfg.Laps >= minLapsForLapEvt {
		collapseLap = max(minLapsForLapEvt, cfg.Laps/2+1)
	}
	fade := incident == model.DegradationPhase && cfg.Laps >= minLapsForLapEvt

	laps := make([]model.LapRecord, cfg.Laps)
	start := raceStart
	for i := range laps {
		n := i + 1
		secs := pace + jitter(rng, lapTimeNoise)
		latG := basePeakLatG + jitter(rng, peakGNoise)
		longG := basePeakLongG + jitter(rng, peakGNoise)
		switch {
		case n == collapseLap:
			secs += collapseSeconds
			latG -= collapseLatG
			longG -= collapseLongG
		case fade:
			secs += fadePerLap * float64(i)
			latG -= fadeLatGPerLap * float64(i)
		}

		end := start.Add(time.Duration(secs * float64(time.Second)))
		laps[i] = model.LapRecord{
			VehicleID:         vehicleID,
			Lap:               n,
			StartTime:         start,
			EndTime:           end,
			LapTimeSeconds:    model.Some(secs),
			PeakLateralG:      model.Some(latG),
			PeakLongitudinalG: model.Some(longG),
		}
		start = end
	}

	var injected []Incident
	switch {
	case collapseLap > 0:
		injected = append(injected, Incident{VehicleID: vehicleID, Lap: collapseLap, Type: model.PaceCollapse})
	case fade:
		injected = append(injected, Incident{VehicleID: vehicleID, Lap: cfg.Laps, Type: model.DegradationPhase})
	}
	return laps, injected
}

func genSamples(rng *rand.Rand, cfg *Config, vehicleID string, idx int, laps []model.LapRecord, incident model.EventType) ([]model.TelemetrySample, []Incident) {
	n := cfg.SegmentSeconds * cfg.SampleRate
	step := time.Second / time.Duration(cfg.SampleRate)
	speed := 150 + 2*float64(idx)

	pattern, hasPattern := samplePatterns[incident]
	incidentLap := min(2, len(laps))
	at := n / 2

	out := make([]model.TelemetrySample, 0, n*len(laps))
	for i := range laps {
		lap := &laps[i]
		for s := 0; s < n; s++ {
			var d delta
			if hasPattern && lap.Lap == incidentLap && s > at-4 && s <= at {
				d = pattern[s-at+3]
			}
			out = append(out, model.TelemetrySample{
				VehicleID:         vehicleID,
				Lap:               lap.Lap,
				Timestamp:         lap.StartTime.Add(segmentOffset + time.Duration(s)*step),
				Speed:             model.Some(speed + d.speed + jitter(rng, speedNoise)),
				LateralAccel:      model.Some(baseLatG + d.latG + jitter(rng, latGNoise)),
				LongitudinalAccel: model.Some(jitter(rng, 0.05)),
				Throttle:          model.Some(90 + jitter(rng, 2)),
				FrontBrake:        model.Some(d.brake),
				RearBrake:         model.Some(d.brake / 2),
				SteeringAngle:     model.Some(d.steer + jitter(rng, steerNoise)),
				EngineSpeed:       model.Some(baseRPM + d.rpm + jitter(rng, rpmNoise)),
				Gear:              model.Some(baseGear + d.gear),
			})
		}
	}

	if !hasPattern {
		return out, nil
	}
	return out, []Incident{{VehicleID: vehicleID, Lap: incidentLap, Type: incident}}
}

// jitter returns uniform noise in [-amp, amp).
func jitter(rng *rand.Rand, amp float64) float64 {
	return (2*rng.Float64() - 1) * amp
}
