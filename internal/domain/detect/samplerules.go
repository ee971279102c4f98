package detect

import (
	"fmt"
	"math"

	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/signal"
)

// Rule normalizers: the channel change that alone would score severity 1.
const (
	brakeRiseScale  = 50
	speedLossScale  = 10
	lockupLatScale  = 2
	steerSpinScale  = 40
	spinLatScale    = 3
	steerPushScale  = 20
	rpmDropScale    = 4000
	maxSampleOffset = signal.MaxLag
)

type outcome uint8

const (
	noMatch outcome = iota
	matched
	unevaluable
)

// finding is what a sample rule reports when it fires.
type finding struct {
	typ         model.EventType
	severity    float64
	timeLoss    float64
	metrics     model.EventMetrics
	description string
}

// sampleRule is a pure predicate over a causal window.
type sampleRule func(w signal.Window, th *Thresholds) (finding, outcome)

// sampleChain is evaluated in order; the first match classifies the sample.
var sampleChain = []sampleRule{lockup, nearSpin, understeer, missedShift}

// classify runs the chain over one window and returns the winning finding.
// skipped counts rules that could not be evaluated before a match.
func classify(w signal.Window, th *Thresholds) (f finding, ok bool, skipped int) {
	for _, rule := range sampleChain {
		switch got, res := rule(w, th); res {
		case matched:
			return got, true, skipped
		case unevaluable:
			skipped++
		}
	}
	return finding{}, false, skipped
}

func lockup(w signal.Window, th *Thresholds) (finding, outcome) {
	brakeRise, ok := w.Rise(model.FrontBrake, 2)
	if !ok {
		return finding{}, unevaluable
	}
	if brakeRise <= th.LockupBrakeRise {
		return finding{}, noMatch
	}
	speedLoss, ok1 := w.Drop(model.Speed, 3)
	latDrop, ok2 := w.Drop(model.LateralAccel, 3)
	if !ok1 || !ok2 {
		return finding{}, unevaluable
	}
	if speedLoss <= th.LockupSpeedDrop || latDrop <= th.LockupLatGDrop {
		return finding{}, noMatch
	}

	m := model.EventMetrics{
		LatGSpike:  model.Some(latDrop),
		SpeedLoss:  model.Some(speedLoss),
		BrakeSpike: true,
	}
	if steer, ok := w.Change(model.SteeringAngle, 2); ok {
		m.SteeringCorrectionDeg = model.Some(steer)
	}
	return finding{
		typ:         model.Lockup,
		severity:    capped(mean3(math.Abs(brakeRise)/brakeRiseScale, speedLoss/speedLossScale, latDrop/lockupLatScale)),
		timeLoss:    speedLoss / th.SpeedLossPerSecond,
		metrics:     m,
		description: fmt.Sprintf("Brake spike of %.1f bar with %.1f km/h lost", brakeRise, speedLoss),
	}, matched
}

func nearSpin(w signal.Window, th *Thresholds) (finding, outcome) {
	steer, ok := w.Change(model.SteeringAngle, 2)
	if !ok {
		return finding{}, unevaluable
	}
	if steer <= th.NearSpinSteerChange {
		return finding{}, noMatch
	}
	latRise, ok1 := w.Rise(model.LateralAccel, 3)
	speedLoss, ok2 := w.Drop(model.Speed, 3)
	if !ok1 || !ok2 {
		return finding{}, unevaluable
	}
	if latRise <= th.NearSpinLatGRise || speedLoss <= th.NearSpinSpeedDrop {
		return finding{}, noMatch
	}

	return finding{
		typ:      model.NearSpin,
		severity: capped(mean3(steer/steerSpinScale, latRise/spinLatScale, speedLoss/speedLossScale)),
		timeLoss: speedLoss / th.SpeedLossPerSecond,
		metrics: model.EventMetrics{
			SteeringCorrectionDeg: model.Some(steer),
			LatGSpike:             model.Some(latRise),
			SpeedLoss:             model.Some(speedLoss),
		},
		description: fmt.Sprintf("Steering correction of %.0f deg with a lateral G spike", steer),
	}, matched
}

func understeer(w signal.Window, th *Thresholds) (finding, outcome) {
	steerRise, ok := w.Rise(model.SteeringAngle, 3)
	if !ok {
		return finding{}, unevaluable
	}
	if steerRise <= th.UndersteerSteerRise {
		return finding{}, noMatch
	}
	latChange, ok1 := w.Change(model.LateralAccel, 3)
	speedLoss, ok2 := w.Drop(model.Speed, 3)
	if !ok1 || !ok2 {
		return finding{}, unevaluable
	}
	if latChange >= th.UndersteerLatGBand || speedLoss <= th.UndersteerSpeedDrop {
		return finding{}, noMatch
	}

	return finding{
		typ:      model.Understeer,
		severity: capped((math.Abs(steerRise)/steerPushScale + speedLoss/speedLossScale) / 2),
		timeLoss: speedLoss / th.SpeedLossPerSecond,
		metrics: model.EventMetrics{
			SteeringCorrectionDeg: model.Some(steerRise),
			LatGSpike:             model.Some(latChange),
			SpeedLoss:             model.Some(speedLoss),
		},
		description: "More steering without more lateral grip",
	}, matched
}

func missedShift(w signal.Window, th *Thresholds) (finding, outcome) {
	gear, ok1 := w.At(model.Gear, 0)
	prevGear, ok2 := w.At(model.Gear, 1)
	if !ok1 || !ok2 {
		return finding{}, unevaluable
	}
	if gear == prevGear {
		return finding{}, noMatch
	}
	rpmDrop, ok1 := w.Drop(model.EngineSpeed, 1)
	speedChange, ok2 := w.Change(model.Speed, 1)
	if !ok1 || !ok2 {
		return finding{}, unevaluable
	}
	if rpmDrop <= th.MissedShiftRPMDrop || speedChange >= th.MissedShiftSpeedBand {
		return finding{}, noMatch
	}

	return finding{
		typ:      model.MissedShift,
		severity: capped(rpmDrop / rpmDropScale),
		timeLoss: th.MissedShiftLoss,
		metrics: model.EventMetrics{
			SpeedLoss: model.Some(speedChange),
			RPMDrop:   model.Some(rpmDrop),
		},
		description: fmt.Sprintf("Gear %.0f to %.0f dropped %.0f rpm without speed change", prevGear, gear, rpmDrop),
	}, matched
}

// sampleEvents runs the chain over every full window of every lap. Samples
// sharing a timestamp would share an event id, so a repeat id gets the
// sample index appended.
func sampleEvents(vehicleID string, laps []signal.LapSamples, th *Thresholds, rep *Report) []model.Event {
	var events []model.Event
	seen := make(map[string]struct{})
	for _, lap := range laps {
		for i := maxSampleOffset; i < len(lap.Samples); i++ {
			rep.SamplesEvaluated++
			w := signal.WindowAt(lap.Samples, i)
			f, ok, skipped := classify(w, th)
			rep.Skipped[SkipMissingChannel] += skipped
			if !ok {
				continue
			}
			ts := w.Timestamp()
			id := model.EventID(vehicleID, lap.Lap, ts, f.typ)
			if _, dup := seen[id]; dup {
				id = fmt.Sprintf("%s_S%d", id, i)
			}
			seen[id] = struct{}{}
			events = append(events, model.Event{
				ID:          id,
				VehicleID:   vehicleID,
				Lap:         lap.Lap,
				Timestamp:   ts,
				Type:        f.typ,
				Severity:    f.severity,
				TimeLoss:    math.Max(0, f.timeLoss),
				Metrics:     f.metrics,
				Description: f.description,
			})
		}
	}
	return events
}

func mean3(a, b, c float64) float64 {
	return (a + b + c) / 3
}

func capped(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
