package detect

import (
	"fmt"
	"math"

	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/signal"
	"gonum.org/v1/gonum/stat"
)

// lapEvents runs the lap-level rules over one vehicle's ordered history.
func lapEvents(vehicleID string, history []model.LapRecord, th *Thresholds, rep *Report) []model.Event {
	var events []model.Event
	trailing := signal.TrailingStats(history, th.TrailingWindow)
	for i := range history {
		rep.LapsEvaluated++
		if trailing[i].Prior < th.MinPriorLaps {
			rep.skip(SkipInsufficientHistory)
			continue
		}
		if e, ok := paceCollapse(vehicleID, &history[i], trailing[i], th, rep); ok {
			events = append(events, e)
		}
	}
	if e, ok := degradationPhase(vehicleID, history, th, rep); ok {
		events = append(events, e)
	}
	return events
}

func paceCollapse(vehicleID string, lap *model.LapRecord, tr signal.Trailing, th *Thresholds, rep *Report) (model.Event, bool) {
	lapTime, ok1 := lap.LapTimeSeconds.Get()
	latG, ok2 := lap.PeakLateralG.Get()
	longG, ok3 := lap.PeakLongitudinalG.Get()
	meanTime, ok4 := tr.LapTime.Get()
	meanLat, ok5 := tr.PeakLateralG.Get()
	meanLong, ok6 := tr.PeakLongitudinalG.Get()
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6) {
		rep.skip(SkipMissingChannel)
		return model.Event{}, false
	}

	if lapTime <= meanTime*th.PaceCollapseRatio ||
		latG >= meanLat-th.PaceCollapseLatGDrop ||
		longG >= meanLong-th.PaceCollapseLongGDrop {
		return model.Event{}, false
	}

	ts := lap.Stamp()
	return model.Event{
		ID:          model.EventID(vehicleID, lap.Lap, ts, model.PaceCollapse),
		VehicleID:   vehicleID,
		Lap:         lap.Lap,
		Timestamp:   ts,
		Type:        model.PaceCollapse,
		Severity:    capped(th.PaceCollapseSeverity),
		TimeLoss:    math.Max(0, math.Max(th.PaceCollapseMinLoss, lapTime-meanTime)),
		Description: "Lap time spiked with lower peak G versus the trailing laps",
	}, true
}

// degradationPhase fits lap time and peak lateral G against lap number over
// the whole history and fires once, on the last lap, when pace falls away
// while grip drops.
func degradationPhase(vehicleID string, history []model.LapRecord, th *Thresholds, rep *Report) (model.Event, bool) {
	if len(history) == 0 {
		return model.Event{}, false
	}
	// The last lap needs the same history as any other lap rule.
	if len(history)-1 < th.MinPriorLaps {
		rep.skip(SkipInsufficientHistory)
		return model.Event{}, false
	}

	xs := make([]float64, len(history))
	times := make([]float64, len(history))
	lats := make([]float64, len(history))
	for i := range history {
		t, ok1 := history[i].LapTimeSeconds.Get()
		g, ok2 := history[i].PeakLateralG.Get()
		if !ok1 || !ok2 {
			rep.skip(SkipMissingChannel)
			return model.Event{}, false
		}
		xs[i], times[i], lats[i] = float64(history[i].Lap), t, g
	}

	_, slope := stat.LinearRegression(xs, times, nil, false)
	_, latSlope := stat.LinearRegression(xs, lats, nil, false)
	if !finite(slope) || !finite(latSlope) {
		rep.skip(SkipMissingChannel)
		return model.Event{}, false
	}
	if slope <= th.DegradationLapSlope || latSlope >= th.DegradationLatGSlope {
		return model.Event{}, false
	}

	last := &history[len(history)-1]
	ts := last.Stamp()
	return model.Event{
		ID:          model.EventID(vehicleID, last.Lap, ts, model.DegradationPhase),
		VehicleID:   vehicleID,
		Lap:         last.Lap,
		Timestamp:   ts,
		Type:        model.DegradationPhase,
		Severity:    capped(slope / th.DegradationSlopeScale),
		TimeLoss:    math.Max(0, recentSlowdown(times, 3)),
		Description: fmt.Sprintf("Lap times trending up %.2fs/lap while peak lateral G falls", slope),
	}, true
}

// recentSlowdown averages the positive lap-to-lap deltas over the last n
// laps; improvements count as zero.
func recentSlowdown(times []float64, n int) float64 {
	deltas := make([]float64, len(times))
	for i := 1; i < len(times); i++ {
		deltas[i] = math.Max(0, times[i]-times[i-1])
	}
	if len(deltas) > n {
		deltas = deltas[len(deltas)-n:]
	}
	return stat.Mean(deltas, nil)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
