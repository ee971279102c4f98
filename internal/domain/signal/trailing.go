package signal

import "github.com/okian/pitwall/internal/domain/model"

// DefaultTrailingWindow is the number of prior laps averaged for lap rules.
const DefaultTrailingWindow = 3

// Trailing holds backward-only statistics for one lap.
type Trailing struct {
	// Prior is the number of laps recorded before this one.
	Prior int

	LapTime           model.Reading
	PeakLateralG      model.Reading
	PeakLongitudinalG model.Reading
}

// TrailingStats computes, for each lap of history, the mean of lap time and
// peak G over the previous window laps. The window shrinks near the start
// of the session; the first lap has no trailing value. Absent readings are
// left out of the mean, and a window with no present reading yields an
// absent mean.
func TrailingStats(history []model.LapRecord, window int) []Trailing {
	if window < 1 {
		window = DefaultTrailingWindow
	}
	out := make([]Trailing, len(history))
	for i := range history {
		from := i - window
		if from < 0 {
			from = 0
		}
		prior := history[from:i]
		out[i] = Trailing{
			Prior:             i,
			LapTime:           meanOf(prior, func(l *model.LapRecord) model.Reading { return l.LapTimeSeconds }),
			PeakLateralG:      meanOf(prior, func(l *model.LapRecord) model.Reading { return l.PeakLateralG }),
			PeakLongitudinalG: meanOf(prior, func(l *model.LapRecord) model.Reading { return l.PeakLongitudinalG }),
		}
	}
	return out
}

func meanOf(laps []model.LapRecord, field func(*model.LapRecord) model.Reading) model.Reading {
	var sum float64
	var n int
	for i := range laps {
		if v, ok := field(&laps[i]).Get(); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return model.None()
	}
	return model.Some(sum / float64(n))
}
