package detect

import "github.com/okian/pitwall/internal/domain/model"

// SkipReason says why a rule could not be evaluated.
type SkipReason string

const (
	SkipMissingChannel      SkipReason = "missing_channel"
	SkipInsufficientHistory SkipReason = "insufficient_history"
)

// Report summarizes one detection run.
type Report struct {
	Vehicles         int                     `json:"vehicles"`
	LapsEvaluated    int                     `json:"laps_evaluated"`
	SamplesEvaluated int                     `json:"samples_evaluated"`
	Skipped          map[SkipReason]int      `json:"skipped"`
	Events           map[model.EventType]int `json:"events"`
}

func newReport() Report {
	return Report{
		Skipped: make(map[SkipReason]int),
		Events:  make(map[model.EventType]int),
	}
}

func (r *Report) skip(reason SkipReason) {
	r.Skipped[reason]++
}

func (r *Report) count(events []model.Event) {
	for i := range events {
		r.Events[events[i].Type]++
	}
}

func (r *Report) merge(o Report) {
	r.Vehicles += o.Vehicles
	r.LapsEvaluated += o.LapsEvaluated
	r.SamplesEvaluated += o.SamplesEvaluated
	for k, v := range o.Skipped {
		r.Skipped[k] += v
	}
	for k, v := range o.Events {
		r.Events[k] += v
	}
}

// Total is the number of events the run produced.
func (r Report) Total() int {
	var n int
	for _, v := range r.Events {
		n += v
	}
	return n
}
