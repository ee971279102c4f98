// Package detect turns lap records and telemetry samples into typed race
// events. Lap rules look for pace collapse and tyre degradation; sample
// rules form an ordered chain (lockup, near spin, understeer, missed shift)
// where the first match classifies a sample.
package detect

import (
	"context"
	"sort"

	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/signal"
)

// Runner fans a function out over n independent partitions. Each call of
// fn owns slot i of the caller's result slices.
type Runner interface {
	Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error
}

type sequential struct{}

func (sequential) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

// Input is one session's raw data.
type Input struct {
	Laps    []model.LapRecord
	Samples []model.TelemetrySample
}

// Result is the detector's output.
type Result struct {
	Events []model.Event
	Report Report
}

// Detector evaluates every rule for every vehicle.
type Detector struct {
	th     Thresholds
	runner Runner
}

// New creates a Detector. Without options it uses DefaultThresholds and
// evaluates vehicles sequentially.
func New(opts ...Option) *Detector {
	d := &Detector{
		th:     DefaultThresholds(),
		runner: sequential{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Thresholds returns the thresholds in use.
func (d *Detector) Thresholds() Thresholds {
	return d.th
}

type vehicleResult struct {
	lap    []model.Event
	sample []model.Event
	report Report
}

// Detect runs all rules. Vehicles are independent and may be evaluated
// concurrently; the merged output is the lap-rule events of every vehicle
// followed by the sample-rule events, each in vehicle id order and then
// time order. The only error is cancellation of ctx.
func (d *Detector) Detect(ctx context.Context, in Input) (Result, error) {
	lapParts := signal.PartitionLaps(in.Laps)
	sampleParts := signal.PartitionSamples(in.Samples)
	vehicles := signal.Vehicles(lapParts, sampleParts)

	lapsByVehicle := make(map[string][]model.LapRecord, len(lapParts))
	for _, p := range lapParts {
		lapsByVehicle[p.VehicleID] = p.Laps
	}
	samplesByVehicle := make(map[string][]signal.LapSamples, len(sampleParts))
	for _, p := range sampleParts {
		samplesByVehicle[p.VehicleID] = p.Laps
	}

	results := make([]vehicleResult, len(vehicles))
	err := d.runner.Run(ctx, len(vehicles), func(_ context.Context, i int) error {
		id := vehicles[i]
		results[i] = d.detectVehicle(id, lapsByVehicle[id], samplesByVehicle[id])
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	out := Result{Report: newReport()}
	for i := range results {
		out.Events = append(out.Events, results[i].lap...)
	}
	for i := range results {
		out.Events = append(out.Events, results[i].sample...)
		out.Report.merge(results[i].report)
	}
	return out, nil
}

func (d *Detector) detectVehicle(id string, laps []model.LapRecord, samples []signal.LapSamples) vehicleResult {
	rep := newReport()
	rep.Vehicles = 1

	lap := lapEvents(id, laps, &d.th, &rep)
	sample := sampleEvents(id, samples, &d.th, &rep)
	byTime(lap)
	byTime(sample)

	rep.count(lap)
	rep.count(sample)
	return vehicleResult{lap: lap, sample: sample, report: rep}
}

func byTime(events []model.Event) {
	sort.SliceStable(events, func(a, b int) bool {
		return events[a].Timestamp.Before(events[b].Timestamp)
	})
}
