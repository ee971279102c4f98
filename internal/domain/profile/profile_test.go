package profile

import (
	"testing"

	"github.com/okian/pitwall/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func driver(id string, brakes int, steerVar float64, times ...float64) []model.LapRecord {
	out := make([]model.LapRecord, len(times))
	for i, t := range times {
		out[i] = model.LapRecord{
			VehicleID:        id,
			Lap:              i + 1,
			LapTimeSeconds:   model.Some(t),
			PeakLateralG:     model.Some(1.2),
			SteeringVariance: model.Some(steerVar),
			BrakeSpikes:      brakes,
			GearChanges:      10,
		}
	}
	return out
}

func TestBuild(t *testing.T) {
	Convey("Given a field of five drivers", t, func() {
		var laps []model.LapRecord
		laps = append(laps, driver("A", 1, 1, 90, 90, 90, 90, 90, 90)...)
		laps = append(laps, driver("B", 1, 10, 90, 90, 90, 91, 91, 91)...)
		laps = append(laps, driver("C", 1, 10, 92, 92, 92, 92, 92, 92)...)
		laps = append(laps, driver("D", 1, 10, 93, 93, 93, 93, 93, 93)...)
		laps = append(laps, driver("E", 5, 30, 92, 90, 92, 90, 92, 90)...)
		// formation lap
		laps = append(laps, model.LapRecord{VehicleID: "A", Lap: 0, LapTimeSeconds: model.Some(450), BrakeSpikes: 99})

		samples := []model.TelemetrySample{
			{VehicleID: "A", LateralAccel: model.Some(1), SteeringAngle: model.Some(0)},
			{VehicleID: "A", LateralAccel: model.Some(-1), SteeringAngle: model.Some(2)},
			{VehicleID: "A", LateralAccel: model.Some(1), SteeringAngle: model.Some(4)},
		}

		profiles, pop := Build(laps, samples, 0)
		byID := map[string]Profile{}
		for _, p := range profiles {
			byID[p.VehicleID] = p
		}

		Convey("Then profiles are sorted and formation laps excluded", func() {
			So(profiles, ShouldHaveLength, 5)
			So(profiles[0].VehicleID, ShouldEqual, "A")
			So(byID["A"].RacingLaps, ShouldEqual, 6)
			So(byID["A"].BrakeSpikes, ShouldEqual, 6)
			So(byID["A"].GearChanges, ShouldEqual, 60)
			So(byID["A"].MeanLapTime, ShouldEqual, 90)
			So(byID["E"].BestLapTime, ShouldEqual, 90)
		})

		Convey("Then population cut-offs come from the field", func() {
			So(pop.BrakeSpikesQ75.Value, ShouldAlmostEqual, 6)
			So(pop.SteeringVarianceQ25.Value, ShouldAlmostEqual, 10)
			So(pop.SteeringVarianceQ75.Value, ShouldAlmostEqual, 10)
			// sorted std devs 0, 0, 0, B, E: the upper quartile lands on B
			So(pop.LapTimeStdQ75.Value, ShouldAlmostEqual, byID["B"].LapTimeStd)
		})

		Convey("Then drivers are tagged against it", func() {
			So(byID["A"].Tags, ShouldResemble, []string{TagSmoothSteering})
			So(byID["B"].Tags, ShouldResemble, []string{TagLateRaceFade})
			So(byID["C"].Tags, ShouldBeEmpty)
			So(byID["E"].Tags, ShouldResemble, []string{TagAggressiveBraking, TagErraticSteering, TagInconsistentLaps})
		})

		Convey("Then pace stability reflects lap-to-lap swings", func() {
			So(byID["A"].PaceStability, ShouldEqual, 0)
			So(byID["E"].PaceStability, ShouldBeGreaterThan, 2)
			So(byID["B"].Fade.Value, ShouldAlmostEqual, 1)
		})

		Convey("Then cornering confidence uses raw samples when present", func() {
			So(byID["A"].CorneringConfidence.Value, ShouldAlmostEqual, 0.5)
			So(byID["B"].CorneringConfidence.Valid, ShouldBeFalse)
			So(byID["B"].RacePressure.Valid, ShouldBeFalse)
			So(byID["A"].MeanMaxSpeed.Valid, ShouldBeFalse)
		})
	})

	Convey("Given a driver whose workload rises in the second half", t, func() {
		laps := driver("R", 1, 1, 90, 90, 90, 90)
		for i := range laps {
			laps[i].MaxSpeed = model.Some(200 + float64(i))
		}
		// laps 1-2 are the first half of a four-lap race
		samples := []model.TelemetrySample{
			{VehicleID: "R", Lap: 1, FrontBrake: model.Some(1), SteeringAngle: model.Some(0), Throttle: model.Some(0)},
			{VehicleID: "R", Lap: 2, FrontBrake: model.Some(1), SteeringAngle: model.Some(2), Throttle: model.Some(10)},
			{VehicleID: "R", Lap: 3, FrontBrake: model.Some(3), SteeringAngle: model.Some(0), Throttle: model.Some(10)},
			{VehicleID: "R", Lap: 4, FrontBrake: model.Some(3), SteeringAngle: model.Some(0), Throttle: model.Some(10)},
		}

		profiles, _ := Build(laps, samples, 0)
		So(profiles, ShouldHaveLength, 1)

		Convey("Then race pressure compares the halves", func() {
			// first half: brake 2 + 0.5*var(0,2)=1 + 0.2*10=2 -> 5; second half: 6
			So(profiles[0].RacePressure.Value, ShouldAlmostEqual, 0.2, 1e-9)
		})

		Convey("Then max speed is averaged over racing laps", func() {
			So(profiles[0].MeanMaxSpeed.Value, ShouldAlmostEqual, 201.5)
		})

		Convey("Then a driver without first-half workload gets no index", func() {
			quiet := append([]model.TelemetrySample{}, samples[2:]...)
			profiles, _ := Build(laps, quiet, 0)
			So(profiles[0].RacePressure.Valid, ShouldBeFalse)
		})
	})

	Convey("Given no laps", t, func() {
		profiles, pop := Build(nil, nil, 400)
		So(profiles, ShouldBeEmpty)
		So(pop.BrakeSpikesQ75.Valid, ShouldBeFalse)
	})
}

func TestPaceStability(t *testing.T) {
	Convey("Given short and alternating histories", t, func() {
		So(paceStability([]float64{90}), ShouldEqual, 0)
		So(paceStability([]float64{90, 91}), ShouldEqual, 0)
		// deltas +2, -2: one window of two
		So(paceStability([]float64{90, 92, 90}), ShouldAlmostEqual, 2.8284271247, 1e-9)
	})
}

func TestQuantile(t *testing.T) {
	Convey("Given a small sample", t, func() {
		xs := []float64{4, 1, 3, 2}

		Convey("Then quartiles interpolate between neighbouring ranks", func() {
			So(quantile(0.75, xs).Value, ShouldAlmostEqual, 3.25)
			So(quantile(0.25, xs).Value, ShouldAlmostEqual, 1.75)
			So(quantile(0.5, xs).Value, ShouldAlmostEqual, 2.5)
			So(quantile(1, xs).Value, ShouldEqual, 4)
			So(xs, ShouldResemble, []float64{4, 1, 3, 2})
		})

		Convey("Then a single value is every quantile", func() {
			So(quantile(0.75, []float64{7}).Value, ShouldEqual, 7)
			So(quantile(0.75, nil).Valid, ShouldBeFalse)
		})
	})
}
