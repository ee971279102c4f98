package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/pitwall/internal/adapters/repository"
	service "github.com/okian/pitwall/internal/app"
	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/whatif"
	"github.com/okian/pitwall/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

var raceStart = time.Date(2025, 8, 17, 14, 0, 0, 0, time.UTC)

func lap(vehicle string, n int, secs, latG, longG float64) model.LapRecord {
	end := raceStart.Add(time.Duration(n) * 95 * time.Second)
	return model.LapRecord{
		VehicleID:         vehicle,
		Lap:               n,
		StartTime:         end.Add(-time.Duration(secs * float64(time.Second))),
		EndTime:           end,
		LapTimeSeconds:    model.Some(secs),
		PeakLateralG:      model.Some(latG),
		PeakLongitudinalG: model.Some(longG),
	}
}

func sample(vehicle string, lapNum, i int, speed, latG, brake float64) model.TelemetrySample {
	return model.TelemetrySample{
		VehicleID:     vehicle,
		Lap:           lapNum,
		Timestamp:     raceStart.Add(time.Duration(lapNum)*time.Minute + time.Duration(i)*100*time.Millisecond),
		Speed:         model.Some(speed),
		LateralAccel:  model.Some(latG),
		FrontBrake:    model.Some(brake),
		SteeringAngle: model.Some(0),
		EngineSpeed:   model.Some(7000),
		Gear:          model.Some(4),
	}
}

// raceInput has A fading into a pace collapse and B locking up once on
// otherwise clean 91s laps.
func raceInput() service.SessionInput {
	return service.SessionInput{
		Laps: []model.LapRecord{
			lap("A", 1, 90, 1.4, 1.1),
			lap("A", 2, 91, 1.4, 1.1),
			lap("A", 3, 90.5, 1.4, 1.1),
			lap("A", 4, 95, 1.0, 0.8),
			lap("B", 1, 91, 1.4, 1.1),
			lap("B", 2, 91, 1.4, 1.1),
			lap("B", 3, 91, 1.4, 1.1),
			lap("B", 4, 91, 1.4, 1.1),
		},
		Samples: []model.TelemetrySample{
			sample("B", 2, 0, 160, 1.0, 0),
			sample("B", 2, 1, 158, 0.9, 5),
			sample("B", 2, 2, 155, 0.8, 12),
			sample("B", 2, 3, 150, 0.5, 20),
		},
	}
}

func started(t *testing.T) (*service.Service, context.Context) {
	t.Helper()
	svc := service.New(service.WithWorkerCount(4), service.WithMaxSessions(8))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc, ctx
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["keyEventLimit"], ShouldEqual, 6)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithMaxSessions(3),
			service.WithKeyEvents(4, 2),
			service.WithFormationLapSeconds(300),
		)

		Convey("Then it should be created successfully", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 8)
			So(stats["maxSessions"], ShouldEqual, 3)
			So(stats["keyEventLimit"], ShouldEqual, 4)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()
		ctx := context.Background()

		Convey("When used before starting", func() {
			_, err := svc.Analyze(ctx, raceInput())

			Convey("Then it reports ErrNotStarted", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When starting and stopping the service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			So(svc.GetStats()["sessions"], ShouldEqual, 0)

			svc.Stop()
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
				_, err := svc.Sessions(ctx)
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

func TestService_Analyze(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, ctx := started(t)

		Convey("When analysing a two car race", func() {
			sess, err := svc.Analyze(ctx, raceInput())
			So(err, ShouldBeNil)

			Convey("Then the session is stored under a fresh id", func() {
				So(sess.ID, ShouldNotBeEmpty)
				got, err := svc.Session(ctx, sess.ID)
				So(err, ShouldBeNil)
				So(got, ShouldEqual, sess)

				list, err := svc.Sessions(ctx)
				So(err, ShouldBeNil)
				So(list, ShouldHaveLength, 1)
				So(list[0].ID, ShouldEqual, sess.ID)
			})

			Convey("Then every incident is detected", func() {
				var types []model.EventType
				for _, e := range sess.Events {
					types = append(types, e.Type)
				}
				So(types, ShouldResemble, []model.EventType{model.PaceCollapse, model.DegradationPhase, model.Lockup})
				So(sess.Report.Vehicles, ShouldEqual, 2)
				So(sess.Report.SamplesEvaluated, ShouldEqual, 1)
			})

			Convey("Then the catalog ranks the fade first", func() {
				So(sess.KeyEvents, ShouldHaveLength, 3)
				So(sess.KeyEvents[0].Type, ShouldEqual, model.DegradationPhase)
				So(sess.KeyEvents[0].Role, ShouldEqual, model.RoleTurningPoint)
				So(sess.KeyEvents[1].Role, ShouldEqual, model.RoleMajorMistake)
				So(sess.KeyEvents[2].Role, ShouldEqual, model.RoleMajorMistake)
			})

			Convey("Then totals, profiles and base are filled in", func() {
				So(sess.Totals, ShouldResemble, []model.VehicleTotal{
					{VehicleID: "A", TotalTime: 366.5},
					{VehicleID: "B", TotalTime: 364},
				})
				So(sess.Profiles, ShouldHaveLength, 2)
				So(sess.Base.TotalTime["B"], ShouldEqual, 364)
				So(sess.Base.EventLoss["B"], ShouldAlmostEqual, 10.0/9.0, 1e-9)
			})
		})

		Convey("When only samples are given", func() {
			var in service.SessionInput
			for l := 1; l <= 2; l++ {
				for i := 0; i < 20; i++ {
					in.Samples = append(in.Samples, sample("C", l, i, 120, 1.0, 0))
				}
			}
			sess, err := svc.Analyze(ctx, in)
			So(err, ShouldBeNil)

			Convey("Then laps are derived from the samples", func() {
				So(sess.Laps, ShouldHaveLength, 2)
				secs, ok := sess.Laps[0].LapTimeSeconds.Get()
				So(ok, ShouldBeTrue)
				So(secs, ShouldAlmostEqual, 1.9, 1e-9)
				So(sess.Totals, ShouldHaveLength, 1)
			})
		})

		Convey("When the input is malformed", func() {
			in := raceInput()
			in.Laps[0].VehicleID = ""
			_, err := svc.Analyze(ctx, in)
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)

			in = raceInput()
			in.Official = map[string]int{"A": 0}
			_, err = svc.Analyze(ctx, in)
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("When the session does not exist", func() {
			_, err := svc.Session(ctx, "missing")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			So(errors.Is(svc.DeleteSession(ctx, "missing"), repository.ErrNotFound), ShouldBeTrue)
			_, err = svc.WhatIf(ctx, "missing", "x", whatif.Filter{All: true})
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestService_WhatIf(t *testing.T) {
	Convey("Given an analysed session", t, func() {
		svc, ctx := started(t)
		sess, err := svc.Analyze(ctx, raceInput())
		So(err, ShouldBeNil)

		Convey("When A's events are removed", func() {
			sc, err := svc.WhatIf(ctx, sess.ID, "clean A", whatif.Filter{VehicleID: "A"})
			So(err, ShouldBeNil)

			Convey("Then A moves ahead of B", func() {
				So(sc.Label, ShouldEqual, "clean A")
				So(sc.Removed, ShouldEqual, 2)
				a, ok := whatif.Find(sc.Results, "A")
				So(ok, ShouldBeTrue)
				So(a.AdjustedTotalTime, ShouldAlmostEqual, 366.5-4.5-11.0/6.0, 1e-9)
				So(a.AdjustedPosition, ShouldEqual, 1)
			})

			Convey("Then repeating the run gives the same answer", func() {
				again, err := svc.WhatIf(ctx, sess.ID, "clean A", whatif.Filter{VehicleID: "A"})
				So(err, ShouldBeNil)
				So(again, ShouldResemble, sc)
			})
		})

		Convey("When the label is omitted", func() {
			sc, err := svc.WhatIf(ctx, sess.ID, "", whatif.Filter{})
			So(err, ShouldBeNil)
			So(sc.Label, ShouldEqual, "scenario")
			So(sc.Removed, ShouldEqual, 0)
		})

		Convey("When comparing scenarios for A", func() {
			got, err := svc.Compare(ctx, sess.ID, "A", map[string]whatif.Filter{
				"baseline": {},
				"all":      {All: true},
				"lockups":  {Type: model.Lockup},
			})
			So(err, ShouldBeNil)

			Convey("Then every scenario projects A", func() {
				So(got, ShouldHaveLength, 3)
				So(got["baseline"].AdjustedTime, ShouldEqual, 366.5)
				So(got["baseline"].AdjustedPosition, ShouldEqual, 2)
				So(got["all"].AdjustedPosition, ShouldEqual, 1)
				So(got["lockups"].EventLoss, ShouldEqual, 0)
			})
		})

		Convey("When comparing an unknown vehicle", func() {
			got, err := svc.Compare(ctx, sess.ID, "Z", map[string]whatif.Filter{"all": {All: true}})
			So(err, ShouldBeNil)
			So(got, ShouldBeEmpty)
		})

		Convey("When building a driver payload", func() {
			p, err := svc.DriverPayload(ctx, sess.ID, "A", "clean A", whatif.Filter{VehicleID: "A"})
			So(err, ShouldBeNil)
			So(p.OriginalPosition, ShouldEqual, 2)
			So(p.AdjustedPosition, ShouldEqual, 1)
			So(p.PositionChange, ShouldEqual, 1)
			So(p.Outcome, ShouldEqual, whatif.Improved)

			_, err = svc.DriverPayload(ctx, sess.ID, "Z", "x", whatif.Filter{})
			So(errors.Is(err, whatif.ErrVehicleNotFound), ShouldBeTrue)
		})

		Convey("When removing the turning point", func() {
			out, err := svc.RoleImpact(ctx, sess.ID, model.RoleTurningPoint)
			So(err, ShouldBeNil)

			Convey("Then only A gains", func() {
				So(out, ShouldHaveLength, 1)
				So(out["A"].TimeGain, ShouldAlmostEqual, 11.0/6.0, 1e-9)
				So(out["A"].Outcome, ShouldEqual, whatif.Unchanged)
			})
		})

		Convey("When the session is deleted", func() {
			So(svc.DeleteSession(ctx, sess.ID), ShouldBeNil)
			_, err := svc.Session(ctx, sess.ID)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}
