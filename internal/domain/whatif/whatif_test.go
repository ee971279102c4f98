package whatif_test

import (
	"errors"
	"testing"

	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/whatif"
	. "github.com/smartystreets/goconvey/convey"
)

func laps(vehicle string, times ...float64) []model.LapRecord {
	out := make([]model.LapRecord, len(times))
	for i, t := range times {
		out[i] = model.LapRecord{VehicleID: vehicle, Lap: i + 1, LapTimeSeconds: model.Some(t)}
	}
	return out
}

func event(id, vehicle string, typ model.EventType, loss float64, role model.Role) model.Event {
	return model.Event{ID: id, VehicleID: vehicle, Type: typ, TimeLoss: loss, Role: role}
}

func TestTotals(t *testing.T) {
	Convey("Given interleaved laps with a missing time", t, func() {
		in := append(laps("B", 90, 91), laps("A", 92)...)
		in = append(in, model.LapRecord{VehicleID: "B", Lap: 3}, model.LapRecord{VehicleID: "Z", Lap: 1})
		in = append(in, laps("A", 0, 93)...)

		totals := whatif.Totals(in)

		Convey("Then vehicles keep first-seen order and absent times are skipped", func() {
			So(totals, ShouldResemble, []model.VehicleTotal{
				{VehicleID: "B", TotalTime: 181},
				{VehicleID: "A", TotalTime: 185},
			})
		})
	})
}

func TestSimulate(t *testing.T) {
	Convey("Given vehicle A with a pace collapse", t, func() {
		totals := []model.VehicleTotal{{VehicleID: "A", TotalTime: 366.5}, {VehicleID: "B", TotalTime: 370}}
		events := []model.Event{
			event("a1", "A", model.PaceCollapse, 4.5, model.RoleNone),
			event("a2", "A", model.Lockup, 1.1, model.RoleNone),
			event("b1", "B", model.PaceCollapse, 2, model.RoleNone),
		}

		Convey("When removing A's pace collapse", func() {
			res := whatif.Simulate(totals, events, whatif.Filter{VehicleID: "A", Type: model.PaceCollapse}, nil)

			Convey("Then only that loss is taken off A", func() {
				a, ok := whatif.Find(res, "A")
				So(ok, ShouldBeTrue)
				So(a.AdjustedTotalTime, ShouldAlmostEqual, 366.5-4.5)
				So(a.TotalEventLoss, ShouldAlmostEqual, 4.5)
				b, _ := whatif.Find(res, "B")
				So(b.TotalEventLoss, ShouldEqual, 0)
				So(b.AdjustedTotalTime, ShouldEqual, 370)
			})

			Convey("Then unknown positions stay null", func() {
				for _, r := range res {
					So(r.RealPosition, ShouldBeNil)
					So(r.PositionChange, ShouldBeNil)
				}
			})
		})

		Convey("When removing by explicit id", func() {
			res := whatif.Simulate(totals, events, whatif.Filter{EventIDs: []string{"a2", "b1"}, Type: model.MissedShift}, nil)
			a, _ := whatif.Find(res, "A")
			b, _ := whatif.Find(res, "B")
			So(a.TotalEventLoss, ShouldAlmostEqual, 1.1)
			So(b.TotalEventLoss, ShouldAlmostEqual, 2)
		})

		Convey("When removing everything", func() {
			res := whatif.Simulate(totals, events, whatif.Filter{All: true}, nil)
			a, _ := whatif.Find(res, "A")
			So(a.TotalEventLoss, ShouldAlmostEqual, 5.6)
		})

		Convey("When the filter names a vehicle without a total", func() {
			extra := append(events, event("x1", "GHOST", model.Lockup, 30, model.RoleNone))
			res := whatif.Simulate(totals, extra, whatif.Filter{VehicleID: "GHOST"}, nil)

			Convey("Then nothing changes and no row is added", func() {
				So(res, ShouldHaveLength, 2)
				for _, r := range res {
					So(r.AdjustedTotalTime, ShouldEqual, r.RealTotalTime)
				}
			})
		})
	})

	Convey("Given A behind C on the road", t, func() {
		totals := []model.VehicleTotal{{VehicleID: "A", TotalTime: 360}, {VehicleID: "C", TotalTime: 355}}
		events := []model.Event{event("a1", "A", model.Lockup, 10, model.RoleTurningPoint)}
		official := map[string]int{"A": 2, "C": 1}

		Convey("When A's only event is removed", func() {
			res := whatif.Simulate(totals, events, whatif.Filter{EventIDs: []string{"a1"}}, official)

			Convey("Then A moves ahead", func() {
				So(res[0].VehicleID, ShouldEqual, "A")
				So(res[0].AdjustedTotalTime, ShouldEqual, 350)
				So(res[0].AdjustedPosition, ShouldEqual, 1)
				So(*res[0].PositionChange, ShouldEqual, 1)
				So(res[1].VehicleID, ShouldEqual, "C")
				So(res[1].AdjustedPosition, ShouldEqual, 2)
				So(*res[1].PositionChange, ShouldEqual, -1)
			})

			Convey("Then the payload reads as an improvement", func() {
				baseline := whatif.Simulate(totals, events, whatif.Filter{}, official)
				p, err := whatif.BuildPayload("no_lockup", "A", baseline, res)
				So(err, ShouldBeNil)
				So(p.OriginalPosition, ShouldEqual, 2)
				So(p.AdjustedPosition, ShouldEqual, 1)
				So(p.PositionChange, ShouldEqual, 1)
				So(p.Outcome, ShouldEqual, whatif.Improved)
				So(p.TimeGain, ShouldEqual, 10)
				So(p.TimeGainPercent, ShouldAlmostEqual, 10.0/360*100)

				pc, _ := whatif.BuildPayload("no_lockup", "C", baseline, res)
				So(pc.Outcome, ShouldEqual, whatif.Declined)

				_, err = whatif.BuildPayload("no_lockup", "Q", baseline, res)
				So(errors.Is(err, whatif.ErrVehicleNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestSimulateLaws(t *testing.T) {
	Convey("Given a field with ties and official positions", t, func() {
		totals := []model.VehicleTotal{
			{VehicleID: "D", TotalTime: 400},
			{VehicleID: "E", TotalTime: 398},
			{VehicleID: "F", TotalTime: 400},
			{VehicleID: "G", TotalTime: 401},
		}
		events := []model.Event{
			event("d1", "D", model.Lockup, 3, model.RoleMajorMistake),
			event("g1", "G", model.NearSpin, 5, model.RoleTurningPoint),
		}
		official := map[string]int{"E": 1, "D": 2, "F": 3, "G": 4}

		Convey("When the filter is empty", func() {
			res := whatif.Simulate(totals, events, whatif.Filter{}, official)

			Convey("Then adjusted equals real and nobody moves", func() {
				So(res, ShouldHaveLength, 4)
				for _, r := range res {
					So(r.AdjustedTotalTime, ShouldEqual, r.RealTotalTime)
					So(*r.PositionChange, ShouldEqual, 0)
				}
			})

			Convey("Then ties keep input order", func() {
				So(res[1].VehicleID, ShouldEqual, "D")
				So(res[2].VehicleID, ShouldEqual, "F")
			})
		})

		Convey("When any filter is applied the ranking is monotonic", func() {
			for _, f := range []whatif.Filter{{All: true}, {Role: model.RoleTurningPoint}, {VehicleID: "D"}} {
				res := whatif.Simulate(totals, events, f, official)
				for i := range res {
					So(res[i].AdjustedTotalTime, ShouldEqual, res[i].RealTotalTime-res[i].TotalEventLoss)
					for j := range res {
						if res[i].AdjustedTotalTime < res[j].AdjustedTotalTime {
							So(res[i].AdjustedPosition, ShouldBeLessThan, res[j].AdjustedPosition)
						}
					}
				}
			}
		})
	})

	Convey("Given no totals", t, func() {
		res := whatif.Simulate(nil, []model.Event{event("x", "A", model.Lockup, 1, model.RoleNone)}, whatif.Filter{All: true}, nil)
		So(res, ShouldNotBeNil)
		So(res, ShouldBeEmpty)
	})

	Convey("Given a vehicle listed twice", t, func() {
		res := whatif.Simulate([]model.VehicleTotal{{VehicleID: "A", TotalTime: 10}, {VehicleID: "A", TotalTime: 5}}, nil, whatif.Filter{}, nil)
		So(res, ShouldHaveLength, 1)
		So(res[0].RealTotalTime, ShouldEqual, 15)
	})
}

func TestFilter(t *testing.T) {
	Convey("Given a mix of events", t, func() {
		events := []model.Event{
			event("1", "A", model.Lockup, 1, model.RoleTurningPoint),
			event("2", "A", model.NearSpin, 1, model.RoleMajorMistake),
			event("3", "B", model.Lockup, 1, model.RoleMajorMistake),
		}

		So(whatif.Filter{}.Empty(), ShouldBeTrue)
		So(whatif.Filter{}.Select(events), ShouldBeEmpty)
		So(whatif.Filter{Type: model.Lockup}.Select(events), ShouldHaveLength, 2)
		So(whatif.Filter{Type: model.Lockup, Role: model.RoleMajorMistake}.Select(events)[0].ID, ShouldEqual, "3")
		So(whatif.Filter{VehicleID: "A", Role: model.RoleMajorMistake}.Select(events)[0].ID, ShouldEqual, "2")
		So(whatif.Filter{EventIDs: []string{"1", "nope"}}.Select(events), ShouldHaveLength, 1)
		So(whatif.Filter{All: true}.Select(events), ShouldHaveLength, 3)
	})
}

func TestCompare(t *testing.T) {
	Convey("Given two scenarios, one without vehicle A", t, func() {
		withA := []model.ScenarioResult{
			{VehicleID: "B", AdjustedTotalTime: 350, AdjustedPosition: 1},
			{VehicleID: "A", AdjustedTotalTime: 351, AdjustedPosition: 2, TotalEventLoss: 9},
		}
		withoutA := []model.ScenarioResult{{VehicleID: "B", AdjustedTotalTime: 352, AdjustedPosition: 1}}

		out := whatif.Compare(map[string][]model.ScenarioResult{"clean": withA, "partial": withoutA}, "A")

		Convey("Then only the scenario containing A is projected", func() {
			So(out, ShouldResemble, map[string]whatif.Projection{
				"clean": {AdjustedTime: 351, AdjustedPosition: 2, EventLoss: 9},
			})
		})

		Convey("Then an unknown vehicle yields an empty comparison", func() {
			So(whatif.Compare(map[string][]model.ScenarioResult{"clean": withA}, "Z"), ShouldBeEmpty)
		})
	})
}

func TestSimulateByRole(t *testing.T) {
	Convey("Given events with narrative roles", t, func() {
		totals := []model.VehicleTotal{{VehicleID: "A", TotalTime: 360}, {VehicleID: "C", TotalTime: 355}}
		events := []model.Event{
			event("a1", "A", model.Lockup, 10, model.RoleTurningPoint),
			event("c1", "C", model.Lockup, 1, model.RoleMajorMistake),
			event("c2", "C", model.Lockup, 1, model.RoleMajorMistake),
			event("x1", "X", model.Lockup, 1, model.RoleMajorMistake),
		}

		Convey("When removing major mistakes", func() {
			out := whatif.SimulateByRole(totals, events, nil, model.RoleMajorMistake)

			Convey("Then each affected vehicle with a total gets one payload", func() {
				So(out, ShouldHaveLength, 1)
				p := out["C"]
				So(p.TimeGain, ShouldEqual, 2)
				So(p.OriginalPosition, ShouldEqual, 1)
				So(p.Outcome, ShouldEqual, whatif.Unchanged)
			})
		})

		Convey("When no event has the role", func() {
			So(whatif.SimulateByRole(totals, events[:1], nil, model.RoleMajorMistake), ShouldBeEmpty)
			So(whatif.SimulateByRole(totals, events, nil, model.RoleNone), ShouldBeEmpty)
		})

		Convey("Then the base includes every vehicle's event loss", func() {
			b := whatif.NewBase(totals, events)
			So(b.TotalTime["A"], ShouldEqual, 360)
			So(b.EventLoss["C"], ShouldEqual, 2)
			So(b.EventLoss["X"], ShouldEqual, 1)
		})
	})
}
