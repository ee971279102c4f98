package model_test

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/okian/pitwall/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestReading(t *testing.T) {
	convey.Convey("Given optional readings", t, func() {
		convey.Convey("When wrapping finite and non-finite values", func() {
			convey.So(model.Some(1.5).Valid, convey.ShouldBeTrue)
			convey.So(model.Some(math.NaN()).Valid, convey.ShouldBeFalse)
			convey.So(model.Some(math.Inf(1)).Valid, convey.ShouldBeFalse)
			convey.So(model.None().Or(7), convey.ShouldEqual, 7)
		})

		convey.Convey("When decoding JSON", func() {
			var doc struct {
				A model.Reading `json:"a"`
				B model.Reading `json:"b"`
				C model.Reading `json:"c"`
				D model.Reading `json:"d"`
				E model.Reading `json:"e"`
			}
			err := json.Unmarshal([]byte(`{"a": 12.5, "b": null, "c": "3.25", "d": "n/a", "e": true}`), &doc)

			convey.Convey("Then numbers and numeric strings are present, the rest absent", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(doc.A, convey.ShouldResemble, model.Some(12.5))
				convey.So(doc.B.Valid, convey.ShouldBeFalse)
				convey.So(doc.C, convey.ShouldResemble, model.Some(3.25))
				convey.So(doc.D.Valid, convey.ShouldBeFalse)
				convey.So(doc.E.Valid, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When encoding JSON", func() {
			b, err := json.Marshal([]model.Reading{model.Some(2), model.None()})
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(b), convey.ShouldEqual, "[2,null]")
		})
	})
}

func TestTelemetrySampleChannel(t *testing.T) {
	convey.Convey("Given a sample with a subset of channels", t, func() {
		s := model.TelemetrySample{Speed: model.Some(180), Gear: model.Some(4)}

		convey.Convey("Then the accessor reports presence per channel", func() {
			v, ok := s.Channel(model.Speed).Get()
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(v, convey.ShouldEqual, 180)
			_, ok = s.Channel(model.SteeringAngle).Get()
			convey.So(ok, convey.ShouldBeFalse)
			_, ok = s.Channel(model.Channel(99)).Get()
			convey.So(ok, convey.ShouldBeFalse)
			convey.So(model.FrontBrake.String(), convey.ShouldEqual, "front_brake_pressure")
		})
	})
}

func TestEventID(t *testing.T) {
	convey.Convey("Given two events at the same instant", t, func() {
		ts := time.Date(2025, 8, 17, 14, 3, 2, 123456000, time.UTC)
		lockup := model.EventID("GR86-026", 4, ts, model.Lockup)
		pace := model.EventID("GR86-026", 4, ts, model.PaceCollapse)

		convey.Convey("Then the type keeps the ids distinct", func() {
			convey.So(lockup, convey.ShouldEqual, "GR86-026_L4_T20250817T140302.123456_lockup")
			convey.So(lockup, convey.ShouldNotEqual, pace)
		})
	})

	convey.Convey("Given an event", t, func() {
		e := model.Event{ID: "x", Type: model.NearSpin}

		convey.Convey("When a role is applied", func() {
			labelled := e.WithRole(model.RoleMajorMistake)

			convey.Convey("Then the original is untouched", func() {
				convey.So(labelled.Role, convey.ShouldEqual, model.RoleMajorMistake)
				convey.So(e.Role, convey.ShouldEqual, model.RoleNone)
				convey.So(model.NearSpin.Valid(), convey.ShouldBeTrue)
				convey.So(model.EventType("burnout").Valid(), convey.ShouldBeFalse)
			})
		})
	})
}

func TestLapStamp(t *testing.T) {
	convey.Convey("Given laps with and without an end time", t, func() {
		start := time.Date(2025, 8, 17, 14, 0, 0, 0, time.UTC)
		end := start.Add(90 * time.Second)

		withEnd := model.LapRecord{StartTime: start, EndTime: end}
		noEnd := model.LapRecord{StartTime: start}

		convey.So(withEnd.Stamp(), convey.ShouldEqual, end)
		convey.So(noEnd.Stamp(), convey.ShouldEqual, start)
	})
}
