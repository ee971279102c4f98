package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a fresh registry", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(WithPrometheusRegistry(registry))

			Convey("Then collectors are registered under the default namespace", func() {
				So(m, ShouldNotBeNil)
				m.sessionsAnalyzed.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "pitwall_analysis_sessions_analyzed_total")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithConstLabels(map[string]string{"track": "road_america"}),
				WithPrometheusRegistry(registry),
			)
			m.eventsDetected.WithLabelValues("lockup").Add(2)

			Convey("Then names and labels follow the options", func() {
				So(testutil.ToFloat64(m.eventsDetected.WithLabelValues("lockup")), ShouldEqual, 2)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var labels []string
				for _, f := range families {
					So(f.GetName(), ShouldStartWith, "test_unit_")
					if f.GetName() == "test_unit_events_detected_total" {
						for _, l := range f.GetMetric()[0].GetLabel() {
							labels = append(labels, l.GetName()+"="+l.GetValue())
						}
					}
				}
				So(labels, ShouldResemble, []string{"event_type=lockup", "track=road_america"})
			})
		})
	})
}

func TestGlobalRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording detection metrics", func() {
			before := testutil.ToFloat64(globalManager.eventsDetected.WithLabelValues("near_spin"))
			RecordEventsDetected("near_spin", 3)
			RecordSessionAnalyzed()
			RecordLapsEvaluated(10)
			RecordSamplesEvaluated(100)
			RecordRulesSkipped("missing_channel", 4)
			RecordDetectionDuration(1.5)

			Convey("Then counters move", func() {
				So(testutil.ToFloat64(globalManager.eventsDetected.WithLabelValues("near_spin")), ShouldEqual, before+3)
			})
		})

		Convey("When recording simulation, pool and HTTP metrics", func() {
			So(func() {
				RecordSimulation("whatif", 0.3, 12)
				UpdateSessionsStored(2)
				RecordSessionEvicted()
				RecordPartition(0.2)
				UpdatePoolWorkers(4)
				RecordHTTPRequest("sessions", "POST", "201")
				RecordHTTPRequestDuration("sessions", "POST", "201", 3)
				RecordErrorByEndpoint("whatif", "POST", "client_error")
			}, ShouldNotPanic)
			So(testutil.ToFloat64(globalManager.sessionsStored), ShouldEqual, 2)
		})

		Convey("When recording system metrics", func() {
			UpdateSystemMemoryUsage(1 << 20)
			UpdateSystemGoroutineCount(12)
			RecordSystemGCPauseTime(0.05)
			So(testutil.ToFloat64(globalManager.systemMemory), ShouldEqual, 1<<20)
			So(testutil.ToFloat64(globalManager.systemGoroutines), ShouldEqual, 12)
		})

		Convey("Then the registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
