package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a private registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When a manager is created with custom naming", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithLatencyBuckets(1, 10, 3),
				WithRegistry(registry),
			)
			m.matchesRated.Inc()

			Convey("Then latency buckets grow exponentially", func() {
				So(m.histogramBuckets, ShouldResemble, []float64{1, 10, 100})
			})

			Convey("Then its metrics carry the custom names", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_unit_matches_rated_total"], ShouldBeTrue)
			})
		})

		Convey("When empty options are given", func() {
			m := NewManager(WithNamespace(""), WithSubsystem(""), WithLatencyBuckets(0, 2, 5), WithRegistry(registry))

			Convey("Then defaults are kept", func() {
				So(m.namespace, ShouldEqual, "ladder")
				So(m.subsystem, ShouldEqual, "rating")
				So(m.histogramBuckets, ShouldNotBeEmpty)
			})
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When rating activity is recorded", func() {
			before := testutil.ToFloat64(globalManager.rateCalls.WithLabelValues("league"))
			RecordRateCalls("league", 2)
			RecordRateCalls("league", 0)
			RecordIdleDecays("historic", 3)
			RecordEventRated()
			RecordEventDuplicate()
			RecordEventFailed("invalid_input")
			RecordEventLatency(12)
			RecordMatchRated()
			RecordBye()

			Convey("Then the counters move", func() {
				So(testutil.ToFloat64(globalManager.rateCalls.WithLabelValues("league")), ShouldEqual, before+2)
				So(testutil.ToFloat64(globalManager.idleDecays.WithLabelValues("historic")), ShouldBeGreaterThanOrEqualTo, 3)
				So(testutil.ToFloat64(globalManager.eventsFailed.WithLabelValues("invalid_input")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When the tracked player count is set", func() {
			UpdateTrackedPlayers(42)

			Convey("Then the gauge reports it", func() {
				So(testutil.ToFloat64(globalManager.trackedPlayers), ShouldEqual, 42)
			})
		})

		Convey("When the submission queue reports", func() {
			UpdateQueueSize(7)
			RecordQueueRejected("queue_full")
			RecordWorkerProcessingLatency(4)

			Convey("Then the queue series move", func() {
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.queueRejected.WithLabelValues("queue_full")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When HTTP traffic is recorded", func() {
			RecordHTTPRequest("/players", "GET", "200")
			RecordHTTPRequestDuration("/players", "GET", "200", 3.5)
			RecordErrorByComponent("http", "not_found")
			RecordQueryLatency(0.2)

			Convey("Then the custom registry exposes the series", func() {
				n, err := testutil.GatherAndCount(GetRegistry(), "ladder_rating_http_requests_total")
				So(err, ShouldBeNil)
				So(n, ShouldBeGreaterThan, 0)
			})
		})
	})
}
