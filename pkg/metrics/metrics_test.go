package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func gatheredNames(t *testing.T, g prometheus.Gatherer) map[string]float64 {
	t.Helper()
	families, err := g.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	out := make(map[string]float64, len(families))
	for _, mf := range families {
		var v float64
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				v += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				v += m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				v += float64(m.GetHistogram().GetSampleCount())
			}
		}
		out[mf.GetName()] = v
	}
	return out
}

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with defaults", func() {
			m := NewManager(WithPrometheusRegistry(registry))
			m.picksReceived.Inc()

			Convey("Then metrics use the default namespace", func() {
				names := gatheredNames(t, registry)
				So(names, ShouldContainKey, "pickgrader_grader_picks_received_total")
				So(names["pickgrader_grader_picks_received_total"], ShouldEqual, 1)
			})
		})

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			m.gradingLatency.Observe(3)

			Convey("Then names and labels follow the options", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, mf := range families {
					So(strings.HasPrefix(mf.GetName(), "test_unit_"), ShouldBeTrue)
					if mf.GetName() == "test_unit_grading_latency_milliseconds" {
						found = true
						labels := mf.GetMetric()[0].GetLabel()
						So(len(labels), ShouldEqual, 1)
						So(labels[0].GetName(), ShouldEqual, "env")
						So(len(mf.GetMetric()[0].GetHistogram().GetBucket()), ShouldEqual, 3)
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When creating a manager with custom edge buckets", func() {
			m := NewManager(WithEdgeBuckets([]float64{-5, 0, 5}), WithPrometheusRegistry(registry))
			m.edgePercent.Observe(2.5)

			Convey("Then the edge histogram uses them", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				buckets := -1
				for _, mf := range families {
					if mf.GetName() == "pickgrader_grader_edge_percent" {
						buckets = len(mf.GetMetric()[0].GetHistogram().GetBucket())
					}
				}
				So(buckets, ShouldEqual, 3)
			})
		})

		Convey("When registering the same names twice", func() {
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then promauto panics on the duplicate", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestGlobalRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		before := gatheredNames(t, GetRegistry())

		Convey("When recording grading activity", func() {
			RecordPickReceived()
			RecordPickDuplicate()
			RecordPickGraded("A", "market")
			RecordGradingLatency(0.4)
			RecordInvalidInput("invalid_odds_input")
			RecordEdgePercent(2.6)
			RecordBoardUpdate()
			UpdateBoardGames(3)
			UpdateQuotaRemaining(-1)
			RecordCacheHit()
			RecordCacheMiss()
			RecordArchiveWrite("ok")

			Convey("Then the registry reflects it", func() {
				after := gatheredNames(t, GetRegistry())
				So(after["pickgrader_grader_picks_received_total"], ShouldEqual, before["pickgrader_grader_picks_received_total"]+1)
				So(after["pickgrader_grader_picks_graded_total"], ShouldEqual, before["pickgrader_grader_picks_graded_total"]+1)
				So(after["pickgrader_grader_edge_percent"], ShouldEqual, before["pickgrader_grader_edge_percent"]+1)
				So(after["pickgrader_grader_board_games"], ShouldEqual, 3)
				So(after["pickgrader_grader_quota_remaining"], ShouldEqual, -1)
				So(after["pickgrader_grader_cache_hits_total"], ShouldEqual, before["pickgrader_grader_cache_hits_total"]+1)
			})
		})

		Convey("When recording operational metrics", func() {
			So(func() {
				UpdateQueueSize(10)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.1)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(0.2)
				UpdateWorkerCount(4)
				UpdateWorkerActiveCount(1)
				UpdateWorkerIdleCount(3)
				RecordWorkerProcessingLatency(1.5)
				RecordWorkerError()
				RecordHTTPRequest("/grade", "POST", "200")
				RecordHTTPRequestDuration("/grade", "POST", "200", 2.5)
				RecordErrorByComponent("worker", "score")
				RecordErrorByEndpoint("/grade", "POST", "invalid_odds_input")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)

			Convey("Then gauges hold the last value", func() {
				after := gatheredNames(t, GetRegistry())
				So(after["pickgrader_grader_queue_capacity"], ShouldEqual, 100)
				So(after["pickgrader_grader_worker_count"], ShouldEqual, 4)
				So(after["pickgrader_grader_system_goroutine_count"], ShouldEqual, 12)
			})
		})
	})
}
