package config_test

import (
	"context"
	"errors"
	"math"
	"runtime"
	"testing"
	"time"

	"github.com/okian/pickgrader/internal/config"
	"github.com/okian/pickgrader/internal/domain/scoring"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 100_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 500_000)
			convey.So(cfg.MaxBoardLimit, convey.ShouldEqual, 100)
			convey.So(cfg.JitterAmplitude, convey.ShouldEqual, scoring.DefaultJitterAmplitude)
			convey.So(cfg.CacheTTL(), convey.ShouldEqual, time.Minute)
			convey.So(cfg.ShutdownTimeout(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the default weights round-trip", func() {
			w, err := cfg.ScoringWeights()
			convey.So(err, convey.ShouldBeNil)
			convey.So(w, convey.ShouldResemble, scoring.DefaultWeights())
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a valid config", t, func() {
		cfg := config.New(context.Background())

		cases := []struct {
			name   string
			mutate func()
		}{
			{"empty addr", func() { cfg.Addr = "" }},
			{"zero queue", func() { cfg.QueueSize = 0 }},
			{"zero workers", func() { cfg.WorkerCount = 0 }},
			{"zero board limit", func() { cfg.MaxBoardLimit = 0 }},
			{"negative batch", func() { cfg.MaxBatchSize = -1 }},
			{"negative dedupe", func() { cfg.DedupeSize = -1 }},
			{"negative budget", func() { cfg.DailyGradeBudget = -5 }},
			{"negative cache ttl", func() { cfg.CacheTTLMS = -1 }},
			{"NaN jitter", func() { cfg.JitterAmplitude = math.NaN() }},
			{"negative jitter", func() { cfg.JitterAmplitude = -1 }},
			{"weights sum", func() { cfg.Weights[scoring.FactorTeamMomentum] = 0.5 }},
			{"unknown weight", func() { cfg.Weights["bullpen"] = 0 }},
			{"missing weight", func() { delete(cfg.Weights, scoring.FactorSystemConfidence) }},
			{"negative shutdown", func() { cfg.ShutdownTimeoutMS = -1 }},
			{"unknown log format", func() { cfg.LogFormat = "xml" }},
		}

		for _, tc := range cases {
			convey.Convey("When "+tc.name, func() {
				tc.mutate()
				err := cfg.Validate()

				convey.Convey("Then validation fails with ErrInvalidConfig", func() {
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}

		convey.Convey("When weights are invalid", func() {
			cfg.Weights[scoring.FactorTeamMomentum] = 0.5

			convey.Convey("Then the scoring cause is kept", func() {
				convey.So(errors.Is(cfg.Validate(), scoring.ErrInvalidWeights), convey.ShouldBeTrue)
			})
		})
	})
}
