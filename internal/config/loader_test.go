package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/pickgrader/internal/config"
	"github.com/okian/pickgrader/internal/domain/scoring"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	config.EnvConfigFile,
	"PICKGRADER_ADDR",
	"PICKGRADER_QUEUE_SIZE",
	"PICKGRADER_WORKER_COUNT",
	"PICKGRADER_DEDUPE_SIZE",
	"PICKGRADER_JITTER_SEED",
	"PICKGRADER_JITTER_AMPLITUDE",
	"PICKGRADER_DAILY_GRADE_BUDGET",
	"PICKGRADER_ARCHIVE_PATH",
	"PICKGRADER_CORS_ALLOWED_ORIGINS",
}

func clearConfigEnvVars() {
	for _, name := range configEnvVars {
		_ = os.Unsetenv(name)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it matches New", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New(ctx))
			})
		})

		convey.Convey("When loading with environment variables", func() {
			_ = os.Setenv("PICKGRADER_ADDR", ":8080")
			_ = os.Setenv("PICKGRADER_QUEUE_SIZE", "2048")
			_ = os.Setenv("PICKGRADER_WORKER_COUNT", "16")
			_ = os.Setenv("PICKGRADER_JITTER_SEED", "42")
			_ = os.Setenv("PICKGRADER_JITTER_AMPLITUDE", "1.5")
			_ = os.Setenv("PICKGRADER_DAILY_GRADE_BUDGET", "1000")
			_ = os.Setenv("PICKGRADER_CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env overrides defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 2048)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.JitterSeed, convey.ShouldEqual, 42)
				convey.So(cfg.JitterAmplitude, convey.ShouldEqual, 1.5)
				convey.So(cfg.DailyGradeBudget, convey.ShouldEqual, 1000)
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"https://a.example", "https://b.example"})
			})
		})

		convey.Convey("When loading from a YAML file and env together", func() {
			path := writeConfigFile(t, `
addr: ":9090"
queue_size: 300
worker_count: 24
archive_path: "/tmp/picks.db"
cors_allowed_origins:
  - "https://app.example"
weights:
  offensive_production: 0.1
  pitching_matchup: 0.2
  situational_edge: 0.1
  team_momentum: 0.1
  market_inefficiency: 0.4
  system_confidence: 0.1
`)
			_ = os.Setenv(config.EnvConfigFile, path)
			_ = os.Setenv("PICKGRADER_WORKER_COUNT", "32")

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values apply and env wins over the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
				convey.So(cfg.ArchivePath, convey.ShouldEqual, "/tmp/picks.db")
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"https://app.example"})
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 500_000)

				w, err := cfg.ScoringWeights()
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.MarketInefficiency, convey.ShouldEqual, 0.4)
				convey.So(w.PitchingMatchup, convey.ShouldEqual, 0.2)
			})
		})

		convey.Convey("When a list env value has blanks and empty items", func() {
			_ = os.Setenv("PICKGRADER_CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example,")

			cfg, err := config.Load(ctx)

			convey.Convey("Then each origin is trimmed and empties are dropped", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"https://a.example", "https://b.example"})
			})
		})

		convey.Convey("When env lists fewer origins than the file", func() {
			path := writeConfigFile(t, "cors_allowed_origins:\n  - https://x.example\n  - https://y.example\n  - https://z.example\n")
			_ = os.Setenv(config.EnvConfigFile, path)
			_ = os.Setenv("PICKGRADER_CORS_ALLOWED_ORIGINS", "https://only.example")

			cfg, err := config.Load(ctx)

			convey.Convey("Then the env list replaces the file list", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"https://only.example"})
			})
		})

		convey.Convey("When the file has weights that do not sum to one", func() {
			path := writeConfigFile(t, "weights:\n  market_inefficiency: 0.9\n")
			_ = os.Setenv(config.EnvConfigFile, path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation fails", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(errors.Is(err, scoring.ErrInvalidWeights), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the YAML file is invalid", func() {
			path := writeConfigFile(t, `invalid: yaml: content: [`)
			_ = os.Setenv(config.EnvConfigFile, path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it returns a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the file does not exist", func() {
			_ = os.Setenv(config.EnvConfigFile, "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it returns a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When addr is set to empty", func() {
			_ = os.Setenv("PICKGRADER_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it returns a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
			})
		})
	})
}
