// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - Validate reports problems wrapped with ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/okian/pickgrader/internal/domain/scoring"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory pick queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of grading workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the pick id deduplication window.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxBoardLimit caps GET /board?limit and GET /picks/recent?limit.
	MaxBoardLimit int `koanf:"max_board_limit"`

	// MaxBatchSize caps the number of picks in POST /grade/batch.
	MaxBatchSize int `koanf:"max_batch_size"`

	// Weights maps factor names to composite weights. File keys merge over
	// the defaults; the result must sum to 1.
	Weights map[string]float64 `koanf:"weights"`

	// JitterSeed seeds market jitter. 0 picks a random seed at startup.
	JitterSeed int64 `koanf:"jitter_seed"`

	// JitterAmplitude bounds market jitter in score points. 0 disables it.
	JitterAmplitude float64 `koanf:"jitter_amplitude"`

	// DailyGradeBudget limits synchronous grades per UTC day. 0 is unlimited.
	DailyGradeBudget int `koanf:"daily_grade_budget"`

	// CacheTTLMS keeps synchronous grade results for this long. 0 disables caching.
	CacheTTLMS int `koanf:"cache_ttl_ms"`

	// ArchivePath is the SQLite file for graded picks. Empty disables the archive.
	ArchivePath string `koanf:"archive_path"`

	// CORSAllowedOrigins lists browser origins allowed to call the API.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// ShutdownTimeoutMS bounds graceful shutdown.
	ShutdownTimeoutMS int `koanf:"shutdown_timeout_ms"`
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		QueueSize:          100_000,
		WorkerCount:        runtime.NumCPU() * 2,
		DedupeSize:         500_000,
		MaxBoardLimit:      100,
		MaxBatchSize:       500,
		Weights:            scoring.DefaultWeights().Map(),
		JitterSeed:         0,
		JitterAmplitude:    scoring.DefaultJitterAmplitude,
		DailyGradeBudget:   0,
		CacheTTLMS:         60_000,
		ArchivePath:        "",
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		ShutdownTimeoutMS:  10_000,
	}
}

// ScoringWeights converts the weights map into scoring.Weights.
func (c *Config) ScoringWeights() (scoring.Weights, error) {
	return scoring.WeightsFromMap(c.Weights)
}

// CacheTTL returns the grade cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMS) * time.Millisecond
}

// ShutdownTimeout returns the graceful shutdown bound.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	positive := []struct {
		name  string
		value int
	}{
		{"queue_size", c.QueueSize},
		{"worker_count", c.WorkerCount},
		{"max_board_limit", c.MaxBoardLimit},
		{"max_batch_size", c.MaxBatchSize},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, p.name, p.value)
		}
	}
	nonNegative := []struct {
		name  string
		value int
	}{
		{"dedupe_size", c.DedupeSize},
		{"daily_grade_budget", c.DailyGradeBudget},
		{"cache_ttl_ms", c.CacheTTLMS},
		{"shutdown_timeout_ms", c.ShutdownTimeoutMS},
	}
	for _, p := range nonNegative {
		if p.value < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %d", ErrInvalidConfig, p.name, p.value)
		}
	}
	if math.IsNaN(c.JitterAmplitude) || math.IsInf(c.JitterAmplitude, 0) || c.JitterAmplitude < 0 {
		return fmt.Errorf("%w: jitter_amplitude must be a finite non-negative number, got %v", ErrInvalidConfig, c.JitterAmplitude)
	}
	if _, err := c.ScoringWeights(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
