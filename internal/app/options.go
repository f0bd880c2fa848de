package service

import (
	"time"

	"github.com/okian/pickgrader/internal/adapters/archive"
	"github.com/okian/pickgrader/internal/domain/scoring"
	"github.com/okian/pickgrader/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued picks.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many pick ids are remembered for deduplication.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxBatchSize caps the number of picks accepted by GradeBatch.
func WithMaxBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.maxBatchSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWeights sets the composite factor weights.
func WithWeights(w scoring.Weights) Option {
	return func(s *Service) {
		s.weights = w
	}
}

// WithJitter enables market-score jitter. A zero seed draws a random one;
// amplitude <= 0 disables jitter.
func WithJitter(seed int64, amplitude float64) Option {
	return func(s *Service) {
		s.jitterSeed = seed
		s.jitterAmplitude = amplitude
	}
}

// WithDailyBudget limits synchronous grading calls per UTC day. 0 means unlimited.
func WithDailyBudget(limit int) Option {
	return func(s *Service) {
		s.dailyBudget = limit
	}
}

// WithCacheTTL sets how long synchronous grading results are cached. 0 disables the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.cacheTTL = ttl
	}
}

// WithArchivePath stores graded picks in the SQLite file at path.
func WithArchivePath(path string) Option {
	return func(s *Service) {
		s.archivePath = path
	}
}

// WithArchive uses an already opened archive. It takes precedence over WithArchivePath.
func WithArchive(a archive.Archive) Option {
	return func(s *Service) {
		s.archive = a
	}
}

// WithShutdownTimeout bounds how long Stop waits for queued picks to drain.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithClock overrides the clock used for grading timestamps and the daily budget.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
