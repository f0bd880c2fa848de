// Package worker grades queued picks and publishes the results.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/pickgrader/internal/domain/model"
	"github.com/okian/pickgrader/internal/domain/scoring"
	"github.com/okian/pickgrader/pkg/logger"
	"github.com/okian/pickgrader/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// Pick abstracts what workers read off the queue.
type Pick = model.Pick

// Updater keeps the best graded pick per game.
type Updater interface {
	UpdateBest(ctx context.Context, gp model.GradedPick) (bool, error)
}

// Archiver stores graded picks.
type Archiver interface {
	Save(ctx context.Context, gp model.GradedPick) error
}

// Queue defines how workers receive picks.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Pick
}

// Worker processes picks and writes graded results using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker without draining.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for grading picks.
type InMemoryWorker struct {
	queue   Queue
	scorer  scoring.Scorer
	updater Updater
	archive Archiver
	name    string
	now     func() time.Time

	// counters shared with the owning pool; nil for standalone workers
	stats *poolStats

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, scorer scoring.Scorer, updater Updater, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		scorer:   scorer,
		updater:  updater,
		name:     "worker",
		now:      time.Now,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	picks := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case p, ok := <-picks:
			if !ok {
				return
			}
			if err := w.processPick(ctx, p); err != nil {
				w.logger.Debug(ctx, "pick not graded", logger.String("pick_id", p.PickID), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker and waits for the loop to exit.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processPick grades a single pick, updates the board and archives it.
func (w *InMemoryWorker) processPick(ctx context.Context, p Pick) error { //nolint:gocritic // hugeParam: Pick is passed by value for channel semantics
	start := time.Now()
	w.stats.active(1)
	defer func() {
		w.stats.active(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	res, err := w.scorer.Score(ctx, p.ScoringInput())
	metrics.RecordGradingLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		w.stats.fail()
		metrics.RecordWorkerError()
		if kind := scoring.Kind(err); kind != "" {
			metrics.RecordInvalidInput(kind)
			metrics.RecordErrorByComponent("worker", kind)
		} else {
			metrics.RecordErrorByComponent("worker", "scoring_error")
		}
		return fmt.Errorf("score pick %s: %w", p.PickID, err)
	}

	gp := model.GradedPick{Pick: p, Result: res, GradedAt: w.now()}
	metrics.RecordPickGraded(res.Grade.String(), string(res.Source))
	if res.Market != nil {
		metrics.RecordEdgePercent(res.Market.EdgePercent)
	}

	updated, err := w.updater.UpdateBest(ctx, gp)
	if err != nil {
		w.stats.fail()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "board_error")
		w.logger.Error(ctx, "board update failed", logger.String("pick_id", p.PickID), logger.Error(err))
		return fmt.Errorf("board update for pick %s: %w", p.PickID, err)
	}
	if updated {
		metrics.RecordBoardUpdate()
	}

	if w.archive != nil {
		if err := w.archive.Save(ctx, gp); err != nil {
			metrics.RecordArchiveWrite("error")
			metrics.RecordErrorByComponent("worker", "archive_error")
			w.logger.Warn(ctx, "archive write failed", logger.String("pick_id", p.PickID), logger.Error(err))
		} else {
			metrics.RecordArchiveWrite("ok")
		}
	}

	w.stats.graded()
	return nil
}

// poolStats holds counters shared by a pool's workers. Methods tolerate a nil receiver.
type poolStats struct {
	processed atomic.Int64
	failed    atomic.Int64
	busy      atomic.Int64
	size      int
}

func (s *poolStats) graded() {
	if s != nil {
		s.processed.Add(1)
	}
}

func (s *poolStats) fail() {
	if s != nil {
		s.failed.Add(1)
	}
}

func (s *poolStats) active(delta int64) {
	if s == nil {
		return
	}
	busy := int(s.busy.Add(delta))
	metrics.UpdateWorkerActiveCount(busy)
	metrics.UpdateWorkerIdleCount(s.size - busy)
}

// Pool manages multiple workers.
type Pool struct {
	workers         []*InMemoryWorker
	workerOpts      []Option
	queue           Queue
	stats           *poolStats
	shutdownTimeout time.Duration

	logger logger.Logger
}

// NewPool creates a new worker pool. workerCount < 1 picks a CPU-based default.
func NewPool(workerCount int, queue Queue, scorer scoring.Scorer, updater Updater, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:         make([]*InMemoryWorker, workerCount),
		queue:           queue,
		stats:           &poolStats{size: workerCount},
		shutdownTimeout: poolShutdownTimeout,
		logger:          logger.Get().Named("worker-pool"),
	}
	for _, opt := range opts {
		opt(pool)
	}

	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, pool.workerOpts...)
		w := NewInMemoryWorker(queue, scorer, updater, wopts...)
		w.stats = pool.stats
		pool.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	metrics.UpdateWorkerIdleCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of picks graded and published.
func (p *Pool) Processed() int64 { return p.stats.processed.Load() }

// Failed returns the number of picks that could not be graded or published.
func (p *Pool) Failed() int64 { return p.stats.failed.Load() }

// Active returns the number of workers currently grading.
func (p *Pool) Active() int { return int(p.stats.busy.Load()) }

// Shutdown closes the queue and lets workers drain it. Workers still running
// after the shutdown timeout (or ctx) are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	drainCtx, cancel := context.WithTimeout(ctx, p.shutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-drainCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			w.shutdownOnce.Do(func() { close(w.shutdown) })
		}
	}

	p.logger.Info(ctx, "worker pool stopped",
		logger.Int64("processed", p.Processed()),
		logger.Int64("failed", p.Failed()),
	)
	if timedOut {
		return fmt.Errorf("worker pool drain: %w", drainCtx.Err())
	}
	return nil
}
