// Package service wires the grading pipeline together and implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/pickgrader/internal/adapters/archive"
	"github.com/okian/pickgrader/internal/adapters/cache"
	pickqueue "github.com/okian/pickgrader/internal/adapters/mq/queue"
	workerpool "github.com/okian/pickgrader/internal/adapters/mq/worker"
	"github.com/okian/pickgrader/internal/adapters/quota"
	"github.com/okian/pickgrader/internal/adapters/repository"
	"github.com/okian/pickgrader/internal/domain/dedupe"
	"github.com/okian/pickgrader/internal/domain/model"
	"github.com/okian/pickgrader/internal/domain/scoring"
	"github.com/okian/pickgrader/internal/domain/types"
	"github.com/okian/pickgrader/pkg/logger"
	"github.com/okian/pickgrader/pkg/metrics"
)

const (
	defaultQueueSize       = 100000
	defaultDedupeSize      = 500000
	defaultMaxBatchSize    = 500
	defaultShutdownTimeout = 10 * time.Second
)

// SubmitStatus describes what happened to a submitted pick.
type SubmitStatus struct {
	PickID    string
	Duplicate bool
}

// BatchItem is one entry of a GradeBatch response. Exactly one of Result and Err is set.
type BatchItem struct {
	Result *scoring.Result
	Err    error
}

// Stats is a point-in-time view of the service.
type Stats struct {
	Started        bool  `json:"started"`
	Workers        int   `json:"workers"`
	ActiveWorkers  int   `json:"active_workers"`
	QueueLength    int   `json:"queue_length"`
	QueueCapacity  int   `json:"queue_capacity"`
	DedupeSize     int64 `json:"dedupe_size"`
	Graded         int64 `json:"graded"`
	Failed         int64 `json:"failed"`
	Games          int   `json:"games"`
	QuotaRemaining int   `json:"quota_remaining"`
	CacheEntries   int   `json:"cache_entries"`
	ArchiveEnabled bool  `json:"archive_enabled"`
}

// Service implements the API dependencies for the pick grader.
type Service struct {
	mu sync.RWMutex

	// Core components
	board   *repository.TreapStore
	deduper dedupe.Deduper
	queue   *pickqueue.InMemoryQueue
	engine  *scoring.Engine
	pool    *workerpool.Pool
	budget  *quota.DailyBudget
	results *cache.TTL[string, scoring.Result]
	archive archive.Archive

	// Configuration
	workerCount     int
	queueSize       int
	dedupeSize      int
	maxBatchSize    int
	weights         scoring.Weights
	jitterSeed      int64
	jitterAmplitude float64
	dailyBudget     int
	cacheTTL        time.Duration
	archivePath     string
	shutdownTimeout time.Duration
	now             func() time.Time

	// State
	started     bool
	ownsArchive bool
	cancel      context.CancelFunc

	logger logger.Logger
}

// New constructs a Service. Nothing runs until Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU() * 2,
		queueSize:       defaultQueueSize,
		dedupeSize:      defaultDedupeSize,
		maxBatchSize:    defaultMaxBatchSize,
		weights:         scoring.DefaultWeights(),
		shutdownTimeout: defaultShutdownTimeout,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) jitter() scoring.JitterSource {
	switch {
	case s.jitterAmplitude <= 0:
		return scoring.NoJitter{}
	case s.jitterSeed == 0:
		return scoring.NewRandomJitter(s.jitterAmplitude)
	default:
		return scoring.NewSeededJitter(s.jitterSeed, s.jitterAmplitude)
	}
}

// Start builds the components and starts the worker pool. Workers outlive
// ctx cancellation; Stop drains and stops them.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting pick grader service...")

	engine, err := scoring.NewEngine(
		scoring.WithWeights(s.weights),
		scoring.WithJitter(s.jitter()),
	)
	if err != nil {
		return fmt.Errorf("build scoring engine: %w", err)
	}

	if s.archive == nil && s.archivePath != "" {
		a, err := archive.Open(ctx, s.archivePath)
		if err != nil {
			return err
		}
		s.archive, s.ownsArchive = a, true
		s.logger.Info(ctx, "archive opened", logger.String("path", s.archivePath))
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.engine = engine
	s.board = repository.NewTreapStore()
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = pickqueue.NewInMemoryQueue(pickqueue.WithCapacity(s.queueSize))
	s.budget = quota.NewDailyBudget(s.dailyBudget, quota.WithClock(s.now))
	s.results = cache.New[string, scoring.Result](s.cacheTTL, cache.WithClock[string, scoring.Result](s.now))
	s.results.StartSweeper(runCtx, s.cacheTTL)

	workerOpts := []workerpool.Option{workerpool.WithClock(s.now)}
	if s.archive != nil {
		workerOpts = append(workerOpts, workerpool.WithArchive(s.archive))
	}
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.engine, s.board,
		workerpool.WithWorkerOptions(workerOpts...),
		workerpool.WithShutdownTimeout(s.shutdownTimeout),
	)
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "pick grader service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Int("daily_budget", s.dailyBudget),
		logger.Duration("cache_ttl", s.cacheTTL),
		logger.Bool("archive", s.archive != nil),
	)
	return nil
}

// Stop closes the queue, waits for workers to drain it and releases the archive.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping pick grader service...")

	err := s.pool.Shutdown(ctx)
	s.cancel()

	if s.ownsArchive {
		if cerr := s.archive.Close(); cerr != nil {
			s.logger.Error(ctx, "error closing archive", logger.Error(cerr))
		}
		s.archive, s.ownsArchive = nil, false
	}

	s.started = false
	s.logger.Info(ctx, "pick grader service stopped")
	return err
}

func recordInvalid(err error) {
	if kind := scoring.Kind(err); kind != "" {
		metrics.RecordInvalidInput(kind)
	}
}

// Submit validates a pick and queues it for asynchronous grading. A pick
// without an id gets a random one. Resubmitting a known id is reported as a
// duplicate and not queued again.
func (s *Service) Submit(ctx context.Context, p model.Pick) (SubmitStatus, error) { //nolint:gocritic // hugeParam: Pick is copied into the queue
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return SubmitStatus{}, ErrNotStarted
	}
	if p.GameID == "" {
		return SubmitStatus{}, ErrMissingGameID
	}
	if err := p.ScoringInput().Validate(); err != nil {
		recordInvalid(err)
		return SubmitStatus{}, err
	}
	if p.PickID == "" {
		p.PickID = uuid.NewString()
	}
	if p.TS.IsZero() {
		p.TS = s.now()
	}
	metrics.RecordPickReceived()

	if s.deduper.SeenAndRecord(ctx, p.PickID) {
		metrics.RecordPickDuplicate()
		s.logger.Debug(ctx, "duplicate pick", logger.String("pick_id", p.PickID))
		return SubmitStatus{PickID: p.PickID, Duplicate: true}, nil
	}

	if !s.queue.Enqueue(ctx, p) {
		// Let the client retry the same id.
		s.deduper.Unrecord(ctx, p.PickID)
		return SubmitStatus{PickID: p.PickID}, ErrBackpressure
	}
	return SubmitStatus{PickID: p.PickID}, nil
}

// Grade scores a pick synchronously. Results are cached by input; only cache
// misses consume the daily budget.
func (s *Service) Grade(ctx context.Context, p model.Pick) (scoring.Result, error) { //nolint:gocritic // hugeParam: read-only copy
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return scoring.Result{}, ErrNotStarted
	}

	in := p.ScoringInput()
	if err := in.Validate(); err != nil {
		recordInvalid(err)
		return scoring.Result{}, err
	}
	key, cached, ok := s.lookup(in)
	if ok {
		return cached, nil
	}
	if err := s.budget.Consume(ctx, 1); err != nil {
		return scoring.Result{}, err
	}
	return s.score(ctx, key, in)
}

// GradeBatch grades picks concurrently. Input errors are reported per item;
// the call itself fails on an empty or oversized batch or when the budget
// cannot cover every uncached pick.
func (s *Service) GradeBatch(ctx context.Context, picks []model.Pick) ([]BatchItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return nil, ErrNotStarted
	}
	if len(picks) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(picks) > s.maxBatchSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(picks), s.maxBatchSize)
	}

	items := make([]BatchItem, len(picks))
	inputs := make([]scoring.Input, len(picks))
	keys := make([]string, len(picks))
	var misses []int
	for i := range picks {
		in := picks[i].ScoringInput()
		if err := in.Validate(); err != nil {
			recordInvalid(err)
			items[i].Err = err
			continue
		}
		key, cached, ok := s.lookup(in)
		if ok {
			items[i].Result = &cached
			continue
		}
		inputs[i], keys[i] = in, key
		misses = append(misses, i)
	}

	if err := s.budget.Consume(ctx, len(misses)); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.pool.Size())
	for _, i := range misses {
		g.Go(func() error {
			res, err := s.score(gctx, keys[i], inputs[i])
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				items[i].Err = err
				return nil
			}
			items[i].Result = &res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// lookup returns the cache key for in and any live cached result.
func (s *Service) lookup(in scoring.Input) (string, scoring.Result, bool) {
	if !s.results.Enabled() {
		return "", scoring.Result{}, false
	}
	key, err := cache.Fingerprint(in)
	if err != nil {
		return "", scoring.Result{}, false
	}
	if res, ok := s.results.Get(key); ok {
		metrics.RecordCacheHit()
		return key, res, true
	}
	metrics.RecordCacheMiss()
	return key, scoring.Result{}, false
}

func (s *Service) score(ctx context.Context, key string, in scoring.Input) (scoring.Result, error) {
	start := time.Now()
	res, err := s.engine.Score(ctx, in)
	metrics.RecordGradingLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		recordInvalid(err)
		return scoring.Result{}, err
	}
	metrics.RecordPickGraded(res.Grade.String(), string(res.Source))
	if res.Market != nil {
		metrics.RecordEdgePercent(res.Market.EdgePercent)
	}
	if key != "" {
		s.results.Set(key, res)
	}
	return res, nil
}

func toEntry(e repository.Entry) types.Entry {
	return types.Entry{
		Rank:   e.Rank,
		GameID: e.GameID,
		PickID: e.Pick.Pick.PickID,
		Score:  e.Score,
		Grade:  e.Pick.Result.Grade.String(),
	}
}

// TopN returns the n best games with their recommended picks.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return nil, ErrNotStarted
	}
	entries, err := s.board.TopN(ctx, n)
	if err != nil {
		return nil, err
	}
	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = toEntry(e)
	}
	return out, nil
}

// Recommendation returns the board entry for a game.
func (s *Service) Recommendation(ctx context.Context, gameID string) (types.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return types.Entry{}, ErrNotStarted
	}
	e, err := s.board.Rank(ctx, gameID)
	if err != nil {
		return types.Entry{}, err
	}
	return toEntry(e), nil
}

// Recent returns the most recently graded picks from the archive.
func (s *Service) Recent(ctx context.Context, limit int) ([]model.GradedPick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	return s.archive.Recent(ctx, limit)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Started: s.started, ArchiveEnabled: s.archive != nil}
	if !s.started {
		return st
	}

	st.Workers = s.pool.Size()
	st.ActiveWorkers = s.pool.Active()
	st.QueueLength = s.queue.Len(ctx)
	st.QueueCapacity = s.queue.Capacity()
	st.DedupeSize = s.deduper.Size()
	st.Graded = s.pool.Processed()
	st.Failed = s.pool.Failed()
	st.Games = s.board.Count(ctx)
	st.QuotaRemaining = s.budget.Remaining(ctx)
	st.CacheEntries = s.results.Len()

	metrics.UpdateBoardGames(st.Games)
	metrics.UpdateWorkerCount(st.Workers)
	return st
}
