package pickload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/okian/pickgrader/pkg/logger"
)

const (
	directoryPermission = 0o750
	settlePollInterval  = 100 * time.Millisecond
	maxGameLookups      = 20
)

// Run executes a complete load run and writes a summary to out.
func Run(ctx context.Context, cfg *Config, out io.Writer) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Get().Named("pickload")
	start := time.Now()
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting pick load run",
		logger.String("base_url", cfg.BaseURL),
		logger.Int("picks", cfg.NumPicks),
		logger.Int("games", cfg.NumGames),
		logger.Int("workers", cfg.Workers),
		logger.Int64("seed", cfg.Seed),
	)

	if err := client.Health(ctx); err != nil {
		return nil, err
	}

	before, err := client.Stats(ctx)
	if err != nil {
		return nil, err
	}

	picks, err := NewGenerator(cfg.Seed, cfg.NumGames, cfg.FactorShare, start).Generate(cfg.NumPicks)
	if err != nil {
		return nil, err
	}
	stats := &Stats{Generated: len(picks)}

	if cfg.OutputFile != "" {
		if err := savePicks(cfg.OutputFile, picks); err != nil {
			log.Warn(ctx, "failed to save picks", logger.Error(err))
		}
	}

	if err := submit(ctx, client, cfg.Workers, picks, stats, log); err != nil {
		return nil, err
	}

	stats.Graded = settle(ctx, client, before.Graded+before.Failed, stats.Accepted, cfg.SettleWait)

	board, err := client.Board(ctx, cfg.TopN)
	if err != nil {
		return nil, err
	}
	stats.BoardEntries = len(board)
	if st, err := client.Stats(ctx); err == nil {
		stats.BoardGames = st.Games
	}

	lookups, err := lookupGames(ctx, client, cfg.Workers, board)
	if err != nil {
		return nil, err
	}
	stats.GamesChecked = len(lookups)

	stats.Duration = time.Since(start)
	if secs := stats.Duration.Seconds(); secs > 0 {
		stats.PicksPerSec = float64(stats.Accepted) / secs
	}

	submitted := make(map[string]struct{}, cfg.NumGames)
	for _, p := range picks {
		submitted[p.GameID] = struct{}{}
	}
	verr := VerifyBoard(board)
	if verr == nil {
		verr = VerifyGames(board, lookups, submitted)
	}

	if err := WriteSummary(out, cfg.Format, stats); err != nil {
		return stats, err
	}
	if verr != nil {
		return stats, verr
	}
	log.Info(ctx, "load run passed", logger.Duration("duration", stats.Duration))
	return stats, nil
}

// submit posts picks with at most workers requests in flight.
func submit(ctx context.Context, client *Client, workers int, picks []Pick, stats *Stats, log logger.Logger) error {
	var accepted, duplicate, rejected, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range picks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outcome, err := client.Submit(gctx, picks[i])
			switch outcome {
			case OutcomeAccepted:
				accepted.Add(1)
			case OutcomeDuplicate:
				duplicate.Add(1)
			case OutcomeRejected:
				rejected.Add(1)
				log.Debug(gctx, "pick rejected", logger.String("pick_id", picks[i].PickID), logger.Error(err))
			default:
				failed.Add(1)
				log.Debug(gctx, "pick submission failed", logger.String("pick_id", picks[i].PickID), logger.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	stats.Accepted = accepted.Load()
	stats.Duplicate = duplicate.Load()
	stats.Rejected = rejected.Load()
	stats.Failed = failed.Load()
	log.Info(ctx, "submission completed",
		logger.Int64("accepted", stats.Accepted),
		logger.Int64("duplicate", stats.Duplicate),
		logger.Int64("rejected", stats.Rejected),
		logger.Int64("failed", stats.Failed),
	)
	return ctx.Err()
}

// settle polls /stats until the service has processed want picks past base,
// or wait elapses. It returns how many were processed.
func settle(ctx context.Context, client *Client, base, want int64, wait time.Duration) int64 {
	deadline := time.Now().Add(wait)
	var done int64
	for {
		if st, err := client.Stats(ctx); err == nil {
			done = st.Graded + st.Failed - base
			if done >= want {
				return done
			}
		}
		if time.Now().After(deadline) || ctx.Err() != nil {
			return done
		}
		select {
		case <-ctx.Done():
			return done
		case <-time.After(settlePollInterval):
		}
	}
}

// lookupGames fetches /board/{game} for the first board entries concurrently.
func lookupGames(ctx context.Context, client *Client, workers int, board []Entry) (map[string]Entry, error) {
	n := min(len(board), maxGameLookups)
	var mu sync.Mutex
	out := make(map[string]Entry, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, e := range board[:n] {
		g.Go(func() error {
			got, err := client.Game(gctx, e.GameID)
			if err != nil {
				return err
			}
			mu.Lock()
			out[e.GameID] = got
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// WriteSummary renders stats as JSON or YAML.
func WriteSummary(w io.Writer, format string, stats *Stats) error {
	if format == FormatYAML {
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(stats)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

func savePicks(path string, picks []Pick) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	b, err := json.MarshalIndent(picks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal picks: %w", err)
	}
	return os.WriteFile(path, b, 0o600)
}
