package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"testing"

	"github.com/okian/pickgrader/internal/domain/grade"
	"github.com/okian/pickgrader/internal/domain/model"
	"github.com/okian/pickgrader/internal/domain/scoring"
)

func graded(gameID, pickID string, score float64) model.GradedPick {
	return model.GradedPick{
		Pick:   model.Pick{PickID: pickID, GameID: gameID},
		Result: scoring.Result{Key: pickID, Score: score, Grade: grade.CompositeTable.Classify(score), Source: scoring.SourceComposite},
	}
}

func TestTreapStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(WithSeed(1))

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	updated, err := store.UpdateBest(ctx, graded("g1", "p1", 85.5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated {
		t.Error("expected update to succeed")
	}
	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	entry, err := store.Rank(ctx, "g1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Rank != 1 || entry.Score != 85.5 || entry.Pick.Pick.PickID != "p1" {
		t.Errorf("unexpected entry %+v", entry)
	}

	entries, err := store.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].GameID != "g1" {
		t.Errorf("unexpected top entries %+v", entries)
	}
}

func TestTreapStore_KeepsBestPickPerGame(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(WithSeed(2))

	mustUpdate := func(gp model.GradedPick, want bool) {
		t.Helper()
		got, err := store.UpdateBest(ctx, gp)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("UpdateBest(%s, %v) = %v, want %v", gp.Pick.PickID, gp.Result.Score, got, want)
		}
	}

	mustUpdate(graded("g1", "p1", 50), true)
	mustUpdate(graded("g1", "p2", 40), false)
	mustUpdate(graded("g1", "p3", 50), false)
	mustUpdate(graded("g1", "p4", 60), true)

	entry, err := store.Rank(ctx, "g1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Pick.Pick.PickID != "p4" || entry.Score != 60 {
		t.Errorf("expected p4 at 60, got %+v", entry)
	}
	if store.Count(ctx) != 1 {
		t.Errorf("expected one game, got %d", store.Count(ctx))
	}
}

func TestTreapStore_DenseRanks(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(WithSeed(3))

	for _, gp := range []model.GradedPick{
		graded("g-c", "p1", 90),
		graded("g-a", "p2", 90),
		graded("g-b", "p3", 80),
		graded("g-d", "p4", 70),
		graded("g-e", "p5", 70),
		graded("g-f", "p6", 60),
	} {
		if _, err := store.UpdateBest(ctx, gp); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	entries, err := store.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantIDs := []string{"g-a", "g-c", "g-b", "g-d", "g-e", "g-f"}
	wantRanks := []int{1, 1, 2, 3, 3, 4}
	for i, e := range entries {
		if e.GameID != wantIDs[i] || e.Rank != wantRanks[i] {
			t.Errorf("entry %d = (%s, %d), want (%s, %d)", i, e.GameID, e.Rank, wantIDs[i], wantRanks[i])
		}
	}

	for i, id := range wantIDs {
		e, err := store.Rank(ctx, id)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.Rank != wantRanks[i] {
			t.Errorf("Rank(%s) = %d, want %d", id, e.Rank, wantRanks[i])
		}
		pos, err := store.Position(ctx, id)
		if err != nil || pos != i {
			t.Errorf("Position(%s) = %d, %v; want %d", id, pos, err, i)
		}
	}

	// Moving g-b up to 90 collapses the 80 tier.
	if _, err := store.UpdateBest(ctx, graded("g-b", "p7", 90)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e, _ := store.Rank(ctx, "g-d"); e.Rank != 2 {
		t.Errorf("expected g-d to move to rank 2, got %d", e.Rank)
	}
	if e, _ := store.Rank(ctx, "g-b"); e.Rank != 1 {
		t.Errorf("expected g-b at rank 1, got %d", e.Rank)
	}
}

func TestTreapStore_Errors(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	if _, err := store.Rank(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Position(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	for _, n := range []int{0, -1} {
		if _, err := store.TopN(ctx, n); !errors.Is(err, ErrInvalidLimit) {
			t.Errorf("TopN(%d): expected ErrInvalidLimit, got %v", n, err)
		}
	}
	if _, err := store.UpdateBest(ctx, graded("", "p1", 50)); !errors.Is(err, ErrMissingGameID) {
		t.Errorf("expected ErrMissingGameID, got %v", err)
	}
	if _, err := store.UpdateBest(ctx, graded("g1", "p1", math.NaN())); !errors.Is(err, ErrInvalidScore) {
		t.Errorf("expected ErrInvalidScore, got %v", err)
	}
	if entries, err := store.TopN(ctx, 5); err != nil || len(entries) != 0 {
		t.Errorf("expected empty board, got %v, %v", entries, err)
	}
}

func TestTreapStore_MatchesSortedReference(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(WithSeed(4))
	rng := rand.New(rand.NewSource(7))

	best := map[string]float64{}
	for i := 0; i < 5000; i++ {
		game := fmt.Sprintf("g%03d", rng.Intn(400))
		score := float64(rng.Intn(200)) / 2 // coarse scores force ties
		if _, err := store.UpdateBest(ctx, graded(game, fmt.Sprintf("p%d", i), score)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cur, ok := best[game]; !ok || score > cur {
			best[game] = score
		}
	}

	type row struct {
		id    string
		score float64
	}
	ref := make([]row, 0, len(best))
	for id, s := range best {
		ref = append(ref, row{id, s})
	}
	sort.Slice(ref, func(i, j int) bool {
		if ref[i].score != ref[j].score {
			return ref[i].score > ref[j].score
		}
		return ref[i].id < ref[j].id
	})

	entries, err := store.TopN(ctx, len(ref)+10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != len(ref) {
		t.Fatalf("expected %d entries, got %d", len(ref), len(entries))
	}
	rank := 0
	for i, e := range entries {
		if i == 0 || ref[i].score != ref[i-1].score {
			rank++
		}
		if e.GameID != ref[i].id || e.Score != ref[i].score || e.Rank != rank {
			t.Fatalf("entry %d = %+v, want (%s, %v, rank %d)", i, e, ref[i].id, ref[i].score, rank)
		}
		r, err := store.Rank(ctx, e.GameID)
		if err != nil || r.Rank != rank {
			t.Fatalf("Rank(%s) = %d, %v; want %d", e.GameID, r.Rank, err, rank)
		}
	}
}

func TestTreapStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()
	const goroutines = 8
	const perGoroutine = 500

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				game := fmt.Sprintf("g%d", i%100)
				_, _ = store.UpdateBest(ctx, graded(game, fmt.Sprintf("p%d-%d", g, i), float64(g*perGoroutine+i)/100))
				if i%50 == 0 {
					_, _ = store.TopN(ctx, 10)
					_, _ = store.Rank(ctx, game)
				}
			}
		}(g)
	}
	wg.Wait()

	if store.Count(ctx) != 100 {
		t.Errorf("expected 100 games, got %d", store.Count(ctx))
	}
	entries, err := store.TopN(ctx, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Score > entries[i-1].Score {
			t.Fatalf("board out of order at %d", i)
		}
	}
}

func TestTreapStore_MixedSources(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(WithSeed(3))

	composite := graded("g1", "p-composite", 70)
	market := graded("g1", "p-market", 75)
	market.Result.Source = scoring.SourceMarket
	market.Result.Grade = grade.MarketTable.Classify(75)

	if _, err := store.UpdateBest(ctx, composite); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	updated, err := store.UpdateBest(ctx, market)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated {
		t.Fatal("expected the higher market score to replace the composite pick")
	}

	lower := graded("g1", "p-composite-2", 72)
	if updated, _ := store.UpdateBest(ctx, lower); updated {
		t.Error("expected a lower composite score not to replace the market pick")
	}

	entry, err := store.Rank(ctx, "g1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Pick.Pick.PickID != "p-market" || entry.Pick.Result.Source != scoring.SourceMarket {
		t.Errorf("unexpected best pick %+v", entry.Pick)
	}
}
