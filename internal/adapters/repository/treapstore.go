package repository

import (
	"context"
	"math"
	mrand "math/rand/v2"
	"sync"
	"time"

	"github.com/okian/pickgrader/internal/domain/model"
	"github.com/okian/pickgrader/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: score DESC, then gameID ASC (deterministic).
// "less" means ranks earlier, so in-order traversal yields the board from
// best to worst. A second treap holds one node per distinct score; the
// position of a score in it is its dense rank minus one.

// scoreScale controls fixed-point scaling from float64. Grading scores stay
// well inside +/-1e6, so 1e12 keeps twelve decimals without overflow.
const scoreScale = 1_000_000_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	scaled := math.Round(x * scoreScale)
	switch {
	case scaled >= math.MaxInt64:
		return scoreFP(math.MaxInt64)
	case scaled <= math.MinInt64:
		return scoreFP(math.MinInt64)
	}
	return scoreFP(scaled)
}

// record is a game's current best.
type record struct {
	score scoreFP
	pick  model.GradedPick
}

// treap node
type node struct {
	id    string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) should appear before (bScore, bID)
// on the board (higher scores first).
func less(aScore scoreFP, aID string, bScore scoreFP, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score scoreFP, prio uint64) *node {
	if n == nil {
		return &node{id: id, score: score, prio: prio, size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// countBefore returns how many nodes rank strictly before (score, id).
func countBefore(n *node, id string, score scoreFP) int {
	count := 0
	for n != nil {
		if less(n.score, n.id, score, id) {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit records in board order.
func collectTopN(n *node, limit int, records map[string]record, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, records, out)
	if len(*out) < limit {
		if rec, ok := records[n.id]; ok {
			*out = append(*out, Entry{GameID: n.id, Score: rec.pick.Result.Score, Pick: rec.pick})
		}
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, records, out)
	}
}

// TreapStore keeps the board in a treap with subtree sizes.
type TreapStore struct {
	mu     sync.RWMutex
	root   *node
	scores *node           // one node per distinct score, id ""
	counts map[scoreFP]int // games per distinct score
	byID   map[string]record
	rng    *mrand.Rand
	seed   uint64
}

// NewTreapStore constructs a treap store with configuration options.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		byID:   make(map[string]record),
		counts: make(map[scoreFP]int),
		seed:   uint64(time.Now().UnixNano()), //nolint:gosec // priorities need no crypto strength
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rng = mrand.New(mrand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15))
	metrics.UpdateBoardGames(0)
	return s
}

// UpdateBest implements Store with O(log n) expected time. Picks for a game
// are compared by headline Result.Score whichever path produced it; both
// paths score on the same 0 to 100 grading scale, the same one TopN ranks by.
func (s *TreapStore) UpdateBest(_ context.Context, gp model.GradedPick) (bool, error) {
	gameID := gp.Pick.GameID
	if gameID == "" {
		return false, ErrMissingGameID
	}
	score := gp.Result.Score
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return false, ErrInvalidScore
	}
	ns := toFixedPoint(score)

	s.mu.Lock()
	old, exists := s.byID[gameID]
	if exists {
		if ns <= old.score {
			s.mu.Unlock()
			return false, nil
		}
		s.root = deleteNode(s.root, gameID, old.score)
		s.releaseScore(old.score)
	}
	s.byID[gameID] = record{score: ns, pick: gp}
	s.root = insert(s.root, gameID, ns, s.rng.Uint64())
	s.retainScore(ns)
	games := len(s.byID)
	s.mu.Unlock()

	if !exists {
		metrics.UpdateBoardGames(games)
	}
	return true, nil
}

// retainScore must be called with s.mu held.
func (s *TreapStore) retainScore(score scoreFP) {
	if s.counts[score] == 0 {
		s.scores = insert(s.scores, "", score, s.rng.Uint64())
	}
	s.counts[score]++
}

// releaseScore must be called with s.mu held.
func (s *TreapStore) releaseScore(score scoreFP) {
	s.counts[score]--
	if s.counts[score] <= 0 {
		delete(s.counts, score)
		s.scores = deleteNode(s.scores, "", score)
	}
}

// denseRank must be called with s.mu held.
func (s *TreapStore) denseRank(score scoreFP) int {
	return countBefore(s.scores, "", score) + 1
}

// Rank returns the dense rank and best pick for a game in O(log n).
func (s *TreapStore) Rank(_ context.Context, gameID string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[gameID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, ErrNotFound
	}
	return Entry{
		Rank:   s.denseRank(rec.score),
		GameID: gameID,
		Score:  rec.pick.Result.Score,
		Pick:   rec.pick,
	}, nil
}

// Position returns how many games rank strictly ahead of gameID.
func (s *TreapStore) Position(_ context.Context, gameID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[gameID]
	if !ok {
		return 0, ErrNotFound
	}
	return countBefore(s.root, gameID, rec.score), nil
}

// TopN returns the top N entries ordered by score desc with dense ranks.
func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, s.byID, &out)

	rank := 0
	var prev scoreFP
	for i := range out {
		cur := s.byID[out[i].GameID].score
		if i == 0 || cur != prev {
			rank++
			prev = cur
		}
		out[i].Rank = rank
	}
	return out, nil
}

// Count returns the number of games on the board.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
