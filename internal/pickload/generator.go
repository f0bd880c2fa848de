package pickload

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// Generation ranges.
const (
	factorMin      = 30.0
	factorSpan     = 65.0
	minOddsMag     = 100
	oddsSpan       = 200
	edgeSpread     = 0.08
	confidenceMin  = 0.5
	confidenceSpan = 0.5
)

var selections = [...]string{"home", "away", "over", "under"}

// Generator produces deterministic picks from a seed.
type Generator struct {
	rng     *rand.Rand
	ids     *rand.ChaCha8
	now     time.Time
	games   int
	factors float64
}

// NewGenerator returns a generator spreading picks over games. factorShare of
// the picks carry factor scores; the rest carry a market price.
func NewGenerator(seed int64, games int, factorShare float64, now time.Time) *Generator {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], uint64(seed)) //nolint:gosec // bit reinterpretation
	src := rand.NewChaCha8(key)
	binary.LittleEndian.PutUint64(key[8:], 1)
	return &Generator{
		rng:     rand.New(src),
		ids:     rand.NewChaCha8(key),
		now:     now.UTC(),
		games:   max(games, 1),
		factors: factorShare,
	}
}

// GameID returns the id of game i.
func GameID(i int) string {
	return fmt.Sprintf("game-%04d", i)
}

// Next returns the next pick.
func (g *Generator) Next() (Pick, error) {
	id, err := uuid.NewRandomFromReader(g.ids)
	if err != nil {
		return Pick{}, fmt.Errorf("generate pick id: %w", err)
	}
	p := Pick{
		PickID:    id.String(),
		GameID:    GameID(g.rng.IntN(g.games)),
		Market:    "moneyline",
		Selection: selections[g.rng.IntN(len(selections))],
		TS:        g.now.Format(time.RFC3339),
	}
	if g.rng.Float64() < g.factors {
		p.Factors = &Factors{
			OffensiveProduction: g.factor(),
			PitchingMatchup:     g.factor(),
			SituationalEdge:     g.factor(),
			TeamMomentum:        g.factor(),
			MarketInefficiency:  g.factor(),
			SystemConfidence:    g.factor(),
		}
		return p, nil
	}

	odds := minOddsMag + g.rng.IntN(oddsSpan)
	if g.rng.IntN(2) == 0 {
		odds = -odds
	}
	prob := clamp01(implied(odds) + (g.rng.Float64()*2-1)*edgeSpread)
	conf := confidenceMin + g.rng.Float64()*confidenceSpan
	p.Odds, p.ModelProbability, p.Confidence = &odds, &prob, &conf
	return p, nil
}

// Generate returns n picks.
func (g *Generator) Generate(n int) ([]Pick, error) {
	out := make([]Pick, n)
	for i := range out {
		p, err := g.Next()
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func (g *Generator) factor() float64 {
	return math.Round((factorMin+g.rng.Float64()*factorSpan)*10) / 10
}

func implied(odds int) float64 {
	if odds > 0 {
		return 100 / float64(odds+100)
	}
	return float64(-odds) / float64(-odds+100)
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
