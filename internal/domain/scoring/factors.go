package scoring

import (
	"fmt"
	"math"

	"github.com/okian/pickgrader/internal/domain/grade"
)

// Factor bounds. Values outside are rejected, not clamped.
const (
	MinFactor = 0.0
	MaxFactor = 100.0

	weightSumTolerance = 1e-9
)

// Factor names used in errors, config keys and JSON.
const (
	FactorOffensiveProduction = "offensive_production"
	FactorPitchingMatchup     = "pitching_matchup"
	FactorSituationalEdge     = "situational_edge"
	FactorTeamMomentum        = "team_momentum"
	FactorMarketInefficiency  = "market_inefficiency"
	FactorSystemConfidence    = "system_confidence"
)

// FactorNames lists the six factors in canonical order.
var FactorNames = []string{
	FactorOffensiveProduction,
	FactorPitchingMatchup,
	FactorSituationalEdge,
	FactorTeamMomentum,
	FactorMarketInefficiency,
	FactorSystemConfidence,
}

// FactorScores holds the six precomputed factor inputs, each in [0,100].
type FactorScores struct {
	OffensiveProduction float64 `json:"offensive_production"`
	PitchingMatchup     float64 `json:"pitching_matchup"`
	SituationalEdge     float64 `json:"situational_edge"`
	TeamMomentum        float64 `json:"team_momentum"`
	MarketInefficiency  float64 `json:"market_inefficiency"`
	SystemConfidence    float64 `json:"system_confidence"`
}

// Weights pairs one weight with each factor by name.
type Weights struct {
	OffensiveProduction float64 `json:"offensive_production"`
	PitchingMatchup     float64 `json:"pitching_matchup"`
	SituationalEdge     float64 `json:"situational_edge"`
	TeamMomentum        float64 `json:"team_momentum"`
	MarketInefficiency  float64 `json:"market_inefficiency"`
	SystemConfidence    float64 `json:"system_confidence"`
}

// DefaultWeights gives market inefficiency 25% and every other factor 15%.
func DefaultWeights() Weights {
	return Weights{
		OffensiveProduction: 0.15,
		PitchingMatchup:     0.15,
		SituationalEdge:     0.15,
		TeamMomentum:        0.15,
		MarketInefficiency:  0.25,
		SystemConfidence:    0.15,
	}
}

// fields returns (name, factor value) pairs; the single place that binds names to fields.
func (f FactorScores) fields() [6]namedValue {
	return [6]namedValue{
		{FactorOffensiveProduction, f.OffensiveProduction},
		{FactorPitchingMatchup, f.PitchingMatchup},
		{FactorSituationalEdge, f.SituationalEdge},
		{FactorTeamMomentum, f.TeamMomentum},
		{FactorMarketInefficiency, f.MarketInefficiency},
		{FactorSystemConfidence, f.SystemConfidence},
	}
}

func (w Weights) fields() [6]namedValue {
	return [6]namedValue{
		{FactorOffensiveProduction, w.OffensiveProduction},
		{FactorPitchingMatchup, w.PitchingMatchup},
		{FactorSituationalEdge, w.SituationalEdge},
		{FactorTeamMomentum, w.TeamMomentum},
		{FactorMarketInefficiency, w.MarketInefficiency},
		{FactorSystemConfidence, w.SystemConfidence},
	}
}

type namedValue struct {
	name  string
	value float64
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	var sum float64
	for _, nv := range w.fields() {
		sum += nv.value
	}
	return sum
}

// Validate requires finite, non-negative weights summing to 1.
func (w Weights) Validate() error {
	for _, nv := range w.fields() {
		if math.IsNaN(nv.value) || math.IsInf(nv.value, 0) || nv.value < 0 {
			return fmt.Errorf("%w: %s=%v", ErrInvalidWeights, nv.name, nv.value)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("%w: weights sum to %.6f, expected 1", ErrInvalidWeights, sum)
	}
	return nil
}

// WeightsFromMap builds Weights from factor-name keys. All six keys are
// required and unknown keys are rejected.
func WeightsFromMap(m map[string]float64) (Weights, error) {
	var w Weights
	seen := 0
	for name, v := range m {
		switch name {
		case FactorOffensiveProduction:
			w.OffensiveProduction = v
		case FactorPitchingMatchup:
			w.PitchingMatchup = v
		case FactorSituationalEdge:
			w.SituationalEdge = v
		case FactorTeamMomentum:
			w.TeamMomentum = v
		case FactorMarketInefficiency:
			w.MarketInefficiency = v
		case FactorSystemConfidence:
			w.SystemConfidence = v
		default:
			return Weights{}, fmt.Errorf("%w: unknown factor %q", ErrInvalidWeights, name)
		}
		seen++
	}
	if seen != len(FactorNames) {
		return Weights{}, fmt.Errorf("%w: expected %d factors, got %d", ErrInvalidWeights, len(FactorNames), seen)
	}
	return w, w.Validate()
}

// Map returns the weights keyed by factor name.
func (w Weights) Map() map[string]float64 {
	out := make(map[string]float64, len(FactorNames))
	for _, nv := range w.fields() {
		out[nv.name] = nv.value
	}
	return out
}

// Validate rejects non-finite factors and factors outside [MinFactor, MaxFactor].
func (f FactorScores) Validate() error {
	for _, nv := range f.fields() {
		if math.IsNaN(nv.value) || math.IsInf(nv.value, 0) {
			return &FactorError{Factor: nv.name, Value: nv.value, Reason: reasonNotFinite}
		}
		if nv.value < MinFactor || nv.value > MaxFactor {
			return &FactorError{Factor: nv.name, Value: nv.value, Reason: reasonOutOfRange}
		}
	}
	return nil
}

// PartialFactors is the wire shape of FactorScores where every field may be absent.
type PartialFactors struct {
	OffensiveProduction *float64 `json:"offensive_production"`
	PitchingMatchup     *float64 `json:"pitching_matchup"`
	SituationalEdge     *float64 `json:"situational_edge"`
	TeamMomentum        *float64 `json:"team_momentum"`
	MarketInefficiency  *float64 `json:"market_inefficiency"`
	SystemConfidence    *float64 `json:"system_confidence"`
}

// Resolve returns the complete, validated FactorScores or a FactorError naming
// the first absent or invalid factor.
func (p PartialFactors) Resolve() (FactorScores, error) {
	ptrs := [6]struct {
		name string
		v    *float64
	}{
		{FactorOffensiveProduction, p.OffensiveProduction},
		{FactorPitchingMatchup, p.PitchingMatchup},
		{FactorSituationalEdge, p.SituationalEdge},
		{FactorTeamMomentum, p.TeamMomentum},
		{FactorMarketInefficiency, p.MarketInefficiency},
		{FactorSystemConfidence, p.SystemConfidence},
	}
	for _, ptr := range ptrs {
		if ptr.v == nil {
			return FactorScores{}, &FactorError{Factor: ptr.name, Reason: reasonMissing}
		}
	}
	f := FactorScores{
		OffensiveProduction: *p.OffensiveProduction,
		PitchingMatchup:     *p.PitchingMatchup,
		SituationalEdge:     *p.SituationalEdge,
		TeamMomentum:        *p.TeamMomentum,
		MarketInefficiency:  *p.MarketInefficiency,
		SystemConfidence:    *p.SystemConfidence,
	}
	if err := f.Validate(); err != nil {
		return FactorScores{}, err
	}
	return f, nil
}

// scorePrecision is the resolution scores are snapped to before they are
// compared against a threshold.
const scorePrecision = 1e9

// snap rounds x to scorePrecision so that a value that sits on a threshold
// in exact arithmetic is not pushed below it by float rounding.
func snap(x float64) float64 {
	return math.Round(x*scorePrecision) / scorePrecision
}

// Composite returns the weighted sum of f under w, snapped to nine decimal
// places. It does not validate.
func Composite(f FactorScores, w Weights) float64 {
	fv, wv := f.fields(), w.fields()
	var sum float64
	for i := range fv {
		sum += fv[i].value * wv[i].value
	}
	return snap(sum)
}

// CompositeResult is the output of the factor path.
type CompositeResult struct {
	Score float64     `json:"score"`
	Grade grade.Grade `json:"grade"`
}

// GradeComposite validates f, computes the composite under w and classifies it
// with table.
func GradeComposite(f FactorScores, w Weights, table grade.Table) (CompositeResult, error) {
	if err := f.Validate(); err != nil {
		return CompositeResult{}, err
	}
	score := Composite(f, w)
	return CompositeResult{Score: score, Grade: table.Classify(score)}, nil
}
