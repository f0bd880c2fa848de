package scoring

import (
	"fmt"
	"math"

	"github.com/okian/pickgrader/internal/domain/grade"
)

// Market-edge constants.
const (
	// MaxEdge caps |model - implied| at ten percentage points.
	MaxEdge = 0.10

	neutralConfidence    = 0.75
	confidenceScale      = 10.0
	minAmericanMagnitude = 100
	percent              = 100.0
)

// edgeTier maps a signed edge percentage floor to a base score.
type edgeTier struct {
	minPct float64
	score  float64
}

var edgeTiers = []edgeTier{
	{6, 95},
	{4, 90},
	{2.5, 85},
	{1.5, 80},
	{0.5, 75},
	{-0.5, 70},
	{-1.5, 65},
	{-2.5, 58},
	{-3.5, 52},
	{-4.5, 46},
	{-5.5, 40},
}

const floorTierScore = 35

// MarketInput is the alternate-path input: an American price, the model's win
// probability for that side and the model's confidence.
type MarketInput struct {
	Odds             int     `json:"odds"`
	ModelProbability float64 `json:"model_probability"`
	Confidence       float64 `json:"confidence"`
}

// PartialMarket is the wire shape of MarketInput where every field may be absent.
type PartialMarket struct {
	Odds             *int     `json:"odds"`
	ModelProbability *float64 `json:"model_probability"`
	Confidence       *float64 `json:"confidence"`
}

// Resolve returns a validated MarketInput.
func (p PartialMarket) Resolve() (MarketInput, error) {
	switch {
	case p.Odds == nil:
		return MarketInput{}, &InputError{Field: "odds", Reason: reasonMissing, Kind: ErrInvalidOddsInput}
	case p.ModelProbability == nil:
		return MarketInput{}, &InputError{Field: "model_probability", Reason: reasonMissing, Kind: ErrInvalidProbabilityInput}
	case p.Confidence == nil:
		return MarketInput{}, &InputError{Field: "confidence", Reason: reasonMissing, Kind: ErrInvalidProbabilityInput}
	}
	in := MarketInput{Odds: *p.Odds, ModelProbability: *p.ModelProbability, Confidence: *p.Confidence}
	if err := in.Validate(); err != nil {
		return MarketInput{}, err
	}
	return in, nil
}

// Validate checks the price and both probabilities.
func (m MarketInput) Validate() error {
	if err := validateOdds(m.Odds); err != nil {
		return err
	}
	if err := validateProbability("model_probability", m.ModelProbability); err != nil {
		return err
	}
	return validateProbability("confidence", m.Confidence)
}

func validateOdds(odds int) error {
	if odds == 0 {
		return &InputError{Field: "odds", Value: 0, Reason: reasonZeroOdds, Kind: ErrInvalidOddsInput}
	}
	if odds > -minAmericanMagnitude && odds < minAmericanMagnitude {
		return &InputError{Field: "odds", Value: float64(odds), Reason: reasonNotAmerican, Kind: ErrInvalidOddsInput}
	}
	return nil
}

func validateProbability(field string, p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return &InputError{Field: field, Value: p, Reason: reasonNotFinite, Kind: ErrInvalidProbabilityInput}
	}
	if p < 0 || p > 1 {
		return &InputError{Field: field, Value: p, Reason: reasonOutOfRange, Kind: ErrInvalidProbabilityInput}
	}
	return nil
}

// ImpliedProbability converts an American price into the bookmaker's implied
// win probability, ignoring margin.
//
//	+150 -> 100/250 = 0.40
//	-110 -> 110/210 ~ 0.5238
func ImpliedProbability(odds int) (float64, error) {
	if err := validateOdds(odds); err != nil {
		return 0, err
	}
	if odds > 0 {
		return percent / (float64(odds) + percent), nil
	}
	abs := math.Abs(float64(odds))
	return abs / (abs + percent), nil
}

// ClampEdge limits an edge to [-MaxEdge, +MaxEdge].
func ClampEdge(edge float64) float64 {
	return math.Max(-MaxEdge, math.Min(MaxEdge, edge))
}

// Edge returns the clamped difference between the model probability and the
// probability implied by odds.
func Edge(odds int, modelProbability float64) (float64, error) {
	implied, err := ImpliedProbability(odds)
	if err != nil {
		return 0, err
	}
	if err := validateProbability("model_probability", modelProbability); err != nil {
		return 0, err
	}
	return ClampEdge(modelProbability - implied), nil
}

// BaseScore maps a signed edge percentage (5.0 == five points of edge) to the
// tiered base score. Tier floors are inclusive after snapping edgePercent.
func BaseScore(edgePercent float64) float64 {
	edgePercent = snap(edgePercent)
	for _, t := range edgeTiers {
		if edgePercent >= t.minPct {
			return t.score
		}
	}
	return floorTierScore
}

// ConfidenceAdjustment moves the base score by one point per ten points of
// confidence away from 0.75.
func ConfidenceAdjustment(confidence float64) float64 {
	return (confidence - neutralConfidence) * confidenceScale
}

// MarketResult is the output of the market-edge path.
type MarketResult struct {
	ImpliedProbability   float64     `json:"implied_probability"`
	Edge                 float64     `json:"edge"`
	EdgePercent          float64     `json:"edge_percent"`
	BaseScore            float64     `json:"base_score"`
	ConfidenceAdjustment float64     `json:"confidence_adjustment"`
	Jitter               float64     `json:"jitter"`
	AdjustedScore        float64     `json:"adjusted_score"`
	KellyFraction        float64     `json:"kelly_fraction"`
	Grade                grade.Grade `json:"grade"`
}

// GradeMarket runs the full market-edge path. key seeds the jitter so the same
// pick always gets the same jitter from the same source.
func GradeMarket(in MarketInput, key string, jitter JitterSource, table grade.Table) (MarketResult, error) {
	if err := in.Validate(); err != nil {
		return MarketResult{}, err
	}
	implied, err := ImpliedProbability(in.Odds)
	if err != nil {
		return MarketResult{}, err
	}
	edge := ClampEdge(in.ModelProbability - implied)
	edgePct := snap(edge * percent)
	base := BaseScore(edgePct)
	adj := ConfidenceAdjustment(in.Confidence)

	var j float64
	if jitter != nil {
		j = jitter.Jitter(jitterKey(key, in))
	}
	adjusted := snap(base + adj + j)

	return MarketResult{
		ImpliedProbability:   implied,
		Edge:                 edge,
		EdgePercent:          edgePct,
		BaseScore:            base,
		ConfidenceAdjustment: adj,
		Jitter:               j,
		AdjustedScore:        adjusted,
		KellyFraction:        KellyFraction(edge, implied),
		Grade:                table.Classify(adjusted),
	}, nil
}

func jitterKey(key string, in MarketInput) string {
	if key != "" {
		return key
	}
	return fmt.Sprintf("%d|%.6f|%.6f", in.Odds, in.ModelProbability, in.Confidence)
}
