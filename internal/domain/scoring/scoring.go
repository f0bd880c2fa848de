// Package scoring converts a pick's precomputed factors and market inputs into
// a numeric score and a letter grade.
//
// Two paths exist. The composite path weighs six factor scores and classifies
// the sum with grade.CompositeTable. The market path derives a clamped edge
// from American odds and a model probability, maps it to a tiered base score,
// adjusts for confidence and jitter, and classifies with grade.MarketTable.
// Everything here is pure; Engine is safe for concurrent use.
package scoring

import (
	"context"
	"fmt"

	"github.com/okian/pickgrader/internal/domain/grade"
)

// Source names the path that produced a Result's headline score.
type Source string

// Result sources.
const (
	SourceComposite Source = "composite"
	SourceMarket    Source = "market"
)

// Input carries whatever the caller has for a pick. At least one of Factors
// and Market is required.
type Input struct {
	// Key identifies the pick; it seeds market jitter.
	Key     string
	Factors *FactorScores
	Market  *MarketInput
}

// Validate checks both paths before either is computed.
func (in Input) Validate() error {
	if in.Factors == nil && in.Market == nil {
		return ErrEmptyInput
	}
	if in.Factors != nil {
		if err := in.Factors.Validate(); err != nil {
			return err
		}
	}
	if in.Market != nil {
		return in.Market.Validate()
	}
	return nil
}

// Result is the graded pick. Score and Grade come from the composite path
// when factors were supplied, otherwise from the market path.
type Result struct {
	Key       string           `json:"key,omitempty"`
	Score     float64          `json:"score"`
	Grade     grade.Grade      `json:"grade"`
	Source    Source           `json:"source"`
	Composite *CompositeResult `json:"composite,omitempty"`
	Market    *MarketResult    `json:"market,omitempty"`
}

// Scorer grades an input, honoring ctx for cancellation.
type Scorer interface {
	Score(ctx context.Context, in Input) (Result, error)
}

// Engine implements Scorer with fixed weights, tables and a jitter source.
type Engine struct {
	weights        Weights
	compositeTable grade.Table
	marketTable    grade.Table
	jitter         JitterSource
}

// NewEngine builds an Engine. Invalid weights or tables fail construction.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		weights:        DefaultWeights(),
		compositeTable: grade.CompositeTable,
		marketTable:    grade.MarketTable,
		jitter:         NoJitter{},
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.weights.Validate(); err != nil {
		return nil, err
	}
	if err := e.compositeTable.Validate(); err != nil {
		return nil, fmt.Errorf("composite table: %w", err)
	}
	if err := e.marketTable.Validate(); err != nil {
		return nil, fmt.Errorf("market table: %w", err)
	}
	return e, nil
}

// Weights returns the engine's factor weights.
func (e *Engine) Weights() Weights { return e.weights }

// Score implements Scorer.
func (e *Engine) Score(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	res := Result{Key: in.Key}

	if in.Market != nil {
		m, err := GradeMarket(*in.Market, in.Key, e.jitter, e.marketTable)
		if err != nil {
			return Result{}, err
		}
		res.Market = &m
		res.Score, res.Grade, res.Source = m.AdjustedScore, m.Grade, SourceMarket
	}
	if in.Factors != nil {
		c, err := GradeComposite(*in.Factors, e.weights, e.compositeTable)
		if err != nil {
			return Result{}, err
		}
		res.Composite = &c
		res.Score, res.Grade, res.Source = c.Score, c.Grade, SourceComposite
	}
	return res, nil
}
