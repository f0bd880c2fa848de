// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/pickgrader/internal/domain/scoring"
)

// Pick is a candidate bet submitted by clients.
type Pick struct {
	PickID           string                // unique id for idempotency
	GameID           string                // game the pick belongs to
	Market           string                // e.g. "moneyline", "total"
	Selection        string                // side or outcome picked
	Odds             int                   // American price; 0 with no probability or confidence means no market input
	ModelProbability float64               // model win probability for the selection
	Confidence       float64               // model confidence in [0,1]
	Factors          *scoring.FactorScores // optional precomputed factor scores
	TS               time.Time             // submission timestamp
}

// HasMarket reports whether the pick carries any market field. A pick with a
// probability or confidence but no odds still has a market, and fails odds
// validation when scored.
func (p Pick) HasMarket() bool {
	return p.Odds != 0 || p.ModelProbability != 0 || p.Confidence != 0
}

// ScoringInput converts the pick into the scorer's input, keyed by PickID.
func (p Pick) ScoringInput() scoring.Input {
	in := scoring.Input{Key: p.PickID, Factors: p.Factors}
	if p.HasMarket() {
		in.Market = &scoring.MarketInput{
			Odds:             p.Odds,
			ModelProbability: p.ModelProbability,
			Confidence:       p.Confidence,
		}
	}
	return in
}

// GradedPick is a pick together with its scoring result.
type GradedPick struct {
	Pick     Pick
	Result   scoring.Result
	GradedAt time.Time
}
