// Package pickload generates picks, submits them to a running grader and
// checks the resulting recommendation board.
package pickload

import (
	"errors"
	"time"
)

// Output formats for the run summary.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var (
	ErrInvalidConfig = errors.New("invalid load config")
	ErrUnhealthy     = errors.New("service unhealthy")
	ErrVerification  = errors.New("board verification failed")
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL     string        // base URL of the service
	NumPicks    int           // picks to generate
	NumGames    int           // distinct games the picks are spread over
	FactorShare float64       // fraction of picks carrying factor scores, the rest carry odds
	TopN        int           // board entries to fetch and verify
	Workers     int           // concurrent submitters
	Seed        int64         // generator seed; equal seeds give equal picks
	Timeout     time.Duration // per-request timeout
	SettleWait  time.Duration // how long to wait for the graded count to catch up
	OutputFile  string        // optional JSON dump of generated picks
	Format      string        // summary format: json or yaml
}

// Validate rejects configurations the runner cannot use.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return errors.Join(ErrInvalidConfig, errors.New("base url is required"))
	case c.NumPicks < 1:
		return errors.Join(ErrInvalidConfig, errors.New("picks must be positive"))
	case c.NumGames < 1:
		return errors.Join(ErrInvalidConfig, errors.New("games must be positive"))
	case c.FactorShare < 0 || c.FactorShare > 1:
		return errors.Join(ErrInvalidConfig, errors.New("factor share must be within [0,1]"))
	case c.TopN < 1:
		return errors.Join(ErrInvalidConfig, errors.New("top must be positive"))
	case c.Workers < 1:
		return errors.Join(ErrInvalidConfig, errors.New("workers must be positive"))
	case c.Format != FormatJSON && c.Format != FormatYAML:
		return errors.Join(ErrInvalidConfig, errors.New("format must be json or yaml"))
	}
	return nil
}

// Factors is the wire shape of factor scores.
type Factors struct {
	OffensiveProduction float64 `json:"offensive_production"`
	PitchingMatchup     float64 `json:"pitching_matchup"`
	SituationalEdge     float64 `json:"situational_edge"`
	TeamMomentum        float64 `json:"team_momentum"`
	MarketInefficiency  float64 `json:"market_inefficiency"`
	SystemConfidence    float64 `json:"system_confidence"`
}

// Pick is a pick as submitted to POST /picks.
type Pick struct {
	PickID           string   `json:"pick_id"`
	GameID           string   `json:"game_id"`
	Market           string   `json:"market,omitempty"`
	Selection        string   `json:"selection,omitempty"`
	Odds             *int     `json:"odds,omitempty"`
	ModelProbability *float64 `json:"model_probability,omitempty"`
	Confidence       *float64 `json:"confidence,omitempty"`
	Factors          *Factors `json:"factors,omitempty"`
	TS               string   `json:"ts"`
}

// Entry is a board row.
type Entry struct {
	Rank   int     `json:"rank"`
	GameID string  `json:"game_id"`
	PickID string  `json:"pick_id"`
	Score  float64 `json:"score"`
	Grade  string  `json:"grade"`
}

// AckResponse is the body of a POST /picks reply.
type AckResponse struct {
	Status    string `json:"status"`
	PickID    string `json:"pick_id"`
	Duplicate bool   `json:"duplicate"`
}

// ServiceStats is the subset of GET /stats the runner reads.
type ServiceStats struct {
	Graded int64 `json:"graded"`
	Failed int64 `json:"failed"`
	Games  int   `json:"games"`
}

// Stats summarises a run.
type Stats struct {
	Generated    int           `json:"generated" yaml:"generated"`
	Accepted     int64         `json:"accepted" yaml:"accepted"`
	Duplicate    int64         `json:"duplicate" yaml:"duplicate"`
	Rejected     int64         `json:"rejected" yaml:"rejected"`
	Failed       int64         `json:"failed" yaml:"failed"`
	Graded       int64         `json:"graded" yaml:"graded"`
	BoardGames   int           `json:"board_games" yaml:"board_games"`
	BoardEntries int           `json:"board_entries" yaml:"board_entries"`
	GamesChecked int           `json:"games_checked" yaml:"games_checked"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
	PicksPerSec  float64       `json:"picks_per_sec" yaml:"picks_per_sec"`
}
