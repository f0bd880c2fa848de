// Package repository keeps the recommendation board: the best graded pick
// per game, ranked by score.
package repository

import (
	"context"

	"github.com/okian/pickgrader/internal/domain/model"
)

// Entry represents a board row.
type Entry struct {
	Rank   int
	GameID string
	Score  float64
	Pick   model.GradedPick
}

// Store provides read/write access to the board.
type Store interface {
	// UpdateBest records gp as its game's best pick if it scores strictly
	// higher than the current one. Returns true if the board changed.
	UpdateBest(ctx context.Context, gp model.GradedPick) (bool, error)

	// Rank returns the current dense rank and best pick for a game.
	// Returns ErrNotFound if the game is unknown.
	Rank(ctx context.Context, gameID string) (Entry, error)

	// TopN returns the top-N entries ordered by score desc, game id asc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of games on the board.
	Count(ctx context.Context) int
}
