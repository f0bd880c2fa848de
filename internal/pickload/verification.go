package pickload

import (
	"fmt"

	"github.com/okian/pickgrader/internal/domain/grade"
)

// VerifyBoard checks that entries are ordered by score, carry dense ranks
// starting at 1, name each game once and use known grade letters.
func VerifyBoard(entries []Entry) error {
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if _, err := grade.Parse(e.Grade); err != nil {
			return fmt.Errorf("%w: entry %d (%s): %w", ErrVerification, i, e.GameID, err)
		}
		if _, dup := seen[e.GameID]; dup {
			return fmt.Errorf("%w: game %s listed twice", ErrVerification, e.GameID)
		}
		seen[e.GameID] = struct{}{}

		if i == 0 {
			if e.Rank != 1 {
				return fmt.Errorf("%w: first entry has rank %d", ErrVerification, e.Rank)
			}
			continue
		}
		prev := entries[i-1]
		switch {
		case e.Score > prev.Score:
			return fmt.Errorf("%w: entry %d scores %.4f above entry %d (%.4f)", ErrVerification, i, e.Score, i-1, prev.Score)
		case e.Score == prev.Score && e.Rank != prev.Rank:
			return fmt.Errorf("%w: tied entries %d and %d have ranks %d and %d", ErrVerification, i-1, i, prev.Rank, e.Rank)
		case e.Score < prev.Score && e.Rank != prev.Rank+1:
			return fmt.Errorf("%w: entry %d has rank %d after rank %d", ErrVerification, i, e.Rank, prev.Rank)
		}
	}
	return nil
}

// VerifyGames checks that every board game was submitted and that its
// per-game lookup agrees with the board row.
func VerifyGames(board []Entry, lookups map[string]Entry, submitted map[string]struct{}) error {
	for _, e := range board {
		if _, ok := submitted[e.GameID]; !ok {
			return fmt.Errorf("%w: board lists unknown game %s", ErrVerification, e.GameID)
		}
		got, ok := lookups[e.GameID]
		if !ok {
			continue
		}
		if got.Rank != e.Rank || got.PickID != e.PickID {
			return fmt.Errorf("%w: game %s is rank %d (%s) on the board but rank %d (%s) by lookup",
				ErrVerification, e.GameID, e.Rank, e.PickID, got.Rank, got.PickID)
		}
	}
	return nil
}
