// Package types contains common types used across the application
package types

// Entry represents a recommendation board entry
type Entry struct {
	Rank   int     `json:"rank"`
	GameID string  `json:"game_id"`
	PickID string  `json:"pick_id"`
	Score  float64 `json:"score"`
	Grade  string  `json:"grade"`
}
