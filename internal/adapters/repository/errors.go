package repository

import "errors"

// Sentinel kinds for board errors.
var (
	ErrNotFound      = errors.New("game not found")
	ErrInvalidLimit  = errors.New("invalid board limit")
	ErrMissingGameID = errors.New("graded pick has no game id")
	ErrInvalidScore  = errors.New("score is not finite")
)
