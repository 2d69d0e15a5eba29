package outcome

import "errors"

// Sentinel kinds for malformed match input.
var (
	ErrInvalidScore = errors.New("invalid compact score")
	ErrInvalidGames = errors.New("invalid game sequence")
)
