package standings

import "errors"

// Sentinel kinds for standings lookups.
var (
	ErrNotFound     = errors.New("player not ranked")
	ErrInvalidLimit = errors.New("invalid standings limit")
)
