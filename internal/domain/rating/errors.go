package rating

import "errors"

// Sentinel error kinds for the rating engine.
var (
	ErrInvalidParams = errors.New("invalid rating parameters")
	ErrInvalidState  = errors.New("invalid rating state")
	ErrNoConvergence = errors.New("volatility did not converge")
)
