package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrLimitExceeded = errors.New("limit exceeded")
	ErrQueueFull     = errors.New("event queue is full")
	ErrAsyncDisabled = errors.New("asynchronous submission is disabled")
)
