package service

import "errors"

// Sentinel kinds for rating requests.
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnresolved     = errors.New("unresolved reference")
	ErrDuplicateEvent = errors.New("event already rated")
	ErrNotStarted     = errors.New("service not started")
)
