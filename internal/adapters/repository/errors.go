package repository

import "errors"

// Sentinel kinds for persistence errors.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
	ErrReadOnly  = errors.New("write in read-only transaction")

	ErrUnsupportedDriver = errors.New("unsupported store driver")
)
