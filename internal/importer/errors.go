package importer

import "errors"

var (
	// ErrInvalidLine indicates an event line that is not "PlayerA,score,PlayerB".
	ErrInvalidLine = errors.New("invalid event line")
	// ErrInvalidFileName indicates an event file not named YYYY-MM-DD.csv.
	ErrInvalidFileName = errors.New("invalid event file name")
	// ErrNoEvents indicates a directory without event files.
	ErrNoEvents = errors.New("no event files")
)
