// Package trend classifies how a rating moved over an event.
package trend

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Level is an ordinal performance trend.
type Level int8

const (
	BigDown Level = iota - 2
	Down
	Neutral
	Up
	BigUp
)

// Classification thresholds on rating_after / rating_before.
const (
	bigUpAbove       = 1.10
	upFrom           = 1.01
	neutralFrom      = 0.99
	bigDownAtOrBelow = 0.90
)

// Classify buckets the relative change between two ratings.
func Classify(before, after float64) Level {
	ratio := 1.0
	if before != 0 {
		ratio = after / before
	}
	switch {
	case ratio > bigUpAbove:
		return BigUp
	case ratio >= upFrom:
		return Up
	case ratio >= neutralFrom:
		return Neutral
	case ratio > bigDownAtOrBelow:
		return Down
	default:
		return BigDown
	}
}

// Arrow renders the level the way standings tables display it.
func (l Level) Arrow() string {
	switch l {
	case BigUp:
		return "↑"
	case Up:
		return "↗"
	case Down:
		return "↘"
	case BigDown:
		return "↓"
	}
	return "→"
}

func (l Level) String() string {
	switch l {
	case BigUp:
		return "BIG_UP"
	case Up:
		return "UP"
	case Neutral:
		return "NEUTRAL"
	case Down:
		return "DOWN"
	case BigDown:
		return "BIG_DOWN"
	}
	return fmt.Sprintf("Level(%d)", int8(l))
}

// Parse is the inverse of String.
func Parse(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BIG_UP":
		return BigUp, nil
	case "UP":
		return Up, nil
	case "", "NEUTRAL":
		return Neutral, nil
	case "DOWN":
		return Down, nil
	case "BIG_DOWN":
		return BigDown, nil
	}
	return Neutral, fmt.Errorf("unknown trend level: %q", s)
}

func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *Level) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*l = v
	return nil
}
