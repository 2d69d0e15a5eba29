// Package outcome turns best-of-N game sequences into match results.
package outcome

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DefaultMaxGames is the length of a best-of-three series.
const DefaultMaxGames = 3

// Game is the result of one game seen from player A.
type Game int8

const (
	// NotPlayed marks a game slot the series never reached.
	NotPlayed Game = iota - 2
	WinB
	Draw
	WinA
)

func (g Game) String() string {
	switch g {
	case WinA:
		return "WIN_A"
	case Draw:
		return "DRAW"
	case WinB:
		return "WIN_B"
	case NotPlayed:
		return "NOT_PLAYED"
	}
	return "Game(" + strconv.Itoa(int(g)) + ")"
}

// Played reports whether the game took place.
func (g Game) Played() bool { return g == WinA || g == Draw || g == WinB }

// Flip returns the same game seen from player B.
func (g Game) Flip() Game {
	if g.Played() {
		return -g
	}
	return g
}

// MarshalJSON encodes played games as 1, 0, -1 and unplayed ones as null.
func (g Game) MarshalJSON() ([]byte, error) {
	if !g.Played() {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(int(g))), nil
}

// UnmarshalJSON accepts 1, 0, -1 and null.
func (g *Game) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*g = NotPlayed
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidGames, b)
	}
	switch Game(v) {
	case WinA, Draw, WinB:
		*g = Game(v)
		return nil
	}
	return fmt.Errorf("%w: game value %d", ErrInvalidGames, v)
}

// Tally summarises a series.
type Tally struct {
	WinsA int
	WinsB int
	Draws int
}

// Result is positive when A won the match, negative when B won and zero
// for a drawn match.
func (t Tally) Result() int { return t.WinsA - t.WinsB }

// Flip returns the tally seen from player B.
func (t Tally) Flip() Tally { return Tally{WinsA: t.WinsB, WinsB: t.WinsA, Draws: t.Draws} }

// Derive counts the games won by each side.
func Derive(games []Game) Tally {
	var t Tally
	for _, g := range games {
		switch g {
		case WinA:
			t.WinsA++
		case WinB:
			t.WinsB++
		case Draw:
			t.Draws++
		}
	}
	return t
}

// Validate checks that games describe a real match of at most maxGames
// games with at least one played game.
func Validate(games []Game, maxGames int) error {
	if len(games) == 0 {
		return fmt.Errorf("%w: no games", ErrInvalidGames)
	}
	if maxGames > 0 && len(games) > maxGames {
		return fmt.Errorf("%w: %d games exceed best-of-%d", ErrInvalidGames, len(games), maxGames)
	}
	played := 0
	for i, g := range games {
		switch g {
		case WinA, Draw, WinB:
			played++
		case NotPlayed:
		default:
			return fmt.Errorf("%w: game %d has value %d", ErrInvalidGames, i+1, g)
		}
	}
	if played == 0 {
		return fmt.Errorf("%w: no game was played", ErrInvalidGames)
	}
	return nil
}

// compactTable expands the compact "A-B" score notation used by event files
// into the ordered game sequence. The trailing draw of 2-0, 1-1 and 0-2 is a
// placeholder kept for compatibility with existing imports.
var compactTable = map[[2]int][]Game{
	{1, 0}: {WinA, NotPlayed, NotPlayed},
	{0, 1}: {WinB, NotPlayed, NotPlayed},
	{1, 1}: {WinA, WinB, Draw},
	{2, 0}: {WinA, WinA, Draw},
	{0, 2}: {WinB, WinB, Draw},
	{2, 1}: {WinA, WinB, WinA},
	{1, 2}: {WinB, WinA, WinB},
}

// ParseCompact expands a compact score such as "2-1". Unknown scores,
// including "0-0", are rejected.
func ParseCompact(score string) ([]Game, error) {
	left, right, ok := strings.Cut(strings.TrimSpace(score), "-")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidScore, score)
	}
	a, errA := strconv.Atoi(strings.TrimSpace(left))
	b, errB := strconv.Atoi(strings.TrimSpace(right))
	if errA != nil || errB != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidScore, score)
	}
	games, ok := compactTable[[2]int{a, b}]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidScore, score)
	}
	return append([]Game(nil), games...), nil
}

// Compact renders the games won by each side, e.g. "2-1".
func Compact(t Tally) string {
	return strconv.Itoa(t.WinsA) + "-" + strconv.Itoa(t.WinsB)
}
