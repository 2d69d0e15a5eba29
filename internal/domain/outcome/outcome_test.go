package outcome_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/okian/ladder/internal/domain/outcome"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseCompact(t *testing.T) {
	Convey("Given the compact score table", t, func() {
		table := []struct {
			score      string
			games      []outcome.Game
			winsA      int
			winsB      int
			resultSign int
		}{
			{"1-0", []outcome.Game{outcome.WinA, outcome.NotPlayed, outcome.NotPlayed}, 1, 0, 1},
			{"0-1", []outcome.Game{outcome.WinB, outcome.NotPlayed, outcome.NotPlayed}, 0, 1, -1},
			{"1-1", []outcome.Game{outcome.WinA, outcome.WinB, outcome.Draw}, 1, 1, 0},
			{"2-0", []outcome.Game{outcome.WinA, outcome.WinA, outcome.Draw}, 2, 0, 1},
			{"0-2", []outcome.Game{outcome.WinB, outcome.WinB, outcome.Draw}, 0, 2, -1},
			{"2-1", []outcome.Game{outcome.WinA, outcome.WinB, outcome.WinA}, 2, 1, 1},
			{"1-2", []outcome.Game{outcome.WinB, outcome.WinA, outcome.WinB}, 1, 2, -1},
		}

		Convey("When each entry is expanded", func() {
			Convey("Then the exact sequence is produced and re-derives the score", func() {
				for _, row := range table {
					games, err := outcome.ParseCompact(row.score)
					So(err, ShouldBeNil)
					So(games, ShouldResemble, row.games)

					tally := outcome.Derive(games)
					So(tally.WinsA, ShouldEqual, row.winsA)
					So(tally.WinsB, ShouldEqual, row.winsB)
					So(outcome.Compact(tally), ShouldEqual, row.score)

					switch {
					case row.resultSign > 0:
						So(tally.Result(), ShouldBeGreaterThan, 0)
					case row.resultSign < 0:
						So(tally.Result(), ShouldBeLessThan, 0)
					default:
						So(tally.Result(), ShouldEqual, 0)
					}
				}
			})
		})

		Convey("When the score has surrounding whitespace", func() {
			games, err := outcome.ParseCompact(" 2 - 1 ")

			Convey("Then it is still accepted", func() {
				So(err, ShouldBeNil)
				So(games, ShouldHaveLength, 3)
			})
		})

		Convey("When the expansion is modified by the caller", func() {
			games, _ := outcome.ParseCompact("2-1")
			games[0] = outcome.WinB
			again, _ := outcome.ParseCompact("2-1")

			Convey("Then the table is unaffected", func() {
				So(again[0], ShouldEqual, outcome.WinA)
			})
		})

		Convey("When the score is not in the table", func() {
			Convey("Then it is rejected as an invalid score", func() {
				for _, bad := range []string{"0-0", "3-0", "2-2", "2", "a-b", "", "-1-0"} {
					_, err := outcome.ParseCompact(bad)
					So(errors.Is(err, outcome.ErrInvalidScore), ShouldBeTrue)
				}
			})
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given game sequences", t, func() {
		Convey("When the sequence is a normal best-of-three", func() {
			Convey("Then it is valid", func() {
				So(outcome.Validate([]outcome.Game{outcome.WinA, outcome.WinB, outcome.WinA}, 3), ShouldBeNil)
				So(outcome.Validate([]outcome.Game{outcome.Draw}, 3), ShouldBeNil)
			})
		})

		Convey("When the sequence is empty or unplayed", func() {
			Convey("Then it is rejected", func() {
				So(errors.Is(outcome.Validate(nil, 3), outcome.ErrInvalidGames), ShouldBeTrue)
				So(errors.Is(outcome.Validate([]outcome.Game{outcome.NotPlayed, outcome.NotPlayed}, 3), outcome.ErrInvalidGames), ShouldBeTrue)
			})
		})

		Convey("When the sequence is longer than the format", func() {
			games := []outcome.Game{outcome.WinA, outcome.WinA, outcome.WinA, outcome.WinA}

			Convey("Then it is rejected", func() {
				So(errors.Is(outcome.Validate(games, 3), outcome.ErrInvalidGames), ShouldBeTrue)
			})
		})

		Convey("When a game carries an unknown value", func() {
			Convey("Then it is rejected", func() {
				So(errors.Is(outcome.Validate([]outcome.Game{outcome.Game(5)}, 3), outcome.ErrInvalidGames), ShouldBeTrue)
			})
		})
	})
}

func TestGameJSON(t *testing.T) {
	Convey("Given a JSON game list", t, func() {
		var games []outcome.Game
		err := json.Unmarshal([]byte(`[1, -1, null, 0]`), &games)

		Convey("Then it decodes into games", func() {
			So(err, ShouldBeNil)
			So(games, ShouldResemble, []outcome.Game{outcome.WinA, outcome.WinB, outcome.NotPlayed, outcome.Draw})
		})

		Convey("And it encodes back to the same form", func() {
			b, err := json.Marshal(games)
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `[1,-1,null,0]`)
		})

		Convey("When a value is out of range", func() {
			err := json.Unmarshal([]byte(`[2]`), &games)

			Convey("Then decoding fails", func() {
				So(errors.Is(err, outcome.ErrInvalidGames), ShouldBeTrue)
			})
		})
	})
}

func TestFlip(t *testing.T) {
	Convey("Given a tally and games", t, func() {
		tally := outcome.Derive([]outcome.Game{outcome.WinA, outcome.WinB, outcome.WinA})

		Convey("When seen from the other side", func() {
			Convey("Then wins swap and the result changes sign", func() {
				So(tally.Flip().WinsA, ShouldEqual, 1)
				So(tally.Flip().Result(), ShouldEqual, -tally.Result())
				So(outcome.WinA.Flip(), ShouldEqual, outcome.WinB)
				So(outcome.Draw.Flip(), ShouldEqual, outcome.Draw)
				So(outcome.NotPlayed.Flip(), ShouldEqual, outcome.NotPlayed)
			})
		})
	})
}
