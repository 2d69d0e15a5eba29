package importer_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	service "github.com/okian/ladder/internal/app"
	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/internal/domain/outcome"
	"github.com/okian/ladder/internal/domain/trend"
	"github.com/okian/ladder/internal/domain/types"
	"github.com/okian/ladder/internal/importer"
	. "github.com/smartystreets/goconvey/convey"
)

func TestReadEvent(t *testing.T) {
	Convey("Given an event file", t, func() {
		body := "# friday pauper\nAlice,2-1,Bob\n\n Carol , 0-2 ,Dan\nErin,1-0,Bye\n"

		Convey("When it is read", func() {
			matches, err := importer.ReadEvent(strings.NewReader(body))

			Convey("Then every match is parsed in order", func() {
				So(err, ShouldBeNil)
				So(matches, ShouldHaveLength, 3)
				So(matches[0], ShouldResemble, service.MatchInput{
					PlayerA: "Alice", PlayerB: "Bob",
					Games: []outcome.Game{outcome.WinA, outcome.WinB, outcome.WinA},
				})
				So(matches[1].PlayerA, ShouldEqual, "Carol")
				So(matches[1].PlayerB, ShouldEqual, "Dan")
				So(outcome.Derive(matches[1].Games).WinsB, ShouldEqual, 2)
				So(model.IsBye(matches[2].PlayerB), ShouldBeTrue)
			})
		})

		Convey("When a line has an unknown score", func() {
			_, err := importer.ReadEvent(strings.NewReader("Alice,2-1,Bob\nCarol,0-0,Dan\n"))

			Convey("Then the error names the line", func() {
				So(errors.Is(err, outcome.ErrInvalidScore), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "line 2")
			})
		})

		Convey("When a line has the wrong shape", func() {
			_, err := importer.ReadEvent(strings.NewReader("Alice,2-1\n"))

			Convey("Then it is rejected", func() {
				So(errors.Is(err, importer.ErrInvalidLine), ShouldBeTrue)
			})
		})
	})
}

func TestReadDir(t *testing.T) {
	Convey("Given a directory of dated event files", t, func() {
		dir := t.TempDir()
		write := func(name, body string) {
			So(os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600), ShouldBeNil)
		}
		write("2025-03-08.csv", "Alice,1-0,Bob\n")
		write("2025-02-22.csv", "Carol,2-0,Dan\n")
		write("notes.txt", "ignored")

		Convey("When it is listed", func() {
			files, err := importer.ReadDir(dir)

			Convey("Then the files come back in date order", func() {
				So(err, ShouldBeNil)
				So(files, ShouldHaveLength, 2)
				So(files[0].Name(), ShouldEqual, "2025-02-22")
				So(files[1].Date.Equal(time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
			})

			Convey("Then a file loads into a batch keyed by its name", func() {
				batch, err := importer.LoadBatch(files[0], "Pauper")
				So(err, ShouldBeNil)
				So(batch.EventID, ShouldEqual, "file:2025-02-22")
				So(batch.League, ShouldEqual, "Pauper")
				So(batch.Date, ShouldEqual, files[0].Date)
				So(batch.Matches, ShouldHaveLength, 1)
			})
		})

		Convey("When a CSV is not named by date", func() {
			write("latest.csv", "Alice,1-0,Bob\n")
			_, err := importer.ReadDir(dir)

			Convey("Then listing fails", func() {
				So(errors.Is(err, importer.ErrInvalidFileName), ShouldBeTrue)
			})
		})
	})

	Convey("Given an empty directory", t, func() {
		_, err := importer.ReadDir(t.TempDir())

		Convey("Then there is nothing to rate", func() {
			So(errors.Is(err, importer.ErrNoEvents), ShouldBeTrue)
		})
	})
}

func TestExport(t *testing.T) {
	Convey("Given a standings table", t, func() {
		entries := []types.Entry{
			{Rank: 1, Name: "Alice", Rating: 1612.345, Deviation: 201.125, Trend: trend.Up, Record: model.Record{Played: 3, Won: 2, Lost: 1}},
			{Rank: 2, Name: "Bob, Jr.", Rating: 1480, Deviation: 250, Trend: trend.BigDown, Record: model.Record{Played: 1, Drawn: 1}},
		}

		Convey("When it is written as CSV", func() {
			var buf bytes.Buffer
			So(importer.WriteRanking(&buf, entries), ShouldBeNil)
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

			Convey("Then it has a header and one row per player", func() {
				So(lines, ShouldHaveLength, 3)
				So(lines[0], ShouldStartWith, "Position,Player,Rating")
				So(lines[0], ShouldContainSubstring, ",Trend,Win %,Matches played,")
				So(lines[1], ShouldEqual, "1,Alice,1612.35,201.13,↗,66.67,3,2,1,0")
				So(lines[2], ShouldStartWith, `2,"Bob, Jr.",1480.00`)
				So(lines[2], ShouldEndWith, ",0.00,1,0,0,1")
			})
		})
	})

	Convey("Given recorded matches", t, func() {
		matches := []service.MatchResult{
			{Round: 1, PlayerA: "Alice", PlayerB: "Bob", Score: "2-1"},
			{Round: 1, PlayerA: "Carol", PlayerB: model.ByeName, Score: "1-0"},
		}

		Convey("When they are written and read back", func() {
			var buf bytes.Buffer
			So(importer.WriteMatches(&buf, matches), ShouldBeNil)
			back, err := importer.ReadEvent(&buf)

			Convey("Then the event file round trips", func() {
				So(err, ShouldBeNil)
				So(back, ShouldHaveLength, 2)
				So(back[0].PlayerA, ShouldEqual, "Alice")
				So(outcome.Compact(outcome.Derive(back[0].Games)), ShouldEqual, "2-1")
				So(back[1].PlayerB, ShouldEqual, model.ByeName)
			})
		})
	})
}
