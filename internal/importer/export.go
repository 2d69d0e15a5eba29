package importer

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	service "github.com/okian/ladder/internal/app"
	"github.com/okian/ladder/internal/domain/types"
)

var rankingHeader = []string{
	"Position", "Player", "Rating", "Rating deviation (RD)", "Trend", "Win %",
	"Matches played", "Matches won", "Matches lost", "Matches drawn",
}

// formatFloat renders two decimals, halves rounded away from zero.
func formatFloat(v float64) string { return decimal.NewFromFloat(v).StringFixed(2) }

// WriteRanking writes a standings table as CSV with a header row.
func WriteRanking(w io.Writer, entries []types.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rankingHeader); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{
			strconv.Itoa(e.Rank),
			e.Name,
			formatFloat(e.Rating),
			formatFloat(e.Deviation),
			e.Trend.Arrow(),
			formatFloat(e.Record.WinRate()),
			strconv.Itoa(e.Record.Played),
			strconv.Itoa(e.Record.Won),
			strconv.Itoa(e.Record.Lost),
			strconv.Itoa(e.Record.Drawn),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMatches writes matches in the event file format, so the output can
// be read back with ReadEvent.
func WriteMatches(w io.Writer, matches []service.MatchResult) error {
	cw := csv.NewWriter(w)
	for _, m := range matches {
		if err := cw.Write([]string{m.PlayerA, m.Score, m.PlayerB}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
