// Package importer reads event files into batches and writes standings
// back out as CSV.
//
// An event file holds one match per line:
//
//	Alice,2-1,Bob
//	Carol,1-0,Bye
//
// Blank lines and lines starting with '#' are ignored. Files are named
// after the event date, YYYY-MM-DD.csv, and rated in date order.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	service "github.com/okian/ladder/internal/app"
	"github.com/okian/ladder/internal/domain/outcome"
)

const fileExt = ".csv"

// ParseLine turns one CSV record into a match.
func ParseLine(record []string) (service.MatchInput, error) {
	if len(record) != 3 {
		return service.MatchInput{}, fmt.Errorf("%w: want 3 fields, got %d", ErrInvalidLine, len(record))
	}
	a, b := strings.TrimSpace(record[0]), strings.TrimSpace(record[2])
	if a == "" && b == "" {
		return service.MatchInput{}, fmt.Errorf("%w: no players", ErrInvalidLine)
	}
	games, err := outcome.ParseCompact(record[1])
	if err != nil {
		return service.MatchInput{}, err
	}
	return service.MatchInput{PlayerA: a, PlayerB: b, Games: games}, nil
}

// ReadEvent parses every match of an event file, in file order.
func ReadEvent(r io.Reader) ([]service.MatchInput, error) {
	rd := csv.NewReader(r)
	rd.Comment = '#'
	rd.FieldsPerRecord = -1
	rd.TrimLeadingSpace = true

	var out []service.MatchInput
	for {
		record, err := rd.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidLine, err)
		}
		m, err := ParseLine(record)
		if err != nil {
			line, _ := rd.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, m)
	}
}

// EventFile is a dated event file on disk.
type EventFile struct {
	Path string
	Date time.Time
}

// Name is the file name without its extension.
func (f EventFile) Name() string {
	return strings.TrimSuffix(filepath.Base(f.Path), fileExt)
}

// ParseFileName reads the event date from a file name.
func ParseFileName(path string) (EventFile, error) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, fileExt) {
		return EventFile{}, fmt.Errorf("%w: %s", ErrInvalidFileName, base)
	}
	date, err := time.Parse(time.DateOnly, strings.TrimSuffix(base, fileExt))
	if err != nil {
		return EventFile{}, fmt.Errorf("%w: %s", ErrInvalidFileName, base)
	}
	return EventFile{Path: path, Date: date}, nil
}

// ReadDir lists the event files of dir in chronological order. Files that
// are not CSV are ignored; a CSV that is not named by date is an error.
func ReadDir(dir string) ([]EventFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []EventFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		f, err := ParseFileName(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoEvents, dir)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Date.Before(files[j].Date) })
	return files, nil
}

// LoadBatch reads an event file into a batch for league. The batch id is
// derived from the file name so a file is rated at most once.
func LoadBatch(f EventFile, league string) (service.EventBatch, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return service.EventBatch{}, err
	}
	defer fh.Close()

	matches, err := ReadEvent(fh)
	if err != nil {
		return service.EventBatch{}, fmt.Errorf("%s: %w", filepath.Base(f.Path), err)
	}
	return service.EventBatch{
		EventID: "file:" + f.Name(),
		League:  league,
		Name:    f.Name(),
		Date:    f.Date,
		Matches: matches,
	}, nil
}
