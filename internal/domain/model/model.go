// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"

	"github.com/okian/ladder/internal/domain/outcome"
	"github.com/okian/ladder/internal/domain/rating"
	"github.com/okian/ladder/internal/domain/trend"
)

// ByeName is the placeholder used by event files for a walkover.
const ByeName = "Bye"

// IsBye reports whether name denotes a missing opponent.
func IsBye(name string) bool {
	name = strings.TrimSpace(name)
	return name == "" || strings.EqualFold(name, ByeName)
}

// Scope identifies which rating a standing belongs to.
type Scope string

const (
	ScopeHistoric   Scope = "historic"
	ScopeLeague     Scope = "league"
	ScopeTournament Scope = "tournament"
)

// Record counts matches, not games.
type Record struct {
	Played int `json:"played"`
	Won    int `json:"won"`
	Lost   int `json:"lost"`
	Drawn  int `json:"drawn"`
}

// Add counts one match. result is positive for a win, negative for a loss
// and zero for a draw.
func (r *Record) Add(result int) {
	r.Played++
	switch {
	case result > 0:
		r.Won++
	case result < 0:
		r.Lost++
	default:
		r.Drawn++
	}
}

// WinRate is the percentage of matches won.
func (r Record) WinRate() float64 {
	if r.Played == 0 {
		return 0
	}
	return float64(r.Won) * 100 / float64(r.Played)
}

// Standing is the rated part shared by players, league members and
// tournament participants.
type Standing struct {
	Rating     float64     `json:"rating"`
	Deviation  float64     `json:"rating_deviation"`
	Volatility float64     `json:"volatility"`
	Record     Record      `json:"record"`
	Trend      trend.Level `json:"trend"`
}

// NewStanding returns a standing seeded from the engine defaults.
func NewStanding(p rating.Params) Standing {
	return Standing{
		Rating:     p.DefaultRating,
		Deviation:  p.DefaultDeviation,
		Volatility: p.DefaultVolatility,
		Trend:      trend.Neutral,
	}
}

// State snapshots the rating under the given identity.
func (s Standing) State(id string) rating.State {
	return rating.State{ID: id, Rating: s.Rating, Deviation: s.Deviation, Volatility: s.Volatility}
}

// Apply stores a rating produced by the engine.
func (s *Standing) Apply(st rating.State) {
	s.Rating = st.Rating
	s.Deviation = st.Deviation
	s.Volatility = st.Volatility
}

// Player carries the historic (lifetime) rating.
type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Standing
}

// League groups tournaments.
type League struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

// LeaguePlayer is a player's membership and rating in one league.
type LeaguePlayer struct {
	LeagueID string `json:"league_id"`
	PlayerID string `json:"player_id"`
	Standing
}

// Tournament is one event, optionally part of a league.
type Tournament struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Date     time.Time `json:"date"`
	LeagueID *string   `json:"league_id,omitempty"`
	WinnerID *string   `json:"winner_id,omitempty"`
}

// Round is a numbered round of a tournament.
type Round struct {
	ID           string `json:"id"`
	TournamentID string `json:"tournament_id"`
	Number       int    `json:"number"`
}

// TournamentPlayer is a player's rating within one tournament.
type TournamentPlayer struct {
	TournamentID string `json:"tournament_id"`
	PlayerID     string `json:"player_id"`
	Standing
}

// Match is the immutable record of one pairing. A nil player is a bye.
type Match struct {
	ID           string         `json:"id"`
	TournamentID string         `json:"tournament_id"`
	RoundNumber  int            `json:"round_number"`
	PlayerAID    *string        `json:"player_a_id"`
	PlayerBID    *string        `json:"player_b_id"`
	Games        []outcome.Game `json:"games"`
	ScoreA       int            `json:"score_a"`
	ScoreB       int            `json:"score_b"`
	WinnerID     *string        `json:"winner_id"`
	CreatedAt    time.Time      `json:"created_at"`
}

// IsBye reports whether one side of the match is missing.
func (m Match) IsBye() bool { return m.PlayerAID == nil || m.PlayerBID == nil }

// Involves reports whether playerID played on either side.
func (m Match) Involves(playerID string) bool {
	return (m.PlayerAID != nil && *m.PlayerAID == playerID) || (m.PlayerBID != nil && *m.PlayerBID == playerID)
}

// NewMatch derives scores and winner from the games.
func NewMatch(id, tournamentID string, round int, playerA, playerB *string, games []outcome.Game, now time.Time) Match {
	tally := outcome.Derive(games)
	m := Match{
		ID:           id,
		TournamentID: tournamentID,
		RoundNumber:  round,
		PlayerAID:    playerA,
		PlayerBID:    playerB,
		Games:        append([]outcome.Game(nil), games...),
		ScoreA:       tally.WinsA,
		ScoreB:       tally.WinsB,
		CreatedAt:    now,
	}
	switch {
	case tally.WinsA > tally.WinsB:
		m.WinnerID = playerA
	case tally.WinsB > tally.WinsA:
		m.WinnerID = playerB
	}
	return m
}
