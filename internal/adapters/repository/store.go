// Package repository persists players, leagues, tournaments and their ratings.
package repository

import (
	"context"
	"time"

	"github.com/okian/ladder/internal/domain/model"
)

// Store runs units of work against the persisted state.
type Store interface {
	// Update runs fn in a read-write transaction. Nothing fn wrote is kept
	// when it returns an error.
	Update(ctx context.Context, fn func(tx Tx) error) error
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// Tx is the set of operations available inside a transaction. Lookups
// return ErrNotFound when the row is missing; creates return ErrDuplicate
// when the key is taken.
type Tx interface {
	Player(ctx context.Context, id string) (model.Player, error)
	PlayerByName(ctx context.Context, name string) (model.Player, error)
	CreatePlayer(ctx context.Context, p model.Player) error
	SavePlayer(ctx context.Context, p model.Player) error
	ListPlayers(ctx context.Context) ([]model.Player, error)

	League(ctx context.Context, id string) (model.League, error)
	LeagueByName(ctx context.Context, name string) (model.League, error)
	CreateLeague(ctx context.Context, l model.League) error
	ListLeagues(ctx context.Context) ([]model.League, error)

	LeaguePlayer(ctx context.Context, leagueID, playerID string) (model.LeaguePlayer, error)
	SaveLeaguePlayer(ctx context.Context, lp model.LeaguePlayer) error
	ListLeaguePlayers(ctx context.Context, leagueID string) ([]model.LeaguePlayer, error)

	Tournament(ctx context.Context, id string) (model.Tournament, error)
	CreateTournament(ctx context.Context, t model.Tournament) error
	SaveTournament(ctx context.Context, t model.Tournament) error
	ListTournaments(ctx context.Context, leagueID string) ([]model.Tournament, error)

	ListRounds(ctx context.Context, tournamentID string) ([]model.Round, error)
	CreateRound(ctx context.Context, r model.Round) error
	DeleteRound(ctx context.Context, id string) error

	TournamentPlayer(ctx context.Context, tournamentID, playerID string) (model.TournamentPlayer, error)
	SaveTournamentPlayer(ctx context.Context, tp model.TournamentPlayer) error
	ListTournamentPlayers(ctx context.Context, tournamentID string) ([]model.TournamentPlayer, error)

	// CreateMatch appends m to its tournament; ListMatches returns them in
	// insertion order.
	CreateMatch(ctx context.Context, m model.Match) error
	ListMatches(ctx context.Context, tournamentID string) ([]model.Match, error)

	// RecordEvent marks an event batch as rated; ErrDuplicate if it was.
	RecordEvent(ctx context.Context, id string, at time.Time) error
}
