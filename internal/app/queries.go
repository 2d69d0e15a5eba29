package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/okian/ladder/internal/adapters/repository"
	"github.com/okian/ladder/internal/adapters/standings"
	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/internal/domain/outcome"
	"github.com/okian/ladder/internal/domain/types"
)

// MatchResult is a recorded match with player names, as exported.
type MatchResult struct {
	Round   int            `json:"round"`
	PlayerA string         `json:"player_a"`
	PlayerB string         `json:"player_b"`
	Games   []outcome.Game `json:"games"`
	Score   string         `json:"score"`
}

func entryOf(id, name string, st model.Standing) types.Entry {
	return types.Entry{
		PlayerID:  id,
		Name:      name,
		Rating:    st.Rating,
		Deviation: st.Deviation,
		Trend:     st.Trend,
		Record:    st.Record,
	}
}

// rank orders entries by rating, then name, and numbers them from 1.
func rank(entries []types.Entry) []types.Entry {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Rating != entries[j].Rating {
			return entries[i].Rating > entries[j].Rating
		}
		return entries[i].Name < entries[j].Name
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// Leaderboard returns the top n players by historic rating.
func (s *Service) Leaderboard(ctx context.Context, n int) ([]types.Entry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	entries, err := s.index.TopN(ctx, n)
	if errors.Is(err, standings.ErrInvalidLimit) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return entries, err
}

// PlayerStanding returns the historic entry of a player, by id or name.
func (s *Service) PlayerStanding(ctx context.Context, ref string) (types.Entry, error) {
	if err := s.ready(); err != nil {
		return types.Entry{}, err
	}
	var id string
	err := s.store.View(ctx, func(tx repository.Tx) error {
		p, err := s.resolvePlayer(ctx, tx, ref)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("%w: empty player reference", ErrInvalidInput)
		}
		id = p.ID
		return nil
	})
	if err != nil {
		return types.Entry{}, err
	}
	e, err := s.index.Rank(ctx, id)
	if errors.Is(err, standings.ErrNotFound) {
		return types.Entry{}, fmt.Errorf("%w: player %s not ranked", ErrUnresolved, ref)
	}
	return e, err
}

// LeagueStandings ranks the members of a league, by id or name.
func (s *Service) LeagueStandings(ctx context.Context, ref string) ([]types.Entry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var out []types.Entry
	err := s.store.View(ctx, func(tx repository.Tx) error {
		l, err := s.resolveLeague(ctx, tx, ref)
		if err != nil {
			return err
		}
		members, err := tx.ListLeaguePlayers(ctx, l.ID)
		if err != nil {
			return err
		}
		out = make([]types.Entry, 0, len(members))
		for _, lp := range members {
			p, err := tx.Player(ctx, lp.PlayerID)
			if err != nil {
				return err
			}
			out = append(out, entryOf(p.ID, p.Name, lp.Standing))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rank(out), nil
}

// TournamentStandings ranks the entrants of a tournament.
func (s *Service) TournamentStandings(ctx context.Context, tournamentID string) ([]types.Entry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var out []types.Entry
	err := s.store.View(ctx, func(tx repository.Tx) error {
		if _, err := tx.Tournament(ctx, tournamentID); err != nil {
			return unresolved(err)
		}
		entrants, err := tx.ListTournamentPlayers(ctx, tournamentID)
		if err != nil {
			return err
		}
		out = make([]types.Entry, 0, len(entrants))
		for _, tp := range entrants {
			p, err := tx.Player(ctx, tp.PlayerID)
			if err != nil {
				return err
			}
			out = append(out, entryOf(p.ID, p.Name, tp.Standing))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rank(out), nil
}

// TournamentMatches lists the matches of a tournament with player names.
func (s *Service) TournamentMatches(ctx context.Context, tournamentID string) ([]MatchResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var out []MatchResult
	err := s.store.View(ctx, func(tx repository.Tx) error {
		if _, err := tx.Tournament(ctx, tournamentID); err != nil {
			return unresolved(err)
		}
		matches, err := tx.ListMatches(ctx, tournamentID)
		if err != nil {
			return err
		}
		name := func(id *string) (string, error) {
			if id == nil {
				return model.ByeName, nil
			}
			p, err := tx.Player(ctx, *id)
			return p.Name, err
		}
		for _, m := range matches {
			a, err := name(m.PlayerAID)
			if err != nil {
				return err
			}
			b, err := name(m.PlayerBID)
			if err != nil {
				return err
			}
			out = append(out, MatchResult{
				Round:   m.RoundNumber,
				PlayerA: a,
				PlayerB: b,
				Games:   m.Games,
				Score:   outcome.Compact(outcome.Derive(m.Games)),
			})
		}
		return nil
	})
	return out, err
}

// Leagues lists every league.
func (s *Service) Leagues(ctx context.Context) ([]model.League, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var out []model.League
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		out, err = tx.ListLeagues(ctx)
		return err
	})
	return out, err
}

// Tournaments lists the tournaments of a league, or all of them when ref
// is empty.
func (s *Service) Tournaments(ctx context.Context, leagueRef string) ([]model.Tournament, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var out []model.Tournament
	err := s.store.View(ctx, func(tx repository.Tx) error {
		leagueID := ""
		if strings.TrimSpace(leagueRef) != "" {
			l, err := s.resolveLeague(ctx, tx, leagueRef)
			if err != nil {
				return err
			}
			leagueID = l.ID
		}
		var err error
		out, err = tx.ListTournaments(ctx, leagueID)
		return err
	})
	return out, err
}

// Quality returns the predicted match quality of two players, in [0, 1].
func (s *Service) Quality(ctx context.Context, refA, refB string) (float64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	var q float64
	err := s.store.View(ctx, func(tx repository.Tx) error {
		a, err := s.resolvePlayer(ctx, tx, refA)
		if err != nil {
			return err
		}
		b, err := s.resolvePlayer(ctx, tx, refB)
		if err != nil {
			return err
		}
		if a == nil || b == nil {
			return fmt.Errorf("%w: quality needs two players", ErrInvalidInput)
		}
		q = s.engine.Quality(a.State(a.ID), b.State(b.ID))
		return nil
	})
	return q, err
}

func (s *Service) resolveLeague(ctx context.Context, tx repository.Tx, ref string) (model.League, error) {
	ref = strings.TrimSpace(ref)
	l, err := tx.League(ctx, ref)
	if errors.Is(err, repository.ErrNotFound) {
		l, err = tx.LeagueByName(ctx, ref)
	}
	return l, unresolved(err)
}
