package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/ladder/internal/adapters/repository"
	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/internal/domain/outcome"
	"github.com/okian/ladder/pkg/logger"
	"github.com/okian/ladder/pkg/metrics"
)

// MatchRequest rates a single match of an existing tournament. Players are
// referenced by id or name; an empty or "Bye" reference is a bye.
type MatchRequest struct {
	TournamentID string         `json:"tournament_id"`
	PlayerA      string         `json:"player_a"`
	PlayerB      string         `json:"player_b"`
	Games        []outcome.Game `json:"games"`
	// RoundNumber is derived from the players' match counts when zero.
	RoundNumber int  `json:"round_number,omitempty"`
	SkipDrawn   bool `json:"skip_drawn,omitempty"`
}

// RateMatch records and rates one match in its own transaction.
func (s *Service) RateMatch(ctx context.Context, req MatchRequest) (model.Match, error) {
	if err := s.ready(); err != nil {
		return model.Match{}, err
	}
	if req.RoundNumber < 0 {
		return model.Match{}, fmt.Errorf("%w: negative round number", ErrInvalidInput)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var (
		match   model.Match
		touched []model.Player
	)
	err := s.store.Update(ctx, func(tx repository.Tx) error {
		tr, err := tx.Tournament(ctx, req.TournamentID)
		if err != nil {
			return unresolved(err)
		}
		a, err := s.resolvePlayer(ctx, tx, req.PlayerA)
		if err != nil {
			return err
		}
		b, err := s.resolvePlayer(ctx, tx, req.PlayerB)
		if err != nil {
			return err
		}
		match, err = s.rateMatch(ctx, tx, tr, a, b, req.Games, req.RoundNumber, req.SkipDrawn || s.skipDrawn)
		if err != nil {
			return err
		}
		for _, p := range []*model.Player{a, b} {
			if p != nil {
				fresh, err := tx.Player(ctx, p.ID)
				if err != nil {
					return err
				}
				touched = append(touched, fresh)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Warn(ctx, "match rejected", logger.String("tournament", req.TournamentID), logger.Error(err))
		return model.Match{}, err
	}

	for _, p := range touched {
		s.index.Upsert(ctx, entryOf(p.ID, p.Name, p.Standing))
	}
	for _, o := range s.observers {
		o.MatchRated(ctx, match)
	}
	return match, nil
}

// resolvePlayer looks a player up by id, then by name. Byes resolve to nil.
func (s *Service) resolvePlayer(ctx context.Context, tx repository.Tx, ref string) (*model.Player, error) {
	if model.IsBye(ref) {
		return nil, nil
	}
	ref = strings.TrimSpace(ref)
	p, err := tx.Player(ctx, ref)
	if errors.Is(err, repository.ErrNotFound) {
		p, err = tx.PlayerByName(ctx, ref)
	}
	if err != nil {
		return nil, unresolved(err)
	}
	return &p, nil
}

// rateMatch records the match and updates every active scope. It never
// commits; the caller's transaction decides.
func (s *Service) rateMatch(ctx context.Context, tx repository.Tx, tr model.Tournament, a, b *model.Player,
	games []outcome.Game, round int, skipDrawn bool,
) (model.Match, error) {
	if err := outcome.Validate(games, s.maxGames); err != nil {
		return model.Match{}, err
	}
	if a == nil && b == nil {
		return model.Match{}, fmt.Errorf("%w: match needs at least one player", ErrInvalidInput)
	}
	if a != nil && b != nil && a.ID == b.ID {
		return model.Match{}, fmt.Errorf("%w: %s cannot play themselves", ErrInvalidInput, a.Name)
	}

	round, err := s.placeInRound(ctx, tx, tr.ID, a, b, round)
	if err != nil {
		return model.Match{}, err
	}
	match := model.NewMatch(s.newID(), tr.ID, round, playerID(a), playerID(b), games, s.now())

	if a == nil || b == nil {
		present := a
		if present == nil {
			present = b
		}
		if _, err := s.tournamentPlayer(ctx, tx, tr.ID, present.ID); err != nil {
			return model.Match{}, err
		}
		if err := tx.CreateMatch(ctx, match); err != nil {
			return model.Match{}, err
		}
		metrics.RecordBye()
		metrics.RecordMatchRated()
		s.logger.Debug(ctx, "bye recorded", logger.String("player", present.Name), logger.Int("round", round))
		return match, nil
	}

	pairings, save, err := s.pairings(ctx, tx, tr, a, b)
	if err != nil {
		return model.Match{}, err
	}

	tally := outcome.Derive(games)
	if !(skipDrawn && tally.Result() == 0) {
		for _, p := range pairings {
			if err := s.rateScope(p, games); err != nil {
				return model.Match{}, err
			}
		}
	}
	for _, p := range pairings {
		p.a.Record.Add(tally.Result())
		p.b.Record.Add(tally.Flip().Result())
	}

	if err := save(); err != nil {
		return model.Match{}, err
	}
	if err := tx.CreateMatch(ctx, match); err != nil {
		return model.Match{}, err
	}
	metrics.RecordMatchRated()
	return match, nil
}

// pairings collects the active scopes of a match and a func persisting them.
// The league scope is skipped unless both players belong to the league.
func (s *Service) pairings(ctx context.Context, tx repository.Tx, tr model.Tournament, a, b *model.Player) ([]pairing, func() error, error) {
	out := []pairing{{scope: model.ScopeHistoric, aID: a.ID, bID: b.ID, a: &a.Standing, b: &b.Standing}}

	var la, lb *model.LeaguePlayer
	if tr.LeagueID != nil {
		x, errA := tx.LeaguePlayer(ctx, *tr.LeagueID, a.ID)
		y, errB := tx.LeaguePlayer(ctx, *tr.LeagueID, b.ID)
		for _, err := range []error{errA, errB} {
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, nil, err
			}
		}
		if errA == nil && errB == nil {
			la, lb = &x, &y
			out = append(out, pairing{scope: model.ScopeLeague, aID: a.ID, bID: b.ID, a: &la.Standing, b: &lb.Standing})
		} else {
			s.logger.Debug(ctx, "league scope skipped", logger.String("league", *tr.LeagueID),
				logger.String("a", a.Name), logger.String("b", b.Name))
		}
	}

	ta, err := s.tournamentPlayer(ctx, tx, tr.ID, a.ID)
	if err != nil {
		return nil, nil, err
	}
	tb, err := s.tournamentPlayer(ctx, tx, tr.ID, b.ID)
	if err != nil {
		return nil, nil, err
	}
	out = append(out, pairing{scope: model.ScopeTournament, aID: a.ID, bID: b.ID, a: &ta.Standing, b: &tb.Standing})

	save := func() error {
		for _, p := range []*model.Player{a, b} {
			if err := tx.SavePlayer(ctx, *p); err != nil {
				return err
			}
		}
		if la != nil {
			for _, lp := range []*model.LeaguePlayer{la, lb} {
				if err := tx.SaveLeaguePlayer(ctx, *lp); err != nil {
					return err
				}
			}
		}
		for _, tp := range []*model.TournamentPlayer{&ta, &tb} {
			if err := tx.SaveTournamentPlayer(ctx, *tp); err != nil {
				return err
			}
		}
		return nil
	}
	return out, save, nil
}

// tournamentPlayer fetches or creates the tournament rating of playerID.
func (s *Service) tournamentPlayer(ctx context.Context, tx repository.Tx, tournamentID, playerID string) (model.TournamentPlayer, error) {
	tp, err := tx.TournamentPlayer(ctx, tournamentID, playerID)
	if err == nil || !errors.Is(err, repository.ErrNotFound) {
		return tp, err
	}
	tp = model.TournamentPlayer{TournamentID: tournamentID, PlayerID: playerID, Standing: model.NewStanding(s.engine.Params())}
	return tp, tx.SaveTournamentPlayer(ctx, tp)
}

// placeInRound returns the round of the match, creating it when missing.
// Without an explicit round the match goes one past the busier player's
// match count in this tournament.
func (s *Service) placeInRound(ctx context.Context, tx repository.Tx, tournamentID string, a, b *model.Player, round int) (int, error) {
	if round <= 0 {
		matches, err := tx.ListMatches(ctx, tournamentID)
		if err != nil {
			return 0, err
		}
		var na, nb int
		for _, m := range matches {
			if a != nil && m.Involves(a.ID) {
				na++
			}
			if b != nil && m.Involves(b.ID) {
				nb++
			}
		}
		round = max(na, nb) + 1
	}

	rounds, err := tx.ListRounds(ctx, tournamentID)
	if err != nil {
		return 0, err
	}
	for _, r := range rounds {
		if r.Number == round {
			return round, nil
		}
	}
	if err := tx.CreateRound(ctx, model.Round{ID: s.newID(), TournamentID: tournamentID, Number: round}); err != nil {
		return 0, err
	}
	return round, nil
}

func playerID(p *model.Player) *string {
	if p == nil {
		return nil
	}
	id := p.ID
	return &id
}
