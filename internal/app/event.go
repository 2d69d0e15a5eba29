package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/okian/ladder/internal/adapters/repository"
	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/internal/domain/outcome"
	"github.com/okian/ladder/internal/domain/rating"
	"github.com/okian/ladder/internal/domain/trend"
	"github.com/okian/ladder/pkg/logger"
	"github.com/okian/ladder/pkg/metrics"
)

// MatchInput is one line of an event: two player names and their games.
// An empty name or "Bye" marks a bye.
type MatchInput struct {
	PlayerA string         `json:"player_a"`
	PlayerB string         `json:"player_b"`
	Games   []outcome.Game `json:"games"`
}

// EventBatch is every match of one tournament, rated as a single unit.
type EventBatch struct {
	// EventID makes the batch idempotent. When empty a digest of the batch
	// content is used.
	EventID string `json:"event_id,omitempty"`
	// League is a league id or name. Unknown names create the league; empty
	// falls back to the service default league.
	League string `json:"league,omitempty"`
	// TournamentID continues an existing tournament instead of creating one.
	TournamentID *string      `json:"tournament_id,omitempty"`
	Name         string       `json:"name,omitempty"`
	Date         time.Time    `json:"date"`
	SkipDrawn    bool         `json:"skip_drawn,omitempty"`
	Matches      []MatchInput `json:"matches"`
}

// EventReport summarises a committed batch.
type EventReport struct {
	EventID      string  `json:"event_id"`
	TournamentID string  `json:"tournament_id"`
	LeagueID     string  `json:"league_id,omitempty"`
	Matches      int     `json:"matches"`
	Byes         int     `json:"byes"`
	Active       int     `json:"active_players"`
	Decayed      int     `json:"decayed_players"`
	WinnerID     *string `json:"winner_id,omitempty"`
}

// Digest returns the content hash used as the default event id. Undated
// batches should go through Service.StampEvent first so that repeated
// pairings on different days hash apart.
func (b EventBatch) Digest() string {
	canon := b
	canon.EventID = ""
	canon.Date = b.Date.UTC()
	raw, _ := json.Marshal(canon) // plain data, cannot fail
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// snapshots holds ratings as they were before the batch, per scope.
type snapshots map[model.Scope]map[string]float64

func (s snapshots) keep(scope model.Scope, id string, r float64) {
	m, ok := s[scope]
	if !ok {
		m = make(map[string]float64)
		s[scope] = m
	}
	if _, seen := m[id]; !seen {
		m[id] = r
	}
}

func (s snapshots) before(scope model.Scope, id string) (float64, bool) {
	r, ok := s[scope][id]
	return r, ok
}

// RateEvent rates every match of the batch in order, decays everyone who
// sat the event out, classifies trends and closes the tournament. The whole
// batch commits or nothing does.
func (s *Service) RateEvent(ctx context.Context, batch EventBatch) (EventReport, error) {
	if err := s.ready(); err != nil {
		return EventReport{}, err
	}
	start := time.Now()

	batch = s.StampEvent(batch)
	id := batch.EventID
	if !s.tracker.Claim(ctx, id) {
		metrics.RecordEventDuplicate()
		return EventReport{}, fmt.Errorf("event %s: %w", id, ErrDuplicateEvent)
	}

	s.writeMu.Lock()
	var report EventReport
	err := s.store.Update(ctx, func(tx repository.Tx) error {
		var err error
		report, err = s.rateEvent(ctx, tx, id, batch)
		return err
	})
	if err == nil {
		// Still under writeMu: a RateMatch committed after this read would
		// otherwise be overwritten by the older snapshot.
		if rerr := s.reloadStandings(ctx); rerr != nil {
			s.logger.Warn(ctx, "standings reload failed", logger.Error(rerr))
		}
	}
	s.writeMu.Unlock()

	if err != nil {
		if errors.Is(err, ErrDuplicateEvent) {
			metrics.RecordEventDuplicate()
			return EventReport{}, err
		}
		s.tracker.Release(ctx, id)
		metrics.RecordEventFailed(errorKind(err))
		s.logger.Error(ctx, "event rolled back", logger.String("event", id), logger.Error(err))
		return EventReport{}, err
	}

	metrics.RecordEventRated()
	metrics.RecordEventLatency(float64(time.Since(start).Microseconds()) / 1000)
	s.logger.Info(ctx, "event rated",
		logger.String("event", id),
		logger.String("tournament", report.TournamentID),
		logger.Int("matches", report.Matches),
		logger.Int("active", report.Active),
		logger.Int("decayed", report.Decayed),
	)
	for _, o := range s.observers {
		o.EventRated(ctx, report)
	}
	return report, nil
}

// StampEvent resolves the date and id a batch is rated under. An undated
// batch takes the service clock, then a batch without an id takes the
// digest of its content including that date.
func (s *Service) StampEvent(batch EventBatch) EventBatch { //nolint:gocritic // hugeParam: returned modified copy
	if batch.Date.IsZero() {
		batch.Date = s.now()
	}
	batch.EventID = strings.TrimSpace(batch.EventID)
	if batch.EventID == "" {
		batch.EventID = batch.Digest()
	}
	return batch
}

func (s *Service) rateEvent(ctx context.Context, tx repository.Tx, id string, batch EventBatch) (EventReport, error) {
	if len(batch.Matches) == 0 {
		return EventReport{}, fmt.Errorf("%w: event has no matches", ErrInvalidInput)
	}
	if err := tx.RecordEvent(ctx, id, s.now()); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return EventReport{}, fmt.Errorf("event %s: %w", id, ErrDuplicateEvent)
		}
		return EventReport{}, err
	}

	tr, err := s.eventTournament(ctx, tx, batch)
	if err != nil {
		return EventReport{}, err
	}
	report := EventReport{EventID: id, TournamentID: tr.ID}
	if tr.LeagueID != nil {
		report.LeagueID = *tr.LeagueID
	}

	skipDrawn := batch.SkipDrawn || s.skipDrawn
	pre := snapshots{}
	active := map[string]bool{}

	for i, in := range batch.Matches {
		a, b, err := s.eventPlayers(ctx, tx, tr, in, pre, active)
		if err != nil {
			return EventReport{}, fmt.Errorf("match %d (%s vs %s): %w", i+1, in.PlayerA, in.PlayerB, err)
		}
		m, err := s.rateMatch(ctx, tx, tr, a, b, in.Games, 0, skipDrawn)
		if err != nil {
			return EventReport{}, fmt.Errorf("match %d (%s vs %s): %w", i+1, in.PlayerA, in.PlayerB, err)
		}
		report.Matches++
		if m.IsBye() {
			report.Byes++
		}
	}
	report.Active = len(active)

	if report.Decayed, err = s.settle(ctx, tx, tr, pre, active); err != nil {
		return EventReport{}, err
	}
	if report.WinnerID, err = s.finishTournament(ctx, tx, tr); err != nil {
		return EventReport{}, err
	}
	return report, nil
}

// eventTournament continues the named tournament or opens a new one sized
// for the batch.
func (s *Service) eventTournament(ctx context.Context, tx repository.Tx, batch EventBatch) (model.Tournament, error) {
	if batch.TournamentID != nil {
		tr, err := tx.Tournament(ctx, *batch.TournamentID)
		return tr, unresolved(err)
	}

	league, err := s.eventLeague(ctx, tx, batch)
	if err != nil {
		return model.Tournament{}, err
	}
	date := batch.Date
	if date.IsZero() {
		date = s.now()
	}
	name := strings.TrimSpace(batch.Name)
	if name == "" {
		name = "Tournament " + date.Format(time.DateOnly)
	}
	tr := model.Tournament{ID: s.newID(), Name: name, Date: date}
	if league != nil {
		tr.LeagueID = &league.ID
	}
	if err := tx.CreateTournament(ctx, tr); err != nil {
		return model.Tournament{}, err
	}
	for n := 1; n <= swissRounds(participants(batch.Matches)); n++ {
		if err := tx.CreateRound(ctx, model.Round{ID: s.newID(), TournamentID: tr.ID, Number: n}); err != nil {
			return model.Tournament{}, err
		}
	}
	return tr, nil
}

// eventLeague resolves the batch league by id, then name, creating it when
// the name is new. No league at all is allowed.
func (s *Service) eventLeague(ctx context.Context, tx repository.Tx, batch EventBatch) (*model.League, error) {
	ref := strings.TrimSpace(batch.League)
	if ref == "" {
		ref = strings.TrimSpace(s.defaultLeague)
	}
	if ref == "" {
		return nil, nil
	}
	l, err := tx.League(ctx, ref)
	if errors.Is(err, repository.ErrNotFound) {
		l, err = tx.LeagueByName(ctx, ref)
	}
	if errors.Is(err, repository.ErrNotFound) {
		l = model.League{ID: s.newID(), Name: ref, StartDate: s.now()}
		err = tx.CreateLeague(ctx, l)
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// eventPlayers gets or creates both players and their league memberships
// and records pre-batch ratings the first time each player shows up.
func (s *Service) eventPlayers(ctx context.Context, tx repository.Tx, tr model.Tournament, in MatchInput,
	pre snapshots, active map[string]bool,
) (a, b *model.Player, err error) {
	out := [2]*model.Player{}
	for i, name := range []string{in.PlayerA, in.PlayerB} {
		if model.IsBye(name) {
			continue
		}
		p, err := s.ensurePlayer(ctx, tx, name)
		if err != nil {
			return nil, nil, err
		}
		out[i] = &p
		if active[p.ID] {
			continue
		}
		active[p.ID] = true
		pre.keep(model.ScopeHistoric, p.ID, p.Rating)

		if tr.LeagueID != nil {
			lp, err := s.ensureLeaguePlayer(ctx, tx, *tr.LeagueID, p.ID)
			if err != nil {
				return nil, nil, err
			}
			pre.keep(model.ScopeLeague, p.ID, lp.Rating)
		}
		tp, err := tx.TournamentPlayer(ctx, tr.ID, p.ID)
		switch {
		case err == nil:
			pre.keep(model.ScopeTournament, p.ID, tp.Rating)
		case errors.Is(err, repository.ErrNotFound):
			pre.keep(model.ScopeTournament, p.ID, s.engine.Params().DefaultRating)
		default:
			return nil, nil, err
		}
	}
	return out[0], out[1], nil
}

func (s *Service) ensurePlayer(ctx context.Context, tx repository.Tx, name string) (model.Player, error) {
	name = strings.TrimSpace(name)
	p, err := tx.PlayerByName(ctx, name)
	if !errors.Is(err, repository.ErrNotFound) {
		return p, err
	}
	p = model.Player{ID: s.newID(), Name: name, CreatedAt: s.now(), Standing: model.NewStanding(s.engine.Params())}
	return p, tx.CreatePlayer(ctx, p)
}

func (s *Service) ensureLeaguePlayer(ctx context.Context, tx repository.Tx, leagueID, playerID string) (model.LeaguePlayer, error) {
	lp, err := tx.LeaguePlayer(ctx, leagueID, playerID)
	if !errors.Is(err, repository.ErrNotFound) {
		return lp, err
	}
	lp = model.LeaguePlayer{LeagueID: leagueID, PlayerID: playerID, Standing: model.NewStanding(s.engine.Params())}
	return lp, tx.SaveLeaguePlayer(ctx, lp)
}

// settle decays every idle standing once and sets the trend of every
// standing in the three scopes. It returns the number of idle players.
func (s *Service) settle(ctx context.Context, tx repository.Tx, tr model.Tournament, pre snapshots, active map[string]bool) (int, error) {
	players, err := tx.ListPlayers(ctx)
	if err != nil {
		return 0, err
	}
	decayed := 0
	for _, p := range players {
		if err := s.settleOne(model.ScopeHistoric, p.ID, &p.Standing, pre, active); err != nil {
			return 0, err
		}
		if !active[p.ID] {
			decayed++
		}
		if err := tx.SavePlayer(ctx, p); err != nil {
			return 0, err
		}
	}
	metrics.RecordIdleDecays(string(model.ScopeHistoric), decayed)

	if tr.LeagueID != nil {
		members, err := tx.ListLeaguePlayers(ctx, *tr.LeagueID)
		if err != nil {
			return 0, err
		}
		idle := 0
		for _, lp := range members {
			if err := s.settleOne(model.ScopeLeague, lp.PlayerID, &lp.Standing, pre, active); err != nil {
				return 0, err
			}
			if !active[lp.PlayerID] {
				idle++
			}
			if err := tx.SaveLeaguePlayer(ctx, lp); err != nil {
				return 0, err
			}
		}
		metrics.RecordIdleDecays(string(model.ScopeLeague), idle)
	}

	entrants, err := tx.ListTournamentPlayers(ctx, tr.ID)
	if err != nil {
		return 0, err
	}
	idle := 0
	for _, tp := range entrants {
		if err := s.settleOne(model.ScopeTournament, tp.PlayerID, &tp.Standing, pre, active); err != nil {
			return 0, err
		}
		if !active[tp.PlayerID] {
			idle++
		}
		if err := tx.SaveTournamentPlayer(ctx, tp); err != nil {
			return 0, err
		}
	}
	metrics.RecordIdleDecays(string(model.ScopeTournament), idle)

	s.logger.Debug(ctx, "idle decay applied", logger.Int("players", decayed), logger.String("tournament", tr.ID))
	return decayed, nil
}

// settleOne decays an idle standing or classifies an active one.
func (s *Service) settleOne(scope model.Scope, id string, st *model.Standing, pre snapshots, active map[string]bool) error {
	if !active[id] {
		st.Trend = trend.Neutral
		return s.decay(scope, id, st)
	}
	before, ok := pre.before(scope, id)
	if !ok {
		before = st.Rating
	}
	st.Trend = trend.Classify(before, st.Rating)
	return nil
}

// finishTournament names the winner and drops rounds nobody played.
func (s *Service) finishTournament(ctx context.Context, tx repository.Tx, tr model.Tournament) (*string, error) {
	entrants, err := tx.ListTournamentPlayers(ctx, tr.ID)
	if err != nil {
		return nil, err
	}
	if len(entrants) > 0 {
		names := make(map[string]string, len(entrants))
		for _, tp := range entrants {
			p, err := tx.Player(ctx, tp.PlayerID)
			if err != nil {
				return nil, err
			}
			names[tp.PlayerID] = p.Name
		}
		sort.SliceStable(entrants, func(i, j int) bool {
			if entrants[i].Rating != entrants[j].Rating {
				return entrants[i].Rating > entrants[j].Rating
			}
			return names[entrants[i].PlayerID] < names[entrants[j].PlayerID]
		})
		winner := entrants[0].PlayerID
		tr.WinnerID = &winner
		if err := tx.SaveTournament(ctx, tr); err != nil {
			return nil, err
		}
	}

	matches, err := tx.ListMatches(ctx, tr.ID)
	if err != nil {
		return nil, err
	}
	played := map[int]bool{}
	for _, m := range matches {
		played[m.RoundNumber] = true
	}
	rounds, err := tx.ListRounds(ctx, tr.ID)
	if err != nil {
		return nil, err
	}
	for _, r := range rounds {
		if !played[r.Number] {
			if err := tx.DeleteRound(ctx, r.ID); err != nil {
				return nil, err
			}
		}
	}
	return tr.WinnerID, nil
}

// participants counts distinct non-bye names.
func participants(matches []MatchInput) int {
	seen := map[string]bool{}
	for _, m := range matches {
		for _, name := range []string{m.PlayerA, m.PlayerB} {
			if !model.IsBye(name) {
				seen[strings.TrimSpace(name)] = true
			}
		}
	}
	return len(seen)
}

// swissRounds is the number of Swiss rounds for n players, at least one.
func swissRounds(n int) int {
	if n <= 2 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(n))))
}

// errorKind labels a failure for metrics.
func errorKind(err error) string {
	switch {
	case errors.Is(err, outcome.ErrInvalidGames), errors.Is(err, outcome.ErrInvalidScore), errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrUnresolved):
		return "unresolved"
	case errors.Is(err, rating.ErrInvalidState), errors.Is(err, rating.ErrNoConvergence):
		return "engine"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "store"
	}
}
