package repository

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/ladder/internal/domain/model"
)

type pairKey struct{ scope, player string }

// state is the full in-memory dataset. Rows are stored by value so a
// shallow copy of every map is an independent snapshot.
type state struct {
	players           map[string]model.Player
	playerByName      map[string]string
	leagues           map[string]model.League
	leagueByName      map[string]string
	leaguePlayers     map[pairKey]model.LeaguePlayer
	tournaments       map[string]model.Tournament
	rounds            map[string]model.Round
	tournamentPlayers map[pairKey]model.TournamentPlayer
	matches           map[string][]model.Match
	matchIDs          map[string]struct{}
	events            map[string]time.Time
}

func newState() *state {
	return &state{
		players:           make(map[string]model.Player),
		playerByName:      make(map[string]string),
		leagues:           make(map[string]model.League),
		leagueByName:      make(map[string]string),
		leaguePlayers:     make(map[pairKey]model.LeaguePlayer),
		tournaments:       make(map[string]model.Tournament),
		rounds:            make(map[string]model.Round),
		tournamentPlayers: make(map[pairKey]model.TournamentPlayer),
		matches:           make(map[string][]model.Match),
		matchIDs:          make(map[string]struct{}),
		events:            make(map[string]time.Time),
	}
}

func (s *state) clone() *state {
	c := &state{
		players:           maps.Clone(s.players),
		playerByName:      maps.Clone(s.playerByName),
		leagues:           maps.Clone(s.leagues),
		leagueByName:      maps.Clone(s.leagueByName),
		leaguePlayers:     maps.Clone(s.leaguePlayers),
		tournaments:       maps.Clone(s.tournaments),
		rounds:            maps.Clone(s.rounds),
		tournamentPlayers: maps.Clone(s.tournamentPlayers),
		matches:           make(map[string][]model.Match, len(s.matches)),
		matchIDs:          maps.Clone(s.matchIDs),
		events:            maps.Clone(s.events),
	}
	for k, v := range s.matches {
		// appends on the copy must not reach the original backing array
		c.matches[k] = slices.Clip(v)
	}
	return c
}

// MemoryStore keeps everything in process memory. Update transactions work
// on a private copy that replaces the shared state only on success.
type MemoryStore struct {
	mu    sync.RWMutex
	state *state
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newState()}
}

func (s *MemoryStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(&memoryTx{st: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *MemoryStore) View(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memoryTx{st: s.state, readOnly: true})
}

func (s *MemoryStore) Close() error { return nil }

type memoryTx struct {
	st       *state
	readOnly bool
}

func (t *memoryTx) writable() error {
	if t.readOnly {
		return ErrReadOnly
	}
	return nil
}

func (t *memoryTx) Player(_ context.Context, id string) (model.Player, error) {
	p, ok := t.st.players[id]
	if !ok {
		return model.Player{}, fmt.Errorf("player %s: %w", id, ErrNotFound)
	}
	return p, nil
}

func (t *memoryTx) PlayerByName(ctx context.Context, name string) (model.Player, error) {
	id, ok := t.st.playerByName[strings.TrimSpace(name)]
	if !ok {
		return model.Player{}, fmt.Errorf("player %q: %w", name, ErrNotFound)
	}
	return t.Player(ctx, id)
}

func (t *memoryTx) CreatePlayer(_ context.Context, p model.Player) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.players[p.ID]; ok {
		return fmt.Errorf("player %s: %w", p.ID, ErrDuplicate)
	}
	if _, ok := t.st.playerByName[p.Name]; ok {
		return fmt.Errorf("player %q: %w", p.Name, ErrDuplicate)
	}
	t.st.players[p.ID] = p
	t.st.playerByName[p.Name] = p.ID
	return nil
}

func (t *memoryTx) SavePlayer(_ context.Context, p model.Player) error {
	if err := t.writable(); err != nil {
		return err
	}
	old, ok := t.st.players[p.ID]
	if !ok {
		return fmt.Errorf("player %s: %w", p.ID, ErrNotFound)
	}
	if old.Name != p.Name {
		if _, taken := t.st.playerByName[p.Name]; taken {
			return fmt.Errorf("player %q: %w", p.Name, ErrDuplicate)
		}
		delete(t.st.playerByName, old.Name)
		t.st.playerByName[p.Name] = p.ID
	}
	t.st.players[p.ID] = p
	return nil
}

func (t *memoryTx) ListPlayers(_ context.Context) ([]model.Player, error) {
	out := slices.Collect(maps.Values(t.st.players))
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *memoryTx) League(_ context.Context, id string) (model.League, error) {
	l, ok := t.st.leagues[id]
	if !ok {
		return model.League{}, fmt.Errorf("league %s: %w", id, ErrNotFound)
	}
	return l, nil
}

func (t *memoryTx) LeagueByName(ctx context.Context, name string) (model.League, error) {
	id, ok := t.st.leagueByName[strings.TrimSpace(name)]
	if !ok {
		return model.League{}, fmt.Errorf("league %q: %w", name, ErrNotFound)
	}
	return t.League(ctx, id)
}

func (t *memoryTx) CreateLeague(_ context.Context, l model.League) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.leagues[l.ID]; ok {
		return fmt.Errorf("league %s: %w", l.ID, ErrDuplicate)
	}
	if _, ok := t.st.leagueByName[l.Name]; ok {
		return fmt.Errorf("league %q: %w", l.Name, ErrDuplicate)
	}
	t.st.leagues[l.ID] = l
	t.st.leagueByName[l.Name] = l.ID
	return nil
}

func (t *memoryTx) ListLeagues(_ context.Context) ([]model.League, error) {
	out := slices.Collect(maps.Values(t.st.leagues))
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *memoryTx) LeaguePlayer(_ context.Context, leagueID, playerID string) (model.LeaguePlayer, error) {
	lp, ok := t.st.leaguePlayers[pairKey{leagueID, playerID}]
	if !ok {
		return model.LeaguePlayer{}, fmt.Errorf("league %s player %s: %w", leagueID, playerID, ErrNotFound)
	}
	return lp, nil
}

func (t *memoryTx) SaveLeaguePlayer(_ context.Context, lp model.LeaguePlayer) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.leagues[lp.LeagueID]; !ok {
		return fmt.Errorf("league %s: %w", lp.LeagueID, ErrNotFound)
	}
	if _, ok := t.st.players[lp.PlayerID]; !ok {
		return fmt.Errorf("player %s: %w", lp.PlayerID, ErrNotFound)
	}
	t.st.leaguePlayers[pairKey{lp.LeagueID, lp.PlayerID}] = lp
	return nil
}

func (t *memoryTx) ListLeaguePlayers(_ context.Context, leagueID string) ([]model.LeaguePlayer, error) {
	var out []model.LeaguePlayer
	for k, lp := range t.st.leaguePlayers {
		if k.scope == leagueID {
			out = append(out, lp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

func (t *memoryTx) Tournament(_ context.Context, id string) (model.Tournament, error) {
	tr, ok := t.st.tournaments[id]
	if !ok {
		return model.Tournament{}, fmt.Errorf("tournament %s: %w", id, ErrNotFound)
	}
	return tr, nil
}

func (t *memoryTx) CreateTournament(_ context.Context, tr model.Tournament) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.tournaments[tr.ID]; ok {
		return fmt.Errorf("tournament %s: %w", tr.ID, ErrDuplicate)
	}
	if tr.LeagueID != nil {
		if _, ok := t.st.leagues[*tr.LeagueID]; !ok {
			return fmt.Errorf("league %s: %w", *tr.LeagueID, ErrNotFound)
		}
	}
	t.st.tournaments[tr.ID] = tr
	return nil
}

func (t *memoryTx) SaveTournament(_ context.Context, tr model.Tournament) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.tournaments[tr.ID]; !ok {
		return fmt.Errorf("tournament %s: %w", tr.ID, ErrNotFound)
	}
	t.st.tournaments[tr.ID] = tr
	return nil
}

func (t *memoryTx) ListTournaments(_ context.Context, leagueID string) ([]model.Tournament, error) {
	var out []model.Tournament
	for _, tr := range t.st.tournaments {
		if leagueID == "" || (tr.LeagueID != nil && *tr.LeagueID == leagueID) {
			out = append(out, tr)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *memoryTx) ListRounds(_ context.Context, tournamentID string) ([]model.Round, error) {
	var out []model.Round
	for _, r := range t.st.rounds {
		if r.TournamentID == tournamentID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (t *memoryTx) CreateRound(_ context.Context, r model.Round) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.tournaments[r.TournamentID]; !ok {
		return fmt.Errorf("tournament %s: %w", r.TournamentID, ErrNotFound)
	}
	if _, ok := t.st.rounds[r.ID]; ok {
		return fmt.Errorf("round %s: %w", r.ID, ErrDuplicate)
	}
	for _, other := range t.st.rounds {
		if other.TournamentID == r.TournamentID && other.Number == r.Number {
			return fmt.Errorf("round %d of %s: %w", r.Number, r.TournamentID, ErrDuplicate)
		}
	}
	t.st.rounds[r.ID] = r
	return nil
}

func (t *memoryTx) DeleteRound(_ context.Context, id string) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.rounds[id]; !ok {
		return fmt.Errorf("round %s: %w", id, ErrNotFound)
	}
	delete(t.st.rounds, id)
	return nil
}

func (t *memoryTx) TournamentPlayer(_ context.Context, tournamentID, playerID string) (model.TournamentPlayer, error) {
	tp, ok := t.st.tournamentPlayers[pairKey{tournamentID, playerID}]
	if !ok {
		return model.TournamentPlayer{}, fmt.Errorf("tournament %s player %s: %w", tournamentID, playerID, ErrNotFound)
	}
	return tp, nil
}

func (t *memoryTx) SaveTournamentPlayer(_ context.Context, tp model.TournamentPlayer) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.tournaments[tp.TournamentID]; !ok {
		return fmt.Errorf("tournament %s: %w", tp.TournamentID, ErrNotFound)
	}
	if _, ok := t.st.players[tp.PlayerID]; !ok {
		return fmt.Errorf("player %s: %w", tp.PlayerID, ErrNotFound)
	}
	t.st.tournamentPlayers[pairKey{tp.TournamentID, tp.PlayerID}] = tp
	return nil
}

func (t *memoryTx) ListTournamentPlayers(_ context.Context, tournamentID string) ([]model.TournamentPlayer, error) {
	var out []model.TournamentPlayer
	for k, tp := range t.st.tournamentPlayers {
		if k.scope == tournamentID {
			out = append(out, tp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

func (t *memoryTx) CreateMatch(_ context.Context, m model.Match) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.tournaments[m.TournamentID]; !ok {
		return fmt.Errorf("tournament %s: %w", m.TournamentID, ErrNotFound)
	}
	if _, ok := t.st.matchIDs[m.ID]; ok {
		return fmt.Errorf("match %s: %w", m.ID, ErrDuplicate)
	}
	m.Games = slices.Clone(m.Games)
	t.st.matches[m.TournamentID] = append(t.st.matches[m.TournamentID], m)
	t.st.matchIDs[m.ID] = struct{}{}
	return nil
}

func (t *memoryTx) ListMatches(_ context.Context, tournamentID string) ([]model.Match, error) {
	return slices.Clone(t.st.matches[tournamentID]), nil
}

func (t *memoryTx) RecordEvent(_ context.Context, id string, at time.Time) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.events[id]; ok {
		return fmt.Errorf("event %s: %w", id, ErrDuplicate)
	}
	t.st.events[id] = at
	return nil
}
