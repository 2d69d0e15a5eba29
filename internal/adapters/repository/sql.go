package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/internal/domain/trend"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

const timeLayout = time.RFC3339Nano

// SQLOption configures NewSQLStore.
type SQLOption func(*SQLStore)

// WithMigrations replaces the embedded schema, mostly for tests.
func WithMigrations(fsys fs.FS, dir string) SQLOption {
	return func(s *SQLStore) {
		s.migrations, s.migrationsDir = fsys, dir
	}
}

// SQLStore persists to SQLite or Postgres through database/sql. Queries use
// $N placeholders, which both drivers accept.
type SQLStore struct {
	db            *sql.DB
	driver        string
	migrations    fs.FS
	migrationsDir string
}

// NewSQLStore opens dsn with driver and applies pending migrations.
func NewSQLStore(ctx context.Context, driver, dsn string, opts ...SQLOption) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("store dsn is required")
	}
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	s := &SQLStore{driver: driver, migrations: embeddedMigrations, migrationsDir: "migrations"}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// one connection: ":memory:" databases are per connection and
		// SQLite serializes writers anyway
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}
	if err := applyMigrations(ctx, db, s.migrations, s.migrationsDir); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.db = db
	return s, nil
}

func (s *SQLStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	return s.run(ctx, false, fn)
}

func (s *SQLStore) View(ctx context.Context, fn func(tx Tx) error) error {
	return s.run(ctx, true, fn)
}

func (s *SQLStore) run(ctx context.Context, readOnly bool, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op after commit

	if err := fn(&sqlTx{tx: tx, readOnly: readOnly}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *SQLStore) Close() error { return s.db.Close() }

type sqlTx struct {
	tx       *sql.Tx
	readOnly bool
}

func (t *sqlTx) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if t.readOnly {
		return nil, ErrReadOnly
	}
	return t.tx.ExecContext(ctx, query, args...)
}

// notFound maps sql.ErrNoRows to ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// exists reports whether query returns a row.
func (t *sqlTx) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func formatTime(v time.Time) string { return v.UTC().Format(timeLayout) }

func parseTime(v string) (time.Time, error) { return time.Parse(timeLayout, v) }

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

type scanner interface{ Scan(dest ...any) error }

const standingColumns = `rating, deviation, volatility, played, won, lost, drawn, trend`

func standingDest(st *model.Standing, lvl *int) []any {
	return []any{&st.Rating, &st.Deviation, &st.Volatility, &st.Record.Played, &st.Record.Won, &st.Record.Lost, &st.Record.Drawn, lvl}
}

func standingArgs(st model.Standing) []any {
	return []any{st.Rating, st.Deviation, st.Volatility, st.Record.Played, st.Record.Won, st.Record.Lost, st.Record.Drawn, int(st.Trend)}
}

// players

const playerColumns = `id, name, created_at, ` + standingColumns

func scanPlayer(row scanner) (model.Player, error) {
	var (
		p       model.Player
		created string
		lvl     int
	)
	dest := append([]any{&p.ID, &p.Name, &created}, standingDest(&p.Standing, &lvl)...)
	if err := row.Scan(dest...); err != nil {
		return model.Player{}, err
	}
	p.Trend = trend.Level(lvl)
	var err error
	p.CreatedAt, err = parseTime(created)
	return p, err
}

func (t *sqlTx) Player(ctx context.Context, id string) (model.Player, error) {
	p, err := scanPlayer(t.tx.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, id))
	if err != nil {
		return model.Player{}, notFound(err, "player "+id)
	}
	return p, nil
}

func (t *sqlTx) PlayerByName(ctx context.Context, name string) (model.Player, error) {
	name = strings.TrimSpace(name)
	p, err := scanPlayer(t.tx.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE name = $1`, name))
	if err != nil {
		return model.Player{}, notFound(err, fmt.Sprintf("player %q", name))
	}
	return p, nil
}

func (t *sqlTx) CreatePlayer(ctx context.Context, p model.Player) error {
	taken, err := t.exists(ctx, `SELECT 1 FROM players WHERE id = $1 OR name = $2`, p.ID, p.Name)
	if err != nil {
		return fmt.Errorf("check player: %w", err)
	}
	if taken {
		return fmt.Errorf("player %q: %w", p.Name, ErrDuplicate)
	}
	args := append([]any{p.ID, p.Name, formatTime(p.CreatedAt)}, standingArgs(p.Standing)...)
	if _, err := t.exec(ctx, `INSERT INTO players (`+playerColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`, args...); err != nil {
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

func (t *sqlTx) SavePlayer(ctx context.Context, p model.Player) error {
	args := append([]any{p.ID, p.Name}, standingArgs(p.Standing)...)
	res, err := t.exec(ctx, `UPDATE players SET name = $2, rating = $3, deviation = $4, volatility = $5,
		played = $6, won = $7, lost = $8, drawn = $9, trend = $10 WHERE id = $1`, args...)
	if err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	return affected(res, "player "+p.ID)
}

func (t *sqlTx) ListPlayers(ctx context.Context) ([]model.Player, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT `+playerColumns+` FROM players ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var out []model.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func affected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

// leagues

const leagueColumns = `id, name, description, start_date, end_date`

func scanLeague(row scanner) (model.League, error) {
	var (
		l     model.League
		start string
		end   sql.NullString
	)
	if err := row.Scan(&l.ID, &l.Name, &l.Description, &start, &end); err != nil {
		return model.League{}, err
	}
	var err error
	if l.StartDate, err = parseTime(start); err != nil {
		return model.League{}, err
	}
	if end.Valid {
		e, err := parseTime(end.String)
		if err != nil {
			return model.League{}, err
		}
		l.EndDate = &e
	}
	return l, nil
}

func (t *sqlTx) League(ctx context.Context, id string) (model.League, error) {
	l, err := scanLeague(t.tx.QueryRowContext(ctx, `SELECT `+leagueColumns+` FROM leagues WHERE id = $1`, id))
	if err != nil {
		return model.League{}, notFound(err, "league "+id)
	}
	return l, nil
}

func (t *sqlTx) LeagueByName(ctx context.Context, name string) (model.League, error) {
	name = strings.TrimSpace(name)
	l, err := scanLeague(t.tx.QueryRowContext(ctx, `SELECT `+leagueColumns+` FROM leagues WHERE name = $1`, name))
	if err != nil {
		return model.League{}, notFound(err, fmt.Sprintf("league %q", name))
	}
	return l, nil
}

func (t *sqlTx) CreateLeague(ctx context.Context, l model.League) error {
	taken, err := t.exists(ctx, `SELECT 1 FROM leagues WHERE id = $1 OR name = $2`, l.ID, l.Name)
	if err != nil {
		return fmt.Errorf("check league: %w", err)
	}
	if taken {
		return fmt.Errorf("league %q: %w", l.Name, ErrDuplicate)
	}
	var end sql.NullString
	if l.EndDate != nil {
		end = sql.NullString{String: formatTime(*l.EndDate), Valid: true}
	}
	if _, err := t.exec(ctx, `INSERT INTO leagues (`+leagueColumns+`) VALUES ($1,$2,$3,$4,$5)`,
		l.ID, l.Name, l.Description, formatTime(l.StartDate), end); err != nil {
		return fmt.Errorf("insert league: %w", err)
	}
	return nil
}

func (t *sqlTx) ListLeagues(ctx context.Context) ([]model.League, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT `+leagueColumns+` FROM leagues ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}
	defer rows.Close()

	var out []model.League
	for rows.Next() {
		l, err := scanLeague(rows)
		if err != nil {
			return nil, fmt.Errorf("scan league: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// league players

func scanLeaguePlayer(row scanner) (model.LeaguePlayer, error) {
	var (
		lp  model.LeaguePlayer
		lvl int
	)
	dest := append([]any{&lp.LeagueID, &lp.PlayerID}, standingDest(&lp.Standing, &lvl)...)
	if err := row.Scan(dest...); err != nil {
		return model.LeaguePlayer{}, err
	}
	lp.Trend = trend.Level(lvl)
	return lp, nil
}

func (t *sqlTx) LeaguePlayer(ctx context.Context, leagueID, playerID string) (model.LeaguePlayer, error) {
	lp, err := scanLeaguePlayer(t.tx.QueryRowContext(ctx,
		`SELECT league_id, player_id, `+standingColumns+` FROM league_players WHERE league_id = $1 AND player_id = $2`,
		leagueID, playerID))
	if err != nil {
		return model.LeaguePlayer{}, notFound(err, fmt.Sprintf("league %s player %s", leagueID, playerID))
	}
	return lp, nil
}

const upsertStanding = `
	ON CONFLICT (%s, player_id) DO UPDATE SET
		rating = excluded.rating, deviation = excluded.deviation, volatility = excluded.volatility,
		played = excluded.played, won = excluded.won, lost = excluded.lost, drawn = excluded.drawn,
		trend = excluded.trend`

func (t *sqlTx) SaveLeaguePlayer(ctx context.Context, lp model.LeaguePlayer) error {
	if err := t.parentsExist(ctx, "leagues", lp.LeagueID, lp.PlayerID); err != nil {
		return err
	}
	args := append([]any{lp.LeagueID, lp.PlayerID}, standingArgs(lp.Standing)...)
	if _, err := t.exec(ctx, `INSERT INTO league_players (league_id, player_id, `+standingColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`+fmt.Sprintf(upsertStanding, "league_id"), args...); err != nil {
		return fmt.Errorf("save league player: %w", err)
	}
	return nil
}

// parentsExist turns missing foreign keys into ErrNotFound so both stores
// report the same error.
func (t *sqlTx) parentsExist(ctx context.Context, table, scopeID, playerID string) error {
	ok, err := t.exists(ctx, `SELECT 1 FROM `+table+` WHERE id = $1`, scopeID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s %s: %w", strings.TrimSuffix(table, "s"), scopeID, ErrNotFound)
	}
	if playerID == "" {
		return nil
	}
	ok, err = t.exists(ctx, `SELECT 1 FROM players WHERE id = $1`, playerID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("player %s: %w", playerID, ErrNotFound)
	}
	return nil
}

func (t *sqlTx) ListLeaguePlayers(ctx context.Context, leagueID string) ([]model.LeaguePlayer, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT league_id, player_id, `+standingColumns+` FROM league_players WHERE league_id = $1 ORDER BY player_id`, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list league players: %w", err)
	}
	defer rows.Close()

	var out []model.LeaguePlayer
	for rows.Next() {
		lp, err := scanLeaguePlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan league player: %w", err)
		}
		out = append(out, lp)
	}
	return out, rows.Err()
}

// tournaments

const tournamentColumns = `id, name, date, league_id, winner_id`

func scanTournament(row scanner) (model.Tournament, error) {
	var (
		tr             model.Tournament
		date           string
		league, winner sql.NullString
	)
	if err := row.Scan(&tr.ID, &tr.Name, &date, &league, &winner); err != nil {
		return model.Tournament{}, err
	}
	var err error
	tr.Date, err = parseTime(date)
	tr.LeagueID, tr.WinnerID = stringPtr(league), stringPtr(winner)
	return tr, err
}

func (t *sqlTx) Tournament(ctx context.Context, id string) (model.Tournament, error) {
	tr, err := scanTournament(t.tx.QueryRowContext(ctx, `SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1`, id))
	if err != nil {
		return model.Tournament{}, notFound(err, "tournament "+id)
	}
	return tr, nil
}

func (t *sqlTx) CreateTournament(ctx context.Context, tr model.Tournament) error {
	taken, err := t.exists(ctx, `SELECT 1 FROM tournaments WHERE id = $1`, tr.ID)
	if err != nil {
		return fmt.Errorf("check tournament: %w", err)
	}
	if taken {
		return fmt.Errorf("tournament %s: %w", tr.ID, ErrDuplicate)
	}
	if tr.LeagueID != nil {
		if err := t.parentsExist(ctx, "leagues", *tr.LeagueID, ""); err != nil {
			return err
		}
	}
	if _, err := t.exec(ctx, `INSERT INTO tournaments (`+tournamentColumns+`) VALUES ($1,$2,$3,$4,$5)`,
		tr.ID, tr.Name, formatTime(tr.Date), nullString(tr.LeagueID), nullString(tr.WinnerID)); err != nil {
		return fmt.Errorf("insert tournament: %w", err)
	}
	return nil
}

func (t *sqlTx) SaveTournament(ctx context.Context, tr model.Tournament) error {
	res, err := t.exec(ctx, `UPDATE tournaments SET name = $2, date = $3, league_id = $4, winner_id = $5 WHERE id = $1`,
		tr.ID, tr.Name, formatTime(tr.Date), nullString(tr.LeagueID), nullString(tr.WinnerID))
	if err != nil {
		return fmt.Errorf("update tournament: %w", err)
	}
	return affected(res, "tournament "+tr.ID)
}

func (t *sqlTx) ListTournaments(ctx context.Context, leagueID string) ([]model.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments`
	var args []any
	if leagueID != "" {
		query += ` WHERE league_id = $1`
		args = append(args, leagueID)
	}
	rows, err := t.tx.QueryContext(ctx, query+` ORDER BY date, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}
	defer rows.Close()

	var out []model.Tournament
	for rows.Next() {
		tr, err := scanTournament(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tournament: %w", err)
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

// rounds

func (t *sqlTx) ListRounds(ctx context.Context, tournamentID string) ([]model.Round, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT id, tournament_id, number FROM rounds WHERE tournament_id = $1 ORDER BY number`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	defer rows.Close()

	var out []model.Round
	for rows.Next() {
		var r model.Round
		if err := rows.Scan(&r.ID, &r.TournamentID, &r.Number); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (t *sqlTx) CreateRound(ctx context.Context, r model.Round) error {
	if err := t.parentsExist(ctx, "tournaments", r.TournamentID, ""); err != nil {
		return err
	}
	taken, err := t.exists(ctx, `SELECT 1 FROM rounds WHERE id = $1 OR (tournament_id = $2 AND number = $3)`,
		r.ID, r.TournamentID, r.Number)
	if err != nil {
		return fmt.Errorf("check round: %w", err)
	}
	if taken {
		return fmt.Errorf("round %d of %s: %w", r.Number, r.TournamentID, ErrDuplicate)
	}
	if _, err := t.exec(ctx, `INSERT INTO rounds (id, tournament_id, number) VALUES ($1,$2,$3)`,
		r.ID, r.TournamentID, r.Number); err != nil {
		return fmt.Errorf("insert round: %w", err)
	}
	return nil
}

func (t *sqlTx) DeleteRound(ctx context.Context, id string) error {
	res, err := t.exec(ctx, `DELETE FROM rounds WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete round: %w", err)
	}
	return affected(res, "round "+id)
}

// tournament players

func scanTournamentPlayer(row scanner) (model.TournamentPlayer, error) {
	var (
		tp  model.TournamentPlayer
		lvl int
	)
	dest := append([]any{&tp.TournamentID, &tp.PlayerID}, standingDest(&tp.Standing, &lvl)...)
	if err := row.Scan(dest...); err != nil {
		return model.TournamentPlayer{}, err
	}
	tp.Trend = trend.Level(lvl)
	return tp, nil
}

func (t *sqlTx) TournamentPlayer(ctx context.Context, tournamentID, playerID string) (model.TournamentPlayer, error) {
	tp, err := scanTournamentPlayer(t.tx.QueryRowContext(ctx,
		`SELECT tournament_id, player_id, `+standingColumns+` FROM tournament_players WHERE tournament_id = $1 AND player_id = $2`,
		tournamentID, playerID))
	if err != nil {
		return model.TournamentPlayer{}, notFound(err, fmt.Sprintf("tournament %s player %s", tournamentID, playerID))
	}
	return tp, nil
}

func (t *sqlTx) SaveTournamentPlayer(ctx context.Context, tp model.TournamentPlayer) error {
	if err := t.parentsExist(ctx, "tournaments", tp.TournamentID, tp.PlayerID); err != nil {
		return err
	}
	args := append([]any{tp.TournamentID, tp.PlayerID}, standingArgs(tp.Standing)...)
	if _, err := t.exec(ctx, `INSERT INTO tournament_players (tournament_id, player_id, `+standingColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`+fmt.Sprintf(upsertStanding, "tournament_id"), args...); err != nil {
		return fmt.Errorf("save tournament player: %w", err)
	}
	return nil
}

func (t *sqlTx) ListTournamentPlayers(ctx context.Context, tournamentID string) ([]model.TournamentPlayer, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT tournament_id, player_id, `+standingColumns+` FROM tournament_players WHERE tournament_id = $1 ORDER BY player_id`,
		tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list tournament players: %w", err)
	}
	defer rows.Close()

	var out []model.TournamentPlayer
	for rows.Next() {
		tp, err := scanTournamentPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tournament player: %w", err)
		}
		out = append(out, tp)
	}
	return out, rows.Err()
}

// matches

const matchColumns = `id, tournament_id, round_number, player_a_id, player_b_id, games, score_a, score_b, winner_id, created_at`

func (t *sqlTx) CreateMatch(ctx context.Context, m model.Match) error {
	if err := t.parentsExist(ctx, "tournaments", m.TournamentID, ""); err != nil {
		return err
	}
	taken, err := t.exists(ctx, `SELECT 1 FROM matches WHERE id = $1`, m.ID)
	if err != nil {
		return fmt.Errorf("check match: %w", err)
	}
	if taken {
		return fmt.Errorf("match %s: %w", m.ID, ErrDuplicate)
	}
	games, err := json.Marshal(m.Games)
	if err != nil {
		return fmt.Errorf("encode games: %w", err)
	}
	var position int
	if err := t.tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), 0) + 1 FROM matches WHERE tournament_id = $1`,
		m.TournamentID).Scan(&position); err != nil {
		return fmt.Errorf("next match position: %w", err)
	}
	if _, err := t.exec(ctx, `INSERT INTO matches (`+matchColumns+`, position) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		m.ID, m.TournamentID, m.RoundNumber, nullString(m.PlayerAID), nullString(m.PlayerBID), string(games),
		m.ScoreA, m.ScoreB, nullString(m.WinnerID), formatTime(m.CreatedAt), position); err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

func (t *sqlTx) ListMatches(ctx context.Context, tournamentID string) ([]model.Match, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE tournament_id = $1 ORDER BY position`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var out []model.Match
	for rows.Next() {
		var (
			m            model.Match
			a, b, winner sql.NullString
			games        string
			created      string
		)
		if err := rows.Scan(&m.ID, &m.TournamentID, &m.RoundNumber, &a, &b, &games, &m.ScoreA, &m.ScoreB, &winner, &created); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		if err := json.Unmarshal([]byte(games), &m.Games); err != nil {
			return nil, fmt.Errorf("decode games of match %s: %w", m.ID, err)
		}
		if m.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("parse match time: %w", err)
		}
		m.PlayerAID, m.PlayerBID, m.WinnerID = stringPtr(a), stringPtr(b), stringPtr(winner)
		out = append(out, m)
	}
	return out, rows.Err()
}

// events

func (t *sqlTx) RecordEvent(ctx context.Context, id string, at time.Time) error {
	taken, err := t.exists(ctx, `SELECT 1 FROM rated_events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("check event: %w", err)
	}
	if taken {
		return fmt.Errorf("event %s: %w", id, ErrDuplicate)
	}
	if _, err := t.exec(ctx, `INSERT INTO rated_events (id, rated_at) VALUES ($1,$2)`, id, formatTime(at)); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

var (
	_ Store = (*SQLStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
