// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/ladder/internal/adapters/repository"
	service "github.com/okian/ladder/internal/app"
	"github.com/okian/ladder/internal/domain/outcome"
	"github.com/okian/ladder/internal/domain/types"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Entry mirrors the read shape returned by standings queries.
type Entry = types.Entry

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	PlayerDependencies
	LeagueDependencies
	TournamentDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	playerHandler     *PlayerHandler
	leagueHandler     *LeagueHandler
	tournamentHandler *TournamentHandler
}

// Option configures the Server.
type Option func(*options)

type options struct {
	maxLimit  int
	submitter Submitter
	stats     map[string]StatFunc
}

// WithMaxLimit caps the leaderboard size a client may request.
func WithMaxLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxLimit = n
		}
	}
}

// WithSubmitter enables asynchronous event submission through POST
// /events?async=true.
func WithSubmitter(sub Submitter) Option {
	return func(o *options) { o.submitter = sub }
}

// WithStat adds a live value to GET /stats.
func WithStat(name string, fn StatFunc) Option {
	return func(o *options) {
		if name == "" || fn == nil {
			return
		}
		if o.stats == nil {
			o.stats = make(map[string]StatFunc)
		}
		o.stats[name] = fn
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	o := options{maxLimit: 100}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(deps, o.stats),
		playerHandler:     NewPlayerHandler(deps, o.maxLimit),
		leagueHandler:     NewLeagueHandler(deps, o.submitter),
		tournamentHandler: NewTournamentHandler(deps),
	}
}

// Routes returns the router with every endpoint attached.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/metrics", s.healthHandler.HandleMetrics)
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Get("/players", MetricsMiddleware(s.playerHandler.HandleLeaderboard, "players"))
	r.Get("/players/export", MetricsMiddleware(s.playerHandler.HandleExport, "players_export"))
	r.Get("/players/{ref}", MetricsMiddleware(s.playerHandler.HandleStanding, "player"))
	r.Get("/quality", MetricsMiddleware(s.playerHandler.HandleQuality, "quality"))

	r.Post("/events", MetricsMiddleware(s.leagueHandler.HandlePostEvent, "events"))
	r.Get("/leagues", MetricsMiddleware(s.leagueHandler.HandleList, "leagues"))
	r.Get("/leagues/{ref}/standings", MetricsMiddleware(s.leagueHandler.HandleStandings, "league_standings"))
	r.Get("/leagues/{ref}/tournaments", MetricsMiddleware(s.leagueHandler.HandleTournaments, "league_tournaments"))
	r.Post("/leagues/{ref}/events", MetricsMiddleware(s.leagueHandler.HandlePostEvent, "league_events"))

	r.Get("/tournaments", MetricsMiddleware(s.tournamentHandler.HandleList, "tournaments"))
	r.Get("/tournaments/{id}/standings", MetricsMiddleware(s.tournamentHandler.HandleStandings, "tournament_standings"))
	r.Get("/tournaments/{id}/matches", MetricsMiddleware(s.tournamentHandler.HandleMatches, "tournament_matches"))
	r.Post("/tournaments/{id}/matches", MetricsMiddleware(s.tournamentHandler.HandlePostMatch, "tournament_match"))

	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service error kinds into HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, outcome.ErrInvalidGames),
		errors.Is(err, outcome.ErrInvalidScore):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrUnresolved), errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrDuplicateEvent):
		writeError(w, http.StatusConflict, "duplicate", err)
	case errors.Is(err, ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, ErrAsyncDisabled):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// decode reads a JSON body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}
