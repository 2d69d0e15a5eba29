package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/ladder/internal/app"
	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/internal/importer"
)

// TournamentDependencies defines tournament queries and single match rating.
type TournamentDependencies interface {
	Tournaments(ctx context.Context, leagueRef string) ([]model.Tournament, error)
	TournamentStandings(ctx context.Context, tournamentID string) ([]Entry, error)
	TournamentMatches(ctx context.Context, tournamentID string) ([]service.MatchResult, error)
	RateMatch(ctx context.Context, req service.MatchRequest) (model.Match, error)
}

// TournamentHandler handles tournament requests.
type TournamentHandler struct {
	deps TournamentDependencies
}

// NewTournamentHandler creates a new tournament handler.
func NewTournamentHandler(deps TournamentDependencies) *TournamentHandler {
	return &TournamentHandler{deps: deps}
}

// HandleList handles GET /tournaments?league= requests.
func (h *TournamentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.deps.Tournaments(r.Context(), r.URL.Query().Get("league"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []model.Tournament{}
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleStandings handles GET /tournaments/{id}/standings requests.
func (h *TournamentHandler) HandleStandings(w http.ResponseWriter, r *http.Request) {
	entries, err := h.deps.TournamentStandings(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleMatches handles GET /tournaments/{id}/matches requests. With
// ?format=csv the matches come back in the event file format.
func (h *TournamentHandler) HandleMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.deps.TournamentMatches(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		_ = importer.WriteMatches(w, matches)
		return
	}
	if matches == nil {
		matches = []service.MatchResult{}
	}
	writeJSON(w, http.StatusOK, matches)
}

// HandlePostMatch handles POST /tournaments/{id}/matches requests.
func (h *TournamentHandler) HandlePostMatch(w http.ResponseWriter, r *http.Request) {
	var req service.MatchRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	req.TournamentID = chi.URLParam(r, "id")
	m, err := h.deps.RateMatch(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}
