package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/ladder/internal/importer"
)

const defaultLimit = 10

// PlayerDependencies defines the historic standings queries.
type PlayerDependencies interface {
	Leaderboard(ctx context.Context, n int) ([]Entry, error)
	PlayerStanding(ctx context.Context, ref string) (Entry, error)
	Quality(ctx context.Context, refA, refB string) (float64, error)
}

// PlayerHandler handles player requests.
type PlayerHandler struct {
	deps     PlayerDependencies
	maxLimit int
}

// NewPlayerHandler creates a new player handler.
func NewPlayerHandler(deps PlayerDependencies, maxLimit int) *PlayerHandler {
	return &PlayerHandler{deps: deps, maxLimit: maxLimit}
}

func (h *PlayerHandler) limit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return min(defaultLimit, h.maxLimit), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest)
	}
	if n > h.maxLimit {
		return 0, fmt.Errorf("%w: limit above %d", ErrLimitExceeded, h.maxLimit)
	}
	return n, nil
}

// HandleLeaderboard handles GET /players?limit=N requests.
func (h *PlayerHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	n, err := h.limit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	entries, err := h.deps.Leaderboard(r.Context(), n)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleExport handles GET /players/export, the ranking as CSV.
func (h *PlayerHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	n, err := h.limit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	entries, err := h.deps.Leaderboard(r.Context(), n)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="ranking.csv"`)
	_ = importer.WriteRanking(w, entries)
}

// HandleStanding handles GET /players/{ref} requests. ref is an id or a name.
func (h *PlayerHandler) HandleStanding(w http.ResponseWriter, r *http.Request) {
	entry, err := h.deps.PlayerStanding(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type qualityResponse struct {
	PlayerA string  `json:"player_a"`
	PlayerB string  `json:"player_b"`
	Quality float64 `json:"quality"`
}

// HandleQuality handles GET /quality?a=&b= requests.
func (h *PlayerHandler) HandleQuality(w http.ResponseWriter, r *http.Request) {
	a, b := r.URL.Query().Get("a"), r.URL.Query().Get("b")
	if a == "" || b == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: a and b are required", ErrBadRequest))
		return
	}
	q, err := h.deps.Quality(r.Context(), a, b)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, qualityResponse{PlayerA: a, PlayerB: b, Quality: q})
}
