package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/ladder/internal/app"
	"github.com/okian/ladder/internal/domain/model"
)

// LeagueDependencies defines league queries and event rating.
type LeagueDependencies interface {
	Leagues(ctx context.Context) ([]model.League, error)
	LeagueStandings(ctx context.Context, ref string) ([]Entry, error)
	Tournaments(ctx context.Context, leagueRef string) ([]model.Tournament, error)
	RateEvent(ctx context.Context, batch service.EventBatch) (service.EventReport, error)
	StampEvent(batch service.EventBatch) service.EventBatch
}

// Submitter accepts event batches for later rating. It returns false when
// the batch cannot be queued.
type Submitter interface {
	Enqueue(ctx context.Context, batch service.EventBatch) bool
}

// LeagueHandler handles league and event requests.
type LeagueHandler struct {
	deps      LeagueDependencies
	submitter Submitter
}

// NewLeagueHandler creates a new league handler. A nil submitter disables
// asynchronous submission.
func NewLeagueHandler(deps LeagueDependencies, submitter Submitter) *LeagueHandler {
	return &LeagueHandler{deps: deps, submitter: submitter}
}

type acceptedResponse struct {
	Status  string `json:"status"`
	EventID string `json:"event_id"`
}

// HandleList handles GET /leagues requests.
func (h *LeagueHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	leagues, err := h.deps.Leagues(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if leagues == nil {
		leagues = []model.League{}
	}
	writeJSON(w, http.StatusOK, leagues)
}

// HandleStandings handles GET /leagues/{ref}/standings requests.
func (h *LeagueHandler) HandleStandings(w http.ResponseWriter, r *http.Request) {
	entries, err := h.deps.LeagueStandings(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleTournaments handles GET /leagues/{ref}/tournaments requests.
func (h *LeagueHandler) HandleTournaments(w http.ResponseWriter, r *http.Request) {
	list, err := h.deps.Tournaments(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []model.Tournament{}
	}
	writeJSON(w, http.StatusOK, list)
}

// HandlePostEvent handles POST /events and POST /leagues/{ref}/events. The
// path league, when present, wins over the body.
func (h *LeagueHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	var batch service.EventBatch
	if err := decode(w, r, &batch); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if ref := chi.URLParam(r, "ref"); ref != "" {
		batch.League = ref
	}
	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		h.submit(w, r, batch)
		return
	}
	report, err := h.deps.RateEvent(r.Context(), batch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

// submit queues the batch and answers 202 with the id it will be rated
// under, so clients can detect a later duplicate.
func (h *LeagueHandler) submit(w http.ResponseWriter, r *http.Request, batch service.EventBatch) { //nolint:gocritic // hugeParam: batch is queued by value
	if h.submitter == nil {
		writeServiceError(w, ErrAsyncDisabled)
		return
	}
	batch = h.deps.StampEvent(batch)
	if !h.submitter.Enqueue(r.Context(), batch) {
		writeServiceError(w, ErrQueueFull)
		return
	}
	writeJSON(w, http.StatusAccepted, acceptedResponse{Status: "accepted", EventID: batch.EventID})
}
