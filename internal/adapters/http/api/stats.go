package api

import (
	"net/http"
)

// StatsProvider reports service statistics.
type StatsProvider interface {
	GetStats() map[string]any
}

// StatFunc samples one live value for GET /stats.
type StatFunc func() any

// StatsHandler handles stats requests.
type StatsHandler struct {
	provider StatsProvider
	extra    map[string]StatFunc
}

// NewStatsHandler creates a stats handler. extra values are sampled on
// every request and override provider keys of the same name.
func NewStatsHandler(provider StatsProvider, extra map[string]StatFunc) *StatsHandler {
	return &StatsHandler{provider: provider, extra: extra}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	out := h.provider.GetStats()
	if out == nil {
		out = make(map[string]any, len(h.extra))
	}
	for name, fn := range h.extra {
		out[name] = fn()
	}
	writeJSON(w, http.StatusOK, out)
}
