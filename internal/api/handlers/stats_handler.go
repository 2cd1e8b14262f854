package handlers

import (
	"context"
	"net/http"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
)

// StatsService computes dashboard figures
type StatsService interface {
	Dashboard(ctx context.Context, institutionID string) (*entities.DashboardStats, error)
	InteractionsByMonth(ctx context.Context, institutionID, lang string) (*entities.MonthlySeries, error)
}

// StatsHandler serves the institution dashboard
type StatsHandler struct {
	service StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(service StatsService) *StatsHandler {
	return &StatsHandler{service: service}
}

// GetStats handles GET /api/institutions/{id}/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Dashboard(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

// GetInteractionsByMonth handles GET /api/institutions/{id}/stats/interactions
func (h *StatsHandler) GetInteractionsByMonth(w http.ResponseWriter, r *http.Request) {
	series, err := h.service.InteractionsByMonth(r.Context(), r.PathValue("id"), r.URL.Query().Get("lang"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, series)
}
