package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lingatchoss/marketplace/internal/api/handlers"
	"github.com/lingatchoss/marketplace/internal/domain/entities"
	apperrors "github.com/lingatchoss/marketplace/pkg/errors"
)

func TestStatsHandler_GetStats(t *testing.T) {
	svc := new(MockStatsService)
	h := handlers.NewStatsHandler(svc)

	stats := &entities.DashboardStats{
		InstitutionID: "inst-1",
		Interactions:  entities.MonthlyCount{Current: 12, Previous: 8, PercentageChange: 50},
		Services:      entities.MonthlyCount{Current: 3, Previous: 0, PercentageChange: 100},
	}
	svc.On("Dashboard", mock.Anything, "inst-1").Return(stats, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/institutions/inst-1/stats", nil)
	req.SetPathValue("id", "inst-1")
	w := httptest.NewRecorder()

	h.GetStats(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got entities.DashboardStats
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, *stats, got)
}

func TestStatsHandler_GetStatsError(t *testing.T) {
	svc := new(MockStatsService)
	h := handlers.NewStatsHandler(svc)
	svc.On("Dashboard", mock.Anything, "inst-1").
		Return(nil, apperrors.NewInternalError("failed to count interactions", assert.AnError)).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/institutions/inst-1/stats", nil)
	req.SetPathValue("id", "inst-1")
	w := httptest.NewRecorder()

	h.GetStats(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestStatsHandler_GetInteractionsByMonth(t *testing.T) {
	svc := new(MockStatsService)
	h := handlers.NewStatsHandler(svc)

	series := &entities.MonthlySeries{
		InstitutionID: "inst-1",
		Year:          2026,
		Language:      "en",
		Months:        []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
		Counts:        []int{4, 0, 0, 0, 0, 0, 0, 0, 0, 2, 0, 0},
	}
	svc.On("InteractionsByMonth", mock.Anything, "inst-1", "en").Return(series, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/institutions/inst-1/stats/interactions?lang=en", nil)
	req.SetPathValue("id", "inst-1")
	w := httptest.NewRecorder()

	h.GetInteractionsByMonth(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got entities.MonthlySeries
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, *series, got)
	svc.AssertExpectations(t)
}
