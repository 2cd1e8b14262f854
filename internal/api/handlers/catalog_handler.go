package handlers

import (
	"context"
	"net/http"

	"github.com/lingatchoss/marketplace/internal/application/services"
	"github.com/lingatchoss/marketplace/internal/domain/entities"
	apperrors "github.com/lingatchoss/marketplace/pkg/errors"
)

// CatalogService creates and edits categories and services for an institution
type CatalogService interface {
	CreateCategory(ctx context.Context, draft services.CategoryDraft) (*entities.Category, error)
	CreateService(ctx context.Context, draft services.ServiceDraft) (*entities.Service, error)
	UpdateService(ctx context.Context, serviceID string, draft services.ServiceDraft) (*entities.Service, error)
	UpdateLocation(ctx context.Context, institutionID string, at entities.Coordinate) error
}

// CatalogHandler handles the institution wizards
type CatalogHandler struct {
	service         CatalogService
	defaultLanguage string
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(service CatalogService, defaultLanguage string) *CatalogHandler {
	return &CatalogHandler{service: service, defaultLanguage: defaultLanguage}
}

// CreateCategory handles POST /api/institutions/{id}/categories
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var draft services.CategoryDraft
	if err := decodeJSON(r, &draft); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	draft.InstitutionID = r.PathValue("id")
	if draft.Language == "" {
		draft.Language = h.defaultLanguage
	}

	category, err := h.service.CreateCategory(r.Context(), draft)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, category)
}

// CreateService handles POST /api/institutions/{id}/services
func (h *CatalogHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var draft services.ServiceDraft
	if err := decodeJSON(r, &draft); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	draft.InstitutionID = r.PathValue("id")

	service, err := h.service.CreateService(r.Context(), draft)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, service)
}

// UpdateService handles PUT /api/institutions/{id}/services/{serviceID}
func (h *CatalogHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	var draft services.ServiceDraft
	if err := decodeJSON(r, &draft); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	draft.InstitutionID = r.PathValue("id")

	service, err := h.service.UpdateService(r.Context(), r.PathValue("serviceID"), draft)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, service)
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// UpdateLocation handles PUT /api/institutions/{id}/location
func (h *CatalogHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		respondWithAppError(w, r, apperrors.NewValidationError("latitude and longitude are required"))
		return
	}

	at := entities.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if err := h.service.UpdateLocation(r.Context(), r.PathValue("id"), at); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, at)
}
