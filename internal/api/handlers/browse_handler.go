package handlers

import (
	"context"
	"net/http"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
)

// BrowseService reads institution and service pages
type BrowseService interface {
	InstitutionDetail(ctx context.Context, institutionID, lang string) (*entities.InstitutionDetail, error)
	ServiceDetail(ctx context.Context, serviceID, lang string) (*entities.ServiceDetail, error)
	InstitutionServices(ctx context.Context, institutionID, lang string) ([]entities.ServiceView, error)
	InstitutionCategories(ctx context.Context, institutionID, lang string) ([]entities.CategoryView, error)
}

// BrowseHandler serves the public detail pages and the dashboard listing
type BrowseHandler struct {
	service         BrowseService
	defaultLanguage string
}

// NewBrowseHandler creates a new browse handler
func NewBrowseHandler(service BrowseService, defaultLanguage string) *BrowseHandler {
	return &BrowseHandler{service: service, defaultLanguage: defaultLanguage}
}

// InstitutionListing is the dashboard view of an institution's own catalog
type InstitutionListing struct {
	Services   []entities.ServiceView  `json:"services"`
	Categories []entities.CategoryView `json:"categories"`
}

// GetInstitution handles GET /api/institutions/{id}
func (h *BrowseHandler) GetInstitution(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.InstitutionDetail(r.Context(), r.PathValue("id"), h.language(r))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, detail)
}

// GetService handles GET /api/services/{id}
func (h *BrowseHandler) GetService(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.ServiceDetail(r.Context(), r.PathValue("id"), h.language(r))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, detail)
}

// ListInstitutionServices handles GET /api/institutions/{id}/services
func (h *BrowseHandler) ListInstitutionServices(w http.ResponseWriter, r *http.Request) {
	id, lang := r.PathValue("id"), h.language(r)

	services, err := h.service.InstitutionServices(r.Context(), id, lang)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	categories, err := h.service.InstitutionCategories(r.Context(), id, lang)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, InstitutionListing{Services: services, Categories: categories})
}

func (h *BrowseHandler) language(r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return lang
	}
	return h.defaultLanguage
}
