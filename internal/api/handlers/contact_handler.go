package handlers

import (
	"context"
	"net/http"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
	apperrors "github.com/lingatchoss/marketplace/pkg/errors"
)

// ContactService builds deep links and records the contact
type ContactService interface {
	ContactService(ctx context.Context, serviceID, lang string) (*entities.ContactLink, error)
	ContactInstitution(ctx context.Context, institutionID string) (*entities.ContactLink, error)
}

// ContactHandler handles contact actions
type ContactHandler struct {
	service         ContactService
	defaultLanguage string
}

// NewContactHandler creates a new contact handler
func NewContactHandler(service ContactService, defaultLanguage string) *ContactHandler {
	return &ContactHandler{service: service, defaultLanguage: defaultLanguage}
}

// ContactService handles POST /api/contact/services/{id}
func (h *ContactHandler) ContactService(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithAppError(w, r, apperrors.NewValidationError("service ID is required"))
		return
	}

	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = h.defaultLanguage
	}

	link, err := h.service.ContactService(r.Context(), id, lang)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, link)
}

// ContactInstitution handles POST /api/contact/institutions/{id}
func (h *ContactHandler) ContactInstitution(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithAppError(w, r, apperrors.NewValidationError("institution ID is required"))
		return
	}

	link, err := h.service.ContactInstitution(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, link)
}
