package handlers

import (
	"context"
	"net/http"

	"github.com/lingatchoss/marketplace/internal/adapters/providers/geolocation"
	"github.com/lingatchoss/marketplace/internal/api/middleware"
	"github.com/lingatchoss/marketplace/internal/application/services"
	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/providers"
	apperrors "github.com/lingatchoss/marketplace/pkg/errors"
)

// DiscoveryService is the discovery pipeline as seen by the HTTP layer
type DiscoveryService interface {
	Session(ctx context.Context, clientID, override string) entities.Session
	SetLanguage(ctx context.Context, clientID, lang string) error
	RefreshLocation(ctx context.Context, clientID string) error
	Discover(ctx context.Context, session entities.Session, locator providers.DeviceLocator, query entities.DiscoveryQuery) entities.DiscoveryOutcome[entities.DiscoveryResult]
	NearbyInstitutions(ctx context.Context, session entities.Session, locator providers.DeviceLocator) entities.DiscoveryOutcome[entities.RankedInstitution]
	Categories(ctx context.Context, session entities.Session, locator providers.DeviceLocator) entities.DiscoveryOutcome[entities.CategoryView]
}

// DiscoveryHandler serves the consumer discovery pages
type DiscoveryHandler struct {
	service      DiscoveryService
	geocoder     providers.Geocoder
	presenter    *services.Presenter
	defaultLimit int
}

// NewDiscoveryHandler creates a new discovery handler. geocoder may be nil.
func NewDiscoveryHandler(service DiscoveryService, geocoder providers.Geocoder, presenter *services.Presenter, defaultLimit int) *DiscoveryHandler {
	return &DiscoveryHandler{
		service:      service,
		geocoder:     geocoder,
		presenter:    presenter,
		defaultLimit: defaultLimit,
	}
}

// ServiceCard is a discovery result ready for a list card
type ServiceCard struct {
	entities.DiscoveryResult
	DisplayName string `json:"display_name"`
	PriceLabel  string `json:"price_label"`
}

// ServicesResponse is the body of GET /api/discovery/services
type ServicesResponse struct {
	Status     entities.DiscoveryStatus `json:"status"`
	Items      []ServiceCard            `json:"items"`
	Location   *entities.Coordinate     `json:"location,omitempty"`
	Failure    string                   `json:"failure,omitempty"`
	Generation uint64                   `json:"generation"`
	Language   string                   `json:"language"`
}

// ListServices handles GET /api/discovery/services
func (h *DiscoveryHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", h.defaultLimit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	q := r.URL.Query()
	session := h.session(r)
	query := entities.DiscoveryQuery{
		SearchText: q.Get("q"),
		CategoryID: q.Get("category"),
		Limit:      limit,
	}

	outcome := h.service.Discover(r.Context(), session, h.locator(r), query)

	cards := make([]ServiceCard, 0, len(outcome.Items))
	for _, item := range outcome.Items {
		cards = append(cards, ServiceCard{
			DiscoveryResult: item,
			DisplayName:     services.TruncateName(item.ResolvedName),
			PriceLabel:      h.presenter.FormatPrice(item.Price),
		})
	}

	respondWithJSON(w, http.StatusOK, ServicesResponse{
		Status:     outcome.Status,
		Items:      cards,
		Location:   outcome.Location,
		Failure:    outcome.Failure,
		Generation: outcome.Generation,
		Language:   session.Language,
	})
}

// ListInstitutions handles GET /api/discovery/institutions
func (h *DiscoveryHandler) ListInstitutions(w http.ResponseWriter, r *http.Request) {
	outcome := h.service.NearbyInstitutions(r.Context(), h.session(r), h.locator(r))
	respondWithJSON(w, http.StatusOK, outcome)
}

// ListCategories handles GET /api/discovery/categories
func (h *DiscoveryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	outcome := h.service.Categories(r.Context(), h.session(r), h.locator(r))
	respondWithJSON(w, http.StatusOK, outcome)
}

// ClearLocation handles DELETE /api/discovery/location
func (h *DiscoveryHandler) ClearLocation(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RefreshLocation(r.Context(), middleware.ClientID(r)); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type languageRequest struct {
	Language string `json:"language"`
}

// SetLanguage handles PUT /api/discovery/language
func (h *DiscoveryHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if req.Language == "" {
		respondWithAppError(w, r, apperrors.NewValidationError("language is required"))
		return
	}

	if err := h.service.SetLanguage(r.Context(), middleware.ClientID(r), req.Language); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"language": req.Language})
}

func (h *DiscoveryHandler) session(r *http.Request) entities.Session {
	return h.service.Session(r.Context(), middleware.ClientID(r), r.URL.Query().Get("lang"))
}

func (h *DiscoveryHandler) locator(r *http.Request) providers.DeviceLocator {
	q := r.URL.Query()
	return geolocation.NewRequestLocator(geolocation.LocationHints{
		Latitude:      q.Get("lat"),
		Longitude:     q.Get("lng"),
		Address:       q.Get("address"),
		LocationError: q.Get("location_error"),
	}, h.geocoder)
}
