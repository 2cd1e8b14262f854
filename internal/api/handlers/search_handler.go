package handlers

import (
	"context"
	"net/http"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/repositories"
)

// SearchService runs the global service search
type SearchService interface {
	Search(ctx context.Context, params repositories.ServiceSearchParams) ([]entities.SearchHit, error)
}

// SearchHandler handles the search box
type SearchHandler struct {
	service         SearchService
	defaultLanguage string
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(service SearchService, defaultLanguage string) *SearchHandler {
	return &SearchHandler{service: service, defaultLanguage: defaultLanguage}
}

// SearchResponse is the body of GET /api/services/search
type SearchResponse struct {
	Query    string               `json:"query"`
	Language string               `json:"language"`
	Results  []entities.SearchHit `json:"results"`
	Count    int                  `json:"count"`
}

// Search handles GET /api/services/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	params := repositories.ServiceSearchParams{
		Query:      q.Get("q"),
		Language:   q.Get("lang"),
		CategoryID: q.Get("category"),
		Limit:      limit,
		Offset:     offset,
	}
	if params.Language == "" {
		params.Language = h.defaultLanguage
	}
	if params.CategoryID == "all" {
		params.CategoryID = ""
	}

	hits, err := h.service.Search(r.Context(), params)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if hits == nil {
		hits = []entities.SearchHit{}
	}

	respondWithJSON(w, http.StatusOK, SearchResponse{
		Query:    params.Query,
		Language: params.Language,
		Results:  hits,
		Count:    len(hits),
	})
}
