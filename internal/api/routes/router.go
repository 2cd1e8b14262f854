package routes

import (
	"net/http"

	"github.com/lingatchoss/marketplace/internal/api/handlers"
	"github.com/lingatchoss/marketplace/internal/api/middleware"
	"github.com/lingatchoss/marketplace/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	discoveryHandler *handlers.DiscoveryHandler
	searchHandler    *handlers.SearchHandler
	contactHandler   *handlers.ContactHandler
	catalogHandler   *handlers.CatalogHandler
	browseHandler    *handlers.BrowseHandler
	statsHandler     *handlers.StatsHandler
	sseHandler       *handlers.SSEHandler

	cacheMiddleware *middleware.CacheMiddleware
	rateLimiter     *middleware.RateLimiter
	allowedOrigins  []string
	metrics         *observability.Metrics
}

// Options carries the optional parts of the router
type Options struct {
	CacheMiddleware *middleware.CacheMiddleware
	RateLimiter     *middleware.RateLimiter
	AllowedOrigins  []string
	Metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	discoveryHandler *handlers.DiscoveryHandler,
	searchHandler *handlers.SearchHandler,
	contactHandler *handlers.ContactHandler,
	catalogHandler *handlers.CatalogHandler,
	browseHandler *handlers.BrowseHandler,
	statsHandler *handlers.StatsHandler,
	sseHandler *handlers.SSEHandler,
	opts Options,
) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		discoveryHandler: discoveryHandler,
		searchHandler:    searchHandler,
		contactHandler:   contactHandler,
		catalogHandler:   catalogHandler,
		browseHandler:    browseHandler,
		statsHandler:     statsHandler,
		sseHandler:       sseHandler,
		cacheMiddleware:  opts.CacheMiddleware,
		rateLimiter:      opts.RateLimiter,
		allowedOrigins:   opts.AllowedOrigins,
		metrics:          opts.Metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Discovery
	r.mux.HandleFunc("GET /api/discovery/services", r.discoveryHandler.ListServices)
	r.mux.HandleFunc("GET /api/discovery/institutions", r.discoveryHandler.ListInstitutions)
	r.mux.HandleFunc("GET /api/discovery/categories", r.discoveryHandler.ListCategories)
	r.mux.HandleFunc("DELETE /api/discovery/location", r.discoveryHandler.ClearLocation)
	r.mux.HandleFunc("PUT /api/discovery/language", r.discoveryHandler.SetLanguage)

	// Search box
	r.mux.HandleFunc("GET /api/services/search", r.searchHandler.Search)

	// Public pages
	r.mux.HandleFunc("GET /api/services/{id}", r.browseHandler.GetService)
	r.mux.HandleFunc("GET /api/institutions/{id}", r.browseHandler.GetInstitution)

	// Contact
	r.mux.Handle("POST /api/contact/services/{id}", r.limited(r.contactHandler.ContactService))
	r.mux.Handle("POST /api/contact/institutions/{id}", r.limited(r.contactHandler.ContactInstitution))

	// Institution dashboard
	r.mux.Handle("POST /api/institutions/{id}/categories", r.limited(r.catalogHandler.CreateCategory))
	r.mux.HandleFunc("GET /api/institutions/{id}/services", r.browseHandler.ListInstitutionServices)
	r.mux.Handle("POST /api/institutions/{id}/services", r.limited(r.catalogHandler.CreateService))
	r.mux.Handle("PUT /api/institutions/{id}/services/{serviceID}", r.limited(r.catalogHandler.UpdateService))
	r.mux.Handle("PUT /api/institutions/{id}/location", r.limited(r.catalogHandler.UpdateLocation))
	r.mux.HandleFunc("GET /api/institutions/{id}/stats", r.statsHandler.GetStats)
	r.mux.HandleFunc("GET /api/institutions/{id}/stats/interactions", r.statsHandler.GetInteractionsByMonth)
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/institutions/{id}/events", r.sseHandler.StreamInstitutionEvents)
	}

	// Observability wraps the mux directly so it can read the matched pattern.
	var handler http.Handler = middleware.ObservabilityMiddleware(r.metrics)(r.mux)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}

func (r *Router) limited(h http.HandlerFunc) http.Handler {
	if r.rateLimiter == nil {
		return h
	}
	return r.rateLimiter.Wrap(h)
}
