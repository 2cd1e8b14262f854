package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lingatchoss/marketplace/internal/adapters/cache"
	"github.com/lingatchoss/marketplace/internal/adapters/database"
	"github.com/lingatchoss/marketplace/internal/adapters/events"
	"github.com/lingatchoss/marketplace/internal/adapters/providers/geolocation"
	"github.com/lingatchoss/marketplace/internal/adapters/search"
	"github.com/lingatchoss/marketplace/internal/api/handlers"
	"github.com/lingatchoss/marketplace/internal/api/middleware"
	"github.com/lingatchoss/marketplace/internal/api/routes"
	"github.com/lingatchoss/marketplace/internal/application/services"
	"github.com/lingatchoss/marketplace/internal/domain/providers"
	"github.com/lingatchoss/marketplace/internal/domain/repositories"
	"github.com/lingatchoss/marketplace/internal/infrastructure/clients/postgres"
	"github.com/lingatchoss/marketplace/internal/infrastructure/clients/redis"
	"github.com/lingatchoss/marketplace/internal/infrastructure/clients/typesense"
	"github.com/lingatchoss/marketplace/internal/infrastructure/observability"
	"github.com/lingatchoss/marketplace/pkg/config"
)

const (
	cacheKeyPrefix      = "lt:"
	cacheWarmInterval   = 5 * time.Minute
	shutdownGracePeriod = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	// Client preferences live in Redis, so discovery cannot run without it.
	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Redis client")
	}
	defer redisClient.Close()

	cacheProvider := cache.NewRedisAdapter(redisClient.Client(), cacheKeyPrefix)
	locationStore := cache.NewRedisLocationStore(redisClient.Client(), cacheKeyPrefix)
	eventBus := events.NewRedisEventBus(redisClient.Client())

	var searchRepo repositories.ServiceSearchRepository
	if cfg.Typesense.URL != "" {
		tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("typesense unavailable, search falls back to the database")
		} else {
			if err := tsClient.InitSchema(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to init typesense schema")
			}
			searchRepo = search.NewTypesenseAdapter(tsClient)
		}
	}

	institutionAdapter := database.NewCachedInstitutionAdapter(
		database.NewInstitutionAdapter(pgClient),
		cacheProvider,
		cfg.Discovery.InstitutionsTTL,
		metrics,
	)
	serviceAdapter := database.NewServiceAdapter(pgClient)
	categoryAdapter := database.NewCategoryAdapter(pgClient)
	interactionAdapter := database.NewInteractionAdapter(pgClient)

	geocoder := newGeocoder(cfg, cacheProvider)
	presenter := services.NewPresenter(cfg.Discovery.CurrencyLabel, cfg.Discovery.MessagingBaseURL)

	discoveryService := services.NewDiscoveryService(
		services.NewLocationResolver(locationStore, cfg.Discovery.LocationTimeout, metrics),
		services.NewInstitutionRanker(institutionAdapter, cfg.Discovery.RadiusKm),
		services.NewServiceAggregator(serviceAdapter),
		institutionAdapter,
		categoryAdapter,
		locationStore,
		services.DiscoveryConfig{
			DefaultLanguage:    cfg.Discovery.DefaultLanguage,
			SupportedLanguages: cfg.Discovery.SupportedLanguages,
		},
		metrics,
	)
	contactService := services.NewContactService(
		institutionAdapter,
		serviceAdapter,
		interactionAdapter,
		presenter,
		cfg.Discovery.SupportPhone,
		metrics,
	)
	catalogService := services.NewCatalogService(
		institutionAdapter,
		categoryAdapter,
		serviceAdapter,
		searchRepo,
		eventBus,
		cfg.Discovery.SupportedLanguages,
	)
	catalogService.SetRequiredLanguages(cfg.Discovery.RequiredLanguages)
	statsService := services.NewStatsService(interactionAdapter)
	browseService := services.NewBrowseService(institutionAdapter, categoryAdapter, serviceAdapter)
	searchService := services.NewSearchService(searchRepo, serviceAdapter, presenter)

	invalidationService := services.NewCacheInvalidationService(institutionAdapter, eventBus)
	if err := invalidationService.Start(); err != nil {
		log.Warn().Err(err).Msg("failed to start cache invalidation service")
	}

	go services.NewCacheWarmingService(institutionAdapter).StartPeriodicWarming(ctx, cacheWarmInterval)

	router := routes.NewRouter(
		handlers.NewDiscoveryHandler(discoveryService, geocoder, presenter, cfg.Discovery.ResultLimit),
		handlers.NewSearchHandler(searchService, cfg.Discovery.DefaultLanguage),
		handlers.NewContactHandler(contactService, cfg.Discovery.DefaultLanguage),
		handlers.NewCatalogHandler(catalogService, cfg.Discovery.DefaultLanguage),
		handlers.NewBrowseHandler(browseService, cfg.Discovery.DefaultLanguage),
		handlers.NewStatsHandler(statsService),
		handlers.NewSSEHandler(eventBus),
		routes.Options{
			CacheMiddleware: middleware.NewCacheMiddleware(cacheProvider, metrics),
			RateLimiter:     middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst),
			AllowedOrigins:  cfg.Server.AllowedOrigins,
			Metrics:         metrics,
		},
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router.SetupRoutes(),
		ReadTimeout: 15 * time.Second,
		// Discovery may wait out the location timeout; event streams never finish.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	invalidationService.Stop()
	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("error closing event bus")
	}

	log.Info().Msg("server stopped")
}

func newGeocoder(cfg *config.Config, cacheProvider providers.CacheProvider) providers.Geocoder {
	switch cfg.Geolocation.Provider {
	case "google":
		if cfg.Geolocation.APIKey == "" {
			log.Warn().Msg("GEOLOCATION_API_KEY is not set; using mock geocoder")
			return geolocation.NewMockGeocoder()
		}
		return geolocation.NewGoogleGeocoder(cfg.Geolocation.APIKey, cacheProvider)
	case "none":
		return nil
	default:
		return geolocation.NewMockGeocoder()
	}
}
