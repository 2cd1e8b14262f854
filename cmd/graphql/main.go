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

	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/lru"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/rs/zerolog/log"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/lingatchoss/marketplace/internal/adapters/cache"
	"github.com/lingatchoss/marketplace/internal/adapters/database"
	"github.com/lingatchoss/marketplace/internal/adapters/providers/geolocation"
	"github.com/lingatchoss/marketplace/internal/adapters/search"
	"github.com/lingatchoss/marketplace/internal/api/middleware"
	"github.com/lingatchoss/marketplace/internal/application/services"
	"github.com/lingatchoss/marketplace/internal/domain/providers"
	"github.com/lingatchoss/marketplace/internal/domain/repositories"
	"github.com/lingatchoss/marketplace/internal/graphql/executor"
	"github.com/lingatchoss/marketplace/internal/graphql/loaders"
	"github.com/lingatchoss/marketplace/internal/graphql/resolvers"
	"github.com/lingatchoss/marketplace/internal/graphql/schema"
	"github.com/lingatchoss/marketplace/internal/infrastructure/clients/postgres"
	"github.com/lingatchoss/marketplace/internal/infrastructure/clients/redis"
	"github.com/lingatchoss/marketplace/internal/infrastructure/clients/typesense"
	"github.com/lingatchoss/marketplace/internal/infrastructure/observability"
	"github.com/lingatchoss/marketplace/pkg/config"
)

const cacheKeyPrefix = "lt:"

// Read-only GraphQL server over the discovery, search, browse and stats
// services. Writes stay on the REST API.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	serviceName := cfg.OTEL.ServiceName + "-graphql"
	observability.InitLogger(serviceName, cfg.Environment)
	log.Info().Str("service", serviceName).Str("version", cfg.OTEL.ServiceVersion).Msg("starting GraphQL server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, serviceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
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

	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Redis client")
	}
	defer redisClient.Close()

	cacheProvider := cache.NewRedisAdapter(redisClient.Client(), cacheKeyPrefix)
	locationStore := cache.NewRedisLocationStore(redisClient.Client(), cacheKeyPrefix)

	var searchRepo repositories.ServiceSearchRepository
	if cfg.Typesense.URL != "" {
		tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("typesense unavailable, search falls back to the database")
		} else {
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

	resolver := resolvers.NewResolver(
		discoveryService,
		services.NewSearchService(searchRepo, serviceAdapter, presenter),
		services.NewBrowseService(institutionAdapter, categoryAdapter, serviceAdapter),
		services.NewStatsService(interactionAdapter),
		resolvers.Options{
			Geocoder:        newGeocoder(cfg, cacheProvider),
			Presenter:       presenter,
			DefaultLanguage: cfg.Discovery.DefaultLanguage,
			DefaultLimit:    cfg.Discovery.ResultLimit,
		},
	)

	srv := handler.New(executor.New(schema.Load(), resolver.Fields()))
	srv.AddTransport(transport.Options{})
	srv.AddTransport(transport.GET{})
	srv.AddTransport(transport.POST{})
	srv.SetQueryCache(lru.New[*ast.QueryDocument](1000))

	// One set of loaders per request so cached rows never outlive it.
	loaderMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ldrs := loaders.NewLoaders(institutionAdapter, categoryAdapter)
			next.ServeHTTP(w, r.WithContext(loaders.WithLoaders(r.Context(), ldrs)))
		})
	}

	var graphqlHandler http.Handler = srv
	graphqlHandler = loaderMiddleware(graphqlHandler)
	graphqlHandler = middleware.ClientContext(graphqlHandler)
	graphqlHandler = middleware.CORSMiddleware(cfg.Server.AllowedOrigins)(graphqlHandler)
	graphqlHandler = middleware.LoggingMiddleware(graphqlHandler)
	graphqlHandler = middleware.ObservabilityMiddleware(metrics)(graphqlHandler)
	graphqlHandler = middleware.Compression(graphqlHandler)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"graphql"}`))
	})
	mux.Handle("/graphql", graphqlHandler)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		// nearbyServices may wait out the location timeout.
		WriteTimeout: 15*time.Second + cfg.Discovery.LocationTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("GraphQL server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("GraphQL server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("GraphQL server shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	log.Info().Msg("GraphQL server stopped")
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
