package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lingatchoss/marketplace/internal/adapters/database"
	"github.com/lingatchoss/marketplace/internal/adapters/search"
	"github.com/lingatchoss/marketplace/internal/application/services"
	"github.com/lingatchoss/marketplace/internal/infrastructure/clients/postgres"
	"github.com/lingatchoss/marketplace/internal/infrastructure/clients/typesense"
	"github.com/lingatchoss/marketplace/internal/infrastructure/observability"
	"github.com/lingatchoss/marketplace/pkg/config"
)

func main() {
	var reset bool
	var intervalFlag string
	var batchSize int
	flag.BoolVar(&reset, "reset", false, "delete the existing services collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.IntVar(&batchSize, "batch", 200, "services read per database page")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-indexer", cfg.Environment)

	if cfg.Typesense.URL == "" {
		log.Fatal().Msg("TYPESENSE_URL is not set")
	}

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Err(err).Str("interval", intervalValue).Msg("invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Msg("interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, cfg, reset || os.Getenv("RESET_TYPESENSE") == "true", batchSize); err != nil {
			log.Error().Err(err).Msg("reindex failed")
		}

		if interval <= 0 {
			return
		}

		reset = false
		log.Info().Dur("next_run_in", interval).Msg("reindex complete")

		select {
		case <-ctx.Done():
			log.Info().Msg("reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, cfg *config.Config, reset bool, batchSize int) error {
	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
	if err != nil {
		return err
	}

	if reset {
		log.Info().Str("collection", typesense.ServicesCollection).Msg("dropping collection before reindex")
		if err := tsClient.DropSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to drop collection")
		}
	}
	if err := tsClient.InitSchema(ctx); err != nil {
		return err
	}

	indexer := services.NewIndexingService(
		database.NewServiceAdapter(pgClient),
		search.NewTypesenseAdapter(tsClient),
		batchSize,
	)

	start := time.Now()
	stats, err := indexer.Reindex(ctx)
	if err != nil {
		return err
	}

	log.Info().
		Int("indexed", stats.Indexed).
		Int("failed", stats.Failed).
		Dur("took", time.Since(start)).
		Msg("services indexed")
	return nil
}
