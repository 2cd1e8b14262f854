package services

import (
	"context"

	"github.com/lingatchoss/marketplace/internal/domain/repositories"
	"github.com/lingatchoss/marketplace/internal/infrastructure/observability"
)

// IndexingService rebuilds the search index from the database
type IndexingService struct {
	services   repositories.ServiceRepository
	searchRepo repositories.ServiceSearchRepository
	batchSize  int
}

// NewIndexingService creates a new indexing service
func NewIndexingService(services repositories.ServiceRepository, searchRepo repositories.ServiceSearchRepository, batchSize int) *IndexingService {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &IndexingService{services: services, searchRepo: searchRepo, batchSize: batchSize}
}

// IndexStats summarises a reindex run
type IndexStats struct {
	Indexed int
	Failed  int
}

// Reindex pages through every service and indexes it. A failing service is
// counted and skipped; a failing page read stops the run.
func (s *IndexingService) Reindex(ctx context.Context) (IndexStats, error) {
	logger := observability.LoggerFromContext(ctx)
	var stats IndexStats

	for offset := 0; ; offset += s.batchSize {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		batch, err := s.services.ListAll(ctx, s.batchSize, offset)
		if err != nil {
			return stats, err
		}

		for _, svc := range batch {
			if err := s.searchRepo.Index(ctx, svc); err != nil {
				stats.Failed++
				logger.Warn().Err(err).Str("service_id", svc.ID).Msg("failed to index service")
				continue
			}
			stats.Indexed++
		}

		logger.Info().Int("offset", offset).Int("batch", len(batch)).Int("indexed", stats.Indexed).Msg("indexed batch")
		if len(batch) < s.batchSize {
			return stats, nil
		}
	}
}
