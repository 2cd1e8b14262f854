package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/repositories"
)

// CacheWarmingService fills the institution caches ahead of discovery traffic
type CacheWarmingService struct {
	institutions repositories.InstitutionRepository
}

// NewCacheWarmingService creates a new cache warming service. institutions
// should be the caching decorator so reads land in the cache.
func NewCacheWarmingService(institutions repositories.InstitutionRepository) *CacheWarmingService {
	return &CacheWarmingService{institutions: institutions}
}

// WarmCache loads the institution listing and every sector name it refers to
func (s *CacheWarmingService) WarmCache(ctx context.Context) error {
	log.Info().Msg("starting cache warming")

	institutions, err := s.institutions.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to warm institution listing: %w", err)
	}

	ranked := make([]entities.RankedInstitution, 0, len(institutions))
	for _, inst := range institutions {
		if inst != nil {
			ranked = append(ranked, entities.RankedInstitution{Institution: *inst})
		}
	}
	if sectorIDs := sectorIDsOf(ranked); len(sectorIDs) > 0 {
		if _, err := s.institutions.SectorNames(ctx, sectorIDs); err != nil {
			return fmt.Errorf("failed to warm sector names: %w", err)
		}
	}

	log.Info().Int("institutions", len(institutions)).Msg("cache warming completed")
	return nil
}

// StartPeriodicWarming warms immediately and then every interval until ctx ends
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	if err := s.WarmCache(ctx); err != nil {
		log.Warn().Err(err).Msg("initial cache warming failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.WarmCache(ctx); err != nil {
				log.Warn().Err(err).Msg("periodic cache warming failed")
			}
		}
	}
}
