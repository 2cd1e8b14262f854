package services

import (
	"context"
	"sort"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/geo"
	"github.com/lingatchoss/marketplace/internal/domain/repositories"
	"github.com/lingatchoss/marketplace/internal/domain/result"
	"github.com/lingatchoss/marketplace/internal/infrastructure/observability"
)

// DefaultRadiusKm is the discovery radius around the consumer
const DefaultRadiusKm = 70.0

// InstitutionRanker places institutions around a coordinate
type InstitutionRanker struct {
	repo     repositories.InstitutionRepository
	radiusKm float64
}

// NewInstitutionRanker creates a new ranker
func NewInstitutionRanker(repo repositories.InstitutionRepository, radiusKm float64) *InstitutionRanker {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	return &InstitutionRanker{repo: repo, radiusKm: radiusKm}
}

// RadiusKm returns the configured radius
func (r *InstitutionRanker) RadiusKm() float64 {
	return r.radiusKm
}

// Rank lists institutions within the radius of at, nearest first.
func (r *InstitutionRanker) Rank(ctx context.Context, at *entities.Coordinate) result.Result[entities.RankedInstitution] {
	if at == nil {
		return result.Empty[entities.RankedInstitution]()
	}

	institutions, err := r.repo.List(ctx)
	if err != nil {
		return result.Failed[entities.RankedInstitution](err)
	}

	return result.OK(RankInstitutions(ctx, institutions, *at, r.radiusKm))
}

// RankInstitutions drops institutions without a parseable location or beyond
// radiusKm, then orders the rest by distance. Ties keep input order.
func RankInstitutions(ctx context.Context, institutions []*entities.Institution, at entities.Coordinate, radiusKm float64) []entities.RankedInstitution {
	logger := observability.LoggerFromContext(ctx)

	ranked := make([]entities.RankedInstitution, 0, len(institutions))
	for _, inst := range institutions {
		if inst == nil {
			continue
		}
		position, ok := geo.ParseRawLocation(inst.RawLocation)
		if !ok {
			logger.Debug().Str("institution_id", inst.ID).Msg("skipping institution without parseable location")
			continue
		}
		distance := geo.DistanceBetween(at, position)
		if distance > radiusKm {
			continue
		}
		ranked = append(ranked, entities.RankedInstitution{
			Institution: *inst,
			Coordinate:  position,
			DistanceKm:  distance,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})
	return ranked
}
