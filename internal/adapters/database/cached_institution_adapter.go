package database

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/providers"
	"github.com/lingatchoss/marketplace/internal/domain/repositories"
	"github.com/lingatchoss/marketplace/internal/infrastructure/observability"
)

// Cache keys
const (
	InstitutionsListCacheKey = "institutions:list"
	sectorNamesKeyPrefix     = "sectors:names:"
)

// CachedInstitutionAdapter wraps an InstitutionRepository with a read-through cache
type CachedInstitutionAdapter struct {
	adapter repositories.InstitutionRepository
	cache   providers.CacheProvider
	ttl     int
	metrics *observability.Metrics
}

var _ repositories.InstitutionRepository = (*CachedInstitutionAdapter)(nil)

// NewCachedInstitutionAdapter creates a new cached institution adapter. metrics may be nil.
func NewCachedInstitutionAdapter(adapter repositories.InstitutionRepository, cache providers.CacheProvider, ttl time.Duration, metrics *observability.Metrics) *CachedInstitutionAdapter {
	seconds := int(ttl / time.Second)
	if seconds <= 0 {
		seconds = 60
	}
	return &CachedInstitutionAdapter{
		adapter: adapter,
		cache:   cache,
		ttl:     seconds,
		metrics: metrics,
	}
}

func sectorNamesCacheKey(sectorIDs []string) string {
	ids := append([]string(nil), sectorIDs...)
	sort.Strings(ids)
	return sectorNamesKeyPrefix + strings.Join(ids, ",")
}

// List retrieves all institutions, served from cache while fresh
func (a *CachedInstitutionAdapter) List(ctx context.Context) ([]*entities.Institution, error) {
	var cached []*entities.Institution
	if a.lookup(ctx, InstitutionsListCacheKey, &cached) {
		return cached, nil
	}

	institutions, err := a.adapter.List(ctx)
	if err != nil {
		return nil, err
	}
	a.store(ctx, InstitutionsListCacheKey, institutions)
	return institutions, nil
}

// GetByID is not cached; contact links must see the current phone number
func (a *CachedInstitutionAdapter) GetByID(ctx context.Context, id string) (*entities.Institution, error) {
	return a.adapter.GetByID(ctx, id)
}

// GetByIDs is not cached either
func (a *CachedInstitutionAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Institution, error) {
	return a.adapter.GetByIDs(ctx, ids)
}

// UpdateLocation writes through and drops the cached listing
func (a *CachedInstitutionAdapter) UpdateLocation(ctx context.Context, id, rawLocation string) error {
	if err := a.adapter.UpdateLocation(ctx, id, rawLocation); err != nil {
		return err
	}
	return a.Invalidate(ctx)
}

// SectorNames retrieves sector translations, cached per sector set
func (a *CachedInstitutionAdapter) SectorNames(ctx context.Context, sectorIDs []string) ([]entities.SectorTranslation, error) {
	if len(sectorIDs) == 0 {
		return []entities.SectorTranslation{}, nil
	}

	key := sectorNamesCacheKey(sectorIDs)
	var cached []entities.SectorTranslation
	if a.lookup(ctx, key, &cached) {
		return cached, nil
	}

	names, err := a.adapter.SectorNames(ctx, sectorIDs)
	if err != nil {
		return nil, err
	}
	a.store(ctx, key, names)
	return names, nil
}

// Invalidate drops the cached institution listing
func (a *CachedInstitutionAdapter) Invalidate(ctx context.Context) error {
	return a.cache.Delete(ctx, InstitutionsListCacheKey)
}

func (a *CachedInstitutionAdapter) lookup(ctx context.Context, key string, out interface{}) bool {
	logger := observability.LoggerFromContext(ctx)

	data, err := a.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		a.recordMiss(ctx, key)
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		a.recordMiss(ctx, key)
		return false
	}
	if a.metrics != nil {
		observability.RecordCacheHit(ctx, a.metrics, cacheKeyFamily(key))
	}
	return true
}

func (a *CachedInstitutionAdapter) store(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, key, data, a.ttl); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (a *CachedInstitutionAdapter) recordMiss(ctx context.Context, key string) {
	if a.metrics != nil {
		observability.RecordCacheMiss(ctx, a.metrics, cacheKeyFamily(key))
	}
}

// cacheKeyFamily keeps metric cardinality bounded
func cacheKeyFamily(key string) string {
	if strings.HasPrefix(key, sectorNamesKeyPrefix) {
		return strings.TrimSuffix(sectorNamesKeyPrefix, ":")
	}
	return key
}
