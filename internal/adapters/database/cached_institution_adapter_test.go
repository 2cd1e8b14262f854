package database

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/providers"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	args := m.Called(ctx, key, value, expirationSeconds)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

type MockInstitutionRepository struct {
	mock.Mock
}

func (m *MockInstitutionRepository) List(ctx context.Context) ([]*entities.Institution, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Institution), args.Error(1)
}

func (m *MockInstitutionRepository) GetByID(ctx context.Context, id string) (*entities.Institution, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Institution), args.Error(1)
}

func (m *MockInstitutionRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Institution, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Institution), args.Error(1)
}

func (m *MockInstitutionRepository) UpdateLocation(ctx context.Context, id, rawLocation string) error {
	args := m.Called(ctx, id, rawLocation)
	return args.Error(0)
}

func (m *MockInstitutionRepository) SectorNames(ctx context.Context, sectorIDs []string) ([]entities.SectorTranslation, error) {
	args := m.Called(ctx, sectorIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.SectorTranslation), args.Error(1)
}

func TestCachedInstitutionAdapter_ListMissThenStore(t *testing.T) {
	ctx := context.Background()
	repo := new(MockInstitutionRepository)
	cache := new(MockCache)
	adapter := NewCachedInstitutionAdapter(repo, cache, time.Minute, nil)

	institutions := []*entities.Institution{{ID: "inst-1", Name: "Farmácia Central"}}
	encoded, _ := json.Marshal(institutions)

	cache.On("Get", ctx, InstitutionsListCacheKey).Return(nil, providers.ErrCacheMiss)
	repo.On("List", ctx).Return(institutions, nil)
	cache.On("Set", ctx, InstitutionsListCacheKey, encoded, 60).Return(nil)

	got, err := adapter.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, institutions, got)

	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestCachedInstitutionAdapter_ListHit(t *testing.T) {
	ctx := context.Background()
	repo := new(MockInstitutionRepository)
	cache := new(MockCache)
	adapter := NewCachedInstitutionAdapter(repo, cache, time.Minute, nil)

	raw := "Lat: -8.84, Lng: 13.24"
	encoded, _ := json.Marshal([]*entities.Institution{{ID: "inst-1", RawLocation: &raw}})
	cache.On("Get", ctx, InstitutionsListCacheKey).Return(encoded, nil)

	got, err := adapter.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, raw, *got[0].RawLocation)

	repo.AssertNotCalled(t, "List", mock.Anything)
}

func TestCachedInstitutionAdapter_CacheFailureFallsThrough(t *testing.T) {
	ctx := context.Background()
	repo := new(MockInstitutionRepository)
	cache := new(MockCache)
	adapter := NewCachedInstitutionAdapter(repo, cache, 0, nil)

	cache.On("Get", ctx, InstitutionsListCacheKey).Return(nil, errors.New("redis down"))
	cache.On("Set", ctx, InstitutionsListCacheKey, mock.Anything, 60).Return(errors.New("redis down"))
	repo.On("List", ctx).Return([]*entities.Institution{}, nil)

	got, err := adapter.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCachedInstitutionAdapter_UpdateLocationInvalidates(t *testing.T) {
	ctx := context.Background()
	repo := new(MockInstitutionRepository)
	cache := new(MockCache)
	adapter := NewCachedInstitutionAdapter(repo, cache, time.Minute, nil)

	repo.On("UpdateLocation", ctx, "inst-1", "Lat: 1, Lng: 2").Return(nil)
	cache.On("Delete", ctx, InstitutionsListCacheKey).Return(nil)

	require.NoError(t, adapter.UpdateLocation(ctx, "inst-1", "Lat: 1, Lng: 2"))
	cache.AssertExpectations(t)
}

func TestSectorNamesCacheKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, sectorNamesCacheKey([]string{"b", "a"}), sectorNamesCacheKey([]string{"a", "b"}))
	assert.Equal(t, "sectors:names", cacheKeyFamily(sectorNamesCacheKey([]string{"a"})))
	assert.Equal(t, InstitutionsListCacheKey, cacheKeyFamily(InstitutionsListCacheKey))
}
