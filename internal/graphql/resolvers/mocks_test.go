package resolvers_test

import (
	"context"
	"sort"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/providers"
	"github.com/lingatchoss/marketplace/internal/domain/repositories"
)

type MockDiscoveryService struct {
	mock.Mock
}

func (m *MockDiscoveryService) Session(ctx context.Context, clientID, override string) entities.Session {
	args := m.Called(ctx, clientID, override)
	return args.Get(0).(entities.Session)
}

func (m *MockDiscoveryService) Discover(ctx context.Context, session entities.Session, locator providers.DeviceLocator, query entities.DiscoveryQuery) entities.DiscoveryOutcome[entities.DiscoveryResult] {
	args := m.Called(ctx, session, locator, query)
	return args.Get(0).(entities.DiscoveryOutcome[entities.DiscoveryResult])
}

func (m *MockDiscoveryService) NearbyInstitutions(ctx context.Context, session entities.Session, locator providers.DeviceLocator) entities.DiscoveryOutcome[entities.RankedInstitution] {
	args := m.Called(ctx, session, locator)
	return args.Get(0).(entities.DiscoveryOutcome[entities.RankedInstitution])
}

func (m *MockDiscoveryService) Categories(ctx context.Context, session entities.Session, locator providers.DeviceLocator) entities.DiscoveryOutcome[entities.CategoryView] {
	args := m.Called(ctx, session, locator)
	return args.Get(0).(entities.DiscoveryOutcome[entities.CategoryView])
}

type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) Search(ctx context.Context, params repositories.ServiceSearchParams) ([]entities.SearchHit, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.SearchHit), args.Error(1)
}

type MockBrowseService struct {
	mock.Mock
}

func (m *MockBrowseService) InstitutionDetail(ctx context.Context, institutionID, lang string) (*entities.InstitutionDetail, error) {
	args := m.Called(ctx, institutionID, lang)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.InstitutionDetail), args.Error(1)
}

func (m *MockBrowseService) ServiceDetail(ctx context.Context, serviceID, lang string) (*entities.ServiceDetail, error) {
	args := m.Called(ctx, serviceID, lang)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ServiceDetail), args.Error(1)
}

type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) Dashboard(ctx context.Context, institutionID string) (*entities.DashboardStats, error) {
	args := m.Called(ctx, institutionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DashboardStats), args.Error(1)
}

func (m *MockStatsService) InteractionsByMonth(ctx context.Context, institutionID, lang string) (*entities.MonthlySeries, error) {
	args := m.Called(ctx, institutionID, lang)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MonthlySeries), args.Error(1)
}

type institutionRepo struct {
	repositories.InstitutionRepository
	mock.Mock
}

func (m *institutionRepo) GetByIDs(ctx context.Context, ids []string) ([]*entities.Institution, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Institution), args.Error(1)
}

type categoryRepo struct {
	repositories.CategoryRepository
	mock.Mock
}

func (m *categoryRepo) GetByIDs(ctx context.Context, ids []string) ([]*entities.Category, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Category), args.Error(1)
}

func sameIDs(want ...string) any {
	return mock.MatchedBy(func(ids []string) bool {
		got := append([]string(nil), ids...)
		sort.Strings(got)
		return assert.ObjectsAreEqual(want, got)
	})
}

func strPtr(s string) *string {
	return &s
}
