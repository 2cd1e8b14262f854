package handlers_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/lingatchoss/marketplace/internal/application/services"
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

func (m *MockDiscoveryService) SetLanguage(ctx context.Context, clientID, lang string) error {
	args := m.Called(ctx, clientID, lang)
	return args.Error(0)
}

func (m *MockDiscoveryService) RefreshLocation(ctx context.Context, clientID string) error {
	args := m.Called(ctx, clientID)
	return args.Error(0)
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

type MockContactService struct {
	mock.Mock
}

func (m *MockContactService) ContactService(ctx context.Context, serviceID, lang string) (*entities.ContactLink, error) {
	args := m.Called(ctx, serviceID, lang)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ContactLink), args.Error(1)
}

func (m *MockContactService) ContactInstitution(ctx context.Context, institutionID string) (*entities.ContactLink, error) {
	args := m.Called(ctx, institutionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ContactLink), args.Error(1)
}

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) CreateCategory(ctx context.Context, draft services.CategoryDraft) (*entities.Category, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Category), args.Error(1)
}

func (m *MockCatalogService) CreateService(ctx context.Context, draft services.ServiceDraft) (*entities.Service, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Service), args.Error(1)
}

func (m *MockCatalogService) UpdateService(ctx context.Context, serviceID string, draft services.ServiceDraft) (*entities.Service, error) {
	args := m.Called(ctx, serviceID, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Service), args.Error(1)
}

func (m *MockCatalogService) UpdateLocation(ctx context.Context, institutionID string, at entities.Coordinate) error {
	args := m.Called(ctx, institutionID, at)
	return args.Error(0)
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

func (m *MockBrowseService) InstitutionServices(ctx context.Context, institutionID, lang string) ([]entities.ServiceView, error) {
	args := m.Called(ctx, institutionID, lang)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.ServiceView), args.Error(1)
}

func (m *MockBrowseService) InstitutionCategories(ctx context.Context, institutionID, lang string) ([]entities.CategoryView, error) {
	args := m.Called(ctx, institutionID, lang)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.CategoryView), args.Error(1)
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

// MockEventBus delivers published events to in-process subscribers
type MockEventBus struct {
	mu          sync.Mutex
	subscribers map[string][]chan *entities.CatalogEvent
	subscribed  chan string
	err         error
}

func NewMockEventBus() *MockEventBus {
	return &MockEventBus{
		subscribers: make(map[string][]chan *entities.CatalogEvent),
		subscribed:  make(chan string, 10),
	}
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.CatalogEvent) error {
	m.mu.Lock()
	channels := append([]chan *entities.CatalogEvent(nil), m.subscribers[channel]...)
	m.mu.Unlock()

	for _, ch := range channels {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.CatalogEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	ch := make(chan *entities.CatalogEvent, 10)
	m.subscribers[channel] = append(m.subscribers[channel], ch)
	m.mu.Unlock()
	m.subscribed <- channel
	return ch, nil
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscribers, channel)
	return nil
}

func (m *MockEventBus) Close() error {
	return nil
}
