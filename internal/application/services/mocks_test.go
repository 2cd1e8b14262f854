package services_test

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/providers"
	"github.com/lingatchoss/marketplace/internal/domain/repositories"
)

type MockLocationStore struct {
	mock.Mock
}

func (m *MockLocationStore) GetCoordinate(ctx context.Context, clientID string) (*entities.Coordinate, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Coordinate), args.Error(1)
}

func (m *MockLocationStore) SetCoordinate(ctx context.Context, clientID string, coordinate entities.Coordinate) error {
	args := m.Called(ctx, clientID, coordinate)
	return args.Error(0)
}

func (m *MockLocationStore) ClearCoordinate(ctx context.Context, clientID string) error {
	args := m.Called(ctx, clientID)
	return args.Error(0)
}

func (m *MockLocationStore) GetLanguage(ctx context.Context, clientID string) (string, error) {
	args := m.Called(ctx, clientID)
	return args.String(0), args.Error(1)
}

func (m *MockLocationStore) SetLanguage(ctx context.Context, clientID, language string) error {
	args := m.Called(ctx, clientID, language)
	return args.Error(0)
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

type MockServiceRepository struct {
	mock.Mock
}

func (m *MockServiceRepository) ListByInstitutions(ctx context.Context, institutionIDs []string) ([]*entities.Service, error) {
	args := m.Called(ctx, institutionIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Service), args.Error(1)
}

func (m *MockServiceRepository) GetByID(ctx context.Context, id string) (*entities.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Service), args.Error(1)
}

func (m *MockServiceRepository) Create(ctx context.Context, service *entities.Service) error {
	args := m.Called(ctx, service)
	return args.Error(0)
}

func (m *MockServiceRepository) Update(ctx context.Context, service *entities.Service) error {
	args := m.Called(ctx, service)
	return args.Error(0)
}

func (m *MockServiceRepository) SearchText(ctx context.Context, params repositories.ServiceSearchParams) ([]*entities.Service, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Service), args.Error(1)
}

func (m *MockServiceRepository) ListAll(ctx context.Context, limit, offset int) ([]*entities.Service, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Service), args.Error(1)
}

type MockServiceSearchRepository struct {
	mock.Mock
}

func (m *MockServiceSearchRepository) Search(ctx context.Context, params repositories.ServiceSearchParams) ([]*entities.ServiceDocument, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ServiceDocument), args.Error(1)
}

func (m *MockServiceSearchRepository) Index(ctx context.Context, service *entities.Service) error {
	args := m.Called(ctx, service)
	return args.Error(0)
}

func (m *MockServiceSearchRepository) Delete(ctx context.Context, serviceID string) error {
	args := m.Called(ctx, serviceID)
	return args.Error(0)
}

type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) ListBySectors(ctx context.Context, sectorIDs []string) ([]*entities.Category, error) {
	args := m.Called(ctx, sectorIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Category), args.Error(1)
}

func (m *MockCategoryRepository) ListByInstitution(ctx context.Context, institutionID string) ([]*entities.Category, error) {
	args := m.Called(ctx, institutionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Category), args.Error(1)
}

func (m *MockCategoryRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Category, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Category), args.Error(1)
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *entities.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

type MockInteractionRepository struct {
	mock.Mock
}

func (m *MockInteractionRepository) Create(ctx context.Context, interaction *entities.Interaction) error {
	args := m.Called(ctx, interaction)
	return args.Error(0)
}

type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) CountCreated(ctx context.Context, subject repositories.StatsSubject, institutionID string, from, to time.Time) (int, error) {
	args := m.Called(ctx, subject, institutionID, from, to)
	return args.Int(0), args.Error(1)
}

func (m *MockStatsRepository) CountByMonth(ctx context.Context, subject repositories.StatsSubject, institutionID string, from, to time.Time) (map[time.Month]int, error) {
	args := m.Called(ctx, subject, institutionID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[time.Month]int), args.Error(1)
}

// MockEventBus records events published on the catalog channel, the channel
// names of per-institution publishes, and feeds subscribers from events
type MockEventBus struct {
	mu        sync.Mutex
	published []*entities.CatalogEvent
	direct    []string
	events    chan *entities.CatalogEvent
	err       error
}

func NewMockEventBus() *MockEventBus {
	return &MockEventBus{events: make(chan *entities.CatalogEvent, 10)}
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.CatalogEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if channel == providers.EventChannelCatalogUpdates {
		m.published = append(m.published, event)
	} else {
		m.direct = append(m.direct, channel)
	}
	return nil
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.CatalogEvent, error) {
	return m.events, nil
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	return nil
}

func (m *MockEventBus) Close() error {
	return nil
}

func (m *MockEventBus) Published() []*entities.CatalogEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*entities.CatalogEvent(nil), m.published...)
}

// fixedLocator answers Locate with a fixed reading
type fixedLocator struct {
	coordinate *entities.Coordinate
	reason     entities.LocationFailureReason
	calls      int
}

func (l *fixedLocator) Locate(ctx context.Context) (*entities.Coordinate, entities.LocationFailureReason) {
	l.calls++
	return l.coordinate, l.reason
}

// blockingLocator waits until released or the context ends
type blockingLocator struct {
	started chan struct{}
	release chan struct{}
	at      entities.Coordinate
}

func newBlockingLocator(at entities.Coordinate) *blockingLocator {
	return &blockingLocator{started: make(chan struct{}), release: make(chan struct{}), at: at}
}

func (l *blockingLocator) Locate(ctx context.Context) (*entities.Coordinate, entities.LocationFailureReason) {
	close(l.started)
	select {
	case <-l.release:
		c := l.at
		return &c, ""
	case <-ctx.Done():
		return nil, entities.LocationTimeout
	}
}

func strPtr(s string) *string {
	return &s
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
