package resolvers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lingatchoss/marketplace/internal/api/middleware"
	"github.com/lingatchoss/marketplace/internal/application/services"
	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/providers"
	"github.com/lingatchoss/marketplace/internal/domain/repositories"
	"github.com/lingatchoss/marketplace/internal/graphql/executor"
	"github.com/lingatchoss/marketplace/internal/graphql/loaders"
	"github.com/lingatchoss/marketplace/internal/graphql/resolvers"
	"github.com/lingatchoss/marketplace/internal/graphql/schema"
	apperrors "github.com/lingatchoss/marketplace/pkg/errors"
)

type fixture struct {
	discovery    *MockDiscoveryService
	search       *MockSearchService
	browse       *MockBrowseService
	stats        *MockStatsService
	institutions *institutionRepo
	categories   *categoryRepo
	resolver     *resolvers.Resolver
}

func newFixture() *fixture {
	f := &fixture{
		discovery:    new(MockDiscoveryService),
		search:       new(MockSearchService),
		browse:       new(MockBrowseService),
		stats:        new(MockStatsService),
		institutions: new(institutionRepo),
		categories:   new(categoryRepo),
	}
	f.resolver = resolvers.NewResolver(f.discovery, f.search, f.browse, f.stats, resolvers.Options{
		Presenter:       services.NewPresenter("kz", ""),
		DefaultLanguage: "pt",
		DefaultLimit:    50,
	})
	return f
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message    string         `json:"message"`
		Path       []any          `json:"path"`
		Extensions map[string]any `json:"extensions"`
	} `json:"errors"`
}

// query runs a request the way cmd/graphql serves it: loaders and client
// id in the request context.
func (f *fixture) query(t *testing.T, query string, vars map[string]any) gqlResponse {
	t.Helper()
	srv := handler.New(executor.New(schema.Load(), f.resolver.Fields()))
	srv.AddTransport(transport.POST{})

	body, err := json.Marshal(map[string]any{"query": query, "variables": vars})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := loaders.WithLoaders(req.Context(), loaders.NewLoaders(f.institutions, f.categories))
	ctx = middleware.WithClientID(ctx, "client-1")
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req.WithContext(ctx))

	var resp gqlResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func locatedAt(lat, lng float64) any {
	return mock.MatchedBy(func(l providers.DeviceLocator) bool {
		c, _ := l.Locate(context.Background())
		return c != nil && c.Latitude == lat && c.Longitude == lng
	})
}

func failingWith(reason entities.LocationFailureReason) any {
	return mock.MatchedBy(func(l providers.DeviceLocator) bool {
		c, got := l.Locate(context.Background())
		return c == nil && got == reason
	})
}

func TestNearbyServices_BuildsLocatorFromArguments(t *testing.T) {
	f := newFixture()
	session := entities.Session{ClientID: "client-1", Language: "en"}
	lat, lng := -8.8383, 13.2344
	ctx := middleware.WithClientID(context.Background(), "client-1")

	f.discovery.On("Session", mock.Anything, "client-1", "en").Return(session)
	f.discovery.On("Discover", mock.Anything, session, locatedAt(lat, lng), entities.DiscoveryQuery{SearchText: "rx", Limit: 50}).
		Return(entities.DiscoveryOutcome[entities.DiscoveryResult]{
			Status:     entities.DiscoveryStatusOK,
			Generation: 4,
			Location:   &entities.Coordinate{Latitude: lat, Longitude: lng},
			Items: []entities.DiscoveryResult{{
				ServiceID:           "svc-1",
				InstitutionID:       "inst-1",
				Price:               1500,
				ResolvedName:        "Radiografia do tórax",
				ResolvedDescription: "Exame",
				DistanceKm:          1.2,
			}},
		})

	got, err := f.resolver.NearbyServices(ctx, resolvers.LocationArgs{Lat: &lat, Lng: &lng, Lang: "en"}, entities.DiscoveryQuery{SearchText: "rx"})

	require.NoError(t, err)
	assert.Equal(t, entities.DiscoveryStatusOK, got.Status)
	assert.Equal(t, uint64(4), got.Generation)
	assert.Equal(t, "en", got.Language)
	assert.Nil(t, got.Failure)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Radiografia do t...", got.Items[0].DisplayName)
	assert.Equal(t, "1500 kz", got.Items[0].PriceLabel)
	assert.Equal(t, "inst-1", got.Items[0].InstitutionID)
	assert.Nil(t, got.Items[0].ImageURL)
	f.discovery.AssertExpectations(t)
}

func TestNearbyServices_ReportedLocationFailure(t *testing.T) {
	f := newFixture()
	session := entities.Session{ClientID: "", Language: "pt"}

	f.discovery.On("Session", mock.Anything, "", "").Return(session)
	f.discovery.On("Discover", mock.Anything, session, failingWith(entities.LocationPermissionDenied), mock.Anything).
		Return(entities.DiscoveryOutcome[entities.DiscoveryResult]{
			Status:  entities.DiscoveryStatusLocationUnavailable,
			Failure: string(entities.LocationPermissionDenied),
		})

	got, err := f.resolver.NearbyServices(context.Background(), resolvers.LocationArgs{LocationError: "permission_denied"}, entities.DiscoveryQuery{})

	require.NoError(t, err)
	assert.Equal(t, entities.DiscoveryStatusLocationUnavailable, got.Status)
	require.NotNil(t, got.Failure)
	assert.Equal(t, "permission_denied", *got.Failure)
	assert.Empty(t, got.Items)
	assert.NotNil(t, got.Items)
}

func TestNearbyServices_NegativeLimit(t *testing.T) {
	f := newFixture()

	_, err := f.resolver.NearbyServices(context.Background(), resolvers.LocationArgs{}, entities.DiscoveryQuery{Limit: -1})

	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeValidation))
	f.discovery.AssertNotCalled(t, "Discover", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestQuery_NearbyServicesBatchesInstitutions(t *testing.T) {
	f := newFixture()
	session := entities.Session{ClientID: "client-1", Language: "pt"}

	f.discovery.On("Session", mock.Anything, "client-1", "").Return(session)
	f.discovery.On("Discover", mock.Anything, session, locatedAt(-8.8, 13.2), entities.DiscoveryQuery{CategoryID: "cat-1", Limit: 2}).
		Return(entities.DiscoveryOutcome[entities.DiscoveryResult]{
			Status:     entities.DiscoveryStatusOK,
			Generation: 9,
			Items: []entities.DiscoveryResult{
				{ServiceID: "s1", InstitutionID: "inst-a", ResolvedName: "Consulta", Price: 100, DistanceKm: 0.5},
				{ServiceID: "s2", InstitutionID: "inst-b", ResolvedName: "Raio X", Price: 200, DistanceKm: 1},
				{ServiceID: "s3", InstitutionID: "inst-a", ResolvedName: "Vacina", Price: 0, DistanceKm: 0.5},
			},
		})
	f.institutions.On("GetByIDs", mock.Anything, sameIDs("inst-a", "inst-b")).
		Return([]*entities.Institution{
			{ID: "inst-a", Name: "Clínica A", WhatsAppNumber: "244900000001", PlanID: strPtr("gold")},
			{ID: "inst-b", Name: "Clínica B"},
		}, nil).Once()

	resp := f.query(t, `
		query Nearby($lat: Float, $lng: Float) {
			nearbyServices(lat: $lat, lng: $lng, category: "cat-1", limit: 2) {
				status generation language failure
				items { serviceId priceLabel institution { name phone hasPlan } }
			}
		}`, map[string]any{"lat": -8.8, "lng": 13.2})

	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"nearbyServices":{
		"status":"ok","generation":9,"language":"pt","failure":null,
		"items":[
			{"serviceId":"s1","priceLabel":"100 kz","institution":{"name":"Clínica A","phone":"244900000001","hasPlan":true}},
			{"serviceId":"s2","priceLabel":"200 kz","institution":{"name":"Clínica B","phone":null,"hasPlan":false}},
			{"serviceId":"s3","priceLabel":"0 kz","institution":{"name":"Clínica A","phone":"244900000001","hasPlan":true}}
		]}}`, string(resp.Data))
	f.institutions.AssertNumberOfCalls(t, "GetByIDs", 1)
}

func TestQuery_NearbyInstitutionsAndCategories(t *testing.T) {
	f := newFixture()
	session := entities.Session{ClientID: "client-1", Language: "fr"}
	at := entities.Coordinate{Latitude: -8.8, Longitude: 13.2}

	f.discovery.On("Session", mock.Anything, "client-1", "fr").Return(session)
	f.discovery.On("NearbyInstitutions", mock.Anything, session, locatedAt(-8.8, 13.2)).
		Return(entities.DiscoveryOutcome[entities.RankedInstitution]{
			Status:   entities.DiscoveryStatusOK,
			Location: &at,
			Items: []entities.RankedInstitution{{
				Institution: entities.Institution{ID: "inst-a", Name: "Clínica A"},
				Coordinate:  entities.Coordinate{Latitude: -8.81, Longitude: 13.21},
				DistanceKm:  1.5,
				SectorName:  "Santé",
			}},
		})
	f.discovery.On("Categories", mock.Anything, session, locatedAt(-8.8, 13.2)).
		Return(entities.DiscoveryOutcome[entities.CategoryView]{
			Status: entities.DiscoveryStatusEmpty,
			Items:  nil,
		})

	resp := f.query(t, `{
		nearbyInstitutions(lat: -8.8, lng: 13.2, lang: "fr") {
			status location { latitude longitude }
			items { id sectorName distanceKm location { latitude } }
		}
		nearbyCategories(lat: -8.8, lng: 13.2, lang: "fr") { status items { id name } }
	}`, nil)

	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{
		"nearbyInstitutions":{
			"status":"ok","location":{"latitude":-8.8,"longitude":13.2},
			"items":[{"id":"inst-a","sectorName":"Santé","distanceKm":1.5,"location":{"latitude":-8.81}}]},
		"nearbyCategories":{"status":"empty","items":[]}}`, string(resp.Data))
}

func TestQuery_SearchServices(t *testing.T) {
	f := newFixture()

	f.search.On("Search", mock.Anything, repositories.ServiceSearchParams{Query: "consulta", Language: "pt", Limit: 20}).
		Return([]entities.SearchHit{
			{ServiceID: "s1", InstitutionID: "inst-a", CategoryID: "cat-1", Name: "Consulta", DisplayName: "Consulta", PriceLabel: "100 kz"},
			{ServiceID: "s2", InstitutionID: "gone", Name: "Consulta geral", DisplayName: "Consulta geral"},
		}, nil)
	f.institutions.On("GetByIDs", mock.Anything, sameIDs("gone", "inst-a")).
		Return([]*entities.Institution{{ID: "inst-a", Name: "Clínica A"}}, nil).Once()
	f.categories.On("GetByIDs", mock.Anything, []string{"cat-1"}).
		Return([]*entities.Category{{ID: "cat-1", Translations: []entities.Translation{
			{Language: "en", Name: "Exams"},
			{Language: "pt", Name: "Exames"},
		}}}, nil).Once()

	resp := f.query(t, `{
		searchServices(q: "consulta", category: "all") {
			serviceId priceLabel institution { name } category { name }
		}
	}`, nil)

	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"searchServices":[
		{"serviceId":"s1","priceLabel":"100 kz","institution":{"name":"Clínica A"},"category":{"name":"Exames"}},
		{"serviceId":"s2","priceLabel":"","institution":null,"category":null}]}`, string(resp.Data))
}

func TestQuery_SearchServicesFailureIsNotLeaked(t *testing.T) {
	f := newFixture()
	f.search.On("Search", mock.Anything, mock.Anything).Return(nil, errors.New("typesense: connection refused"))

	resp := f.query(t, `{ searchServices(q: "x") { serviceId } }`, nil)

	assert.Equal(t, "null", string(resp.Data))
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "internal server error", resp.Errors[0].Message)
	assert.Equal(t, "INTERNAL", resp.Errors[0].Extensions["type"])
}

func TestQuery_InstitutionPage(t *testing.T) {
	f := newFixture()
	created := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)

	f.browse.On("InstitutionDetail", mock.Anything, "inst-a", "pt").Return(&entities.InstitutionDetail{
		Institution: entities.Institution{ID: "inst-a", Name: "Clínica A", LogoURL: "https://cdn/logo.png"},
		SectorName:  "Saúde",
		Services: []entities.ServiceView{{
			ID: "s1", Name: "Consulta", Description: "Geral", Price: 2500,
			CategoryName: services.NoCategoryPlaceholder, CreatedAt: created,
		}},
	}, nil)
	f.browse.On("InstitutionDetail", mock.Anything, "missing", "en").Return(nil, apperrors.NewNotFoundError("institution not found"))

	resp := f.query(t, `{
		found: institution(id: "inst-a") { name logoUrl phone sectorName services { id priceLabel categoryName createdAt } }
		missing: institution(id: "missing", lang: "en") { name }
	}`, nil)

	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{
		"found":{"name":"Clínica A","logoUrl":"https://cdn/logo.png","phone":null,"sectorName":"Saúde",
			"services":[{"id":"s1","priceLabel":"2500 kz","categoryName":"no category","createdAt":"2025-03-02T10:00:00Z"}]},
		"missing":null}`, string(resp.Data))
}

func TestQuery_ServicePage(t *testing.T) {
	f := newFixture()

	f.browse.On("ServiceDetail", mock.Anything, "s1", "en").Return(&entities.ServiceDetail{
		ServiceView: entities.ServiceView{
			ID: "s1", InstitutionID: "inst-a", Name: "Consultation", Description: services.NoDescriptionPlaceholder,
			Price: 100, CategoryName: "Exams", CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		InstitutionName:  "Clínica A",
		InstitutionPhone: "244900000001",
		SectorName:       "Health",
	}, nil)
	f.institutions.On("GetByIDs", mock.Anything, []string{"inst-a"}).
		Return([]*entities.Institution{{ID: "inst-a", Name: "Clínica A"}}, nil)

	resp := f.query(t, `{
		service(id: "s1", lang: "en") { id name description institutionName institutionPhone sectorName institution { id } }
	}`, nil)

	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"service":{
		"id":"s1","name":"Consultation","description":"no description",
		"institutionName":"Clínica A","institutionPhone":"244900000001","sectorName":"Health",
		"institution":{"id":"inst-a"}}}`, string(resp.Data))
}

func TestQuery_DashboardAndMonthlySeries(t *testing.T) {
	f := newFixture()

	f.stats.On("Dashboard", mock.Anything, "inst-a").Return(&entities.DashboardStats{
		InstitutionID: "inst-a",
		Interactions:  entities.MonthlyCount{Current: 12, Previous: 8, PercentageChange: 50},
		Services:      entities.MonthlyCount{Current: 1},
	}, nil)
	f.stats.On("InteractionsByMonth", mock.Anything, "inst-a", "pt").Return(&entities.MonthlySeries{
		InstitutionID: "inst-a",
		Year:          2025,
		Language:      "pt",
		Months:        []string{"Jan", "Fev"},
		Counts:        []int{3, 0},
	}, nil)

	resp := f.query(t, `{
		dashboard(institutionId: "inst-a") { interactions { current previous percentageChange } services { current } }
		interactionsByMonth(institutionId: "inst-a") { year language months counts }
	}`, nil)

	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{
		"dashboard":{"interactions":{"current":12,"previous":8,"percentageChange":50},"services":{"current":1}},
		"interactionsByMonth":{"year":2025,"language":"pt","months":["Jan","Fev"],"counts":[3,0]}}`, string(resp.Data))
}

func TestQuery_DashboardNotFound(t *testing.T) {
	f := newFixture()
	f.stats.On("Dashboard", mock.Anything, "nobody").Return(nil, apperrors.NewNotFoundError("institution not found"))

	resp := f.query(t, `{ dashboard(institutionId: "nobody") { institutionId } }`, nil)

	assert.Equal(t, "null", string(resp.Data))
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "institution not found", resp.Errors[0].Message)
	assert.Equal(t, "NOT_FOUND", resp.Errors[0].Extensions["type"])
}
