package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lingatchoss/marketplace/internal/application/services"
	"github.com/lingatchoss/marketplace/internal/domain/entities"
	apperrors "github.com/lingatchoss/marketplace/pkg/errors"
)

type browseFixture struct {
	institutions *MockInstitutionRepository
	categories   *MockCategoryRepository
	services     *MockServiceRepository
	svc          *services.BrowseService
}

func newBrowseFixture() *browseFixture {
	f := &browseFixture{
		institutions: new(MockInstitutionRepository),
		categories:   new(MockCategoryRepository),
		services:     new(MockServiceRepository),
	}
	f.svc = services.NewBrowseService(f.institutions, f.categories, f.services)
	return f
}

func TestBrowseService_InstitutionDetail(t *testing.T) {
	f := newBrowseFixture()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	f.institutions.On("GetByID", mock.Anything, "inst-1").
		Return(&entities.Institution{ID: "inst-1", Name: "Clínica", SectorID: strPtr("saude")}, nil)
	f.institutions.On("SectorNames", mock.Anything, []string{"saude"}).
		Return([]entities.SectorTranslation{
			{SectorID: "saude", Language: "pt", Name: "Saúde"},
			{SectorID: "saude", Language: "en", Name: "Health"},
		}, nil)
	f.services.On("ListByInstitutions", mock.Anything, []string{"inst-1"}).
		Return([]*entities.Service{
			{ID: "old", InstitutionID: "inst-1", CategoryID: strPtr("cat-1"), CreatedAt: day,
				Translations: []entities.Translation{{Language: "pt", Name: "Consulta"}}},
			{ID: "new", InstitutionID: "inst-1", CategoryID: strPtr("gone"), CreatedAt: day.AddDate(0, 1, 0)},
		}, nil)
	f.categories.On("GetByIDs", mock.Anything, []string{"cat-1", "gone"}).
		Return([]*entities.Category{
			{ID: "cat-1", Translations: []entities.Translation{{Language: "pt", Name: "Consultas"}, {Language: "en", Name: "Visits"}}},
		}, nil)

	detail, err := f.svc.InstitutionDetail(context.Background(), "inst-1", "en")

	require.NoError(t, err)
	assert.Equal(t, "Health", detail.SectorName)
	require.Len(t, detail.Services, 2)
	assert.Equal(t, "new", detail.Services[0].ID)
	assert.Equal(t, services.NoNamePlaceholder, detail.Services[0].Name)
	assert.Equal(t, services.NoCategoryPlaceholder, detail.Services[0].CategoryName)
	assert.Equal(t, "Consulta", detail.Services[1].Name)
	assert.Equal(t, "Visits", detail.Services[1].CategoryName)
}

func TestBrowseService_InstitutionDetailSectorFallback(t *testing.T) {
	t.Run("no sector", func(t *testing.T) {
		f := newBrowseFixture()
		f.institutions.On("GetByID", mock.Anything, "inst-1").Return(&entities.Institution{ID: "inst-1"}, nil)
		f.services.On("ListByInstitutions", mock.Anything, []string{"inst-1"}).Return([]*entities.Service{}, nil)

		detail, err := f.svc.InstitutionDetail(context.Background(), "inst-1", "pt")

		require.NoError(t, err)
		assert.Equal(t, services.UnknownSectorPlaceholder, detail.SectorName)
		assert.Empty(t, detail.Services)
		f.institutions.AssertNotCalled(t, "SectorNames", mock.Anything, mock.Anything)
		f.categories.AssertNotCalled(t, "GetByIDs", mock.Anything, mock.Anything)
	})

	t.Run("lookup failure", func(t *testing.T) {
		f := newBrowseFixture()
		f.institutions.On("GetByID", mock.Anything, "inst-1").
			Return(&entities.Institution{ID: "inst-1", SectorID: strPtr("saude")}, nil)
		f.institutions.On("SectorNames", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
		f.services.On("ListByInstitutions", mock.Anything, mock.Anything).Return([]*entities.Service{}, nil)

		detail, err := f.svc.InstitutionDetail(context.Background(), "inst-1", "pt")

		require.NoError(t, err)
		assert.Equal(t, services.UnknownSectorPlaceholder, detail.SectorName)
	})
}

func TestBrowseService_InstitutionDetailNotFound(t *testing.T) {
	f := newBrowseFixture()
	f.institutions.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.NewNotFoundError("institution not found"))

	_, err := f.svc.InstitutionDetail(context.Background(), "missing", "pt")

	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNotFound))
	f.services.AssertNotCalled(t, "ListByInstitutions", mock.Anything, mock.Anything)
}

func TestBrowseService_ServiceDetail(t *testing.T) {
	f := newBrowseFixture()
	f.services.On("GetByID", mock.Anything, "svc-1").Return(&entities.Service{
		ID:            "svc-1",
		InstitutionID: "inst-1",
		Price:         1500,
		Translations:  []entities.Translation{{Language: "pt", Name: "Corte"}},
	}, nil)
	f.institutions.On("GetByID", mock.Anything, "inst-1").
		Return(&entities.Institution{ID: "inst-1", Name: "Salão Kianda", WhatsAppNumber: "+244923000002"}, nil)

	detail, err := f.svc.ServiceDetail(context.Background(), "svc-1", "fr")

	require.NoError(t, err)
	assert.Equal(t, "Corte", detail.Name)
	assert.Equal(t, services.NoDescriptionPlaceholder, detail.Description)
	assert.Equal(t, services.NoCategoryPlaceholder, detail.CategoryName)
	assert.Equal(t, "Salão Kianda", detail.InstitutionName)
	assert.Equal(t, "+244923000002", detail.InstitutionPhone)
	assert.Equal(t, services.UnknownSectorPlaceholder, detail.SectorName)
}

func TestBrowseService_ServiceDetailOrphan(t *testing.T) {
	f := newBrowseFixture()
	f.services.On("GetByID", mock.Anything, "svc-1").Return(&entities.Service{ID: "svc-1", InstitutionID: "gone"}, nil)
	f.institutions.On("GetByID", mock.Anything, "gone").Return(nil, apperrors.NewNotFoundError("institution not found"))

	_, err := f.svc.ServiceDetail(context.Background(), "svc-1", "pt")

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNotFound))
	assert.Contains(t, err.Error(), "service not found")
}

func TestBrowseService_InstitutionCategories(t *testing.T) {
	f := newBrowseFixture()
	f.categories.On("ListByInstitution", mock.Anything, "inst-1").Return([]*entities.Category{
		{ID: "cat-1", SectorID: strPtr("saude"), Translations: []entities.Translation{{Language: "pt", Name: "Consultas"}}},
		nil,
	}, nil)

	views, err := f.svc.InstitutionCategories(context.Background(), "inst-1", "en")

	require.NoError(t, err)
	assert.Equal(t, []entities.CategoryView{{ID: "cat-1", SectorID: "saude", ResolvedName: "Consultas"}}, views)
}
