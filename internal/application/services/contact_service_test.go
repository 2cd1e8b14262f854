package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lingatchoss/marketplace/internal/application/services"
	"github.com/lingatchoss/marketplace/internal/domain/entities"
	apperrors "github.com/lingatchoss/marketplace/pkg/errors"
)

func newContactService(institutions *MockInstitutionRepository, svcs *MockServiceRepository, interactions *MockInteractionRepository) *services.ContactService {
	return services.NewContactService(institutions, svcs, interactions, services.NewPresenter("kz", "https://wa.me"), "+244 935 150 370", nil)
}

func TestContactService_ServiceLinkAndInteraction(t *testing.T) {
	institutions := new(MockInstitutionRepository)
	svcs := new(MockServiceRepository)
	interactions := new(MockInteractionRepository)

	svcs.On("GetByID", mock.Anything, "svc-1").Return(service("svc-1", "inst-1", "", pt("Consulta", ""), en("Checkup", "")), nil)
	institutions.On("GetByID", mock.Anything, "inst-1").Return(&entities.Institution{ID: "inst-1", Name: "Clínica", WhatsAppNumber: "+244 923 000 111"}, nil)
	interactions.On("Create", mock.Anything, mock.MatchedBy(func(i *entities.Interaction) bool {
		return i.CompanyID == "inst-1" && i.ServiceID != nil && *i.ServiceID == "svc-1" &&
			i.Channel == entities.ContactChannelWhatsApp && i.ID != ""
	})).Return(nil)

	link, err := newContactService(institutions, svcs, interactions).ContactService(context.Background(), "svc-1", "en")

	require.NoError(t, err)
	assert.Equal(t, "244923000111", link.Phone)
	assert.Equal(t, "inst-1 Olá, tenho interesse no serviço: Checkup", link.Message)
	assert.Equal(t, "https://wa.me/244923000111?text="+services.EncodeMessage(link.Message), link.URL)
	interactions.AssertExpectations(t)
}

func TestContactService_RecordingFailureStillReturnsLink(t *testing.T) {
	institutions := new(MockInstitutionRepository)
	interactions := new(MockInteractionRepository)

	institutions.On("GetByID", mock.Anything, "inst-1").Return(&entities.Institution{ID: "inst-1", Name: "Clínica"}, nil)
	interactions.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	link, err := newContactService(institutions, new(MockServiceRepository), interactions).ContactInstitution(context.Background(), "inst-1")

	require.NoError(t, err)
	assert.Equal(t, "244935150370", link.Phone)
	assert.Equal(t, "https://wa.me/244935150370?text=Ol%C3%A1%20Cl%C3%ADnica", link.URL)
}

func TestContactService_UnknownService(t *testing.T) {
	svcs := new(MockServiceRepository)
	interactions := new(MockInteractionRepository)
	svcs.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.NewNotFoundError("service not found"))

	_, err := newContactService(new(MockInstitutionRepository), svcs, interactions).ContactService(context.Background(), "missing", "pt")

	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNotFound))
	interactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
