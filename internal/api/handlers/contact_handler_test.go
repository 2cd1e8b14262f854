package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lingatchoss/marketplace/internal/api/handlers"
	"github.com/lingatchoss/marketplace/internal/domain/entities"
	apperrors "github.com/lingatchoss/marketplace/pkg/errors"
)

func TestContactHandler_ContactService(t *testing.T) {
	svc := new(MockContactService)
	h := handlers.NewContactHandler(svc, "pt")

	link := &entities.ContactLink{
		URL:     "https://wa.me/244923000000?text=inst-1%20Ol%C3%A1",
		Phone:   "244923000000",
		Message: "inst-1 Olá",
	}
	svc.On("ContactService", mock.Anything, "svc-1", "pt").Return(link, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/contact/services/svc-1", nil)
	req.SetPathValue("id", "svc-1")
	w := httptest.NewRecorder()

	h.ContactService(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got entities.ContactLink
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, *link, got)
	svc.AssertExpectations(t)
}

func TestContactHandler_ContactServiceUsesRequestedLanguage(t *testing.T) {
	svc := new(MockContactService)
	h := handlers.NewContactHandler(svc, "pt")
	svc.On("ContactService", mock.Anything, "svc-1", "fr").Return(&entities.ContactLink{}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/contact/services/svc-1?lang=fr", nil)
	req.SetPathValue("id", "svc-1")
	w := httptest.NewRecorder()

	h.ContactService(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestContactHandler_ContactInstitutionNotFound(t *testing.T) {
	svc := new(MockContactService)
	h := handlers.NewContactHandler(svc, "pt")
	svc.On("ContactInstitution", mock.Anything, "missing").
		Return(nil, apperrors.NewNotFoundError("institution not found")).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/contact/institutions/missing", nil)
	req.SetPathValue("id", "missing")
	w := httptest.NewRecorder()

	h.ContactInstitution(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"institution not found","type":"NOT_FOUND"}`, w.Body.String())
}

func TestContactHandler_MissingID(t *testing.T) {
	svc := new(MockContactService)
	h := handlers.NewContactHandler(svc, "pt")

	req := httptest.NewRequest(http.MethodPost, "/api/contact/institutions/", nil)
	w := httptest.NewRecorder()

	h.ContactInstitution(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "ContactInstitution", mock.Anything, mock.Anything)
}

func TestContactHandler_InternalErrorsAreHidden(t *testing.T) {
	svc := new(MockContactService)
	h := handlers.NewContactHandler(svc, "pt")
	svc.On("ContactInstitution", mock.Anything, "inst-1").
		Return(nil, apperrors.NewInternalError("failed to get institution", assert.AnError)).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/contact/institutions/inst-1", nil)
	req.SetPathValue("id", "inst-1")
	w := httptest.NewRecorder()

	h.ContactInstitution(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
	assert.Contains(t, w.Body.String(), "internal server error")
}
