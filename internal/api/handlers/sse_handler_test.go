package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingatchoss/marketplace/internal/api/handlers"
	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/providers"
)

func TestSSEHandler_StreamInstitutionEvents(t *testing.T) {
	bus := NewMockEventBus()
	handler := handlers.NewSSEHandler(bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/institutions/inst-1/events", nil)
	req.SetPathValue("id", "inst-1")
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		handler.StreamInstitutionEvents(w, req)
		close(done)
	}()

	select {
	case channel := <-bus.subscribed:
		assert.Equal(t, providers.GetInstitutionChannel("inst-1"), channel)
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not subscribe")
	}

	event := entities.NewCatalogEvent("inst-1", "svc-1", entities.CatalogEventServiceCreated)
	require.NoError(t, bus.Publish(ctx, providers.GetInstitutionChannel("inst-1"), event))

	// let the handler write the event before disconnecting
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not exit after cancel")
	}

	result := w.Result()
	assert.Equal(t, "text/event-stream", result.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", result.Header.Get("Cache-Control"))

	body := w.Body.String()
	assert.Contains(t, body, "event: connected\n")
	assert.Contains(t, body, `"institution_id":"inst-1"`)
	assert.Contains(t, body, "event: service_created\n")
	assert.Contains(t, body, `"entity_id":"svc-1"`)
	assert.Equal(t, 0, handler.ClientCount())
}

func TestSSEHandler_SubscribeFailure(t *testing.T) {
	bus := NewMockEventBus()
	bus.err = errors.New("redis down")
	handler := handlers.NewSSEHandler(bus)

	req := httptest.NewRequest(http.MethodGet, "/api/institutions/inst-1/events", nil)
	req.SetPathValue("id", "inst-1")
	w := httptest.NewRecorder()

	handler.StreamInstitutionEvents(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, 0, handler.ClientCount())
}

func TestSSEHandler_MissingID(t *testing.T) {
	handler := handlers.NewSSEHandler(NewMockEventBus())

	req := httptest.NewRequest(http.MethodGet, "/api/institutions//events", nil)
	w := httptest.NewRecorder()

	handler.StreamInstitutionEvents(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
