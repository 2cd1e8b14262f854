package entities

import (
	"time"

	"github.com/google/uuid"
)

// CatalogEventType represents the kind of catalog change
type CatalogEventType string

const (
	CatalogEventServiceCreated  CatalogEventType = "service_created"
	CatalogEventServiceUpdated  CatalogEventType = "service_updated"
	CatalogEventCategoryCreated CatalogEventType = "category_created"
	CatalogEventLocationChanged CatalogEventType = "location_changed"
)

// CatalogEvent is published whenever an institution's catalog changes.
type CatalogEvent struct {
	ID            string           `json:"id"`
	InstitutionID string           `json:"institution_id"`
	EntityID      string           `json:"entity_id,omitempty"`
	EventType     CatalogEventType `json:"event_type"`
	Timestamp     time.Time        `json:"timestamp"`
}

// NewCatalogEvent creates a new catalog event
func NewCatalogEvent(institutionID, entityID string, eventType CatalogEventType) *CatalogEvent {
	return &CatalogEvent{
		ID:            uuid.NewString(),
		InstitutionID: institutionID,
		EntityID:      entityID,
		EventType:     eventType,
		Timestamp:     time.Now().UTC(),
	}
}
