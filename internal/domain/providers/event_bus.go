package providers

import (
	"context"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to catalog events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.CatalogEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.CatalogEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelCatalogUpdates carries every catalog change
	EventChannelCatalogUpdates = "catalog:updates"

	// EventChannelInstitutionPrefix prefixes per-institution channels
	EventChannelInstitutionPrefix = "institution:"
)

// GetInstitutionChannel returns the channel name for a specific institution
func GetInstitutionChannel(institutionID string) string {
	return EventChannelInstitutionPrefix + institutionID
}
