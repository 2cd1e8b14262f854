package providers

import (
	"context"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
)

// LocationStore persists per-client discovery preferences.
type LocationStore interface {
	// GetCoordinate returns the cached coordinate, or nil when none is stored
	GetCoordinate(ctx context.Context, clientID string) (*entities.Coordinate, error)

	// SetCoordinate stores the coordinate until it is cleared
	SetCoordinate(ctx context.Context, clientID string, coordinate entities.Coordinate) error

	// ClearCoordinate forgets the cached coordinate
	ClearCoordinate(ctx context.Context, clientID string) error

	// GetLanguage returns the stored display language, or "" when unset
	GetLanguage(ctx context.Context, clientID string) (string, error)

	// SetLanguage stores the display language
	SetLanguage(ctx context.Context, clientID, language string) error
}
