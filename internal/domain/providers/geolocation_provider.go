package providers

import (
	"context"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
)

// Geocoder converts a free-text address into coordinates
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*entities.Coordinate, error)
}

// DeviceLocator reads the consumer's current position. A nil coordinate comes
// with the reason the read failed; implementations must honour ctx deadlines.
type DeviceLocator interface {
	Locate(ctx context.Context) (*entities.Coordinate, entities.LocationFailureReason)
}
