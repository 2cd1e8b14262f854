package geolocation

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/providers"
	"github.com/lingatchoss/marketplace/internal/infrastructure/observability"
)

// LocationHints is what a client told us about its position on one request.
type LocationHints struct {
	Latitude      string
	Longitude     string
	Address       string
	LocationError string
}

// RequestLocator answers the device-location read from the calling client's hints.
// Precedence: explicit coordinates, then a reported failure, then the address.
type RequestLocator struct {
	hints    LocationHints
	geocoder providers.Geocoder
}

var _ providers.DeviceLocator = (*RequestLocator)(nil)

// NewRequestLocator creates a locator for one request. geocoder may be nil.
func NewRequestLocator(hints LocationHints, geocoder providers.Geocoder) *RequestLocator {
	return &RequestLocator{hints: hints, geocoder: geocoder}
}

// Locate resolves the hints into a coordinate or a failure reason
func (l *RequestLocator) Locate(ctx context.Context) (*entities.Coordinate, entities.LocationFailureReason) {
	if l.hints.Latitude != "" || l.hints.Longitude != "" {
		c, ok := parseCoordinate(l.hints.Latitude, l.hints.Longitude)
		if !ok {
			return nil, entities.LocationPositionUnavailable
		}
		return &c, ""
	}

	if reason := strings.TrimSpace(l.hints.LocationError); reason != "" {
		return nil, entities.ParseLocationFailureReason(reason)
	}

	if address := strings.TrimSpace(l.hints.Address); address != "" && l.geocoder != nil {
		c, err := l.geocoder.Geocode(ctx, address)
		switch {
		case err == nil && c != nil:
			return c, ""
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
			return nil, entities.LocationTimeout
		default:
			observability.LoggerFromContext(ctx).Debug().Err(err).Msg("address could not be geocoded")
			return nil, entities.LocationPositionUnavailable
		}
	}

	return nil, entities.LocationUnsupported
}

func parseCoordinate(latStr, lngStr string) (entities.Coordinate, bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return entities.Coordinate{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return entities.Coordinate{}, false
	}
	if math.IsNaN(lat) || math.IsNaN(lng) || math.Abs(lat) > 90 || math.Abs(lng) > 180 {
		return entities.Coordinate{}, false
	}
	return entities.Coordinate{Latitude: lat, Longitude: lng}, true
}
