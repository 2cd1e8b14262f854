// Package geo holds the distance and location-string helpers used by discovery.
package geo

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
)

// EarthRadiusKm is the mean Earth radius used by Distance.
const EarthRadiusKm = 6371.0

// Distance returns the great-circle distance in kilometers between two
// points using the haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLon := degreesToRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(lat1))*math.Cos(degreesToRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	// float error can push a slightly outside [0,1] for antipodal points
	a = math.Min(1, math.Max(0, a))

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// DistanceBetween is Distance over two coordinates.
func DistanceBetween(from, to entities.Coordinate) float64 {
	return Distance(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

var rawLocationPattern = regexp.MustCompile(`Lat:\s*(-?\d+(?:\.\d+)?),\s*Lng:\s*(-?\d+(?:\.\d+)?)`)

// ParseRawLocation extracts the coordinate embedded in an institution's
// free-text location as "Lat: <float>, Lng: <float>".
func ParseRawLocation(raw *string) (entities.Coordinate, bool) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return entities.Coordinate{}, false
	}

	m := rawLocationPattern.FindStringSubmatch(*raw)
	if m == nil {
		return entities.Coordinate{}, false
	}

	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return entities.Coordinate{}, false
	}
	lng, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return entities.Coordinate{}, false
	}

	return entities.Coordinate{Latitude: lat, Longitude: lng}, true
}

// FormatRawLocation renders a coordinate the way ParseRawLocation reads it.
func FormatRawLocation(c entities.Coordinate) string {
	return fmt.Sprintf("Lat: %s, Lng: %s",
		strconv.FormatFloat(c.Latitude, 'f', -1, 64),
		strconv.FormatFloat(c.Longitude, 'f', -1, 64))
}
