package geolocation

import (
	"context"
	"strings"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/providers"
)

// MockGeocoder resolves a fixed set of Angolan cities, for development and tests
type MockGeocoder struct {
	cities []mockCity
}

type mockCity struct {
	name       string
	coordinate entities.Coordinate
}

var _ providers.Geocoder = (*MockGeocoder)(nil)

// NewMockGeocoder creates a new mock geocoder
func NewMockGeocoder() *MockGeocoder {
	return &MockGeocoder{cities: []mockCity{
		{"luanda", entities.Coordinate{Latitude: -8.8383, Longitude: 13.2344}},
		{"viana", entities.Coordinate{Latitude: -8.9035, Longitude: 13.3740}},
		{"benguela", entities.Coordinate{Latitude: -12.5763, Longitude: 13.4055}},
		{"lobito", entities.Coordinate{Latitude: -12.3644, Longitude: 13.5360}},
		{"huambo", entities.Coordinate{Latitude: -12.7761, Longitude: 15.7392}},
		{"lubango", entities.Coordinate{Latitude: -14.9177, Longitude: 13.4925}},
		{"malanje", entities.Coordinate{Latitude: -9.5402, Longitude: 16.3410}},
		{"cabinda", entities.Coordinate{Latitude: -5.5500, Longitude: 12.2000}},
	}}
}

// Geocode returns the coordinate of the first known city named in address
func (m *MockGeocoder) Geocode(ctx context.Context, address string) (*entities.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lower := strings.ToLower(address)
	for _, city := range m.cities {
		if strings.Contains(lower, city.name) {
			c := city.coordinate
			return &c, nil
		}
	}
	return nil, ErrNoResults
}
