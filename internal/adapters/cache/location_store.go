package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/providers"
)

// Hash fields of a client's preference record
const (
	fieldLocation = "user_location"
	fieldLanguage = "language"
)

// RedisLocationStore keeps each client's coordinate and language in one Redis hash
type RedisLocationStore struct {
	client redis.Cmdable
	prefix string
}

var _ providers.LocationStore = (*RedisLocationStore)(nil)

// NewRedisLocationStore creates a location store; keys are prefix + client id
func NewRedisLocationStore(client redis.Cmdable, prefix string) *RedisLocationStore {
	return &RedisLocationStore{client: client, prefix: prefix}
}

// ClientKey returns the hash key for a client
func (s *RedisLocationStore) ClientKey(clientID string) string {
	return s.prefix + "client:" + clientID
}

type storedCoordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// EncodeCoordinate serialises a coordinate as {"lat":..,"lng":..}
func EncodeCoordinate(c entities.Coordinate) ([]byte, error) {
	return json.Marshal(storedCoordinate{Lat: c.Latitude, Lng: c.Longitude})
}

// DecodeCoordinate parses the stored form written by EncodeCoordinate
func DecodeCoordinate(data []byte) (entities.Coordinate, error) {
	var sc storedCoordinate
	if err := json.Unmarshal(data, &sc); err != nil {
		return entities.Coordinate{}, err
	}
	return entities.Coordinate{Latitude: sc.Lat, Longitude: sc.Lng}, nil
}

// GetCoordinate returns the cached coordinate, or nil when none is stored
func (s *RedisLocationStore) GetCoordinate(ctx context.Context, clientID string) (*entities.Coordinate, error) {
	data, err := s.client.HGet(ctx, s.ClientKey(clientID), fieldLocation).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read location for %s: %w", clientID, err)
	}

	c, err := DecodeCoordinate(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode location for %s: %w", clientID, err)
	}
	return &c, nil
}

// SetCoordinate stores the coordinate until it is cleared
func (s *RedisLocationStore) SetCoordinate(ctx context.Context, clientID string, coordinate entities.Coordinate) error {
	data, err := EncodeCoordinate(coordinate)
	if err != nil {
		return fmt.Errorf("failed to encode location: %w", err)
	}
	if err := s.client.HSet(ctx, s.ClientKey(clientID), fieldLocation, data).Err(); err != nil {
		return fmt.Errorf("failed to store location for %s: %w", clientID, err)
	}
	return nil
}

// ClearCoordinate forgets the cached coordinate
func (s *RedisLocationStore) ClearCoordinate(ctx context.Context, clientID string) error {
	if err := s.client.HDel(ctx, s.ClientKey(clientID), fieldLocation).Err(); err != nil {
		return fmt.Errorf("failed to clear location for %s: %w", clientID, err)
	}
	return nil
}

// GetLanguage returns the stored display language, or "" when unset
func (s *RedisLocationStore) GetLanguage(ctx context.Context, clientID string) (string, error) {
	lang, err := s.client.HGet(ctx, s.ClientKey(clientID), fieldLanguage).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read language for %s: %w", clientID, err)
	}
	return lang, nil
}

// SetLanguage stores the display language
func (s *RedisLocationStore) SetLanguage(ctx context.Context, clientID, language string) error {
	if err := s.client.HSet(ctx, s.ClientKey(clientID), fieldLanguage, language).Err(); err != nil {
		return fmt.Errorf("failed to store language for %s: %w", clientID, err)
	}
	return nil
}
