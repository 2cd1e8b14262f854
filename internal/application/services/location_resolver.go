package services

import (
	"context"
	"time"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/providers"
	"github.com/lingatchoss/marketplace/internal/infrastructure/observability"
)

// DefaultLocationTimeout bounds a device location read
const DefaultLocationTimeout = 10 * time.Second

// storeWriteTimeout bounds persisting a device reading. The write outlives the
// request so a superseded request still keeps a good reading.
const storeWriteTimeout = 2 * time.Second

// LocationResolver obtains the consumer's coordinate, preferring the cached one
type LocationResolver struct {
	store   providers.LocationStore
	timeout time.Duration
	metrics *observability.Metrics
}

// NewLocationResolver creates a new location resolver. metrics may be nil.
func NewLocationResolver(store providers.LocationStore, timeout time.Duration, metrics *observability.Metrics) *LocationResolver {
	if timeout <= 0 {
		timeout = DefaultLocationTimeout
	}
	return &LocationResolver{store: store, timeout: timeout, metrics: metrics}
}

// Resolve returns the cached coordinate for the session's client, or asks the
// device once. It never fails; an unavailable location carries the reason.
func (r *LocationResolver) Resolve(ctx context.Context, session entities.Session, locator providers.DeviceLocator) entities.ResolvedLocation {
	logger := observability.LoggerFromContext(ctx)

	cached, err := r.store.GetCoordinate(ctx, session.ClientID)
	if err != nil {
		logger.Warn().Err(err).Str("client_id", session.ClientID).Msg("location store read failed")
	}
	if cached != nil {
		r.record(ctx, string(entities.LocationSourceCache))
		return entities.ResolvedLocation{Coordinate: cached, Source: entities.LocationSourceCache}
	}

	if locator == nil {
		r.record(ctx, string(entities.LocationUnsupported))
		return entities.ResolvedLocation{Failure: entities.LocationUnsupported}
	}

	locateCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	coordinate, reason := r.locate(locateCtx, locator)
	if coordinate == nil {
		if reason == "" {
			reason = entities.LocationPositionUnavailable
		}
		r.record(ctx, string(reason))
		logger.Debug().Str("client_id", session.ClientID).Str("reason", string(reason)).Msg("device location unavailable")
		return entities.ResolvedLocation{Failure: reason}
	}

	writeCtx, cancelWrite := context.WithTimeout(context.WithoutCancel(ctx), storeWriteTimeout)
	defer cancelWrite()
	if err := r.store.SetCoordinate(writeCtx, session.ClientID, *coordinate); err != nil {
		logger.Warn().Err(err).Str("client_id", session.ClientID).Msg("failed to cache device location")
	}

	r.record(ctx, string(entities.LocationSourceDevice))
	return entities.ResolvedLocation{Coordinate: coordinate, Source: entities.LocationSourceDevice}
}

// locate runs the locator and reports timeout when the deadline passes first.
func (r *LocationResolver) locate(ctx context.Context, locator providers.DeviceLocator) (*entities.Coordinate, entities.LocationFailureReason) {
	type reading struct {
		coordinate *entities.Coordinate
		reason     entities.LocationFailureReason
	}

	done := make(chan reading, 1)
	go func() {
		c, reason := locator.Locate(ctx)
		done <- reading{coordinate: c, reason: reason}
	}()

	select {
	case res := <-done:
		if res.coordinate == nil && ctx.Err() == context.DeadlineExceeded {
			return nil, entities.LocationTimeout
		}
		return res.coordinate, res.reason
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, entities.LocationTimeout
		}
		return nil, entities.LocationPositionUnavailable
	}
}

// Refresh forgets the cached coordinate so the next read asks the device
func (r *LocationResolver) Refresh(ctx context.Context, clientID string) error {
	return r.store.ClearCoordinate(ctx, clientID)
}

func (r *LocationResolver) record(ctx context.Context, outcome string) {
	if r.metrics != nil {
		observability.RecordLocation(ctx, r.metrics, outcome)
	}
}
