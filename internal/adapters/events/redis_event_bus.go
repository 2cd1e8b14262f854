package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/providers"
)

const subscriberBuffer = 100

type subscription struct {
	pubsub      *redis.PubSub
	subscribers map[chan *entities.CatalogEvent]struct{}
}

// RedisEventBus implements the EventBus interface using Redis Pub/Sub
type RedisEventBus struct {
	client *redis.Client
	subs   map[string]*subscription
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

var _ providers.EventBus = (*RedisEventBus)(nil)

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redis.Client) *RedisEventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client: client,
		subs:   make(map[string]*subscription),
		ctx:    ctx,
		cancel: cancel,
	}
}

// EncodeEvent serialises an event for the wire
func EncodeEvent(event *entities.CatalogEvent) ([]byte, error) {
	return json.Marshal(event)
}

// DecodeEvent parses a wire payload
func DecodeEvent(payload string) (*entities.CatalogEvent, error) {
	var event entities.CatalogEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// Publish publishes an event to all subscribers
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.CatalogEvent) error {
	data, err := EncodeEvent(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Debug().Str("channel", channel).Str("event_id", event.ID).Str("event_type", string(event.EventType)).Msg("published catalog event")
	return nil
}

// Subscribe returns a channel of events that closes when ctx ends or the bus closes
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.CatalogEvent, error) {
	b.mu.Lock()
	if b.ctx.Err() != nil {
		b.mu.Unlock()
		return nil, errors.New("event bus is closed")
	}

	sub, ok := b.subs[channel]
	if !ok {
		pubsub := b.client.Subscribe(b.ctx, channel)
		sub = &subscription{
			pubsub:      pubsub,
			subscribers: make(map[chan *entities.CatalogEvent]struct{}),
		}
		b.subs[channel] = sub
		go b.fanOut(channel, sub)
	}

	events := make(chan *entities.CatalogEvent, subscriberBuffer)
	sub.subscribers[events] = struct{}{}
	count := len(sub.subscribers)
	b.mu.Unlock()

	log.Debug().Str("channel", channel).Int("subscribers", count).Msg("subscribed")

	go func() {
		select {
		case <-ctx.Done():
			b.removeSubscriber(channel, events)
		case <-b.ctx.Done():
		}
	}()

	return events, nil
}

func (b *RedisEventBus) fanOut(channel string, sub *subscription) {
	defer b.closeChannel(channel, sub)

	messages := sub.pubsub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}

			event, err := DecodeEvent(msg.Payload)
			if err != nil {
				log.Warn().Err(err).Str("channel", channel).Msg("dropping undecodable event")
				continue
			}

			b.mu.Lock()
			for subscriber := range sub.subscribers {
				select {
				case subscriber <- event:
				default:
					log.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("subscriber buffer full, event skipped")
				}
			}
			b.mu.Unlock()
		}
	}
}

func (b *RedisEventBus) removeSubscriber(channel string, events chan *entities.CatalogEvent) {
	b.mu.Lock()
	sub, ok := b.subs[channel]
	if !ok {
		b.mu.Unlock()
		return
	}
	if _, ok := sub.subscribers[events]; !ok {
		b.mu.Unlock()
		return
	}
	delete(sub.subscribers, events)
	close(events)
	last := len(sub.subscribers) == 0
	b.mu.Unlock()

	if last {
		b.closeChannel(channel, sub)
	}
}

// closeChannel closes the Redis subscription and every subscriber of channel.
// It is safe to call more than once for the same subscription.
func (b *RedisEventBus) closeChannel(channel string, sub *subscription) error {
	b.mu.Lock()
	if current, ok := b.subs[channel]; !ok || current != sub {
		b.mu.Unlock()
		return nil
	}
	delete(b.subs, channel)
	for subscriber := range sub.subscribers {
		close(subscriber)
	}
	sub.subscribers = nil
	b.mu.Unlock()

	if err := sub.pubsub.Close(); err != nil {
		return fmt.Errorf("failed to close subscription %s: %w", channel, err)
	}
	log.Debug().Str("channel", channel).Msg("closed subscription")
	return nil
}

// Unsubscribe drops every subscriber of channel
func (b *RedisEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	sub, ok := b.subs[channel]
	b.mu.Unlock()
	if !ok {
		return nil
	}
	return b.closeChannel(channel, sub)
}

// Close closes the event bus and all subscriptions
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	b.cancel()
	subs := make(map[string]*subscription, len(b.subs))
	for channel, sub := range b.subs {
		subs[channel] = sub
	}
	b.mu.Unlock()

	var errs []error
	for channel, sub := range subs {
		if err := b.closeChannel(channel, sub); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
