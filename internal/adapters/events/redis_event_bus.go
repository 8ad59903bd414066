package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
	"github.com/CoderVinit/doctor-backend/internal/domain/providers"
)

const subscriberBuffer = 16

// ErrClosed is returned by Subscribe after Close
var ErrClosed = errors.New("event bus closed")

// subscriber is one local consumer of a channel. dropped counts events it
// missed because its buffer was full.
type subscriber struct {
	events  chan *entities.ModelEvent
	dropped int
}

// RedisEventBus carries model events over Redis Pub/Sub. One Redis
// subscription per channel is fanned out to every local subscriber, so a
// replica holds a single connection however many SSE clients it serves.
type RedisEventBus struct {
	client        redis.UniversalClient
	subscriptions map[string]*redis.PubSub
	subscribers   map[string]map[*subscriber]struct{}
	mu            sync.RWMutex
	ctx           context.Context
	cancel        context.CancelFunc
	closeOnce     sync.Once
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client redis.UniversalClient) providers.EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client:        client,
		subscriptions: make(map[string]*redis.PubSub),
		subscribers:   make(map[string]map[*subscriber]struct{}),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Publish sends event to every replica subscribed to channel
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.ModelEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	receivers, err := b.client.Publish(ctx, channel, data).Result()
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Debug().
		Str("channel", channel).
		Str("event_id", event.ID).
		Str("model_version", event.Version).
		Int64("receivers", receivers).
		Msg("Published model event")
	return nil
}

// Subscribe returns a channel of events that closes when ctx is done or the
// bus shuts down. The first subscriber of a channel waits for Redis to confirm
// the subscription, so events published after Subscribe returns are seen.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ModelEvent, error) {
	if b.ctx.Err() != nil {
		return nil, ErrClosed
	}

	b.mu.Lock()
	if _, exists := b.subscriptions[channel]; !exists {
		pubsub := b.client.Subscribe(b.ctx, channel)
		if _, err := pubsub.Receive(ctx); err != nil {
			b.mu.Unlock()
			_ = pubsub.Close()
			return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
		}
		b.subscriptions[channel] = pubsub
		go b.receiveMessages(channel, pubsub)
	}

	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[*subscriber]struct{})
	}
	sub := &subscriber{events: make(chan *entities.ModelEvent, subscriberBuffer)}
	b.subscribers[channel][sub] = struct{}{}
	count := len(b.subscribers[channel])
	b.mu.Unlock()

	log.Info().Str("channel", channel).Int("subscribers", count).Msg("Subscribed to channel")

	go func() {
		select {
		case <-ctx.Done():
		case <-b.ctx.Done():
		}
		b.removeSubscriber(channel, sub)
	}()

	return sub.events, nil
}

// receiveMessages decodes each payload once and fans it out. A full
// subscriber misses the event rather than blocking the others.
func (b *RedisEventBus) receiveMessages(channel string, pubsub *redis.PubSub) {
	defer b.closeChannel(channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event entities.ModelEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Warn().Err(err).Str("channel", channel).Msg("Failed to unmarshal event")
				continue
			}

			b.mu.Lock()
			for sub := range b.subscribers[channel] {
				select {
				case sub.events <- &event:
				default:
					sub.dropped++
				}
			}
			b.mu.Unlock()
		}
	}
}

func (b *RedisEventBus) removeSubscriber(channel string, sub *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscribers := b.subscribers[channel]
	if _, ok := subscribers[sub]; !ok {
		return
	}
	delete(subscribers, sub)
	close(sub.events)
	if sub.dropped > 0 {
		log.Warn().Str("channel", channel).Int("dropped", sub.dropped).Msg("Subscriber missed events")
	}

	if len(subscribers) == 0 {
		delete(b.subscribers, channel)
		if pubsub, ok := b.subscriptions[channel]; ok {
			_ = pubsub.Close()
			delete(b.subscriptions, channel)
			log.Info().Str("channel", channel).Msg("Closed subscription")
		}
	}
}

// closeChannel drops the Redis subscription and closes every local subscriber
func (b *RedisEventBus) closeChannel(channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subscribers[channel] {
		close(sub.events)
	}
	delete(b.subscribers, channel)

	pubsub, ok := b.subscriptions[channel]
	if !ok {
		return nil
	}
	delete(b.subscriptions, channel)
	if err := pubsub.Close(); err != nil {
		return fmt.Errorf("failed to close subscription %s: %w", channel, err)
	}
	log.Info().Str("channel", channel).Msg("Closed subscription")
	return nil
}

// Unsubscribe closes every local subscriber of channel
func (b *RedisEventBus) Unsubscribe(ctx context.Context, channel string) error {
	return b.closeChannel(channel)
}

// Close shuts the bus down. It is safe to call more than once.
func (b *RedisEventBus) Close() error {
	var err error
	b.closeOnce.Do(func() {
		b.cancel()

		b.mu.RLock()
		channels := make([]string, 0, len(b.subscriptions))
		for channel := range b.subscriptions {
			channels = append(channels, channel)
		}
		b.mu.RUnlock()

		var errs []error
		for _, channel := range channels {
			if cerr := b.closeChannel(channel); cerr != nil {
				errs = append(errs, cerr)
			}
		}
		if len(errs) > 0 {
			err = fmt.Errorf("errors closing event bus: %w", errors.Join(errs...))
			return
		}
		log.Info().Msg("Event bus closed")
	})
	return err
}
