package providers

import (
	"context"

	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to model events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.ModelEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ModelEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelModelUpdates carries no-show model lifecycle events
const EventChannelModelUpdates = "noshow:model:updates"
