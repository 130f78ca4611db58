package interfaces

import (
	"context"

	"github.com/relocrm/leadstack/dto"
	"github.com/relocrm/leadstack/internal/enum"
)

type EventPublisher interface {
	// PublishEmailReceived queues a stored inbound email for lead import.
	PublishEmailReceived(ctx context.Context, message dto.EmailReceived) error
	// PublishNotificationChanged reaches every replica's live notification streams.
	PublishNotificationChanged(ctx context.Context, message dto.NotificationChanged) error
	PublishFanoutEvent(ctx context.Context, entityId string, entityType enum.EntityType, message interface{}) error
	Close() error
}

// EventListener handles one event type arriving on one queue. For fanout exchanges
// the queue name is the exchange name.
type EventListener interface {
	Handle(ctx context.Context, event any) error
	GetEventType() string
	GetQueueName() string
}

type EventSubscriber interface {
	RegisterListener(listener EventListener)
	ListenQueue(queueName string) error
	ListenQueueExclusive(queueName string) error
	ListenFanout(exchange string) error
	Close() error
}
