package events

import (
	"errors"

	"github.com/relocrm/leadstack/internal/logger"
)

// EventsService owns the broker connections of the process: one for publishing and
// one for consuming, so a blocked consumer never stalls publishers.
type EventsService struct {
	Publisher  *RabbitMQPublisher
	Subscriber *RabbitMQSubscriber
}

func NewEventsService(rabbitmqURL string, log logger.Logger, publisherConfig *PublisherConfig, subscriberConfig *SubscriberConfig) (*EventsService, error) {
	publisher, err := NewRabbitMQPublisher(rabbitmqURL, log, publisherConfig)
	if err != nil {
		return nil, err
	}

	subscriber, err := NewRabbitMQSubscriber(rabbitmqURL, log, subscriberConfig)
	if err != nil {
		_ = publisher.Close()
		return nil, err
	}

	return &EventsService{Publisher: publisher, Subscriber: subscriber}, nil
}

// Close stops consuming before it stops publishing, so handlers still running can
// emit their follow-up events.
func (s *EventsService) Close() error {
	var subscriberErr, publisherErr error
	if s.Subscriber != nil {
		subscriberErr = s.Subscriber.Close()
	}
	if s.Publisher != nil {
		publisherErr = s.Publisher.Close()
	}
	return errors.Join(subscriberErr, publisherErr)
}
