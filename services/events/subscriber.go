package events

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rabbitmq/amqp091-go"

	"github.com/relocrm/leadstack/dto"
	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/logger"
	"github.com/relocrm/leadstack/internal/tracing"
	"github.com/relocrm/leadstack/internal/utils"
)

// RetryHeader counts how often a failed message was handed back to its queue.
const RetryHeader = "x-leadstack-retries"

const consumerRestartDelay = 5 * time.Second

type SubscriberConfig struct {
	// MaxRetries is how often a message whose handler failed is redelivered before it
	// is dead-lettered.
	MaxRetries          int
	ReconnectBackoff    time.Duration
	MaxReconnectBackoff time.Duration
}

type RabbitMQSubscriber struct {
	connection      *amqp091.Connection
	connectionMutex sync.Mutex
	url             string
	logger          logger.Logger
	config          SubscriberConfig
	listeners       map[string]interfaces.EventListener
	listenerMutex   sync.RWMutex
	done            chan struct{}
	closeOnce       sync.Once
}

func NewRabbitMQSubscriber(rabbitmqURL string, logger logger.Logger, config *SubscriberConfig) (*RabbitMQSubscriber, error) {
	if config == nil {
		config = &SubscriberConfig{
			MaxRetries:          DefaultMaxRetries,
			ReconnectBackoff:    DefaultReconnectBackoff,
			MaxReconnectBackoff: DefaultMaxReconnectBackoff,
		}
	}

	subscriber := &RabbitMQSubscriber{
		url:       rabbitmqURL,
		logger:    logger,
		config:    *config,
		listeners: make(map[string]interfaces.EventListener),
		done:      make(chan struct{}),
	}

	if err := subscriber.connect(); err != nil {
		return nil, err
	}
	return subscriber, nil
}

func (r *RabbitMQSubscriber) RegisterListener(listener interfaces.EventListener) {
	r.listenerMutex.Lock()
	defer r.listenerMutex.Unlock()

	eventType := listener.GetEventType()
	r.listeners[eventType] = listener
	r.logger.Infof("Registered listener for event type: %s on queue: %s", eventType, listener.GetQueueName())
}

// ListenQueue consumes a durable queue shared by all replicas.
func (r *RabbitMQSubscriber) ListenQueue(queueName string) error {
	r.consume(queueName, func(channel *amqp091.Channel) (string, <-chan amqp091.Delivery, error) {
		msgs, err := channel.Consume(queueName, "", false, false, false, false, nil)
		return queueName, msgs, err
	})
	return nil
}

// ListenQueueExclusive consumes a queue that only one replica may read at a time.
func (r *RabbitMQSubscriber) ListenQueueExclusive(queueName string) error {
	r.consume(queueName, func(channel *amqp091.Channel) (string, <-chan amqp091.Delivery, error) {
		msgs, err := channel.Consume(queueName, "", false, true, false, false, nil)
		if err != nil && strings.Contains(err.Error(), "ACCESS_REFUSED") {
			err = errors.Wrap(err, "another replica holds the exclusive consumer")
		}
		return queueName, msgs, err
	})
	return nil
}

// ListenFanout consumes a fanout exchange through a server-named queue owned by this
// process, so every replica receives every message. Listeners for it use the exchange
// name as their queue name.
func (r *RabbitMQSubscriber) ListenFanout(exchange string) error {
	r.consume(exchange, func(channel *amqp091.Channel) (string, <-chan amqp091.Delivery, error) {
		queue, err := channel.QueueDeclare("", false, true, true, false, nil)
		if err != nil {
			return "", nil, err
		}
		if err = channel.QueueBind(queue.Name, "", exchange, false, nil); err != nil {
			return "", nil, err
		}
		msgs, err := channel.Consume(queue.Name, "", false, true, false, false, nil)
		return queue.Name, msgs, err
	})
	return nil
}

type openConsumer func(channel *amqp091.Channel) (queue string, msgs <-chan amqp091.Delivery, err error)

// consume keeps a consumer for route alive until Close. route is the name listeners
// registered for; queue is the broker queue actually read.
func (r *RabbitMQSubscriber) consume(route string, open openConsumer) {
	go func() {
		for {
			select {
			case <-r.done:
				return
			default:
			}

			channel, err := r.openChannel()
			if err == nil {
				var queue string
				var msgs <-chan amqp091.Delivery
				if queue, msgs, err = open(channel); err == nil {
					r.logger.Infof("Listening for messages on %s (queue %s)", route, queue)
					for d := range msgs {
						r.handleMessage(channel, d, route, queue)
					}
					r.logger.Warnf("Consumer for %s stopped", route)
				}
				_ = channel.Close()
			}
			if err != nil {
				r.logger.Errorf("Failed to consume %s: %v. Retrying...", route, err)
			}

			select {
			case <-r.done:
				return
			case <-time.After(consumerRestartDelay):
			}
		}
	}()
}

type disposition int

const (
	dispositionAck disposition = iota
	dispositionRetry
	dispositionDeadLetter
)

// decide picks what happens to a delivery after its handler ran.
func decide(err error, attempts, maxRetries int) disposition {
	switch {
	case err == nil:
		return dispositionAck
	case errors.Is(err, ErrMalformedEvent):
		return dispositionDeadLetter
	case attempts < maxRetries:
		return dispositionRetry
	default:
		return dispositionDeadLetter
	}
}

func (r *RabbitMQSubscriber) handleMessage(channel *amqp091.Channel, d amqp091.Delivery, route, queue string) {
	defer tracing.RecoverAndLogToJaeger(r.logger)

	err := r.processMessage(d, route)
	attempts := retryCount(d.Headers)

	switch decide(err, attempts, r.config.MaxRetries) {
	case dispositionAck:
		r.retryAckNack(d, true)
	case dispositionRetry:
		r.logger.Warnf("Handler failed on %s (attempt %d of %d): %v", route, attempts+1, r.config.MaxRetries+1, err)
		if redeliverErr := r.redeliver(channel, d, queue, attempts+1); redeliverErr != nil {
			r.logger.Errorf("Failed to redeliver message on %s: %v", route, redeliverErr)
			r.retryAckNack(d, false)
			return
		}
		r.retryAckNack(d, true)
	case dispositionDeadLetter:
		r.logger.Errorf("Dead-lettering message on %s after %d attempts: %v", route, attempts+1, err)
		r.retryAckNack(d, false)
	}
}

// redeliver puts a copy of d back on its queue with the retry count raised, after a
// backoff that grows with every attempt.
func (r *RabbitMQSubscriber) redeliver(channel *amqp091.Channel, d amqp091.Delivery, queue string, attempt int) error {
	select {
	case <-r.done:
		return errors.New("subscriber closed")
	case <-time.After(r.retryDelay(attempt)):
	}

	headers := amqp091.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[RetryHeader] = int32(attempt)

	ctx, cancel := context.WithTimeout(context.Background(), DefaultPublishTimeout)
	defer cancel()
	return channel.PublishWithContext(ctx, "", queue, false, false, amqp091.Publishing{
		Headers:      headers,
		ContentType:  d.ContentType,
		DeliveryMode: d.DeliveryMode,
		MessageId:    d.MessageId,
		Timestamp:    d.Timestamp,
		Body:         d.Body,
	})
}

func (r *RabbitMQSubscriber) retryDelay(attempt int) time.Duration {
	delay := r.config.ReconnectBackoff
	for i := 1; i < attempt && delay < r.config.MaxReconnectBackoff; i++ {
		delay *= 2
	}
	if r.config.MaxReconnectBackoff > 0 && delay > r.config.MaxReconnectBackoff {
		delay = r.config.MaxReconnectBackoff
	}
	return delay
}

func retryCount(headers amqp091.Table) int {
	switch v := headers[RetryHeader].(type) {
	case int:
		return v
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	default:
		return 0
	}
}

func (r *RabbitMQSubscriber) processMessage(d amqp091.Delivery, route string) error {
	var event dto.Event
	if err := json.Unmarshal(d.Body, &event); err != nil {
		return errors.Wrap(ErrMalformedEvent, err.Error())
	}

	ctx := utils.WithCustomContext(context.Background(), &utils.CustomContext{
		AppSource: event.Metadata.AppSource,
		UserId:    event.Metadata.UserId,
		UserEmail: event.Metadata.UserEmail,
	})

	ctx, span := tracing.StartRabbitMQMessageTracerSpanWithHeader(ctx, "RabbitMQSubscriber.ProcessMessage", event.Metadata.UberTraceId)
	defer span.Finish()
	span.LogKV("event_type", event.Event.EventType, "route", route, "retries", retryCount(d.Headers))

	r.listenerMutex.RLock()
	listener, exists := r.listeners[event.Event.EventType]
	r.listenerMutex.RUnlock()

	if !exists {
		r.logger.Infof("No listener found for event type: %s on %s", event.Event.EventType, route)
		return nil
	}
	if listener.GetQueueName() != route {
		r.logger.Warnf("Event type %s received on %s, listener expects %s", event.Event.EventType, route, listener.GetQueueName())
		return nil
	}

	err := listener.Handle(ctx, event)
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *RabbitMQSubscriber) openChannel() (*amqp091.Channel, error) {
	r.connectionMutex.Lock()
	defer r.connectionMutex.Unlock()

	if r.connection == nil || r.connection.IsClosed() {
		return nil, errors.New("not connected to RabbitMQ")
	}
	return r.connection.Channel()
}

func (r *RabbitMQSubscriber) connect() error {
	r.connectionMutex.Lock()
	defer r.connectionMutex.Unlock()

	connection, err := amqp091.Dial(r.url)
	if err != nil {
		return errors.Wrap(err, "Failed to connect to RabbitMQ")
	}
	r.connection = connection

	go r.reconnectOnClose(connection.NotifyClose(make(chan *amqp091.Error, 1)))
	return nil
}

func (r *RabbitMQSubscriber) reconnectOnClose(notifyClose <-chan *amqp091.Error) {
	closeErr := <-notifyClose

	backoff := r.config.ReconnectBackoff
	for {
		select {
		case <-r.done:
			return
		default:
		}

		r.logger.Warnf("RabbitMQ connection closed (%v), attempting to reconnect", closeErr)
		if err := r.connect(); err == nil {
			r.logger.Info("Subscriber reconnected to RabbitMQ")
			return
		}

		select {
		case <-r.done:
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > r.config.MaxReconnectBackoff {
			backoff = r.config.MaxReconnectBackoff
		}
	}
}

func (r *RabbitMQSubscriber) retryAckNack(d amqp091.Delivery, ack bool) {
	const attempts = 5
	for i := 0; i < attempts; i++ {
		var err error
		if ack {
			err = d.Ack(false)
		} else {
			// no requeue: the queue's dead-letter exchange takes it
			err = d.Nack(false, false)
		}
		if err == nil {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	action := "acknowledge"
	if !ack {
		action = "dead-letter"
	}
	r.logger.Errorf("Failed to %s message after %d attempts", action, attempts)
}

func (r *RabbitMQSubscriber) Close() error {
	r.closeOnce.Do(func() { close(r.done) })

	r.connectionMutex.Lock()
	defer r.connectionMutex.Unlock()

	if r.connection != nil && !r.connection.IsClosed() {
		return r.connection.Close()
	}
	return nil
}
