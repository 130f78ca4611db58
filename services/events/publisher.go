package events

import (
	"context"
	"encoding/json"
	"reflect"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/rabbitmq/amqp091-go"

	"github.com/relocrm/leadstack/dto"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/logger"
	"github.com/relocrm/leadstack/internal/tracing"
	"github.com/relocrm/leadstack/internal/utils"
)

const (
	// Exchange names
	ExchangeLeadstackDirect = "leadstack-direct"
	ExchangeLeadstack       = "leadstack"
	ExchangeNotifications   = "notifications"
	ExchangeDeadLetter      = "dead-letter"

	// queues
	QueueLeadstack     = "events-leadstack"
	QueueEmailReceived = "email-received"
	DLQLeadstack       = QueueLeadstack + "-dlq"
	DLQEmailReceived   = QueueEmailReceived + "-dlq"

	// routing keys
	RoutingKeyDeadLetter    = "dead-letter"
	RoutingKeyEmailReceived = "leadstack-email-received"

	DefaultMessageTTL          = 240 * time.Hour // after TTL message moves to DLQ
	DefaultMaxRetries          = 3
	DefaultPublishTimeout      = 5 * time.Second
	DefaultReconnectBackoff    = time.Second
	DefaultMaxReconnectBackoff = 30 * time.Second
)

type exchangeSpec struct {
	name string
	kind string
}

var exchanges = []exchangeSpec{
	{ExchangeDeadLetter, amqp091.ExchangeDirect},
	{ExchangeNotifications, amqp091.ExchangeFanout},
	{ExchangeLeadstack, amqp091.ExchangeFanout},
	{ExchangeLeadstackDirect, amqp091.ExchangeDirect},
}

type queueSpec struct {
	name       string
	deadLetter string
	exchange   string
	routingKey string
}

// The notifications exchange has no shared queue: each replica binds its own in
// RabbitMQSubscriber.ListenFanout.
var queues = []queueSpec{
	{QueueLeadstack, DLQLeadstack, ExchangeLeadstack, ""},
	{QueueEmailReceived, DLQEmailReceived, ExchangeLeadstackDirect, RoutingKeyEmailReceived},
}

type PublisherConfig struct {
	MessageTTL time.Duration
	// MaxRetries is the number of publish attempts before giving up.
	MaxRetries          int
	PublishTimeout      time.Duration
	ReconnectBackoff    time.Duration
	MaxReconnectBackoff time.Duration
}

type RabbitMQPublisher struct {
	connection      *amqp091.Connection
	connectionMutex sync.Mutex
	publishChannel  *amqp091.Channel
	publishMutex    sync.Mutex
	url             string
	logger          logger.Logger
	config          PublisherConfig
	done            chan struct{}
	closeOnce       sync.Once
}

func NewRabbitMQPublisher(rabbitmqURL string, logger logger.Logger, config *PublisherConfig) (*RabbitMQPublisher, error) {
	if config == nil {
		config = &PublisherConfig{
			MessageTTL:          DefaultMessageTTL,
			MaxRetries:          DefaultMaxRetries,
			PublishTimeout:      DefaultPublishTimeout,
			ReconnectBackoff:    DefaultReconnectBackoff,
			MaxReconnectBackoff: DefaultMaxReconnectBackoff,
		}
	}

	publisher := &RabbitMQPublisher{
		url:    rabbitmqURL,
		logger: logger,
		config: *config,
		done:   make(chan struct{}),
	}

	if err := publisher.connect(); err != nil {
		return nil, err
	}
	return publisher, nil
}

func (r *RabbitMQPublisher) PublishEmailReceived(ctx context.Context, message dto.EmailReceived) error {
	return r.publishEvent(ctx, message.EmailID, enum.EMAIL, message, ExchangeLeadstackDirect, RoutingKeyEmailReceived)
}

// PublishNotificationChanged tells every replica to refresh its notification subscribers
func (r *RabbitMQPublisher) PublishNotificationChanged(ctx context.Context, message dto.NotificationChanged) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RabbitMQPublisher.PublishNotificationChanged")
	defer span.Finish()
	span.LogKV("change", string(message.Change), "notificationIds", message.NotificationIDs)

	entityId := ""
	if len(message.NotificationIDs) == 1 {
		entityId = message.NotificationIDs[0]
		tracing.TagEntity(span, entityId)
	}

	err := r.publishEvent(ctx, entityId, enum.NOTIFICATION, message, ExchangeNotifications, "")
	if err != nil {
		tracing.TraceErr(span, err)
		r.logger.Errorf("Failed to publish notification change: %v", err)
	}
	return err
}

// PublishFanoutEvent announces a domain change (such as an imported customer) to
// downstream consumers of the leadstack exchange.
func (r *RabbitMQPublisher) PublishFanoutEvent(ctx context.Context, entityId string, entityType enum.EntityType, message interface{}) error {
	return r.publishEvent(ctx, entityId, entityType, message, ExchangeLeadstack, "")
}

// NewEvent wraps a payload in the envelope every listener expects, carrying the
// trace and caller from ctx.
func NewEvent(ctx context.Context, entityId string, entityType enum.EntityType, message interface{}, traceId string) dto.Event {
	return dto.Event{
		Event: dto.EventDetails{
			Id:         utils.GenerateNanoIDWithPrefix("event", 21),
			EntityId:   entityId,
			EntityType: entityType,
			EventType:  eventTypeOf(message),
			Data:       message,
		},
		Metadata: dto.EventMetadata{
			UberTraceId: traceId,
			AppSource:   utils.GetAppSourceFromContext(ctx),
			UserId:      utils.GetUserIdFromContext(ctx),
			UserEmail:   utils.GetUserEmailFromContext(ctx),
			Timestamp:   utils.Now().Format(time.RFC3339),
		},
	}
}

func (r *RabbitMQPublisher) publishEvent(ctx context.Context, entityId string, entityType enum.EntityType, message interface{}, exchange, routingKey string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RabbitMQPublisher.PublishEvent")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("exchange", exchange)

	carrier := tracing.ExtractTextMapCarrier(span.Context())
	event := NewEvent(ctx, entityId, entityType, message, carrier["uber-trace-id"])
	tracing.LogObjectAsJson(span, "event", event)

	body, err := json.Marshal(event)
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "Failed to marshal event")
	}

	var lastErr error
	for attempt := 1; attempt <= r.config.MaxRetries; attempt++ {
		if lastErr = r.publishWithConfirm(ctx, event.Event.Id, body, exchange, routingKey); lastErr == nil {
			return nil
		}
		r.logger.Warnf("Publish attempt %d of %s failed: %v", attempt, event.Event.EventType, lastErr)

		if attempt < r.config.MaxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(100 * time.Millisecond * time.Duration(attempt)):
			}
		}
	}

	err = errors.Wrapf(lastErr, "Failed to publish %s after %d attempts", event.Event.EventType, r.config.MaxRetries)
	tracing.TraceErr(span, err)
	return err
}

func (r *RabbitMQPublisher) publishWithConfirm(ctx context.Context, messageId string, body []byte, exchange, routingKey string) error {
	r.publishMutex.Lock()
	defer r.publishMutex.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	channel, err := r.ensureChannel()
	if err != nil {
		return err
	}

	confirmation, err := channel.PublishWithDeferredConfirmWithContext(ctx,
		exchange,
		routingKey,
		true,  // mandatory
		false, // immediate
		amqp091.Publishing{
			DeliveryMode: amqp091.Persistent,
			ContentType:  "application/json",
			MessageId:    messageId,
			Body:         body,
			Timestamp:    utils.Now(),
		})
	if err != nil {
		return errors.Wrap(err, "Failed to publish message")
	}

	waitCtx, cancel := context.WithTimeout(ctx, r.config.PublishTimeout)
	defer cancel()
	acked, err := confirmation.WaitContext(waitCtx)
	if err != nil {
		return errors.Wrap(err, "Publish confirmation not received")
	}
	if !acked {
		return errors.New("Message was not confirmed by server")
	}
	return nil
}

// ensureChannel returns a confirm-mode channel, reconnecting first when needed.
func (r *RabbitMQPublisher) ensureChannel() (*amqp091.Channel, error) {
	r.connectionMutex.Lock()
	healthy := r.connection != nil && !r.connection.IsClosed()
	r.connectionMutex.Unlock()

	if !healthy {
		if err := r.connect(); err != nil {
			return nil, errors.Wrap(err, "Failed to establish connection")
		}
	}

	r.connectionMutex.Lock()
	defer r.connectionMutex.Unlock()
	if r.publishChannel == nil || r.publishChannel.IsClosed() {
		if err := r.openPublishChannel(); err != nil {
			return nil, errors.Wrap(err, "Failed to establish channel")
		}
	}
	return r.publishChannel, nil
}

func (r *RabbitMQPublisher) connect() error {
	select {
	case <-r.done:
		return errors.New("publisher closed")
	default:
	}

	r.connectionMutex.Lock()
	defer r.connectionMutex.Unlock()

	connection, err := amqp091.Dial(r.url)
	if err != nil {
		return errors.Wrap(err, "Failed to connect to RabbitMQ")
	}
	r.connection = connection

	if err = r.declareTopology(); err != nil {
		_ = connection.Close()
		return errors.Wrap(err, "Failed to setup exchanges and queues")
	}
	if err = r.openPublishChannel(); err != nil {
		_ = connection.Close()
		return errors.Wrap(err, "Failed to setup publish channel")
	}

	go r.reconnectOnClose(connection.NotifyClose(make(chan *amqp091.Error, 1)))
	return nil
}

// openPublishChannel must be called with connectionMutex held.
func (r *RabbitMQPublisher) openPublishChannel() error {
	channel, err := r.connection.Channel()
	if err != nil {
		return errors.Wrap(err, "Failed to open publish channel")
	}
	if err = channel.Confirm(false); err != nil {
		_ = channel.Close()
		return errors.Wrap(err, "Failed to enable publisher confirms")
	}
	r.publishChannel = channel
	return nil
}

func (r *RabbitMQPublisher) reconnectOnClose(notifyClose <-chan *amqp091.Error) {
	closeErr := <-notifyClose

	backoff := r.config.ReconnectBackoff
	for {
		select {
		case <-r.done:
			return
		default:
		}

		r.logger.Warnf("RabbitMQ connection closed (%v), attempting to reconnect", closeErr)
		err := r.connect()
		if err == nil {
			r.logger.Info("Publisher reconnected to RabbitMQ")
			return
		}
		r.logger.Errorf("Failed to reconnect: %v, retrying in %v", err, backoff)

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

// declareTopology must be called with connectionMutex held.
func (r *RabbitMQPublisher) declareTopology() error {
	channel, err := r.connection.Channel()
	if err != nil {
		return errors.Wrap(err, "Failed to open channel for exchange/queue setup")
	}
	defer channel.Close()

	for _, exchange := range exchanges {
		if err = channel.ExchangeDeclare(exchange.name, exchange.kind, true, false, false, false, nil); err != nil {
			return errors.Wrapf(err, "Failed to declare exchange %s", exchange.name)
		}
	}

	for _, queue := range queues {
		if err = r.declareQueueWithDLQ(channel, queue.name, queue.deadLetter); err != nil {
			return err
		}
		if err = channel.QueueBind(queue.name, queue.routingKey, queue.exchange, false, nil); err != nil {
			return errors.Wrapf(err, "Failed to bind queue %s to exchange %s", queue.name, queue.exchange)
		}
	}
	return nil
}

func (r *RabbitMQPublisher) declareQueueWithDLQ(channel *amqp091.Channel, queueName string, dlqName string) error {
	if _, err := channel.QueueDeclare(dlqName, true, false, false, false, nil); err != nil {
		return errors.Wrapf(err, "Failed to declare DLQ %s", dlqName)
	}
	// one dead-letter routing key per queue so each DLQ only collects its own messages
	if err := channel.QueueBind(dlqName, dlqName, ExchangeDeadLetter, false, nil); err != nil {
		return errors.Wrapf(err, "Failed to bind DLQ %s to exchange", dlqName)
	}

	args := amqp091.Table{
		"x-dead-letter-exchange":    ExchangeDeadLetter,
		"x-dead-letter-routing-key": dlqName,
		"x-message-ttl":             r.config.MessageTTL.Milliseconds(),
	}
	if _, err := channel.QueueDeclare(queueName, true, false, false, false, args); err != nil {
		return errors.Wrapf(err, "Failed to declare queue %s", queueName)
	}
	return nil
}

// Close stops reconnecting and shuts the connection down.
func (r *RabbitMQPublisher) Close() error {
	r.closeOnce.Do(func() { close(r.done) })

	r.connectionMutex.Lock()
	defer r.connectionMutex.Unlock()

	var err error
	if r.publishChannel != nil && !r.publishChannel.IsClosed() {
		if err = r.publishChannel.Close(); err != nil {
			r.logger.Errorf("Error closing publish channel: %v", err)
		}
	}
	if r.connection != nil && !r.connection.IsClosed() {
		if closeErr := r.connection.Close(); closeErr != nil {
			r.logger.Errorf("Error closing connection: %v", closeErr)
			if err == nil {
				err = closeErr
			}
		}
	}
	return err
}

func eventTypeOf(message interface{}) string {
	if message == nil {
		return ""
	}
	return typeName(reflect.TypeOf(message))
}
