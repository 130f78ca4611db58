package events

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/relocrm/leadstack/dto"
	"github.com/relocrm/leadstack/internal/logger"
	"github.com/relocrm/leadstack/internal/tracing"
)

// ErrMalformedEvent marks messages that can never be handled. The subscriber
// dead-letters them at once instead of redelivering.
var ErrMalformedEvent = errors.New("malformed event")

// BaseEventListener carries the routing data every listener shares.
type BaseEventListener struct {
	logger    logger.Logger
	eventType string
	queueName string
}

func NewBaseEventListener(logger logger.Logger, eventType, queueName string) BaseEventListener {
	return BaseEventListener{
		logger:    logger,
		eventType: eventType,
		queueName: queueName,
	}
}

func (b BaseEventListener) GetEventType() string {
	return b.eventType
}

func (b BaseEventListener) GetQueueName() string {
	return b.queueName
}

// ValidateBaseEvent checks the envelope and that it carries this listener's event type.
func (b BaseEventListener) ValidateBaseEvent(ctx context.Context, input any) (*dto.Event, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Events.ValidateEvent")
	defer span.Finish()
	tracing.SetDefaultListenerSpanTags(ctx, span)

	var message dto.Event
	switch event := input.(type) {
	case dto.Event:
		message = event
	case *dto.Event:
		if event == nil {
			return nil, traceMalformed(span, "event is nil")
		}
		message = *event
	default:
		return nil, traceMalformed(span, "unable to cast to event type")
	}

	switch {
	case message.Event.Data == nil:
		return nil, traceMalformed(span, "message data is nil")
	case message.Event.EventType == "":
		return nil, traceMalformed(span, "event type is empty")
	case b.eventType != "" && message.Event.EventType != b.eventType:
		return nil, traceMalformed(span, "expected "+b.eventType+", got "+message.Event.EventType)
	}

	return &message, nil
}

// DecodeEventData converts the event payload into T. Payloads arrive as JSON maps from
// the broker, or already typed when published in process.
func DecodeEventData[T any](ctx context.Context, event *dto.Event) (T, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Listener.DecodeEventData")
	defer span.Finish()
	tracing.SetDefaultListenerSpanTags(ctx, span)

	var decoded T

	var raw []byte
	switch data := event.Event.Data.(type) {
	case T:
		return data, nil
	case *T:
		if data != nil {
			return *data, nil
		}
		return decoded, traceMalformed(span, "event data is a nil pointer")
	case json.RawMessage:
		raw = data
	case map[string]interface{}:
		var err error
		if raw, err = json.Marshal(data); err != nil {
			tracing.TraceErr(span, err)
			return decoded, errors.Wrap(ErrMalformedEvent, err.Error())
		}
	default:
		return decoded, traceMalformed(span, fmt.Sprintf("unsupported event data type %T", data))
	}

	if err := json.Unmarshal(raw, &decoded); err != nil {
		tracing.TraceErr(span, err)
		return decoded, errors.Wrap(ErrMalformedEvent, err.Error())
	}
	return decoded, nil
}

// GetEventType is the event type name a payload type is published under.
func GetEventType[T any]() string {
	return typeName(reflect.TypeOf((*T)(nil)).Elem())
}

func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

func traceMalformed(span opentracing.Span, reason string) error {
	err := errors.Wrap(ErrMalformedEvent, reason)
	tracing.TraceErr(span, err)
	return err
}
