package listeners

import (
	"context"

	"github.com/opentracing/opentracing-go"

	"github.com/relocrm/leadstack/dto"
	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/logger"
	"github.com/relocrm/leadstack/internal/tracing"
	"github.com/relocrm/leadstack/services/events"
)

type notificationRefresher interface {
	Origin() string
	Refresh(ctx context.Context)
}

// NotificationChangedListener re-delivers the unread set to local subscribers when
// another replica changed notifications.
type NotificationChangedListener struct {
	events.BaseEventListener
	notifications notificationRefresher
}

func NewNotificationChangedListener(log logger.Logger, notifications notificationRefresher) interfaces.EventListener {
	return &NotificationChangedListener{
		BaseEventListener: events.NewBaseEventListener(
			log,
			events.GetEventType[dto.NotificationChanged](),
			events.ExchangeNotifications, // per-replica queue bound to the fanout exchange
		),
		notifications: notifications,
	}
}

func (l *NotificationChangedListener) Handle(ctx context.Context, baseEvent any) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "NotificationChangedListener.Handle")
	defer span.Finish()
	tracing.SetDefaultListenerSpanTags(ctx, span)

	validatedEvent, err := l.ValidateBaseEvent(ctx, baseEvent)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	changed, err := events.DecodeEventData[dto.NotificationChanged](ctx, validatedEvent)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	span.SetTag("change", string(changed.Change))

	if changed.Origin == l.notifications.Origin() {
		return nil
	}
	l.notifications.Refresh(ctx)
	return nil
}
