package notification

import (
	"context"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/relocrm/leadstack/dto"
	leadstack_errors "github.com/relocrm/leadstack/errors"
	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/logger"
	"github.com/relocrm/leadstack/internal/models"
	"github.com/relocrm/leadstack/internal/repository"
	"github.com/relocrm/leadstack/internal/tracing"
	"github.com/relocrm/leadstack/internal/utils"
	"github.com/relocrm/leadstack/services/realtime"
)

// NotificationService stores notifications and pushes the unread set to live subscribers.
// Changes are broadcast on the in-process hub and, when a publisher is set, to other replicas.
type NotificationService struct {
	repositories *repository.Repositories
	publisher    interfaces.EventPublisher
	hub          *realtime.Hub
	origin       string
	log          logger.Logger
}

var _ interfaces.NotificationService = (*NotificationService)(nil)

// NewNotificationService builds the service. publisher may be nil in single-replica setups.
func NewNotificationService(repositories *repository.Repositories, publisher interfaces.EventPublisher, hub *realtime.Hub, log logger.Logger) *NotificationService {
	return &NotificationService{
		repositories: repositories,
		publisher:    publisher,
		hub:          hub,
		origin:       utils.GenerateNanoID(12),
		log:          log,
	}
}

// Origin identifies this process in published change events.
func (s *NotificationService) Origin() string {
	return s.origin
}

func (s *NotificationService) CreateNotification(ctx context.Context, input interfaces.NotificationInput) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "NotificationService.CreateNotification")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("notification.type", input.Type.String())

	if !input.Type.IsValid() {
		err := errors.Wrapf(leadstack_errors.ErrInvalidNotification, "type %q", input.Type)
		tracing.TraceErr(span, err)
		return "", err
	}
	if strings.TrimSpace(input.Title) == "" {
		err := errors.Wrap(leadstack_errors.ErrInvalidNotification, "title is required")
		tracing.TraceErr(span, err)
		return "", err
	}
	priority := input.Priority
	if priority == "" {
		priority = enum.NotificationPriorityMedium
	}
	if !priority.IsValid() {
		err := errors.Wrapf(leadstack_errors.ErrInvalidNotification, "priority %q", priority)
		tracing.TraceErr(span, err)
		return "", err
	}

	notification := &models.Notification{
		Type:       input.Type,
		Title:      input.Title,
		Message:    input.Message,
		CustomerID: input.CustomerID,
		QuoteID:    input.QuoteID,
		Priority:   priority,
		ActionURL:  input.ActionURL,
		Details:    models.JSONMap(input.Details),
	}
	if err := s.repositories.NotificationRepository.Create(ctx, notification); err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrap(err, "store notification")
	}
	tracing.TagEntity(span, notification.ID)

	s.changed(ctx, dto.NotificationCreated, notification.ID)
	return notification.ID, nil
}

func (s *NotificationService) GetUnreadNotifications(ctx context.Context, limit int) ([]*models.Notification, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "NotificationService.GetUnreadNotifications")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	notifications, err := s.repositories.NotificationRepository.ListUnread(ctx, limit)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if notifications == nil {
		notifications = []*models.Notification{}
	}
	return notifications, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "NotificationService.MarkAsRead")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, id)

	notification, err := s.repositories.NotificationRepository.GetByID(ctx, id)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if notification == nil {
		return leadstack_errors.ErrNotificationNotFound
	}
	if notification.Read {
		return nil
	}
	if err := s.repositories.NotificationRepository.MarkRead(ctx, id, utils.Now()); err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	s.changed(ctx, dto.NotificationRead, id)
	return nil
}

// MarkAllAsRead marks the unread set as it is when the call starts, one row at a time.
// Notifications created while it runs are not covered. Returns how many were marked.
func (s *NotificationService) MarkAllAsRead(ctx context.Context) (int, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "NotificationService.MarkAllAsRead")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	unread, err := s.repositories.NotificationRepository.ListUnread(ctx, 0)
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}

	now := utils.Now()
	marked := make([]string, 0, len(unread))
	var failed []string
	for _, n := range unread {
		if err := s.repositories.NotificationRepository.MarkRead(ctx, n.ID, now); err != nil {
			s.log.Warnf("notification %s not marked read: %v", n.ID, err)
			failed = append(failed, n.ID)
			continue
		}
		marked = append(marked, n.ID)
	}
	span.LogKV("marked", len(marked), "failed", len(failed))

	if len(marked) > 0 {
		s.changed(ctx, dto.NotificationReadAll, marked...)
	}
	if len(failed) > 0 {
		err := errors.Errorf("%d notifications not marked read: %s", len(failed), strings.Join(failed, ", "))
		tracing.TraceErr(span, err)
		return len(marked), err
	}
	return len(marked), nil
}

// SubscribeToNotifications delivers the unread set now and again after every change.
// The same notification may be delivered repeatedly. The subscription ends when ctx is
// done or Close is called on the returned handle.
func (s *NotificationService) SubscribeToNotifications(ctx context.Context, limit int, callback func([]*models.Notification)) (interfaces.Subscription, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "NotificationService.SubscribeToNotifications")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	initial, err := s.GetUnreadNotifications(ctx, limit)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	callback(initial)

	queryCtx := context.WithoutCancel(ctx)
	sub := s.hub.Subscribe(realtime.TopicNotifications, func(any) {
		unread, err := s.GetUnreadNotifications(queryCtx, limit)
		if err != nil {
			s.log.Warnf("unread notifications not refreshed for subscriber: %v", err)
			return
		}
		callback(unread)
	})

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.Done():
		}
	}()
	return sub, nil
}

// Refresh wakes local subscribers after a change made by another replica.
func (s *NotificationService) Refresh(ctx context.Context) {
	span, _ := opentracing.StartSpanFromContext(ctx, "NotificationService.Refresh")
	defer span.Finish()

	s.hub.Publish(realtime.TopicNotifications, dto.NotificationChanged{Change: dto.NotificationRefresh, Origin: s.origin})
}

func (s *NotificationService) changed(ctx context.Context, change dto.NotificationChange, ids ...string) {
	event := dto.NotificationChanged{
		NotificationIDs: ids,
		Change:          change,
		Origin:          s.origin,
	}
	s.hub.Publish(realtime.TopicNotifications, event)

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishNotificationChanged(ctx, event); err != nil {
		s.log.Warnf("notification change %s not published: %v", change, err)
	}
}
