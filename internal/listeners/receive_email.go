package listeners

import (
	"context"
	"errors"
	"fmt"

	"github.com/opentracing/opentracing-go"

	"github.com/relocrm/leadstack/dto"
	leadstack_errors "github.com/relocrm/leadstack/errors"
	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/logger"
	"github.com/relocrm/leadstack/internal/tracing"
	"github.com/relocrm/leadstack/services/events"
)

// ReceiveEmailListener parses every newly stored inbox email. Parse failures land in the
// failed import log (done by the parser) and raise an import_error notification.
// With auto import on, parsed emails become customers without the approval dialog.
type ReceiveEmailListener struct {
	events.BaseEventListener
	log           logger.Logger
	parser        interfaces.EmailParser
	importer      interfaces.CustomerImportService
	notifications interfaces.NotificationService
	publisher     interfaces.EventPublisher
	autoImport    bool
}

// NewReceiveEmailListener builds the listener. notifications and publisher may be nil.
func NewReceiveEmailListener(
	log logger.Logger,
	parser interfaces.EmailParser,
	importer interfaces.CustomerImportService,
	notifications interfaces.NotificationService,
	publisher interfaces.EventPublisher,
	autoImport bool,
) interfaces.EventListener {
	return &ReceiveEmailListener{
		BaseEventListener: events.NewBaseEventListener(
			log,
			events.GetEventType[dto.EmailReceived](), // subscribed event
			events.QueueEmailReceived,                // listening on Direct queue
		),
		log:           log,
		parser:        parser,
		importer:      importer,
		notifications: notifications,
		publisher:     publisher,
		autoImport:    autoImport,
	}
}

func (l *ReceiveEmailListener) Handle(ctx context.Context, baseEvent any) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ReceiveEmailListener.Handle")
	defer span.Finish()
	tracing.SetDefaultListenerSpanTags(ctx, span)
	tracing.LogObjectAsJson(span, "event", baseEvent)

	validatedEvent, err := l.ValidateBaseEvent(ctx, baseEvent)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	received, err := events.DecodeEventData[dto.EmailReceived](ctx, validatedEvent)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	tracing.TagEntity(span, received.EmailID)

	// only inbound mail carries leads
	if received.Folder != enum.EmailFolderInbox {
		return nil
	}
	if !received.Classification.IsLead() {
		l.log.Debugf("skipping %s email %s", received.Classification, received.EmailID)
		return nil
	}

	parsed, err := l.parser.ProcessEmail(ctx, received.EmailID)
	if err != nil {
		if errors.Is(err, leadstack_errors.ErrEmailNotFound) {
			l.log.Warnf("email %s vanished before parsing", received.EmailID)
			return nil
		}
		if isParseFailure(err) {
			l.notifyImportError(ctx, received.EmailID, err)
			return nil
		}
		tracing.TraceErr(span, err)
		return err
	}

	if !l.autoImport {
		return nil
	}

	customerID, err := l.importer.ConfirmImport(ctx, received.EmailID, parsed)
	if errors.Is(err, leadstack_errors.ErrAlreadyImported) {
		return nil
	}
	if err != nil {
		tracing.TraceErr(span, err)
		l.notifyImportError(ctx, received.EmailID, err)
		return nil
	}

	if l.publisher != nil {
		err = l.publisher.PublishFanoutEvent(ctx, customerID, enum.CUSTOMER, dto.CustomerImported{
			CustomerID: customerID,
			EmailID:    received.EmailID,
			Source:     parsed.Source,
		})
		if err != nil {
			tracing.TraceErr(span, err)
			l.log.Errorf("failed to publish customer import of %s: %v", customerID, err)
		}
	}
	return nil
}

func (l *ReceiveEmailListener) notifyImportError(ctx context.Context, emailID string, cause error) {
	if l.notifications == nil {
		return
	}
	_, err := l.notifications.CreateNotification(ctx, interfaces.NotificationInput{
		Type:     enum.NotificationImportError,
		Title:    "E-Mail Import fehlgeschlagen",
		Message:  fmt.Sprintf("Die E-Mail konnte nicht importiert werden: %v", cause),
		Priority: enum.NotificationPriorityHigh,
		Details:  map[string]interface{}{"emailId": emailID},
	})
	if err != nil {
		l.log.Errorf("failed to create import error notification for %s: %v", emailID, err)
	}
}

func isParseFailure(err error) bool {
	return errors.Is(err, leadstack_errors.ErrNoCustomerName) ||
		errors.Is(err, leadstack_errors.ErrUnparseable) ||
		errors.Is(err, leadstack_errors.ErrInvalidParsedData)
}
