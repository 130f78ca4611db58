package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relocrm/leadstack/dto"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/logger"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{DevMode: true, LogLevel: "debug"})
	appLogger.InitLogger()
	return appLogger
}

func TestGetEventType(t *testing.T) {
	assert.Equal(t, "EmailReceived", GetEventType[dto.EmailReceived]())
	assert.Equal(t, "NotificationChanged", GetEventType[*dto.NotificationChanged]())
}

func TestValidateBaseEvent(t *testing.T) {
	listener := NewBaseEventListener(getLogger(), GetEventType[dto.EmailReceived](), QueueEmailReceived)
	ctx := context.Background()

	valid := dto.Event{Event: dto.EventDetails{
		Id:         "event_1",
		EntityId:   "email_1",
		EntityType: enum.EMAIL,
		EventType:  "EmailReceived",
		Data:       map[string]interface{}{"emailId": "email_1"},
	}}

	event, err := listener.ValidateBaseEvent(ctx, valid)
	require.NoError(t, err)
	assert.Equal(t, "email_1", event.Event.EntityId)

	_, err = listener.ValidateBaseEvent(ctx, "not an event")
	assert.Error(t, err)

	missingData := valid
	missingData.Event.Data = nil
	_, err = listener.ValidateBaseEvent(ctx, missingData)
	assert.Error(t, err)

	missingType := valid
	missingType.Event.EventType = ""
	_, err = listener.ValidateBaseEvent(ctx, missingType)
	assert.Error(t, err)

	wrongType := valid
	wrongType.Event.EventType = "NotificationChanged"
	_, err = listener.ValidateBaseEvent(ctx, wrongType)
	assert.ErrorIs(t, err, ErrMalformedEvent)

	event, err = listener.ValidateBaseEvent(ctx, &valid)
	require.NoError(t, err)
	assert.Equal(t, "event_1", event.Event.Id)
}

func TestDecodeEventData(t *testing.T) {
	event := &dto.Event{Event: dto.EventDetails{
		EventType: "EmailReceived",
		Data: map[string]interface{}{
			"emailId":   "email_1",
			"mailboxId": "default",
			"folder":    "inbox",
			"imapUid":   float64(42),
			"source":    "ImmobilienScout24",
		},
	}}

	decoded, err := DecodeEventData[dto.EmailReceived](context.Background(), event)

	require.NoError(t, err)
	assert.Equal(t, "email_1", decoded.EmailID)
	assert.Equal(t, enum.EmailFolderInbox, decoded.Folder)
	assert.Equal(t, uint32(42), decoded.ImapUID)
	assert.Equal(t, enum.EmailSourceImmobilienScout24, decoded.Source)

	_, err = DecodeEventData[dto.EmailReceived](context.Background(), &dto.Event{Event: dto.EventDetails{Data: "raw"}})
	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func TestDecodeEventData_TypedPayload(t *testing.T) {
	payload := dto.EmailReceived{EmailID: "email_2", Folder: enum.EmailFolderInbox}

	byValue, err := DecodeEventData[dto.EmailReceived](context.Background(), &dto.Event{Event: dto.EventDetails{Data: payload}})
	require.NoError(t, err)
	byPointer, err := DecodeEventData[dto.EmailReceived](context.Background(), &dto.Event{Event: dto.EventDetails{Data: &payload}})
	require.NoError(t, err)

	assert.Equal(t, payload, byValue)
	assert.Equal(t, payload, byPointer)
}
