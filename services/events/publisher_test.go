package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relocrm/leadstack/dto"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/utils"
)

func TestNewEvent(t *testing.T) {
	// Arrange
	ctx := utils.WithCustomContext(context.Background(), &utils.CustomContext{
		AppSource: "import",
		UserId:    "user_1",
		UserEmail: "agent@relocrm.test",
	})
	payload := &dto.CustomerImported{CustomerID: "customer_1"}

	// Act
	event := NewEvent(ctx, "customer_1", enum.CUSTOMER, payload, "trace-1")

	// Assert
	assert.Contains(t, event.Event.Id, "event")
	assert.Equal(t, "customer_1", event.Event.EntityId)
	assert.Equal(t, enum.CUSTOMER, event.Event.EntityType)
	assert.Equal(t, GetEventType[dto.CustomerImported](), event.Event.EventType)
	assert.Equal(t, "trace-1", event.Metadata.UberTraceId)
	assert.Equal(t, "import", event.Metadata.AppSource)
	assert.Equal(t, "user_1", event.Metadata.UserId)
	assert.Equal(t, "agent@relocrm.test", event.Metadata.UserEmail)

	_, err := time.Parse(time.RFC3339, event.Metadata.Timestamp)
	require.NoError(t, err)
}

func TestEventTypeOf_MatchesListenerRouting(t *testing.T) {
	assert.Equal(t, GetEventType[dto.EmailReceived](), eventTypeOf(dto.EmailReceived{}))
	assert.Equal(t, GetEventType[*dto.NotificationChanged](), eventTypeOf(&dto.NotificationChanged{}))
	assert.Empty(t, eventTypeOf(nil))
}

func TestTopology(t *testing.T) {
	declared := map[string]bool{}
	for _, exchange := range exchanges {
		declared[exchange.name] = true
	}
	assert.True(t, declared[ExchangeDeadLetter])
	assert.True(t, declared[ExchangeNotifications])

	deadLetters := map[string]bool{}
	for _, queue := range queues {
		assert.Truef(t, declared[queue.exchange], "queue %s binds to undeclared exchange %s", queue.name, queue.exchange)
		assert.Falsef(t, deadLetters[queue.deadLetter], "dead-letter queue %s shared", queue.deadLetter)
		deadLetters[queue.deadLetter] = true
	}
}
