package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/relocrm/leadstack/interfaces"
)

type mockSubscriber struct {
	mock.Mock
	registered []interfaces.EventListener
}

func (m *mockSubscriber) RegisterListener(listener interfaces.EventListener) {
	m.registered = append(m.registered, listener)
}

func (m *mockSubscriber) ListenQueue(queueName string) error {
	return m.Called(queueName).Error(0)
}

func (m *mockSubscriber) ListenQueueExclusive(queueName string) error {
	return m.Called(queueName).Error(0)
}

func (m *mockSubscriber) ListenFanout(exchange string) error {
	return m.Called(exchange).Error(0)
}

func (m *mockSubscriber) Close() error {
	return nil
}

type stubListener struct {
	eventType string
	queue     string
}

func (l stubListener) Handle(context.Context, any) error { return nil }
func (l stubListener) GetEventType() string              { return l.eventType }
func (l stubListener) GetQueueName() string              { return l.queue }

func TestSubscribe(t *testing.T) {
	// Arrange
	subscriber := new(mockSubscriber)
	subscriber.On("ListenQueue", "email-received").Return(nil).Once()
	subscriber.On("ListenFanout", "notifications").Return(nil).Once()
	queued := []interfaces.EventListener{
		stubListener{eventType: "EmailReceived", queue: "email-received"},
		stubListener{eventType: "CustomerImported", queue: "email-received"},
	}
	fanout := []interfaces.EventListener{
		stubListener{eventType: "NotificationChanged", queue: "notifications"},
	}

	// Act
	err := subscribe(subscriber, queued, fanout)

	// Assert
	require.NoError(t, err)
	assert.Len(t, subscriber.registered, 3)
	subscriber.AssertExpectations(t)
}

func TestSubscribe_StopsOnQueueError(t *testing.T) {
	subscriber := new(mockSubscriber)
	subscriber.On("ListenQueue", "email-received").Return(assert.AnError)

	err := subscribe(subscriber,
		[]interfaces.EventListener{stubListener{eventType: "EmailReceived", queue: "email-received"}},
		[]interfaces.EventListener{stubListener{eventType: "NotificationChanged", queue: "notifications"}},
	)

	assert.ErrorIs(t, err, assert.AnError)
	subscriber.AssertNotCalled(t, "ListenFanout", mock.Anything)
}
