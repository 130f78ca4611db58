package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relocrm/leadstack/internal/logger"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode:  true,
		LogLevel: "debug",
	})
	appLogger.InitLogger()
	return appLogger
}

func TestHub_PublishDeliversToSubscribers(t *testing.T) {
	// Arrange
	hub := NewHub(getLogger())
	received := make(chan any, 2)
	subA := hub.Subscribe(TopicEmails, func(p any) { received <- p })
	defer subA.Close()
	subB := hub.Subscribe(TopicEmails, func(p any) { received <- p })
	defer subB.Close()

	// Act
	hub.Publish(TopicEmails, "email_1")

	// Assert
	for i := 0; i < 2; i++ {
		select {
		case p := <-received:
			assert.Equal(t, "email_1", p)
		case <-time.After(time.Second):
			t.Fatal("payload not delivered")
		}
	}
}

func TestHub_TopicsAreIsolated(t *testing.T) {
	hub := NewHub(getLogger())
	received := make(chan any, 1)
	sub := hub.Subscribe(TopicNotifications, func(p any) { received <- p })
	defer sub.Close()

	hub.Publish(TopicEmails, "email_1")

	select {
	case p := <-received:
		t.Fatalf("unexpected delivery %v", p)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_CloseIsIdempotentAndUnsubscribes(t *testing.T) {
	hub := NewHub(getLogger())
	sub := hub.Subscribe(TopicNotifications, func(any) {})
	require.Equal(t, 1, hub.SubscriberCount(TopicNotifications))

	sub.Close()
	sub.Close()

	assert.Equal(t, 0, hub.SubscriberCount(TopicNotifications))
	assert.NotPanics(t, func() { hub.Publish(TopicNotifications, "x") })
}

func TestHub_CloseSignalsDone(t *testing.T) {
	hub := NewHub(getLogger())
	sub := hub.Subscribe(TopicNotifications, func(any) {})

	select {
	case <-sub.Done():
		t.Fatal("done before close")
	default:
	}
	sub.Close()

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("done not closed")
	}
}

func TestHub_SlowSubscriberDoesNotBlockPublisher(t *testing.T) {
	// Arrange
	hub := NewHub(getLogger())
	release := make(chan struct{})
	var mu sync.Mutex
	var seen []any
	sub := hub.Subscribe(TopicEmails, func(p any) {
		<-release
		mu.Lock()
		seen = append(seen, p)
		mu.Unlock()
	})
	defer sub.Close()

	// Act
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish(TopicEmails, i)
		}
		close(done)
	}()

	// Assert
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked by slow subscriber")
	}
	close(release)
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0 && seen[len(seen)-1] == 99
	}, time.Second, 10*time.Millisecond)
}

func TestHub_PanickingSubscriberKeepsReceiving(t *testing.T) {
	hub := NewHub(getLogger())
	received := make(chan any, 2)
	calls := 0
	sub := hub.Subscribe(TopicEmails, func(p any) {
		calls++
		if calls == 1 {
			panic("boom")
		}
		received <- p
	})
	defer sub.Close()

	hub.Publish(TopicEmails, "first")
	time.Sleep(20 * time.Millisecond)
	hub.Publish(TopicEmails, "second")

	select {
	case p := <-received:
		assert.Equal(t, "second", p)
	case <-time.After(time.Second):
		t.Fatal("subscriber stopped after panic")
	}
}
