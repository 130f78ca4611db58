package notification

import (
	"context"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/relocrm/leadstack/dto"
	leadstack_errors "github.com/relocrm/leadstack/errors"
	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/logger"
	"github.com/relocrm/leadstack/internal/models"
	"github.com/relocrm/leadstack/internal/repository/inmemory"
	"github.com/relocrm/leadstack/services/realtime"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishEmailReceived(ctx context.Context, message dto.EmailReceived) error {
	return m.Called(ctx, message).Error(0)
}

func (m *mockPublisher) PublishNotificationChanged(ctx context.Context, message dto.NotificationChanged) error {
	return m.Called(ctx, message).Error(0)
}

func (m *mockPublisher) PublishFanoutEvent(ctx context.Context, entityId string, entityType enum.EntityType, message interface{}) error {
	return m.Called(ctx, entityId, entityType, message).Error(0)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode:  true,
		LogLevel: "debug",
	})
	appLogger.InitLogger()
	return appLogger
}

func newTestService() (*NotificationService, *mockPublisher, *realtime.Hub, *inmemory.NotificationRepository) {
	log := getLogger()
	repos := inmemory.NewRepositories(nil)
	publisher := new(mockPublisher)
	publisher.On("PublishNotificationChanged", mock.Anything, mock.Anything).Return(nil)
	hub := realtime.NewHub(log)
	return NewNotificationService(repos, publisher, hub, log), publisher, hub, repos.NotificationRepository.(*inmemory.NotificationRepository)
}

func input(title string) interfaces.NotificationInput {
	return interfaces.NotificationInput{
		Type:       enum.NotificationNewCustomer,
		Title:      title,
		Message:    "Max Mustermann wurde aus einer E-Mail importiert",
		CustomerID: "cust_1",
	}
}

// recorder collects callback deliveries.
type recorder struct {
	mu        sync.Mutex
	snapshots [][]*models.Notification
}

func (r *recorder) callback(notifications []*models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, notifications)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

func (r *recorder) last() []*models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return nil
	}
	return r.snapshots[len(r.snapshots)-1]
}

func TestCreateNotification(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, publisher, _, repo := newTestService()

	// Act
	id, err := svc.CreateNotification(ctx, input("Neuer Kunde"))

	// Assert
	require.NoError(t, err)
	all := repo.All()
	require.Len(t, all, 1)
	assert.Equal(t, id, all[0].ID)
	assert.Equal(t, enum.NotificationPriorityMedium, all[0].Priority)
	assert.False(t, all[0].Read)
	publisher.AssertCalled(t, "PublishNotificationChanged", mock.Anything, dto.NotificationChanged{
		NotificationIDs: []string{id},
		Change:          dto.NotificationCreated,
		Origin:          svc.Origin(),
	})
}

func TestCreateNotification_Invalid(t *testing.T) {
	ctx := context.Background()
	svc, publisher, _, repo := newTestService()

	_, typeErr := svc.CreateNotification(ctx, interfaces.NotificationInput{Type: "reminder", Title: "x"})
	_, titleErr := svc.CreateNotification(ctx, interfaces.NotificationInput{Type: enum.NotificationImportError})
	_, priorityErr := svc.CreateNotification(ctx, interfaces.NotificationInput{Type: enum.NotificationImportError, Title: "x", Priority: "urgent"})

	assert.True(t, errors.Is(typeErr, leadstack_errors.ErrInvalidNotification))
	assert.True(t, errors.Is(titleErr, leadstack_errors.ErrInvalidNotification))
	assert.True(t, errors.Is(priorityErr, leadstack_errors.ErrInvalidNotification))
	assert.Empty(t, repo.All())
	publisher.AssertNotCalled(t, "PublishNotificationChanged", mock.Anything, mock.Anything)
}

func TestCreateNotification_PublishFailureIsNotFatal(t *testing.T) {
	log := getLogger()
	repos := inmemory.NewRepositories(nil)
	publisher := new(mockPublisher)
	publisher.On("PublishNotificationChanged", mock.Anything, mock.Anything).Return(errors.New("channel closed"))
	svc := NewNotificationService(repos, publisher, realtime.NewHub(log), log)

	id, err := svc.CreateNotification(context.Background(), input("Neuer Kunde"))

	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestMarkAsRead(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()
	id, err := svc.CreateNotification(ctx, input("Neuer Kunde"))
	require.NoError(t, err)

	require.NoError(t, svc.MarkAsRead(ctx, id))
	require.NoError(t, svc.MarkAsRead(ctx, id))

	unread, err := svc.GetUnreadNotifications(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, unread)
	assert.Equal(t, leadstack_errors.ErrNotificationNotFound, svc.MarkAsRead(ctx, "notif_missing"))
}

func TestMarkAllAsRead(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, publisher, _, repo := newTestService()
	for _, title := range []string{"Eins", "Zwei", "Drei"} {
		_, err := svc.CreateNotification(ctx, input(title))
		require.NoError(t, err)
	}

	// Act
	marked, err := svc.MarkAllAsRead(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, marked)
	for _, n := range repo.All() {
		assert.True(t, n.Read)
		assert.NotNil(t, n.ReadAt)
	}
	publisher.AssertCalled(t, "PublishNotificationChanged", mock.Anything, mock.MatchedBy(func(event dto.NotificationChanged) bool {
		return event.Change == dto.NotificationReadAll && len(event.NotificationIDs) == 3
	}))

	again, err := svc.MarkAllAsRead(ctx)
	require.NoError(t, err)
	assert.Zero(t, again)
}

func TestSubscribeToNotifications(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, _, hub, _ := newTestService()
	_, err := svc.CreateNotification(ctx, input("Eins"))
	require.NoError(t, err)
	rec := &recorder{}

	// Act
	sub, err := svc.SubscribeToNotifications(ctx, 10, rec.callback)
	require.NoError(t, err)

	// Assert
	require.Equal(t, 1, rec.count())
	assert.Len(t, rec.last(), 1)

	_, err = svc.CreateNotification(ctx, input("Zwei"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(rec.last()) == 2 }, 2*time.Second, 10*time.Millisecond)

	sub.Close()
	sub.Close()
	assert.Zero(t, hub.SubscriberCount(realtime.TopicNotifications))
	delivered := rec.count()
	_, err = svc.CreateNotification(ctx, input("Drei"))
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, delivered, rec.count())
}

func TestSubscribeToNotifications_ClosedWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	svc, _, hub, _ := newTestService()

	_, err := svc.SubscribeToNotifications(ctx, 10, func([]*models.Notification) {})
	require.NoError(t, err)
	require.Equal(t, 1, hub.SubscriberCount(realtime.TopicNotifications))
	cancel()

	assert.Eventually(t, func() bool {
		return hub.SubscriberCount(realtime.TopicNotifications) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSubscribeToNotifications_CloseReleasesGoroutines(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc, _, hub, _ := newTestService()
	baseline := runtime.NumGoroutine()

	// Act
	for i := 0; i < 20; i++ {
		sub, err := svc.SubscribeToNotifications(ctx, 10, func([]*models.Notification) {})
		require.NoError(t, err)
		sub.Close()
	}

	// Assert
	assert.Zero(t, hub.SubscriberCount(realtime.TopicNotifications))
	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= baseline
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRefresh_RedeliversWithoutPublishing(t *testing.T) {
	ctx := context.Background()
	svc, publisher, _, _ := newTestService()
	rec := &recorder{}
	sub, err := svc.SubscribeToNotifications(ctx, 10, rec.callback)
	require.NoError(t, err)
	defer sub.Close()

	svc.Refresh(ctx)

	require.Eventually(t, func() bool { return rec.count() == 2 }, 2*time.Second, 10*time.Millisecond)
	publisher.AssertNotCalled(t, "PublishNotificationChanged", mock.Anything, mock.Anything)
}
