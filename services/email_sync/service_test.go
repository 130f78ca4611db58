package email_sync

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/relocrm/leadstack/config"
	"github.com/relocrm/leadstack/dto"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/logger"
	"github.com/relocrm/leadstack/internal/repository"
	"github.com/relocrm/leadstack/internal/repository/inmemory"
	"github.com/relocrm/leadstack/services/email_processor"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) ListFolders(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockGateway) FetchLatest(ctx context.Context, folder enum.EmailFolder, limit int) ([]*dto.RawMessage, error) {
	args := m.Called(ctx, folder, limit)
	messages, _ := args.Get(0).([]*dto.RawMessage)
	return messages, args.Error(1)
}

func (m *mockGateway) SetSeen(ctx context.Context, folder enum.EmailFolder, uid uint32, seen bool) error {
	return m.Called(ctx, folder, uid, seen).Error(0)
}

func (m *mockGateway) SetFlagged(ctx context.Context, folder enum.EmailFolder, uid uint32, flagged bool) error {
	return m.Called(ctx, folder, uid, flagged).Error(0)
}

func (m *mockGateway) Move(ctx context.Context, folder enum.EmailFolder, uid uint32, target enum.EmailFolder, messageID string) (uint32, error) {
	args := m.Called(ctx, folder, uid, target, messageID)
	return args.Get(0).(uint32), args.Error(1)
}

func (m *mockGateway) Expunge(ctx context.Context, folder enum.EmailFolder, uid uint32) error {
	return m.Called(ctx, folder, uid).Error(0)
}

func (m *mockGateway) MailboxID() string {
	return "default"
}

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
	return nil
}

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode:  true,
		LogLevel: "debug",
	})
	appLogger.InitLogger()
	return appLogger
}

func rawMessage(uid uint32, flags ...string) *dto.RawMessage {
	body := fmt.Sprintf("From: \"Max Mustermann\" <max@example.com>\r\n"+
		"To: info@umzug-berlin.de\r\n"+
		"Subject: Anfrage %d\r\n"+
		"Message-ID: <msg-%d@example.com>\r\n"+
		"Content-Type: text/plain; charset=utf-8\r\n"+
		"\r\n"+
		"3 Zimmer, 80qm, 2. Etage, mit Aufzug\r\n", uid, uid)
	return &dto.RawMessage{UID: uid, Flags: flags, Body: []byte(body)}
}

func newTestService(gateway *mockGateway, publisher *mockPublisher) (*EmailSyncService, *repository.Repositories) {
	log := getLogger()
	repos := inmemory.NewRepositories(nil)
	processor := email_processor.NewEmailProcessor(repos, nil, log)
	cfg := &config.MailboxConfig{MailboxID: "default", DefaultSyncLimit: 50, StalenessWindowSecond: 120}
	svc := NewEmailSyncService(repos, gateway, processor, nil, nil, cfg, log)
	if publisher != nil {
		svc.publisher = publisher
	}
	return svc, repos
}

func TestEmailSyncService_SyncEmails_Idempotent(t *testing.T) {
	// Arrange
	ctx := context.Background()
	gateway := new(mockGateway)
	gateway.On("FetchLatest", mock.Anything, enum.EmailFolderInbox, 50).
		Return([]*dto.RawMessage{rawMessage(2), rawMessage(1)}, nil)
	svc, repos := newTestService(gateway, nil)
	emails := repos.EmailRepository.(*inmemory.EmailRepository)

	// Act
	first := svc.SyncEmails(ctx, "", 0, true)
	second := svc.SyncEmails(ctx, enum.EmailFolderInbox, 0, true)

	// Assert
	assert.True(t, first.Success)
	assert.Equal(t, 2, first.Count)
	assert.Equal(t, "inbox", first.Folder)
	assert.True(t, second.Success)
	assert.Equal(t, 2, second.Count)
	assert.Equal(t, 2, emails.Count())
	gateway.AssertNumberOfCalls(t, "FetchLatest", 2)
}

func TestEmailSyncService_SyncEmails_UpdatesFlagsOnly(t *testing.T) {
	ctx := context.Background()
	gateway := new(mockGateway)
	gateway.On("FetchLatest", mock.Anything, enum.EmailFolderInbox, 10).
		Return([]*dto.RawMessage{rawMessage(1)}, nil).Once()
	gateway.On("FetchLatest", mock.Anything, enum.EmailFolderInbox, 10).
		Return([]*dto.RawMessage{rawMessage(1, `\Seen`, `\Flagged`)}, nil).Once()
	svc, repos := newTestService(gateway, nil)

	svc.SyncEmails(ctx, enum.EmailFolderInbox, 10, true)
	svc.SyncEmails(ctx, enum.EmailFolderInbox, 10, true)

	stored, err := repos.EmailRepository.GetByIdentityKey(ctx, "msg-1@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.IsRead)
	assert.True(t, stored.IsStarred)
	assert.Equal(t, "Anfrage 1", stored.Subject)
	assert.Equal(t, 1, repos.EmailRepository.(*inmemory.EmailRepository).Count())
}

func TestEmailSyncService_SyncEmails_SkipsFreshFolder(t *testing.T) {
	ctx := context.Background()
	gateway := new(mockGateway)
	gateway.On("FetchLatest", mock.Anything, enum.EmailFolderSent, 50).
		Return([]*dto.RawMessage{}, nil)
	svc, _ := newTestService(gateway, nil)

	first := svc.SyncEmails(ctx, enum.EmailFolderSent, 0, false)
	second := svc.SyncEmails(ctx, enum.EmailFolderSent, 0, false)
	forced := svc.SyncEmails(ctx, enum.EmailFolderSent, 0, true)

	assert.False(t, first.Skipped)
	assert.True(t, second.Success)
	assert.True(t, second.Skipped)
	assert.Equal(t, 0, second.Count)
	assert.False(t, forced.Skipped)
	gateway.AssertNumberOfCalls(t, "FetchLatest", 2)
}

func TestEmailSyncService_SyncEmails_TransportFailure(t *testing.T) {
	// Arrange
	ctx := context.Background()
	gateway := new(mockGateway)
	gateway.On("FetchLatest", mock.Anything, enum.EmailFolderInbox, 50).
		Return([]*dto.RawMessage{rawMessage(1)}, nil).Once()
	gateway.On("FetchLatest", mock.Anything, enum.EmailFolderInbox, 50).
		Return(nil, errors.New("imap login failed")).Once()
	svc, repos := newTestService(gateway, nil)
	svc.SyncEmails(ctx, enum.EmailFolderInbox, 0, true)

	// Act
	result := svc.SyncEmails(ctx, enum.EmailFolderInbox, 0, true)

	// Assert
	assert.False(t, result.Success)
	assert.Equal(t, "imap login failed", result.Error)
	assert.Equal(t, 1, repos.EmailRepository.(*inmemory.EmailRepository).Count())

	// a failed pass never counts as fresh
	gateway.On("FetchLatest", mock.Anything, enum.EmailFolderInbox, 50).Return([]*dto.RawMessage{}, nil).Once()
	retry := svc.SyncEmails(ctx, enum.EmailFolderInbox, 0, false)
	assert.False(t, retry.Skipped)
}

func TestEmailSyncService_SyncAllFolders_ContinuesAfterFolderError(t *testing.T) {
	ctx := context.Background()
	gateway := new(mockGateway)
	gateway.On("FetchLatest", mock.Anything, enum.EmailFolderArchive, 5).Return(nil, errors.New("no such folder"))
	gateway.On("FetchLatest", mock.Anything, mock.Anything, 5).Return([]*dto.RawMessage{}, nil)
	svc, _ := newTestService(gateway, nil)

	results := svc.SyncAllFolders(ctx, 5, true)

	require.Len(t, results, len(enum.EmailFolders))
	for _, result := range results {
		if result.Folder == enum.EmailFolderArchive.String() {
			assert.False(t, result.Success)
			assert.Equal(t, "no such folder", result.Error)
		} else {
			assert.True(t, result.Success, result.Folder)
		}
	}
}

func TestEmailSyncService_SyncEmails_PublishesNewInbound(t *testing.T) {
	ctx := context.Background()
	gateway := new(mockGateway)
	gateway.On("FetchLatest", mock.Anything, enum.EmailFolderInbox, 50).
		Return([]*dto.RawMessage{rawMessage(7)}, nil)
	publisher := new(mockPublisher)
	publisher.On("PublishEmailReceived", mock.Anything, mock.MatchedBy(func(msg dto.EmailReceived) bool {
		return msg.ImapUID == 7 && msg.Folder == enum.EmailFolderInbox && msg.MailboxID == "default"
	})).Return(nil).Once()
	svc, _ := newTestService(gateway, publisher)

	svc.SyncEmails(ctx, enum.EmailFolderInbox, 0, true)
	svc.SyncEmails(ctx, enum.EmailFolderInbox, 0, true)

	publisher.AssertExpectations(t)
	publisher.AssertNumberOfCalls(t, "PublishEmailReceived", 1)
}

func TestEmailSyncService_SyncEmails_UnknownFolder(t *testing.T) {
	gateway := new(mockGateway)
	svc, _ := newTestService(gateway, nil)

	result := svc.SyncEmails(context.Background(), enum.EmailFolder("spam"), 0, true)

	assert.False(t, result.Success)
	gateway.AssertNotCalled(t, "FetchLatest", mock.Anything, mock.Anything, mock.Anything)
}
