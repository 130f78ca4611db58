package email

import (
	"context"
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
	"github.com/relocrm/leadstack/internal/repository"
	"github.com/relocrm/leadstack/internal/repository/inmemory"
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

type fakeSender struct {
	sent []*dto.OutgoingEmail
}

func (f *fakeSender) Send(_ context.Context, email *dto.OutgoingEmail) (*dto.SentEmail, error) {
	f.sent = append(f.sent, email)
	return &dto.SentEmail{MessageID: "<out-1@umzug-berlin.de>", Date: time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)}, nil
}

func (f *fakeSender) FromAddress() string {
	return "info@umzug-berlin.de"
}

type fakeStorage struct{}

func (fakeStorage) Upload(context.Context, string, []byte, string) error { return nil }
func (fakeStorage) Download(context.Context, string) ([]byte, error)     { return nil, nil }
func (fakeStorage) Delete(context.Context, string) error                 { return nil }
func (fakeStorage) Bucket() string                                       { return "attachments" }
func (fakeStorage) GetPresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://r2.example/" + key + "?sig=1", nil
}

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode:  true,
		LogLevel: "debug",
	})
	appLogger.InitLogger()
	return appLogger
}

func setup(t *testing.T, gateway *mockGateway, sender interfaces.MailSender) (interfaces.EmailService, *repository.Repositories, *models.Email) {
	repos := inmemory.NewRepositories(nil)
	email := &models.Email{
		IdentityKey: "msg-1@example.com",
		MailboxID:   "default",
		Folder:      enum.EmailFolderInbox,
		ImapUID:     11,
		MessageID:   "msg-1@example.com",
		Subject:     "Anfrage",
	}
	require.NoError(t, repos.EmailRepository.Create(context.Background(), email))
	svc := NewEmailService(repos, gateway, sender, fakeStorage{}, nil, time.Hour, getLogger())
	return svc, repos, email
}

func TestEmailService_SetRead(t *testing.T) {
	// Arrange
	ctx := context.Background()
	gateway := new(mockGateway)
	gateway.On("SetSeen", mock.Anything, enum.EmailFolderInbox, uint32(11), true).Return(nil).Once()
	svc, repos, email := setup(t, gateway, nil)

	// Act
	err := svc.SetRead(ctx, email.ID, true)

	// Assert
	require.NoError(t, err)
	gateway.AssertExpectations(t)
	stored, _ := repos.EmailRepository.GetByID(ctx, email.ID)
	assert.True(t, stored.IsRead)
}

func TestEmailService_SetStarred_GatewayFailureKeepsRecord(t *testing.T) {
	ctx := context.Background()
	gateway := new(mockGateway)
	gateway.On("SetFlagged", mock.Anything, enum.EmailFolderInbox, uint32(11), true).Return(errors.New("connection reset"))
	svc, repos, email := setup(t, gateway, nil)

	err := svc.SetStarred(ctx, email.ID, true)

	require.Error(t, err)
	stored, _ := repos.EmailRepository.GetByID(ctx, email.ID)
	assert.False(t, stored.IsStarred)
}

func TestEmailService_Delete_MovesToTrashFirst(t *testing.T) {
	// Arrange
	ctx := context.Background()
	gateway := new(mockGateway)
	gateway.On("Move", mock.Anything, enum.EmailFolderInbox, uint32(11), enum.EmailFolderTrash, "msg-1@example.com").Return(uint32(7), nil).Once()
	gateway.On("Expunge", mock.Anything, enum.EmailFolderTrash, uint32(7)).Return(nil).Once()
	svc, repos, email := setup(t, gateway, nil)

	// Act
	require.NoError(t, svc.Delete(ctx, email.ID))
	trashed, _ := repos.EmailRepository.GetByID(ctx, email.ID)
	require.NoError(t, svc.Delete(ctx, email.ID))
	deleted, _ := repos.EmailRepository.GetByID(ctx, email.ID)

	// Assert
	require.NotNil(t, trashed)
	assert.Equal(t, enum.EmailFolderTrash, trashed.Folder)
	assert.Equal(t, uint32(7), trashed.ImapUID)
	assert.Equal(t, "msg-1@example.com", trashed.IdentityKey)
	assert.Nil(t, deleted)
	gateway.AssertExpectations(t)
}

func TestEmailService_Move_RekeysMessagesWithoutMessageID(t *testing.T) {
	// Arrange
	ctx := context.Background()
	gateway := new(mockGateway)
	svc, repos, _ := setup(t, gateway, nil)
	email := &models.Email{
		IdentityKey: "default:inbox:12",
		MailboxID:   "default",
		Folder:      enum.EmailFolderInbox,
		ImapUID:     12,
	}
	require.NoError(t, repos.EmailRepository.Create(ctx, email))
	gateway.On("Move", mock.Anything, enum.EmailFolderInbox, uint32(12), enum.EmailFolderArchive, "").Return(uint32(3), nil).Once()

	// Act
	err := svc.Move(ctx, email.ID, enum.EmailFolderArchive)

	// Assert
	require.NoError(t, err)
	stored, _ := repos.EmailRepository.GetByID(ctx, email.ID)
	assert.Equal(t, enum.EmailFolderArchive, stored.Folder)
	assert.Equal(t, uint32(3), stored.ImapUID)
	assert.Equal(t, "default:archive:3", stored.IdentityKey)
	gateway.AssertExpectations(t)
}

func TestEmailService_Move_RejectsStarred(t *testing.T) {
	gateway := new(mockGateway)
	svc, _, email := setup(t, gateway, nil)

	err := svc.Move(context.Background(), email.ID, enum.EmailFolderStarred)

	assert.Equal(t, leadstack_errors.ErrInvalidFolder, err)
	gateway.AssertNotCalled(t, "Move", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEmailService_Get_PresignsAttachments(t *testing.T) {
	ctx := context.Background()
	svc, repos, email := setup(t, new(mockGateway), nil)
	require.NoError(t, repos.EmailAttachmentRepository.Create(ctx, &models.EmailAttachment{
		EmailID:    email.ID,
		Filename:   "grundriss.pdf",
		StorageKey: "emails/" + email.ID + "/file_1-grundriss.pdf",
	}))

	got, err := svc.Get(ctx, email.ID)

	require.NoError(t, err)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "https://r2.example/emails/"+email.ID+"/file_1-grundriss.pdf?sig=1", got.Attachments[0].URL)
}

func TestEmailService_Get_NotFound(t *testing.T) {
	svc, _, _ := setup(t, new(mockGateway), nil)

	_, err := svc.Get(context.Background(), "email_missing")

	assert.Equal(t, leadstack_errors.ErrEmailNotFound, err)
}

func TestEmailService_Send_StoresSentRecord(t *testing.T) {
	// Arrange
	ctx := context.Background()
	sender := &fakeSender{}
	svc, _, _ := setup(t, new(mockGateway), sender)

	// Act
	record, err := svc.Send(ctx, &dto.OutgoingEmail{
		To:        []string{"max@example.com"},
		Subject:   "Ihr Angebot",
		Text:      "Hallo Max",
		InReplyTo: "<msg-1@example.com>",
	})

	// Assert
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, enum.EmailFolderSent, record.Folder)
	assert.Equal(t, enum.EmailOutbound, record.Direction)
	assert.Equal(t, "out-1@umzug-berlin.de", record.MessageID)
	assert.Equal(t, "msg-1@example.com", record.ThreadID)
	assert.True(t, record.IsRead)

	sent, _, err := svc.List(ctx, enum.EmailFolderSent, 10, 0)
	require.NoError(t, err)
	assert.Len(t, sent, 1)
}

func TestEmailService_Send_Validation(t *testing.T) {
	sender := &fakeSender{}
	svc, _, _ := setup(t, new(mockGateway), sender)

	_, err := svc.Send(context.Background(), &dto.OutgoingEmail{Subject: "x", Text: "y"})
	assert.Equal(t, ErrRecipientsMissing, err)

	_, err = svc.Send(context.Background(), &dto.OutgoingEmail{To: []string{"max@example.com"}, Text: "y"})
	assert.Equal(t, ErrEmptySubject, err)

	assert.Empty(t, sender.sent)
}
