package interfaces

import (
	"context"
	"time"

	"github.com/relocrm/leadstack/dto"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/models"
)

type EmailProcessor interface {
	Normalize(ctx context.Context, mailboxID string, folder enum.EmailFolder, raw *dto.RawMessage) (*models.Email, []*AttachmentFile, error)
	StoreAttachments(ctx context.Context, email *models.Email, files []*AttachmentFile) error
}

// EmailFilterService tags delivery reports and auto replies so they never reach the parser.
type EmailFilterService interface {
	ScanEmail(email *models.Email)
}

type AttachmentFile struct {
	Attachment *models.EmailAttachment
	Data       []byte
}

type EmailSyncService interface {
	SyncEmails(ctx context.Context, folder enum.EmailFolder, limit int, forceSync bool) *dto.SyncResult
	SyncAllFolders(ctx context.Context, limit int, forceSync bool) []*dto.SyncResult
	ListFolders(ctx context.Context) ([]string, error)
}

type EmailService interface {
	List(ctx context.Context, folder enum.EmailFolder, limit, offset int) ([]*models.Email, int64, error)
	Get(ctx context.Context, id string) (*models.Email, error)
	SetRead(ctx context.Context, id string, read bool) error
	SetStarred(ctx context.Context, id string, starred bool) error
	Move(ctx context.Context, id string, target enum.EmailFolder) error
	Delete(ctx context.Context, id string) error
	Send(ctx context.Context, email *dto.OutgoingEmail) (*models.Email, error)
}

type EmailParser interface {
	Parse(body, fromAddress string) (*dto.ParsedCustomerData, error)
	ParseEmail(email *models.Email) (*dto.ParsedCustomerData, error)
	ProcessEmail(ctx context.Context, emailID string) (*dto.ParsedCustomerData, error)
}

type CustomerImportService interface {
	Preview(ctx context.Context, emailID string) (*dto.ImportPreview, error)
	ConfirmImport(ctx context.Context, emailID string, parsed *dto.ParsedCustomerData) (string, error)
	RetryFailedImports(ctx context.Context, ids []string, lenient bool) (*dto.RetryResult, error)
	ListFailedImports(ctx context.Context, limit int) ([]*models.FailedImport, error)
	DismissFailedImport(ctx context.Context, id string) error
}

type AutoSyncService interface {
	SyncNow(ctx context.Context) models.SyncStatus
	Start(ctx context.Context, interval time.Duration) error
	Stop()
	IsRunning() bool
	Status() models.SyncStatus
	NeedsSync() bool
	Enabled(ctx context.Context) bool
}

type ShareTokenService interface {
	CreateShareToken(ctx context.Context, customerID, customerName, createdBy string, permissions *models.SharePermissions) (*models.ShareToken, error)
	ValidateToken(ctx context.Context, token string) (*models.ShareToken, error)
	GetCustomerTokens(ctx context.Context, customerID string) ([]*models.ShareToken, error)
	Revoke(ctx context.Context, token string) error
	CleanupExpired(ctx context.Context) (int64, error)
	GenerateShareURL(token string) string
}

type NotificationService interface {
	CreateNotification(ctx context.Context, input NotificationInput) (string, error)
	GetUnreadNotifications(ctx context.Context, limit int) ([]*models.Notification, error)
	MarkAsRead(ctx context.Context, id string) error
	MarkAllAsRead(ctx context.Context) (int, error)
	SubscribeToNotifications(ctx context.Context, limit int, callback func([]*models.Notification)) (Subscription, error)
	Refresh(ctx context.Context)
}

type NotificationInput struct {
	Type       enum.NotificationType     `json:"type"`
	Title      string                    `json:"title"`
	Message    string                    `json:"message"`
	CustomerID string                    `json:"customerId,omitempty"`
	QuoteID    string                    `json:"quoteId,omitempty"`
	Priority   enum.NotificationPriority `json:"priority,omitempty"`
	ActionURL  string                    `json:"actionUrl,omitempty"`
	Details    map[string]interface{}    `json:"details,omitempty"`
}

// Subscription is a live feed handle. Close is safe to call more than once.
type Subscription interface {
	Close()
}
