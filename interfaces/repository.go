package interfaces

import (
	"context"
	"time"

	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/models"
)

type EmailRepository interface {
	Create(ctx context.Context, email *models.Email) error
	GetByID(ctx context.Context, id string) (*models.Email, error)
	GetByIdentityKey(ctx context.Context, identityKey string) (*models.Email, error)
	ListByFolder(ctx context.Context, folder enum.EmailFolder, limit, offset int) ([]*models.Email, int64, error)
	UpdateFlags(ctx context.Context, id string, isRead, isStarred bool) error
	MoveToFolder(ctx context.Context, id string, folder enum.EmailFolder, imapUID uint32, identityKey string) error
	MarkImported(ctx context.Context, id, customerID string, importedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

type EmailAttachmentRepository interface {
	Create(ctx context.Context, attachment *models.EmailAttachment) error
	ListByEmail(ctx context.Context, emailID string) ([]*models.EmailAttachment, error)
}

type MailboxSyncRepository interface {
	GetSyncState(ctx context.Context, mailboxID string, folder enum.EmailFolder) (*models.MailboxSyncState, error)
	SaveSyncState(ctx context.Context, state *models.MailboxSyncState) error
	GetMailboxSyncStates(ctx context.Context, mailboxID string) ([]*models.MailboxSyncState, error)
}

type FailedImportRepository interface {
	Create(ctx context.Context, failedImport *models.FailedImport) error
	GetByID(ctx context.Context, id string) (*models.FailedImport, error)
	GetUnresolvedByEmailID(ctx context.Context, emailID string) (*models.FailedImport, error)
	ListUnresolved(ctx context.Context, limit int) ([]*models.FailedImport, error)
	MarkResolved(ctx context.Context, id, resolvedBy, customerID string) error
	Delete(ctx context.Context, id string) error
}

type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	Overwrite(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, id string) (*models.Customer, error)
	GetBySourceEmailID(ctx context.Context, emailID string) (*models.Customer, error)
	FindByEmailOrPhone(ctx context.Context, email, phone string) (*models.Customer, error)
	List(ctx context.Context, limit, offset int) ([]*models.Customer, int64, error)
	ListIDs(ctx context.Context) ([]string, error)
}

type QuoteRepository interface {
	Create(ctx context.Context, quote *models.Quote) error
	Overwrite(ctx context.Context, quote *models.Quote) error
	GetByID(ctx context.Context, id string) (*models.Quote, error)
	GetLatestByCustomer(ctx context.Context, customerID string) (*models.Quote, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*models.Quote, error)
	ListIDs(ctx context.Context) ([]string, error)
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	Overwrite(ctx context.Context, invoice *models.Invoice) error
	ListByCustomer(ctx context.Context, customerID string) ([]*models.Invoice, error)
	ListIDs(ctx context.Context) ([]string, error)
}

type ShareTokenRepository interface {
	Create(ctx context.Context, token *models.ShareToken) error
	GetByToken(ctx context.Context, token string) (*models.ShareToken, error)
	RecordAccess(ctx context.Context, token string, accessedAt time.Time) (*models.ShareToken, error)
	Revoke(ctx context.Context, token string, revokedAt time.Time) error
	ListByCustomer(ctx context.Context, customerID string) ([]*models.ShareToken, error)
	ExpireBefore(ctx context.Context, now time.Time) (int64, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetByID(ctx context.Context, id string) (*models.Notification, error)
	ListUnread(ctx context.Context, limit int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id string, readAt time.Time) error
}

type PendingImportRepository interface {
	Get(ctx context.Context, emailID string) (*models.PendingImport, error)
	Save(ctx context.Context, pending *models.PendingImport) error
	Delete(ctx context.Context, emailID string) error
}

// LegacySource reads the spreadsheet-era tables.
type LegacySource interface {
	ListCustomers(ctx context.Context) ([]models.LegacyCustomer, error)
	ListQuotes(ctx context.Context) ([]models.LegacyQuote, error)
	ListInvoices(ctx context.Context) ([]models.LegacyInvoice, error)
}

// LocalStore is a small persistent key/value store for process state.
type LocalStore interface {
	GetJSON(ctx context.Context, key string, target interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
}
