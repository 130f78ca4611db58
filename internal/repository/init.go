package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/relocrm/leadstack/config"
	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/models"
	"github.com/relocrm/leadstack/internal/repository/legacy"
)

type Repositories struct {
	EmailRepository           interfaces.EmailRepository
	EmailAttachmentRepository interfaces.EmailAttachmentRepository
	MailboxSyncRepository     interfaces.MailboxSyncRepository
	FailedImportRepository    interfaces.FailedImportRepository
	CustomerRepository        interfaces.CustomerRepository
	QuoteRepository           interfaces.QuoteRepository
	InvoiceRepository         interfaces.InvoiceRepository
	ShareTokenRepository      interfaces.ShareTokenRepository
	NotificationRepository    interfaces.NotificationRepository
	PendingImportRepository   interfaces.PendingImportRepository
	SettingRepository         interfaces.LocalStore
	// nil when no legacy database is configured
	LegacySource interfaces.LegacySource
}

func InitRepositories(db *gorm.DB, legacyDB *gorm.DB) *Repositories {
	repos := &Repositories{
		EmailRepository:           NewEmailRepository(db),
		EmailAttachmentRepository: NewEmailAttachmentRepository(db),
		MailboxSyncRepository:     NewMailboxSyncRepository(db),
		FailedImportRepository:    NewFailedImportRepository(db),
		CustomerRepository:        NewCustomerRepository(db),
		QuoteRepository:           NewQuoteRepository(db),
		InvoiceRepository:         NewInvoiceRepository(db),
		ShareTokenRepository:      NewShareTokenRepository(db),
		NotificationRepository:    NewNotificationRepository(db),
		PendingImportRepository:   NewPendingImportRepository(db),
		SettingRepository:         NewSettingRepository(db),
	}
	if legacyDB != nil {
		repos.LegacySource = legacy.NewLegacySource(legacyDB)
	}
	return repos
}

func MigrateDB(dbConfig *config.DatabaseConfig, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxOpenConns(5)

	err = db.AutoMigrate(
		&models.Email{},
		&models.EmailAttachment{},
		&models.MailboxSyncState{},
		&models.FailedImport{},
		&models.Customer{},
		&models.Quote{},
		&models.Invoice{},
		&models.ShareToken{},
		&models.Notification{},
		&models.PendingImport{},
		&models.Setting{},
	)

	sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConn)
	sqlDB.SetMaxOpenConns(dbConfig.MaxConn)
	sqlDB.SetConnMaxLifetime(time.Duration(dbConfig.ConnMaxLifetime) * time.Minute)

	return err
}
