package services

import (
	"time"

	"github.com/relocrm/leadstack/config"
	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/localstore"
	"github.com/relocrm/leadstack/internal/logger"
	"github.com/relocrm/leadstack/internal/repository"
	"github.com/relocrm/leadstack/services/auto_sync"
	"github.com/relocrm/leadstack/services/customer_import"
	"github.com/relocrm/leadstack/services/email"
	"github.com/relocrm/leadstack/services/email_parser"
	"github.com/relocrm/leadstack/services/email_processor"
	"github.com/relocrm/leadstack/services/email_sync"
	"github.com/relocrm/leadstack/services/events"
	"github.com/relocrm/leadstack/services/imap"
	"github.com/relocrm/leadstack/services/notification"
	"github.com/relocrm/leadstack/services/realtime"
	"github.com/relocrm/leadstack/services/share_token"
	"github.com/relocrm/leadstack/services/smtp"
	"github.com/relocrm/leadstack/services/storage"
)

type Services struct {
	Hub           *realtime.Hub
	EventsService *events.EventsService // nil without RABBITMQ_URL
	LocalStore    *localstore.SQLiteStore

	IMAPService    *imap.IMAPService
	MailSender     interfaces.MailSender     // nil without SMTP_SERVER
	StorageService interfaces.StorageService // nil without R2 credentials

	EmailProcessor        interfaces.EmailProcessor
	EmailParser           interfaces.EmailParser
	EmailSyncService      interfaces.EmailSyncService
	EmailService          interfaces.EmailService
	CustomerImportService interfaces.CustomerImportService
	AutoSyncService       *auto_sync.AutoSyncService
	ShareTokenService     interfaces.ShareTokenService
	NotificationService   *notification.NotificationService
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	var publisher interfaces.EventPublisher
	var eventsService *events.EventsService
	if cfg.AppConfig.RabbitMQURL != "" {
		publisherConfig := &events.PublisherConfig{
			MessageTTL:          events.DefaultMessageTTL,
			MaxRetries:          events.DefaultMaxRetries,
			PublishTimeout:      events.DefaultPublishTimeout,
			ReconnectBackoff:    events.DefaultReconnectBackoff,
			MaxReconnectBackoff: events.DefaultMaxReconnectBackoff,
		}

		subscriberConfig := &events.SubscriberConfig{
			MaxRetries:          events.DefaultMaxRetries,
			ReconnectBackoff:    events.DefaultReconnectBackoff,
			MaxReconnectBackoff: events.DefaultMaxReconnectBackoff,
		}

		var err error
		eventsService, err = events.NewEventsService(cfg.AppConfig.RabbitMQURL, log, publisherConfig, subscriberConfig)
		if err != nil {
			return nil, err
		}
		publisher = eventsService.Publisher
	} else {
		log.Warn("RABBITMQ_URL not set, change events stay in this process")
	}

	store, err := localstore.NewSQLiteStore(cfg.LocalStoreConfig.Path)
	if err != nil {
		if eventsService != nil {
			_ = eventsService.Close()
		}
		return nil, err
	}

	var sender interfaces.MailSender
	if cfg.MailboxConfig.SmtpServer != "" {
		sender = smtp.NewSMTPService(cfg.MailboxConfig, log)
	}

	var autoSyncStore interfaces.LocalStore = store
	if cfg.AutoSyncConfig.ClusterMode {
		autoSyncStore = repos.SettingRepository
	}

	hub := realtime.NewHub(log)
	storageService := storage.NewR2StorageService(cfg.R2StorageConfig)
	imapService := imap.NewIMAPService(cfg.MailboxConfig, log)
	processor := email_processor.NewEmailProcessor(repos, storageService, log)
	parser := email_parser.NewEmailParser(repos, log)
	notifications := notification.NewNotificationService(repos, publisher, hub, log)

	services := Services{
		Hub:                   hub,
		EventsService:         eventsService,
		LocalStore:            store,
		IMAPService:           imapService,
		MailSender:            sender,
		StorageService:        storageService,
		EmailProcessor:        processor,
		EmailParser:           parser,
		EmailSyncService:      email_sync.NewEmailSyncService(repos, imapService, processor, publisher, hub, cfg.MailboxConfig, log),
		EmailService:          email.NewEmailService(repos, imapService, sender, storageService, hub, time.Duration(cfg.R2StorageConfig.PresignExpiryMinutes)*time.Minute, log),
		CustomerImportService: customer_import.NewCustomerImportService(repos, parser, notifications, log),
		AutoSyncService:       auto_sync.NewAutoSyncService(repos, autoSyncStore, hub, cfg.AutoSyncConfig, log),
		ShareTokenService:     share_token.NewShareTokenService(repos, cfg.ShareTokenConfig, cfg.AppConfig.PublicAppURL, log),
		NotificationService:   notifications,
	}

	return &services, nil
}

// Publisher returns the event publisher, or nil when RabbitMQ is not configured.
func (s *Services) Publisher() interfaces.EventPublisher {
	if s.EventsService == nil {
		return nil
	}
	return s.EventsService.Publisher
}

func (s *Services) Close() {
	if s.AutoSyncService != nil {
		s.AutoSyncService.Shutdown()
	}
	if s.EventsService != nil {
		_ = s.EventsService.Close()
	}
	if s.LocalStore != nil {
		_ = s.LocalStore.Close()
	}
}
