package config

type AppConfig struct {
	APIPort      string `env:"PORT,required" envDefault:"12222"`
	APIKey       string `env:"API_KEY,required"`
	RabbitMQURL  string `env:"RABBITMQ_URL"`
	PublicAppURL string `env:"PUBLIC_APP_URL" envDefault:"http://localhost:3000"`
}

type DatabaseConfig struct {
	Host            string `env:"LEADSTACK_POSTGRES_HOST,required"`
	Port            string `env:"LEADSTACK_POSTGRES_PORT,required"`
	User            string `env:"LEADSTACK_POSTGRES_USER,required"`
	DBName          string `env:"LEADSTACK_POSTGRES_DB_NAME,required"`
	Password        string `env:"LEADSTACK_POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"LEADSTACK_POSTGRES_DB_MAX_CONN" envDefault:"50"`
	MaxIdleConn     int    `env:"LEADSTACK_POSTGRES_DB_MAX_IDLE_CONN" envDefault:"10"`
	ConnMaxLifetime int    `env:"LEADSTACK_POSTGRES_DB_CONN_MAX_LIFETIME" envDefault:"60"`
	LogLevel        string `env:"LEADSTACK_POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"LEADSTACK_POSTGRES_SSL_MODE" envDefault:"require"`
}

// LegacyDatabaseConfig points at the spreadsheet-era tables. Leaving the host empty disables auto-sync.
type LegacyDatabaseConfig struct {
	Host            string `env:"LEGACY_POSTGRES_HOST"`
	Port            string `env:"LEGACY_POSTGRES_PORT" envDefault:"5432"`
	User            string `env:"LEGACY_POSTGRES_USER"`
	DBName          string `env:"LEGACY_POSTGRES_DB_NAME"`
	Password        string `env:"LEGACY_POSTGRES_PASSWORD"`
	MaxConn         int    `env:"LEGACY_POSTGRES_DB_MAX_CONN" envDefault:"5"`
	MaxIdleConn     int    `env:"LEGACY_POSTGRES_DB_MAX_IDLE_CONN" envDefault:"2"`
	ConnMaxLifetime int    `env:"LEGACY_POSTGRES_DB_CONN_MAX_LIFETIME" envDefault:"60"`
	LogLevel        string `env:"LEGACY_POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"LEGACY_POSTGRES_SSL_MODE" envDefault:"require"`
}

func (c *LegacyDatabaseConfig) Enabled() bool {
	return c != nil && c.Host != ""
}

type R2StorageConfig struct {
	AccountID             string `env:"CLOUDFLARE_R2_ACCOUNT_ID"`
	AccessKeyID           string `env:"CLOUDFLARE_R2_ACCESS_KEY_ID"`
	AccessKeySecret       string `env:"CLOUDFLARE_R2_ACCESS_KEY_SECRET"`
	EmailAttachmentBucket string `env:"BUCKET_NAME_EMAIL_ATTACHMENT" envDefault:"attachments"`
	PresignExpiryMinutes  int    `env:"ATTACHMENT_URL_EXPIRY_MINUTES" envDefault:"60"`
}

func (c *R2StorageConfig) Enabled() bool {
	return c != nil && c.AccountID != "" && c.AccessKeyID != ""
}

type MailboxConfig struct {
	MailboxID    string `env:"MAILBOX_ID" envDefault:"default"`
	ImapServer   string `env:"IMAP_SERVER,required"`
	ImapPort     int    `env:"IMAP_PORT" envDefault:"993"`
	ImapUsername string `env:"IMAP_USERNAME,required"`
	ImapPassword string `env:"IMAP_PASSWORD,required"`
	ImapTLS      bool   `env:"IMAP_TLS" envDefault:"true"`
	SmtpServer   string `env:"SMTP_SERVER"`
	SmtpPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SmtpUsername string `env:"SMTP_USERNAME"`
	SmtpPassword string `env:"SMTP_PASSWORD"`
	FromAddress  string `env:"MAIL_FROM_ADDRESS"`
	FromName     string `env:"MAIL_FROM_NAME"`

	InboxFolder   string `env:"IMAP_FOLDER_INBOX" envDefault:"INBOX"`
	SentFolder    string `env:"IMAP_FOLDER_SENT" envDefault:"Sent"`
	DraftsFolder  string `env:"IMAP_FOLDER_DRAFTS" envDefault:"Drafts"`
	ArchiveFolder string `env:"IMAP_FOLDER_ARCHIVE" envDefault:"Archive"`
	TrashFolder   string `env:"IMAP_FOLDER_TRASH" envDefault:"Trash"`

	DefaultSyncLimit      int `env:"MAIL_SYNC_LIMIT" envDefault:"50"`
	StalenessWindowSecond int `env:"MAIL_SYNC_STALENESS_SECONDS" envDefault:"120"`
}

type LocalStoreConfig struct {
	Path string `env:"LOCAL_STORE_PATH" envDefault:"leadstack.db"`
}

type AutoSyncConfig struct {
	IntervalMinutes int  `env:"AUTO_SYNC_INTERVAL_MINUTES" envDefault:"5"`
	EnabledDefault  bool `env:"AUTO_SYNC_ENABLED" envDefault:"false"`
	// ClusterMode keeps status and toggle in Postgres and leaves scheduling to the cron leader.
	ClusterMode bool `env:"AUTO_SYNC_CLUSTER_MODE" envDefault:"false"`
}

type ShareTokenConfig struct {
	ValidityDays int `env:"SHARE_TOKEN_VALIDITY_DAYS" envDefault:"7"`
}

type ImportConfig struct {
	// AutoImport turns every cleanly parsed inbound email into a customer without operator approval
	AutoImport bool `env:"EMAIL_AUTO_IMPORT" envDefault:"false"`
}
