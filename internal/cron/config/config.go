package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Inbox sync, every 5 minutes
	CronScheduleInboxSync string `env:"CRON_SCHEDULE_INBOX_SYNC" envDefault:"0 */5 * * * *"`
	// Auto-sync staleness check, every minute
	CronScheduleAutoSyncCheck string `env:"CRON_SCHEDULE_AUTO_SYNC_CHECK" envDefault:"30 * * * * *"`
	// Share token expiry sweep, hourly
	CronScheduleShareTokenCleanup string `env:"CRON_SCHEDULE_SHARE_TOKEN_CLEANUP" envDefault:"0 0 * * * *"`
	// Retry of unresolved failed imports, daily at 03:00
	CronScheduleFailedImportRetry string `env:"CRON_SCHEDULE_FAILED_IMPORT_RETRY" envDefault:"0 0 3 * * *"`
}
