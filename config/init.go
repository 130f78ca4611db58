package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	cronconfig "github.com/relocrm/leadstack/internal/cron/config"
	"github.com/relocrm/leadstack/internal/logger"
	"github.com/relocrm/leadstack/internal/tracing"
)

type Config struct {
	AppConfig            *AppConfig
	Logger               *logger.Config
	Tracing              *tracing.JaegerConfig
	DatabaseConfig       *DatabaseConfig
	LegacyDatabaseConfig *LegacyDatabaseConfig
	R2StorageConfig      *R2StorageConfig
	MailboxConfig        *MailboxConfig
	LocalStoreConfig     *LocalStoreConfig
	AutoSyncConfig       *AutoSyncConfig
	ShareTokenConfig     *ShareTokenConfig
	ImportConfig         *ImportConfig
	CronConfig           *cronconfig.Config
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:            &AppConfig{},
		Logger:               &logger.Config{},
		Tracing:              &tracing.JaegerConfig{},
		DatabaseConfig:       &DatabaseConfig{},
		LegacyDatabaseConfig: &LegacyDatabaseConfig{},
		R2StorageConfig:      &R2StorageConfig{},
		MailboxConfig:        &MailboxConfig{},
		LocalStoreConfig:     &LocalStoreConfig{},
		AutoSyncConfig:       &AutoSyncConfig{},
		ShareTokenConfig:     &ShareTokenConfig{},
		ImportConfig:         &ImportConfig{},
		CronConfig:           &cronconfig.Config{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		log.Fatalf("Error loading leadstack config: %v", err)
	}

	return config, nil
}
