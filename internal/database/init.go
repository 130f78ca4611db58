package database

import (
	"gorm.io/gorm"

	"github.com/relocrm/leadstack/config"
)

func InitPrimaryDatabase(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	return NewConnection(&DatabaseConfig{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		DBName:          cfg.DBName,
		Password:        cfg.Password,
		MaxConn:         cfg.MaxConn,
		MaxIdleConn:     cfg.MaxIdleConn,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		LogLevel:        cfg.LogLevel,
		SSLMode:         cfg.SSLMode,
	})
}

// InitLegacyDatabase returns nil when no legacy source is configured.
func InitLegacyDatabase(cfg *config.LegacyDatabaseConfig) (*gorm.DB, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	primary := config.DatabaseConfig(*cfg)
	return InitPrimaryDatabase(&primary)
}
