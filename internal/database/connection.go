package database

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	defaultMaxIdleConn     = 10
	defaultMaxConn         = 100
	defaultConnMaxLifetime = 60 // minutes
)

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	DBName          string
	Password        string
	MaxConn         int
	MaxIdleConn     int
	ConnMaxLifetime int
	LogLevel        string
	SSLMode         string
}

func NewConnection(dbConfig *DatabaseConfig) (*gorm.DB, error) {
	dsn, err := dbConfig.dsn()
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(dbConfig.LogLevel)),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to %s/%s", dbConfig.Host, dbConfig.DBName)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(orDefault(dbConfig.MaxIdleConn, defaultMaxIdleConn))
	sqlDB.SetMaxOpenConns(orDefault(dbConfig.MaxConn, defaultMaxConn))
	sqlDB.SetConnMaxLifetime(time.Duration(orDefault(dbConfig.ConnMaxLifetime, defaultConnMaxLifetime)) * time.Minute)

	return db, nil
}

func (c *DatabaseConfig) dsn() (string, error) {
	if c == nil {
		return "", errors.New("database config is nil")
	}
	for name, value := range map[string]string{
		"host":     c.Host,
		"port":     c.Port,
		"user":     c.User,
		"password": c.Password,
		"name":     c.DBName,
		"sslmode":  c.SSLMode,
	} {
		if value == "" {
			return "", errors.Errorf("database %s is not configured", name)
		}
	}

	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return "", errors.Wrap(err, "invalid database port")
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, port, c.User, c.Password, c.DBName, c.SSLMode,
	), nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToUpper(level) {
	case "SILENT":
		return logger.Silent
	case "ERROR":
		return logger.Error
	case "INFO":
		return logger.Info
	default:
		return logger.Warn
	}
}

func orDefault(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
