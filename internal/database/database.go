package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go"
	"github.com/pertepiece/backend/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var openDB = func(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

// Connect opens the pool, retrying with backoff while Postgres comes up.
// The pool of a failed attempt is closed before the next one.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	var db *gorm.DB
	err := retry.Do(
		func() error {
			var err error
			db, err = openDB(cfg.DSN())
			if err == nil {
				err = Ping(db)
			}
			if err != nil {
				if db != nil {
					_ = Close(db)
				}
				return err
			}
			return nil
		},
		retry.Attempts(cfg.DBConnectAttempts),
		retry.Delay(cfg.DBConnectDelay),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("database not ready, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	slog.Info("database connected")
	return db, nil
}

func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
