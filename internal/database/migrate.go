package database

import (
	"fmt"
	"log/slog"

	"github.com/pertepiece/backend/internal/database/migrations"
	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

// Migrate applies the embedded SQL migrations.
func Migrate(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.Up(sqlDB, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	version, err := goose.GetDBVersion(sqlDB)
	if err == nil {
		slog.Info("database migrated", "version", version)
	}
	return nil
}
