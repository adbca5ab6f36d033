package logging

import (
	"log/slog"
	"time"

	"github.com/pertepiece/backend/internal/models"
	"gorm.io/gorm"
)

const Retention = 30 * 24 * time.Hour

// Purge deletes system_logs older than the retention window.
func Purge(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Where("timestamp < ?", now.Add(-Retention)).Delete(&models.SystemLog{})
	return result.RowsAffected, result.Error
}

// StartCleanup runs a daily goroutine that purges old system logs.
func StartCleanup(db *gorm.DB, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				deleted, err := Purge(db, time.Now())
				if err != nil {
					slog.Error("log cleanup failed", "error", err)
				} else if deleted > 0 {
					slog.Info("log cleanup completed", "deleted", deleted)
				}
			case <-done:
				return
			}
		}
	}()
}
