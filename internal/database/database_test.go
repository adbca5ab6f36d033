package database

import (
	"strings"
	"testing"
	"time"

	"github.com/pertepiece/backend/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestConnect_ClosesFailedAttempts(t *testing.T) {
	var opened []*gorm.DB
	restore := openDB
	openDB = func(string) (*gorm.DB, error) {
		// Nothing listens on port 1, so every ping is refused.
		db, err := gorm.Open(postgres.Open("host=127.0.0.1 port=1 user=test dbname=test sslmode=disable connect_timeout=1"),
			&gorm.Config{DisableAutomaticPing: true})
		if err == nil {
			opened = append(opened, db)
		}
		return db, err
	}
	t.Cleanup(func() { openDB = restore })

	cfg := &config.Config{DBConnectAttempts: 3, DBConnectDelay: time.Millisecond}
	if db, err := Connect(cfg); err == nil || db != nil {
		t.Fatalf("Connect() = %v, %v, want an error", db, err)
	}

	if len(opened) != 3 {
		t.Fatalf("opened %d pools, want 3", len(opened))
	}
	for i, db := range opened {
		sqlDB, err := db.DB()
		if err != nil {
			t.Fatal(err)
		}
		if err := sqlDB.Ping(); err == nil || !strings.Contains(err.Error(), "database is closed") {
			t.Errorf("pool %d left open: ping error = %v", i, err)
		}
	}
}
