package database

import (
	"fmt"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDbSeq atomic.Int64

// ConnectTestDb opens an isolated in-memory sqlite database with the full
// schema migrated. Each test gets its own database.
func ConnectTestDb(t *testing.T) *gorm.DB {
	t.Helper()

	// Named in-memory database so the gorm connection pool shares one store
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", testDbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}
