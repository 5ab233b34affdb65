// Package dbtest opens throwaway sqlite databases for tests
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/effectiveacceleration/marketplace/internal/db"
)

// NewInMemory opens a private migrated in-memory sqlite database.
// Each call gets its own database so parallel tests never share rows.
func NewInMemory() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	return open(dsn)
}

// NewFile opens a migrated sqlite database stored at path
func NewFile(path string) (*gorm.DB, error) {
	return open(fmt.Sprintf("file:%s?_busy_timeout=5000", path))
}

func open(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer; one connection serializes access
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrate(gdb); err != nil {
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	return gdb, nil
}

// New opens an in-memory database that is closed when t finishes
func New(t testing.TB) *gorm.DB {
	t.Helper()
	gdb, err := NewInMemory()
	require.NoError(t, err, "Failed to create in-memory database")
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}
