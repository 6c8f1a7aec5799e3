// Package testutil provides shared helpers for package tests: an
// in-memory database with the real schema, fixtures, and error
// assertions.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"wolfquant/internal/backend"
)

// SetupTestDB opens a named in-memory sqlite database, migrates the full
// schema, and seeds reference data. Each test gets its own database; the
// shared cache keeps it alive across pooled connections.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := backend.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// TeardownTestDB closes the underlying connection pool, releasing the
// in-memory database.
func TeardownTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get underlying DB: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("failed to close test database: %v", err)
	}
}
