// Package testdb opens migrated in-memory SQLite databases for tests.
package testdb

import (
	"context"
	"testing"

	"github.com/helixml/patchlog/infrastructure/persistence"
	"github.com/helixml/patchlog/internal/database"
)

// New returns an in-memory database with the record schema migrated.
// It is closed when the test finishes.
func New(t *testing.T) database.Database {
	t.Helper()

	db, err := database.NewDatabase(context.Background(), "sqlite://:memory:")
	if err != nil {
		t.Fatalf("testdb: open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := persistence.AutoMigrate(db); err != nil {
		t.Fatalf("testdb: migrate: %v", err)
	}
	return db
}

// Records returns a record store backed by a fresh database.
func Records(t *testing.T) persistence.RecordStore {
	t.Helper()
	return persistence.NewRecordStore(New(t))
}
