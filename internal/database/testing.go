package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

// NewTestDB opens a migrated sqlite database in a temp dir.
func NewTestDB(t testing.TB) *DB {
	t.Helper()

	db, err := NewDB(context.Background(), Config{
		Type:       "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "history.db"),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := NewMigrator(db, zerolog.Nop()).Run(context.Background()); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}
