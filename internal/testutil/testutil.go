package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"stockroom/internal/database"
)

// OpenDB opens a fresh database file in a per-test temp directory with the
// schema in place. The database is closed when the test ends.
func OpenDB(t *testing.T) *database.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db", "database.db")
	db, err := database.Open(path)
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}

// SeededDB is OpenDB followed by the default seed data.
func SeededDB(t *testing.T) *database.DB {
	t.Helper()
	db := OpenDB(t)
	if err := database.SeedDefaults(context.Background(), db); err != nil {
		t.Fatalf("Failed to seed test DB: %v", err)
	}
	return db
}

// ObservedLogger returns a logger that records entries at debug level and above.
func ObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}
