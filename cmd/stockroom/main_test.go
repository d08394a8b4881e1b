package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"stockroom/internal/audit"
	"stockroom/internal/backup"
	"stockroom/internal/database"
	"stockroom/internal/models"
	"stockroom/internal/store"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	return newRootCommand(&app{}).Run(context.Background(), append([]string{"stockroom"}, args...))
}

func cliEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("STOCKROOM_BACKUP_DIR", filepath.Join(dir, "backups"))
	return filepath.Join(dir, "db", "database.db")
}

func openDB(t *testing.T, path string) *database.DB {
	t.Helper()
	db, err := database.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func openStore(t *testing.T, path string) *store.Store {
	t.Helper()
	return store.New(openDB(t, path))
}

func TestInitCreatesSeededDatabase(t *testing.T) {
	path := cliEnv(t)
	if err := run(t, "--db", path, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	users, err := openStore(t, path).ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 seeded users, got %d", len(users))
	}
}

func TestProductCommandsRecordActor(t *testing.T) {
	path := cliEnv(t)
	if err := run(t, "--db", path, "--actor", "user1", "products", "add",
		"--name", "Widget", "--sku", "W-1", "--price", "2.5", "--quantity", "3", "--category-id", "1"); err != nil {
		t.Fatalf("products add: %v", err)
	}

	ctx := context.Background()
	db := openDB(t, path)
	rows, err := store.New(db).ListProducts(ctx, models.ProductFilter{Search: "Widget"})
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListProducts: %v, %d rows", err, len(rows))
	}
	if rows[0].CategoryName() != "Electronics" || !rows[0].LowStock {
		t.Errorf("row = %+v", rows[0])
	}

	logs, err := audit.NewLogger(db, zap.NewNop(), nil).List(ctx)
	if err != nil {
		t.Fatalf("read action log: %v", err)
	}
	if len(logs) != 1 || logs[0].Username != "user1" || logs[0].Action != "Added" {
		t.Errorf("logs = %+v", logs)
	}
}

func TestProductAddRejectsInvalidInput(t *testing.T) {
	path := cliEnv(t)
	err := run(t, "--db", path, "products", "add", "--name", "X", "--sku", "X", "--price=-1", "--quantity", "1")
	if err == nil {
		t.Fatal("expected validation error for negative price")
	}
}

func TestUsersUpdateNeedsAField(t *testing.T) {
	path := cliEnv(t)
	if err := run(t, "--db", path, "users", "update", "--id", "2"); err == nil {
		t.Fatal("expected error when no field is given")
	}
	if err := run(t, "--db", path, "users", "update", "--id", "2", "--role", "admin"); err != nil {
		t.Fatalf("users update: %v", err)
	}
	if err := run(t, "--db", path, "login", "--username", "user1", "--password", "user123"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := run(t, "--db", path, "login", "--username", "user1", "--password", "nope"); err == nil {
		t.Fatal("expected login failure")
	}
}

func TestBackupAndRestoreByName(t *testing.T) {
	path := cliEnv(t)
	if err := run(t, "--db", path, "backup"); err != nil {
		t.Fatalf("backup: %v", err)
	}
	list, err := backup.List(os.Getenv("STOCKROOM_BACKUP_DIR"))
	if err != nil || len(list) != 1 {
		t.Fatalf("List: %v, %d backups", err, len(list))
	}

	if err := run(t, "--db", path, "categories", "add", "Tools"); err != nil {
		t.Fatalf("categories add: %v", err)
	}
	if err := run(t, "--db", path, "restore", list[0].Filename); err != nil {
		t.Fatalf("restore: %v", err)
	}

	cats, err := openStore(t, path).ListCategories(context.Background())
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(cats) != 2 {
		t.Errorf("expected the 2 seeded categories after restore, got %+v", cats)
	}
}
