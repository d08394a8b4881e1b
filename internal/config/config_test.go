package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "db/database.db" {
		t.Errorf("db path = %q", cfg.Database.Path)
	}
	if cfg.Backup.Dir != "backups" {
		t.Errorf("backup dir = %q", cfg.Backup.Dir)
	}
}

func TestLoadYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "custom.yaml")
	yml := "database:\n  path: data/inv.db\nbackup:\n  dir: snapshots\nlogger:\n  level: debug\n  encoding: json\n"
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STOCKROOM_BACKUP_DIR", "/var/backups/stockroom")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "data/inv.db" {
		t.Errorf("db path = %q, want from yaml", cfg.Database.Path)
	}
	if cfg.Backup.Dir != "/var/backups/stockroom" {
		t.Errorf("backup dir = %q, want env override", cfg.Backup.Dir)
	}
	if cfg.Logger.Encoding != "json" || cfg.Logger.Level != "debug" {
		t.Errorf("logger = %+v", cfg.Logger)
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := Load("nope.yaml"); err == nil {
		t.Fatal("expected error for explicit missing config file")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Database.Path = ""
	cfg.Logger.Level = "loud"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "database.path") || !strings.Contains(err.Error(), "logger.level") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadMalformedDotEnvFails(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("STOCKROOM_DB_PATH=\"unterminated\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for malformed .env")
	}
}
