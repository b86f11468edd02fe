package database

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadMigrations_OrdersAndFilters(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"002_add_index.sql":   "CREATE INDEX x ON y(z);",
		"001_chat_schema.sql": "CREATE TABLE y (z TEXT);",
		"README.md":           "not a migration",
		"abc_broken.sql":      "SELECT 1;",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	migrations, err := ReadMigrations(dir)
	if err != nil {
		t.Fatalf("ReadMigrations failed: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[1].Version != 2 {
		t.Fatalf("unexpected order: %d, %d", migrations[0].Version, migrations[1].Version)
	}
	if migrations[0].SQL != "CREATE TABLE y (z TEXT);" {
		t.Fatalf("unexpected SQL: %q", migrations[0].SQL)
	}
}

func TestReadMigrations_RepoSchema(t *testing.T) {
	migrations, err := ReadMigrations(filepath.Join("..", "..", "migrations"))
	if err != nil {
		t.Fatalf("ReadMigrations failed: %v", err)
	}
	if len(migrations) == 0 || migrations[0].Version != 1 {
		t.Fatalf("expected the chat schema migration first, got %+v", migrations)
	}
}

func TestNewSQLite_AppliesSchema(t *testing.T) {
	db, err := NewSQLite(filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('chat_sessions', 'chat_messages')`).Scan(&n); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected both chat tables, got %d", n)
	}
}
