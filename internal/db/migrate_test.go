package db

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func TestRunMigrationsIsIdempotent(t *testing.T) {
	conn, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "m.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()
	for i := 0; i < 2; i++ {
		if err := RunMigrations(conn, ""); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("applied = %d, want 2", n)
	}
}

func TestRunMigrationsPrefersDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "001_custom.sql"), []byte(`CREATE TABLE custom (id INTEGER);`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	conn, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "m.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()
	if err := RunMigrations(conn, dir); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	if _, err := conn.Exec(`INSERT INTO custom (id) VALUES (1)`); err != nil {
		t.Fatalf("custom migration not applied: %v", err)
	}
	if _, err := conn.Exec(`SELECT 1 FROM assessments`); err == nil {
		t.Fatalf("embedded migrations should not run when a directory is given")
	}
}
