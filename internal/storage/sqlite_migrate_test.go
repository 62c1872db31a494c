// ABOUTME: Tests for SQLite schema migrations
// ABOUTME: Upgrades a hand-built version 1 database and checks the backfill

package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
)

// writeLegacyDB creates a version 1 database holding two rows.
func writeLegacyDB(t *testing.T, dbPath string) {
	t.Helper()
	ctx := context.Background()

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open legacy db: %v", err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := migrateCreateEntries(ctx, tx); err != nil {
		t.Fatalf("create v1 schema: %v", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO entries (id, url, title, add_time, last_update_time, is_read, content)
		VALUES ('old1', 'https://www.blog.example/post', 'Old Post', 1000, 5000, 1, 'body'),
		       ('old2', 'not a url', 'Broken', 2000, NULL, 0, NULL)
	`); err != nil {
		t.Fatalf("insert legacy rows: %v", err)
	}
	if _, err := tx.ExecContext(ctx, "PRAGMA user_version = 1"); err != nil {
		t.Fatalf("set version: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func TestMigrateLegacyDatabase(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "legacy.db")
	writeLegacyDB(t, dbPath)

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}

	old1, err := store.Get(ctx, "old1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if old1.Domain != "blog.example" {
		t.Errorf("expected backfilled domain, got %q", old1.Domain)
	}
	if !old1.ContentExtracted {
		t.Error("expected ContentExtracted for entry with content")
	}
	if old1.LastReadTime == nil || old1.LastReadTime.UnixMilli() != 5000 {
		t.Errorf("expected LastReadTime from last update, got %v", old1.LastReadTime)
	}
	if old1.Tags == nil || len(old1.Tags) != 0 {
		t.Errorf("expected empty tags, got %#v", old1.Tags)
	}

	old2, err := store.Get(ctx, "old2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if old2.Domain != "" || old2.ContentExtracted || old2.LastReadTime != nil {
		t.Errorf("unexpected backfill for unparseable entry: %+v", old2)
	}
	if old2.LastUpdateTime.UnixMilli() != 2000 {
		t.Errorf("expected LastUpdateTime to default to AddTime, got %v", old2.LastUpdateTime)
	}
	store.Close()

	// A second open must not change anything.
	store, err = NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer store.Close()

	err = store.withTx(ctx, func(tx *sql.Tx) error {
		n, err := backfillRows(ctx, tx)
		if err != nil {
			return err
		}
		if n != 0 {
			t.Errorf("expected idempotent backfill, %d rows changed", n)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("backfill failed: %v", err)
	}
}

func TestMigrateRejectsNewerSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "future.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("set version: %v", err)
	}
	db.Close()

	_, err = NewSQLiteStore(dbPath)
	if err == nil || !strings.Contains(err.Error(), "newer than supported") {
		t.Fatalf("expected newer-schema error, got %v", err)
	}
}
