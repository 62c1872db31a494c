// ABOUTME: Versioned schema migrations for the SQLite store
// ABOUTME: Tracks the version in PRAGMA user_version and backfills v2 fields

package storage

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// sqliteMigration upgrades the schema from version-1 to version.
type sqliteMigration struct {
	version int
	name    string
	up      func(ctx context.Context, tx *sql.Tx) error
}

var sqliteMigrations = []sqliteMigration{
	{version: 1, name: "create entries", up: migrateCreateEntries},
	{version: 2, name: "domain, read time and tags", up: migrateEnrichment},
}

// migrate runs every migration newer than the stored schema version, each
// in its own transaction. A failure aborts and leaves the version unchanged.
func (s *SQLiteStore) migrate(ctx context.Context) error {
	current, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}
	if current > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", current, SchemaVersion)
	}

	for _, m := range sqliteMigrations {
		if m.version <= current {
			continue
		}
		if err := s.withTx(ctx, func(tx *sql.Tx) error {
			if err := m.up(ctx, tx); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.version))
			return err
		}); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		s.logger.Info("schema upgraded", zap.Int("version", m.version), zap.String("migration", m.name))
	}
	return nil
}

func (s *SQLiteStore) schemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

func migrateCreateEntries(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS entries (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE NOT NULL,
			url TEXT NOT NULL,
			title TEXT NOT NULL,
			add_time INTEGER NOT NULL,
			last_update_time INTEGER,
			is_read INTEGER NOT NULL DEFAULT 0,
			content TEXT,
			excerpt TEXT,
			image_url TEXT,
			site_name TEXT,
			author TEXT,
			publish_date TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_entries_url ON entries(url);
		CREATE INDEX IF NOT EXISTS idx_entries_add_time ON entries(add_time);
		CREATE INDEX IF NOT EXISTS idx_entries_last_update_time ON entries(last_update_time);
		CREATE INDEX IF NOT EXISTS idx_entries_is_read ON entries(is_read);
		CREATE INDEX IF NOT EXISTS idx_entries_site_name ON entries(site_name);
	`)
	return err
}

func migrateEnrichment(ctx context.Context, tx *sql.Tx) error {
	columns := []struct{ name, ddl string }{
		{"domain", "ALTER TABLE entries ADD COLUMN domain TEXT"},
		{"content_extracted", "ALTER TABLE entries ADD COLUMN content_extracted INTEGER"},
		{"last_read_time", "ALTER TABLE entries ADD COLUMN last_read_time INTEGER"},
	}
	for _, c := range columns {
		exists, err := hasColumn(ctx, tx, "entries", c.name)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := tx.ExecContext(ctx, c.ddl); err != nil {
			return fmt.Errorf("add %s column: %w", c.name, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_entries_domain ON entries(domain);
		CREATE INDEX IF NOT EXISTS idx_entries_content_extracted ON entries(content_extracted);
		CREATE INDEX IF NOT EXISTS idx_entries_last_read_time ON entries(last_read_time);

		CREATE TABLE IF NOT EXISTS entry_tags (
			entry_id TEXT NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
			tag TEXT NOT NULL,
			PRIMARY KEY (entry_id, tag)
		);

		CREATE INDEX IF NOT EXISTS idx_entry_tags_tag ON entry_tags(tag);
	`); err != nil {
		return fmt.Errorf("create enrichment indexes: %w", err)
	}

	_, err := backfillRows(ctx, tx)
	return err
}

// backfillRows applies Backfill to every stored row and writes back the
// version-2 columns of rows that changed. It returns the number updated.
func backfillRows(ctx context.Context, tx *sql.Tx) (int, error) {
	rows, err := tx.QueryContext(ctx, "SELECT "+recordColumns+" FROM entries ORDER BY rowid")
	if err != nil {
		return 0, fmt.Errorf("query entries for backfill: %w", err)
	}
	var records []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			rows.Close()
			return 0, err
		}
		records = append(records, r)
	}
	if err := rows.Close(); err != nil {
		return 0, err
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	updated := 0
	for _, r := range records {
		// Tags live in entry_tags; an entry without rows there has none.
		r.Tags = []string{}
		if !Backfill(r) {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE entries SET domain = ?, content_extracted = ?, last_read_time = ? WHERE id = ?`,
			r.Domain, boolToInt(*r.ContentExtracted), r.LastReadTime, r.ID,
		); err != nil {
			return 0, fmt.Errorf("backfill entry %s: %w", r.ID, err)
		}
		updated++
	}
	return updated, nil
}

func hasColumn(ctx context.Context, tx *sql.Tx, table, column string) (bool, error) {
	var count int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check %s column: %w", column, err)
	}
	return count > 0, nil
}
