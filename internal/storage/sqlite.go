// ABOUTME: SQLite storage implementation using modernc.org/sqlite (pure Go)
// ABOUTME: Persists entries with a side table for tags and versioned migrations

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harper/readlist/internal/models"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const recordColumns = `id, url, title, add_time, last_update_time, is_read,
	content, excerpt, image_url, site_name, author, publish_date,
	domain, content_extracted, last_read_time`

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	now    func() time.Time
	logger *zap.Logger
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and
// upgrades its schema to SchemaVersion. A failed upgrade aborts the open.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	o := buildOptions(opts)

	// Owner-only permissions.
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &SQLiteStore{db: db, now: o.now, logger: o.logger}

	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get retrieves an entry by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.Entry, error) {
	return s.getWhere(ctx, s.db, "id = ?", id)
}

// GetByURL returns the first entry (by insertion order) with the given URL.
func (s *SQLiteStore) GetByURL(ctx context.Context, url string) (*models.Entry, error) {
	return s.getWhere(ctx, s.db, "url = ?", url)
}

// Exists reports whether an entry with id is stored.
func (s *SQLiteStore) Exists(ctx context.Context, id string) (bool, error) {
	return exists(ctx, s.db, id)
}

// Count returns the number of stored entries.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return count, nil
}

// All returns every entry in insertion order.
func (s *SQLiteStore) All(ctx context.Context) ([]*models.Entry, error) {
	return s.list(ctx, "", nil)
}

// Add inserts a new entry.
func (s *SQLiteStore) Add(ctx context.Context, entry *models.Entry) (string, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return insertRecord(ctx, tx, RecordFromEntry(entry))
	})
	if err != nil {
		return "", err
	}
	return entry.ID, nil
}

// BulkAdd inserts all entries in a single transaction. On ErrDuplicateKey
// nothing is written.
func (s *SQLiteStore) BulkAdd(ctx context.Context, entries []*models.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, e := range entries {
			if err := insertRecord(ctx, tx, RecordFromEntry(e)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Put inserts or replaces an entry, keeping its original insertion position.
func (s *SQLiteStore) Put(ctx context.Context, entry *models.Entry) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return upsertRecord(ctx, tx, RecordFromEntry(entry))
	})
}

// Update applies patch to the stored entry. An absent id is a no-op.
func (s *SQLiteStore) Update(ctx context.Context, id string, patch models.Patch) (*models.Entry, error) {
	var updated *models.Entry
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		entry, err := s.getWhere(ctx, tx, "id = ?", id)
		if err != nil || entry == nil {
			return err
		}
		patch.ApplyTo(entry, s.now())
		if err := upsertRecord(ctx, tx, RecordFromEntry(entry)); err != nil {
			return err
		}
		updated = entry
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	return updated, nil
}

// Delete removes an entry; absent ids are ignored.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	return s.BulkDelete(ctx, []string{id})
}

// BulkDelete removes entries in a single transaction.
func (s *SQLiteStore) BulkDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx, `DELETE FROM entry_tags WHERE entry_id = ?`, id); err != nil {
				return fmt.Errorf("delete tags: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id); err != nil {
				return fmt.Errorf("delete entry: %w", err)
			}
		}
		return nil
	})
}

// Clear removes every entry.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM entry_tags`); err != nil {
			return fmt.Errorf("clear tags: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
			return fmt.Errorf("clear entries: %w", err)
		}
		return nil
	})
}

// Query narrows candidates with indexed columns in SQL, then applies the
// text search and ordering in Go so every backend sorts identically.
func (s *SQLiteStore) Query(ctx context.Context, filter Filter, sort Sort) ([]*models.Entry, error) {
	var conditions []string
	var args []interface{}

	switch filter.Read {
	case ReadOnly:
		conditions = append(conditions, "is_read = 1")
	case UnreadOnly:
		conditions = append(conditions, "is_read = 0")
	}

	if filter.Domain != "" {
		conditions = append(conditions, "domain = ?")
		args = append(args, filter.Domain)
	}

	if filter.AddedFrom != nil {
		conditions = append(conditions, "add_time >= ?")
		args = append(args, toMillis(*filter.AddedFrom))
	}

	if filter.AddedTo != nil {
		conditions = append(conditions, "add_time <= ?")
		args = append(args, toMillis(*filter.AddedTo))
	}

	if len(filter.Tags) > 0 {
		placeholders := make([]string, len(filter.Tags))
		for i, tag := range filter.Tags {
			placeholders[i] = "?"
			args = append(args, tag)
		}
		conditions = append(conditions,
			"id IN (SELECT entry_id FROM entry_tags WHERE tag IN ("+strings.Join(placeholders, ",")+"))")
	}

	entries, err := s.list(ctx, strings.Join(conditions, " AND "), args)
	if err != nil {
		return nil, err
	}

	entries = FilterEntries(entries, filter)
	SortEntries(entries, sort)
	return entries, nil
}

// Stats computes aggregate statistics over every entry.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	entries, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return ComputeStats(entries, s.now()), nil
}

// DomainStats counts entries per domain.
func (s *SQLiteStore) DomainStats(ctx context.Context) ([]KeyCount, error) {
	entries, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return CountKeys(entries, DomainKeys), nil
}

// TagStats counts entries per tag.
func (s *SQLiteStore) TagStats(ctx context.Context) ([]KeyCount, error) {
	entries, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return CountKeys(entries, TagKeys), nil
}

// Compact performs database maintenance (VACUUM).
func (s *SQLiteStore) Compact(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	return nil
}

// Helper functions

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) getWhere(ctx context.Context, q querier, cond string, arg interface{}) (*models.Entry, error) {
	row := q.QueryRowContext(ctx, "SELECT "+recordColumns+" FROM entries WHERE "+cond+" ORDER BY rowid LIMIT 1", arg)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	tags, err := loadTags(ctx, q, r.ID)
	if err != nil {
		return nil, err
	}
	r.Tags = tags
	return r.Entry(), nil
}

func (s *SQLiteStore) list(ctx context.Context, where string, args []interface{}) ([]*models.Entry, error) {
	query := "SELECT " + recordColumns + " FROM entries"
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	tagsByID, err := s.allTags(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]*models.Entry, 0, len(records))
	for _, r := range records {
		r.Tags = tagsByID[r.ID]
		entries = append(entries, r.Entry())
	}
	return entries, nil
}

func (s *SQLiteStore) allTags(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT entry_id, tag FROM entry_tags ORDER BY entry_id, tag`)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	tags := make(map[string][]string)
	for rows.Next() {
		var id, tag string
		if err := rows.Scan(&id, &tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags[id] = append(tags[id], tag)
	}
	return tags, rows.Err()
}

func loadTags(ctx context.Context, q querier, id string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT tag FROM entry_tags WHERE entry_id = ? ORDER BY tag`, id)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func exists(ctx context.Context, q querier, id string) (bool, error) {
	var count int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE id = ?`, id).Scan(&count); err != nil {
		return false, fmt.Errorf("check entry exists: %w", err)
	}
	return count > 0, nil
}

func insertRecord(ctx context.Context, tx *sql.Tx, r *Record) error {
	found, err := exists(ctx, tx, r.ID)
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, r.ID)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO entries (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, recordArgs(r)...)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, r.ID)
		}
		return fmt.Errorf("insert entry: %w", err)
	}
	return replaceTags(ctx, tx, r.ID, r.Tags)
}

func upsertRecord(ctx context.Context, tx *sql.Tx, r *Record) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO entries (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			url = excluded.url, title = excluded.title, add_time = excluded.add_time,
			last_update_time = MAX(COALESCE(entries.last_update_time, 0), excluded.last_update_time),
			is_read = excluded.is_read, content = excluded.content, excerpt = excluded.excerpt,
			image_url = excluded.image_url, site_name = excluded.site_name, author = excluded.author,
			publish_date = excluded.publish_date, domain = excluded.domain,
			content_extracted = excluded.content_extracted, last_read_time = excluded.last_read_time
	`, recordArgs(r)...)
	if err != nil {
		return fmt.Errorf("upsert entry: %w", err)
	}
	return replaceTags(ctx, tx, r.ID, r.Tags)
}

func replaceTags(ctx context.Context, tx *sql.Tx, id string, tags []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM entry_tags WHERE entry_id = ?`, id); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}
	for _, tag := range tags {
		if _, err := tx.ExecContext(ctx, `INSERT INTO entry_tags (entry_id, tag) VALUES (?, ?)`, id, tag); err != nil {
			return fmt.Errorf("insert tag: %w", err)
		}
	}
	return nil
}

func recordArgs(r *Record) []interface{} {
	var extracted interface{}
	if r.ContentExtracted != nil {
		extracted = boolToInt(*r.ContentExtracted)
	}
	return []interface{}{
		r.ID, r.URL, r.Title, r.AddTime, r.LastUpdateTime, boolToInt(r.IsRead),
		r.Content, r.Excerpt, r.ImageURL, r.SiteName, r.Author, r.PublishDate,
		r.Domain, extracted, r.LastReadTime,
	}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var r Record
	var lastUpdate, lastRead sql.NullInt64
	var content, excerpt, imageURL, siteName, author, publishDate, domain sql.NullString
	var isRead int
	var extracted sql.NullInt64

	if err := row.Scan(
		&r.ID, &r.URL, &r.Title, &r.AddTime, &lastUpdate, &isRead,
		&content, &excerpt, &imageURL, &siteName, &author, &publishDate,
		&domain, &extracted, &lastRead,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan entry: %w", err)
	}

	r.IsRead = isRead == 1
	r.LastUpdateTime = nullInt(lastUpdate)
	r.LastReadTime = nullInt(lastRead)
	r.Content = nullString(content)
	r.Excerpt = nullString(excerpt)
	r.ImageURL = nullString(imageURL)
	r.SiteName = nullString(siteName)
	r.Author = nullString(author)
	r.PublishDate = nullString(publishDate)
	r.Domain = nullString(domain)
	if extracted.Valid {
		v := extracted.Int64 == 1
		r.ContentExtracted = &v
	}
	return &r, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func nullInt(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	return &ni.Int64
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// GetDefaultDBPath returns the default database path.
func GetDefaultDBPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "./readlist.db"
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, "readlist", "readlist.db")
}

var _ Store = (*SQLiteStore)(nil)
