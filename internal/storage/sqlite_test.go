// ABOUTME: Tests for SQLite storage implementation
// ABOUTME: Covers CRUD, bulk operations, queries and statistics

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harper/readlist/internal/models"
)

var testEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeClock returns a clock that advances one second per call.
func fakeClock() func() time.Time {
	now := testEpoch
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath, WithClock(fakeClock()))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newEntry(id, url, title string, added time.Time) *models.Entry {
	return models.NewEntry(id, url, title, added)
}

func strPtr(s string) *string { return &s }

func TestNewSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}

	v, err := store.schemaVersion(context.Background())
	if err != nil {
		t.Fatalf("schemaVersion failed: %v", err)
	}
	if v != SchemaVersion {
		t.Errorf("expected schema version %d, got %d", SchemaVersion, v)
	}
}

func TestEntryCRUD(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	entry := newEntry("a1", "https://www.Example.com/post", "First Post", testEpoch)
	id, err := store.Add(ctx, entry)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if id != "a1" {
		t.Errorf("expected id a1, got %q", id)
	}

	got, err := store.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected entry, got nil")
	}
	if got.Title != "First Post" {
		t.Errorf("Title mismatch: got %q", got.Title)
	}
	if got.Domain != "example.com" {
		t.Errorf("Domain mismatch: got %q", got.Domain)
	}
	if !got.AddTime.Equal(testEpoch) {
		t.Errorf("AddTime mismatch: got %v", got.AddTime)
	}
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Errorf("expected empty non-nil tags, got %#v", got.Tags)
	}

	byURL, err := store.GetByURL(ctx, "https://www.Example.com/post")
	if err != nil {
		t.Fatalf("GetByURL failed: %v", err)
	}
	if byURL == nil || byURL.ID != "a1" {
		t.Errorf("GetByURL returned %+v", byURL)
	}

	exists, err := store.Exists(ctx, "a1")
	if err != nil || !exists {
		t.Errorf("Exists(a1) = %v, %v", exists, err)
	}

	updated, err := store.Update(ctx, "a1", models.Patch{Title: strPtr("Renamed")})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated == nil || updated.Title != "Renamed" {
		t.Fatalf("Update returned %+v", updated)
	}
	if !updated.LastUpdateTime.After(testEpoch) {
		t.Errorf("expected LastUpdateTime to advance, got %v", updated.LastUpdateTime)
	}

	if err := store.Delete(ctx, "a1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	got, err = store.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("Get after delete failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil after delete, got %+v", got)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestAddDuplicate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.Add(ctx, newEntry("dup", "https://a.com", "A", testEpoch)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	_, err := store.Add(ctx, newEntry("dup", "https://b.com", "B", testEpoch))
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	got, _ := store.Get(ctx, "dup")
	if got.Title != "A" {
		t.Errorf("duplicate add overwrote entry: %q", got.Title)
	}
}

func TestBulkAddIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.Add(ctx, newEntry("x", "https://x.com", "X", testEpoch)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	err := store.BulkAdd(ctx, []*models.Entry{
		newEntry("y", "https://y.com", "Y", testEpoch),
		newEntry("x", "https://x.com", "X again", testEpoch),
	})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected rollback to leave 1 entry, got %d", count)
	}
}

func TestUpdateMissingIsNoop(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	got, err := store.Update(ctx, "nope", models.Patch{Title: strPtr("x")})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
	count, _ := store.Count(ctx)
	if count != 0 {
		t.Errorf("update must not create entries, got %d", count)
	}
}

func TestUpdateReadStatusAndTags(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.Add(ctx, newEntry("r1", "https://a.com", "A", testEpoch)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	read := true
	tags := []string{"go", " db ", "go"}
	got, err := store.Update(ctx, "r1", models.Patch{IsRead: &read, Tags: &tags})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !got.IsRead || got.LastReadTime == nil {
		t.Errorf("expected read with LastReadTime, got %+v", got)
	}

	reloaded, err := store.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(reloaded.Tags) != 2 || reloaded.Tags[0] != "db" || reloaded.Tags[1] != "go" {
		t.Errorf("expected [db go], got %v", reloaded.Tags)
	}
	if reloaded.LastReadTime == nil {
		t.Error("LastReadTime was not persisted")
	}

	unread := false
	got, err = store.Update(ctx, "r1", models.Patch{IsRead: &unread})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.IsRead || got.LastReadTime != nil {
		t.Errorf("expected unread without LastReadTime, got %+v", got)
	}
}

func TestPutKeepsPosition(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, id := range []string{"p1", "p2", "p3"} {
		if _, err := store.Add(ctx, newEntry(id, "https://"+id+".com", id, testEpoch)); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	replaced := newEntry("p1", "https://p1.com/new", "Replaced", testEpoch)
	if err := store.Put(ctx, replaced); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	all, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != "p1" || all[0].Title != "Replaced" {
		t.Errorf("unexpected order after Put: %+v", all)
	}
}

func TestBulkDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	err := store.BulkAdd(ctx, []*models.Entry{
		newEntry("d1", "https://a.com", "A", testEpoch),
		newEntry("d2", "https://b.com", "B", testEpoch),
		newEntry("d3", "https://c.com", "C", testEpoch),
	})
	if err != nil {
		t.Fatalf("BulkAdd failed: %v", err)
	}

	if err := store.BulkDelete(ctx, []string{"d1", "d3", "missing"}); err != nil {
		t.Fatalf("BulkDelete failed: %v", err)
	}
	all, _ := store.All(ctx)
	if len(all) != 1 || all[0].ID != "d2" {
		t.Errorf("expected only d2, got %+v", all)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	count, _ := store.Count(ctx)
	if count != 0 {
		t.Errorf("expected empty store, got %d", count)
	}
}

func TestQuery(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	a := newEntry("q1", "https://go.dev/blog", "Go Generics", testEpoch)
	b := newEntry("q2", "https://news.ycombinator.com/item", "Hacker News", testEpoch.Add(time.Hour))
	c := newEntry("q3", "https://go.dev/doc", "Effective Go", testEpoch.Add(2*time.Hour))
	c.Content = strPtr("a guide to writing clear idiomatic code")
	c.Tags = []string{"go"}
	if err := store.BulkAdd(ctx, []*models.Entry{a, b, c}); err != nil {
		t.Fatalf("BulkAdd failed: %v", err)
	}
	read := true
	if _, err := store.Update(ctx, "q2", models.Patch{IsRead: &read}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	tests := []struct {
		name   string
		filter Filter
		sort   Sort
		want   []string
	}{
		{"all default sort", Filter{}, DefaultSort, []string{"q3", "q2", "q1"}},
		{"unread", Filter{Read: UnreadOnly}, Sort{Field: SortAddTime}, []string{"q1", "q3"}},
		{"read", Filter{Read: ReadOnly}, DefaultSort, []string{"q2"}},
		{"domain", Filter{Domain: "go.dev"}, Sort{Field: SortTitle}, []string{"q3", "q1"}},
		{"tag", Filter{Tags: []string{"go", "rust"}}, DefaultSort, []string{"q3"}},
		{"search content", Filter{Search: "IDIOMATIC"}, DefaultSort, []string{"q3"}},
		{"search title", Filter{Search: "hacker"}, DefaultSort, []string{"q2"}},
		{"date range", Filter{AddedFrom: timePtr(testEpoch.Add(time.Hour)), AddedTo: timePtr(testEpoch.Add(time.Hour))}, DefaultSort, []string{"q2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Query(ctx, tt.filter, tt.sort)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if ids := entryIDs(got); !equalStrings(ids, tt.want) {
				t.Errorf("got %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalEntries != 0 || stats.TotalStorageUsed != 0 {
		t.Errorf("expected empty stats, got %+v", stats)
	}

	a := newEntry("s1", "https://a.com/1", "A", testEpoch)
	a.Content = strPtr("abcd")
	b := newEntry("s2", "https://a.com/2", "B", testEpoch.Add(time.Hour))
	b.Content = strPtr("ab")
	c := newEntry("s3", "https://b.com/1", "C", testEpoch.Add(2*time.Hour))
	if err := store.BulkAdd(ctx, []*models.Entry{a, b, c}); err != nil {
		t.Fatalf("BulkAdd failed: %v", err)
	}
	read := true
	if _, err := store.Update(ctx, "s1", models.Patch{IsRead: &read}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	stats, err = store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalEntries != 3 || stats.ReadEntries != 1 || stats.UnreadEntries != 2 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	if stats.AverageContentLength != 3 {
		t.Errorf("expected average content length 3, got %d", stats.AverageContentLength)
	}
	if !stats.OldestEntryDate.Equal(testEpoch) || !stats.NewestEntryDate.Equal(testEpoch.Add(2*time.Hour)) {
		t.Errorf("unexpected date range: %v - %v", stats.OldestEntryDate, stats.NewestEntryDate)
	}
	if stats.TotalStorageUsed <= 0 {
		t.Errorf("expected positive storage, got %d", stats.TotalStorageUsed)
	}

	domains, err := store.DomainStats(ctx)
	if err != nil {
		t.Fatalf("DomainStats failed: %v", err)
	}
	if len(domains) != 2 || domains[0] != (KeyCount{Key: "a.com", Count: 2}) {
		t.Errorf("unexpected domain stats: %+v", domains)
	}
}

func TestCompact(t *testing.T) {
	store := newTestStore(t)
	if err := store.Compact(context.Background()); err != nil {
		t.Fatalf("Compact failed: %v", err)
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func entryIDs(entries []*models.Entry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
