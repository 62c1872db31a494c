// ABOUTME: Tests for the entry access facade
// ABOUTME: Covers write-through ordering, divergence, notifications and enrichment

package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/harper/readlist/internal/extract"
	"github.com/harper/readlist/internal/models"
	"github.com/harper/readlist/internal/readinglist"
	"github.com/harper/readlist/internal/storage"
)

var epoch = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func clock() func() time.Time {
	t := epoch
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), storage.WithClock(clock()))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// quietSource hides every method but the Source ones, so the service sees
// a source without notifications or import.
type quietSource struct {
	readinglist.Source
}

type fakeExtractor struct {
	result extract.Result
	calls  []string
}

func (f *fakeExtractor) Extract(_ context.Context, url string) extract.Result {
	f.calls = append(f.calls, url)
	return f.result
}

func count(t *testing.T, store storage.Store) int {
	t.Helper()
	n, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	return n
}

func TestAddEntryStoresUnderSourceID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	src := readinglist.NewMemorySource(nil)
	svc := New(store, src, Options{Now: clock()})

	entry, err := svc.AddEntry(ctx, "https://example.com/a", "A")
	if err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}

	remote, _ := src.List(ctx)
	if len(remote) != 1 || remote[0].ID != entry.ID {
		t.Fatalf("source has %+v, want id %s", remote, entry.ID)
	}
	if got := count(t, store); got != 1 {
		t.Fatalf("expected 1 stored entry, got %d", got)
	}
	stored, _ := store.Get(ctx, entry.ID)
	if stored == nil || stored.IsRead || stored.Title != "A" || stored.Domain != "example.com" {
		t.Fatalf("unexpected stored entry: %+v", stored)
	}
}

func TestAddEntryWithoutNotifications(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	src := readinglist.NewMemorySource(nil)
	svc := New(store, quietSource{src}, Options{Now: clock()})

	entry, err := svc.AddEntry(ctx, "https://example.com/b", "")
	if err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}
	if entry.Title != "https://example.com/b" {
		t.Errorf("expected url as title, got %q", entry.Title)
	}
	if !entry.AddTime.Equal(epoch.Add(time.Second)) {
		t.Errorf("expected add time from service clock, got %v", entry.AddTime)
	}
	if got := count(t, store); got != 1 {
		t.Fatalf("expected 1 stored entry, got %d", got)
	}
}

func TestAddEntrySourceFailureStoresNothing(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	src := readinglist.NewMemorySource(nil)
	src.Fail(readinglist.OpAdd, errors.New("offline"))
	svc := New(store, src, Options{})

	entry, err := svc.AddEntry(ctx, "https://example.com/a", "A")
	if !errors.Is(err, readinglist.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if entry != nil {
		t.Errorf("expected no entry, got %+v", entry)
	}
	if got := count(t, store); got != 0 {
		t.Errorf("expected empty store, got %d entries", got)
	}
}

func TestAddEntryRequiresURL(t *testing.T) {
	svc := New(newTestStore(t), readinglist.NewMemorySource(nil), Options{})
	if _, err := svc.AddEntry(context.Background(), "  ", "title"); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestUpdateEntryRenamesInSource(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	src := readinglist.NewMemorySource(nil)
	svc := New(store, src, Options{})

	entry, err := svc.AddEntry(ctx, "https://example.com/a", "A")
	if err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}

	title := "Renamed"
	updated, err := svc.UpdateEntry(ctx, entry.ID, models.Patch{Title: &title})
	if err != nil {
		t.Fatalf("UpdateEntry failed: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Errorf("expected local title Renamed, got %q", updated.Title)
	}
	remote, _ := src.List(ctx)
	if remote[0].Title != "Renamed" {
		t.Errorf("expected source title Renamed, got %q", remote[0].Title)
	}
}

func TestUpdateEntryReportsDivergence(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	src := readinglist.NewMemorySource(nil)
	svc := New(store, src, Options{})

	entry, err := svc.AddEntry(ctx, "https://example.com/a", "A")
	if err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}
	src.Fail(readinglist.OpRename, errors.New("offline"))

	url := "https://other.example.org/a"
	updated, err := svc.UpdateEntry(ctx, entry.ID, models.Patch{URL: &url})

	var divergence *DivergenceError
	if !errors.As(err, &divergence) || divergence.ID != entry.ID {
		t.Fatalf("expected DivergenceError for %s, got %v", entry.ID, err)
	}
	if !errors.Is(err, readinglist.ErrUnavailable) {
		t.Errorf("expected divergence to wrap ErrUnavailable")
	}
	if updated == nil || updated.URL != url || updated.Domain != "other.example.org" {
		t.Fatalf("expected local update to stick, got %+v", updated)
	}
	remote, _ := src.List(ctx)
	if remote[0].URL != "https://example.com/a" {
		t.Errorf("source should keep the old url, got %q", remote[0].URL)
	}
}

func TestUpdateEntryMissingIsNoop(t *testing.T) {
	src := readinglist.NewMemorySource(nil)
	svc := New(newTestStore(t), src, Options{})

	title := "x"
	got, err := svc.UpdateEntry(context.Background(), "nope", models.Patch{Title: &title})
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil; got %+v, %v", got, err)
	}
	if src.Calls(readinglist.OpRename) != 0 {
		t.Error("rename should not be attempted for an absent entry")
	}
}

func TestUpdateReadStatusIsLocalOnly(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	src := readinglist.NewMemorySource(nil)
	svc := New(store, quietSource{src}, Options{Now: func() time.Time { return epoch }})

	entry, err := svc.AddEntry(ctx, "https://example.com/a", "A")
	if err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}
	src.Fail(readinglist.OpRename, errors.New("offline"))

	read, err := svc.UpdateReadStatus(ctx, entry.ID, true)
	if err != nil {
		t.Fatalf("UpdateReadStatus failed: %v", err)
	}
	if !read.IsRead || read.LastReadTime == nil {
		t.Fatalf("expected read entry with read time, got %+v", read)
	}
	if !read.LastUpdateTime.After(entry.LastUpdateTime) {
		t.Errorf("expected lastUpdateTime to advance")
	}

	unread, err := svc.UpdateReadStatus(ctx, entry.ID, false)
	if err != nil {
		t.Fatalf("UpdateReadStatus failed: %v", err)
	}
	if unread.IsRead || unread.LastReadTime != nil {
		t.Errorf("expected unread entry without read time, got %+v", unread)
	}
	if src.Calls(readinglist.OpRename) != 0 {
		t.Errorf("read status must not reach the source")
	}
}

func TestUpdateTagsReplacesSet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := New(store, quietSource{readinglist.NewMemorySource(nil)}, Options{})

	entry, _ := svc.AddEntry(ctx, "https://example.com/a", "A")
	if _, err := svc.UpdateTags(ctx, entry.ID, []string{"go", "db"}); err != nil {
		t.Fatalf("UpdateTags failed: %v", err)
	}
	got, err := svc.UpdateTags(ctx, entry.ID, []string{"later"})
	if err != nil {
		t.Fatalf("UpdateTags failed: %v", err)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "later" {
		t.Errorf("expected tags [later], got %v", got.Tags)
	}

	cleared, err := svc.UpdateTags(ctx, entry.ID, nil)
	if err != nil {
		t.Fatalf("UpdateTags failed: %v", err)
	}
	if len(cleared.Tags) != 0 {
		t.Errorf("expected no tags, got %v", cleared.Tags)
	}
}

func TestDeleteEntry(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	src := readinglist.NewMemorySource(nil)
	svc := New(store, src, Options{})

	entry, _ := svc.AddEntry(ctx, "https://example.com/a", "A")
	if err := svc.DeleteEntry(ctx, entry.ID); err != nil {
		t.Fatalf("DeleteEntry failed: %v", err)
	}
	if got := count(t, store); got != 0 {
		t.Errorf("expected empty store, got %d", got)
	}
	remote, _ := src.List(ctx)
	if len(remote) != 0 {
		t.Errorf("expected empty source, got %+v", remote)
	}
}

func TestDeleteEntrySourceFailureKeepsLocal(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	src := readinglist.NewMemorySource(nil)
	svc := New(store, src, Options{})

	entry, _ := svc.AddEntry(ctx, "https://example.com/a", "A")
	src.Fail(readinglist.OpRemove, errors.New("offline"))

	err := svc.DeleteEntry(ctx, entry.ID)
	if !errors.Is(err, readinglist.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if got, _ := store.Get(ctx, entry.ID); got == nil {
		t.Error("local entry should survive a failed removal")
	}
}

func TestHandleEntryAddedKeepsLocalState(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := New(store, quietSource{readinglist.NewMemorySource(nil)}, Options{})

	existing := models.NewEntry("e1", "https://example.com/a", "Old", epoch)
	content := "# Body"
	existing.Content = &content
	existing.ContentExtracted = true
	existing.MarkRead(epoch)
	if err := store.Put(ctx, existing); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	err := svc.HandleEntryAdded(ctx, readinglist.RemoteEntry{
		ID: "e1", URL: "https://example.com/a", Title: "New", AddTime: epoch,
	})
	if err != nil {
		t.Fatalf("HandleEntryAdded failed: %v", err)
	}

	got, _ := store.Get(ctx, "e1")
	if got.Title != "New" {
		t.Errorf("expected title New, got %q", got.Title)
	}
	if !got.IsRead || !got.ContentExtracted || got.Content == nil {
		t.Errorf("local state was clobbered: %+v", got)
	}
}

func TestHandleEntryAddedStoresNewUnread(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := New(store, quietSource{readinglist.NewMemorySource(nil)}, Options{})

	updated := epoch.Add(time.Hour)
	err := svc.HandleEntryAdded(ctx, readinglist.RemoteEntry{
		ID: "n1", URL: "https://example.com/n", Title: "N", AddTime: epoch, LastUpdateTime: &updated,
	})
	if err != nil {
		t.Fatalf("HandleEntryAdded failed: %v", err)
	}
	got, _ := store.Get(ctx, "n1")
	if got == nil || got.IsRead || !got.AddTime.Equal(epoch) || !got.LastUpdateTime.Equal(updated) {
		t.Fatalf("unexpected entry: %+v", got)
	}
}

func TestHandleEntryUpdatedIgnoresUnknown(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := New(store, quietSource{readinglist.NewMemorySource(nil)}, Options{})

	err := svc.HandleEntryUpdated(ctx, readinglist.RemoteEntry{ID: "ghost", URL: "https://x.com", Title: "X"})
	if err != nil {
		t.Fatalf("HandleEntryUpdated failed: %v", err)
	}
	if got := count(t, store); got != 0 {
		t.Errorf("unknown id must not be inserted, got %d entries", got)
	}
}

func TestSourceNotificationsReachStore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	src := readinglist.NewMemorySource(nil)
	svc := New(store, src, Options{})

	id, err := src.Add(ctx, "https://example.com/a", "A")
	if err != nil {
		t.Fatalf("source Add failed: %v", err)
	}
	if got, _ := svc.GetEntry(ctx, id); got == nil {
		t.Fatal("added notification was not mirrored")
	}

	title := "B"
	if err := src.Rename(ctx, id, readinglist.Rename{Title: &title}); err != nil {
		t.Fatalf("source Rename failed: %v", err)
	}
	if got, _ := svc.GetEntry(ctx, id); got.Title != "B" {
		t.Errorf("updated notification was not mirrored, title %q", got.Title)
	}

	if err := src.Remove(ctx, id); err != nil {
		t.Fatalf("source Remove failed: %v", err)
	}
	if got, _ := svc.GetEntry(ctx, id); got != nil {
		t.Error("removed notification was not mirrored")
	}
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := New(store, quietSource{readinglist.NewMemorySource(nil)}, Options{})

	entries := []*models.Entry{
		models.NewEntry("1", "https://a.com/1", "One", epoch.Add(100*time.Millisecond)),
		models.NewEntry("2", "https://a.com/2", "Two", epoch.Add(200*time.Millisecond)),
		models.NewEntry("3", "https://b.com/3", "Three", epoch.Add(300*time.Millisecond)),
	}
	entries[1].MarkRead(epoch)
	if err := store.BulkAdd(ctx, entries); err != nil {
		t.Fatalf("BulkAdd failed: %v", err)
	}

	all, err := svc.GetAllEntries(ctx)
	if err != nil {
		t.Fatalf("GetAllEntries failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != "3" || all[2].ID != "1" {
		t.Errorf("expected newest first, got %v", ids(all))
	}

	unread, err := svc.GetFilteredEntries(ctx, storage.Filter{Read: storage.UnreadOnly},
		storage.Sort{Field: storage.SortAddTime})
	if err != nil {
		t.Fatalf("GetFilteredEntries failed: %v", err)
	}
	if got := ids(unread); len(got) != 2 || got[0] != "1" || got[1] != "3" {
		t.Errorf("expected [1 3], got %v", got)
	}

	stats, err := svc.GetDatabaseStats(ctx)
	if err != nil {
		t.Fatalf("GetDatabaseStats failed: %v", err)
	}
	if stats.TotalEntries != 3 || stats.ReadEntries != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	domains, err := svc.GetDomainStats(ctx)
	if err != nil {
		t.Fatalf("GetDomainStats failed: %v", err)
	}
	if len(domains) != 2 || domains[0] != (storage.KeyCount{Key: "a.com", Count: 2}) {
		t.Errorf("unexpected domain stats: %+v", domains)
	}

	tags, err := svc.GetTagStats(ctx)
	if err != nil || len(tags) != 0 {
		t.Errorf("expected no tag stats, got %+v, %v", tags, err)
	}
}

func ids(entries []*models.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestEnrichEntry(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	fx := &fakeExtractor{result: extract.Result{
		Title:    "Extracted Title",
		Content:  "Article body",
		Excerpt:  "Article",
		SiteName: "Example",
		Author:   "Jo",
	}}
	svc := New(store, quietSource{readinglist.NewMemorySource(nil)}, Options{Extractor: fx})

	if _, err := store.Add(ctx, models.NewEntry("e1", "https://example.com/a", "Own Title", epoch)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err := svc.EnrichEntry(ctx, "e1")
	if err != nil {
		t.Fatalf("EnrichEntry failed: %v", err)
	}
	if got.Title != "Own Title" {
		t.Errorf("existing title must be kept, got %q", got.Title)
	}
	if !got.ContentExtracted || got.Content == nil || *got.Content != "Article body" {
		t.Errorf("content not stored: %+v", got)
	}
	if got.SiteName == nil || *got.SiteName != "Example" || got.ImageURL != nil {
		t.Errorf("unexpected enrichment fields: %+v", got)
	}
	if len(fx.calls) != 1 || fx.calls[0] != "https://example.com/a" {
		t.Errorf("unexpected extractor calls: %v", fx.calls)
	}
}

func TestEnrichEntryFillsEmptyTitle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	src := readinglist.NewMemorySource(nil, readinglist.RemoteEntry{ID: "e1", URL: "https://example.com/a", AddTime: epoch})
	fx := &fakeExtractor{result: extract.Result{Title: "Found", Content: "Body"}}
	svc := New(store, src, Options{Extractor: fx})

	if _, err := store.Add(ctx, models.NewEntry("e1", "https://example.com/a", "", epoch)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err := svc.EnrichEntry(ctx, "e1")
	if err != nil {
		t.Fatalf("EnrichEntry failed: %v", err)
	}
	if got.Title != "Found" {
		t.Errorf("expected title Found, got %q", got.Title)
	}
	remote, _ := src.List(ctx)
	if remote[0].Title != "Found" {
		t.Errorf("expected source title Found, got %q", remote[0].Title)
	}
}

func TestEnrichEntryMissing(t *testing.T) {
	svc := New(newTestStore(t), quietSource{readinglist.NewMemorySource(nil)}, Options{Extractor: &fakeExtractor{}})
	_, err := svc.EnrichEntry(context.Background(), "nope")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEnrichWithoutExtractor(t *testing.T) {
	svc := New(newTestStore(t), quietSource{readinglist.NewMemorySource(nil)}, Options{})
	if _, err := svc.EnrichPending(context.Background(), 0); !errors.Is(err, ErrNoExtractor) {
		t.Fatalf("expected ErrNoExtractor, got %v", err)
	}
}

func TestEnrichPending(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	fx := &fakeExtractor{result: extract.Result{Content: "Body"}}
	svc := New(store, quietSource{readinglist.NewMemorySource(nil)}, Options{Extractor: fx})

	done := models.NewEntry("done", "https://example.com/done", "Done", epoch)
	body := "Already"
	done.Content = &body
	done.ContentExtracted = true
	entries := []*models.Entry{
		done,
		models.NewEntry("old", "https://example.com/old", "Old", epoch.Add(time.Minute)),
		models.NewEntry("new", "https://example.com/new", "New", epoch.Add(time.Hour)),
	}
	if err := store.BulkAdd(ctx, entries); err != nil {
		t.Fatalf("BulkAdd failed: %v", err)
	}

	n, err := svc.EnrichPending(ctx, 1)
	if err != nil {
		t.Fatalf("EnrichPending failed: %v", err)
	}
	if n != 1 || len(fx.calls) != 1 || fx.calls[0] != "https://example.com/new" {
		t.Fatalf("expected newest pending entry only, got n=%d calls=%v", n, fx.calls)
	}

	n, err = svc.EnrichPending(ctx, 0)
	if err != nil {
		t.Fatalf("EnrichPending failed: %v", err)
	}
	if n != 1 || len(fx.calls) != 2 {
		t.Errorf("expected the remaining entry to be enriched, got n=%d calls=%v", n, fx.calls)
	}
}

func TestImportSample(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	src := readinglist.NewMemorySource(nil)
	svc := New(store, src, Options{Now: clock()})

	added, err := svc.ImportSample(ctx)
	if err != nil {
		t.Fatalf("ImportSample failed: %v", err)
	}
	if added != 5 || count(t, store) != 5 {
		t.Fatalf("expected 5 sample entries, added %d", added)
	}
	remote, _ := src.List(ctx)
	if len(remote) != 5 {
		t.Errorf("expected 5 source entries, got %d", len(remote))
	}

	again, err := svc.ImportSample(ctx)
	if err != nil || again != 0 {
		t.Errorf("second import should add nothing, got %d, %v", again, err)
	}
}

func TestImportSampleUnsupported(t *testing.T) {
	svc := New(newTestStore(t), quietSource{readinglist.NewMemorySource(nil)}, Options{})
	if _, err := svc.ImportSample(context.Background()); !errors.Is(err, ErrImportUnsupported) {
		t.Fatalf("expected ErrImportUnsupported, got %v", err)
	}
}

func TestFindEntry(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := New(store, quietSource{readinglist.NewMemorySource(nil)}, Options{})

	for _, id := range []string{"abcd1234", "abcd5678", "ffff0000"} {
		if _, err := store.Add(ctx, models.NewEntry(id, "https://example.com/"+id, id, epoch)); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	tests := []struct {
		input   string
		want    string
		wantErr error
	}{
		{"abcd1234", "abcd1234", nil},
		{"ffff", "ffff0000", nil},
		{"abcd5", "abcd5678", nil},
		{"abcd", "", ErrAmbiguousID},
		{"abc", "", storage.ErrNotFound},
		{"9999", "", storage.ErrNotFound},
		{"", "", storage.ErrNotFound},
	}
	for _, tt := range tests {
		got, err := svc.FindEntry(ctx, tt.input)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("FindEntry(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			continue
		}
		if err != nil || got.ID != tt.want {
			t.Errorf("FindEntry(%q) = %v, %v; want %s", tt.input, got, err, tt.want)
		}
	}
}
