// ABOUTME: Tests for backend-independent filtering, sorting and stats
// ABOUTME: Exercises ordering ties and histogram ordering without a database

package storage

import (
	"testing"
	"time"

	"github.com/harper/readlist/internal/models"
)

func TestSortEntriesTieBreakReverses(t *testing.T) {
	mk := func() []*models.Entry {
		return []*models.Entry{
			newEntry("b", "https://x.com", "Same", testEpoch),
			newEntry("c", "https://x.com", "same", testEpoch),
			newEntry("a", "https://x.com", "SAME", testEpoch),
		}
	}

	asc := mk()
	SortEntries(asc, Sort{Field: SortTitle})
	desc := mk()
	SortEntries(desc, Sort{Field: SortTitle, Descending: true})

	if ids := entryIDs(asc); !equalStrings(ids, []string{"a", "b", "c"}) {
		t.Errorf("ascending = %v", ids)
	}
	if ids := entryIDs(desc); !equalStrings(ids, []string{"c", "b", "a"}) {
		t.Errorf("descending = %v", ids)
	}
}

func TestSortMissingValuesFirstAscending(t *testing.T) {
	read := newEntry("r", "https://x.com", "R", testEpoch)
	read.MarkRead(testEpoch.Add(time.Hour))
	unread := newEntry("u", "https://x.com", "U", testEpoch)

	entries := []*models.Entry{read, unread}
	SortEntries(entries, Sort{Field: SortLastReadTime})
	if ids := entryIDs(entries); !equalStrings(ids, []string{"u", "r"}) {
		t.Errorf("got %v", ids)
	}
}

func TestSortEmptyFieldUsesDefault(t *testing.T) {
	entries := []*models.Entry{
		newEntry("old", "https://x.com", "O", testEpoch),
		newEntry("new", "https://x.com", "N", testEpoch.Add(time.Minute)),
	}
	SortEntries(entries, Sort{})
	if entries[0].ID != "new" {
		t.Errorf("expected newest first, got %v", entryIDs(entries))
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	now := testEpoch
	stats := ComputeStats(nil, now)
	if stats.TotalEntries != 0 || stats.AverageContentLength != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if !stats.OldestEntryDate.Equal(now) || !stats.NewestEntryDate.Equal(now) {
		t.Errorf("expected dates to default to now, got %+v", stats)
	}
}

func TestComputeStatsRoundsAverage(t *testing.T) {
	a := newEntry("a", "https://x.com", "A", testEpoch)
	a.Content = strPtr("ab")
	b := newEntry("b", "https://x.com", "B", testEpoch)
	b.Content = strPtr("a")

	// (2 + 1) / 2 = 1.5 rounds to 2
	stats := ComputeStats([]*models.Entry{a, b}, testEpoch)
	if stats.AverageContentLength != 2 {
		t.Errorf("AverageContentLength = %d, want 2", stats.AverageContentLength)
	}
}

func TestCountKeysOrdering(t *testing.T) {
	entries := []*models.Entry{
		newEntry("1", "https://first.com", "", testEpoch),
		newEntry("2", "https://second.com", "", testEpoch),
		newEntry("3", "https://second.com", "", testEpoch),
		newEntry("4", "https://third.com", "", testEpoch),
		newEntry("5", "bad url", "", testEpoch),
	}

	got := CountKeys(entries, DomainKeys)
	want := []KeyCount{
		{Key: "second.com", Count: 2},
		{Key: "first.com", Count: 1},
		{Key: "third.com", Count: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestCountKeysEmptyIsNonNil(t *testing.T) {
	if got := CountKeys(nil, TagKeys); got == nil {
		t.Error("expected empty non-nil slice")
	}
}

func TestMatchCombinesCriteria(t *testing.T) {
	e := newEntry("1", "https://go.dev/x", "Tour", testEpoch)
	e.Tags = []string{"go"}

	if !Match(Filter{Domain: "go.dev", Tags: []string{"go"}, Read: UnreadOnly}, e) {
		t.Error("expected match")
	}
	if Match(Filter{Domain: "go.dev", Read: ReadOnly}, e) {
		t.Error("read filter should exclude unread entry")
	}
	if Match(Filter{Search: "missing"}, e) {
		t.Error("search should not match")
	}
}
