// ABOUTME: Tests for the persisted record layout and Backfill upgrade
// ABOUTME: Checks defaults, no-clobber behaviour and size accounting

package storage

import (
	"testing"
)

func int64Ptr(v int64) *int64 { return &v }
func boolPtr(v bool) *bool    { return &v }

func TestBackfillFillsMissingFields(t *testing.T) {
	r := &Record{
		ID:             "1",
		URL:            "https://www.example.com/a",
		AddTime:        100,
		LastUpdateTime: int64Ptr(300),
		IsRead:         true,
		Content:        strPtr("text"),
	}

	if !Backfill(r) {
		t.Fatal("expected Backfill to report a change")
	}
	if r.Domain == nil || *r.Domain != "example.com" {
		t.Errorf("domain = %v", r.Domain)
	}
	if r.ContentExtracted == nil || !*r.ContentExtracted {
		t.Errorf("contentExtracted = %v", r.ContentExtracted)
	}
	if r.LastReadTime == nil || *r.LastReadTime != 300 {
		t.Errorf("lastReadTime = %v", r.LastReadTime)
	}
	if r.Tags == nil {
		t.Error("tags should be an empty slice")
	}

	if Backfill(r) {
		t.Error("second Backfill should be a no-op")
	}
}

func TestBackfillDoesNotClobber(t *testing.T) {
	r := &Record{
		ID:               "1",
		URL:              "https://example.com",
		AddTime:          100,
		IsRead:           true,
		Domain:           strPtr("custom.example"),
		ContentExtracted: boolPtr(false),
		LastReadTime:     int64Ptr(42),
		Tags:             []string{"keep"},
		Content:          strPtr("text"),
	}

	if Backfill(r) {
		t.Error("expected no change")
	}
	if *r.Domain != "custom.example" || *r.ContentExtracted || *r.LastReadTime != 42 || r.Tags[0] != "keep" {
		t.Errorf("values were clobbered: %+v", r)
	}
}

func TestBackfillReadTimeFallsBackToAddTime(t *testing.T) {
	r := &Record{ID: "1", URL: "https://example.com", AddTime: 100, IsRead: true}
	Backfill(r)
	if r.LastReadTime == nil || *r.LastReadTime != 100 {
		t.Errorf("lastReadTime = %v", r.LastReadTime)
	}
}

func TestBackfillUnreadHasNoReadTime(t *testing.T) {
	r := &Record{ID: "1", URL: "https://example.com", AddTime: 100}
	Backfill(r)
	if r.LastReadTime != nil {
		t.Errorf("expected nil lastReadTime, got %v", *r.LastReadTime)
	}
}

func TestRecordRoundTripKeepsEnrichment(t *testing.T) {
	e := newEntry("1", "https://example.com/x", "X", testEpoch)
	e.Tags = []string{"b", "a"}
	e.Author = strPtr("Ada")
	e.MarkRead(testEpoch)

	got := RecordFromEntry(e).Entry()
	if got.Author == nil || *got.Author != "Ada" {
		t.Errorf("author lost: %v", got.Author)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "a" {
		t.Errorf("tags = %v", got.Tags)
	}
	if got.LastReadTime == nil || !got.LastReadTime.Equal(testEpoch) {
		t.Errorf("lastReadTime = %v", got.LastReadTime)
	}
}

func TestUTF16Len(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abc", 3},
		{"é", 1},
		{"😀", 2},
	}
	for _, tt := range tests {
		if got := UTF16Len(tt.in); got != tt.want {
			t.Errorf("UTF16Len(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSerializedSizeIsTwiceJSONLength(t *testing.T) {
	r := &Record{ID: "a", URL: "u", Title: "t", AddTime: 1}
	// {"id":"a","url":"u","title":"t","addTime":1,"isRead":false}
	want := int64(len(`{"id":"a","url":"u","title":"t","addTime":1,"isRead":false}`) * 2)
	if got := SerializedSize(r); got != want {
		t.Errorf("SerializedSize = %d, want %d", got, want)
	}
}
