// ABOUTME: Persisted entry layout shared by every backend, plus schema upgrades
// ABOUTME: Backfill brings legacy records to the current schema without clobbering

package storage

import (
	"encoding/json"
	"time"
	"unicode/utf16"

	"github.com/harper/readlist/internal/models"
)

// SchemaVersion is the current on-disk schema version. Each bump is paired
// with exactly one entry in the backend migration tables.
const SchemaVersion = 2

// Record is the persisted form of an entry. Timestamps are epoch
// milliseconds. Fields introduced by schema version 2 are pointers so that
// "absent" can be told apart from a stored zero value.
type Record struct {
	ID             string `json:"id"`
	URL            string `json:"url"`
	Title          string `json:"title"`
	AddTime        int64  `json:"addTime"`
	LastUpdateTime *int64 `json:"lastUpdateTime,omitempty"`
	IsRead         bool   `json:"isRead"`

	Content     *string `json:"content,omitempty"`
	Excerpt     *string `json:"excerpt,omitempty"`
	ImageURL    *string `json:"imageUrl,omitempty"`
	SiteName    *string `json:"siteName,omitempty"`
	Author      *string `json:"author,omitempty"`
	PublishDate *string `json:"publishDate,omitempty"`

	// Schema version 2
	Domain           *string  `json:"domain,omitempty"`
	ContentExtracted *bool    `json:"contentExtracted,omitempty"`
	LastReadTime     *int64   `json:"lastReadTime,omitempty"`
	Tags             []string `json:"tags,omitempty"`
}

// Backfill upgrades a record to schema version 2. Only missing values are
// filled in, so it is a no-op on an already upgraded record. It reports
// whether anything changed.
func Backfill(r *Record) bool {
	changed := false

	if r.Domain == nil || (*r.Domain == "" && r.URL != "") {
		d := models.DomainFromURL(r.URL)
		if r.Domain == nil || *r.Domain != d {
			r.Domain = &d
			changed = true
		}
	}

	if r.ContentExtracted == nil {
		extracted := r.Content != nil && *r.Content != ""
		r.ContentExtracted = &extracted
		changed = true
	}

	if r.LastReadTime == nil && r.IsRead {
		readAt := r.AddTime
		if r.LastUpdateTime != nil && *r.LastUpdateTime != 0 {
			readAt = *r.LastUpdateTime
		}
		r.LastReadTime = &readAt
		changed = true
	}

	if r.Tags == nil {
		r.Tags = []string{}
		changed = true
	}

	return changed
}

// RecordFromEntry converts an entry to its persisted form.
func RecordFromEntry(e *models.Entry) *Record {
	updated := toMillis(e.LastUpdateTime)
	domain := e.Domain
	extracted := e.HasContent()
	tags := models.NormalizeTags(e.Tags)

	r := &Record{
		ID:               e.ID,
		URL:              e.URL,
		Title:            e.Title,
		AddTime:          toMillis(e.AddTime),
		LastUpdateTime:   &updated,
		IsRead:           e.IsRead,
		Content:          e.Content,
		Excerpt:          e.Excerpt,
		ImageURL:         e.ImageURL,
		SiteName:         e.SiteName,
		Author:           e.Author,
		PublishDate:      e.PublishDate,
		Domain:           &domain,
		ContentExtracted: &extracted,
		Tags:             tags,
	}
	if domain == "" {
		d := models.DomainFromURL(e.URL)
		r.Domain = &d
	}
	if e.IsRead && e.LastReadTime != nil {
		readAt := toMillis(*e.LastReadTime)
		r.LastReadTime = &readAt
	}
	return r
}

// Entry converts the record to a model entry. Missing version-2 fields take
// their defaults, so callers always see a fully populated entry.
func (r *Record) Entry() *models.Entry {
	e := &models.Entry{
		ID:          r.ID,
		URL:         r.URL,
		Title:       r.Title,
		AddTime:     fromMillis(r.AddTime),
		IsRead:      r.IsRead,
		Content:     r.Content,
		Excerpt:     r.Excerpt,
		ImageURL:    r.ImageURL,
		SiteName:    r.SiteName,
		Author:      r.Author,
		PublishDate: r.PublishDate,
		Tags:        append([]string{}, r.Tags...),
	}
	e.LastUpdateTime = e.AddTime
	if r.LastUpdateTime != nil {
		e.LastUpdateTime = fromMillis(*r.LastUpdateTime)
	}
	if r.Domain != nil {
		e.Domain = *r.Domain
	} else {
		e.Domain = models.DomainFromURL(r.URL)
	}
	if r.ContentExtracted != nil {
		e.ContentExtracted = *r.ContentExtracted
	} else {
		e.ContentExtracted = e.HasContent()
	}
	if r.LastReadTime != nil && r.IsRead {
		t := fromMillis(*r.LastReadTime)
		e.LastReadTime = &t
	}
	return e
}

// SerializedSize approximates the bytes a record occupies: its JSON form
// measured in UTF-16 code units, two bytes each.
func SerializedSize(r *Record) int64 {
	data, err := json.Marshal(r)
	if err != nil {
		return 0
	}
	return int64(UTF16Len(string(data))) * 2
}

// UTF16Len returns the number of UTF-16 code units needed to encode s.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
