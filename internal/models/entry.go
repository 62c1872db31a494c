// ABOUTME: Entry model representing a reading-list item plus local enrichment
// ABOUTME: Provides read-state transitions and tag normalisation helpers

package models

import (
	"sort"
	"strings"
	"time"
)

// Entry is a single reading-list item mirrored from the external source,
// together with metadata derived locally (domain, tags, extracted content).
type Entry struct {
	ID             string
	URL            string
	Title          string
	AddTime        time.Time
	LastUpdateTime time.Time
	IsRead         bool
	LastReadTime   *time.Time

	// Domain is derived from URL and is "" when the URL cannot be parsed.
	Domain           string
	ContentExtracted bool

	Content     *string
	Excerpt     *string
	ImageURL    *string
	SiteName    *string
	Author      *string
	PublishDate *string

	Tags []string
}

// NewEntry creates an unread entry for the given id, url and title.
// AddTime and LastUpdateTime are both set to now.
func NewEntry(id, url, title string, now time.Time) *Entry {
	now = now.Truncate(time.Millisecond)
	return &Entry{
		ID:             id,
		URL:            url,
		Title:          title,
		AddTime:        now,
		LastUpdateTime: now,
		Domain:         DomainFromURL(url),
		Tags:           []string{},
	}
}

// MarkRead marks the entry as read. LastReadTime is only set on the
// unread -> read transition, so re-marking keeps the original read time.
func (e *Entry) MarkRead(now time.Time) {
	if !e.IsRead || e.LastReadTime == nil {
		t := now.Truncate(time.Millisecond)
		e.LastReadTime = &t
	}
	e.IsRead = true
}

// MarkUnread marks the entry as unread and clears LastReadTime.
func (e *Entry) MarkUnread() {
	e.IsRead = false
	e.LastReadTime = nil
}

// Touch advances LastUpdateTime to now, never moving it backwards.
func (e *Entry) Touch(now time.Time) {
	now = now.Truncate(time.Millisecond)
	if now.After(e.LastUpdateTime) {
		e.LastUpdateTime = now
	}
}

// HasContent reports whether extracted content is present and non-empty.
func (e *Entry) HasContent() bool {
	return e.Content != nil && *e.Content != ""
}

// HasTag reports whether the entry carries tag.
func (e *Entry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	c := *e
	c.LastReadTime = cloneTime(e.LastReadTime)
	c.Content = cloneString(e.Content)
	c.Excerpt = cloneString(e.Excerpt)
	c.ImageURL = cloneString(e.ImageURL)
	c.SiteName = cloneString(e.SiteName)
	c.Author = cloneString(e.Author)
	c.PublishDate = cloneString(e.PublishDate)
	c.Tags = append([]string{}, e.Tags...)
	return &c
}

// NormalizeTags trims, drops empties and removes duplicates. Tags are a set,
// so the result is sorted to make stored values comparable.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
