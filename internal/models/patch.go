// ABOUTME: Patch is the changeset applied to stored entries
// ABOUTME: Lists only patchable fields and keeps derived fields consistent

package models

import "time"

// Patch lists the entry fields that may be changed after creation.
// A nil field means "leave unchanged". ID and AddTime are immutable and
// therefore absent; Domain and ContentExtracted are derived on apply.
type Patch struct {
	Title  *string
	URL    *string
	IsRead *bool
	Tags   *[]string

	Content     *string
	Excerpt     *string
	ImageURL    *string
	SiteName    *string
	Author      *string
	PublishDate *string
}

// TouchesRemote reports whether the patch changes fields that the external
// source also stores (title or url).
func (p Patch) TouchesRemote() bool {
	return p.Title != nil || p.URL != nil
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// ApplyTo merges the patch into e and refreshes LastUpdateTime.
func (p Patch) ApplyTo(e *Entry, now time.Time) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.URL != nil {
		e.URL = *p.URL
		e.Domain = DomainFromURL(e.URL)
	}
	if p.IsRead != nil {
		if *p.IsRead {
			e.MarkRead(now)
		} else {
			e.MarkUnread()
		}
	}
	if p.Tags != nil {
		e.Tags = NormalizeTags(*p.Tags)
	}
	if p.Content != nil {
		e.Content = cloneString(p.Content)
		e.ContentExtracted = e.HasContent()
	}
	if p.Excerpt != nil {
		e.Excerpt = cloneString(p.Excerpt)
	}
	if p.ImageURL != nil {
		e.ImageURL = cloneString(p.ImageURL)
	}
	if p.SiteName != nil {
		e.SiteName = cloneString(p.SiteName)
	}
	if p.Author != nil {
		e.Author = cloneString(p.Author)
	}
	if p.PublishDate != nil {
		e.PublishDate = cloneString(p.PublishDate)
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	e.Touch(now)
}

// Rename returns a patch that retargets an entry to a new title and url.
func Rename(title, url string) Patch {
	return Patch{Title: &title, URL: &url}
}
