// ABOUTME: Backend-independent filtering, sorting and aggregation of entries
// ABOUTME: Shared by the SQLite and Charm stores so both answer queries alike

package storage

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/harper/readlist/internal/models"
)

// Match reports whether entry satisfies every criterion set in filter.
func Match(filter Filter, entry *models.Entry) bool {
	switch filter.Read {
	case ReadOnly:
		if !entry.IsRead {
			return false
		}
	case UnreadOnly:
		if entry.IsRead {
			return false
		}
	}

	if filter.Domain != "" && entry.Domain != filter.Domain {
		return false
	}

	if filter.AddedFrom != nil && entry.AddTime.Before(*filter.AddedFrom) {
		return false
	}
	if filter.AddedTo != nil && entry.AddTime.After(*filter.AddedTo) {
		return false
	}

	if len(filter.Tags) > 0 {
		found := false
		for _, tag := range filter.Tags {
			if entry.HasTag(tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if filter.Search != "" && !matchesSearch(entry, strings.ToLower(filter.Search)) {
		return false
	}

	return true
}

func matchesSearch(entry *models.Entry, term string) bool {
	if strings.Contains(strings.ToLower(entry.Title), term) {
		return true
	}
	for _, field := range []*string{entry.Content, entry.Excerpt, entry.Author, entry.SiteName} {
		if field != nil && strings.Contains(strings.ToLower(*field), term) {
			return true
		}
	}
	return false
}

// FilterEntries returns the entries that satisfy filter, keeping order.
func FilterEntries(entries []*models.Entry, filter Filter) []*models.Entry {
	out := make([]*models.Entry, 0, len(entries))
	for _, e := range entries {
		if Match(filter, e) {
			out = append(out, e)
		}
	}
	return out
}

// SortEntries orders entries in place. Strings compare case-insensitively,
// missing values sort as zero, and ties fall back to id so that ascending
// and descending orders are exact reverses of each other.
func SortEntries(entries []*models.Entry, s Sort) {
	if s.Field == "" {
		s = DefaultSort
	}
	sort.SliceStable(entries, func(i, j int) bool {
		c := compareEntries(entries[i], entries[j], s.Field)
		if c == 0 {
			c = strings.Compare(entries[i].ID, entries[j].ID)
		}
		if s.Descending {
			return c > 0
		}
		return c < 0
	})
}

func compareEntries(a, b *models.Entry, field SortField) int {
	switch field {
	case SortTitle:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case SortLastUpdateTime:
		return compareMillis(toMillis(a.LastUpdateTime), toMillis(b.LastUpdateTime))
	case SortLastReadTime:
		return compareMillis(optMillis(a.LastReadTime), optMillis(b.LastReadTime))
	case SortPublishDate:
		return strings.Compare(strings.ToLower(deref(a.PublishDate)), strings.ToLower(deref(b.PublishDate)))
	default:
		return compareMillis(toMillis(a.AddTime), toMillis(b.AddTime))
	}
}

func compareMillis(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func optMillis(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return toMillis(*t)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ComputeStats aggregates entries. On an empty set the oldest and newest
// dates default to now.
func ComputeStats(entries []*models.Entry, now time.Time) *Stats {
	stats := &Stats{
		TotalEntries:    len(entries),
		OldestEntryDate: now,
		NewestEntryDate: now,
	}

	var contentTotal, withContent int
	for i, e := range entries {
		if e.IsRead {
			stats.ReadEntries++
		}
		if i == 0 || e.AddTime.Before(stats.OldestEntryDate) {
			stats.OldestEntryDate = e.AddTime
		}
		if i == 0 || e.AddTime.After(stats.NewestEntryDate) {
			stats.NewestEntryDate = e.AddTime
		}
		if e.HasContent() {
			contentTotal += UTF16Len(*e.Content)
			withContent++
		}
		stats.TotalStorageUsed += SerializedSize(RecordFromEntry(e))
	}
	stats.UnreadEntries = stats.TotalEntries - stats.ReadEntries

	if withContent > 0 {
		stats.AverageContentLength = int(math.Round(float64(contentTotal) / float64(withContent)))
	}
	return stats
}

// CountKeys builds a histogram over keysOf(entry), sorted by count
// descending. Ties keep the order in which each key was first seen.
func CountKeys(entries []*models.Entry, keysOf func(*models.Entry) []string) []KeyCount {
	index := make(map[string]int)
	var counts []KeyCount
	for _, e := range entries {
		for _, key := range keysOf(e) {
			if key == "" {
				continue
			}
			if i, ok := index[key]; ok {
				counts[i].Count++
				continue
			}
			index[key] = len(counts)
			counts = append(counts, KeyCount{Key: key, Count: 1})
		}
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if counts == nil {
		counts = []KeyCount{}
	}
	return counts
}

// DomainKeys yields an entry's domain for CountKeys.
func DomainKeys(e *models.Entry) []string {
	return []string{e.Domain}
}

// TagKeys yields an entry's tags for CountKeys.
func TagKeys(e *models.Entry) []string {
	return e.Tags
}
