// ABOUTME: In-process reading list used for demos and tests
// ABOUTME: Assigns uuid ids, fires change notifications, and can inject failures

package readinglist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Op names a Source operation for failure injection.
type Op string

const (
	OpList   Op = "list"
	OpAdd    Op = "add"
	OpRemove Op = "remove"
	OpRename Op = "rename"
)

// MemorySource is a Source held in memory. It is safe for concurrent use.
type MemorySource struct {
	*hub

	mu       sync.Mutex
	entries  []RemoteEntry
	failures map[Op]error
	now      func() time.Time
	calls    map[Op]int
}

// NewMemorySource returns a source seeded with entries.
func NewMemorySource(logger *zap.Logger, entries ...RemoteEntry) *MemorySource {
	return &MemorySource{
		hub:      newHub(logger),
		entries:  append([]RemoteEntry(nil), entries...),
		failures: make(map[Op]error),
		calls:    make(map[Op]int),
		now:      time.Now,
	}
}

// SetClock overrides the time source used for new entries.
func (m *MemorySource) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Fail makes every later call to op return err wrapped in ErrUnavailable.
// A nil err clears the failure.
func (m *MemorySource) Fail(op Op, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// Calls returns how many times op has been invoked.
func (m *MemorySource) Calls(op Op) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Set replaces the list without firing notifications.
func (m *MemorySource) Set(entries ...RemoteEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append([]RemoteEntry(nil), entries...)
}

// Import appends entries whose ids are not present, without notifications.
func (m *MemorySource) Import(entries []RemoteEntry) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool, len(m.entries))
	for _, e := range m.entries {
		seen[e.ID] = true
	}
	added := 0
	for _, e := range entries {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		m.entries = append(m.entries, e)
		added++
	}
	return added, nil
}

func (m *MemorySource) begin(op Op) error {
	m.calls[op]++
	if err := m.failures[op]; err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
	}
	return nil
}

// List returns a copy of the current entries.
func (m *MemorySource) List(ctx context.Context) ([]RemoteEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpList); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return append([]RemoteEntry{}, m.entries...), nil
}

// Add appends a new entry and notifies listeners before returning.
func (m *MemorySource) Add(ctx context.Context, url, title string) (string, error) {
	m.mu.Lock()
	if err := m.begin(OpAdd); err != nil {
		m.mu.Unlock()
		return "", err
	}
	e := RemoteEntry{
		ID:      uuid.New().String(),
		URL:     url,
		Title:   title,
		AddTime: m.now().Truncate(time.Millisecond),
	}
	m.entries = append(m.entries, e)
	m.mu.Unlock()

	m.added(ctx, e)
	return e.ID, nil
}

// Remove deletes an entry. Unknown ids succeed without a notification.
func (m *MemorySource) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	if err := m.begin(OpRemove); err != nil {
		m.mu.Unlock()
		return err
	}
	found := false
	for i, e := range m.entries {
		if e.ID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			found = true
			break
		}
	}
	m.mu.Unlock()

	if found {
		m.removed(ctx, id)
	}
	return nil
}

// Rename updates an entry's title and/or url.
func (m *MemorySource) Rename(ctx context.Context, id string, r Rename) error {
	m.mu.Lock()
	if err := m.begin(OpRename); err != nil {
		m.mu.Unlock()
		return err
	}
	var updated *RemoteEntry
	for i := range m.entries {
		if m.entries[i].ID != id {
			continue
		}
		applyRename(&m.entries[i], r, m.now())
		e := m.entries[i]
		updated = &e
		break
	}
	m.mu.Unlock()

	if updated == nil {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	m.updated(ctx, *updated)
	return nil
}

func applyRename(e *RemoteEntry, r Rename, now time.Time) {
	if r.Title != nil {
		e.Title = *r.Title
	}
	if r.URL != nil {
		e.URL = *r.URL
	}
	t := now.Truncate(time.Millisecond)
	e.LastUpdateTime = &t
}

// SampleEntries returns a small demo list with ages relative to now.
func SampleEntries(now time.Time) []RemoteEntry {
	day := 24 * time.Hour
	now = now.Truncate(time.Millisecond)
	return []RemoteEntry{
		{ID: "sample-1", URL: "https://go.dev/doc/effective_go", Title: "Effective Go", AddTime: now.Add(-7 * day)},
		{ID: "sample-2", URL: "https://go.dev/blog/pipelines", Title: "Go Concurrency Patterns: Pipelines and cancellation", AddTime: now.Add(-5 * day)},
		{ID: "sample-3", URL: "https://www.sqlite.org/wal.html", Title: "Write-Ahead Logging", AddTime: now.Add(-3 * day)},
		{ID: "sample-4", URL: "https://pkg.go.dev/context", Title: "context package - Go Packages", AddTime: now.Add(-2 * day)},
		{ID: "sample-5", URL: "https://www.rfc-editor.org/rfc/rfc4287", Title: "The Atom Syndication Format", AddTime: now.Add(-day)},
	}
}

var (
	_ Source   = (*MemorySource)(nil)
	_ Notifier = (*MemorySource)(nil)
	_ Importer = (*MemorySource)(nil)
)
