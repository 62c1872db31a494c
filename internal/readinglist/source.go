// ABOUTME: Contract for the external reading-list provider mirrored by readlist
// ABOUTME: Defines Source, change Listener, and the shared error sentinels

package readinglist

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/harper/readlist/internal/models"
	"go.uber.org/zap"
)

var (
	// ErrUnavailable wraps every failure to reach or mutate the source.
	ErrUnavailable = errors.New("reading list unavailable")

	// ErrReadOnly is returned by sources that cannot be mutated.
	ErrReadOnly = errors.New("reading list is read-only")

	// ErrEntryNotFound is returned by Rename for an unknown id.
	ErrEntryNotFound = errors.New("reading list entry not found")
)

// RemoteEntry is an entry as reported by the external source. The source
// does not track read state.
type RemoteEntry struct {
	ID             string     `json:"id"`
	URL            string     `json:"url"`
	Title          string     `json:"title"`
	AddTime        time.Time  `json:"addTime"`
	LastUpdateTime *time.Time `json:"lastUpdateTime,omitempty"`
}

// Entry builds the local entry for a newly seen remote entry. It starts
// unread; a missing add time falls back to now and a missing update time
// to the add time.
func (r RemoteEntry) Entry(now time.Time) *models.Entry {
	added := r.AddTime
	if added.IsZero() {
		added = now
	}
	e := models.NewEntry(r.ID, r.URL, r.Title, added)
	if r.LastUpdateTime != nil && !r.LastUpdateTime.IsZero() {
		e.LastUpdateTime = r.LastUpdateTime.Truncate(time.Millisecond)
	}
	return e
}

// Importer is implemented by sources that accept entries with
// caller-chosen ids.
type Importer interface {
	Import(entries []RemoteEntry) (int, error)
}

// Rename lists the fields to change on a remote entry. Nil means unchanged.
type Rename struct {
	Title *string
	URL   *string
}

// Source is the authoritative reading-list provider.
type Source interface {
	// List returns the current entries. An empty slice is not an error.
	List(ctx context.Context) ([]RemoteEntry, error)

	// Add creates an entry and returns the id the source assigned.
	Add(ctx context.Context, url, title string) (string, error)

	// Remove deletes an entry. Removing an unknown id succeeds.
	Remove(ctx context.Context, id string) error

	// Rename changes the title and/or url of an entry.
	Rename(ctx context.Context, id string, r Rename) error
}

// Listener receives single-entry change notifications from a source.
type Listener interface {
	OnAdded(ctx context.Context, e RemoteEntry) error
	OnRemoved(ctx context.Context, id string) error
	OnUpdated(ctx context.Context, e RemoteEntry) error
}

// Notifier is implemented by sources that publish change notifications.
type Notifier interface {
	Subscribe(l Listener)
}

// hub fans change notifications out to subscribed listeners. Listener
// errors are logged and never fail the originating call.
type hub struct {
	mu        sync.RWMutex
	listeners []Listener
	logger    *zap.Logger
}

func newHub(logger *zap.Logger) *hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &hub{logger: logger}
}

// Subscribe registers l for future notifications.
func (h *hub) Subscribe(l Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, l)
}

func (h *hub) snapshot() []Listener {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Listener(nil), h.listeners...)
}

func (h *hub) added(ctx context.Context, e RemoteEntry) {
	for _, l := range h.snapshot() {
		if err := l.OnAdded(ctx, e); err != nil {
			h.logger.Warn("added notification failed", zap.String("entry_id", e.ID), zap.Error(err))
		}
	}
}

func (h *hub) removed(ctx context.Context, id string) {
	for _, l := range h.snapshot() {
		if err := l.OnRemoved(ctx, id); err != nil {
			h.logger.Warn("removed notification failed", zap.String("entry_id", id), zap.Error(err))
		}
	}
}

func (h *hub) updated(ctx context.Context, e RemoteEntry) {
	for _, l := range h.snapshot() {
		if err := l.OnUpdated(ctx, e); err != nil {
			h.logger.Warn("updated notification failed", zap.String("entry_id", e.ID), zap.Error(err))
		}
	}
}
