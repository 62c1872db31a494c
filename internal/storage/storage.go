// ABOUTME: Storage interface and types for reading-list persistence
// ABOUTME: Defines the Store contract plus filter, sort and statistics types

package storage

import (
	"context"
	"errors"
	"time"

	"github.com/harper/readlist/internal/models"
)

var (
	// ErrDuplicateKey is returned by Add and BulkAdd when an id already exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotFound is returned by lookup helpers that require an entry.
	// Store methods model absence as a nil entry instead.
	ErrNotFound = errors.New("entry not found")
)

// ReadFilter selects entries by read state.
type ReadFilter int

const (
	ReadAny ReadFilter = iota
	ReadOnly
	UnreadOnly
)

// Filter specifies criteria for Query. All set criteria are ANDed.
type Filter struct {
	Read   ReadFilter
	Domain string

	// AddedFrom and AddedTo bound AddTime inclusively.
	AddedFrom *time.Time
	AddedTo   *time.Time

	// Tags matches entries carrying at least one of the listed tags.
	Tags []string

	// Search is a case-insensitive substring matched against title,
	// content, excerpt, author and site name.
	Search string
}

// SortField names a sortable entry field.
type SortField string

const (
	SortAddTime        SortField = "addTime"
	SortTitle          SortField = "title"
	SortLastUpdateTime SortField = "lastUpdateTime"
	SortLastReadTime   SortField = "lastReadTime"
	SortPublishDate    SortField = "publishDate"
)

// Sort orders Query results.
type Sort struct {
	Field      SortField
	Descending bool
}

// DefaultSort is newest-added first.
var DefaultSort = Sort{Field: SortAddTime, Descending: true}

// Stats summarises the whole store.
type Stats struct {
	TotalEntries         int       `json:"total_entries"`
	ReadEntries          int       `json:"read_entries"`
	UnreadEntries        int       `json:"unread_entries"`
	AverageContentLength int       `json:"average_content_length"`
	OldestEntryDate      time.Time `json:"oldest_entry_date"`
	NewestEntryDate      time.Time `json:"newest_entry_date"`
	TotalStorageUsed     int64     `json:"total_storage_used"`
}

// KeyCount is one row of a domain or tag histogram.
type KeyCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Store defines the storage interface for reading-list entries.
// Lookups return a nil entry and nil error when the id is absent.
type Store interface {
	// Close closes the store and releases resources.
	Close() error

	// Get retrieves an entry by id.
	Get(ctx context.Context, id string) (*models.Entry, error)

	// GetByURL returns the first entry with the given url.
	GetByURL(ctx context.Context, url string) (*models.Entry, error)

	// Exists reports whether an entry with id is stored.
	Exists(ctx context.Context, id string) (bool, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// All returns every entry in insertion order.
	All(ctx context.Context) ([]*models.Entry, error)

	// Add inserts a new entry, failing with ErrDuplicateKey on collision.
	Add(ctx context.Context, entry *models.Entry) (string, error)

	// BulkAdd inserts entries as one batch, failing with ErrDuplicateKey if
	// any id collides with a stored entry or another entry in the batch.
	BulkAdd(ctx context.Context, entries []*models.Entry) error

	// Put inserts or replaces an entry.
	Put(ctx context.Context, entry *models.Entry) error

	// Update applies patch to the stored entry and refreshes LastUpdateTime.
	// It returns the updated entry, or nil when id is absent (a no-op).
	Update(ctx context.Context, id string, patch models.Patch) (*models.Entry, error)

	// Delete removes an entry. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error

	// BulkDelete removes several entries. Absent ids are ignored.
	BulkDelete(ctx context.Context, ids []string) error

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Query returns entries matching filter, ordered by sort.
	Query(ctx context.Context, filter Filter, sort Sort) ([]*models.Entry, error)

	// Stats computes aggregate statistics.
	Stats(ctx context.Context) (*Stats, error)

	// DomainStats counts entries per domain, most frequent first.
	DomainStats(ctx context.Context) ([]KeyCount, error)

	// TagStats counts entries per tag, most frequent first.
	TagStats(ctx context.Context) ([]KeyCount, error)
}
