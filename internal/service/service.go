// ABOUTME: Entry access facade combining the local store with the reading list
// ABOUTME: Used by the CLI and MCP server; mirrors source notifications locally

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harper/readlist/internal/extract"
	"github.com/harper/readlist/internal/models"
	"github.com/harper/readlist/internal/readinglist"
	"github.com/harper/readlist/internal/storage"
	"go.uber.org/zap"
)

var (
	// ErrNoExtractor is returned by the enrichment calls when the service
	// was built without an extractor.
	ErrNoExtractor = errors.New("content extraction is not configured")

	// ErrImportUnsupported is returned by ImportSample when the source does
	// not accept imported entries.
	ErrImportUnsupported = errors.New("reading list does not support import")

	// ErrAmbiguousID is returned by FindEntry when a prefix matches more
	// than one entry.
	ErrAmbiguousID = errors.New("ambiguous entry id")
)

// MinPrefixLength is the shortest id prefix FindEntry accepts.
const MinPrefixLength = 4

// DivergenceError reports that a local change was stored but could not be
// pushed to the reading list. The next reconciliation reverts the local
// title and url to the source's values.
type DivergenceError struct {
	ID  string
	Err error
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("entry %s updated locally but not in reading list: %v", e.ID, e.Err)
}

func (e *DivergenceError) Unwrap() error {
	return e.Err
}

// Options configures a Service.
type Options struct {
	Logger    *zap.Logger
	Extractor extract.Extractor
	Now       func() time.Time
}

// Service is the stable entry API used by presentation layers.
type Service struct {
	store     storage.Store
	source    readinglist.Source
	extractor extract.Extractor
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a Service. When source publishes change notifications the
// service subscribes to them.
func New(store storage.Store, source readinglist.Source, opts Options) *Service {
	s := &Service{
		store:     store,
		source:    source,
		extractor: opts.Extractor,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if n, ok := source.(readinglist.Notifier); ok {
		n.Subscribe(listener{s})
	}
	return s
}

// Store returns the underlying store.
func (s *Service) Store() storage.Store {
	return s.store
}

// Source returns the reading list the service writes through to.
func (s *Service) Source() readinglist.Source {
	return s.source
}

// AddEntry adds url to the reading list and then stores it locally under
// the id the source assigned. Nothing is stored if the source rejects it.
func (s *Service) AddEntry(ctx context.Context, url, title string) (*models.Entry, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("url is required")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = url
	}

	id, err := s.source.Add(ctx, url, title)
	if err != nil {
		s.logger.Warn("adding to reading list failed", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("add to reading list: %w", err)
	}

	entry := models.NewEntry(id, url, title, s.now())
	if _, err := s.store.Add(ctx, entry); err != nil {
		if !errors.Is(err, storage.ErrDuplicateKey) {
			return nil, fmt.Errorf("store entry: %w", err)
		}
		// The added notification got there first.
		existing, err := s.syncTitleAndURL(ctx, id, title, url)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}
	return entry, nil
}

// UpdateEntry stores patch locally, then renames the entry in the reading
// list when the patch touches title or url. If the rename fails the updated
// entry is returned together with a *DivergenceError. An absent id returns
// nil, nil.
func (s *Service) UpdateEntry(ctx context.Context, id string, patch models.Patch) (*models.Entry, error) {
	updated, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	if updated == nil || !patch.TouchesRemote() {
		return updated, nil
	}

	rename := readinglist.Rename{Title: patch.Title, URL: patch.URL}
	if err := s.source.Rename(ctx, id, rename); err != nil {
		s.logger.Warn("renaming in reading list failed", zap.String("entry_id", id), zap.Error(err))
		return updated, &DivergenceError{ID: id, Err: err}
	}
	return updated, nil
}

// UpdateReadStatus marks an entry read or unread. It is local only.
func (s *Service) UpdateReadStatus(ctx context.Context, id string, isRead bool) (*models.Entry, error) {
	return s.UpdateEntry(ctx, id, models.Patch{IsRead: &isRead})
}

// UpdateTags replaces the entry's tags. It is local only.
func (s *Service) UpdateTags(ctx context.Context, id string, tags []string) (*models.Entry, error) {
	if tags == nil {
		tags = []string{}
	}
	return s.UpdateEntry(ctx, id, models.Patch{Tags: &tags})
}

// DeleteEntry removes the entry from the reading list and then locally. If
// the source fails the local entry is kept and the error is returned.
func (s *Service) DeleteEntry(ctx context.Context, id string) error {
	if err := s.source.Remove(ctx, id); err != nil {
		s.logger.Warn("removing from reading list failed", zap.String("entry_id", id), zap.Error(err))
		return fmt.Errorf("remove from reading list: %w", err)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// HandleEntryAdded mirrors an added notification. A new id is stored unread;
// a known id only has its title and url refreshed so local state survives.
func (s *Service) HandleEntryAdded(ctx context.Context, r readinglist.RemoteEntry) error {
	if r.ID == "" {
		return errors.New("added notification without id")
	}
	existing, err := s.store.Get(ctx, r.ID)
	if err != nil {
		return fmt.Errorf("get entry: %w", err)
	}
	if existing == nil {
		_, err := s.store.Add(ctx, r.Entry(s.now()))
		if err == nil {
			return nil
		}
		if !errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("store entry: %w", err)
		}
	}
	_, err = s.syncTitleAndURL(ctx, r.ID, r.Title, r.URL)
	return err
}

// HandleEntryDeleted mirrors a removed notification.
func (s *Service) HandleEntryDeleted(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// HandleEntryUpdated mirrors an updated notification onto title and url.
// Unknown ids are ignored; the next reconciliation adds them.
func (s *Service) HandleEntryUpdated(ctx context.Context, r readinglist.RemoteEntry) error {
	_, err := s.syncTitleAndURL(ctx, r.ID, r.Title, r.URL)
	return err
}

// syncTitleAndURL sets title and url on a stored entry when they differ.
// It returns the current entry, or nil when id is absent.
func (s *Service) syncTitleAndURL(ctx context.Context, id, title, url string) (*models.Entry, error) {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	if existing == nil || (existing.Title == title && existing.URL == url) {
		return existing, nil
	}
	updated, err := s.store.Update(ctx, id, models.Rename(title, url))
	if err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	return updated, nil
}

// GetEntry returns the entry with id, or nil when absent.
func (s *Service) GetEntry(ctx context.Context, id string) (*models.Entry, error) {
	return s.store.Get(ctx, id)
}

// FindEntry resolves a full id or a unique id prefix. It returns
// storage.ErrNotFound or ErrAmbiguousID when that fails.
func (s *Service) FindEntry(ctx context.Context, idOrPrefix string) (*models.Entry, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return nil, fmt.Errorf("%w: empty id", storage.ErrNotFound)
	}
	entry, err := s.store.Get(ctx, idOrPrefix)
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	if entry != nil {
		return entry, nil
	}
	if len(idOrPrefix) < MinPrefixLength {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, idOrPrefix)
	}

	all, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	var match *models.Entry
	for _, e := range all {
		if !strings.HasPrefix(e.ID, idOrPrefix) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("%w: %s matches %s and %s", ErrAmbiguousID, idOrPrefix, match.ID, e.ID)
		}
		match = e
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, idOrPrefix)
	}
	return match, nil
}

// GetAllEntries returns every entry, newest first.
func (s *Service) GetAllEntries(ctx context.Context) ([]*models.Entry, error) {
	return s.store.Query(ctx, storage.Filter{}, storage.DefaultSort)
}

// GetFilteredEntries returns the entries matching filter in the given order.
func (s *Service) GetFilteredEntries(ctx context.Context, filter storage.Filter, sort storage.Sort) ([]*models.Entry, error) {
	return s.store.Query(ctx, filter, sort)
}

// GetDatabaseStats returns aggregate statistics.
func (s *Service) GetDatabaseStats(ctx context.Context) (*storage.Stats, error) {
	return s.store.Stats(ctx)
}

// GetDomainStats returns the per-domain histogram.
func (s *Service) GetDomainStats(ctx context.Context) ([]storage.KeyCount, error) {
	return s.store.DomainStats(ctx)
}

// GetTagStats returns the per-tag histogram.
func (s *Service) GetTagStats(ctx context.Context) ([]storage.KeyCount, error) {
	return s.store.TagStats(ctx)
}

// listener adapts the service to readinglist.Listener.
type listener struct {
	s *Service
}

func (l listener) OnAdded(ctx context.Context, e readinglist.RemoteEntry) error {
	return l.s.HandleEntryAdded(ctx, e)
}

func (l listener) OnRemoved(ctx context.Context, id string) error {
	return l.s.HandleEntryDeleted(ctx, id)
}

func (l listener) OnUpdated(ctx context.Context, e readinglist.RemoteEntry) error {
	return l.s.HandleEntryUpdated(ctx, e)
}
