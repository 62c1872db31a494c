// ABOUTME: Read-only reading list backed by an RSS/Atom feed (e.g. a bookmarking service export)
// ABOUTME: Polls with conditional requests and maps feed items to remote entries via gofeed

package readinglist

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/harper/readlist/internal/fetch"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

// FeedSource lists the items of a feed as reading-list entries. Mutations
// return ErrReadOnly.
type FeedSource struct {
	url     string
	fetcher *fetch.Fetcher
	logger  *zap.Logger
	now     func() time.Time

	mu           sync.Mutex
	etag         string
	lastModified string
	cached       []RemoteEntry
	firstSeen    map[string]time.Time
}

// NewFeedSource returns a source for the feed at url.
func NewFeedSource(url string, fetcher *fetch.Fetcher, logger *zap.Logger) *FeedSource {
	if fetcher == nil {
		fetcher = fetch.New(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedSource{
		url:       url,
		fetcher:   fetcher,
		logger:    logger,
		now:       time.Now,
		firstSeen: make(map[string]time.Time),
	}
}

// List fetches the feed. A 304 reply returns the previously parsed items.
func (f *FeedSource) List(ctx context.Context) ([]RemoteEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result, err := f.fetcher.Fetch(ctx, f.url, &f.etag, &f.lastModified)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch feed: %v", ErrUnavailable, err)
	}
	if result.NotModified && f.cached != nil {
		f.logger.Debug("feed not modified", zap.String("url", f.url))
		return append([]RemoteEntry{}, f.cached...), nil
	}

	feed, err := gofeed.NewParser().ParseString(string(result.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse feed: %v", ErrUnavailable, err)
	}

	entries := make([]RemoteEntry, 0, len(feed.Items))
	seen := make(map[string]bool, len(feed.Items))
	for _, item := range feed.Items {
		e, ok := f.entryFromItem(item)
		if !ok || seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		entries = append(entries, e)
	}

	f.etag = result.ETag
	f.lastModified = result.LastModified
	f.cached = entries
	return append([]RemoteEntry{}, entries...), nil
}

func (f *FeedSource) entryFromItem(item *gofeed.Item) (RemoteEntry, bool) {
	id := strings.TrimSpace(item.GUID)
	if id == "" {
		id = strings.TrimSpace(item.Link)
	}
	link := strings.TrimSpace(item.Link)
	if id == "" || link == "" {
		return RemoteEntry{}, false
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = link
	}

	e := RemoteEntry{ID: id, URL: link, Title: title}
	switch {
	case item.PublishedParsed != nil:
		e.AddTime = item.PublishedParsed.Truncate(time.Millisecond)
	case item.UpdatedParsed != nil:
		e.AddTime = item.UpdatedParsed.Truncate(time.Millisecond)
	default:
		// Undated items keep the time this source first saw them.
		t, ok := f.firstSeen[id]
		if !ok {
			t = f.now().Truncate(time.Millisecond)
			f.firstSeen[id] = t
		}
		e.AddTime = t
	}
	if item.UpdatedParsed != nil {
		u := item.UpdatedParsed.Truncate(time.Millisecond)
		e.LastUpdateTime = &u
	}
	return e, true
}

// Add is not supported by feeds.
func (f *FeedSource) Add(ctx context.Context, url, title string) (string, error) {
	return "", fmt.Errorf("%w: %w", ErrUnavailable, ErrReadOnly)
}

// Remove is not supported by feeds.
func (f *FeedSource) Remove(ctx context.Context, id string) error {
	return fmt.Errorf("%w: %w", ErrUnavailable, ErrReadOnly)
}

// Rename is not supported by feeds.
func (f *FeedSource) Rename(ctx context.Context, id string, r Rename) error {
	return fmt.Errorf("%w: %w", ErrUnavailable, ErrReadOnly)
}

var _ Source = (*FeedSource)(nil)
