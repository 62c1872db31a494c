// ABOUTME: Reading list persisted as a JSON document on local disk
// ABOUTME: Stands in for a browser or service reading list when none is reachable

package readinglist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type fileDocument struct {
	Entries []RemoteEntry `json:"entries"`
}

// FileSource keeps the reading list in a JSON file. A missing file is an
// empty list; a corrupt one makes the source unavailable.
type FileSource struct {
	*hub

	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewFileSource returns a source backed by the file at path.
func NewFileSource(path string, logger *zap.Logger) *FileSource {
	return &FileSource{hub: newHub(logger), path: path, now: time.Now}
}

// Path returns the backing file path.
func (f *FileSource) Path() string {
	return f.path
}

// List reads the current entries from disk.
func (f *FileSource) List(ctx context.Context) ([]RemoteEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return nil, err
	}
	return doc.Entries, nil
}

// Add appends an entry with a fresh uuid.
func (f *FileSource) Add(ctx context.Context, url, title string) (string, error) {
	e := RemoteEntry{
		ID:      uuid.New().String(),
		URL:     url,
		Title:   title,
		AddTime: f.now().Truncate(time.Millisecond),
	}
	err := f.modify(func(doc *fileDocument) bool {
		doc.Entries = append(doc.Entries, e)
		return true
	})
	if err != nil {
		return "", err
	}
	f.added(ctx, e)
	return e.ID, nil
}

// Remove deletes an entry; unknown ids succeed.
func (f *FileSource) Remove(ctx context.Context, id string) error {
	found := false
	err := f.modify(func(doc *fileDocument) bool {
		for i, e := range doc.Entries {
			if e.ID == id {
				doc.Entries = append(doc.Entries[:i], doc.Entries[i+1:]...)
				found = true
				return true
			}
		}
		return false
	})
	if err != nil {
		return err
	}
	if found {
		f.removed(ctx, id)
	}
	return nil
}

// Rename updates an entry's title and/or url.
func (f *FileSource) Rename(ctx context.Context, id string, r Rename) error {
	var updated *RemoteEntry
	err := f.modify(func(doc *fileDocument) bool {
		for i := range doc.Entries {
			if doc.Entries[i].ID == id {
				applyRename(&doc.Entries[i], r, f.now())
				e := doc.Entries[i]
				updated = &e
				return true
			}
		}
		return false
	})
	if err != nil {
		return err
	}
	if updated == nil {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	f.updated(ctx, *updated)
	return nil
}

// Import appends entries whose ids are not yet present and reports how
// many were added. No notifications are fired.
func (f *FileSource) Import(entries []RemoteEntry) (int, error) {
	added := 0
	err := f.modify(func(doc *fileDocument) bool {
		seen := make(map[string]bool, len(doc.Entries))
		for _, e := range doc.Entries {
			seen[e.ID] = true
		}
		for _, e := range entries {
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			doc.Entries = append(doc.Entries, e)
			added++
		}
		return added > 0
	})
	return added, err
}

// modify loads the document, applies fn, and writes it back when fn
// reports a change.
func (f *FileSource) modify(fn func(doc *fileDocument) bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return err
	}
	if !fn(doc) {
		return nil
	}
	return f.save(doc)
}

func (f *FileSource) load() (*fileDocument, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return &fileDocument{Entries: []RemoteEntry{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, f.path, err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrUnavailable, f.path, err)
	}
	if doc.Entries == nil {
		doc.Entries = []RemoteEntry{}
	}
	return &doc, nil
}

// save writes the document through a temp file and rename so readers
// never see a partial file.
func (f *FileSource) save(doc *fileDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal reading list: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrUnavailable, dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".readinglist-*.json")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrUnavailable, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write reading list: %v", ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close reading list: %v", ErrUnavailable, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replace reading list: %v", ErrUnavailable, err)
	}
	return nil
}

var (
	_ Source   = (*FileSource)(nil)
	_ Notifier = (*FileSource)(nil)
	_ Importer = (*FileSource)(nil)
)
