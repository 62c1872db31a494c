// ABOUTME: Data migration between readlist storage backends
// ABOUTME: Copies entries from source to destination store in one batch or merges them

package storage

import (
	"context"
	"fmt"
)

// MigrateSummary holds counts of migrated entities.
type MigrateSummary struct {
	Entries int
}

// CopyEntries copies every entry from src to dst, preserving ids and
// enrichment. The destination must not already hold any of the ids.
func CopyEntries(ctx context.Context, src, dst Store) (*MigrateSummary, error) {
	entries, err := src.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list source entries: %w", err)
	}

	if err := dst.BulkAdd(ctx, entries); err != nil {
		return nil, fmt.Errorf("copy entries: %w", err)
	}
	return &MigrateSummary{Entries: len(entries)}, nil
}

// IsEmpty reports whether a store holds no entries.
func IsEmpty(ctx context.Context, s Store) (bool, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// MergeEntries copies every entry from src to dst one at a time, replacing
// entries dst already holds under the same id.
func MergeEntries(ctx context.Context, src, dst Store) (*MigrateSummary, error) {
	entries, err := src.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list source entries: %w", err)
	}

	for i, e := range entries {
		if err := dst.Put(ctx, e); err != nil {
			return &MigrateSummary{Entries: i}, fmt.Errorf("copy entry %s: %w", e.ID, err)
		}
	}
	return &MigrateSummary{Entries: len(entries)}, nil
}
