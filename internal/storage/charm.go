// ABOUTME: Charm KV storage backend with optional cloud sync
// ABOUTME: Stores each entry as a JSON record under an entry:<id> key

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/charm/kv"
	"github.com/harper/readlist/internal/charm"
	"github.com/harper/readlist/internal/models"
	"go.uber.org/zap"
)

const (
	entryPrefix      = "entry:"
	schemaVersionKey = "meta:schema_version"
)

// CharmStore implements Store on top of Charm KV. Batches are not atomic
// across keys: BulkAdd checks every key before writing, but a failure
// midway leaves the earlier writes in place.
type CharmStore struct {
	client *charm.Client
	now    func() time.Time
	logger *zap.Logger
}

// NewCharmStore opens the store and upgrades stored records to SchemaVersion.
func NewCharmStore(client *charm.Client, opts ...Option) (*CharmStore, error) {
	o := buildOptions(opts)
	s := &CharmStore{client: client, now: o.now, logger: o.logger}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

// Close is a no-op: connections are closed after each operation.
func (s *CharmStore) Close() error {
	return nil
}

// Sync pushes and pulls changes with the Charm server.
func (s *CharmStore) Sync() error {
	return s.client.Sync()
}

func (s *CharmStore) migrate() error {
	return s.client.Do(func(k *kv.KV) error {
		current, err := readSchemaVersion(k)
		if err != nil {
			return err
		}
		if current > SchemaVersion {
			return fmt.Errorf("store schema version %d is newer than supported version %d", current, SchemaVersion)
		}
		if current == SchemaVersion {
			return nil
		}

		records, err := scanRecords(k, s.logger)
		if err != nil {
			return err
		}
		upgraded := 0
		for _, r := range records {
			if !Backfill(r) {
				continue
			}
			if err := setRecord(k, r); err != nil {
				return err
			}
			upgraded++
		}

		if err := k.Set([]byte(schemaVersionKey), []byte(strconv.Itoa(SchemaVersion))); err != nil {
			return fmt.Errorf("write schema version: %w", err)
		}
		s.logger.Info("schema upgraded",
			zap.Int("from", current),
			zap.Int("version", SchemaVersion),
			zap.Int("records", upgraded))
		return nil
	})
}

// Get retrieves an entry by ID.
func (s *CharmStore) Get(ctx context.Context, id string) (*models.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var entry *models.Entry
	err := s.client.DoReadOnly(func(k *kv.KV) error {
		r, err := getRecord(k, id)
		if err != nil || r == nil {
			return err
		}
		entry = r.Entry()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// GetByURL returns the first entry with the given URL.
func (s *CharmStore) GetByURL(ctx context.Context, url string) (*models.Entry, error) {
	entries, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.URL == url {
			return e, nil
		}
	}
	return nil, nil
}

// Exists reports whether an entry with id is stored.
func (s *CharmStore) Exists(ctx context.Context, id string) (bool, error) {
	e, err := s.Get(ctx, id)
	return e != nil, err
}

// Count returns the number of stored entries.
func (s *CharmStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	count := 0
	err := s.client.DoReadOnly(func(k *kv.KV) error {
		keys, err := k.Keys()
		if err != nil {
			return fmt.Errorf("list keys: %w", err)
		}
		for _, key := range keys {
			if strings.HasPrefix(string(key), entryPrefix) {
				count++
			}
		}
		return nil
	})
	return count, err
}

// All returns every entry ordered by AddTime, then id. The KV store keeps
// no insertion sequence, so add time stands in for it.
func (s *CharmStore) All(ctx context.Context) ([]*models.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var records []*Record
	err := s.client.DoReadOnly(func(k *kv.KV) error {
		var err error
		records, err = scanRecords(k, s.logger)
		return err
	})
	if err != nil {
		return nil, err
	}

	entries := make([]*models.Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, r.Entry())
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].AddTime.Equal(entries[j].AddTime) {
			return entries[i].AddTime.Before(entries[j].AddTime)
		}
		return entries[i].ID < entries[j].ID
	})
	return entries, nil
}

// Add inserts a new entry.
func (s *CharmStore) Add(ctx context.Context, entry *models.Entry) (string, error) {
	if err := s.BulkAdd(ctx, []*models.Entry{entry}); err != nil {
		return "", err
	}
	return entry.ID, nil
}

// BulkAdd inserts entries after checking that no id collides.
func (s *CharmStore) BulkAdd(ctx context.Context, entries []*models.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.client.Do(func(k *kv.KV) error {
		seen := make(map[string]bool, len(entries))
		for _, e := range entries {
			if seen[e.ID] {
				return fmt.Errorf("%w: %s", ErrDuplicateKey, e.ID)
			}
			seen[e.ID] = true
			existing, err := charm.Get(k, entryKey(e.ID))
			if err != nil {
				return fmt.Errorf("check entry: %w", err)
			}
			if existing != nil {
				return fmt.Errorf("%w: %s", ErrDuplicateKey, e.ID)
			}
		}
		for _, e := range entries {
			if err := setRecord(k, RecordFromEntry(e)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Put inserts or replaces an entry. A replaced entry keeps the later of the
// two LastUpdateTime values.
func (s *CharmStore) Put(ctx context.Context, entry *models.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.client.Do(func(k *kv.KV) error {
		r := RecordFromEntry(entry)
		existing, err := getRecord(k, entry.ID)
		if err != nil {
			return err
		}
		if existing != nil && existing.LastUpdateTime != nil &&
			(r.LastUpdateTime == nil || *existing.LastUpdateTime > *r.LastUpdateTime) {
			last := *existing.LastUpdateTime
			r.LastUpdateTime = &last
		}
		return setRecord(k, r)
	})
}

// Update applies patch to the stored entry. An absent id is a no-op.
func (s *CharmStore) Update(ctx context.Context, id string, patch models.Patch) (*models.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var updated *models.Entry
	err := s.client.Do(func(k *kv.KV) error {
		r, err := getRecord(k, id)
		if err != nil || r == nil {
			return err
		}
		entry := r.Entry()
		patch.ApplyTo(entry, s.now())
		if err := setRecord(k, RecordFromEntry(entry)); err != nil {
			return err
		}
		updated = entry
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	return updated, nil
}

// Delete removes an entry; absent ids are ignored.
func (s *CharmStore) Delete(ctx context.Context, id string) error {
	return s.BulkDelete(ctx, []string{id})
}

// BulkDelete removes several entries.
func (s *CharmStore) BulkDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.client.Do(func(k *kv.KV) error {
		for _, id := range ids {
			if err := k.Delete(entryKey(id)); err != nil {
				return fmt.Errorf("delete entry: %w", err)
			}
		}
		return nil
	})
}

// Clear removes every entry, keeping the schema version.
func (s *CharmStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.client.Do(func(k *kv.KV) error {
		keys, err := k.Keys()
		if err != nil {
			return fmt.Errorf("list keys: %w", err)
		}
		for _, key := range keys {
			if !strings.HasPrefix(string(key), entryPrefix) {
				continue
			}
			if err := k.Delete(key); err != nil {
				return fmt.Errorf("delete entry: %w", err)
			}
		}
		return nil
	})
}

// Query returns entries matching filter, ordered by sort.
func (s *CharmStore) Query(ctx context.Context, filter Filter, sort Sort) ([]*models.Entry, error) {
	entries, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	entries = FilterEntries(entries, filter)
	SortEntries(entries, sort)
	return entries, nil
}

// Stats computes aggregate statistics.
func (s *CharmStore) Stats(ctx context.Context) (*Stats, error) {
	entries, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return ComputeStats(entries, s.now()), nil
}

// DomainStats counts entries per domain.
func (s *CharmStore) DomainStats(ctx context.Context) ([]KeyCount, error) {
	entries, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return CountKeys(entries, DomainKeys), nil
}

// TagStats counts entries per tag.
func (s *CharmStore) TagStats(ctx context.Context) ([]KeyCount, error) {
	entries, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return CountKeys(entries, TagKeys), nil
}

func entryKey(id string) []byte {
	return []byte(entryPrefix + id)
}

func readSchemaVersion(k *kv.KV) (int, error) {
	data, err := charm.Get(k, []byte(schemaVersionKey))
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if data == nil {
		return 0, nil
	}
	v, err := strconv.Atoi(string(data))
	if err != nil {
		return 0, fmt.Errorf("parse schema version %q: %w", data, err)
	}
	return v, nil
}

func getRecord(k *kv.KV, id string) (*Record, error) {
	data, err := charm.Get(k, entryKey(id))
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode entry %s: %w", id, err)
	}
	return &r, nil
}

func setRecord(k *kv.KV, r *Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	if err := k.Set(entryKey(r.ID), data); err != nil {
		return fmt.Errorf("set entry: %w", err)
	}
	return nil
}

// scanRecords decodes every entry record, skipping corrupt ones with a
// single warning.
func scanRecords(k *kv.KV, logger *zap.Logger) ([]*Record, error) {
	keys, err := k.Keys()
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}

	records := make([]*Record, 0, len(keys))
	corrupt := 0
	for _, key := range keys {
		if !strings.HasPrefix(string(key), entryPrefix) {
			continue
		}
		data, err := k.Get(key)
		if err != nil {
			corrupt++
			continue
		}
		var r Record
		if err := json.Unmarshal(data, &r); err != nil {
			corrupt++
			continue
		}
		records = append(records, &r)
	}
	if corrupt > 0 {
		logger.Warn("skipped corrupt entries", zap.Int("count", corrupt))
	}
	return records, nil
}

var _ Store = (*CharmStore)(nil)
