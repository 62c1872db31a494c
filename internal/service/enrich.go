// ABOUTME: Content enrichment and sample import for the entry facade
// ABOUTME: Patches extracted article fields onto stored entries

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/harper/readlist/internal/extract"
	"github.com/harper/readlist/internal/models"
	"github.com/harper/readlist/internal/readinglist"
	"github.com/harper/readlist/internal/storage"
	"go.uber.org/zap"
)

// EnrichEntry runs extraction for one entry and stores whatever it found.
// The title is only filled in when the entry has none. A title pushed to
// the reading list but rejected there is logged, not returned.
func (s *Service) EnrichEntry(ctx context.Context, id string) (*models.Entry, error) {
	if s.extractor == nil {
		return nil, ErrNoExtractor
	}
	entry, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}

	result := s.extractor.Extract(ctx, entry.URL)
	if result.Empty() {
		s.logger.Debug("nothing extracted", zap.String("entry_id", id), zap.String("url", entry.URL))
		return entry, nil
	}

	patch := enrichmentPatch(entry, result)
	if patch.IsEmpty() {
		return entry, nil
	}
	updated, err := s.UpdateEntry(ctx, id, patch)
	var divergence *DivergenceError
	if errors.As(err, &divergence) {
		s.logger.Warn("extracted title kept locally only", zap.String("entry_id", id), zap.Error(divergence.Err))
		err = nil
	}
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// Deleted while extracting.
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return updated, nil
}

func enrichmentPatch(entry *models.Entry, r extract.Result) models.Patch {
	var p models.Patch
	set := func(v string) *string {
		if v == "" {
			return nil
		}
		return &v
	}
	if entry.Title == "" {
		p.Title = set(r.Title)
	}
	p.Content = set(r.Content)
	p.Excerpt = set(r.Excerpt)
	p.ImageURL = set(r.ImageURL)
	p.SiteName = set(r.SiteName)
	p.Author = set(r.Author)
	p.PublishDate = set(r.PublishDate)
	return p
}

// EnrichPending enriches entries that have no extracted content yet, newest
// first, stopping after limit entries when limit is positive. It returns how
// many entries gained content.
func (s *Service) EnrichPending(ctx context.Context, limit int) (int, error) {
	if s.extractor == nil {
		return 0, ErrNoExtractor
	}
	entries, err := s.store.Query(ctx, storage.Filter{}, storage.DefaultSort)
	if err != nil {
		return 0, fmt.Errorf("list entries: %w", err)
	}

	enriched := 0
	attempted := 0
	var errs []error
	for _, e := range entries {
		if e.ContentExtracted {
			continue
		}
		if limit > 0 && attempted >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		attempted++

		updated, err := s.EnrichEntry(ctx, e.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("enrich %s: %w", e.ID, err))
			continue
		}
		if updated.ContentExtracted {
			enriched++
		}
	}
	s.logger.Info("enrichment finished",
		zap.Int("attempted", attempted),
		zap.Int("enriched", enriched),
		zap.Int("errors", len(errs)))
	return enriched, errors.Join(errs...)
}

// ImportSample seeds the reading list with demo entries and mirrors them
// locally. It returns how many entries were added to the store.
func (s *Service) ImportSample(ctx context.Context) (int, error) {
	importer, ok := s.source.(readinglist.Importer)
	if !ok {
		return 0, ErrImportUnsupported
	}
	now := s.now()
	samples := readinglist.SampleEntries(now)
	if _, err := importer.Import(samples); err != nil {
		return 0, fmt.Errorf("import into reading list: %w", err)
	}

	added := 0
	for _, r := range samples {
		_, err := s.store.Add(ctx, r.Entry(now))
		switch {
		case err == nil:
			added++
		case errors.Is(err, storage.ErrDuplicateKey):
		default:
			return added, fmt.Errorf("store sample %s: %w", r.ID, err)
		}
	}
	return added, nil
}
