// ABOUTME: Reconciles the local store with the external reading list
// ABOUTME: Builds an add/update/delete plan from both snapshots and applies it

package sync

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/harper/readlist/internal/metrics"
	"github.com/harper/readlist/internal/models"
	"github.com/harper/readlist/internal/readinglist"
	"github.com/harper/readlist/internal/storage"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single run when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// ErrRunInProgress is returned when Run is called while a run is active.
var ErrRunInProgress = errors.New("reconciliation already in progress")

// Outcome classifies how a run ended.
type Outcome string

const (
	// OutcomeCompleted means every planned mutation was applied.
	OutcomeCompleted Outcome = "completed"
	// OutcomePartial means at least one mutation failed. Already applied
	// mutations are kept; the next run picks up the rest.
	OutcomePartial Outcome = "partial"
	// OutcomeSourceEmpty means the source listed no entries and the store
	// was left untouched.
	OutcomeSourceEmpty Outcome = "source_empty"
	// OutcomeSourceUnavailable means the source could not be listed and the
	// store was left untouched.
	OutcomeSourceUnavailable Outcome = "source_unavailable"
)

// Summary reports what a run did.
type Summary struct {
	Outcome  Outcome
	Fetched  int
	Added    int
	Updated  int
	Deleted  int
	Errors   []error
	Duration time.Duration
}

// Changed reports whether the run mutated the store.
func (s *Summary) Changed() bool {
	return s.Added+s.Updated+s.Deleted > 0
}

// Err joins the errors recorded during the run.
func (s *Summary) Err() error {
	return errors.Join(s.Errors...)
}

// Plan lists the mutations that bring the store in line with the source.
// The three sets operate on disjoint ids.
type Plan struct {
	Add    []*models.Entry
	Update []Rename
	Delete []string
}

// Rename is a planned title/url update of a stored entry.
type Rename struct {
	ID    string
	Title string
	URL   string
}

// Empty reports whether the plan has nothing to do.
func (p Plan) Empty() bool {
	return len(p.Add) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

// BuildPlan diffs the remote list against the local snapshot. Remote ids
// missing locally are added unread, ids present in both are renamed when
// title or url differ, and local ids missing remotely are deleted. now is
// used as the add time for remote entries that carry none.
func BuildPlan(remote []readinglist.RemoteEntry, local []*models.Entry, now time.Time) Plan {
	localByID := make(map[string]*models.Entry, len(local))
	for _, e := range local {
		localByID[e.ID] = e
	}

	var plan Plan
	remoteIDs := make(map[string]bool, len(remote))
	for _, r := range remote {
		if r.ID == "" || remoteIDs[r.ID] {
			continue
		}
		remoteIDs[r.ID] = true

		existing, ok := localByID[r.ID]
		if !ok {
			plan.Add = append(plan.Add, r.Entry(now))
			continue
		}
		if existing.Title != r.Title || existing.URL != r.URL {
			plan.Update = append(plan.Update, Rename{ID: r.ID, Title: r.Title, URL: r.URL})
		}
	}

	for _, e := range local {
		if !remoteIDs[e.ID] {
			plan.Delete = append(plan.Delete, e.ID)
		}
	}
	return plan
}

// usableEntries returns the entries that carry an id, keeping the first of
// any repeated id, and how many were left out.
func usableEntries(remote []readinglist.RemoteEntry) ([]readinglist.RemoteEntry, int) {
	seen := make(map[string]bool, len(remote))
	usable := make([]readinglist.RemoteEntry, 0, len(remote))
	for _, e := range remote {
		if e.ID == "" || seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		usable = append(usable, e)
	}
	return usable, len(remote) - len(usable)
}

// Options configures a Reconciler.
type Options struct {
	Timeout time.Duration
	Logger  *zap.Logger
	Metrics metrics.Collector
	Now     func() time.Time
}

// Reconciler synchronises a Store with a Source. Runs never overlap.
type Reconciler struct {
	source  readinglist.Source
	store   storage.Store
	timeout time.Duration
	logger  *zap.Logger
	metrics metrics.Collector
	now     func() time.Time
	running atomic.Bool
}

// New creates a Reconciler.
func New(source readinglist.Source, store storage.Store, opts Options) *Reconciler {
	r := &Reconciler{
		source:  source,
		store:   store,
		timeout: opts.Timeout,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		now:     opts.Now,
	}
	if r.timeout <= 0 {
		r.timeout = DefaultTimeout
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.metrics == nil {
		r.metrics = metrics.Noop{}
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Run performs one reconciliation. It returns ErrRunInProgress if another
// run is active, and an error if the local snapshot cannot be read. Source
// failures and mutation failures are reported through the Summary.
func (r *Reconciler) Run(ctx context.Context) (*Summary, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer r.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := r.now()
	summary := &Summary{}
	defer func() {
		summary.Duration = r.now().Sub(start)
		r.metrics.RecordRun(ctx, string(summary.Outcome), summary.Duration)
	}()

	r.logger.Info("reconciliation started")

	remote, err := r.source.List(ctx)
	if err != nil {
		summary.Outcome = OutcomeSourceUnavailable
		summary.Errors = append(summary.Errors, err)
		r.metrics.RecordError(ctx, "sync", "list")
		r.logger.Warn("reading list unavailable, skipping run", zap.Error(err))
		return summary, nil
	}
	summary.Fetched = len(remote)

	remote, dropped := usableEntries(remote)
	if dropped > 0 {
		r.logger.Warn("ignoring reading list entries without a usable id",
			zap.Int("dropped", dropped))
	}

	// An empty list is indistinguishable from a source that lost its data,
	// so it never triggers a mass delete.
	if len(remote) == 0 {
		summary.Outcome = OutcomeSourceEmpty
		r.logger.Info("reading list empty, skipping run", zap.Int("fetched", summary.Fetched))
		return summary, nil
	}

	local, err := r.store.All(ctx)
	if err != nil {
		summary.Outcome = OutcomePartial
		summary.Errors = append(summary.Errors, err)
		r.metrics.RecordError(ctx, "sync", "snapshot")
		return summary, fmt.Errorf("load local entries: %w", err)
	}

	plan := BuildPlan(remote, local, r.now())
	r.apply(ctx, plan, summary)

	if len(summary.Errors) > 0 {
		summary.Outcome = OutcomePartial
	} else {
		summary.Outcome = OutcomeCompleted
	}

	if count, err := r.store.Count(ctx); err == nil {
		r.metrics.SetEntryCount(ctx, count)
	}

	r.logger.Info("reconciliation finished",
		zap.String("outcome", string(summary.Outcome)),
		zap.Int("fetched", summary.Fetched),
		zap.Int("added", summary.Added),
		zap.Int("updated", summary.Updated),
		zap.Int("deleted", summary.Deleted),
		zap.Int("errors", len(summary.Errors)))
	return summary, nil
}

func (r *Reconciler) apply(ctx context.Context, plan Plan, summary *Summary) {
	if len(plan.Add) > 0 {
		added, err := r.addAll(ctx, plan.Add)
		summary.Added = added
		if err != nil {
			summary.Errors = append(summary.Errors, err)
			r.metrics.RecordError(ctx, "sync", "add")
			r.logger.Error("adding entries failed", zap.Error(err))
		}
		r.metrics.RecordChanges(ctx, "added", added)
	}

	for _, u := range plan.Update {
		updated, err := r.store.Update(ctx, u.ID, models.Rename(u.Title, u.URL))
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Errorf("update %s: %w", u.ID, err))
			r.metrics.RecordError(ctx, "sync", "update")
			r.logger.Error("updating entry failed", zap.String("entry_id", u.ID), zap.Error(err))
			continue
		}
		if updated != nil {
			summary.Updated++
		}
	}
	r.metrics.RecordChanges(ctx, "updated", summary.Updated)

	if len(plan.Delete) > 0 {
		if err := r.store.BulkDelete(ctx, plan.Delete); err != nil {
			summary.Errors = append(summary.Errors, fmt.Errorf("delete entries: %w", err))
			r.metrics.RecordError(ctx, "sync", "delete")
			r.logger.Error("deleting entries failed", zap.Error(err))
		} else {
			summary.Deleted = len(plan.Delete)
			r.metrics.RecordChanges(ctx, "deleted", summary.Deleted)
		}
	}
}

// addAll inserts entries as one batch. If the batch collides with an entry
// inserted since the snapshot (e.g. by a change notification), it falls
// back to inserting one at a time and skips the collisions.
func (r *Reconciler) addAll(ctx context.Context, entries []*models.Entry) (int, error) {
	err := r.store.BulkAdd(ctx, entries)
	if err == nil {
		return len(entries), nil
	}
	if !errors.Is(err, storage.ErrDuplicateKey) {
		return 0, fmt.Errorf("bulk add: %w", err)
	}

	r.logger.Debug("bulk add collided, adding individually", zap.Error(err))
	added := 0
	var errs []error
	for _, e := range entries {
		_, err := r.store.Add(ctx, e)
		switch {
		case err == nil:
			added++
		case errors.Is(err, storage.ErrDuplicateKey):
		default:
			errs = append(errs, fmt.Errorf("add %s: %w", e.ID, err))
		}
	}
	return added, errors.Join(errs...)
}
