package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/domain/interfaces"
	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/service/normalizer"
	"github.com/secmon-lab/kottos/pkg/service/tracker"
	"github.com/secmon-lab/kottos/pkg/utils/async"
	"github.com/secmon-lab/kottos/pkg/utils/errutil"
	"github.com/secmon-lab/kottos/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// reconcileOverlap widens the incremental window so that issues updated
// while the previous run was in flight are not missed
const reconcileOverlap = time.Minute

// ReconcileUseCase mirrors the assigned issues of one tracker into the task
// store. At most one run per source is in flight.
type ReconcileUseCase struct {
	repo      interfaces.Repository
	client    tracker.Client
	route     types.Route
	assignees []string
	limit     int
	notifier  interfaces.Notifier
	sink      interfaces.ReportSink

	inFlight atomic.Bool

	mu          sync.Mutex
	lastSuccess time.Time
}

// ReconcileOption configures ReconcileUseCase
type ReconcileOption func(*ReconcileUseCase)

// WithReconcileRoute sets the view imported tracker tasks are routed to
func WithReconcileRoute(route types.Route) ReconcileOption {
	return func(uc *ReconcileUseCase) {
		uc.route = route
	}
}

// WithAssignees restricts the query to the given tracker accounts
func WithAssignees(assignees ...string) ReconcileOption {
	return func(uc *ReconcileUseCase) {
		uc.assignees = assignees
	}
}

// WithReconcileLimit caps the number of issues fetched per run
func WithReconcileLimit(n int) ReconcileOption {
	return func(uc *ReconcileUseCase) {
		uc.limit = n
	}
}

// WithReconcileNotifier emits TaskCreated and status change events
func WithReconcileNotifier(n interfaces.Notifier) ReconcileOption {
	return func(uc *ReconcileUseCase) {
		uc.notifier = n
	}
}

// WithReportSink persists each run's stats
func WithReportSink(sink interfaces.ReportSink) ReconcileOption {
	return func(uc *ReconcileUseCase) {
		uc.sink = sink
	}
}

// NewReconcileUseCase creates a ReconcileUseCase for one tracker
func NewReconcileUseCase(repo interfaces.Repository, client tracker.Client, opts ...ReconcileOption) *ReconcileUseCase {
	uc := &ReconcileUseCase{
		repo:   repo,
		client: client,
		route:  types.RouteDeveloper,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Source returns the tracker this use case reconciles
func (uc *ReconcileUseCase) Source() types.ExternalSource {
	return uc.client.Source()
}

// ReconcileOnce runs one reconciliation. Per-issue failures are collected in
// the stats and do not abort the run; applied upserts are never rolled back.
// It returns an error only when nothing could be applied, when the run was
// cancelled, or when another run of the same source is in flight.
func (uc *ReconcileUseCase) ReconcileOnce(ctx context.Context) (*model.SyncStats, error) {
	source := uc.client.Source()
	if !uc.inFlight.CompareAndSwap(false, true) {
		return nil, goerr.Wrap(ErrReconcileInFlight, "skip reconcile", goerr.V(SourceKey, source))
	}
	defer uc.inFlight.Store(false)

	logger := logging.From(ctx).With("source", source)
	stats := &model.SyncStats{
		Source:    source,
		StartedAt: time.Now().UTC(),
	}

	query := tracker.Query{
		UpdatedSince: uc.since(),
		Assignees:    uc.assignees,
		Limit:        uc.limit,
	}

	var queryErr error
	for issue, err := range uc.client.SearchAssigned(ctx, query) {
		if err != nil {
			queryErr = err
			break
		}
		if ctx.Err() != nil {
			stats.Cancelled = true
			break
		}

		stats.Fetched++
		if err := uc.apply(ctx, issue, stats); err != nil {
			logger.Warn("failed to reconcile issue", "external_id", issue.ID, "error", err)
			stats.AddError(issue.ID, err)
		}
	}
	if ctx.Err() != nil {
		stats.Cancelled = true
	}
	if queryErr != nil && !stats.Cancelled && stats.Succeeded() > 0 {
		// Partial progress is kept; the next run picks up the rest
		stats.AddError("", goerr.Wrap(queryErr, "tracker query aborted"))
	}
	stats.FinishedAt = time.Now().UTC()

	uc.report(ctx, stats)

	logger.Info("reconcile finished",
		"fetched", stats.Fetched,
		"created", stats.Created,
		"updated", stats.Updated,
		"unchanged", stats.Unchanged,
		"errors", stats.ErrorCount(),
		"cancelled", stats.Cancelled,
	)

	switch {
	case stats.Cancelled:
		return stats, goerr.Wrap(context.Cause(ctx), "reconcile cancelled", goerr.V(SourceKey, source))

	case queryErr != nil && stats.Succeeded() == 0:
		return stats, goerr.Wrap(queryErr, "tracker query failed", goerr.V(SourceKey, source))

	case stats.ErrorCount() > 0 && stats.Succeeded() == 0:
		return stats, goerr.Wrap(ErrReconcileSource, "no issue could be reconciled",
			goerr.V(SourceKey, source), goerr.V("errors", stats.ErrorCount()))
	}

	if stats.ErrorCount() == 0 {
		uc.mu.Lock()
		uc.lastSuccess = stats.StartedAt
		uc.mu.Unlock()
	}

	return stats, nil
}

func (uc *ReconcileUseCase) since() time.Time {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.lastSuccess.IsZero() {
		return time.Time{}
	}
	return uc.lastSuccess.Add(-reconcileOverlap)
}

func (uc *ReconcileUseCase) apply(ctx context.Context, issue *tracker.Issue, stats *model.SyncStats) error {
	normalized := normalizer.FromIssue(issue, uc.route)
	task := normalized.Task
	if !normalized.StatusKnown {
		logging.From(ctx).Warn("unknown tracker status, mapped to todo",
			"external_id", issue.ID, "status", issue.Status)
	}

	prev, err := uc.repo.Task().FindByExternalID(ctx, task.ExternalSource, task.ExternalID)
	if err != nil {
		return goerr.Wrap(ErrReconcileSource, "failed to look up task",
			goerr.V(ExternalIDKey, issue.ID), goerr.V("cause", err.Error()))
	}
	if prev == nil && !task.Priority.IsValid() {
		task.Priority = types.PriorityMedium
	}

	created, stored, err := uc.repo.Task().Upsert(ctx, task, model.PolicyExternal)
	if err != nil && errors.Is(err, ErrUpsertConflict) {
		created, stored, err = uc.repo.Task().Upsert(ctx, task, model.PolicyExternal)
	}
	if err != nil {
		return goerr.Wrap(ErrReconcileSource, "failed to upsert task",
			goerr.V(ExternalIDKey, issue.ID), goerr.V("cause", err.Error()))
	}

	switch {
	case created || prev == nil:
		stats.Created++
		uc.notify(ctx, &model.TaskEvent{Kind: model.TaskEventCreated, Task: stored})

	case stored.UpdatedAt.Equal(prev.UpdatedAt):
		stats.Unchanged++

	default:
		stats.Updated++
		if stored.Status != prev.Status {
			uc.notify(ctx, &model.TaskEvent{Kind: model.TaskEventUpdated, Task: stored, PreviousStatus: prev.Status})
		}
	}
	return nil
}

func (uc *ReconcileUseCase) notify(ctx context.Context, event *model.TaskEvent) {
	if uc.notifier == nil {
		return
	}
	notifier := uc.notifier
	async.Dispatch(ctx, func(ctx context.Context) error {
		return notifier.Notify(ctx, event)
	})
}

func (uc *ReconcileUseCase) report(ctx context.Context, stats *model.SyncStats) {
	if uc.sink == nil {
		return
	}
	// The run context may be cancelled already; the report is still written
	reportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := uc.sink.PutSyncStats(reportCtx, stats); err != nil {
		_ = errutil.Handle(ctx, err, "failed to write reconcile report")
	}
}

// ReconcileResult pairs a source with the outcome of its run
type ReconcileResult struct {
	Source types.ExternalSource
	Stats  *model.SyncStats
	Err    error
}

// ReconcileAll runs every reconciler once, concurrently, and returns the
// results in the order of reconcilers. A failing source does not cancel the
// others.
func ReconcileAll(ctx context.Context, reconcilers []*ReconcileUseCase) []ReconcileResult {
	results := make([]ReconcileResult, len(reconcilers))

	var eg errgroup.Group
	for i, r := range reconcilers {
		eg.Go(func() error {
			stats, err := r.ReconcileOnce(ctx)
			results[i] = ReconcileResult{Source: r.Source(), Stats: stats, Err: err}
			return nil
		})
	}
	_ = eg.Wait()

	return results
}
