package worker

import (
	"context"
	"time"

	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/secmon-lab/kottos/pkg/utils/errutil"
	"github.com/secmon-lab/kottos/pkg/utils/logging"
)

// DefaultInitialDelay is the wait before the first run after Start
const DefaultInitialDelay = 5 * time.Second

// Reconciler runs one reconciliation pass of one source
type Reconciler interface {
	ReconcileOnce(ctx context.Context) (*model.SyncStats, error)
}

// ReconcileWorker periodically reconciles one tracker source. Run one
// worker per source.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - Overlapping runs of the same source are rejected by the Reconciler
type ReconcileWorker struct {
	name         string
	reconciler   Reconciler
	interval     time.Duration
	initialDelay time.Duration
	triggerCh    chan struct{}
	stopCh       chan struct{}
	doneCh       chan struct{}
}

type Option func(*ReconcileWorker)

// WithInitialDelay overrides DefaultInitialDelay
func WithInitialDelay(d time.Duration) Option {
	return func(w *ReconcileWorker) {
		w.initialDelay = d
	}
}

// NewReconcileWorker creates a worker for the source called name
func NewReconcileWorker(name string, reconciler Reconciler, interval time.Duration, opts ...Option) *ReconcileWorker {
	w := &ReconcileWorker{
		name:         name,
		reconciler:   reconciler,
		interval:     interval,
		initialDelay: DefaultInitialDelay,
		triggerCh:    make(chan struct{}, 1),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins the background loop without blocking
func (w *ReconcileWorker) Start(ctx context.Context) {
	logging.From(ctx).Info("reconcile worker starting",
		"source", w.name,
		"interval", w.interval.String(),
		"initial_delay", w.initialDelay.String())

	go w.run(ctx)
}

// Trigger requests an immediate run. Requests made while one is pending
// are coalesced.
func (w *ReconcileWorker) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// Stop signals the worker to stop and waits for the current run to finish
func (w *ReconcileWorker) Stop() {
	logging.Default().Info("reconcile worker stopping", "source", w.name)
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("reconcile worker stopped", "source", w.name)
}

func (w *ReconcileWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	// Runs are cancelled by Stop as well as by the parent context
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	initial := time.NewTimer(w.initialDelay)
	defer initial.Stop()

	select {
	case <-initial.C:
		w.reconcile(ctx)
	case <-w.triggerCh:
		w.reconcile(ctx)
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.reconcile(ctx)

		case <-w.triggerCh:
			w.reconcile(ctx)

		case <-ctx.Done():
			logging.Default().Info("reconcile worker context done", "source", w.name)
			return
		}
	}
}

func (w *ReconcileWorker) reconcile(ctx context.Context) {
	logger := logging.From(ctx).With("source", w.name)

	stats, err := w.reconciler.ReconcileOnce(ctx)
	if err != nil {
		// Logged and retried on the next tick
		_ = errutil.Handle(ctx, err, "reconcile run failed")
		return
	}

	logger.Info("reconcile run finished",
		"fetched", stats.Fetched,
		"created", stats.Created,
		"updated", stats.Updated,
		"unchanged", stats.Unchanged,
		"errors", stats.ErrorCount(),
		"duration", stats.FinishedAt.Sub(stats.StartedAt).String())
}
