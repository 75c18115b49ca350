package interfaces

import (
	"context"

	"github.com/secmon-lab/kottos/pkg/domain/model"
)

// Notifier delivers task events to the UI/notification layer. Delivery is
// fire-and-forget and at-least-once; implementations must tolerate duplicates.
type Notifier interface {
	Notify(ctx context.Context, event *model.TaskEvent) error
}

// ReportSink persists the summary of a reconciliation run
type ReportSink interface {
	PutSyncStats(ctx context.Context, stats *model.SyncStats) error
}
