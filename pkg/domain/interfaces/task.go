package interfaces

import (
	"context"

	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/secmon-lab/kottos/pkg/domain/types"
)

// TaskRepository defines the interface for Task data access
type TaskRepository interface {
	// Upsert inserts the task or merges it into the task with the same
	// identity (external source+ID, else content hash) using policy. It is
	// atomic per identity key: concurrent callers for the same identity never
	// produce two tasks. stored is the task as persisted after the call.
	Upsert(ctx context.Context, task *model.Task, policy model.UpsertPolicy) (created bool, stored *model.Task, err error)

	// Get retrieves a task by ID
	Get(ctx context.Context, id model.TaskID) (*model.Task, error)

	// FindByExternalID retrieves a task by its external identity.
	// Returns nil, nil if no task is found.
	FindByExternalID(ctx context.Context, source types.ExternalSource, externalID string) (*model.Task, error)

	// UpdateStatus changes only the status and completion time of a task.
	// check sees the current stored task and may reject the change; the read,
	// check and write are serialized with Upsert on the same identity. Nothing
	// is written when the task already has status.
	UpdateStatus(ctx context.Context, id model.TaskID, status types.TaskStatus, check func(current *model.Task) error) (*model.Task, error)

	// List retrieves tasks matching opts, newest first
	List(ctx context.Context, opts ...ListTaskOption) ([]*model.Task, error)
}
