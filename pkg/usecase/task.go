package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/domain/interfaces"
	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/utils/async"
)

// TaskUseCase serves task reads and local status changes
type TaskUseCase struct {
	repo     interfaces.Repository
	access   *AccessUseCase
	notifier interfaces.Notifier
}

// NewTaskUseCase creates a TaskUseCase. notifier may be nil.
func NewTaskUseCase(repo interfaces.Repository, access *AccessUseCase, notifier interfaces.Notifier) *TaskUseCase {
	return &TaskUseCase{
		repo:     repo,
		access:   access,
		notifier: notifier,
	}
}

// GetTask returns a task the requester may read
func (uc *TaskUseCase) GetTask(ctx context.Context, requester types.UserID, id model.TaskID) (*model.Task, error) {
	task, err := uc.repo.Task().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrTaskNotFound, "task not found", goerr.V(TaskIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get task", goerr.V(TaskIDKey, id))
	}

	if !uc.canAccessTask(requester, task) {
		return nil, goerr.Wrap(ErrAccessDenied, "task is not accessible",
			goerr.V(TaskIDKey, id), goerr.V(UserIDKey, requester))
	}
	return task, nil
}

// ListView returns the tasks surfaced in a role view, newest first. Tasks
// routed to route and dual-routed tasks are both included.
func (uc *TaskUseCase) ListView(ctx context.Context, route types.Route, opts ...interfaces.ListTaskOption) ([]*model.Task, error) {
	if !route.IsValid() {
		return nil, goerr.New("invalid route", goerr.V("route", route))
	}
	tasks, err := uc.repo.Task().List(ctx, append(opts, interfaces.WithRoute(route))...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tasks", goerr.V("route", route))
	}
	return tasks, nil
}

// ListViewForRequester returns a role view restricted to the users the
// requester may access. The CEO and org admins see the whole view.
func (uc *TaskUseCase) ListViewForRequester(ctx context.Context, requester types.UserID, route types.Route, opts ...interfaces.ListTaskOption) ([]*model.Task, error) {
	scope := uc.access.Scope(requester)
	if scope.CanViewAllUsers {
		return uc.ListView(ctx, route, opts...)
	}

	ids := scope.SortedUserIDs()
	if len(ids) == 0 {
		return []*model.Task{}, nil
	}
	return uc.ListView(ctx, route, append(opts, interfaces.WithUserIDs(ids...))...)
}

// ListForRequester returns tasks assigned to or created by users the
// requester may access
func (uc *TaskUseCase) ListForRequester(ctx context.Context, requester types.UserID, opts ...interfaces.ListTaskOption) ([]*model.Task, error) {
	scope := uc.access.Scope(requester)
	ids := scope.SortedUserIDs()
	if len(ids) == 0 {
		return []*model.Task{}, nil
	}

	tasks, err := uc.repo.Task().List(ctx, append(opts, interfaces.WithUserIDs(ids...))...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tasks", goerr.V(UserIDKey, requester))
	}
	return tasks, nil
}

// UpdateStatus moves a task forward in its lifecycle. Local actors cannot
// reopen or move a task backwards. The transition is checked against the
// stored status at write time, so a tracker write that lands first wins.
func (uc *TaskUseCase) UpdateStatus(ctx context.Context, requester types.UserID, id model.TaskID, status types.TaskStatus) (*model.Task, error) {
	if !status.IsValid() {
		return nil, goerr.New("invalid task status", goerr.V("status", status))
	}

	if _, err := uc.GetTask(ctx, requester, id); err != nil {
		return nil, err
	}

	var prev types.TaskStatus
	updated, err := uc.repo.Task().UpdateStatus(ctx, id, status, func(current *model.Task) error {
		prev = current.Status
		if prev == status {
			return nil
		}
		if !prev.CanTransitionTo(status) {
			return goerr.Wrap(ErrInvalidTransition, "status cannot move backwards",
				goerr.V(TaskIDKey, id), goerr.V("from", prev), goerr.V("to", status))
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidTransition):
			return nil, err
		case errors.Is(err, interfaces.ErrNotFound):
			return nil, goerr.Wrap(ErrTaskNotFound, "task disappeared during update", goerr.V(TaskIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to update task", goerr.V(TaskIDKey, id))
	}

	if prev == status {
		return updated, nil
	}

	if uc.notifier != nil {
		notifier := uc.notifier
		event := &model.TaskEvent{Kind: model.TaskEventUpdated, Task: updated, PreviousStatus: prev}
		async.Dispatch(ctx, func(ctx context.Context) error {
			return notifier.Notify(ctx, event)
		})
	}

	return updated, nil
}

// Dismiss marks a task as dismissed. Tasks are never deleted.
func (uc *TaskUseCase) Dismiss(ctx context.Context, requester types.UserID, id model.TaskID) (*model.Task, error) {
	return uc.UpdateStatus(ctx, requester, id, types.TaskStatusDismissed)
}

func (uc *TaskUseCase) canAccessTask(requester types.UserID, task *model.Task) bool {
	if task.AssigneeID != "" && uc.access.CanAccess(requester, task.AssigneeID) {
		return true
	}
	return task.AssignorID != "" && uc.access.CanAccess(requester, task.AssignorID)
}
