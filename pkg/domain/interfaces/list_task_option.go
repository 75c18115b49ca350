package interfaces

import (
	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/secmon-lab/kottos/pkg/domain/types"
)

// ListTaskOptions holds filtering options for listing tasks
type ListTaskOptions struct {
	// Route selects tasks visible in a role view, including dual-routed tasks
	Route *types.Route
	// Status filters by task status
	Status *types.TaskStatus
	// UserIDs selects tasks assigned to, or created by, any of the users
	UserIDs []types.UserID
	// Limit caps the result size; zero means unlimited
	Limit int
}

// ListTaskOption is a functional option for listing tasks
type ListTaskOption func(*ListTaskOptions)

// WithRoute filters tasks by role view
func WithRoute(route types.Route) ListTaskOption {
	return func(o *ListTaskOptions) {
		o.Route = &route
	}
}

// WithStatus filters tasks by status
func WithStatus(status types.TaskStatus) ListTaskOption {
	return func(o *ListTaskOptions) {
		o.Status = &status
	}
}

// WithUserIDs filters tasks by assignee or assignor
func WithUserIDs(ids ...types.UserID) ListTaskOption {
	return func(o *ListTaskOptions) {
		o.UserIDs = ids
	}
}

// WithLimit caps the number of returned tasks
func WithLimit(n int) ListTaskOption {
	return func(o *ListTaskOptions) {
		o.Limit = n
	}
}

// BuildListTaskOptions applies options and returns the result
func BuildListTaskOptions(opts ...ListTaskOption) ListTaskOptions {
	var o ListTaskOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Matches reports whether t satisfies the filters (Limit is ignored)
func (o ListTaskOptions) Matches(t *model.Task) bool {
	if o.Route != nil && !t.IsVisibleIn(*o.Route) {
		return false
	}
	if o.Status != nil && t.Status != *o.Status {
		return false
	}
	if len(o.UserIDs) > 0 {
		hit := false
		for _, id := range o.UserIDs {
			if t.AssigneeID == id || t.AssignorID == id {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}
