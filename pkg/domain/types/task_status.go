package types

import (
	"github.com/m-mizutani/goerr/v2"
)

// TaskStatus represents the lifecycle state of a task
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusDismissed  TaskStatus = "dismissed"
)

// AllTaskStatuses returns all valid task statuses
func AllTaskStatuses() []TaskStatus {
	return []TaskStatus{
		TaskStatusTodo,
		TaskStatusInProgress,
		TaskStatusCompleted,
		TaskStatusDismissed,
	}
}

// IsValid checks if the task status is valid
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo,
		TaskStatusInProgress,
		TaskStatusCompleted,
		TaskStatusDismissed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true for completed and dismissed
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusDismissed
}

// CanTransitionTo reports whether a local actor may move a task from s to next.
// Local actors only move forward (todo -> in_progress -> completed) or dismiss
// an open task. Same-state transitions are no-ops and allowed.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case TaskStatusTodo:
		return next == TaskStatusInProgress || next == TaskStatusCompleted || next == TaskStatusDismissed
	case TaskStatusInProgress:
		return next == TaskStatusCompleted || next == TaskStatusDismissed
	default:
		return false
	}
}

// String returns the string representation of the task status
func (s TaskStatus) String() string {
	return string(s)
}

// ParseTaskStatus parses a string into a TaskStatus
func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(s)
	if !status.IsValid() {
		return "", goerr.New("invalid task status", goerr.V("status", s))
	}
	return status, nil
}
