package model

import "github.com/secmon-lab/kottos/pkg/domain/types"

// TaskEventKind distinguishes notifications sent to the UI layer
type TaskEventKind string

const (
	TaskEventCreated TaskEventKind = "task_created"
	TaskEventUpdated TaskEventKind = "task_updated"
)

// TaskEvent is emitted after a task was created or its status changed
type TaskEvent struct {
	Kind           TaskEventKind
	Task           *Task
	PreviousStatus types.TaskStatus
}
