package tracker_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/service/tracker"
)

func TestMapStatus(t *testing.T) {
	testCases := []struct {
		raw   string
		want  types.TaskStatus
		known bool
	}{
		{"To Do", types.TaskStatusTodo, true},
		{"OPEN", types.TaskStatusTodo, true},
		{"Backlog", types.TaskStatusTodo, true},
		{"In Progress", types.TaskStatusInProgress, true},
		{"in_review", types.TaskStatusInProgress, true},
		{"Done", types.TaskStatusCompleted, true},
		{"CLOSED", types.TaskStatusCompleted, true},
		{"Resolved", types.TaskStatusCompleted, true},
		{"Won't Do", types.TaskStatusDismissed, true},
		{"Cancelled", types.TaskStatusDismissed, true},
		{"NOT_PLANNED", types.TaskStatusDismissed, true},
		{"Blocked", types.TaskStatusTodo, false},
		{"", types.TaskStatusTodo, false},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			got, known := tracker.MapStatus(tc.raw)
			gt.Value(t, got).Equal(tc.want)
			gt.Value(t, known).Equal(tc.known)
		})
	}
}

func TestMapPriority(t *testing.T) {
	p, ok := tracker.MapPriority("Highest")
	gt.Bool(t, ok).True()
	gt.Value(t, p).Equal(types.PriorityUrgent)

	p, ok = tracker.MapPriority("P1")
	gt.Bool(t, ok).True()
	gt.Value(t, p).Equal(types.PriorityHigh)

	_, ok = tracker.MapPriority("")
	gt.Bool(t, ok).False()
}
