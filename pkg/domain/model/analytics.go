package model

import "github.com/secmon-lab/kottos/pkg/domain/types"

// TaskAnalytics aggregates task counts for one user or a team
type TaskAnalytics struct {
	UserIDs    []types.UserID           `json:"user_ids"`
	Total      int                      `json:"total"`
	ByStatus   map[types.TaskStatus]int `json:"by_status"`
	ByPriority map[types.Priority]int   `json:"by_priority"`
	ByWorkType map[types.WorkType]int   `json:"by_work_type"`
}

// NewTaskAnalytics returns an empty aggregate for the given users
func NewTaskAnalytics(userIDs []types.UserID) *TaskAnalytics {
	return &TaskAnalytics{
		UserIDs:    userIDs,
		ByStatus:   make(map[types.TaskStatus]int),
		ByPriority: make(map[types.Priority]int),
		ByWorkType: make(map[types.WorkType]int),
	}
}

// Add counts one task
func (a *TaskAnalytics) Add(t *Task) {
	a.Total++
	a.ByStatus[t.Status]++
	a.ByPriority[t.Priority]++
	a.ByWorkType[t.WorkType]++
}
