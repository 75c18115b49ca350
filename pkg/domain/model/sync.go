package model

import (
	"time"

	"github.com/secmon-lab/kottos/pkg/domain/types"
)

// IssueError records why one tracker issue could not be reconciled
type IssueError struct {
	ExternalID string `json:"external_id"`
	Reason     string `json:"reason"`
}

// SyncStats summarizes one reconciliation run for one source
type SyncStats struct {
	Source     types.ExternalSource `json:"source"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
	Fetched    int                  `json:"fetched"`
	Created    int                  `json:"created"`
	Updated    int                  `json:"updated"`
	Unchanged  int                  `json:"unchanged"`
	Errors     []IssueError         `json:"errors,omitempty"`
	Cancelled  bool                 `json:"cancelled"`
}

// ErrorCount returns the number of issues that failed
func (s *SyncStats) ErrorCount() int {
	return len(s.Errors)
}

// Succeeded returns the number of issues that were applied
func (s *SyncStats) Succeeded() int {
	return s.Created + s.Updated + s.Unchanged
}

// AddError records a per-issue failure
func (s *SyncStats) AddError(externalID string, err error) {
	s.Errors = append(s.Errors, IssueError{ExternalID: externalID, Reason: err.Error()})
}
