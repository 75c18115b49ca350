// Package tracker defines the contract between the reconciler and external
// issue trackers, and the tables mapping tracker vocabulary to task values.
package tracker

import (
	"context"
	"iter"
	"strings"
	"time"

	"github.com/secmon-lab/kottos/pkg/domain/types"
)

// Client queries one issue tracker for the issues assigned to the
// organization's users
type Client interface {
	// Source names the tracker; it is the ExternalSource of imported tasks
	Source() types.ExternalSource

	// SearchAssigned yields issues matching q. The iteration stops at the
	// first error.
	SearchAssigned(ctx context.Context, q Query) iter.Seq2[*Issue, error]
}

// Query narrows a tracker search
type Query struct {
	// UpdatedSince limits results to issues updated at or after this time.
	// The zero value means no lower bound.
	UpdatedSince time.Time
	// Assignees limits results to these tracker logins. Empty means any
	// assigned issue visible to the client.
	Assignees []string
	// Limit caps the number of yielded issues; zero means unlimited
	Limit int
}

// Issue is a tracker issue in tracker-neutral form
type Issue struct {
	Source types.ExternalSource
	// ID is the tracker's stable identifier (GitHub node ID, Notion page ID)
	ID string
	// Key is the human-readable identifier such as "owner/repo#42"
	Key   string
	Title string
	Body  string
	URL   string
	// Status and Priority hold the tracker's own vocabulary
	Status      string
	Priority    string
	Labels      []string
	Sprint      string
	StoryPoints float64
	AssigneeID  types.UserID
	ReporterID  types.UserID
	UpdatedAt   time.Time
}

var statusTable = map[string]types.TaskStatus{
	"to do":   types.TaskStatusTodo,
	"todo":    types.TaskStatusTodo,
	"open":    types.TaskStatusTodo,
	"backlog": types.TaskStatusTodo,

	"in progress": types.TaskStatusInProgress,
	"in review":   types.TaskStatusInProgress,

	"done":     types.TaskStatusCompleted,
	"closed":   types.TaskStatusCompleted,
	"resolved": types.TaskStatusCompleted,

	"won't do":    types.TaskStatusDismissed,
	"wont do":     types.TaskStatusDismissed,
	"cancelled":   types.TaskStatusDismissed,
	"canceled":    types.TaskStatusDismissed,
	"not planned": types.TaskStatusDismissed,
}

var priorityTable = map[string]types.Priority{
	"lowest":   types.PriorityLow,
	"low":      types.PriorityLow,
	"p3":       types.PriorityLow,
	"medium":   types.PriorityMedium,
	"normal":   types.PriorityMedium,
	"p2":       types.PriorityMedium,
	"high":     types.PriorityHigh,
	"p1":       types.PriorityHigh,
	"highest":  types.PriorityUrgent,
	"urgent":   types.PriorityUrgent,
	"critical": types.PriorityUrgent,
	"p0":       types.PriorityUrgent,
}

func normalizeWord(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", " ", "-", " ", "’", "'").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// MapStatus maps a tracker status to a task status. Unknown statuses map to
// todo with known=false so the caller can warn.
func MapStatus(raw string) (status types.TaskStatus, known bool) {
	if s, ok := statusTable[normalizeWord(raw)]; ok {
		return s, true
	}
	return types.TaskStatusTodo, false
}

// MapPriority maps a tracker priority. Unknown or empty priorities return
// ok=false and leave the choice to the caller.
func MapPriority(raw string) (types.Priority, bool) {
	p, ok := priorityTable[normalizeWord(raw)]
	return p, ok
}
