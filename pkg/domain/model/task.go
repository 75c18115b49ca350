package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/kottos/pkg/domain/types"
)

// TaskID is a UUIDv7-based identifier for Task
type TaskID string

// NewTaskID generates a new time-ordered TaskID
func NewTaskID() TaskID {
	return TaskID(uuid.Must(uuid.NewV7()).String())
}

func (id TaskID) String() string {
	return string(id)
}

// Task is the persisted unit of work
type Task struct {
	ID               TaskID
	Title            string
	Description      string
	Priority         types.Priority
	Status           types.TaskStatus
	Tags             []string
	AssignorID       types.UserID
	AssigneeID       types.UserID
	MentionedUserIDs []types.UserID
	WorkType         types.WorkType
	RouteTo          types.Route
	DualRoute        bool

	// ExternalSource and ExternalID identify the task in an integrated system.
	// At most one task exists per pair.
	ExternalSource types.ExternalSource
	ExternalID     string
	// ExternalKey is a human-readable key such as "owner/repo#42"
	ExternalKey string
	// ContentHash identifies the originating event when ExternalID is absent
	ContentHash string

	Detail TaskDetail

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// ContentHash derives the dedup key of an event without an external ID from
// its source, channel or mailbox, sender and timestamp rounded down to the minute.
func ContentHash(source types.Source, channelID string, senderID types.UserID, ts time.Time) string {
	rounded := ts.UTC().Truncate(time.Minute).Unix()
	sum := sha256.Sum256(fmt.Appendf(nil, "%s\x00%s\x00%s\x00%d", source, channelID, senderID, rounded))
	return hex.EncodeToString(sum[:])
}

// IdentityKey returns the key that dedups the task. The external identity wins
// over the content hash. ok is false when the task has neither and must always
// be created.
func (t *Task) IdentityKey() (key string, ok bool) {
	if t.ExternalSource != "" && t.ExternalID != "" {
		return ExternalIdentityKey(t.ExternalSource, t.ExternalID), true
	}
	if t.ContentHash != "" {
		return ContentIdentityKey(t.ContentHash), true
	}
	return "", false
}

// ExternalIdentityKey builds the identity key of an external task
func ExternalIdentityKey(source types.ExternalSource, externalID string) string {
	return "ext:" + string(source) + ":" + externalID
}

// ContentIdentityKey builds the identity key of a content-hash task
func ContentIdentityKey(hash string) string {
	return "hash:" + hash
}

// IsVisibleIn reports whether the task appears in the given role view
func (t *Task) IsVisibleIn(route types.Route) bool {
	return t.RouteTo == route || t.DualRoute
}

// Clone returns a deep copy of the task
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.Tags = slices.Clone(t.Tags)
	c.MentionedUserIDs = slices.Clone(t.MentionedUserIDs)
	c.Detail = cloneDetail(t.Detail)
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		c.CompletedAt = &completed
	}
	return &c
}

// SetStatus changes status and keeps CompletedAt consistent with it
func (t *Task) SetStatus(status types.TaskStatus, now time.Time) {
	if t.Status == status {
		return
	}
	t.Status = status
	if status == types.TaskStatusCompleted {
		completed := now
		t.CompletedAt = &completed
	} else {
		t.CompletedAt = nil
	}
}

// UpsertPolicy selects which side owns which fields when an upsert hits an
// existing task
type UpsertPolicy int

const (
	// PolicyLocal is used by the live pipeline. A re-delivered event only adds
	// newly seen mentions; everything else on the stored task is kept.
	PolicyLocal UpsertPolicy = iota
	// PolicyExternal is used by the reconciler. Tracker-owned fields (status,
	// priority, title, assignee, tracker detail) take the incoming value.
	// Description and tags are replaced only if the tracker supplies them.
	PolicyExternal
)

func (p UpsertPolicy) String() string {
	switch p {
	case PolicyExternal:
		return "external"
	default:
		return "local"
	}
}

// Merge applies incoming onto t according to policy and reports whether
// anything changed. ID, identity fields and CreatedAt are never touched.
func (t *Task) Merge(incoming *Task, policy UpsertPolicy, now time.Time) (changed bool) {
	if policy == PolicyExternal {
		if incoming.Status.IsValid() && incoming.Status != t.Status {
			t.SetStatus(incoming.Status, now)
			changed = true
		}
		if incoming.Priority.IsValid() && incoming.Priority != t.Priority {
			t.Priority = incoming.Priority
			changed = true
		}
		if incoming.Title != "" && incoming.Title != t.Title {
			t.Title = incoming.Title
			changed = true
		}
		if incoming.AssigneeID != "" && incoming.AssigneeID != t.AssigneeID {
			t.AssigneeID = incoming.AssigneeID
			changed = true
		}
		if incoming.Description != "" && incoming.Description != t.Description {
			t.Description = incoming.Description
			changed = true
		}
		if incoming.Tags != nil && !slices.Equal(incoming.Tags, t.Tags) {
			t.Tags = slices.Clone(incoming.Tags)
			changed = true
		}
		if incoming.ExternalKey != "" && incoming.ExternalKey != t.ExternalKey {
			t.ExternalKey = incoming.ExternalKey
			changed = true
		}
		if incoming.Detail != nil && !detailEqual(incoming.Detail, t.Detail) {
			t.Detail = cloneDetail(incoming.Detail)
			changed = true
		}
	}

	for _, id := range incoming.MentionedUserIDs {
		if !slices.Contains(t.MentionedUserIDs, id) {
			t.MentionedUserIDs = append(t.MentionedUserIDs, id)
			changed = true
		}
	}

	if changed {
		t.UpdatedAt = now
	}
	return changed
}
