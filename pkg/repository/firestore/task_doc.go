package firestore

import (
	"time"

	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/secmon-lab/kottos/pkg/domain/types"
)

// taskDoc is the Firestore persistence model. TaskDetail variants are
// flattened and discriminated by DetailKind.
type taskDoc struct {
	ID               string     `firestore:"id"`
	Title            string     `firestore:"title"`
	Description      string     `firestore:"description"`
	Priority         string     `firestore:"priority"`
	Status           string     `firestore:"status"`
	Tags             []string   `firestore:"tags"`
	AssignorID       string     `firestore:"assignor_id"`
	AssigneeID       string     `firestore:"assignee_id"`
	MentionedUserIDs []string   `firestore:"mentioned_user_ids"`
	WorkType         string     `firestore:"work_type"`
	RouteTo          string     `firestore:"route_to"`
	DualRoute        bool       `firestore:"dual_route"`
	ExternalSource   string     `firestore:"external_source"`
	ExternalID       string     `firestore:"external_id"`
	ExternalKey      string     `firestore:"external_key"`
	ContentHash      string     `firestore:"content_hash"`
	DetailKind       string     `firestore:"detail_kind"`
	Urgency          string     `firestore:"urgency,omitempty"`
	Effort           string     `firestore:"effort,omitempty"`
	Participants     []string   `firestore:"participants,omitempty"`
	TrackerURL       string     `firestore:"tracker_url,omitempty"`
	TrackerStatus    string     `firestore:"tracker_status,omitempty"`
	Sprint           string     `firestore:"sprint,omitempty"`
	StoryPoints      float64    `firestore:"story_points,omitempty"`
	Labels           []string   `firestore:"labels,omitempty"`
	CreatedAt        time.Time  `firestore:"created_at"`
	UpdatedAt        time.Time  `firestore:"updated_at"`
	CompletedAt      *time.Time `firestore:"completed_at"`
}

// identityDoc claims one identity key for one task
type identityDoc struct {
	Key       string    `firestore:"key"`
	TaskID    string    `firestore:"task_id"`
	CreatedAt time.Time `firestore:"created_at"`
}

func toUserIDStrings(ids []types.UserID) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func fromUserIDStrings(ids []string) []types.UserID {
	if ids == nil {
		return nil
	}
	out := make([]types.UserID, len(ids))
	for i, id := range ids {
		out[i] = types.UserID(id)
	}
	return out
}

func toTaskDoc(t *model.Task) *taskDoc {
	doc := &taskDoc{
		ID:               string(t.ID),
		Title:            t.Title,
		Description:      t.Description,
		Priority:         string(t.Priority),
		Status:           string(t.Status),
		Tags:             t.Tags,
		AssignorID:       string(t.AssignorID),
		AssigneeID:       string(t.AssigneeID),
		MentionedUserIDs: toUserIDStrings(t.MentionedUserIDs),
		WorkType:         string(t.WorkType),
		RouteTo:          string(t.RouteTo),
		DualRoute:        t.DualRoute,
		ExternalSource:   string(t.ExternalSource),
		ExternalID:       t.ExternalID,
		ExternalKey:      t.ExternalKey,
		ContentHash:      t.ContentHash,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
		CompletedAt:      t.CompletedAt,
	}

	switch d := t.Detail.(type) {
	case nil:
	case model.GenericDetail:
		doc.DetailKind = string(d.Kind())
		doc.Urgency = string(d.Urgency)
		doc.Effort = string(d.Effort)
	case model.CalendarDetail:
		doc.DetailKind = string(d.Kind())
		doc.Participants = toUserIDStrings(d.Attendees)
	case model.OutreachDetail:
		doc.DetailKind = string(d.Kind())
		doc.Participants = toUserIDStrings(d.Recipients)
	case model.TrackerDetail:
		doc.DetailKind = string(d.Kind())
		doc.TrackerURL = d.URL
		doc.TrackerStatus = d.TrackerStatus
		doc.Sprint = d.Sprint
		doc.StoryPoints = d.StoryPoints
		doc.Labels = d.Labels
	}

	return doc
}

func fromTaskDoc(doc *taskDoc) *model.Task {
	t := &model.Task{
		ID:               model.TaskID(doc.ID),
		Title:            doc.Title,
		Description:      doc.Description,
		Priority:         types.Priority(doc.Priority),
		Status:           types.TaskStatus(doc.Status),
		Tags:             doc.Tags,
		AssignorID:       types.UserID(doc.AssignorID),
		AssigneeID:       types.UserID(doc.AssigneeID),
		MentionedUserIDs: fromUserIDStrings(doc.MentionedUserIDs),
		WorkType:         types.WorkType(doc.WorkType),
		RouteTo:          types.Route(doc.RouteTo),
		DualRoute:        doc.DualRoute,
		ExternalSource:   types.ExternalSource(doc.ExternalSource),
		ExternalID:       doc.ExternalID,
		ExternalKey:      doc.ExternalKey,
		ContentHash:      doc.ContentHash,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
		CompletedAt:      doc.CompletedAt,
	}

	// The dual-route flag of calendar and outreach details mirrors the task's.
	switch model.DetailKind(doc.DetailKind) {
	case model.DetailKindGeneric:
		t.Detail = model.GenericDetail{Urgency: types.Urgency(doc.Urgency), Effort: types.Effort(doc.Effort)}
	case model.DetailKindCalendar:
		t.Detail = model.CalendarDetail{Attendees: fromUserIDStrings(doc.Participants), DualRoute: doc.DualRoute}
	case model.DetailKindOutreach:
		t.Detail = model.OutreachDetail{Recipients: fromUserIDStrings(doc.Participants), DualRoute: doc.DualRoute}
	case model.DetailKindTracker:
		t.Detail = model.TrackerDetail{
			URL:           doc.TrackerURL,
			TrackerStatus: doc.TrackerStatus,
			Sprint:        doc.Sprint,
			StoryPoints:   doc.StoryPoints,
			Labels:        doc.Labels,
		}
	}

	return t
}
