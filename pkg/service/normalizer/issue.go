package normalizer

import (
	"slices"

	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/service/detector"
	"github.com/secmon-lab/kottos/pkg/service/rules"
	"github.com/secmon-lab/kottos/pkg/service/tracker"
)

// IssueTask is the result of normalizing a tracker issue
type IssueTask struct {
	Task *model.Task
	// StatusKnown is false when the tracker status was not in the table
	// and the task fell back to todo
	StatusKnown bool
}

// FromIssue converts a tracker issue into a task routed to route. A missing
// or unknown tracker priority leaves Priority empty so an upsert keeps the
// stored value; callers creating the task fill in a default.
func FromIssue(issue *tracker.Issue, route types.Route) IssueTask {
	status, known := tracker.MapStatus(issue.Status)
	priority, _ := tracker.MapPriority(issue.Priority)

	var mentions []types.UserID
	if issue.AssigneeID != "" {
		mentions = append(mentions, issue.AssigneeID)
	}

	tags := slices.Clone(issue.Labels)
	if tags == nil {
		tags = []string{}
	}

	task := &model.Task{
		Title:            issue.Title,
		Description:      issue.Body,
		Priority:         priority,
		Status:           status,
		Tags:             tags,
		AssignorID:       issue.ReporterID,
		AssigneeID:       issue.AssigneeID,
		MentionedUserIDs: mentions,
		WorkType:         detector.WorkTypeOf(rules.Evaluate(issue.Title)),
		RouteTo:          route,
		ExternalSource:   issue.Source,
		ExternalID:       issue.ID,
		ExternalKey:      issue.Key,
		Detail: model.TrackerDetail{
			URL:           issue.URL,
			TrackerStatus: issue.Status,
			Sprint:        issue.Sprint,
			StoryPoints:   issue.StoryPoints,
			Labels:        slices.Clone(issue.Labels),
		},
	}

	return IssueTask{Task: task, StatusKnown: known}
}
