package model

import "github.com/secmon-lab/kottos/pkg/domain/types"

// WorkRequestAnalysis is the detector's verdict on a message. It is derived
// data and is attached to the task at creation time.
type WorkRequestAnalysis struct {
	IsWorkRequest   bool
	Confidence      float64
	Urgency         types.Urgency
	WorkType        types.WorkType
	EstimatedEffort types.Effort
	// MatchedCategories lists the rule categories that fired, for explanation
	MatchedCategories []string
}

// AssignmentInfo describes who asked whom for the work
type AssignmentInfo struct {
	AssignorID types.UserID
	// AssigneeID is empty when nobody was mentioned
	AssigneeID       types.UserID
	MentionedUserIDs []types.UserID
	IsAssignment     bool
}

// HasAssignee returns true if an assignee was extracted
func (a AssignmentInfo) HasAssignee() bool {
	return a.AssigneeID != ""
}

// RoutingDecision is where a task is surfaced
type RoutingDecision struct {
	RouteTo   types.Route
	DualRoute bool
	Title     string
	Priority  types.Priority
	Detail    TaskDetail
}

// Views returns every role view the decision surfaces the task in
func (d RoutingDecision) Views() []types.Route {
	if d.DualRoute {
		return []types.Route{types.RouteSales, types.RouteDeveloper}
	}
	return []types.Route{d.RouteTo}
}
