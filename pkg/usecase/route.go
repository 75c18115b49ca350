package usecase

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/service/detector"
)

// Default engine settings
const (
	DefaultCreationThreshold             = 0.4
	DefaultCalendarDualRouteMentionLimit = 4
	DefaultOutreachDualRouteMentionLimit = 5
)

// EngineConfig holds the tunable thresholds of the routing engine
type EngineConfig struct {
	DetectionThreshold            float64
	CreationThreshold             float64
	CalendarDualRouteMentionLimit int
	OutreachDualRouteMentionLimit int
}

// DefaultEngineConfig returns the default engine settings
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		DetectionThreshold:            detector.DefaultDetectionThreshold,
		CreationThreshold:             DefaultCreationThreshold,
		CalendarDualRouteMentionLimit: DefaultCalendarDualRouteMentionLimit,
		OutreachDualRouteMentionLimit: DefaultOutreachDualRouteMentionLimit,
	}
}

// Validate checks that thresholds are in [0,1] and limits are not negative
func (c EngineConfig) Validate() error {
	if c.DetectionThreshold < 0 || c.DetectionThreshold > 1 {
		return goerr.New("detection threshold must be in [0,1]", goerr.V("detection_threshold", c.DetectionThreshold))
	}
	if c.CreationThreshold < 0 || c.CreationThreshold > 1 {
		return goerr.New("creation threshold must be in [0,1]", goerr.V("creation_threshold", c.CreationThreshold))
	}
	if c.CalendarDualRouteMentionLimit < 0 {
		return goerr.New("calendar dual route mention limit must not be negative", goerr.V("limit", c.CalendarDualRouteMentionLimit))
	}
	if c.OutreachDualRouteMentionLimit < 0 {
		return goerr.New("outreach dual route mention limit must not be negative", goerr.V("limit", c.OutreachDualRouteMentionLimit))
	}
	return nil
}

// Route decides whether a task should be created and where it is surfaced.
// It is pure. Title is left empty because it is derived from the message
// text, which the caller owns.
func (c EngineConfig) Route(analysis model.WorkRequestAnalysis, assignment model.AssignmentInfo, defaultRoute types.Route) (bool, model.RoutingDecision) {
	shouldCreate := analysis.IsWorkRequest &&
		analysis.Confidence > c.CreationThreshold &&
		(assignment.HasAssignee() || assignment.IsAssignment)

	decision := model.RoutingDecision{
		Priority: analysis.Urgency.Priority(),
	}

	mentions := len(assignment.MentionedUserIDs)
	switch analysis.WorkType {
	case types.WorkTypeCalendar:
		decision.RouteTo = types.RouteDeveloper
		decision.DualRoute = mentions < c.CalendarDualRouteMentionLimit
		decision.Detail = model.CalendarDetail{
			Attendees: assignment.MentionedUserIDs,
			DualRoute: decision.DualRoute,
		}

	case types.WorkTypeOutreach:
		decision.RouteTo = types.RouteDeveloper
		decision.DualRoute = mentions < c.OutreachDualRouteMentionLimit
		decision.Detail = model.OutreachDetail{
			Recipients: assignment.MentionedUserIDs,
			DualRoute:  decision.DualRoute,
		}

	case types.WorkTypeCoding, types.WorkTypeDesign, types.WorkTypeAnalysis, types.WorkTypeSupport, types.WorkTypeGeneric:
		decision.RouteTo = defaultRoute
		decision.Detail = model.GenericDetail{
			Urgency: analysis.Urgency,
			Effort:  analysis.EstimatedEffort,
		}

	default:
		// Zero analysis of an empty message
		decision.RouteTo = defaultRoute
	}

	return shouldCreate, decision
}

// Route applies the default engine settings, see EngineConfig.Route
func Route(analysis model.WorkRequestAnalysis, assignment model.AssignmentInfo, defaultRoute types.Route) (bool, model.RoutingDecision) {
	return DefaultEngineConfig().Route(analysis, assignment, defaultRoute)
}
