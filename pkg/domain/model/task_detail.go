package model

import (
	"slices"

	"github.com/secmon-lab/kottos/pkg/domain/types"
)

// DetailKind discriminates TaskDetail variants
type DetailKind string

const (
	DetailKindGeneric  DetailKind = "generic"
	DetailKindCalendar DetailKind = "calendar"
	DetailKindOutreach DetailKind = "outreach"
	DetailKindTracker  DetailKind = "tracker"
)

// TaskDetail carries the fields that only make sense for one kind of task.
// The set of variants is closed; switch over them exhaustively.
type TaskDetail interface {
	Kind() DetailKind
	isTaskDetail()
}

// GenericDetail is attached to coding, design, analysis, support and generic work
type GenericDetail struct {
	Urgency types.Urgency
	Effort  types.Effort
}

// CalendarDetail is attached to meeting/scheduling work
type CalendarDetail struct {
	Attendees []types.UserID
	DualRoute bool
}

// OutreachDetail is attached to e-mail/outreach work
type OutreachDetail struct {
	Recipients []types.UserID
	DualRoute  bool
}

// TrackerDetail is attached to tasks imported from an issue tracker
type TrackerDetail struct {
	URL           string
	TrackerStatus string
	Sprint        string
	StoryPoints   float64
	Labels        []string
}

func (GenericDetail) Kind() DetailKind  { return DetailKindGeneric }
func (CalendarDetail) Kind() DetailKind { return DetailKindCalendar }
func (OutreachDetail) Kind() DetailKind { return DetailKindOutreach }
func (TrackerDetail) Kind() DetailKind  { return DetailKindTracker }

func (GenericDetail) isTaskDetail()  {}
func (CalendarDetail) isTaskDetail() {}
func (OutreachDetail) isTaskDetail() {}
func (TrackerDetail) isTaskDetail()  {}

func cloneDetail(d TaskDetail) TaskDetail {
	switch v := d.(type) {
	case nil:
		return nil
	case GenericDetail:
		return v
	case CalendarDetail:
		v.Attendees = slices.Clone(v.Attendees)
		return v
	case OutreachDetail:
		v.Recipients = slices.Clone(v.Recipients)
		return v
	case TrackerDetail:
		v.Labels = slices.Clone(v.Labels)
		return v
	default:
		return d
	}
}

func detailEqual(a, b TaskDetail) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case GenericDetail:
		y, ok := b.(GenericDetail)
		return ok && x == y
	case CalendarDetail:
		y, ok := b.(CalendarDetail)
		return ok && x.DualRoute == y.DualRoute && slices.Equal(x.Attendees, y.Attendees)
	case OutreachDetail:
		y, ok := b.(OutreachDetail)
		return ok && x.DualRoute == y.DualRoute && slices.Equal(x.Recipients, y.Recipients)
	case TrackerDetail:
		y, ok := b.(TrackerDetail)
		return ok && x.URL == y.URL && x.TrackerStatus == y.TrackerStatus &&
			x.Sprint == y.Sprint && x.StoryPoints == y.StoryPoints && slices.Equal(x.Labels, y.Labels)
	default:
		return false
	}
}
