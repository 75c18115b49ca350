package types

import "github.com/m-mizutani/goerr/v2"

// WorkType is the category of work a message asks for
type WorkType string

const (
	WorkTypeCoding   WorkType = "coding"
	WorkTypeDesign   WorkType = "design"
	WorkTypeAnalysis WorkType = "analysis"
	WorkTypeSupport  WorkType = "support"
	WorkTypeCalendar WorkType = "calendar"
	WorkTypeOutreach WorkType = "outreach"
	WorkTypeGeneric  WorkType = "generic"
)

// AllWorkTypes returns work types in bucket priority order: the first
// matching bucket wins when a message qualifies for several.
func AllWorkTypes() []WorkType {
	return []WorkType{
		WorkTypeCalendar,
		WorkTypeOutreach,
		WorkTypeCoding,
		WorkTypeDesign,
		WorkTypeAnalysis,
		WorkTypeSupport,
		WorkTypeGeneric,
	}
}

// IsValid checks if the work type is valid
func (w WorkType) IsValid() bool {
	for _, v := range AllWorkTypes() {
		if v == w {
			return true
		}
	}
	return false
}

func (w WorkType) String() string {
	return string(w)
}

// ParseWorkType parses a string into a WorkType
func ParseWorkType(s string) (WorkType, error) {
	w := WorkType(s)
	if !w.IsValid() {
		return "", goerr.New("invalid work type", goerr.V("work_type", s))
	}
	return w, nil
}

// Effort is a coarse estimate of how much work a request needs
type Effort string

const (
	EffortQuick  Effort = "quick"
	EffortMedium Effort = "medium"
	EffortLarge  Effort = "large"
)

func (e Effort) String() string {
	return string(e)
}
