package types

import "github.com/m-mizutani/goerr/v2"

// Priority is the persisted priority of a task
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// IsValid checks if the priority is valid
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Rank orders priorities from low (1) to urgent (4). Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	}
	return 0
}

func (p Priority) String() string {
	return string(p)
}

// ParsePriority parses a string into a Priority
func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if !p.IsValid() {
		return "", goerr.New("invalid priority", goerr.V("priority", s))
	}
	return p, nil
}

// Urgency is the detector's estimate of how soon work is needed
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
	UrgencyUrgent Urgency = "urgent"
)

// IsValid checks if the urgency is valid
func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyUrgent:
		return true
	}
	return false
}

// Priority maps an urgency onto the task priority of the same level
func (u Urgency) Priority() Priority {
	switch u {
	case UrgencyLow:
		return PriorityLow
	case UrgencyHigh:
		return PriorityHigh
	case UrgencyUrgent:
		return PriorityUrgent
	default:
		return PriorityMedium
	}
}

func (u Urgency) String() string {
	return string(u)
}
