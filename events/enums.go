package events

// Type discriminates the event kinds carried on the incident topic.
type Type string

const (
	TypeIncidentCreated Type = "incident_created"
	TypeStatusUpdated   Type = "status_updated"
)

// Known reports whether this build understands the event type.
func (t Type) Known() bool {
	return t == TypeIncidentCreated || t == TypeStatusUpdated
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Rank orders priorities from low (0) to critical (3); unknown is -1.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	case PriorityCritical:
		return 3
	}
	return -1
}

type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// OpenEnded reports whether the incident still needs attention.
func (s Status) OpenEnded() bool {
	return s == StatusOpen || s == StatusInProgress
}

type Category string

const (
	CategoryHardware Category = "hardware"
	CategorySoftware Category = "software"
	CategoryNetwork  Category = "network"
	CategorySecurity Category = "security"
	CategoryOther    Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryHardware, CategorySoftware, CategoryNetwork, CategorySecurity, CategoryOther:
		return true
	}
	return false
}
