// Package policy decides whether an incident event warrants escalation.
// Decide is a pure function: no clock, no I/O, no persisted state.
package policy

import (
	"time"

	"github.com/opskit/incident-events/events"
)

type Tier string

const (
	TierNone   Tier = "none"
	TierLead   Tier = "lead"
	TierOnCall Tier = "oncall"
)

type Input struct {
	Type      events.Type
	Priority  events.Priority
	NewStatus events.Status
	// TimeInState is accepted for future delay-based rules ("escalate
	// if still open after N hours"). The current policy ignores it and
	// escalates immediately or not at all.
	TimeInState time.Duration
}

type Decision struct {
	Escalate bool
	Tier     Tier
	Reason   string
}

func Decide(in Input) Decision {
	if in.Type == events.TypeStatusUpdated && !in.NewStatus.OpenEnded() {
		return Decision{Tier: TierNone, Reason: "incident no longer open-ended"}
	}
	if in.Priority == events.PriorityCritical {
		return Decision{Escalate: true, Tier: TierOnCall, Reason: "critical priority pages on-call"}
	}
	if in.Priority.Rank() >= events.PriorityHigh.Rank() {
		return Decision{Escalate: true, Tier: TierLead, Reason: "high priority escalates to lead immediately"}
	}
	return Decision{Tier: TierNone, Reason: "priority below escalation threshold"}
}
