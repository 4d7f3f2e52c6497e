package policy

import (
	"testing"

	"github.com/opskit/incident-events/events"
)

func TestCriticalPagesOnCall(t *testing.T) {
	d := Decide(Input{Type: events.TypeIncidentCreated, Priority: events.PriorityCritical})
	if !d.Escalate || d.Tier != TierOnCall {
		t.Fatalf("critical created: got %+v, want escalate to oncall", d)
	}
}

func TestHighEscalatesImmediately(t *testing.T) {
	// Fresh event, zero time in state: no delay window applies.
	d := Decide(Input{Type: events.TypeIncidentCreated, Priority: events.PriorityHigh, TimeInState: 0})
	if !d.Escalate || d.Tier != TierLead {
		t.Fatalf("high created: got %+v, want immediate escalation to lead", d)
	}
}

func TestLowAndMediumNeverEscalate(t *testing.T) {
	for _, p := range []events.Priority{events.PriorityLow, events.PriorityMedium} {
		d := Decide(Input{Type: events.TypeIncidentCreated, Priority: p})
		if d.Escalate || d.Tier != TierNone {
			t.Fatalf("%s created: got %+v, want no escalation", p, d)
		}
	}
}

func TestSettledStatusNeverEscalates(t *testing.T) {
	for _, s := range []events.Status{events.StatusResolved, events.StatusClosed} {
		d := Decide(Input{
			Type:      events.TypeStatusUpdated,
			Priority:  events.PriorityCritical,
			NewStatus: s,
		})
		if d.Escalate {
			t.Fatalf("critical update to %s: got %+v, want no escalation", s, d)
		}
	}
}

func TestOpenEndedStatusStillEscalates(t *testing.T) {
	d := Decide(Input{
		Type:      events.TypeStatusUpdated,
		Priority:  events.PriorityCritical,
		NewStatus: events.StatusInProgress,
	})
	if !d.Escalate || d.Tier != TierOnCall {
		t.Fatalf("critical update to in_progress: got %+v, want oncall", d)
	}
}

func TestDecideIsPure(t *testing.T) {
	in := Input{Type: events.TypeIncidentCreated, Priority: events.PriorityHigh}
	first := Decide(in)
	for i := 0; i < 3; i++ {
		if Decide(in) != first {
			t.Fatal("same input must yield same decision")
		}
	}
}
