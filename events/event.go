// Package events defines the versioned wire schema for incident
// lifecycle events. Both event types share one flat JSON envelope on a
// single topic, discriminated by event_type.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the wire schema this package produces. Decode
// rejects records claiming any other version.
const SchemaVersion = 1

var (
	ErrMalformed          = errors.New("malformed event payload")
	ErrUnsupportedVersion = errors.New("unsupported schema version")
	ErrIncompleteEnvelope = errors.New("incomplete event envelope")
	ErrUnknownType        = errors.New("unknown event type")
)

// Incident is the snapshot of the externally-owned incident record that
// an event is derived from.
type Incident struct {
	ID         int64
	Title      string
	Priority   Priority
	Status     Status
	Category   Category
	ReportedBy string
	AssignedTo string
}

// Event is the envelope appended to the incident topic. Payload fields
// that do not belong to the event type stay empty. Events are immutable
// once published; later state is described by appending new events.
type Event struct {
	EventID       string    `json:"event_id"`
	SchemaVersion int       `json:"schema_version"`
	Type          Type      `json:"event_type"`
	IncidentID    int64     `json:"incident_id"`
	OccurredAt    time.Time `json:"occurred_at"`
	Priority      Priority  `json:"priority"`
	Actor         string    `json:"actor,omitempty"`

	// incident_created payload.
	Title    string   `json:"title,omitempty"`
	Status   Status   `json:"status,omitempty"`
	Category Category `json:"category,omitempty"`

	// status_updated payload.
	OldStatus Status `json:"old_status,omitempty"`
	NewStatus Status `json:"new_status,omitempty"`

	// Carried by both payloads.
	ReportedBy string `json:"reported_by,omitempty"`
	AssignedTo string `json:"assigned_to,omitempty"`
}

func NewIncidentCreated(inc Incident, actor string) Event {
	return Event{
		EventID:       uuid.NewString(),
		SchemaVersion: SchemaVersion,
		Type:          TypeIncidentCreated,
		IncidentID:    inc.ID,
		OccurredAt:    time.Now().UTC(),
		Priority:      inc.Priority,
		Actor:         actor,
		Title:         inc.Title,
		Status:        inc.Status,
		Category:      inc.Category,
		ReportedBy:    inc.ReportedBy,
		AssignedTo:    inc.AssignedTo,
	}
}

func NewStatusUpdated(inc Incident, oldStatus, newStatus Status, actor string) Event {
	return Event{
		EventID:       uuid.NewString(),
		SchemaVersion: SchemaVersion,
		Type:          TypeStatusUpdated,
		IncidentID:    inc.ID,
		OccurredAt:    time.Now().UTC(),
		Priority:      inc.Priority,
		Actor:         actor,
		OldStatus:     oldStatus,
		NewStatus:     newStatus,
		ReportedBy:    inc.ReportedBy,
		AssignedTo:    inc.AssignedTo,
	}
}

func (e Event) checkEnvelope() error {
	if e.SchemaVersion != SchemaVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, e.SchemaVersion)
	}
	if e.EventID == "" || e.Type == "" || e.IncidentID <= 0 || e.OccurredAt.IsZero() {
		return ErrIncompleteEnvelope
	}
	return nil
}

// Validate enforces the per-type payload constraints. Publishers call
// it before writing; the dispatcher calls it after decoding known
// types, treating failure as a permanent (dead-letter) outcome.
func (e Event) Validate() error {
	if err := e.checkEnvelope(); err != nil {
		return err
	}
	if !e.Priority.Valid() {
		return fmt.Errorf("%w: priority %q", ErrMalformed, e.Priority)
	}
	switch e.Type {
	case TypeIncidentCreated:
		if e.Title == "" {
			return fmt.Errorf("%w: missing title", ErrMalformed)
		}
		if !e.Status.Valid() {
			return fmt.Errorf("%w: status %q", ErrMalformed, e.Status)
		}
		if !e.Category.Valid() {
			return fmt.Errorf("%w: category %q", ErrMalformed, e.Category)
		}
		if e.ReportedBy == "" {
			return fmt.Errorf("%w: missing reported_by", ErrMalformed)
		}
	case TypeStatusUpdated:
		if !e.OldStatus.Valid() || !e.NewStatus.Valid() {
			return fmt.Errorf("%w: status transition %q -> %q", ErrMalformed, e.OldStatus, e.NewStatus)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, e.Type)
	}
	return nil
}

func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses a topic record. Unknown event types return the decoded
// event together with ErrUnknownType so callers can route them to the
// no-op path; every other error means the record is not usable.
func Decode(raw []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(raw, &e); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := e.checkEnvelope(); err != nil {
		return Event{}, err
	}
	if !e.Type.Known() {
		return e, fmt.Errorf("%w: %q", ErrUnknownType, e.Type)
	}
	return e, nil
}

// PartitionKey is the kafka message key. Every event for one incident
// shares it, so they land on one partition and stay ordered.
func (e Event) PartitionKey() []byte {
	return []byte("incident_" + strconv.FormatInt(e.IncidentID, 10))
}

// StatusSnapshot is the incident status the event observed: the initial
// status for incident_created, the new status for status_updated.
func (e Event) StatusSnapshot() Status {
	if e.Type == TypeStatusUpdated {
		return e.NewStatus
	}
	return e.Status
}
