package deadletter

import (
	"context"
	"testing"
	"time"
)

func TestAppendIsIdempotentOnEventID(t *testing.T) {
	s := NewMemoryStore()
	e := Entry{
		EventID:    "ev-1",
		EventType:  "incident_created",
		IncidentID: 42,
		LastError:  "notifier unavailable",
		Attempts:   3,
		FailedAt:   time.Now().UTC(),
	}

	if err := s.Append(context.Background(), e); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := s.Append(context.Background(), e); err != nil {
		t.Fatalf("second Append failed: %v", err)
	}

	entries, err := s.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one entry, got %d", len(entries))
	}
	if entries[0].Attempts != 3 || entries[0].LastError != "notifier unavailable" {
		t.Fatalf("entry = %+v", entries[0])
	}
}

func TestListReturnsMostRecentFirst(t *testing.T) {
	s := NewMemoryStore()
	for i, id := range []string{"ev-1", "ev-2", "ev-3"} {
		err := s.Append(context.Background(), Entry{
			EventID:  id,
			FailedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	entries, err := s.List(context.Background(), 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("limit not applied: got %d entries", len(entries))
	}
	if entries[0].EventID != "ev-3" || entries[1].EventID != "ev-2" {
		t.Fatalf("wrong order: %s, %s", entries[0].EventID, entries[1].EventID)
	}
}
