// Package deadletter is the durable record of events whose processing
// was abandoned: the handler chain hit a permanent failure or ran out
// of retries. Every abandoned record is written here before its offset
// is committed, so nothing disappears silently.
package deadletter

import (
	"context"
	"time"
)

type Entry struct {
	EventID    string
	EventType  string
	IncidentID int64
	// Payload is the raw record value as fetched, so operators can
	// inspect or replay exactly what failed.
	Payload   []byte
	LastError string
	Attempts  int
	FailedAt  time.Time
}

type Store interface {
	Append(ctx context.Context, e Entry) error
	List(ctx context.Context, limit int) ([]Entry, error)
}
