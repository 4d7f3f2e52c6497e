package deadletter

import (
	"context"

	"github.com/opskit/incident-events/libs/db"
)

type PostgresStore struct {
	pool *db.Pool
}

func NewPostgresStore(pool *db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Append is idempotent on event_id: a crash between the dead-letter
// write and the offset commit redelivers the record, and the second
// write must not duplicate the entry.
func (s *PostgresStore) Append(ctx context.Context, e Entry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO dead_letter_events (event_id, event_type, incident_id, payload, last_error, attempts, failed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (event_id) DO NOTHING
	`, e.EventID, e.EventType, e.IncidentID, e.Payload, e.LastError, e.Attempts, e.FailedAt)
	return err
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT event_id, event_type, incident_id, payload, last_error, attempts, failed_at
		FROM dead_letter_events
		ORDER BY failed_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.EventID, &e.EventType, &e.IncidentID, &e.Payload, &e.LastError, &e.Attempts, &e.FailedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
