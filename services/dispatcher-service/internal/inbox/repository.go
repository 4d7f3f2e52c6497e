package inbox

import (
	"context"

	"github.com/opskit/incident-events/libs/db"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Seen(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM processed_events WHERE event_id = $1)
	`, eventID).Scan(&exists)
	return exists, err
}

func (r *Repository) Mark(ctx context.Context, eventID string, eventType string, outcome string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO processed_events (event_id, event_type, outcome)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id) DO NOTHING
	`, eventID, eventType, outcome)
	return err
}
