package inbox

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Repository struct {
	db Execer
}

func NewRepository(db Execer) *Repository {
	return &Repository{db: db}
}

// Record inserts the event id and reports whether it was first seen. A
// duplicate insert hits the unique constraint and returns (false, nil).
func (r *Repository) Record(ctx context.Context, eventID, eventType string) (bool, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO inbox_events (event_id, event_type)
		VALUES ($1, $2)
	`, eventID, eventType)
	if err == nil {
		return true, nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return false, nil
	}
	return false, err
}
