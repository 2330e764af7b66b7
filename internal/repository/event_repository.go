package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slugbotics/sluggo/internal/domain"
)

// EventRepository persists the team activity log.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	ListByTeam(ctx context.Context, teamID string, limit, offset int) ([]domain.Event, error)
}

type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository constructs repository.
func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &eventRepository{pool: pool}
}

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	const query = `
        INSERT INTO events (team_id, user_id, event_type, description, object_id)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		event.TeamID,
		event.UserID,
		event.EventType,
		event.Description,
		event.ObjectID,
	).Scan(&event.ID, &event.CreatedAt)
}

func (r *eventRepository) ListByTeam(ctx context.Context, teamID string, limit, offset int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, team_id, user_id, event_type, description, object_id, created_at
        FROM events WHERE team_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, teamID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Event
	for rows.Next() {
		var event domain.Event
		if err := rows.Scan(&event.ID, &event.TeamID, &event.UserID, &event.EventType, &event.Description, &event.ObjectID, &event.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
