package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slugbotics/sluggo/internal/domain"
)

// TicketStatusRepository manages per-team custom statuses.
type TicketStatusRepository interface {
	Create(ctx context.Context, status *domain.TicketStatus) error
	Update(ctx context.Context, status *domain.TicketStatus) error
	GetByID(ctx context.Context, id string) (*domain.TicketStatus, error)
	ListByTeam(ctx context.Context, teamID string) ([]domain.TicketStatus, error)
	Deactivate(ctx context.Context, id string) error
}

type ticketStatusRepository struct {
	pool *pgxpool.Pool
}

// NewTicketStatusRepository constructs repository.
func NewTicketStatusRepository(pool *pgxpool.Pool) TicketStatusRepository {
	return &ticketStatusRepository{pool: pool}
}

func (r *ticketStatusRepository) Create(ctx context.Context, status *domain.TicketStatus) error {
	const query = `
        INSERT INTO ticket_statuses (team_id, title, activated_at)
        VALUES ($1,$2,NOW())
        RETURNING id, created_at, activated_at`
	return r.pool.QueryRow(ctx, query, status.TeamID, status.Title).
		Scan(&status.ID, &status.CreatedAt, &status.ActivatedAt)
}

func (r *ticketStatusRepository) Update(ctx context.Context, status *domain.TicketStatus) error {
	const query = `UPDATE ticket_statuses SET title=$1 WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, status.Title, status.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketStatusRepository) GetByID(ctx context.Context, id string) (*domain.TicketStatus, error) {
	const query = `
        SELECT id, team_id, title, created_at, activated_at, deactivated_at
        FROM ticket_statuses WHERE id=$1`
	var status domain.TicketStatus
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&status.ID,
		&status.TeamID,
		&status.Title,
		&status.CreatedAt,
		&status.ActivatedAt,
		&status.DeactivatedAt,
	); err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *ticketStatusRepository) ListByTeam(ctx context.Context, teamID string) ([]domain.TicketStatus, error) {
	const query = `
        SELECT id, team_id, title, created_at, activated_at, deactivated_at
        FROM ticket_statuses WHERE team_id=$1 AND deactivated_at IS NULL ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketStatus
	for rows.Next() {
		var status domain.TicketStatus
		if err := rows.Scan(&status.ID, &status.TeamID, &status.Title, &status.CreatedAt, &status.ActivatedAt, &status.DeactivatedAt); err != nil {
			return nil, err
		}
		result = append(result, status)
	}
	return result, rows.Err()
}

func (r *ticketStatusRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE ticket_statuses SET deactivated_at=NOW() WHERE id=$1 AND deactivated_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
