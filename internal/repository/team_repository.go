package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slugbotics/sluggo/internal/domain"
)

// TeamRepository manages persistence for teams, including the per-team
// ticket number counter.
type TeamRepository interface {
	Create(ctx context.Context, team *domain.Team) error
	Update(ctx context.Context, team *domain.Team) error
	GetByID(ctx context.Context, id string) (*domain.Team, error)
	ListActive(ctx context.Context) ([]domain.Team, error)
	Deactivate(ctx context.Context, id string) error
	// ReserveTicketNumber atomically increments the team's ticket head and
	// returns the new value. The increment is a single UPDATE so concurrent
	// reservations for the same team never observe the same head.
	ReserveTicketNumber(ctx context.Context, teamID string) (int, error)
}

type teamRepository struct {
	pool *pgxpool.Pool
}

// NewTeamRepository constructs repository.
func NewTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &teamRepository{pool: pool}
}

func (r *teamRepository) Create(ctx context.Context, team *domain.Team) error {
	const query = `
        INSERT INTO teams (name, description, activated_at)
        VALUES ($1,$2,NOW())
        RETURNING id, ticket_head, created_at, activated_at`
	return r.pool.QueryRow(ctx, query,
		team.Name,
		team.Description,
	).Scan(&team.ID, &team.TicketHead, &team.CreatedAt, &team.ActivatedAt)
}

func (r *teamRepository) Update(ctx context.Context, team *domain.Team) error {
	const query = `
        UPDATE teams SET name=$1, description=$2
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query,
		team.Name,
		team.Description,
		team.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *teamRepository) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	const query = `
        SELECT id, name, description, ticket_head, created_at, activated_at, deactivated_at
        FROM teams WHERE id=$1`
	var team domain.Team
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&team.ID,
		&team.Name,
		&team.Description,
		&team.TicketHead,
		&team.CreatedAt,
		&team.ActivatedAt,
		&team.DeactivatedAt,
	); err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *teamRepository) ListActive(ctx context.Context) ([]domain.Team, error) {
	const query = `
        SELECT id, name, description, ticket_head, created_at, activated_at, deactivated_at
        FROM teams WHERE deactivated_at IS NULL ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Team
	for rows.Next() {
		var team domain.Team
		if err := rows.Scan(&team.ID, &team.Name, &team.Description, &team.TicketHead, &team.CreatedAt, &team.ActivatedAt, &team.DeactivatedAt); err != nil {
			return nil, err
		}
		result = append(result, team)
	}
	return result, rows.Err()
}

func (r *teamRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE teams SET deactivated_at=NOW() WHERE id=$1 AND deactivated_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *teamRepository) ReserveTicketNumber(ctx context.Context, teamID string) (int, error) {
	const query = `
        UPDATE teams SET ticket_head = ticket_head + 1
        WHERE id=$1
        RETURNING ticket_head`
	var number int
	if err := r.pool.QueryRow(ctx, query, teamID).Scan(&number); err != nil {
		return 0, err
	}
	return number, nil
}
