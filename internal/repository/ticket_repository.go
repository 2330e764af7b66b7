package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slugbotics/sluggo/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Ticket, error)
	ListByTeam(ctx context.Context, teamID string, limit, offset int) ([]domain.Ticket, error)
	// ListForUser returns the team's active tickets owned by or assigned to
	// the user.
	ListForUser(ctx context.Context, teamID, userID string) ([]domain.Ticket, error)
	Deactivate(ctx context.Context, id string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_number, team_id, owner_id, assigned_user_id, status_id,
               title, description, created_at, activated_at, deactivated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, team_id, owner_id, assigned_user_id, status_id, title, description, activated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
        RETURNING id, created_at, activated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.TeamID,
		ticket.OwnerID,
		ticket.AssignedUserID,
		ticket.StatusID,
		ticket.Title,
		ticket.Description,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.ActivatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET assigned_user_id=$1, status_id=$2, title=$3, description=$4, deactivated_at=$5
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.AssignedUserID,
		ticket.StatusID,
		ticket.Title,
		ticket.Description,
		ticket.DeactivatedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.TeamID,
		&ticket.OwnerID,
		&ticket.AssignedUserID,
		&ticket.StatusID,
		&ticket.Title,
		&ticket.Description,
		&ticket.CreatedAt,
		&ticket.ActivatedAt,
		&ticket.DeactivatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// GetByIDs preserves the order of the requested ids, skipping unknown ones.
func (r *ticketRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Ticket, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id = ANY($1)`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	fetched, err := scanTickets(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Ticket, len(fetched))
	for _, ticket := range fetched {
		byID[ticket.ID] = ticket
	}
	ordered := make([]domain.Ticket, 0, len(ids))
	for _, id := range ids {
		if ticket, ok := byID[id]; ok {
			ordered = append(ordered, ticket)
		}
	}
	return ordered, nil
}

func (r *ticketRepository) ListByTeam(ctx context.Context, teamID string, limit, offset int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `SELECT ` + ticketColumns + `
        FROM tickets WHERE team_id=$1 AND deactivated_at IS NULL
        ORDER BY ticket_number LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, teamID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListForUser(ctx context.Context, teamID, userID string) ([]domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + `
        FROM tickets
        WHERE team_id=$1 AND deactivated_at IS NULL
          AND (owner_id=$2 OR assigned_user_id=$2)
        ORDER BY ticket_number`
	rows, err := r.pool.Query(ctx, query, teamID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE tickets SET deactivated_at=NOW() WHERE id=$1 AND deactivated_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.TicketNumber,
			&ticket.TeamID,
			&ticket.OwnerID,
			&ticket.AssignedUserID,
			&ticket.StatusID,
			&ticket.Title,
			&ticket.Description,
			&ticket.CreatedAt,
			&ticket.ActivatedAt,
			&ticket.DeactivatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
