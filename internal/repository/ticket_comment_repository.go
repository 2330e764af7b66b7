package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slugbotics/sluggo/internal/domain"
)

// TicketCommentRepository manages ticket comments. Comments are append-only
// apart from soft deactivation.
type TicketCommentRepository interface {
	Create(ctx context.Context, comment *domain.TicketComment) error
	GetByID(ctx context.Context, id string) (*domain.TicketComment, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketComment, error)
	Deactivate(ctx context.Context, id string) error
}

type ticketCommentRepository struct {
	pool *pgxpool.Pool
}

// NewTicketCommentRepository constructs repository.
func NewTicketCommentRepository(pool *pgxpool.Pool) TicketCommentRepository {
	return &ticketCommentRepository{pool: pool}
}

func (r *ticketCommentRepository) Create(ctx context.Context, comment *domain.TicketComment) error {
	const query = `
        INSERT INTO ticket_comments (ticket_id, team_id, author_id, content, activated_at)
        VALUES ($1,$2,$3,$4,NOW())
        RETURNING id, created_at, activated_at`
	return r.pool.QueryRow(ctx, query,
		comment.TicketID,
		comment.TeamID,
		comment.AuthorID,
		comment.Content,
	).Scan(&comment.ID, &comment.CreatedAt, &comment.ActivatedAt)
}

func (r *ticketCommentRepository) GetByID(ctx context.Context, id string) (*domain.TicketComment, error) {
	const query = `
        SELECT id, ticket_id, team_id, author_id, content, created_at, activated_at, deactivated_at
        FROM ticket_comments WHERE id=$1`
	var comment domain.TicketComment
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&comment.ID,
		&comment.TicketID,
		&comment.TeamID,
		&comment.AuthorID,
		&comment.Content,
		&comment.CreatedAt,
		&comment.ActivatedAt,
		&comment.DeactivatedAt,
	); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *ticketCommentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketComment, error) {
	const query = `
        SELECT id, ticket_id, team_id, author_id, content, created_at, activated_at, deactivated_at
        FROM ticket_comments WHERE ticket_id=$1 AND deactivated_at IS NULL ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketComment
	for rows.Next() {
		var comment domain.TicketComment
		if err := rows.Scan(&comment.ID, &comment.TicketID, &comment.TeamID, &comment.AuthorID, &comment.Content, &comment.CreatedAt, &comment.ActivatedAt, &comment.DeactivatedAt); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}

func (r *ticketCommentRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE ticket_comments SET deactivated_at=NOW() WHERE id=$1 AND deactivated_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
