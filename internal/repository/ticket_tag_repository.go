package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slugbotics/sluggo/internal/domain"
	"github.com/slugbotics/sluggo/pkg/apperrors"
)

// TagDiff reports which associations a mutation actually touched, so the
// caller can publish attach/detach events.
type TagDiff struct {
	Attached []string
	Detached []string
}

// TicketTagRepository manages the ticket/tag association set.
type TicketTagRepository interface {
	// AttachAll creates association rows for each tag not already attached.
	// Already-attached tags are left untouched. Every tag id must name an
	// active tag in the ticket's team.
	AttachAll(ctx context.Context, ticket *domain.Ticket, tagIDs []string) ([]string, error)
	// Reconcile brings the ticket's tag set to exactly desired: attaches the
	// missing tags and detaches the surplus ones in one transaction.
	// Associations for tags that remain keep their original rows.
	Reconcile(ctx context.Context, ticket *domain.Ticket, desired []string) (*TagDiff, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketTag, error)
}

type ticketTagRepository struct {
	pool *pgxpool.Pool
}

// NewTicketTagRepository constructs repository.
func NewTicketTagRepository(pool *pgxpool.Pool) TicketTagRepository {
	return &ticketTagRepository{pool: pool}
}

func (r *ticketTagRepository) AttachAll(ctx context.Context, ticket *domain.Ticket, tagIDs []string) ([]string, error) {
	tagIDs = dedupe(tagIDs)
	if len(tagIDs) == 0 {
		return nil, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := validateTeamTags(ctx, tx, ticket.TeamID, tagIDs); err != nil {
		return nil, err
	}
	attached, err := attachTags(ctx, tx, ticket, tagIDs)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return attached, nil
}

func (r *ticketTagRepository) Reconcile(ctx context.Context, ticket *domain.Ticket, desired []string) (*TagDiff, error) {
	desired = dedupe(desired)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	rows, err := tx.Query(ctx, `SELECT tag_id FROM ticket_tags WHERE ticket_id=$1 FOR UPDATE`, ticket.ID)
	if err != nil {
		return nil, err
	}
	current := make(map[string]bool)
	for rows.Next() {
		var tagID string
		if err := rows.Scan(&tagID); err != nil {
			rows.Close()
			return nil, err
		}
		current[tagID] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(desired))
	var toAttach []string
	for _, tagID := range desired {
		wanted[tagID] = true
		if !current[tagID] {
			toAttach = append(toAttach, tagID)
		}
	}
	var toDetach []string
	for tagID := range current {
		if !wanted[tagID] {
			toDetach = append(toDetach, tagID)
		}
	}

	if len(toAttach) > 0 {
		if err := validateTeamTags(ctx, tx, ticket.TeamID, toAttach); err != nil {
			return nil, err
		}
	}

	diff := &TagDiff{}
	if len(toDetach) > 0 {
		const query = `DELETE FROM ticket_tags WHERE ticket_id=$1 AND tag_id = ANY($2)`
		if _, err := tx.Exec(ctx, query, ticket.ID, toDetach); err != nil {
			return nil, err
		}
		diff.Detached = toDetach
	}
	if len(toAttach) > 0 {
		attached, err := attachTags(ctx, tx, ticket, toAttach)
		if err != nil {
			return nil, err
		}
		diff.Attached = attached
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return diff, nil
}

func (r *ticketTagRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketTag, error) {
	const query = `
        SELECT id, ticket_id, tag_id, team_id, created_at
        FROM ticket_tags WHERE ticket_id=$1 ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketTag
	for rows.Next() {
		var association domain.TicketTag
		if err := rows.Scan(&association.ID, &association.TicketID, &association.TagID, &association.TeamID, &association.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, association)
	}
	return result, rows.Err()
}

// validateTeamTags fails with NOT_FOUND unless every id names an active tag
// in the team.
func validateTeamTags(ctx context.Context, tx pgx.Tx, teamID string, tagIDs []string) error {
	const query = `SELECT id FROM tags WHERE team_id=$1 AND id = ANY($2) AND deactivated_at IS NULL`
	rows, err := tx.Query(ctx, query, teamID, tagIDs)
	if err != nil {
		return err
	}
	found := make(map[string]bool, len(tagIDs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		found[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	var missing []string
	for _, id := range tagIDs {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewNotFound("tag", map[string]any{"tag_ids": missing})
	}
	return nil
}

func attachTags(ctx context.Context, tx pgx.Tx, ticket *domain.Ticket, tagIDs []string) ([]string, error) {
	const query = `
        INSERT INTO ticket_tags (ticket_id, tag_id, team_id)
        SELECT $1, unnest($2::uuid[]), $3
        ON CONFLICT (ticket_id, tag_id) DO NOTHING
        RETURNING tag_id`
	rows, err := tx.Query(ctx, query, ticket.ID, tagIDs, ticket.TeamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attached []string
	for rows.Next() {
		var tagID string
		if err := rows.Scan(&tagID); err != nil {
			return nil, err
		}
		attached = append(attached, tagID)
	}
	return attached, rows.Err()
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
