package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slugbotics/sluggo/internal/domain"
)

// TagRepository manages per-team tags.
type TagRepository interface {
	Create(ctx context.Context, tag *domain.Tag) error
	GetByID(ctx context.Context, id string) (*domain.Tag, error)
	ListByTeam(ctx context.Context, teamID string) ([]domain.Tag, error)
	ListByIDs(ctx context.Context, teamID string, ids []string) ([]domain.Tag, error)
	Deactivate(ctx context.Context, id string) error
}

type tagRepository struct {
	pool *pgxpool.Pool
}

// NewTagRepository constructs repository.
func NewTagRepository(pool *pgxpool.Pool) TagRepository {
	return &tagRepository{pool: pool}
}

func (r *tagRepository) Create(ctx context.Context, tag *domain.Tag) error {
	const query = `
        INSERT INTO tags (team_id, title)
        VALUES ($1,$2)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, tag.TeamID, tag.Title).Scan(&tag.ID, &tag.CreatedAt)
}

func (r *tagRepository) GetByID(ctx context.Context, id string) (*domain.Tag, error) {
	const query = `
        SELECT id, team_id, title, created_at, deactivated_at
        FROM tags WHERE id=$1`
	var tag domain.Tag
	if err := r.pool.QueryRow(ctx, query, id).Scan(&tag.ID, &tag.TeamID, &tag.Title, &tag.CreatedAt, &tag.DeactivatedAt); err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) ListByTeam(ctx context.Context, teamID string) ([]domain.Tag, error) {
	const query = `
        SELECT id, team_id, title, created_at, deactivated_at
        FROM tags WHERE team_id=$1 AND deactivated_at IS NULL ORDER BY title`
	rows, err := r.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTags(rows)
}

func (r *tagRepository) ListByIDs(ctx context.Context, teamID string, ids []string) ([]domain.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `
        SELECT id, team_id, title, created_at, deactivated_at
        FROM tags WHERE team_id=$1 AND id = ANY($2) AND deactivated_at IS NULL`
	rows, err := r.pool.Query(ctx, query, teamID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTags(rows)
}

func (r *tagRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE tags SET deactivated_at=NOW() WHERE id=$1 AND deactivated_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTags(rows pgx.Rows) ([]domain.Tag, error) {
	var result []domain.Tag
	for rows.Next() {
		var tag domain.Tag
		if err := rows.Scan(&tag.ID, &tag.TeamID, &tag.Title, &tag.CreatedAt, &tag.DeactivatedAt); err != nil {
			return nil, err
		}
		result = append(result, tag)
	}
	return result, rows.Err()
}
