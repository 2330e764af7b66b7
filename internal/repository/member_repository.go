package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slugbotics/sluggo/internal/domain"
)

// MemberRepository manages team membership rows.
type MemberRepository interface {
	Create(ctx context.Context, member *domain.Member) error
	Update(ctx context.Context, member *domain.Member) error
	GetByID(ctx context.Context, id string) (*domain.Member, error)
	GetByTeamAndUser(ctx context.Context, teamID, userID string) (*domain.Member, error)
	ListByTeam(ctx context.Context, teamID string) ([]domain.Member, error)
	Deactivate(ctx context.Context, id string) error
}

type memberRepository struct {
	pool *pgxpool.Pool
}

// NewMemberRepository constructs repository.
func NewMemberRepository(pool *pgxpool.Pool) MemberRepository {
	return &memberRepository{pool: pool}
}

const memberColumns = `id, team_id, user_id, role, bio, pronouns, created_at, activated_at, deactivated_at`

func (r *memberRepository) Create(ctx context.Context, member *domain.Member) error {
	const query = `
        INSERT INTO members (team_id, user_id, role, bio, pronouns)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		member.TeamID,
		member.UserID,
		member.Role,
		member.Bio,
		member.Pronouns,
	).Scan(&member.ID, &member.CreatedAt)
}

func (r *memberRepository) Update(ctx context.Context, member *domain.Member) error {
	const query = `
        UPDATE members SET role=$1, bio=$2, pronouns=$3, activated_at=$4
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		member.Role,
		member.Bio,
		member.Pronouns,
		member.ActivatedAt,
		member.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *memberRepository) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	const query = `SELECT ` + memberColumns + ` FROM members WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *memberRepository) GetByTeamAndUser(ctx context.Context, teamID, userID string) (*domain.Member, error) {
	const query = `SELECT ` + memberColumns + ` FROM members WHERE team_id=$1 AND user_id=$2`
	var member domain.Member
	if err := r.pool.QueryRow(ctx, query, teamID, userID).Scan(
		&member.ID,
		&member.TeamID,
		&member.UserID,
		&member.Role,
		&member.Bio,
		&member.Pronouns,
		&member.CreatedAt,
		&member.ActivatedAt,
		&member.DeactivatedAt,
	); err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) ListByTeam(ctx context.Context, teamID string) ([]domain.Member, error) {
	const query = `SELECT ` + memberColumns + ` FROM members WHERE team_id=$1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Member
	for rows.Next() {
		var member domain.Member
		if err := rows.Scan(&member.ID, &member.TeamID, &member.UserID, &member.Role, &member.Bio, &member.Pronouns, &member.CreatedAt, &member.ActivatedAt, &member.DeactivatedAt); err != nil {
			return nil, err
		}
		result = append(result, member)
	}
	return result, rows.Err()
}

func (r *memberRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE members SET deactivated_at=NOW() WHERE id=$1 AND deactivated_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *memberRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Member, error) {
	var member domain.Member
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&member.ID,
		&member.TeamID,
		&member.UserID,
		&member.Role,
		&member.Bio,
		&member.Pronouns,
		&member.CreatedAt,
		&member.ActivatedAt,
		&member.DeactivatedAt,
	); err != nil {
		return nil, err
	}
	return &member, nil
}
