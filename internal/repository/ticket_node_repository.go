package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slugbotics/sluggo/internal/tree"
)

// ticketNodeRepository persists materialized-path tree nodes. It satisfies
// tree.NodeStore; path arithmetic stays in the tree package and this layer
// only translates it to SQL.
type ticketNodeRepository struct {
	pool *pgxpool.Pool
}

// NewTicketNodeRepository constructs a tree.NodeStore backed by postgres.
func NewTicketNodeRepository(pool *pgxpool.Pool) tree.NodeStore {
	return &ticketNodeRepository{pool: pool}
}

func (r *ticketNodeRepository) Insert(ctx context.Context, node *tree.Node) error {
	const query = `
        INSERT INTO ticket_nodes (ticket_id, team_id, path, depth)
        VALUES ($1,$2,$3,$4)`
	_, err := r.pool.Exec(ctx, query, node.TicketID, node.TeamID, node.Path, node.Depth)
	return err
}

func (r *ticketNodeRepository) GetByTicket(ctx context.Context, ticketID string) (*tree.Node, error) {
	const query = `
        SELECT ticket_id, team_id, path, depth
        FROM ticket_nodes WHERE ticket_id=$1`
	var node tree.Node
	err := r.pool.QueryRow(ctx, query, ticketID).Scan(&node.TicketID, &node.TeamID, &node.Path, &node.Depth)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func (r *ticketNodeRepository) LastSiblingPath(ctx context.Context, teamID, pathPrefix string, depth int) (string, error) {
	const query = `
        SELECT COALESCE(MAX(path), '')
        FROM ticket_nodes
        WHERE team_id=$1 AND depth=$2 AND path LIKE $3 || '%'`
	var last string
	if err := r.pool.QueryRow(ctx, query, teamID, depth, pathPrefix).Scan(&last); err != nil {
		return "", err
	}
	return last, nil
}

func (r *ticketNodeRepository) ListChildren(ctx context.Context, teamID, pathPrefix string, depth int) ([]tree.Node, error) {
	const query = `
        SELECT ticket_id, team_id, path, depth
        FROM ticket_nodes
        WHERE team_id=$1 AND depth=$2 AND path LIKE $3 || '%'
        ORDER BY path`
	rows, err := r.pool.Query(ctx, query, teamID, depth, pathPrefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNodes(rows)
}

func (r *ticketNodeRepository) ListByPaths(ctx context.Context, teamID string, paths []string) ([]tree.Node, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	const query = `
        SELECT ticket_id, team_id, path, depth
        FROM ticket_nodes
        WHERE team_id=$1 AND path = ANY($2)
        ORDER BY depth`
	rows, err := r.pool.Query(ctx, query, teamID, paths)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNodes(rows)
}

func (r *ticketNodeRepository) MaxSubtreeDepth(ctx context.Context, teamID, pathPrefix string) (int, error) {
	const query = `
        SELECT COALESCE(MAX(depth), 0)
        FROM ticket_nodes
        WHERE team_id=$1 AND path LIKE $2 || '%'`
	var depth int
	if err := r.pool.QueryRow(ctx, query, teamID, pathPrefix).Scan(&depth); err != nil {
		return 0, err
	}
	return depth, nil
}

// MoveSubtree rewrites the whole subtree in one transaction. The advisory
// lock keyed by team serializes tree rewrites across service instances;
// readers never observe a half-moved subtree.
func (r *ticketNodeRepository) MoveSubtree(ctx context.Context, teamID, oldPrefix, newPrefix string, depthDelta int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, teamID); err != nil {
		return err
	}
	const query = `
        UPDATE ticket_nodes
        SET path = $3 || substr(path, length($2)+1), depth = depth + $4
        WHERE team_id=$1 AND path LIKE $2 || '%'`
	if _, err := tx.Exec(ctx, query, teamID, oldPrefix, newPrefix, depthDelta); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func scanNodes(rows pgx.Rows) ([]tree.Node, error) {
	var result []tree.Node
	for rows.Next() {
		var node tree.Node
		if err := rows.Scan(&node.TicketID, &node.TeamID, &node.Path, &node.Depth); err != nil {
			return nil, err
		}
		result = append(result, node)
	}
	return result, rows.Err()
}
