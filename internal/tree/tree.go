package tree

import (
	"context"
	"sync"

	"github.com/slugbotics/sluggo/internal/domain"
	"github.com/slugbotics/sluggo/pkg/apperrors"
)

// Node is a ticket's tree position. Nodes are 1:1 with tickets and live
// exactly as long as their ticket row.
type Node struct {
	TicketID string
	TeamID   string
	Path     string
	Depth    int
}

// IsRoot reports whether the node sits at the top of its tree.
func (n *Node) IsRoot() bool {
	return n.Depth == 1
}

// NodeStore persists tree nodes. Implementations must apply MoveSubtree
// atomically; GetByTicket returns (nil, nil) when the ticket has no node.
type NodeStore interface {
	Insert(ctx context.Context, node *Node) error
	GetByTicket(ctx context.Context, ticketID string) (*Node, error)
	// LastSiblingPath returns the greatest occupied path directly under
	// pathPrefix at the given depth, or "" when there is none.
	LastSiblingPath(ctx context.Context, teamID, pathPrefix string, depth int) (string, error)
	// ListChildren returns the nodes directly under pathPrefix at the given
	// depth, in path (= insertion) order.
	ListChildren(ctx context.Context, teamID, pathPrefix string, depth int) ([]Node, error)
	// ListByPaths returns the named nodes ordered by depth ascending.
	ListByPaths(ctx context.Context, teamID string, paths []string) ([]Node, error)
	// MaxSubtreeDepth returns the deepest depth within the subtree rooted
	// at pathPrefix.
	MaxSubtreeDepth(ctx context.Context, teamID, pathPrefix string) (int, error)
	// MoveSubtree rewrites every path in the subtree rooted at oldPrefix to
	// hang off newPrefix, shifting depths by depthDelta, as one atomic step.
	MoveSubtree(ctx context.Context, teamID, oldPrefix, newPrefix string, depthDelta int) error
}

// TicketTree maintains one forest per team over a NodeStore. Mutations for
// the same team are serialized with a coarse per-team lock; reads go
// straight to the store and always reflect the persisted structure.
type TicketTree struct {
	store NodeStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewTicketTree builds a tree over the given store.
func NewTicketTree(store NodeStore) *TicketTree {
	return &TicketTree{store: store, locks: make(map[string]*sync.Mutex)}
}

func (t *TicketTree) lockTeam(teamID string) func() {
	t.mu.Lock()
	lock, ok := t.locks[teamID]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[teamID] = lock
	}
	t.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// InsertRoot places a ticket as a new root of its team's forest.
func (t *TicketTree) InsertRoot(ctx context.Context, ticket *domain.Ticket) error {
	unlock := t.lockTeam(ticket.TeamID)
	defer unlock()

	existing, err := t.store.GetByTicket(ctx, ticket.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperrors.NewAlreadyAttached("ticket already has a tree position")
	}

	last, err := t.store.LastSiblingPath(ctx, ticket.TeamID, "", 1)
	if err != nil {
		return err
	}
	path, err := nextPathUnder("", last)
	if err != nil {
		return err
	}
	return t.store.Insert(ctx, &Node{
		TicketID: ticket.ID,
		TeamID:   ticket.TeamID,
		Path:     path,
		Depth:    1,
	})
}

// InsertChild places an unattached ticket as the last child of parent.
func (t *TicketTree) InsertChild(ctx context.Context, parent, child *domain.Ticket) error {
	if parent.TeamID != child.TeamID {
		return apperrors.NewCrossTeamViolation("subtickets must stay within one team")
	}
	if parent.ID == child.ID {
		return apperrors.NewCycleDetected("ticket cannot be its own subticket")
	}

	unlock := t.lockTeam(parent.TeamID)
	defer unlock()

	parentNode, err := t.nodeFor(ctx, parent.ID)
	if err != nil {
		return err
	}
	existing, err := t.store.GetByTicket(ctx, child.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperrors.NewAlreadyAttached("ticket already has a tree position")
	}

	path, err := t.nextChildPath(ctx, parentNode)
	if err != nil {
		return err
	}
	return t.store.Insert(ctx, &Node{
		TicketID: child.ID,
		TeamID:   child.TeamID,
		Path:     path,
		Depth:    parentNode.Depth + 1,
	})
}

// Move reparents ticket (and its whole subtree) under newParent as the
// last child.
func (t *TicketTree) Move(ctx context.Context, ticket, newParent *domain.Ticket) error {
	if ticket.TeamID != newParent.TeamID {
		return apperrors.NewCrossTeamViolation("subtickets must stay within one team")
	}

	unlock := t.lockTeam(ticket.TeamID)
	defer unlock()

	node, err := t.nodeFor(ctx, ticket.ID)
	if err != nil {
		return err
	}
	parentNode, err := t.nodeFor(ctx, newParent.ID)
	if err != nil {
		return err
	}
	if isAncestorOrSelf(node.Path, parentNode.Path) {
		return apperrors.NewCycleDetected("target parent is within the moved subtree")
	}

	deepest, err := t.store.MaxSubtreeDepth(ctx, node.TeamID, node.Path)
	if err != nil {
		return err
	}
	depthDelta := parentNode.Depth + 1 - node.Depth
	if deepest+depthDelta > MaxDepth {
		return apperrors.NewDepthOverflow("subtree would exceed tree depth limit")
	}

	newPath, err := t.nextChildPath(ctx, parentNode)
	if err != nil {
		return err
	}
	return t.store.MoveSubtree(ctx, node.TeamID, node.Path, newPath, depthDelta)
}

// ChildrenOf returns the ticket ids directly under ticket, in insertion
// order. Recomputed from the persisted structure on every call.
func (t *TicketTree) ChildrenOf(ctx context.Context, ticket *domain.Ticket) ([]string, error) {
	node, err := t.nodeFor(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	children, err := t.store.ListChildren(ctx, node.TeamID, node.Path, node.Depth+1)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(children))
	for _, child := range children {
		ids = append(ids, child.TicketID)
	}
	return ids, nil
}

// AncestorsOf returns the ticket ids on the path from the root down to the
// ticket's parent, root first.
func (t *TicketTree) AncestorsOf(ctx context.Context, ticket *domain.Ticket) ([]string, error) {
	node, err := t.nodeFor(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	paths := ancestorPaths(node.Path)
	if len(paths) == 0 {
		return nil, nil
	}
	nodes, err := t.store.ListByPaths(ctx, node.TeamID, paths)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(nodes))
	for _, ancestor := range nodes {
		ids = append(ids, ancestor.TicketID)
	}
	return ids, nil
}

// IsRoot reports whether the ticket sits at the top of its tree.
func (t *TicketTree) IsRoot(ctx context.Context, ticket *domain.Ticket) (bool, error) {
	node, err := t.nodeFor(ctx, ticket.ID)
	if err != nil {
		return false, err
	}
	return node.IsRoot(), nil
}

// NodeOf exposes the raw position, nil when the ticket is unattached.
func (t *TicketTree) NodeOf(ctx context.Context, ticket *domain.Ticket) (*Node, error) {
	return t.store.GetByTicket(ctx, ticket.ID)
}

func (t *TicketTree) nodeFor(ctx context.Context, ticketID string) (*Node, error) {
	node, err := t.store.GetByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, apperrors.NewNotFound("ticket node", map[string]any{"ticket_id": ticketID})
	}
	return node, nil
}

func (t *TicketTree) nextChildPath(ctx context.Context, parent *Node) (string, error) {
	if parent.Depth+1 > MaxDepth {
		return "", apperrors.NewDepthOverflow("tree depth limit exceeded")
	}
	last, err := t.store.LastSiblingPath(ctx, parent.TeamID, parent.Path, parent.Depth+1)
	if err != nil {
		return "", err
	}
	return nextPathUnder(parent.Path, last)
}
