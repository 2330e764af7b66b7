package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/slugbotics/sluggo/internal/domain"
	"github.com/slugbotics/sluggo/internal/events"
	"github.com/slugbotics/sluggo/internal/repository"
	"github.com/slugbotics/sluggo/internal/tree"
	"github.com/slugbotics/sluggo/pkg/apperrors"
)

// TicketService coordinates ticket workflows: numbering, persistence, tree
// placement and tag associations.
type TicketService struct {
	tickets    repository.TicketRepository
	teams      repository.TeamRepository
	users      repository.UserRepository
	statuses   repository.TicketStatusRepository
	ticketTags repository.TicketTagRepository
	tags       repository.TagRepository
	tree       *tree.TicketTree
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	TicketRepo    repository.TicketRepository
	TeamRepo      repository.TeamRepository
	UserRepo      repository.UserRepository
	StatusRepo    repository.TicketStatusRepository
	TicketTagRepo repository.TicketTagRepository
	TagRepo       repository.TagRepository
	Tree          *tree.TicketTree
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	OwnerID        string
	TeamID         string
	Title          string
	Description    string
	StatusID       *string
	AssignedUserID *string
	ParentID       *string
	TagIDs         []string
}

// TicketUpdateInput describes field changes; nil pointers leave the field
// untouched. Reparenting through update is deliberately unsupported; use
// AttachSubticket.
type TicketUpdateInput struct {
	Title          *string
	Description    *string
	StatusID       *string
	AssignedUserID *string
	TagIDs         *[]string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		teams:      deps.TeamRepo,
		users:      deps.UserRepo,
		statuses:   deps.StatusRepo,
		ticketTags: deps.TicketTagRepo,
		tags:       deps.TagRepo,
		tree:       deps.Tree,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// Create reserves a per-team ticket number, persists the ticket, places it
// in the team's forest and attaches tags. The reserved number is never
// reused: when a later step fails the persisted row is deactivated and the
// error is surfaced as CREATION_FAILED (a numbering gap, never a duplicate).
func (s *TicketService) Create(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	if input.OwnerID == "" {
		return nil, apperrors.NewValidationError("missing owner", nil)
	}
	if input.TeamID == "" {
		return nil, apperrors.NewValidationError("missing team", nil)
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("missing title", nil)
	}
	if len(title) > domain.TitleMaxLen {
		return nil, apperrors.NewValidationError("title too long", map[string]any{"max": domain.TitleMaxLen})
	}

	team, err := s.teams.GetByID(ctx, input.TeamID)
	if err != nil {
		return nil, notFoundOr(err, "team")
	}
	if team.DeactivatedAt != nil {
		return nil, apperrors.NewNotFound("team", map[string]any{"team_id": team.ID})
	}
	if _, err := s.users.GetByID(ctx, input.OwnerID); err != nil {
		return nil, notFoundOr(err, "owner")
	}
	if input.AssignedUserID != nil {
		if _, err := s.users.GetByID(ctx, *input.AssignedUserID); err != nil {
			return nil, notFoundOr(err, "assigned user")
		}
	}
	if input.StatusID != nil {
		status, err := s.statuses.GetByID(ctx, *input.StatusID)
		if err != nil {
			return nil, notFoundOr(err, "ticket status")
		}
		if status.TeamID != team.ID {
			return nil, apperrors.NewCrossTeamViolation("status belongs to another team")
		}
	}

	var parent *domain.Ticket
	if input.ParentID != nil {
		parent, err = s.tickets.GetByID(ctx, *input.ParentID)
		if err != nil {
			return nil, notFoundOr(err, "parent ticket")
		}
		if parent.TeamID != team.ID {
			return nil, apperrors.NewCrossTeamViolation("parent ticket belongs to another team")
		}
	}

	number, err := s.teams.ReserveTicketNumber(ctx, team.ID)
	if err != nil {
		return nil, notFoundOr(err, "team")
	}

	ticket := &domain.Ticket{
		TicketNumber:   number,
		TeamID:         team.ID,
		OwnerID:        input.OwnerID,
		AssignedUserID: input.AssignedUserID,
		StatusID:       input.StatusID,
		Title:          title,
		Description:    strings.TrimSpace(input.Description),
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewCreationFailed(err)
	}

	if parent != nil {
		err = s.tree.InsertChild(ctx, parent, ticket)
	} else {
		err = s.tree.InsertRoot(ctx, ticket)
	}
	if err != nil {
		return nil, s.abortCreate(ctx, ticket, err)
	}

	attached, err := s.ticketTags.AttachAll(ctx, ticket, input.TagIDs)
	if err != nil {
		return nil, s.abortCreate(ctx, ticket, err)
	}

	s.publish(ctx, events.Event{
		Type:        events.EventTicketCreated,
		TeamID:      ticket.TeamID,
		ObjectID:    ticket.ID,
		ActorUserID: &input.OwnerID,
		Payload: events.TicketCreatedPayload{
			TicketNumber: ticket.TicketNumber,
			Title:        ticket.Title,
			ParentID:     input.ParentID,
			TagIDs:       attached,
		},
	})
	if len(attached) > 0 {
		s.publishTagEvent(ctx, events.EventTagAttached, ticket, input.OwnerID, attached)
	}
	return ticket, nil
}

// abortCreate rolls the visible ticket state back after a failed creation
// step. The row cannot be removed (its number is spent), so it is marked
// deactivated and never reaches callers in active state.
func (s *TicketService) abortCreate(ctx context.Context, ticket *domain.Ticket, cause error) error {
	if err := s.tickets.Deactivate(ctx, ticket.ID); err != nil {
		s.logger.Error("failed to roll back partially created ticket",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
	var domainErr *apperrors.DomainError
	if errors.As(cause, &domainErr) {
		switch domainErr.Code {
		case "CROSS_TEAM_VIOLATION", "CYCLE_DETECTED", "DEPTH_OVERFLOW", "NOT_FOUND":
			return cause
		}
	}
	return apperrors.NewCreationFailed(cause)
}

// Update applies field changes and, when a tag list is supplied, reconciles
// the ticket's tag set against it. A parent change is not expressible here.
func (s *TicketService) Update(ctx context.Context, actorID, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket")
	}
	if !ticket.IsActive() {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("missing title", nil)
		}
		if len(title) > domain.TitleMaxLen {
			return nil, apperrors.NewValidationError("title too long", map[string]any{"max": domain.TitleMaxLen})
		}
		ticket.Title = title
	}
	if input.Description != nil {
		ticket.Description = strings.TrimSpace(*input.Description)
	}
	if input.StatusID != nil {
		status, err := s.statuses.GetByID(ctx, *input.StatusID)
		if err != nil {
			return nil, notFoundOr(err, "ticket status")
		}
		if status.TeamID != ticket.TeamID {
			return nil, apperrors.NewCrossTeamViolation("status belongs to another team")
		}
		ticket.StatusID = input.StatusID
	}
	if input.AssignedUserID != nil {
		if _, err := s.users.GetByID(ctx, *input.AssignedUserID); err != nil {
			return nil, notFoundOr(err, "assigned user")
		}
		ticket.AssignedUserID = input.AssignedUserID
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, notFoundOr(err, "ticket")
	}

	if input.TagIDs != nil {
		diff, err := s.ticketTags.Reconcile(ctx, ticket, *input.TagIDs)
		if err != nil {
			return nil, err
		}
		if len(diff.Attached) > 0 {
			s.publishTagEvent(ctx, events.EventTagAttached, ticket, actorID, diff.Attached)
		}
		if len(diff.Detached) > 0 {
			s.publishTagEvent(ctx, events.EventTagDetached, ticket, actorID, diff.Detached)
		}
	}

	s.publish(ctx, events.Event{
		Type:        events.EventTicketUpdated,
		TeamID:      ticket.TeamID,
		ObjectID:    ticket.ID,
		ActorUserID: &actorID,
		Payload: events.TicketUpdatedPayload{
			Title:          input.Title,
			StatusID:       input.StatusID,
			AssignedUserID: input.AssignedUserID,
		},
	})
	return ticket, nil
}

// Get fetches a single ticket by id.
func (s *TicketService) Get(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket")
	}
	return ticket, nil
}

// AttachSubticket places child under parent: an unplaced child is inserted,
// a root child is moved with its subtree, and a child that already has a
// parent is rejected.
func (s *TicketService) AttachSubticket(ctx context.Context, actorID, parentID, childID string) error {
	parent, err := s.tickets.GetByID(ctx, parentID)
	if err != nil {
		return notFoundOr(err, "parent ticket")
	}
	child, err := s.tickets.GetByID(ctx, childID)
	if err != nil {
		return notFoundOr(err, "child ticket")
	}
	if parent.TeamID != child.TeamID {
		return apperrors.NewCrossTeamViolation("subtickets must stay within one team")
	}

	node, err := s.tree.NodeOf(ctx, child)
	if err != nil {
		return err
	}
	moved := false
	switch {
	case node == nil:
		err = s.tree.InsertChild(ctx, parent, child)
	case node.IsRoot():
		moved = true
		err = s.tree.Move(ctx, child, parent)
	default:
		err = apperrors.NewAlreadyAttached("ticket already part of a graph")
	}
	if err != nil {
		return err
	}

	s.publish(ctx, events.Event{
		Type:        events.EventSubticketAttached,
		TeamID:      parent.TeamID,
		ObjectID:    child.ID,
		ActorUserID: &actorID,
		Payload: events.SubticketAttachedPayload{
			ParentID: parent.ID,
			ChildID:  child.ID,
			Moved:    moved,
		},
	})
	return nil
}

// Deactivate soft-deletes the ticket. It keeps its tree position and its
// number stays spent; children are not cascaded. Idempotent.
func (s *TicketService) Deactivate(ctx context.Context, actorID, ticketID string) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return notFoundOr(err, "ticket")
	}
	if ticket.DeactivatedAt != nil {
		return nil
	}
	if err := s.tickets.Deactivate(ctx, ticket.ID); err != nil {
		return notFoundOr(err, "ticket")
	}
	s.publish(ctx, events.Event{
		Type:        events.EventTicketDeactivated,
		TeamID:      ticket.TeamID,
		ObjectID:    ticket.ID,
		ActorUserID: &actorID,
	})
	return nil
}

// ListForUser returns the team's active tickets the user owns or is
// assigned to.
func (s *TicketService) ListForUser(ctx context.Context, teamID, userID string) ([]domain.Ticket, error) {
	return s.tickets.ListForUser(ctx, teamID, userID)
}

// ListForTeam returns a page of the team's active tickets.
func (s *TicketService) ListForTeam(ctx context.Context, teamID string, limit, offset int) ([]domain.Ticket, error) {
	return s.tickets.ListByTeam(ctx, teamID, limit, offset)
}

// ChildrenOf returns the direct subtickets in insertion order.
func (s *TicketService) ChildrenOf(ctx context.Context, ticketID string) ([]domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket")
	}
	ids, err := s.tree.ChildrenOf(ctx, ticket)
	if err != nil {
		return nil, err
	}
	return s.tickets.GetByIDs(ctx, ids)
}

// AncestorsOf returns the chain from the root down to the ticket's parent.
func (s *TicketService) AncestorsOf(ctx context.Context, ticketID string) ([]domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket")
	}
	ids, err := s.tree.AncestorsOf(ctx, ticket)
	if err != nil {
		return nil, err
	}
	return s.tickets.GetByIDs(ctx, ids)
}

// IsRoot reports whether the ticket has no parent.
func (s *TicketService) IsRoot(ctx context.Context, ticketID string) (bool, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return false, notFoundOr(err, "ticket")
	}
	return s.tree.IsRoot(ctx, ticket)
}

// TagsOf resolves the ticket's attached tags, attachment order preserved.
func (s *TicketService) TagsOf(ctx context.Context, ticketID string) ([]domain.Tag, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket")
	}
	associations, err := s.ticketTags.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(associations))
	for _, association := range associations {
		ids = append(ids, association.TagID)
	}
	tags, err := s.tags.ListByIDs(ctx, ticket.TeamID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Tag, len(tags))
	for _, tag := range tags {
		byID[tag.ID] = tag
	}
	ordered := make([]domain.Tag, 0, len(ids))
	for _, id := range ids {
		if tag, ok := byID[id]; ok {
			ordered = append(ordered, tag)
		}
	}
	return ordered, nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

func (s *TicketService) publishTagEvent(ctx context.Context, eventType events.EventType, ticket *domain.Ticket, actorID string, tagIDs []string) {
	s.publish(ctx, events.Event{
		Type:        eventType,
		TeamID:      ticket.TeamID,
		ObjectID:    ticket.ID,
		ActorUserID: &actorID,
		Payload: events.TagAssociationPayload{
			TicketID: ticket.ID,
			TagIDs:   tagIDs,
		},
	})
}

func notFoundOr(err error, resource string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, nil)
	}
	return err
}
