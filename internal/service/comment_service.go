package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/slugbotics/sluggo/internal/domain"
	"github.com/slugbotics/sluggo/internal/events"
	"github.com/slugbotics/sluggo/internal/repository"
	"github.com/slugbotics/sluggo/pkg/apperrors"
)

// CommentService manages ticket comments.
type CommentService struct {
	comments   repository.TicketCommentRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewCommentService constructs the service.
func NewCommentService(comments repository.TicketCommentRepository, tickets repository.TicketRepository, dispatcher events.Dispatcher, logger *zap.Logger) *CommentService {
	return &CommentService{comments: comments, tickets: tickets, dispatcher: dispatcher, logger: logger}
}

// Add appends a comment to a ticket.
func (s *CommentService) Add(ctx context.Context, authorID, ticketID, content string) (*domain.TicketComment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("missing comment content", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket")
	}
	if !ticket.IsActive() {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}

	comment := &domain.TicketComment{
		TicketID: ticket.ID,
		TeamID:   ticket.TeamID,
		AuthorID: &authorID,
		Content:  content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		event := events.Event{
			ID:          uuid.NewString(),
			Type:        events.EventCommentAdded,
			TeamID:      ticket.TeamID,
			ObjectID:    comment.ID,
			ActorUserID: &authorID,
			Timestamp:   time.Now(),
			Payload: events.CommentAddedPayload{
				TicketID:  ticket.ID,
				CommentID: comment.ID,
			},
		}
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Warn("event publish failed", zap.String("type", string(event.Type)), zap.Error(err))
		}
	}
	return comment, nil
}

// ListByTicket returns a ticket's active comments, oldest first.
func (s *CommentService) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketComment, error) {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, notFoundOr(err, "ticket")
	}
	return s.comments.ListByTicket(ctx, ticketID)
}

// Deactivate soft-deletes a comment. Only the author may remove it here;
// admin overrides are enforced by the caller.
func (s *CommentService) Deactivate(ctx context.Context, actorID, commentID string, adminOverride bool) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return notFoundOr(err, "comment")
	}
	if !adminOverride && (comment.AuthorID == nil || *comment.AuthorID != actorID) {
		return apperrors.NewForbidden("not the comment author")
	}
	return notFoundOr(s.comments.Deactivate(ctx, commentID), "comment")
}
