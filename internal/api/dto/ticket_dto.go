package dto

import (
	"time"

	"github.com/slugbotics/sluggo/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	StatusID       *string  `json:"status_id"`
	AssignedUserID *string  `json:"assigned_user_id"`
	ParentID       *string  `json:"parent_id"`
	TagIDs         []string `json:"tag_ids"`
}

// UpdateTicketRequest payload; nil fields stay untouched. A non-nil TagIDs
// replaces the ticket's tag set wholesale.
type UpdateTicketRequest struct {
	Title          *string   `json:"title"`
	Description    *string   `json:"description"`
	StatusID       *string   `json:"status_id"`
	AssignedUserID *string   `json:"assigned_user_id"`
	TagIDs         *[]string `json:"tag_ids"`
}

// TicketSummary response.
type TicketSummary struct {
	ID             string     `json:"id"`
	TicketNumber   int        `json:"ticket_number"`
	TeamID         string     `json:"team_id"`
	OwnerID        string     `json:"owner_id"`
	AssignedUserID *string    `json:"assigned_user_id,omitempty"`
	StatusID       *string    `json:"status_id,omitempty"`
	Title          string     `json:"title"`
	CreatedAt      time.Time  `json:"created_at"`
	ActivatedAt    *time.Time `json:"activated_at,omitempty"`
}

// TicketDetailResponse provides full ticket info including tree context.
type TicketDetailResponse struct {
	TicketSummary
	Description string          `json:"description"`
	IsRoot      bool            `json:"is_root"`
	Tags        []TagResponse   `json:"tags"`
	Children    []TicketSummary `json:"children"`
	Ancestors   []TicketSummary `json:"ancestors"`
}

// TagResponse is the public view of a tag.
type TagResponse struct {
	ID     string `json:"id"`
	TeamID string `json:"team_id"`
	Title  string `json:"title"`
}

// StatusResponse is the public view of a custom ticket status.
type StatusResponse struct {
	ID     string `json:"id"`
	TeamID string `json:"team_id"`
	Title  string `json:"title"`
}

// CreateTagRequest payload, shared by tags and statuses.
type CreateTagRequest struct {
	Title string `json:"title"`
}

// CommentRequest payload.
type CommentRequest struct {
	Content string `json:"content"`
}

// CommentResponse is the public view of a comment.
type CommentResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	AuthorID  *string   `json:"author_id,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTicketSummary maps a ticket.
func NewTicketSummary(ticket *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:             ticket.ID,
		TicketNumber:   ticket.TicketNumber,
		TeamID:         ticket.TeamID,
		OwnerID:        ticket.OwnerID,
		AssignedUserID: ticket.AssignedUserID,
		StatusID:       ticket.StatusID,
		Title:          ticket.Title,
		CreatedAt:      ticket.CreatedAt,
		ActivatedAt:    ticket.ActivatedAt,
	}
}

// NewTicketSummaries maps a slice of tickets.
func NewTicketSummaries(tickets []domain.Ticket) []TicketSummary {
	items := make([]TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, NewTicketSummary(&tickets[i]))
	}
	return items
}

// NewTagResponse maps a tag.
func NewTagResponse(tag *domain.Tag) TagResponse {
	return TagResponse{ID: tag.ID, TeamID: tag.TeamID, Title: tag.Title}
}

// NewStatusResponse maps a status.
func NewStatusResponse(status *domain.TicketStatus) StatusResponse {
	return StatusResponse{ID: status.ID, TeamID: status.TeamID, Title: status.Title}
}

// NewCommentResponse maps a comment.
func NewCommentResponse(comment *domain.TicketComment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		TicketID:  comment.TicketID,
		AuthorID:  comment.AuthorID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}
}
