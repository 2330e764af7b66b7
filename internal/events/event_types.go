package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated     EventType = "ticket_created"
	EventTicketUpdated     EventType = "ticket_updated"
	EventTicketDeactivated EventType = "ticket_deactivated"
	EventSubticketAttached EventType = "subticket_attached"
	EventTagAttached       EventType = "tag_attached"
	EventTagDetached       EventType = "tag_detached"
	EventCommentAdded      EventType = "comment_added"
	EventMemberJoined      EventType = "member_joined"
	EventMemberUpdated     EventType = "member_updated"
	EventTeamCreated       EventType = "team_created"
)

// Event represents a domain event emitted by services. ObjectID names the
// primary entity the event is about (ticket, member, comment).
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	TeamID      string      `json:"team_id"`
	ObjectID    string      `json:"object_id,omitempty"`
	ActorUserID *string     `json:"actor_user_id,omitempty"`
	Description string      `json:"description,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload,omitempty"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNumber int      `json:"ticket_number"`
	Title        string   `json:"title"`
	ParentID     *string  `json:"parent_id,omitempty"`
	TagIDs       []string `json:"tag_ids,omitempty"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	Title          *string `json:"title,omitempty"`
	StatusID       *string `json:"status_id,omitempty"`
	AssignedUserID *string `json:"assigned_user_id,omitempty"`
}

// SubticketAttachedPayload payload.
type SubticketAttachedPayload struct {
	ParentID string `json:"parent_id"`
	ChildID  string `json:"child_id"`
	Moved    bool   `json:"moved"`
}

// TagAssociationPayload payload for tag attach/detach events.
type TagAssociationPayload struct {
	TicketID string   `json:"ticket_id"`
	TagIDs   []string `json:"tag_ids"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	TicketID  string `json:"ticket_id"`
	CommentID string `json:"comment_id"`
}

// MemberPayload payload for membership events.
type MemberPayload struct {
	MemberID string `json:"member_id"`
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
}
