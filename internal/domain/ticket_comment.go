package domain

import "time"

// TicketComment is an append-only comment on a ticket. AuthorID is nil when
// the authoring account has been removed.
type TicketComment struct {
	ID            string
	TicketID      string
	TeamID        string
	AuthorID      *string
	Content       string
	CreatedAt     time.Time
	ActivatedAt   *time.Time
	DeactivatedAt *time.Time
}
