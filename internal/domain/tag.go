package domain

import "time"

// Tag is a per-team label attachable to tickets.
type Tag struct {
	ID            string
	TeamID        string
	Title         string
	CreatedAt     time.Time
	DeactivatedAt *time.Time
}

// TicketTag is the ticket/tag association row. Its CreatedAt records when
// the tag was attached and survives reconciliation for tags that remain.
type TicketTag struct {
	ID        string
	TicketID  string
	TagID     string
	TeamID    string
	CreatedAt time.Time
}
