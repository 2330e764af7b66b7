package domain

import "time"

// TitleMaxLen bounds ticket, tag and status titles.
const TitleMaxLen = 100

// Ticket is the aggregate for tracked work items. TicketNumber is unique
// within the owning team, assigned at creation and immutable after.
// Deactivation is soft: rows persist with DeactivatedAt set.
type Ticket struct {
	ID             string
	TicketNumber   int
	TeamID         string
	OwnerID        string
	AssignedUserID *string
	StatusID       *string
	Title          string
	Description    string
	CreatedAt      time.Time
	ActivatedAt    *time.Time
	DeactivatedAt  *time.Time
}

// IsActive reports whether the ticket has not been soft-deleted.
func (t *Ticket) IsActive() bool {
	return t != nil && t.DeactivatedAt == nil
}
