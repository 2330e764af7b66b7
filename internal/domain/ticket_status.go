package domain

import "time"

// TicketStatus is a per-team custom status referenced by tickets.
type TicketStatus struct {
	ID            string
	TeamID        string
	Title         string
	CreatedAt     time.Time
	ActivatedAt   *time.Time
	DeactivatedAt *time.Time
}
