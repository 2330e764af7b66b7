package domain

import "time"

// Team groups members and owns a forest of tickets. TicketHead is the
// last-issued per-team ticket number; it only ever increases.
type Team struct {
	ID            string
	Name          string
	Description   string
	TicketHead    int
	CreatedAt     time.Time
	ActivatedAt   *time.Time
	DeactivatedAt *time.Time
}
