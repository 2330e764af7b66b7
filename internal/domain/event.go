package domain

import "time"

// Event is a persisted activity log entry scoped to a team.
type Event struct {
	ID          string
	TeamID      string
	UserID      *string
	EventType   string
	Description string
	ObjectID    *string
	CreatedAt   time.Time
}
