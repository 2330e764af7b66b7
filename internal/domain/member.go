package domain

import "time"

// MemberRole enumerates membership roles within a team.
type MemberRole string

const (
	MemberRoleUnapproved MemberRole = "UNAPPROVED"
	MemberRoleApproved   MemberRole = "APPROVED"
	MemberRoleAdmin      MemberRole = "ADMIN"
)

// Member ties a user to a team with a role.
type Member struct {
	ID            string
	TeamID        string
	UserID        string
	Role          MemberRole
	Bio           string
	Pronouns      string
	CreatedAt     time.Time
	ActivatedAt   *time.Time
	DeactivatedAt *time.Time
}

// IsActive reports whether the membership is usable for permission checks.
func (m *Member) IsActive() bool {
	return m != nil && m.DeactivatedAt == nil
}

// CanWrite reports whether the member may create or edit team resources.
func (m *Member) CanWrite() bool {
	return m.IsActive() && (m.Role == MemberRoleApproved || m.Role == MemberRoleAdmin)
}

// IsAdmin reports whether the member holds the admin role.
func (m *Member) IsAdmin() bool {
	return m.IsActive() && m.Role == MemberRoleAdmin
}
