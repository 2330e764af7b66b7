package dto

import (
	"time"

	"github.com/slugbotics/sluggo/internal/domain"
	"github.com/slugbotics/sluggo/internal/events"
)

// CreateTeamRequest payload.
type CreateTeamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateTeamRequest payload; nil fields stay untouched.
type UpdateTeamRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// TeamResponse is the public view of a team.
type TeamResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
}

// JoinTeamRequest payload.
type JoinTeamRequest struct {
	Bio      string `json:"bio"`
	Pronouns string `json:"pronouns"`
}

// UpdateMemberRequest payload for profile edits.
type UpdateMemberRequest struct {
	Bio      *string `json:"bio"`
	Pronouns *string `json:"pronouns"`
}

// SetMemberRoleRequest payload.
type SetMemberRoleRequest struct {
	Role domain.MemberRole `json:"role"`
}

// MemberResponse is the public view of a membership.
type MemberResponse struct {
	ID          string            `json:"id"`
	TeamID      string            `json:"team_id"`
	UserID      string            `json:"user_id"`
	Role        domain.MemberRole `json:"role"`
	Bio         string            `json:"bio,omitempty"`
	Pronouns    string            `json:"pronouns,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	ActivatedAt *time.Time        `json:"activated_at,omitempty"`
}

// ActivityEntryResponse is one row of a team's activity log.
type ActivityEntryResponse struct {
	ID          string    `json:"id"`
	EventType   string    `json:"event_type"`
	Description string    `json:"description,omitempty"`
	UserID      *string   `json:"user_id,omitempty"`
	ObjectID    *string   `json:"object_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewTeamResponse maps a team.
func NewTeamResponse(team *domain.Team) TeamResponse {
	return TeamResponse{
		ID:          team.ID,
		Name:        team.Name,
		Description: team.Description,
		CreatedAt:   team.CreatedAt,
		ActivatedAt: team.ActivatedAt,
	}
}

// NewMemberResponse maps a membership.
func NewMemberResponse(member *domain.Member) MemberResponse {
	return MemberResponse{
		ID:          member.ID,
		TeamID:      member.TeamID,
		UserID:      member.UserID,
		Role:        member.Role,
		Bio:         member.Bio,
		Pronouns:    member.Pronouns,
		CreatedAt:   member.CreatedAt,
		ActivatedAt: member.ActivatedAt,
	}
}

// NewActivityEntryResponse maps a persisted event row.
func NewActivityEntryResponse(event *domain.Event) ActivityEntryResponse {
	return ActivityEntryResponse{
		ID:          event.ID,
		EventType:   event.EventType,
		Description: event.Description,
		UserID:      event.UserID,
		ObjectID:    event.ObjectID,
		CreatedAt:   event.CreatedAt,
	}
}

// NewActivityFeedResponse maps cached feed events.
func NewActivityFeedResponse(feed []events.Event) []ActivityEntryResponse {
	items := make([]ActivityEntryResponse, 0, len(feed))
	for i := range feed {
		event := &feed[i]
		entry := ActivityEntryResponse{
			ID:          event.ID,
			EventType:   string(event.Type),
			Description: event.Description,
			UserID:      event.ActorUserID,
			CreatedAt:   event.Timestamp,
		}
		if event.ObjectID != "" {
			objectID := event.ObjectID
			entry.ObjectID = &objectID
		}
		items = append(items, entry)
	}
	return items
}
