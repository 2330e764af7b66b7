package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/slugbotics/sluggo/internal/domain"
	"github.com/slugbotics/sluggo/internal/events"
	"github.com/slugbotics/sluggo/internal/repository"
	"github.com/slugbotics/sluggo/pkg/apperrors"
)

// TeamService manages teams and their memberships.
type TeamService struct {
	teams      repository.TeamRepository
	members    repository.MemberRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TeamDependencies bundles repositories for team service.
type TeamDependencies struct {
	TeamRepo   repository.TeamRepository
	MemberRepo repository.MemberRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewTeamService constructs the service.
func NewTeamService(deps TeamDependencies) *TeamService {
	return &TeamService{
		teams:      deps.TeamRepo,
		members:    deps.MemberRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// CreateTeam creates a team and enrolls the creator as an active admin.
func (s *TeamService) CreateTeam(ctx context.Context, creatorID, name, description string) (*domain.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("missing team name", nil)
	}
	if len(name) > domain.TitleMaxLen {
		return nil, apperrors.NewValidationError("team name too long", map[string]any{"max": domain.TitleMaxLen})
	}
	if _, err := s.users.GetByID(ctx, creatorID); err != nil {
		return nil, notFoundOr(err, "user")
	}

	team := &domain.Team{Name: name, Description: strings.TrimSpace(description)}
	if err := s.teams.Create(ctx, team); err != nil {
		return nil, err
	}

	founder := &domain.Member{
		TeamID: team.ID,
		UserID: creatorID,
		Role:   domain.MemberRoleAdmin,
	}
	if err := s.members.Create(ctx, founder); err != nil {
		return nil, err
	}
	now := time.Now()
	founder.ActivatedAt = &now
	if err := s.members.Update(ctx, founder); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:        events.EventTeamCreated,
		TeamID:      team.ID,
		ObjectID:    team.ID,
		ActorUserID: &creatorID,
		Description: team.Name,
	})
	return team, nil
}

// GetTeam fetches a team by id.
func (s *TeamService) GetTeam(ctx context.Context, teamID string) (*domain.Team, error) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, notFoundOr(err, "team")
	}
	return team, nil
}

// ListTeams returns all active teams.
func (s *TeamService) ListTeams(ctx context.Context) ([]domain.Team, error) {
	return s.teams.ListActive(ctx)
}

// UpdateTeam renames or redescribes a team. Admin only.
func (s *TeamService) UpdateTeam(ctx context.Context, actorID string, team *domain.Team) error {
	actor, err := s.MemberOf(ctx, team.ID, actorID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	if strings.TrimSpace(team.Name) == "" {
		return apperrors.NewValidationError("missing team name", nil)
	}
	return notFoundOr(s.teams.Update(ctx, team), "team")
}

// DeactivateTeam soft-deletes a team. Admin only.
func (s *TeamService) DeactivateTeam(ctx context.Context, actorID, teamID string) error {
	actor, err := s.MemberOf(ctx, teamID, actorID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	return notFoundOr(s.teams.Deactivate(ctx, teamID), "team")
}

// Join enrolls a user into a team. New members start unapproved until an
// admin promotes them.
func (s *TeamService) Join(ctx context.Context, userID, teamID, bio, pronouns string) (*domain.Member, error) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, notFoundOr(err, "team")
	}
	if team.DeactivatedAt != nil {
		return nil, apperrors.NewNotFound("team", map[string]any{"team_id": teamID})
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, notFoundOr(err, "user")
	}
	if existing, err := s.members.GetByTeamAndUser(ctx, teamID, userID); err == nil && existing != nil {
		return nil, apperrors.NewConflict("already a member", map[string]any{"member_id": existing.ID})
	}

	member := &domain.Member{
		TeamID:   teamID,
		UserID:   userID,
		Role:     domain.MemberRoleUnapproved,
		Bio:      strings.TrimSpace(bio),
		Pronouns: strings.TrimSpace(pronouns),
	}
	if err := s.members.Create(ctx, member); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:        events.EventMemberJoined,
		TeamID:      teamID,
		ObjectID:    member.ID,
		ActorUserID: &userID,
		Payload: events.MemberPayload{
			MemberID: member.ID,
			UserID:   userID,
			Role:     string(member.Role),
		},
	})
	return member, nil
}

// MemberOf resolves the caller's active membership in a team.
func (s *TeamService) MemberOf(ctx context.Context, teamID, userID string) (*domain.Member, error) {
	member, err := s.members.GetByTeamAndUser(ctx, teamID, userID)
	if err != nil {
		return nil, notFoundOr(err, "member")
	}
	if !member.IsActive() {
		return nil, apperrors.NewForbidden("membership deactivated")
	}
	return member, nil
}

// ListMembers lists a team's members. Member only.
func (s *TeamService) ListMembers(ctx context.Context, actorID, teamID string) ([]domain.Member, error) {
	if _, err := s.MemberOf(ctx, teamID, actorID); err != nil {
		return nil, err
	}
	return s.members.ListByTeam(ctx, teamID)
}

// SetMemberRole changes a member's role. Admin only; approval also stamps
// the activation time.
func (s *TeamService) SetMemberRole(ctx context.Context, actorID, memberID string, role domain.MemberRole) (*domain.Member, error) {
	switch role {
	case domain.MemberRoleUnapproved, domain.MemberRoleApproved, domain.MemberRoleAdmin:
	default:
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}

	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, notFoundOr(err, "member")
	}
	actor, err := s.MemberOf(ctx, member.TeamID, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}

	member.Role = role
	if role != domain.MemberRoleUnapproved && member.ActivatedAt == nil {
		now := time.Now()
		member.ActivatedAt = &now
	}
	if err := s.members.Update(ctx, member); err != nil {
		return nil, notFoundOr(err, "member")
	}

	s.publish(ctx, events.Event{
		Type:        events.EventMemberUpdated,
		TeamID:      member.TeamID,
		ObjectID:    member.ID,
		ActorUserID: &actorID,
		Payload: events.MemberPayload{
			MemberID: member.ID,
			UserID:   member.UserID,
			Role:     string(member.Role),
		},
	})
	return member, nil
}

// UpdateMemberProfile lets a member edit their own bio and pronouns.
func (s *TeamService) UpdateMemberProfile(ctx context.Context, actorID, memberID, bio, pronouns string) (*domain.Member, error) {
	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, notFoundOr(err, "member")
	}
	if member.UserID != actorID {
		return nil, apperrors.NewForbidden("can only edit own profile")
	}
	member.Bio = strings.TrimSpace(bio)
	member.Pronouns = strings.TrimSpace(pronouns)
	if err := s.members.Update(ctx, member); err != nil {
		return nil, notFoundOr(err, "member")
	}
	return member, nil
}

// DeactivateMember removes a member (self-removal or admin).
func (s *TeamService) DeactivateMember(ctx context.Context, actorID, memberID string) error {
	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return notFoundOr(err, "member")
	}
	if member.UserID != actorID {
		actor, err := s.MemberOf(ctx, member.TeamID, actorID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() {
			return apperrors.NewForbidden("admin role required")
		}
	}
	return notFoundOr(s.members.Deactivate(ctx, memberID), "member")
}

func (s *TeamService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
