package service

import (
	"context"
	"strings"

	"github.com/slugbotics/sluggo/internal/domain"
	"github.com/slugbotics/sluggo/internal/repository"
	"github.com/slugbotics/sluggo/pkg/apperrors"
)

// TagService manages a team's tags and custom ticket statuses.
type TagService struct {
	tags     repository.TagRepository
	statuses repository.TicketStatusRepository
	teams    repository.TeamRepository
}

// NewTagService constructs the service.
func NewTagService(tags repository.TagRepository, statuses repository.TicketStatusRepository, teams repository.TeamRepository) *TagService {
	return &TagService{tags: tags, statuses: statuses, teams: teams}
}

// CreateTag adds a tag to a team.
func (s *TagService) CreateTag(ctx context.Context, teamID, title string) (*domain.Tag, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.NewValidationError("missing tag title", nil)
	}
	if len(title) > domain.TitleMaxLen {
		return nil, apperrors.NewValidationError("tag title too long", map[string]any{"max": domain.TitleMaxLen})
	}
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		return nil, notFoundOr(err, "team")
	}

	tag := &domain.Tag{TeamID: teamID, Title: title}
	if err := s.tags.Create(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// ListTags returns the team's active tags.
func (s *TagService) ListTags(ctx context.Context, teamID string) ([]domain.Tag, error) {
	return s.tags.ListByTeam(ctx, teamID)
}

// DeactivateTag soft-deletes a tag; existing ticket associations persist.
func (s *TagService) DeactivateTag(ctx context.Context, tagID string) error {
	return notFoundOr(s.tags.Deactivate(ctx, tagID), "tag")
}

// CreateStatus adds a custom ticket status to a team.
func (s *TagService) CreateStatus(ctx context.Context, teamID, title string) (*domain.TicketStatus, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.NewValidationError("missing status title", nil)
	}
	if len(title) > domain.TitleMaxLen {
		return nil, apperrors.NewValidationError("status title too long", map[string]any{"max": domain.TitleMaxLen})
	}
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		return nil, notFoundOr(err, "team")
	}

	status := &domain.TicketStatus{TeamID: teamID, Title: title}
	if err := s.statuses.Create(ctx, status); err != nil {
		return nil, err
	}
	return status, nil
}

// ListStatuses returns the team's active statuses.
func (s *TagService) ListStatuses(ctx context.Context, teamID string) ([]domain.TicketStatus, error) {
	return s.statuses.ListByTeam(ctx, teamID)
}

// RenameStatus changes a status title.
func (s *TagService) RenameStatus(ctx context.Context, statusID, title string) (*domain.TicketStatus, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.NewValidationError("missing status title", nil)
	}
	status, err := s.statuses.GetByID(ctx, statusID)
	if err != nil {
		return nil, notFoundOr(err, "ticket status")
	}
	status.Title = title
	if err := s.statuses.Update(ctx, status); err != nil {
		return nil, notFoundOr(err, "ticket status")
	}
	return status, nil
}

// DeactivateStatus soft-deletes a status; tickets keep the dangling
// reference until updated.
func (s *TagService) DeactivateStatus(ctx context.Context, statusID string) error {
	return notFoundOr(s.statuses.Deactivate(ctx, statusID), "ticket status")
}
