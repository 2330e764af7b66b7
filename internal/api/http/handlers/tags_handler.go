package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/slugbotics/sluggo/internal/api/dto"
	"github.com/slugbotics/sluggo/internal/auth"
	"github.com/slugbotics/sluggo/internal/domain"
	"github.com/slugbotics/sluggo/internal/service"
	"github.com/slugbotics/sluggo/pkg/apperrors"
)

// TagsHandler manages team tag and status endpoints.
type TagsHandler struct {
	tags  *service.TagService
	teams *service.TeamService
}

// NewTagsHandler constructs handler.
func NewTagsHandler(tagService *service.TagService, teamService *service.TeamService) *TagsHandler {
	return &TagsHandler{tags: tagService, teams: teamService}
}

func (h *TagsHandler) requireMember(c *fiber.Ctx, teamID string, write bool) (*domain.Member, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	member, err := h.teams.MemberOf(c.Context(), teamID, principal.User.ID)
	if err != nil {
		return nil, err
	}
	if write && !member.CanWrite() {
		return nil, apperrors.NewForbidden("approved membership required")
	}
	return member, nil
}

// CreateTag POST /teams/:teamID/tags.
func (h *TagsHandler) CreateTag(c *fiber.Ctx) error {
	teamID := c.Params("teamID")
	if _, err := h.requireMember(c, teamID, true); err != nil {
		return err
	}
	var req dto.CreateTagRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	tag, err := h.tags.CreateTag(c.Context(), teamID, req.Title)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTagResponse(tag)})
}

// ListTags GET /teams/:teamID/tags.
func (h *TagsHandler) ListTags(c *fiber.Ctx) error {
	teamID := c.Params("teamID")
	if _, err := h.requireMember(c, teamID, false); err != nil {
		return err
	}
	tags, err := h.tags.ListTags(c.Context(), teamID)
	if err != nil {
		return err
	}
	items := make([]dto.TagResponse, 0, len(tags))
	for i := range tags {
		items = append(items, dto.NewTagResponse(&tags[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DeleteTag DELETE /teams/:teamID/tags/:tagID.
func (h *TagsHandler) DeleteTag(c *fiber.Ctx) error {
	if _, err := h.requireMember(c, c.Params("teamID"), true); err != nil {
		return err
	}
	if err := h.tags.DeactivateTag(c.Context(), c.Params("tagID")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// CreateStatus POST /teams/:teamID/statuses.
func (h *TagsHandler) CreateStatus(c *fiber.Ctx) error {
	teamID := c.Params("teamID")
	if _, err := h.requireMember(c, teamID, true); err != nil {
		return err
	}
	var req dto.CreateTagRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	status, err := h.tags.CreateStatus(c.Context(), teamID, req.Title)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewStatusResponse(status)})
}

// ListStatuses GET /teams/:teamID/statuses.
func (h *TagsHandler) ListStatuses(c *fiber.Ctx) error {
	teamID := c.Params("teamID")
	if _, err := h.requireMember(c, teamID, false); err != nil {
		return err
	}
	statuses, err := h.tags.ListStatuses(c.Context(), teamID)
	if err != nil {
		return err
	}
	items := make([]dto.StatusResponse, 0, len(statuses))
	for i := range statuses {
		items = append(items, dto.NewStatusResponse(&statuses[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// RenameStatus PATCH /teams/:teamID/statuses/:statusID.
func (h *TagsHandler) RenameStatus(c *fiber.Ctx) error {
	if _, err := h.requireMember(c, c.Params("teamID"), true); err != nil {
		return err
	}
	var req dto.CreateTagRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	status, err := h.tags.RenameStatus(c.Context(), c.Params("statusID"), req.Title)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStatusResponse(status)})
}

// DeleteStatus DELETE /teams/:teamID/statuses/:statusID.
func (h *TagsHandler) DeleteStatus(c *fiber.Ctx) error {
	if _, err := h.requireMember(c, c.Params("teamID"), true); err != nil {
		return err
	}
	if err := h.tags.DeactivateStatus(c.Context(), c.Params("statusID")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
