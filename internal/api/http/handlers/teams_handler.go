package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/slugbotics/sluggo/internal/api/dto"
	"github.com/slugbotics/sluggo/internal/auth"
	"github.com/slugbotics/sluggo/internal/service"
	"github.com/slugbotics/sluggo/pkg/apperrors"
)

// TeamsHandler manages team and membership endpoints.
type TeamsHandler struct {
	teams    *service.TeamService
	activity *service.ActivityService
}

// NewTeamsHandler constructs handler.
func NewTeamsHandler(teamService *service.TeamService, activityService *service.ActivityService) *TeamsHandler {
	return &TeamsHandler{teams: teamService, activity: activityService}
}

// Create POST /teams.
func (h *TeamsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	team, err := h.teams.CreateTeam(c.Context(), principal.User.ID, req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTeamResponse(team)})
}

// List GET /teams.
func (h *TeamsHandler) List(c *fiber.Ctx) error {
	teams, err := h.teams.ListTeams(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.TeamResponse, 0, len(teams))
	for i := range teams {
		items = append(items, dto.NewTeamResponse(&teams[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /teams/:teamID.
func (h *TeamsHandler) Get(c *fiber.Ctx) error {
	team, err := h.teams.GetTeam(c.Context(), c.Params("teamID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTeamResponse(team)})
}

// Update PATCH /teams/:teamID.
func (h *TeamsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.UpdateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	team, err := h.teams.GetTeam(c.Context(), c.Params("teamID"))
	if err != nil {
		return err
	}
	if req.Name != nil {
		team.Name = *req.Name
	}
	if req.Description != nil {
		team.Description = *req.Description
	}
	if err := h.teams.UpdateTeam(c.Context(), principal.User.ID, team); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTeamResponse(team)})
}

// Deactivate DELETE /teams/:teamID.
func (h *TeamsHandler) Deactivate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.teams.DeactivateTeam(c.Context(), principal.User.ID, c.Params("teamID")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Join POST /teams/:teamID/join.
func (h *TeamsHandler) Join(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.JoinTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	member, err := h.teams.Join(c.Context(), principal.User.ID, c.Params("teamID"), req.Bio, req.Pronouns)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewMemberResponse(member)})
}

// ListMembers GET /teams/:teamID/members.
func (h *TeamsHandler) ListMembers(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	members, err := h.teams.ListMembers(c.Context(), principal.User.ID, c.Params("teamID"))
	if err != nil {
		return err
	}
	items := make([]dto.MemberResponse, 0, len(members))
	for i := range members {
		items = append(items, dto.NewMemberResponse(&members[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SetMemberRole PATCH /members/:memberID/role.
func (h *TeamsHandler) SetMemberRole(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.SetMemberRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	member, err := h.teams.SetMemberRole(c.Context(), principal.User.ID, c.Params("memberID"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMemberResponse(member)})
}

// UpdateMember PATCH /members/:memberID.
func (h *TeamsHandler) UpdateMember(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.UpdateMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	bio := ""
	pronouns := ""
	if req.Bio != nil {
		bio = *req.Bio
	}
	if req.Pronouns != nil {
		pronouns = *req.Pronouns
	}
	member, err := h.teams.UpdateMemberProfile(c.Context(), principal.User.ID, c.Params("memberID"), bio, pronouns)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMemberResponse(member)})
}

// DeactivateMember DELETE /members/:memberID.
func (h *TeamsHandler) DeactivateMember(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.teams.DeactivateMember(c.Context(), principal.User.ID, c.Params("memberID")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Activity GET /teams/:teamID/activity.
func (h *TeamsHandler) Activity(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	teamID := c.Params("teamID")
	if _, err := h.teams.MemberOf(c.Context(), teamID, principal.User.ID); err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	entries, err := h.activity.History(c.Context(), teamID, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.ActivityEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.NewActivityEntryResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// RecentActivity GET /teams/:teamID/activity/recent.
func (h *TeamsHandler) RecentActivity(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	teamID := c.Params("teamID")
	if _, err := h.teams.MemberOf(c.Context(), teamID, principal.User.ID); err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	feed, err := h.activity.RecentFeed(c.Context(), teamID, limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewActivityFeedResponse(feed)})
}
