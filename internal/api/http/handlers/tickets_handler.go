package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/slugbotics/sluggo/internal/api/dto"
	"github.com/slugbotics/sluggo/internal/auth"
	"github.com/slugbotics/sluggo/internal/domain"
	"github.com/slugbotics/sluggo/internal/service"
	"github.com/slugbotics/sluggo/pkg/apperrors"
)

// TicketsHandler manages ticket, subticket and comment endpoints.
type TicketsHandler struct {
	tickets  *service.TicketService
	teams    *service.TeamService
	comments *service.CommentService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, teamService *service.TeamService, commentService *service.CommentService) *TicketsHandler {
	return &TicketsHandler{tickets: ticketService, teams: teamService, comments: commentService}
}

// requireMember loads the caller's membership in a team. When write is set
// the member must be approved or admin.
func (h *TicketsHandler) requireMember(c *fiber.Ctx, teamID string, write bool) (*domain.Member, error) {
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

// Create POST /teams/:teamID/tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	teamID := c.Params("teamID")
	member, err := h.requireMember(c, teamID, true)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.Create(c.Context(), service.TicketCreateInput{
		OwnerID:        member.UserID,
		TeamID:         teamID,
		Title:          req.Title,
		Description:    req.Description,
		StatusID:       req.StatusID,
		AssignedUserID: req.AssignedUserID,
		ParentID:       req.ParentID,
		TagIDs:         req.TagIDs,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// ListForTeam GET /teams/:teamID/tickets.
func (h *TicketsHandler) ListForTeam(c *fiber.Ctx) error {
	teamID := c.Params("teamID")
	if _, err := h.requireMember(c, teamID, false); err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	tickets, err := h.tickets.ListForTeam(c.Context(), teamID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummaries(tickets)})
}

// ListMine GET /teams/:teamID/tickets/mine. Returns tickets the caller owns
// or is assigned to.
func (h *TicketsHandler) ListMine(c *fiber.Ctx) error {
	teamID := c.Params("teamID")
	member, err := h.requireMember(c, teamID, false)
	if err != nil {
		return err
	}
	tickets, err := h.tickets.ListForUser(c.Context(), teamID, member.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummaries(tickets)})
}

// Get GET /tickets/:id. Returns the ticket with its tags, children and
// ancestors.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.tickets.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if _, err := h.requireMember(c, ticket.TeamID, false); err != nil {
		return err
	}

	detail := dto.TicketDetailResponse{
		TicketSummary: dto.NewTicketSummary(ticket),
		Description:   ticket.Description,
	}

	tags, err := h.tickets.TagsOf(c.Context(), ticket.ID)
	if err != nil {
		return err
	}
	detail.Tags = make([]dto.TagResponse, 0, len(tags))
	for i := range tags {
		detail.Tags = append(detail.Tags, dto.NewTagResponse(&tags[i]))
	}

	children, err := h.tickets.ChildrenOf(c.Context(), ticket.ID)
	if err != nil {
		return err
	}
	detail.Children = dto.NewTicketSummaries(children)

	ancestors, err := h.tickets.AncestorsOf(c.Context(), ticket.ID)
	if err != nil {
		return err
	}
	detail.Ancestors = dto.NewTicketSummaries(ancestors)

	isRoot, err := h.tickets.IsRoot(c.Context(), ticket.ID)
	if err != nil {
		return err
	}
	detail.IsRoot = isRoot

	return c.JSON(fiber.Map{"data": detail})
}

// Update PATCH /tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	ticket, err := h.tickets.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	member, err := h.requireMember(c, ticket.TeamID, true)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if !statusOnlyChange(req) && !canMutateTicket(member, ticket) {
		return apperrors.NewForbidden("owner or admin required")
	}
	updated, err := h.tickets.Update(c.Context(), member.UserID, ticket.ID, service.TicketUpdateInput{
		Title:          req.Title,
		Description:    req.Description,
		StatusID:       req.StatusID,
		AssignedUserID: req.AssignedUserID,
		TagIDs:         req.TagIDs,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(updated)})
}

// Deactivate DELETE /tickets/:id. Owner or admin only.
func (h *TicketsHandler) Deactivate(c *fiber.Ctx) error {
	ticket, err := h.tickets.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	member, err := h.requireMember(c, ticket.TeamID, true)
	if err != nil {
		return err
	}
	if !canMutateTicket(member, ticket) {
		return apperrors.NewForbidden("owner or admin required")
	}
	if err := h.tickets.Deactivate(c.Context(), member.UserID, ticket.ID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// AttachSubticket POST /tickets/:id/subticket/:childID. Places an unplaced
// ticket under this one, or reparents a root.
func (h *TicketsHandler) AttachSubticket(c *fiber.Ctx) error {
	parent, err := h.tickets.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	member, err := h.requireMember(c, parent.TeamID, true)
	if err != nil {
		return err
	}
	if !canMutateTicket(member, parent) {
		return apperrors.NewForbidden("owner or admin required")
	}
	if err := h.tickets.AttachSubticket(c.Context(), member.UserID, parent.ID, c.Params("childID")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListChildren GET /tickets/:id/children.
func (h *TicketsHandler) ListChildren(c *fiber.Ctx) error {
	ticket, err := h.tickets.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if _, err := h.requireMember(c, ticket.TeamID, false); err != nil {
		return err
	}
	children, err := h.tickets.ChildrenOf(c.Context(), ticket.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummaries(children)})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	ticket, err := h.tickets.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	member, err := h.requireMember(c, ticket.TeamID, true)
	if err != nil {
		return err
	}
	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	comment, err := h.comments.Add(c.Context(), member.UserID, ticket.ID, req.Content)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(comment)})
}

// ListComments GET /tickets/:id/comments.
func (h *TicketsHandler) ListComments(c *fiber.Ctx) error {
	ticket, err := h.tickets.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if _, err := h.requireMember(c, ticket.TeamID, false); err != nil {
		return err
	}
	comments, err := h.comments.ListByTicket(c.Context(), ticket.ID)
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, dto.NewCommentResponse(&comments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DeleteComment DELETE /tickets/:id/comments/:commentID. Author or admin.
func (h *TicketsHandler) DeleteComment(c *fiber.Ctx) error {
	ticket, err := h.tickets.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	member, err := h.requireMember(c, ticket.TeamID, true)
	if err != nil {
		return err
	}
	if err := h.comments.Deactivate(c.Context(), member.UserID, c.Params("commentID"), member.IsAdmin()); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
