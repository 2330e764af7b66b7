package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/slugbotics/sluggo/internal/api/http/handlers"
	"github.com/slugbotics/sluggo/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Teams          *handlers.TeamsHandler
	Tickets        *handlers.TicketsHandler
	Tags           *handlers.TagsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Post("/auth/register", cfg.Auth.Register)
	app.Post("/auth/login", cfg.Auth.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/me", cfg.Auth.Me)

	teams := protected.Group("/teams")
	teams.Post("", cfg.Teams.Create)
	teams.Get("", cfg.Teams.List)
	teams.Get("/:teamID", cfg.Teams.Get)
	teams.Patch("/:teamID", cfg.Teams.Update)
	teams.Delete("/:teamID", cfg.Teams.Deactivate)
	teams.Post("/:teamID/join", cfg.Teams.Join)
	teams.Get("/:teamID/members", cfg.Teams.ListMembers)
	teams.Get("/:teamID/activity", cfg.Teams.Activity)
	teams.Get("/:teamID/activity/recent", cfg.Teams.RecentActivity)

	protected.Patch("/members/:memberID/role", cfg.Teams.SetMemberRole)
	protected.Patch("/members/:memberID", cfg.Teams.UpdateMember)
	protected.Delete("/members/:memberID", cfg.Teams.DeactivateMember)

	teams.Post("/:teamID/tickets", cfg.Tickets.Create)
	teams.Get("/:teamID/tickets", cfg.Tickets.ListForTeam)
	teams.Get("/:teamID/tickets/mine", cfg.Tickets.ListMine)

	tickets := protected.Group("/tickets")
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Patch("/:id", cfg.Tickets.Update)
	tickets.Delete("/:id", cfg.Tickets.Deactivate)
	tickets.Post("/:id/subticket/:childID", cfg.Tickets.AttachSubticket)
	tickets.Get("/:id/children", cfg.Tickets.ListChildren)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Get("/:id/comments", cfg.Tickets.ListComments)
	tickets.Delete("/:id/comments/:commentID", cfg.Tickets.DeleteComment)

	teams.Post("/:teamID/tags", cfg.Tags.CreateTag)
	teams.Get("/:teamID/tags", cfg.Tags.ListTags)
	teams.Delete("/:teamID/tags/:tagID", cfg.Tags.DeleteTag)
	teams.Post("/:teamID/statuses", cfg.Tags.CreateStatus)
	teams.Get("/:teamID/statuses", cfg.Tags.ListStatuses)
	teams.Patch("/:teamID/statuses/:statusID", cfg.Tags.RenameStatus)
	teams.Delete("/:teamID/statuses/:statusID", cfg.Tags.DeleteStatus)
}
