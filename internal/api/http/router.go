package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/alert-ticket-service/internal/api/http/handlers"
	"github.com/spec-kit/alert-ticket-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes. Providers create tickets from alerts;
// operators work them.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/token", cfg.Auth.Token)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)

	tickets := api.Group("/tickets")
	tickets.Post("", auth.RequireRole(auth.RoleProvider), cfg.Tickets.CreateTicket)
	tickets.Get("", auth.RequireRole(auth.RoleOperator), cfg.Tickets.ListTickets)
	tickets.Get("/:id", auth.RequireRole(auth.RoleOperator), cfg.Tickets.GetTicket)
	tickets.Patch("/:id/status", auth.RequireRole(auth.RoleOperator), cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/comments", auth.RequireRole(auth.RoleOperator), cfg.Tickets.AddComment)
}
