package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Dashboard      *handlers.DashboardHandler
	Cron           *handlers.CronHandler
	AuthMiddleware *auth.AuthMiddleware
	CronSecret     string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Get("/:id/tat", cfg.Tickets.GetTATSnapshot)
	tickets.Get("/:id/history", cfg.Tickets.GetHistory)

	staffOnly := auth.RequireRole(auth.StaffRoles()...)
	tickets.Put("/:id/tat", staffOnly, cfg.Tickets.SetTAT)
	tickets.Post("/:id/tat/extensions", staffOnly, cfg.Tickets.ExtendTAT)
	tickets.Post("/:id/escalation/reset",
		auth.RequireRole(domain.RoleAdmin, domain.RoleSuperAdmin), cfg.Tickets.ResetEscalation)

	dashboard := app.Group("/dashboard", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	dashboard.Get("/stats", cfg.Dashboard.GetStats)

	cron := app.Group("/internal/cron", auth.RequireCronSecret(cfg.CronSecret))
	cron.Get("/escalations", cfg.Cron.RunEscalations)
	cron.Get("/escalations/last", cfg.Cron.LastRun)
}
