package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/employee-onboarding/internal/api/http/handlers"
	"github.com/spec-kit/employee-onboarding/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Employees      *handlers.EmployeesHandler
	MCP            *handlers.MCPHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	mw := cfg.AuthMiddleware

	app.Get("/", cfg.Health.Root)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Post("/token", cfg.Auth.Token)

	services := app.Group("/services")
	services.Post("/token", cfg.Auth.ServiceToken)
	services.Get("/verify", cfg.Auth.ServiceVerify)

	employees := app.Group("/employees")
	employees.Post("/", mw.OptionalUser, cfg.Employees.Create)

	agent := employees.Group("/api", mw.RequireCaller)
	agent.Get("/employee", cfg.Employees.Lookup)
	agent.Post("/mcp", cfg.MCP.Handle)

	employees.Get("/me", mw.RequireUser, cfg.Employees.Me)
	employees.Put("/me", mw.RequireUser, cfg.Employees.UpdateMe)
	employees.Get("/:id", mw.RequireUser, cfg.Employees.Get)
	employees.Put("/:id", mw.RequireUser, cfg.Employees.Update)
	employees.Put("/:id/salary", mw.RequireUser, cfg.Employees.UpdateSalary)
}
