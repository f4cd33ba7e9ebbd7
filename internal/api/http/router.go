package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/coop-admin/internal/api/http/handlers"
	"github.com/spec-kit/coop-admin/internal/auth"
	"github.com/spec-kit/coop-admin/internal/domain"
	"github.com/spec-kit/coop-admin/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Audit          *handlers.AuditHandler
	Branches       *handlers.BranchesHandler
	Customers      *handlers.CustomersHandler
	Vouchers       *handlers.VouchersHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, auth.RequireAnyRole(), cfg.Auth.ChangePassword)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)

	// Change history is readable by any authenticated role.
	auditGroup := api.Group("/audits", auth.RequireAnyRole())
	auditGroup.Get("/", cfg.Audit.Feed)
	auditGroup.Get("/entity", cfg.Audit.EntityHistory)
	auditGroup.Get("/batches/:id", cfg.Audit.BatchDetail)

	// Mutations require the admin role; auditors get read-only access.
	branches := api.Group("/branches")
	branches.Get("/", auth.RequireAnyRole(), cfg.Branches.List)
	branches.Get("/:id", auth.RequireAnyRole(), cfg.Branches.Get)
	branches.Post("/", auth.RequireRole(domain.RoleAdmin), cfg.Branches.Create)
	branches.Put("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Branches.Update)
	branches.Delete("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Branches.Delete)

	customers := api.Group("/customers")
	customers.Get("/", auth.RequireAnyRole(), cfg.Customers.List)
	customers.Get("/:id", auth.RequireAnyRole(), cfg.Customers.Get)
	customers.Post("/", auth.RequireRole(domain.RoleAdmin), cfg.Customers.Create)
	customers.Put("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Customers.Update)
	customers.Delete("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Customers.Delete)

	vouchers := api.Group("/vouchers")
	vouchers.Get("/", auth.RequireAnyRole(), cfg.Vouchers.List)
	vouchers.Get("/:id", auth.RequireAnyRole(), cfg.Vouchers.Get)
	vouchers.Post("/", auth.RequireRole(domain.RoleAdmin), cfg.Vouchers.Create)
	vouchers.Put("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Vouchers.Update)
	vouchers.Delete("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Vouchers.Delete)
}
