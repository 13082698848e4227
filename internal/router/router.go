package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/qpflow-api/internal/config"
	"github.com/noah-isme/qpflow-api/internal/handler"
	"github.com/noah-isme/qpflow-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler        *handler.AuthHandler
	SubmissionHandler  *handler.SubmissionHandler
	ReviewHandler      *handler.ReviewHandler
	AssignmentHandler  *handler.AssignmentHandler
	AdminHandler       *handler.AdminHandler
	AuditHandler       *handler.AuditHandler
	JWTMiddleware      fiber.Handler
	IdentityMiddleware fiber.Handler
	AdminOnly          fiber.Handler
	LoginRateLimit     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	noop := func(c *fiber.Ctx) error { return c.Next() }
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = noop
	}
	identityMiddleware := deps.IdentityMiddleware
	if identityMiddleware == nil {
		identityMiddleware = noop
	}
	adminOnly := deps.AdminOnly
	if adminOnly == nil {
		adminOnly = noop
	}

	if deps.AuthHandler != nil {
		public := api.Group("/auth")
		if deps.LoginRateLimit != nil {
			deps.AuthHandler.RegisterPublic(public, deps.LoginRateLimit)
		} else {
			deps.AuthHandler.RegisterPublic(public)
		}

		protected := api.Group("/auth", jwtMiddleware, identityMiddleware)
		deps.AuthHandler.RegisterProtected(protected)
	}

	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware, identityMiddleware)
		deps.SubmissionHandler.Register(submissions)
	}

	if deps.ReviewHandler != nil {
		review := api.Group("/review", jwtMiddleware, identityMiddleware)
		deps.ReviewHandler.Register(review)
	}

	if deps.AssignmentHandler != nil {
		assignments := api.Group("/admin/assignments", jwtMiddleware, identityMiddleware, adminOnly)
		deps.AssignmentHandler.Register(assignments)
	}

	if deps.AuditHandler != nil {
		audit := api.Group("/admin/audit", jwtMiddleware, identityMiddleware, adminOnly)
		deps.AuditHandler.Register(audit)
	}

	if deps.AdminHandler != nil {
		admin := api.Group("/admin", jwtMiddleware, identityMiddleware, adminOnly)
		deps.AdminHandler.Register(admin)
	}
}
