package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/orion-app/orion-api/internal/config"
	"github.com/orion-app/orion-api/internal/handler"
	"github.com/orion-app/orion-api/internal/middleware"
	"github.com/orion-app/orion-api/internal/models"
	"github.com/orion-app/orion-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler      *handler.AuthHandler
	ChatHandler      *handler.ChatHandler
	KnowledgeHandler *handler.KnowledgeHandler
	AdminKnowledge   *handler.AdminKnowledgeHandler
	AdminDashboard   *handler.AdminDashboardHandler
	JWTMiddleware    fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		deps.AuthHandler.Register(auth)
		deps.AuthHandler.RegisterProtected(api.Group("/auth", jwtMiddleware))
	}

	if deps.ChatHandler != nil {
		chats := api.Group("/chats", jwtMiddleware, middleware.RateLimit("chats", 30, time.Minute))
		deps.ChatHandler.Register(chats)
	}

	if deps.KnowledgeHandler != nil {
		topics := api.Group("/topics", jwtMiddleware)
		deps.KnowledgeHandler.Register(topics)
	}

	admin := api.Group("/admin", jwtMiddleware, middleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))
	// The scrape endpoint exposes traffic shape, so it sits behind the same
	// gate as the rest of the admin surface.
	admin.Get("/metrics", observability.MetricsHandler())
	if deps.AdminKnowledge != nil {
		deps.AdminKnowledge.Register(admin.Group("/topics"))
	}
	if deps.AdminDashboard != nil {
		deps.AdminDashboard.Register(admin.Group("/dashboard"))
	}
}
