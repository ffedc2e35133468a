package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gradlink-api/internal/config"
	"github.com/noah-isme/gradlink-api/internal/handler"
	"github.com/noah-isme/gradlink-api/internal/middleware"
	"github.com/noah-isme/gradlink-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler           *handler.AuthHandler
	UserHandler           *handler.UserHandler
	ProjectHandler        *handler.ProjectHandler
	InteractionHandler    *handler.InteractionHandler
	MessageHandler        *handler.MessageHandler
	AdminHandler          *handler.AdminHandler
	UploadHandler         *handler.UploadHandler
	JWTMiddleware         fiber.Handler
	OptionalJWTMiddleware fiber.Handler
	HealthProbes          []handler.HealthProbe
	ServeLocalUploads     bool
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())
	if deps.ServeLocalUploads && cfg.UploadDir != "" {
		app.Static(cfg.UploadPublicPath, cfg.UploadDir)
	}

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes...))

	// Use provided JWT middlewares, or no-ops if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	optionalJWT := deps.OptionalJWTMiddleware
	if optionalJWT == nil {
		optionalJWT = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth", middleware.RateLimit("auth", cfg.AuthRateLimit, cfg.AuthRateWindow))
		deps.AuthHandler.Register(auth)
	}

	if deps.UserHandler != nil {
		deps.UserHandler.Register(api.Group("/users", jwtMiddleware))
	}

	// Projects mix public and private routes, so auth is attached per route.
	if deps.ProjectHandler != nil {
		deps.ProjectHandler.Register(api.Group("/projects"), handler.RouteAuth{
			Required: jwtMiddleware,
			Optional: optionalJWT,
		})
	}

	if deps.InteractionHandler != nil {
		deps.InteractionHandler.Register(api.Group("/interactions", jwtMiddleware))
	}

	if deps.MessageHandler != nil {
		messages := api.Group("/messages", middleware.WebSocketToken(), jwtMiddleware)
		deps.MessageHandler.Register(messages)
	}

	if deps.AdminHandler != nil {
		admin := api.Group("/admin", jwtMiddleware, middleware.RequireRole(middleware.AuthRoleAdmin))
		deps.AdminHandler.Register(admin)
	}

	if deps.UploadHandler != nil {
		deps.UploadHandler.Register(api.Group("/uploads", jwtMiddleware))
	}
}
