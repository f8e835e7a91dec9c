package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/user-directory/internal/api/http/handlers"
	"github.com/spec-kit/user-directory/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Directory       *handlers.DirectoryHandler
	SessionVerifier *auth.SessionVerifier
}

// RegisterRoutes wires HTTP routes. Every directory operation sits behind
// the session verifier; only the health probes are open.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api", cfg.SessionVerifier.Handle)

	users := api.Group("/users")
	users.Get("/is-auth", cfg.Directory.CheckAuth)
	users.Get("/me", cfg.Directory.Self)
	users.Get("/", cfg.Directory.List)
	users.Put("/:id", cfg.Directory.Update)
	users.Delete("/:id", cfg.Directory.Delete)

	api.Post("/auth/logout", cfg.Directory.Logout)
}
