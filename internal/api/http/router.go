package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jinwuui/celeb-library-api-sub000/internal/api/http/handlers"
	"github.com/jinwuui/celeb-library-api-sub000/internal/auth"
)

// Paths for the token-issuing routes the gates own. Everything else goes
// through bearer verification.
const (
	LoginPath   = "/api/auth/login"
	GuestPath   = "/api/auth/guest"
	RefreshPath = "/api/auth/refresh"
)

// GateRoutes returns the route set for the gate chain.
func GateRoutes() auth.Routes {
	return auth.Routes{
		LoginPath:   LoginPath,
		GuestPath:   GuestPath,
		RefreshPath: RefreshPath,
	}
}

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	Auth   *handlers.AuthHandler
	Users  *handlers.UsersHandler
	Posts  *handlers.PostsHandler
}

// RegisterRoutes wires HTTP routes. The login, guest and refresh routes are
// served entirely by the gate chain; registering them here only keeps the
// router from answering 404 before the gates run.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.All("/login", noDirectHandler)
	authGroup.All("/guest", noDirectHandler)
	authGroup.All("/refresh", noDirectHandler)
	authGroup.Post("/logout", cfg.Auth.Logout)

	api.Get("/users/me", cfg.Users.Me)

	api.Get("/posts", cfg.Posts.List)
	api.Post("/posts", cfg.Posts.Create)
	api.Delete("/posts/:id", cfg.Posts.Delete)
}

// noDirectHandler backs routes the gates always short-circuit. Reaching it
// means a gate let a token-issuing route through, which is a bug.
func noDirectHandler(c *fiber.Ctx) error {
	return fiber.ErrNotFound
}
