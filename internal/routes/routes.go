package routes

import (
	"time"

	"github.com/directoryhq/userdir/internal/config"
	"github.com/directoryhq/userdir/internal/handlers"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	userHandler *handlers.UserHandler,
	importHandler *handlers.ImportHandler,
	maintenanceHandler *handlers.MaintenanceHandler,
	healthHandler *handlers.HealthHandler,
) {
	// Stored avatars are served straight from the uploads root; the
	// folder names here back the URLs the API derives per slot.
	app.Static("/uploads", cfg.UploadsDir)

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	users := api.Group("/users")
	users.Get("/", userHandler.List)
	users.Post("/", userHandler.Create)
	users.Post("/import", importHandler.Upload)
	users.Get("/:id", userHandler.Get)
	users.Put("/:id", userHandler.Update)
	users.Patch("/:id/avatar", userHandler.PatchAvatar)
	users.Delete("/:id", userHandler.Delete)

	// Operator-only maintenance action; never triggered by deletes.
	api.Post("/maintenance/renumber", maintenanceHandler.Renumber)
}
