package analyticsRoutes

import (
	analyticsController "coursepilot/controllers/analytics"
	"coursepilot/middleware"
	projectValidator "coursepilot/validators/project"

	"github.com/gofiber/fiber/v2"
)

// SetupAnalyticsRoutes sets up snapshot routes
func SetupAnalyticsRoutes(app *fiber.App) {
	group := app.Group("/project/:id/analytics")

	group.Get("/", middleware.JWTMiddleware, projectValidator.ProjectID(), analyticsController.GetSnapshot)
	group.Get("/cached", middleware.JWTMiddleware, projectValidator.ProjectID(), analyticsController.GetCachedSnapshot)
	group.Post("/refresh", middleware.JWTMiddleware, projectValidator.ProjectID(), analyticsController.RefreshSnapshot)
}
