package enrollmentRoutes

import (
	enrollmentController "coursepilot/controllers/enrollment"
	"coursepilot/middleware"
	"coursepilot/models"
	enrollmentValidator "coursepilot/validators/enrollment"
	projectValidator "coursepilot/validators/project"

	"github.com/gofiber/fiber/v2"
)

// SetupEnrollmentRoutes sets up rule authoring, preview and launch routes
func SetupEnrollmentRoutes(app *fiber.App) {
	group := app.Group("/project/:id/enrollment")

	// Rule authoring
	group.Post("/rules", middleware.JWTMiddleware, middleware.CheckPermissionMiddleware(models.PermissionEditProjects), projectValidator.ProjectID(), enrollmentValidator.AddRule(), enrollmentController.AddRule)
	group.Get("/rules", middleware.JWTMiddleware, projectValidator.ProjectID(), enrollmentController.ListRules)
	group.Delete("/rules/:rule_id", middleware.JWTMiddleware, middleware.CheckPermissionMiddleware(models.PermissionEditProjects), projectValidator.ProjectID(), enrollmentValidator.RuleID(), enrollmentController.RemoveRule)

	// Dry run and export
	group.Get("/preview", middleware.JWTMiddleware, projectValidator.ProjectID(), enrollmentController.GetPreview)
	group.Get("/preview/export", middleware.JWTMiddleware, projectValidator.ProjectID(), enrollmentController.ExportPreview)

	// The real thing
	group.Post("/launch", middleware.JWTMiddleware, middleware.CheckPermissionMiddleware(models.PermissionLaunchCourses), projectValidator.ProjectID(), enrollmentController.Launch)
}
