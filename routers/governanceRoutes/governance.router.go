package governanceRoutes

import (
	governanceController "coursepilot/controllers/governance"
	"coursepilot/middleware"
	"coursepilot/models"

	"github.com/gofiber/fiber/v2"
)

// SetupGovernanceRoutes sets up audit log and roster sync routes
func SetupGovernanceRoutes(app *fiber.App) {
	group := app.Group("/governance")

	group.Get("/audit", middleware.JWTMiddleware, middleware.CheckPermissionMiddleware(models.PermissionViewAudit), governanceController.ListAuditLog)
	group.Post("/roster/sync", middleware.JWTMiddleware, governanceController.SyncRoster)
}
