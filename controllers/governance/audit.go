package governanceController

import (
	"strconv"

	"coursepilot/database"
	"coursepilot/middleware"
	"coursepilot/models"
	"coursepilot/services"

	"github.com/gofiber/fiber/v2"
)

// ListAuditLog returns the organization's recent audit entries
func ListAuditLog(c *fiber.Ctx) error {
	actor := middleware.ActorFromCtx(c)
	if actor.OrgID == 0 {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Limit must be between 1 and 500!", nil)
		}
		limit = parsed
	}

	entries, err := services.NewAuditService(database.Database.Db).List(c.Context(), actor.OrgID, limit)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Audit log fetched successfully!", fiber.Map{
		"entries": entries,
		"total":   len(entries),
	})
}

// SyncRoster pulls the latest roster from the external HRIS. Admin only.
func SyncRoster(c *fiber.Ctx) error {
	actor := middleware.ActorFromCtx(c)

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", actor.ID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}
	if user.Role != "ADMIN" {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied! Admin only.", nil)
	}

	db := database.Database.Db
	sync := services.NewRosterSyncService(db, services.NewAuditService(db))
	written, err := sync.Sync(c.Context(), actor.OrgID, actor)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Roster synced!", fiber.Map{
		"members_written": written,
	})
}
