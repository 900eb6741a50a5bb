package analyticsController

import (
	"coursepilot/database"
	"coursepilot/middleware"
	"coursepilot/models"
	pipelineModels "coursepilot/models/pipeline"
	"coursepilot/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func analyticsService() *services.AnalyticsService {
	db := database.Database.Db
	return services.NewAnalyticsService(db, services.NewGormEnrollmentStore(db), services.NewRosterService(db))
}

// GetSnapshot computes live metrics for the project's course
func GetSnapshot(c *fiber.Ctx) error {
	projectID := c.Locals("projectID").(int)

	var project models.Project
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", projectID, false).First(&project).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Project not found!", nil)
	}
	if project.CourseID == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Project has no linked course yet!", nil)
	}

	snapshot, err := analyticsService().Snapshot(c.Context(), project.OrgID, *project.CourseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Analytics computed!", snapshot)
}

// GetCachedSnapshot returns the last persisted snapshot without recomputing
func GetCachedSnapshot(c *fiber.Ctx) error {
	projectID := c.Locals("projectID").(int)

	var record pipelineModels.AnalyticsRecord
	err := database.Database.Db.Where("project_id = ? AND is_deleted = ?", projectID, false).First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No cached analytics yet!", nil)
	}
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch analytics!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Cached analytics fetched!", record)
}

// RefreshSnapshot recomputes and persists the cached snapshot on demand
func RefreshSnapshot(c *fiber.Ctx) error {
	projectID := c.Locals("projectID").(int)

	if err := analyticsService().RefreshCache(c.Context(), uint(projectID)); err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Analytics refreshed!", nil)
}
