package projectValidator

import (
	"strconv"
	"strings"

	"coursepilot/middleware"
	"coursepilot/models"

	"github.com/gofiber/fiber/v2"
)

func CreateProject() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		if strings.TrimSpace(reqData.Name) == "" {
			errors["name"] = "Project name is required!"
		}
		if len(reqData.Name) > 200 {
			errors["name"] = "Project name must be at most 200 characters!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedProject", reqData)
		return c.Next()
	}
}

func ProjectID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		projectIDStr := strings.TrimSpace(c.Params("id"))
		if projectIDStr == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Project ID is required!", nil)
		}

		projectID, err := strconv.Atoi(projectIDStr)
		if err != nil || projectID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Project ID!", nil)
		}

		c.Locals("projectID", projectID)
		return c.Next()
	}
}

func PhaseParam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		phase := strings.ToLower(strings.TrimSpace(c.Params("phase")))
		if models.PhaseIndex(phase) < 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Unknown pipeline phase!", nil)
		}

		c.Locals("phase", phase)
		return c.Next()
	}
}

func LinkCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			CourseID uint `json:"course_id"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if reqData.CourseID == 0 {
			return middleware.ValidationErrorResponse(c, map[string]string{"course_id": "Course ID is required!"})
		}

		c.Locals("validatedCourseLink", reqData)
		return c.Next()
	}
}

func RetentionBody() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			AuditRetentionDays *int `json:"audit_retention_days"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if reqData.AuditRetentionDays == nil || *reqData.AuditRetentionDays < 0 {
			return middleware.ValidationErrorResponse(c, map[string]string{"audit_retention_days": "Must be zero or a positive number of days!"})
		}

		c.Locals("validatedRetention", reqData)
		return c.Next()
	}
}
