package projectController

import (
	"coursepilot/database"
	"coursepilot/middleware"
	"coursepilot/models"
	"coursepilot/services"

	"github.com/gofiber/fiber/v2"
)

func pipelineService() *services.PipelineService {
	db := database.Database.Db
	return services.NewPipelineService(db, services.NewAuditService(db))
}

func CreateProject(c *fiber.Ctx) error {
	actor := middleware.ActorFromCtx(c)
	if actor.OrgID == 0 {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedProject").(*struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	project, err := pipelineService().CreateProject(c.Context(), actor.OrgID, reqData.Name, reqData.Description, actor)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Project created successfully!", project)
}

func ListProjects(c *fiber.Ctx) error {
	actor := middleware.ActorFromCtx(c)
	if actor.OrgID == 0 {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	projects, err := pipelineService().ListProjects(c.Context(), actor.OrgID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Projects fetched successfully!", fiber.Map{
		"projects": projects,
		"total":    len(projects),
	})
}

func GetProject(c *fiber.Ctx) error {
	projectID := c.Locals("projectID").(int)

	project, states, err := pipelineService().GetProject(c.Context(), uint(projectID))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Project fetched successfully!", fiber.Map{
		"project":      project,
		"phase_states": states,
	})
}

func StartPhase(c *fiber.Ctx) error {
	actor := middleware.ActorFromCtx(c)
	projectID := c.Locals("projectID").(int)
	phase := c.Locals("phase").(string)

	state, err := pipelineService().StartPhase(c.Context(), uint(projectID), phase, actor)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Phase started!", state)
}

func CompletePhase(c *fiber.Ctx) error {
	actor := middleware.ActorFromCtx(c)
	projectID := c.Locals("projectID").(int)
	phase := c.Locals("phase").(string)

	project, err := pipelineService().CompletePhase(c.Context(), uint(projectID), phase, actor)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Phase completed!", project)
}

// ReopenPhase is the explicit, audited path for moving the pipeline
// backward. Admin only.
func ReopenPhase(c *fiber.Ctx) error {
	actor := middleware.ActorFromCtx(c)
	projectID := c.Locals("projectID").(int)
	phase := c.Locals("phase").(string)

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", actor.ID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}
	if user.Role != "ADMIN" {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied! Admin only.", nil)
	}

	project, err := pipelineService().ReopenPhase(c.Context(), uint(projectID), phase, actor)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Phase reopened!", project)
}

func LinkCourse(c *fiber.Ctx) error {
	actor := middleware.ActorFromCtx(c)
	projectID := c.Locals("projectID").(int)

	reqData, ok := c.Locals("validatedCourseLink").(*struct {
		CourseID uint `json:"course_id"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	if err := pipelineService().LinkCourse(c.Context(), uint(projectID), reqData.CourseID, actor); err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course linked!", nil)
}

func ArchiveProject(c *fiber.Ctx) error {
	actor := middleware.ActorFromCtx(c)
	projectID := c.Locals("projectID").(int)

	if err := pipelineService().ArchiveProject(c.Context(), uint(projectID), actor); err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Project archived!", nil)
}
