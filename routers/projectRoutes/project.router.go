package projectRoutes

import (
	pipelineController "coursepilot/controllers/pipeline"
	projectController "coursepilot/controllers/project"
	"coursepilot/middleware"
	"coursepilot/models"
	projectValidator "coursepilot/validators/project"

	"github.com/gofiber/fiber/v2"
)

// SetupProjectRoutes sets up project and pipeline phase routes
func SetupProjectRoutes(app *fiber.App) {
	group := app.Group("/project")

	// Project lifecycle
	group.Post("/", middleware.JWTMiddleware, middleware.CheckPermissionMiddleware(models.PermissionEditProjects), projectValidator.CreateProject(), projectController.CreateProject)
	group.Get("/list", middleware.JWTMiddleware, projectController.ListProjects)
	group.Get("/:id", middleware.JWTMiddleware, projectValidator.ProjectID(), projectController.GetProject)
	group.Delete("/:id", middleware.JWTMiddleware, middleware.CheckPermissionMiddleware(models.PermissionEditProjects), projectValidator.ProjectID(), projectController.ArchiveProject)
	group.Post("/:id/course", middleware.JWTMiddleware, middleware.CheckPermissionMiddleware(models.PermissionEditProjects), projectValidator.ProjectID(), projectValidator.LinkCourse(), projectController.LinkCourse)

	// Phase transitions
	group.Post("/:id/phase/:phase/start", middleware.JWTMiddleware, middleware.CheckPermissionMiddleware(models.PermissionEditProjects), projectValidator.ProjectID(), projectValidator.PhaseParam(), projectController.StartPhase)
	group.Post("/:id/phase/:phase/complete", middleware.JWTMiddleware, middleware.CheckPermissionMiddleware(models.PermissionEditProjects), projectValidator.ProjectID(), projectValidator.PhaseParam(), projectController.CompletePhase)
	group.Post("/:id/phase/:phase/reopen", middleware.JWTMiddleware, projectValidator.ProjectID(), projectValidator.PhaseParam(), projectController.ReopenPhase)

	// Phase records
	group.Get("/:id/record/:phase", middleware.JWTMiddleware, projectValidator.ProjectID(), projectValidator.PhaseParam(), pipelineController.GetRecord)
	group.Put("/:id/record/:phase", middleware.JWTMiddleware, middleware.CheckPermissionMiddleware(models.PermissionEditProjects), projectValidator.ProjectID(), projectValidator.PhaseParam(), pipelineController.UpsertRecord)
	group.Post("/:id/content", middleware.JWTMiddleware, middleware.CheckPermissionMiddleware(models.PermissionEditProjects), projectValidator.ProjectID(), pipelineController.AddContentItem)
	group.Get("/:id/content", middleware.JWTMiddleware, projectValidator.ProjectID(), pipelineController.ListContentItems)
	group.Put("/:id/retention", middleware.JWTMiddleware, middleware.CheckPermissionMiddleware(models.PermissionEditProjects), projectValidator.ProjectID(), projectValidator.RetentionBody(), pipelineController.SetRetention)

	// Live phase-record change feed
	group.Get("/:id/subscribe", middleware.JWTMiddleware, projectValidator.ProjectID(), pipelineController.WsUpgrade, pipelineController.SubscribeRecords())
}
