package enrollmentController

import (
	"context"

	"coursepilot/database"
	"coursepilot/middleware"
	"coursepilot/models"
	pipelineModels "coursepilot/models/pipeline"
	"coursepilot/services"
	"coursepilot/utils"
	enrollmentValidator "coursepilot/validators/enrollment"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func enrollmentService() *services.EnrollmentService {
	db := database.Database.Db
	svc := services.NewEnrollmentService(db, services.NewRosterService(db), services.NewGormEnrollmentStore(db), services.NewAuditService(db))
	svc.Notifier = &utils.EmailNotifier{}
	return svc
}

// implementationFor looks up the project's implementation record. Returns
// (nil, nil) when none exists yet; read handlers must not create one.
func implementationFor(ctx context.Context, projectID uint) (*pipelineModels.ImplementationRecord, error) {
	var impl pipelineModels.ImplementationRecord
	err := database.Database.Db.WithContext(ctx).
		Where("project_id = ? AND is_deleted = ?", projectID, false).First(&impl).Error
	if err == nil {
		return &impl, nil
	}
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	return nil, err
}

// ensureImplementation creates the implementation record on first write.
// Only handlers behind an edit-capability check may call this; creation is
// still reachability-gated by the record service.
func ensureImplementation(ctx context.Context, projectID uint, actor services.Actor) (*pipelineModels.ImplementationRecord, error) {
	impl, err := implementationFor(ctx, projectID)
	if err != nil || impl != nil {
		return impl, err
	}

	db := database.Database.Db
	audit := services.NewAuditService(db)
	records := services.NewPhaseRecordService(db, services.NewPipelineService(db, audit), audit, nil)
	record, err := records.CreateOrUpdate(ctx, projectID, models.PhaseImplement, []byte("{}"), actor)
	if err != nil {
		return nil, err
	}
	return record.(*pipelineModels.ImplementationRecord), nil
}

func AddRule(c *fiber.Ctx) error {
	actor := middleware.ActorFromCtx(c)
	projectID := c.Locals("projectID").(int)

	reqData, ok := c.Locals("validatedRule").(*enrollmentValidator.RuleRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	impl, err := ensureImplementation(c.Context(), uint(projectID), actor)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	autoEnroll := true
	if reqData.AutoEnroll != nil {
		autoEnroll = *reqData.AutoEnroll
	}
	priority := reqData.Priority
	if priority == "" {
		priority = models.PriorityRequired
	}

	rule, err := enrollmentService().AddRule(c.Context(), impl.ID, pipelineModels.EnrollmentRule{
		Type:       reqData.Type,
		TargetID:   reqData.TargetID,
		TargetName: reqData.TargetName,
		Priority:   priority,
		AutoEnroll: autoEnroll,
		DueDate:    reqData.DueDate,
	}, actor)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Rule added!", rule)
}

func RemoveRule(c *fiber.Ctx) error {
	actor := middleware.ActorFromCtx(c)
	ruleID := c.Locals("ruleID").(int)

	if err := enrollmentService().RemoveRule(c.Context(), uint(ruleID), actor); err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Rule removed!", nil)
}

func ListRules(c *fiber.Ctx) error {
	projectID := c.Locals("projectID").(int)

	impl, err := implementationFor(c.Context(), uint(projectID))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if impl == nil {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Rules fetched successfully!", fiber.Map{
			"rules": []pipelineModels.EnrollmentRule{},
			"total": 0,
			"stats": statsOf(&pipelineModels.ImplementationRecord{}),
		})
	}

	rules, err := enrollmentService().ListRules(c.Context(), impl.ID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Rules fetched successfully!", fiber.Map{
		"rules": rules,
		"total": len(rules),
		"stats": statsOf(impl),
	})
}

func statsOf(impl *pipelineModels.ImplementationRecord) fiber.Map {
	return fiber.Map{
		"enrolled_count":    impl.EnrolledCount,
		"in_progress_count": impl.InProgressCount,
		"completed_count":   impl.CompletedCount,
		"not_started_count": impl.NotStartedCount,
		"overdue_count":     impl.OverdueCount,
		"last_launched_at":  impl.LastLaunchedAt,
	}
}

func GetPreview(c *fiber.Ctx) error {
	projectID := c.Locals("projectID").(int)

	impl, err := implementationFor(c.Context(), uint(projectID))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if impl == nil {
		empty := services.EnrollmentPreview{Rules: []services.RulePreview{}}
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Preview computed!", empty)
	}

	preview, err := enrollmentService().Preview(c.Context(), impl.ID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Preview computed!", preview)
}

// ExportPreview downloads the deduplicated target list as CSV
func ExportPreview(c *fiber.Ctx) error {
	projectID := c.Locals("projectID").(int)

	impl, err := implementationFor(c.Context(), uint(projectID))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	var rows []services.PreviewRow
	if impl != nil {
		rows, err = enrollmentService().PreviewRows(c.Context(), impl.ID)
		if err != nil {
			return middleware.ErrorResponse(c, err)
		}
	}

	data, err := utils.PreviewCSV(rows)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to build export!", nil)
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", `attachment; filename="enrollment-preview.csv"`)
	return c.Send(data)
}

// Launch commits the resolution as real enrollments. Partial success is a
// 200 with the failed rules listed in the result.
func Launch(c *fiber.Ctx) error {
	actor := middleware.ActorFromCtx(c)
	projectID := c.Locals("projectID").(int)

	impl, err := implementationFor(c.Context(), uint(projectID))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if impl == nil {
		return middleware.ErrorResponse(c, &services.PreconditionNotMetError{
			Phase:   models.PhaseImplement,
			Missing: "enrollment rules",
		})
	}

	result, err := enrollmentService().Launch(c.Context(), impl.ID, actor)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	message := "Launch completed!"
	if result.Created == 0 && len(result.Failures) == 0 {
		message = "No new enrollments."
	} else if len(result.Failures) > 0 {
		message = "Launch partially applied."
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, result)
}
