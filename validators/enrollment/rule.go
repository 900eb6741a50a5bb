package enrollmentValidator

import (
	"strconv"
	"strings"
	"time"

	"coursepilot/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// RuleRequest is the rule-creation body. Cross-field target requirements are
// checked after the tag validation since they depend on the rule type.
type RuleRequest struct {
	Type       string     `json:"type" validate:"required,oneof=ALL DEPARTMENT TEAM ROLE INDIVIDUAL"`
	TargetID   uint       `json:"target_id"`
	TargetName string     `json:"target_name"`
	Priority   string     `json:"priority" validate:"omitempty,oneof=REQUIRED RECOMMENDED OPTIONAL"`
	AutoEnroll *bool      `json:"auto_enroll"`
	DueDate    *time.Time `json:"due_date"`
}

func AddRule() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(RuleRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		reqData.Type = strings.ToUpper(strings.TrimSpace(reqData.Type))
		reqData.Priority = strings.ToUpper(strings.TrimSpace(reqData.Priority))

		if err := validate.Struct(reqData); err != nil {
			errors := make(map[string]string)
			if fieldErrors, ok := err.(validator.ValidationErrors); ok {
				for _, fe := range fieldErrors {
					errors[strings.ToLower(fe.Field())] = "Failed validation: " + fe.Tag()
				}
			}
			return middleware.ValidationErrorResponse(c, errors)
		}

		errors := make(map[string]string)
		switch reqData.Type {
		case "DEPARTMENT", "TEAM", "INDIVIDUAL":
			if reqData.TargetID == 0 {
				errors["target_id"] = "Target ID is required for " + reqData.Type + " rules!"
			}
		case "ROLE":
			if strings.TrimSpace(reqData.TargetName) == "" {
				errors["target_name"] = "Target name is required for ROLE rules!"
			}
		}
		if reqData.DueDate != nil && reqData.DueDate.Before(time.Now()) {
			errors["due_date"] = "Due date must be in the future!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedRule", reqData)
		return c.Next()
	}
}

func RuleID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ruleIDStr := strings.TrimSpace(c.Params("rule_id"))
		ruleID, err := strconv.Atoi(ruleIDStr)
		if err != nil || ruleID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Rule ID!", nil)
		}

		c.Locals("ruleID", ruleID)
		return c.Next()
	}
}
