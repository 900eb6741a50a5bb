package middleware

import (
	"context"
	"errors"

	"coursepilot/services"

	"github.com/gofiber/fiber/v2"
)

// serviceErrorResponse translates the service error taxonomy into HTTP
// statuses. Precondition messages pass through so the UI can name the
// missing artifact.
func serviceErrorResponse(c *fiber.Ctx, err error) error {
	var precondition *services.PreconditionNotMetError
	var validation *services.ValidationError
	var notFound *services.NotFoundError
	var conflict *services.ConflictError

	switch {
	case errors.As(err, &validation):
		return JsonResponse(c, fiber.StatusUnprocessableEntity, false, validation.Error(), nil)
	case errors.As(err, &notFound):
		return JsonResponse(c, fiber.StatusNotFound, false, notFound.Error(), nil)
	case errors.As(err, &precondition):
		return JsonResponse(c, fiber.StatusConflict, false, precondition.Error(), fiber.Map{
			"phase":   precondition.Phase,
			"missing": precondition.Missing,
		})
	case errors.As(err, &conflict):
		return JsonResponse(c, fiber.StatusConflict, false, conflict.Error(), nil)
	case errors.Is(err, context.DeadlineExceeded):
		return JsonResponse(c, fiber.StatusGatewayTimeout, false, "Operation timed out!", nil)
	case errors.Is(err, context.Canceled):
		return JsonResponse(c, 499, false, "Operation canceled!", nil)
	default:
		return JsonResponse(c, fiber.StatusInternalServerError, false, "Internal server error!", nil)
	}
}
