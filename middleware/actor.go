package middleware

import (
	"coursepilot/services"

	"github.com/gofiber/fiber/v2"
)

// ActorFromCtx builds the audit actor from the JWT claims set in Locals
func ActorFromCtx(c *fiber.Ctx) services.Actor {
	actor := services.Actor{}
	if id, ok := c.Locals("userId").(uint); ok {
		actor.ID = id
	}
	if name, ok := c.Locals("userName").(string); ok {
		actor.Name = name
	}
	if orgID, ok := c.Locals("orgId").(uint); ok {
		actor.OrgID = orgID
	}
	return actor
}
