package pipelineController

import (
	"encoding/json"
	"log"

	"coursepilot/database"
	"coursepilot/middleware"
	pipelineModels "coursepilot/models/pipeline"
	"coursepilot/services"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

// Hub fans phase-record changes out to websocket subscribers
var Hub = services.NewChangeHub()

func recordService() *services.PhaseRecordService {
	db := database.Database.Db
	audit := services.NewAuditService(db)
	return services.NewPhaseRecordService(db, services.NewPipelineService(db, audit), audit, Hub)
}

func GetRecord(c *fiber.Ctx) error {
	projectID := c.Locals("projectID").(int)
	phase := c.Locals("phase").(string)

	record, err := recordService().Get(c.Context(), uint(projectID), phase)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Record fetched successfully!", record)
}

func UpsertRecord(c *fiber.Ctx) error {
	actor := middleware.ActorFromCtx(c)
	projectID := c.Locals("projectID").(int)
	phase := c.Locals("phase").(string)

	body := c.Body()
	if len(body) == 0 {
		body = []byte("{}")
	}
	if !json.Valid(body) {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid JSON payload!", nil)
	}

	record, err := recordService().CreateOrUpdate(c.Context(), uint(projectID), phase, datatypes.JSON(body), actor)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Record saved!", record)
}

func AddContentItem(c *fiber.Ctx) error {
	actor := middleware.ActorFromCtx(c)
	projectID := c.Locals("projectID").(int)

	var item pipelineModels.ContentItem
	if err := c.BodyParser(&item); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	created, err := recordService().AddContentItem(c.Context(), uint(projectID), item, actor)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Content item added!", created)
}

func ListContentItems(c *fiber.Ctx) error {
	projectID := c.Locals("projectID").(int)

	items, err := recordService().ListContentItems(c.Context(), uint(projectID))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Content items fetched successfully!", fiber.Map{
		"items": items,
		"total": len(items),
	})
}

func SetRetention(c *fiber.Ctx) error {
	actor := middleware.ActorFromCtx(c)
	projectID := c.Locals("projectID").(int)

	reqData, ok := c.Locals("validatedRetention").(*struct {
		AuditRetentionDays *int `json:"audit_retention_days"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	if err := recordService().SetRetention(c.Context(), uint(projectID), *reqData.AuditRetentionDays, actor); err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Retention updated!", nil)
}

// WsUpgrade gates the subscription endpoint to websocket requests
func WsUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// SubscribeRecords streams phase-record change events for one project.
// Subscription is a side channel: record writes complete whether or not
// anyone is connected, and slow readers just miss events.
func SubscribeRecords() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		projectID, ok := conn.Locals("projectID").(int)
		if !ok {
			conn.Close()
			return
		}

		ch, cancel := Hub.Subscribe(uint(projectID))
		defer cancel()

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case event, open := <-ch:
				if !open {
					return
				}
				if err := conn.WriteJSON(event); err != nil {
					log.Printf("Subscriber write failed for project %d: %v", projectID, err)
					return
				}
			case <-done:
				return
			}
		}
	})
}
