package handlers

import (
	"forgood-mission-system/ai"
	"forgood-mission-system/middleware"
	"forgood-mission-system/services"
	"forgood-mission-system/workers"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupSystemRoutes(app *fiber.App, db *gorm.DB, svc *services.MissionService, oracle *ai.Client, poller *workers.TreasuryPoller) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "forgood-mission-system",
			"status":  "ok",
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		dbStatus := "ok"
		if sqlDB, err := db.DB(); err != nil || sqlDB.Ping() != nil {
			dbStatus = "unavailable"
		}
		body := fiber.Map{
			"status":     "ok",
			"database":   dbStatus,
			"ai":         oracle.Available(),
			"settlement": svc.Chain != nil && svc.Chain.Enabled(),
		}
		if oracle.Available() {
			mode, text, vision := oracle.ActiveModels()
			body["models"] = fiber.Map{"mode": mode, "text": text, "vision": vision}
		}
		if dbStatus != "ok" {
			body["status"] = "degraded"
			return c.Status(fiber.StatusServiceUnavailable).JSON(body)
		}
		return c.JSON(body)
	})

	app.Get("/treasury", func(c *fiber.Ctx) error {
		snap := poller.Snapshot()
		body := fiber.Map{"enabled": snap.Enabled}
		if snap.Balance != nil {
			body["balance_wei"] = snap.Balance.String()
			body["balance"] = services.FormatReward(snap.Balance)
			body["checked_at"] = snap.CheckedAt
		}
		if snap.Err != nil {
			body["error"] = snap.Err.Error()
		}
		return c.JSON(body)
	})

	op := middleware.ServiceAuthMiddleware()

	app.Post("/seed", op, func(c *fiber.Ctx) error {
		if err := services.Seed(db, c.QueryBool("reset")); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"seeded": true})
	})

	app.Post("/agent/auto-post", op, func(c *fiber.Ctx) error {
		mission, err := svc.AutoPost(c.Context())
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"mission": serializeMission(mission)})
	})
}
