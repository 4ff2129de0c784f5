package handlers

import (
	"forgood-mission-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProfileRoutes(app *fiber.App, svc *services.ProfileService) {
	app.Get("/ranks", listRanks())
	app.Get("/rank/:address", getRank(svc))
	app.Get("/profile/:address", getProfile(svc))
	app.Put("/profile/:address", putProfile(svc))
}

func listRanks() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ranks": services.AllRanks()})
	}
}

func getProfile(svc *services.ProfileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		address := c.Params("address")
		profile, err := svc.GetOrDefaultProfile(address)
		if err != nil {
			return fail(c, err)
		}
		tier, stats, err := svc.RankFor(address)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{
			"profile": profile,
			"rank":    tier,
			"stats": fiber.Map{
				"missions_completed": stats.MissionsCompleted,
				"missions_proposed":  stats.MissionsProposed,
				"missions_claimed":   stats.MissionsClaimed,
				"missions_verified":  stats.MissionsVerified,
				"total_boost_wei":    stats.TotalBoostWei.String(),
				"total_boost":        services.FormatReward(stats.TotalBoostWei),
			},
		})
	}
}

func putProfile(svc *services.ProfileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in services.ProfileInput
		if err := c.BodyParser(&in); err != nil {
			return fail(c, services.ErrValidation("invalid request body"))
		}
		profile, err := svc.UpsertProfile(c.Params("address"), in)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"profile": profile})
	}
}

func getRank(svc *services.ProfileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tier, stats, err := svc.RankFor(c.Params("address"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{
			"rank":               tier,
			"missions_completed": stats.MissionsCompleted,
			"total_boost_wei":    stats.TotalBoostWei.String(),
		})
	}
}
