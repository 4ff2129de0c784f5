package handlers

import (
	"forgood-mission-system/middleware"
	"forgood-mission-system/models"
	"forgood-mission-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupMissionRoutes(app *fiber.App, svc *services.MissionService) {
	// Public reads
	app.Get("/missions", listMissions(svc))
	app.Get("/missions/categories", listCategories())
	app.Get("/missions/mine/:address", myMissions(svc))
	app.Get("/missions/:id", getMission(svc))

	// Participant transitions
	app.Post("/missions", proposeMission(svc))
	app.Post("/missions/:id/claim", claimMission(svc))
	app.Post("/missions/:id/unclaim", unclaimMission(svc))
	app.Post("/missions/:id/proof", submitProof(svc))
	app.Post("/missions/:id/verify", verifyMission(svc))
	app.Post("/missions/:id/boost", boostMission(svc))

	// Operator transitions — guarded when MISSION_SERVICE_TOKEN is set
	op := middleware.ServiceAuthMiddleware()
	app.Post("/missions/:id/evaluate", op, evaluateMission(svc))
	app.Post("/missions/:id/activate", op, activateMission(svc))
	app.Post("/missions/:id/reward", op, rewardMission(svc))
}

func listMissions(svc *services.MissionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var status *models.MissionStatus
		if raw := c.Query("status"); raw != "" {
			st := models.MissionStatus(raw)
			if !models.ValidStatus(st) {
				return fail(c, services.ErrValidation("unknown status %q", raw))
			}
			status = &st
		}
		missions, err := svc.ListMissions(status, c.QueryBool("unclaimed"), c.QueryInt("limit", 50))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"missions": serializeMissions(missions), "count": len(missions)})
	}
}

func listCategories() fiber.Handler {
	return func(c *fiber.Ctx) error {
		out := make([]fiber.Map, len(models.Categories))
		for i, cat := range models.Categories {
			out[i] = fiber.Map{"value": cat, "label": titleCaser.String(cat)}
		}
		return c.JSON(fiber.Map{"categories": out})
	}
}

func getMission(svc *services.MissionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		mission, proofs, err := svc.GetMission(c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		history := make([]fiber.Map, len(proofs))
		for i := range proofs {
			history[i] = serializeProof(&proofs[i])
		}
		body := serializeMission(mission)
		body["proofs"] = history
		return c.JSON(body)
	}
}

func myMissions(svc *services.MissionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		proposed, claimed, err := svc.MyMissions(c.Params("address"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{
			"proposed": serializeMissions(proposed),
			"claimed":  serializeMissions(claimed),
		})
	}
}

func proposeMission(svc *services.MissionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in services.MissionProposal
		if err := c.BodyParser(&in); err != nil {
			return fail(c, services.ErrValidation("invalid request body"))
		}
		mission, screening, err := svc.Propose(c.Context(), in)
		if err != nil {
			return fail(c, err)
		}
		body := fiber.Map{"mission": serializeMission(mission)}
		if screening != nil {
			body["screening"] = screening
		}
		return c.Status(fiber.StatusCreated).JSON(body)
	}
}

func evaluateMission(svc *services.MissionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// An empty body requests AI evaluation; a judgment body applies it.
		if len(c.Body()) == 0 {
			mission, eval, err := svc.AutoEvaluate(c.Context(), c.Params("id"))
			if err != nil {
				return fail(c, err)
			}
			return c.JSON(fiber.Map{"mission": serializeMission(mission), "evaluation": eval})
		}
		var in services.EvaluationInput
		if err := c.BodyParser(&in); err != nil {
			return fail(c, services.ErrValidation("invalid request body"))
		}
		mission, err := svc.Evaluate(c.Context(), c.Params("id"), in)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"mission": serializeMission(mission)})
	}
}

func activateMission(svc *services.MissionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		mission, err := svc.Activate(c.Context(), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"mission": serializeMission(mission)})
	}
}

func claimMission(svc *services.MissionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in struct {
			Claimer string `json:"claimer"`
		}
		if err := c.BodyParser(&in); err != nil {
			return fail(c, services.ErrValidation("invalid request body"))
		}
		mission, err := svc.Claim(c.Context(), c.Params("id"), in.Claimer)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"mission": serializeMission(mission)})
	}
}

func unclaimMission(svc *services.MissionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in struct {
			Claimer string `json:"claimer"`
		}
		if err := c.BodyParser(&in); err != nil {
			return fail(c, services.ErrValidation("invalid request body"))
		}
		mission, err := svc.Unclaim(c.Context(), c.Params("id"), in.Claimer)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"mission": serializeMission(mission)})
	}
}

func submitProof(svc *services.MissionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in services.ProofInput
		if err := c.BodyParser(&in); err != nil {
			return fail(c, services.ErrValidation("invalid request body"))
		}
		mission, proof, err := svc.SubmitProof(c.Context(), c.Params("id"), in)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{
			"mission": serializeMission(mission),
			"proof":   serializeProof(proof),
		})
	}
}

func verifyMission(svc *services.MissionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// An empty body requests AI verification; a verdict body applies it.
		if len(c.Body()) == 0 {
			result, err := svc.AutoVerify(c.Context(), c.Params("id"))
			if err != nil {
				return fail(c, err)
			}
			body := fiber.Map{
				"mission":      serializeMission(result.Mission),
				"verification": result.Verification,
			}
			if result.Discriminator != nil {
				body["discriminator"] = result.Discriminator
			}
			return c.JSON(body)
		}
		var in services.VerificationInput
		if err := c.BodyParser(&in); err != nil {
			return fail(c, services.ErrValidation("invalid request body"))
		}
		mission, err := svc.Verify(c.Context(), c.Params("id"), in)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"mission": serializeMission(mission)})
	}
}

func rewardMission(svc *services.MissionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in services.RewardInput
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&in); err != nil {
				return fail(c, services.ErrValidation("invalid request body"))
			}
		}
		mission, err := svc.Reward(c.Context(), c.Params("id"), in)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"mission": serializeMission(mission)})
	}
}

func boostMission(svc *services.MissionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in struct {
			Booster string  `json:"booster"`
			Amount  string  `json:"amount"`
			TxHash  *string `json:"tx_hash"`
		}
		if err := c.BodyParser(&in); err != nil {
			return fail(c, services.ErrValidation("invalid request body"))
		}
		amount, err := models.ParseWei(in.Amount)
		if err != nil {
			return fail(c, services.ErrValidation("amount must be a decimal wei string"))
		}
		mission, receipt, err := svc.Boost(c.Context(), c.Params("id"), services.BoostInput{
			Booster: in.Booster,
			Amount:  amount.BigInt(),
			TxHash:  in.TxHash,
		})
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{
			"mission": serializeMission(mission),
			"boost": fiber.Map{
				"booster":   receipt.Booster,
				"amount":    receipt.Amount.String(),
				"new_total": receipt.NewTotal.String(),
				"tx_hash":   receipt.TxHash,
			},
		})
	}
}
