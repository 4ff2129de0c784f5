package handlers

import (
	"log"

	"forgood-mission-system/models"
	"forgood-mission-system/services"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// fail maps a service error to the right status code and JSON shape.
// Unclassified errors become opaque 500s; the detail stays in the log.
func fail(c *fiber.Ctx, err error) error {
	if appErr, ok := services.AsAppError(err); ok {
		body := fiber.Map{"error": appErr.Message, "kind": string(appErr.Kind)}
		if appErr.Details != nil {
			body["details"] = appErr.Details
		}
		return c.Status(appErr.HTTPStatus()).JSON(body)
	}
	log.Printf("❌ Internal error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

// serializeMission shapes a mission for API responses, adding the derived
// display fields the UI needs (formatted reward, category label).
func serializeMission(m *models.Mission) fiber.Map {
	var reward *string
	formatted := "TBD"
	if m.RewardAmount != nil {
		s := m.RewardAmount.String()
		reward = &s
		formatted = services.FormatReward(m.RewardAmount.BigInt())
	}
	return fiber.Map{
		"id":                 m.ID,
		"title":              m.Title,
		"description":        m.Description,
		"category":           m.Category,
		"category_label":     titleCaser.String(m.Category),
		"location":           m.Location,
		"proposer":           m.Proposer,
		"status":             string(m.Status),
		"difficulty":         m.Difficulty,
		"impact":             m.Impact,
		"confidence":         m.Confidence,
		"rationale":          m.Rationale,
		"reward_amount":      reward,
		"reward_formatted":   formatted,
		"claimed_by":         m.ClaimedBy,
		"claimed_at":         m.ClaimedAt,
		"proof_uri":          m.ProofURI,
		"proof_note":         m.ProofNote,
		"proof_submitted_by": m.ProofSubmittedBy,
		"onchain_tx_hash":    m.OnchainTxHash,
		"created_at":         m.CreatedAt,
		"updated_at":         m.UpdatedAt,
	}
}

func serializeMissions(missions []models.Mission) []fiber.Map {
	out := make([]fiber.Map, len(missions))
	for i := range missions {
		out[i] = serializeMission(&missions[i])
	}
	return out
}

func serializeProof(p *models.Proof) fiber.Map {
	return fiber.Map{
		"id":         p.ID,
		"mission_id": p.MissionID,
		"submitter":  p.Submitter,
		"proof_uri":  p.ProofURI,
		"note":       p.Note,
		"verdict":    p.Verdict,
		"confidence": p.Confidence,
		"evidence":   []string(p.Evidence),
		"created_at": p.CreatedAt,
	}
}
