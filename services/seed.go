package services

import (
	"log"
	"time"

	"forgood-mission-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	demoProposer = "0x1111111111111111111111111111111111111111"
	demoClaimant = "0x2222222222222222222222222222222222222222"
	demoBooster  = "0x3333333333333333333333333333333333333333"
)

func strPtr(s string) *string        { return &s }
func intPtr(i int) *int              { return &i }
func floatPtr(f float64) *float64    { return &f }
func timePtr(t time.Time) *time.Time { return &t }

// SeedIfEmpty bootstraps demo data on a fresh database. Reruns are no-ops.
func SeedIfEmpty(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Mission{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return Seed(db, false)
}

// Seed inserts the demo mission set; with reset it wipes missions, proofs
// and boosts first. Profiles survive a reset.
func Seed(db *gorm.DB, reset bool) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if reset {
			for _, model := range []interface{}{&models.Proof{}, &models.BoostRecord{}, &models.Mission{}} {
				if err := tx.Unscoped().Where("1 = 1").Delete(model).Error; err != nil {
					return err
				}
			}
		}

		now := time.Now()
		missions := []models.Mission{
			{
				ID:           uuid.NewString(),
				Title:        "test",
				Description:  "Debug mission for exercising the full lifecycle. Any proof submitted here is automatically approved.",
				Category:     "other",
				Proposer:     demoProposer,
				Status:       models.StatusActive,
				Difficulty:   intPtr(1),
				Impact:       intPtr(1),
				Confidence:   floatPtr(1.0),
				Rationale:    strPtr("Debug mission with a fixed minimal reward."),
				RewardAmount: models.NewWei(ComputeReward(1, 1)),
			},
			{
				ID:           uuid.NewString(),
				Title:        "Clean up the riverside park",
				Description:  "Organize a community cleanup of the riverside park: collect litter, sort recyclables, and document the before/after state of at least three zones.",
				Category:     "environment",
				Location:     strPtr("Riverside Park, East Bank"),
				Proposer:     demoProposer,
				Status:       models.StatusActive,
				Difficulty:   intPtr(4),
				Impact:       intPtr(6),
				Confidence:   floatPtr(0.85),
				Rationale:    strPtr("Moderate logistics, meaningful local environmental impact."),
				RewardAmount: models.NewWei(ComputeReward(4, 6)),
			},
			{
				ID:           uuid.NewString(),
				Title:        "Teach a free coding workshop",
				Description:  "Run a two-hour introductory programming workshop for beginners at a public library or community center, with materials shared openly afterwards.",
				Category:     "education",
				Proposer:     demoProposer,
				Status:       models.StatusEvaluated,
				Difficulty:   intPtr(5),
				Impact:       intPtr(7),
				Confidence:   floatPtr(0.8),
				Rationale:    strPtr("Requires preparation and teaching skill; durable impact through shared materials."),
				RewardAmount: models.NewWei(ComputeReward(5, 7)),
			},
			{
				ID:          uuid.NewString(),
				Title:       "Document accessibility gaps downtown",
				Description: "Survey wheelchair accessibility of public buildings in the downtown area and publish an open dataset of entrances, ramps, and barriers.",
				Category:    "community",
				Location:    strPtr("Downtown"),
				Proposer:    demoClaimant,
				Status:      models.StatusProposed,
			},
			{
				ID:               uuid.NewString(),
				Title:            "Fix open-source accessibility bugs",
				Description:      "Close three confirmed accessibility issues in a widely used open-source project and link the merged pull requests as proof.",
				Category:         "open-source",
				Proposer:         demoProposer,
				Status:           models.StatusVerified,
				Difficulty:       intPtr(6),
				Impact:           intPtr(8),
				Confidence:       floatPtr(0.9),
				Rationale:        strPtr("Technical work with broad downstream benefit."),
				RewardAmount:     models.NewWei(ComputeReward(6, 8)),
				ClaimedBy:        strPtr(demoClaimant),
				ClaimedAt:        timePtr(now.Add(-48 * time.Hour)),
				ProofURI:         strPtr("https://github.com/example/project/pulls?q=is%3Amerged"),
				ProofSubmittedBy: strPtr(demoClaimant),
			},
		}

		for i := range missions {
			if err := tx.Create(&missions[i]).Error; err != nil {
				return err
			}
		}

		verified := &missions[4]
		proof := models.Proof{
			ID:         uuid.NewString(),
			MissionID:  verified.ID,
			Submitter:  demoClaimant,
			ProofURI:   *verified.ProofURI,
			Verdict:    strPtr(string(VerdictApproved)),
			Confidence: floatPtr(0.9),
			Evidence:   models.StringList{"Three merged pull requests visible", "Issues closed by project maintainers"},
		}
		if err := tx.Create(&proof).Error; err != nil {
			return err
		}

		log.Printf("✅ Seeded %d demo missions", len(missions))
		return nil
	})
}
