package models

import "time"

type MissionStatus string

const (
	StatusProposed       MissionStatus = "proposed"
	StatusEvaluated      MissionStatus = "evaluated"
	StatusActive         MissionStatus = "active"
	StatusProofSubmitted MissionStatus = "proof_submitted"
	StatusVerified       MissionStatus = "verified"
	StatusRejected       MissionStatus = "rejected"
	StatusRewarded       MissionStatus = "rewarded"
)

// AllStatuses in lifecycle order, rejected last.
var AllStatuses = []MissionStatus{
	StatusProposed, StatusEvaluated, StatusActive, StatusProofSubmitted,
	StatusVerified, StatusRewarded, StatusRejected,
}

func ValidStatus(s MissionStatus) bool {
	for _, st := range AllStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// Categories recognised by the AI evaluator
var Categories = []string{
	"environment",
	"education",
	"community",
	"open-source",
	"health",
	"infrastructure",
	"other",
}

func ValidCategory(c string) bool {
	for _, cat := range Categories {
		if cat == c {
			return true
		}
	}
	return false
}

// Mission is the central lifecycle entity. Evaluation, claim, proof and
// settlement fields are nullable until the corresponding transition sets them.
type Mission struct {
	ID          string        `gorm:"primaryKey;type:uuid" json:"id"`
	Title       string        `gorm:"type:varchar(120);not null" json:"title"`
	Description string        `gorm:"type:text;not null" json:"description"`
	Category    string        `gorm:"type:varchar(64);not null;index" json:"category"`
	Location    *string       `gorm:"type:varchar(128)" json:"location"`
	Proposer    string        `gorm:"type:varchar(64);not null;index" json:"proposer"`
	Status      MissionStatus `gorm:"type:varchar(32);not null;index" json:"status"`

	// Evaluation fields — set once at the evaluate transition
	Difficulty   *int     `json:"difficulty"`
	Impact       *int     `json:"impact"`
	Confidence   *float64 `json:"confidence"`
	Rationale    *string  `gorm:"type:text" json:"rationale"`
	RewardAmount *Wei     `gorm:"type:varchar(80)" json:"reward_amount"`

	// Claim fields
	ClaimedBy *string    `gorm:"type:varchar(64);index" json:"claimed_by"`
	ClaimedAt *time.Time `json:"claimed_at"`

	// Proof fields — always mirror the latest proof attempt
	ProofURI         *string `gorm:"type:varchar(512)" json:"proof_uri"`
	ProofNote        *string `gorm:"type:varchar(2048)" json:"proof_note"`
	ProofSubmittedBy *string `gorm:"type:varchar(64)" json:"proof_submitted_by"`

	// Settlement reference, set only at the reward transition
	OnchainTxHash *string `gorm:"type:varchar(128)" json:"onchain_tx_hash"`

	Timestamps
}
