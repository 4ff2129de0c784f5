package models

import "time"

// BoostRecord = a third party added to a mission's reward pot.
// This is the attribution ledger the rank engine's financial path reads.
type BoostRecord struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	MissionID string    `gorm:"type:uuid;not null;index" json:"mission_id"`
	Booster   string    `gorm:"type:varchar(64);not null;index" json:"booster"`
	AmountWei Wei       `gorm:"type:varchar(80);not null" json:"amount_wei"`
	TxHash    *string   `gorm:"type:varchar(128)" json:"tx_hash"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
