package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList stores an ordered list of short strings as a JSON text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		return json.Unmarshal([]byte(v), l)
	case []byte:
		return json.Unmarshal(v, l)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
}

// Proof is an append-style record, one row per submission attempt.
// The latest row for a mission carries the resolved verdict.
type Proof struct {
	ID         string     `gorm:"primaryKey;type:uuid" json:"id"`
	MissionID  string     `gorm:"type:uuid;not null;index" json:"mission_id"`
	Submitter  string     `gorm:"type:varchar(64);not null" json:"submitter"`
	ProofURI   string     `gorm:"type:varchar(512);not null" json:"proof_uri"`
	Note       *string    `gorm:"type:varchar(2048)" json:"note"`
	Verdict    *string    `gorm:"type:varchar(32)" json:"verdict"`
	Confidence *float64   `json:"confidence"`
	Evidence   StringList `gorm:"type:text" json:"evidence"`
	CreatedAt  time.Time  `json:"created_at" gorm:"autoCreateTime"`
}
