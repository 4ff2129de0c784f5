package models

// UserProfile holds optional display data for a chain address.
// Address is stored lowercase; stats and rank are derived, never persisted.
type UserProfile struct {
	ID          string  `gorm:"primaryKey;type:uuid" json:"id"`
	Address     string  `gorm:"type:varchar(64);not null;uniqueIndex" json:"address"`
	DisplayName *string `gorm:"type:varchar(50)" json:"display_name"`
	Bio         *string `gorm:"type:varchar(500)" json:"bio"`
	AvatarURL   *string `gorm:"type:varchar(256)" json:"avatar_url"`

	Timestamps
}
