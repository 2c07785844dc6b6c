package models

import "time"

// OAuthState correlates a pending provider handshake with the supplier that started it.
type OAuthState struct {
	State      string    `gorm:"primaryKey;type:varchar(64)"`
	SupplierID uint      `gorm:"not null"`
	Provider   string    `gorm:"type:varchar(32);not null"`
	ExpiresAt  time.Time `gorm:"not null;index"`
	CreatedAt  time.Time
}

func (OAuthState) TableName() string {
	return "oauth_states"
}
