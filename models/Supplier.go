package models

import "time"

// Supplier is a vendor offering products; it may be linked to an OAuth provider.
type Supplier struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Name           string     `gorm:"uniqueIndex;not null" json:"name"`
	Description    string     `gorm:"type:text" json:"description"`
	Website        string     `json:"website"`
	Active         bool       `gorm:"not null" json:"active"`
	OAuthProvider  *string    `gorm:"column:oauth_provider" json:"oauthProvider"`
	AccessToken    string     `json:"-"`
	RefreshToken   string     `json:"-"`
	TokenExpiresAt *time.Time `json:"tokenExpiresAt"`
	Authenticated  bool       `gorm:"not null;default:false" json:"authenticated"`
	// CommissionRate is a fraction of each order, e.g. 0.05.
	CommissionRate  float64   `gorm:"not null;default:0" json:"commissionRate"`
	TotalCommission int64     `gorm:"not null;default:0" json:"totalCommission"`
	TotalRevenue    int64     `gorm:"not null;default:0" json:"totalRevenue"`
	CreatedAt       time.Time `json:"createdAt"`
}
