package models

import "time"

const (
	PriceSourceAPI    = "api"
	PriceSourceImport = "import"
)

// PriceHistory keeps the price a product had before each change. Rows are append-only.
type PriceHistory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProductID  uint      `gorm:"not null;index:idx_price_histories_product_recorded" json:"productId"`
	Price      int64     `gorm:"not null" json:"price"`
	Source     string    `gorm:"type:varchar(16);not null" json:"source"`
	RecordedAt time.Time `gorm:"not null;index:idx_price_histories_product_recorded" json:"recordedAt"`
}
