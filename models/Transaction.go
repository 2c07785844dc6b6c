package models

import "time"

// Transaction records an order placed with one supplier. Rows are append-only.
type Transaction struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SupplierID     uint      `gorm:"not null;index" json:"supplierId"`
	UserID         *uint     `gorm:"index" json:"userId"`
	ShoppingListID uint      `gorm:"not null;index" json:"shoppingListId"`
	Amount         int64     `gorm:"not null" json:"amount"`
	Commission     int64     `gorm:"not null" json:"commission"`
	CreatedAt      time.Time `json:"createdAt"`
}
