package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

const (
	ShoppingListDraft   = "draft"
	ShoppingListPending = "pending"
	ShoppingListOrdered = "ordered"
)

// ShoppingListItem references a product at a specific supplier.
type ShoppingListItem struct {
	ProductID  uint `json:"productId"`
	Quantity   int  `json:"quantity"`
	SupplierID uint `json:"supplierId"`
}

type ShoppingList struct {
	ID        uint                                  `gorm:"primaryKey" json:"id"`
	UserID    *uint                                 `gorm:"index" json:"userId"`
	Items     datatypes.JSONSlice[ShoppingListItem] `gorm:"not null" json:"items"`
	Status    string                                `gorm:"type:varchar(16);not null" json:"status"`
	CreatedAt time.Time                             `json:"createdAt"`
	UpdatedAt time.Time                             `json:"updatedAt"`
}

// ValidShoppingListStatus reports whether status is a known list status.
func ValidShoppingListStatus(status string) bool {
	switch status {
	case ShoppingListDraft, ShoppingListPending, ShoppingListOrdered:
		return true
	default:
		return false
	}
}

// NormalizeShoppingListStatus lowercases status and falls back to draft when unknown.
func NormalizeShoppingListStatus(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	if ValidShoppingListStatus(status) {
		return status
	}
	return ShoppingListDraft
}
