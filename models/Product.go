package models

import (
	"strings"
	"time"
	"unicode"
)

// Product is a supplier's offer. Offers of the same product at different suppliers
// share a CatalogKey.
type Product struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SupplierID  uint      `gorm:"not null;uniqueIndex:idx_products_supplier_catalog" json:"supplierId"`
	Supplier    *Supplier `gorm:"foreignKey:SupplierID" json:"-"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CatalogKey  string    `gorm:"not null;index;uniqueIndex:idx_products_supplier_catalog" json:"catalogKey"`
	Category    string    `json:"category"`
	Unit        string    `json:"unit"`
	Price       int64     `gorm:"not null" json:"price"` // cents
	Stock       int       `gorm:"not null;default:0" json:"stock"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CatalogKey normalises a product name into the key used to match offers across suppliers.
func CatalogKey(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
