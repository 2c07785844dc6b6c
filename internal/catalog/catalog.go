// Package catalog applies price and stock changes to supplier products and keeps
// their price history.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"mealminder/internal/pricelist"
	"mealminder/models"
)

// ErrSupplierNotFound is returned when an import targets an unknown supplier.
var ErrSupplierNotFound = errors.New("supplier not found")

// Result counts what an import did.
type Result struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
}

// SetPrice changes a product's price. When the price differs, the prior price is
// appended to the history first. It reports whether anything changed.
func SetPrice(tx *gorm.DB, product *models.Product, price int64, source string) (bool, error) {
	if product.Price == price {
		return false, nil
	}

	entry := models.PriceHistory{
		ProductID:  product.ID,
		Price:      product.Price,
		Source:     source,
		RecordedAt: time.Now().UTC(),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return false, fmt.Errorf("record price history for product %d: %w", product.ID, err)
	}

	if err := tx.Model(product).Update("price", price).Error; err != nil {
		return false, fmt.Errorf("update price of product %d: %w", product.ID, err)
	}
	product.Price = price
	return true, nil
}

// Import upserts the entries into the supplier's products inside one transaction.
// Products are matched by catalog key; nothing is written if any entry fails.
func Import(ctx context.Context, db *gorm.DB, supplierID uint, entries []pricelist.Entry) (Result, error) {
	var result Result

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var supplier models.Supplier
		if err := tx.First(&supplier, supplierID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSupplierNotFound
			}
			return fmt.Errorf("load supplier %d: %w", supplierID, err)
		}

		for _, entry := range entries {
			key := models.CatalogKey(entry.Name)
			if key == "" {
				return &pricelist.LineError{Line: entry.Line, Err: pricelist.ErrNoCatalogKey}
			}

			var product models.Product
			err := tx.Where("supplier_id = ? AND catalog_key = ?", supplierID, key).First(&product).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				product = models.Product{
					SupplierID: supplierID,
					Name:       entry.Name,
					CatalogKey: key,
					Category:   entry.Category,
					Unit:       entry.Unit,
					Price:      entry.Price,
				}
				if entry.Stock != nil {
					product.Stock = *entry.Stock
				}
				if err := tx.Create(&product).Error; err != nil {
					return fmt.Errorf("line %d: create product %q: %w", entry.Line, entry.Name, err)
				}
				result.Created++
				continue
			case err != nil:
				return fmt.Errorf("line %d: find product %q: %w", entry.Line, entry.Name, err)
			}

			changed, err := SetPrice(tx, &product, entry.Price, models.PriceSourceImport)
			if err != nil {
				return fmt.Errorf("line %d: %w", entry.Line, err)
			}

			updates := map[string]any{}
			if entry.Stock != nil && *entry.Stock != product.Stock {
				updates["stock"] = *entry.Stock
			}
			if entry.Category != "" && entry.Category != product.Category {
				updates["category"] = entry.Category
			}
			if entry.Unit != "" && entry.Unit != product.Unit {
				updates["unit"] = entry.Unit
			}
			if len(updates) > 0 {
				if err := tx.Model(&product).Updates(updates).Error; err != nil {
					return fmt.Errorf("line %d: update product %q: %w", entry.Line, entry.Name, err)
				}
				changed = true
			}

			if changed {
				result.Updated++
			} else {
				result.Unchanged++
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}
