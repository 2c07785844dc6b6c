// Package pricing compares supplier offers and totals shopping lists. Amounts are
// integer cents throughout.
package pricing

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Offer is one supplier's current price for a catalog product.
type Offer struct {
	ProductID    uint
	SupplierID   uint
	SupplierName string
	Name         string
	Unit         string
	Price        int64
	Stock        int
	// PreviousPrice is the most recent history entry, nil when there is none.
	PreviousPrice *int64
}

// Comparison is one row of a price comparison.
type Comparison struct {
	ProductID     uint     `json:"productId"`
	SupplierID    uint     `json:"supplierId"`
	SupplierName  string   `json:"supplierName"`
	Name          string   `json:"name"`
	Unit          string   `json:"unit"`
	Price         int64    `json:"price"`
	Stock         int      `json:"stock"`
	InStock       bool     `json:"inStock"`
	PreviousPrice *int64   `json:"previousPrice"`
	PriceChange   *float64 `json:"priceChange"`
	IsLowestPrice bool     `json:"isLowestPrice"`
}

// Compare orders offers by (price, supplier id) and flags exactly one row, the first,
// as the lowest price.
func Compare(offers []Offer) []Comparison {
	sorted := append([]Offer(nil), offers...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Price != sorted[j].Price {
			return sorted[i].Price < sorted[j].Price
		}
		return sorted[i].SupplierID < sorted[j].SupplierID
	})

	rows := make([]Comparison, 0, len(sorted))
	for i, offer := range sorted {
		row := Comparison{
			ProductID:     offer.ProductID,
			SupplierID:    offer.SupplierID,
			SupplierName:  offer.SupplierName,
			Name:          offer.Name,
			Unit:          offer.Unit,
			Price:         offer.Price,
			Stock:         offer.Stock,
			InStock:       offer.Stock > 0,
			PreviousPrice: offer.PreviousPrice,
			IsLowestPrice: i == 0,
		}
		if offer.PreviousPrice != nil {
			if change, ok := PercentChange(offer.Price, *offer.PreviousPrice); ok {
				row.PriceChange = &change
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// PercentChange returns the change from previous to current in percent, rounded to two
// places. It reports false when previous is zero.
func PercentChange(current, previous int64) (float64, bool) {
	if previous == 0 {
		return 0, false
	}
	prev := decimal.NewFromInt(previous)
	change := decimal.NewFromInt(current).Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Round(2)
	return change.InexactFloat64(), true
}

// Commission returns amount × rate rounded half away from zero to whole cents.
func Commission(amount int64, rate float64) int64 {
	if rate <= 0 || amount == 0 {
		return 0
	}
	return decimal.NewFromInt(amount).Mul(decimal.NewFromFloat(rate)).Round(0).IntPart()
}

// FormatCents renders cents as a decimal amount such as "4.50".
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// ParseAmount converts a decimal amount such as "4.5" or "4,50" into cents.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.Shift(2).Round(0).IntPart(), nil
}
