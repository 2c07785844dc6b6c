package pricing

import "sort"

// Line is a priced shopping list entry.
type Line struct {
	ProductID  uint   `json:"productId"`
	SupplierID uint   `json:"supplierId"`
	Name       string `json:"name"`
	Unit       string `json:"unit"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unitPrice"`
	Total      int64  `json:"total"`
}

// SupplierTotal is the amount owed to one supplier for a list.
type SupplierTotal struct {
	SupplierID uint  `json:"supplierId"`
	Amount     int64 `json:"amount"`
	Commission int64 `json:"commission"`
}

// Summary aggregates priced lines.
type Summary struct {
	Lines     []Line          `json:"lines"`
	Suppliers []SupplierTotal `json:"suppliers"`
	Total     int64           `json:"total"`
}

// Summarize fills each line's total and groups amounts per supplier, ordered by
// supplier id. rates maps supplier id to commission rate.
func Summarize(lines []Line, rates map[uint]float64) Summary {
	summary := Summary{Lines: make([]Line, 0, len(lines))}
	bySupplier := map[uint]int64{}
	for _, line := range lines {
		line.Total = line.UnitPrice * int64(line.Quantity)
		summary.Lines = append(summary.Lines, line)
		summary.Total += line.Total
		bySupplier[line.SupplierID] += line.Total
	}

	summary.Suppliers = make([]SupplierTotal, 0, len(bySupplier))
	for id, amount := range bySupplier {
		summary.Suppliers = append(summary.Suppliers, SupplierTotal{
			SupplierID: id,
			Amount:     amount,
			Commission: Commission(amount, rates[id]),
		})
	}
	sort.Slice(summary.Suppliers, func(i, j int) bool {
		return summary.Suppliers[i].SupplierID < summary.Suppliers[j].SupplierID
	})
	return summary
}
