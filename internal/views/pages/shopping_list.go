package pages

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"mealminder/internal/pricing"
	"mealminder/internal/views/components"
	"mealminder/internal/views/layout"
	"mealminder/models"
)

var lineColumns = []string{"Item", "Supplier", "Qty", "Unit price", "Total"}
var lineNumeric = []bool{false, false, true, true, true}

// ShoppingListPrint renders a printable shopping list. supplierNames maps supplier
// id to display name.
func ShoppingListPrint(list models.ShoppingList, summary pricing.Summary, supplierNames map[uint]string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<header><h1>Shopping list #%d</h1><p>Status: %s &middot; Created %s</p></header>`,
			list.ID, templ.EscapeString(list.Status), list.CreatedAt.Format(models.DateLayout))
		if err != nil {
			return err
		}

		if len(summary.Lines) == 0 {
			if _, err := io.WriteString(w, `<p>This list is empty.</p>`); err != nil {
				return err
			}
		} else {
			rows := make([]components.Row, 0, len(summary.Lines))
			for _, line := range summary.Lines {
				item := line.Name
				if line.Unit != "" {
					item += " (" + line.Unit + ")"
				}
				rows = append(rows, components.Row{
					Cells: []string{
						item,
						supplierName(supplierNames, line.SupplierID),
						strconv.Itoa(line.Quantity),
						pricing.FormatCents(line.UnitPrice),
						pricing.FormatCents(line.Total),
					},
					Numeric: lineNumeric,
				})
			}
			if err := components.Table(lineColumns, lineNumeric, rows).Render(ctx, w); err != nil {
				return err
			}
		}

		if len(summary.Suppliers) > 1 {
			if _, err := io.WriteString(w, `<h2>Per supplier</h2><ul>`); err != nil {
				return err
			}
			for _, s := range summary.Suppliers {
				_, err := fmt.Fprintf(w, `<li>%s: %s</li>`,
					templ.EscapeString(supplierName(supplierNames, s.SupplierID)), pricing.FormatCents(s.Amount))
				if err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</ul>`); err != nil {
				return err
			}
		}

		_, err = fmt.Fprintf(w, `<p class="grand-total"><strong>Total: %s</strong></p><button class="no-print" onclick="window.print()">Print</button>`,
			pricing.FormatCents(summary.Total))
		return err
	})
	return layout.Page(fmt.Sprintf("Shopping list #%d", list.ID), body)
}

func supplierName(names map[uint]string, id uint) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("Supplier #%d", id)
}
