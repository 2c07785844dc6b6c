// Package components holds small HTML fragments reused across pages.
package components

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// StatCard renders a labelled figure with an optional hint line.
func StatCard(label, value, hint string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="card"><p class="label">%s</p><p class="value"><strong>%s</strong></p>`,
			templ.EscapeString(label), templ.EscapeString(value))
		if err != nil {
			return err
		}
		if hint != "" {
			if _, err := fmt.Fprintf(w, `<p class="hint">%s</p>`, templ.EscapeString(hint)); err != nil {
				return err
			}
		}
		_, err = io.WriteString(w, `</div>`)
		return err
	})
}

// Row is one table row; cells marked numeric are right aligned.
type Row struct {
	Cells   []string
	Numeric []bool
}

// Table renders a header and rows. Cell text is escaped.
func Table(headers []string, numeric []bool, rows []Row) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<table><thead><tr>`); err != nil {
			return err
		}
		for i, h := range headers {
			if _, err := fmt.Fprintf(w, `<th%s>%s</th>`, numClass(numeric, i), templ.EscapeString(h)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</tr></thead><tbody>`); err != nil {
			return err
		}
		for _, row := range rows {
			if _, err := io.WriteString(w, `<tr>`); err != nil {
				return err
			}
			for i, cell := range row.Cells {
				if _, err := fmt.Fprintf(w, `<td%s>%s</td>`, numClass(row.Numeric, i), templ.EscapeString(cell)); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</tr>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tbody></table>`)
		return err
	})
}

func numClass(numeric []bool, i int) string {
	if i < len(numeric) && numeric[i] {
		return ` class="num"`
	}
	return ""
}
