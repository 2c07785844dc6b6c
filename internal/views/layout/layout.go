// Package layout provides the HTML document shell shared by server-rendered pages.
package layout

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const stylesheet = `body{font-family:system-ui,sans-serif;margin:2rem auto;max-width:48rem;color:#1f2933}
table{border-collapse:collapse;width:100%}th,td{padding:.4rem .6rem;border-bottom:1px solid #d9e2ec;text-align:left}
td.num,th.num{text-align:right}.cards{display:flex;gap:1rem}.card{border:1px solid #d9e2ec;border-radius:.5rem;padding:1rem;flex:1}
@media print{body{margin:0;max-width:none}.no-print{display:none}}`

// Page wraps body in a complete HTML document titled title.
func Page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`); err != nil {
			return err
		}
		if _, err := io.WriteString(w, templ.EscapeString(title)); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `</title><style>`+stylesheet+`</style></head><body>`); err != nil {
			return err
		}
		if body != nil {
			if err := body.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}
