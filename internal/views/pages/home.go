// Package pages assembles the server-rendered HTML pages.
package pages

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"mealminder/internal/views/components"
	"mealminder/internal/views/layout"
)

// HomeSummary holds the catalog counts shown on the landing page.
type HomeSummary struct {
	Recipes   int64
	Suppliers int64
	Products  int64
}

var apiLinks = []struct {
	Path  string
	Label string
}{
	{"/api/recipes", "Recipes"},
	{"/api/meal-plans", "Meal plans"},
	{"/api/suppliers", "Suppliers"},
	{"/api/products", "Products"},
	{"/api/shopping-list", "Shopping lists"},
	{"/healthz", "Health"},
}

// Home renders the landing page.
func Home(summary HomeSummary) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<header><h1>MealMinder</h1><p>Plan meals, compare supplier prices and order groceries.</p></header><section class="cards">`); err != nil {
			return err
		}
		cards := []templ.Component{
			components.StatCard("Recipes", strconv.FormatInt(summary.Recipes, 10), "ready to plan"),
			components.StatCard("Suppliers", strconv.FormatInt(summary.Suppliers, 10), ""),
			components.StatCard("Products", strconv.FormatInt(summary.Products, 10), "across all suppliers"),
		}
		for _, card := range cards {
			if err := card.Render(ctx, w); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</section><nav><h2>API</h2><ul>`); err != nil {
			return err
		}
		for _, link := range apiLinks {
			if _, err := io.WriteString(w, `<li><a href="`+link.Path+`">`+templ.EscapeString(link.Label)+`</a></li>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul></nav>`)
		return err
	})
	return layout.Page("MealMinder", body)
}
