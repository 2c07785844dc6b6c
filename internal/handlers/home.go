package handlers

import (
	"net/http"

	applog "mealminder/internal/log"
	"mealminder/internal/views/pages"
	"mealminder/models"
)

// Home renders the landing page with a summary of the catalog.
func Home(w http.ResponseWriter, r *http.Request) {
	var summary pages.HomeSummary
	if database != nil {
		db := database.WithContext(r.Context())
		counts := []struct {
			model any
			dst   *int64
		}{
			{&models.Recipe{}, &summary.Recipes},
			{&models.Supplier{}, &summary.Suppliers},
			{&models.Product{}, &summary.Products},
		}
		for _, c := range counts {
			if err := db.Model(c.model).Count(c.dst).Error; err != nil {
				applog.Error(r.Context(), "failed to count records for landing page", "error", err)
			}
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.Home(summary).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
