package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"mealminder/internal/apperr"
	"mealminder/internal/pricing"
	"mealminder/models"
)

func TestComparePricesFlagsSingleLowest(t *testing.T) {
	_, cleanup := withSeededDatabase(t)
	t.Cleanup(cleanup)
	api := newTestAPI(t)

	w := doJSON(t, api, http.MethodGet, "/api/products/1/compare-prices", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var rows []pricing.Comparison
	decodeInto(t, w, &rows)
	if len(rows) != 3 {
		t.Fatalf("expected three offers, got %d", len(rows))
	}

	wantPrices := []int64{450, 500, 600}
	lowest := 0
	for i, row := range rows {
		if row.Price != wantPrices[i] {
			t.Fatalf("row %d: expected price %d, got %d", i, wantPrices[i], row.Price)
		}
		if row.IsLowestPrice {
			lowest++
		}
	}
	if lowest != 1 || !rows[0].IsLowestPrice {
		t.Fatalf("expected only the 450 offer to be lowest, got %+v", rows)
	}
	if rows[0].InStock {
		t.Fatal("expected GreenGrocer offer to be out of stock")
	}
	if rows[0].PriceChange == nil || *rows[0].PriceChange != -10 {
		t.Fatalf("expected -10%% change for GreenGrocer, got %v", rows[0].PriceChange)
	}
	if rows[1].PriceChange == nil || *rows[1].PriceChange != -3.85 {
		t.Fatalf("expected -3.85%% change for FreshMart, got %v", rows[1].PriceChange)
	}
	if rows[2].PriceChange != nil || rows[2].PreviousPrice != nil {
		t.Fatalf("expected no history for Harvest Co, got %+v", rows[2])
	}

	w = doJSON(t, api, http.MethodGet, "/api/products/999/compare-prices", nil)
	expectError(t, w, http.StatusNotFound, apperr.KindNotFound)
}

func TestComparePricesSkipsInactiveSuppliers(t *testing.T) {
	db, cleanup := withSeededDatabase(t)
	t.Cleanup(cleanup)
	api := newTestAPI(t)

	if err := db.Model(&models.Supplier{}).Where("id = ?", 2).Update("active", false).Error; err != nil {
		t.Fatalf("deactivate supplier: %v", err)
	}

	w := doJSON(t, api, http.MethodGet, "/api/products/1/compare-prices", nil)
	var rows []pricing.Comparison
	decodeInto(t, w, &rows)
	if len(rows) != 2 || rows[0].SupplierID != 1 || !rows[0].IsLowestPrice {
		t.Fatalf("expected FreshMart to become lowest, got %+v", rows)
	}
}

func TestProductStock(t *testing.T) {
	_, cleanup := withSeededDatabase(t)
	t.Cleanup(cleanup)
	api := newTestAPI(t)

	tests := []struct {
		name     string
		path     string
		status   int
		inStock  bool
		quantity int
	}{
		{"own supplier", "/api/products/1/stock?supplierId=1", http.StatusOK, true, 12},
		{"sibling offer out of stock", "/api/products/1/stock?supplierId=2", http.StatusOK, false, 0},
		{"sibling offer in stock", "/api/products/2/stock?supplierId=3", http.StatusOK, true, 40},
		{"no row", "/api/products/4/stock?supplierId=3", http.StatusNotFound, false, 0},
		{"missing supplier", "/api/products/1/stock", http.StatusBadRequest, false, 0},
		{"bad supplier", "/api/products/1/stock?supplierId=x", http.StatusBadRequest, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, api, http.MethodGet, tt.path, nil)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			var resp stockResponse
			decodeInto(t, w, &resp)
			if resp.InStock != tt.inStock || resp.Quantity != tt.quantity {
				t.Fatalf("unexpected stock %+v", resp)
			}
		})
	}
}

func TestProductStockStopsWithRequest(t *testing.T) {
	_, cleanup := withSeededDatabase(t)
	t.Cleanup(cleanup)
	api := newTestAPI(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/products/2/stock?supplierId=3", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	api.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for a cancelled request, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateProduct(t *testing.T) {
	_, cleanup := withSeededDatabase(t)
	t.Cleanup(cleanup)
	api := newTestAPI(t)

	w := doJSON(t, api, http.MethodPost, "/api/products", map[string]any{
		"supplierId": 3,
		"name":       "Free Range Eggs (6)",
		"unit":       "box",
		"price":      275,
		"stock":      9,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var product models.Product
	decodeInto(t, w, &product)
	if product.CatalogKey != "free-range-eggs-6" {
		t.Fatalf("expected shared catalog key, got %q", product.CatalogKey)
	}

	w = doJSON(t, api, http.MethodGet, "/api/products/4/compare-prices", nil)
	var rows []pricing.Comparison
	decodeInto(t, w, &rows)
	if len(rows) != 2 || rows[0].SupplierID != 3 {
		t.Fatalf("expected new offer to be compared first, got %+v", rows)
	}

	w = doJSON(t, api, http.MethodPost, "/api/products", map[string]any{"supplierId": 3, "name": "free range eggs 6", "price": 1})
	expectError(t, w, http.StatusConflict, apperr.KindConflict)

	w = doJSON(t, api, http.MethodPost, "/api/products", map[string]any{"supplierId": 77, "name": "Milk", "price": 1})
	body := expectError(t, w, http.StatusBadRequest, apperr.KindValidation)
	if !hasDetail(body, "supplierId") {
		t.Fatalf("expected supplierId detail, got %+v", body.Details)
	}

	w = doJSON(t, api, http.MethodPost, "/api/products", map[string]any{"supplierId": 1, "name": "Milk", "price": -5})
	body = expectError(t, w, http.StatusBadRequest, apperr.KindValidation)
	if !hasDetail(body, "price") {
		t.Fatalf("expected price detail, got %+v", body.Details)
	}
}

func TestUpdateProductRecordsHistory(t *testing.T) {
	db, cleanup := withSeededDatabase(t)
	t.Cleanup(cleanup)
	api := newTestAPI(t)

	w := doJSON(t, api, http.MethodPatch, "/api/products/3", map[string]any{"price": 480, "stock": 2, "name": "ignored"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var product models.Product
	decodeInto(t, w, &product)
	if product.Price != 480 || product.Stock != 2 || product.Name != "Olive oil 500ml" {
		t.Fatalf("unexpected product %+v", product)
	}

	var history []models.PriceHistory
	db.Where("product_id = ?", 3).Find(&history)
	if len(history) != 1 || history[0].Price != 600 || history[0].Source != models.PriceSourceAPI {
		t.Fatalf("expected prior price 600 in history, got %+v", history)
	}

	w = doJSON(t, api, http.MethodPatch, "/api/products/3", map[string]any{"price": 480})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var count int64
	db.Model(&models.PriceHistory{}).Where("product_id = ?", 3).Count(&count)
	if count != 1 {
		t.Fatalf("expected unchanged price not to add history, got %d rows", count)
	}

	w = doJSON(t, api, http.MethodGet, "/api/products/3/compare-prices", nil)
	var rows []pricing.Comparison
	decodeInto(t, w, &rows)
	for _, row := range rows {
		if row.SupplierID == 3 && (row.PriceChange == nil || *row.PriceChange != -20) {
			t.Fatalf("expected -20%% change after update, got %+v", row)
		}
	}

	w = doJSON(t, api, http.MethodPatch, "/api/products/3", map[string]any{"stock": -1})
	expectError(t, w, http.StatusBadRequest, apperr.KindValidation)

	w = doJSON(t, api, http.MethodPatch, "/api/products/999", map[string]any{"price": 1})
	expectError(t, w, http.StatusNotFound, apperr.KindNotFound)
}

func TestListProducts(t *testing.T) {
	_, cleanup := withSeededDatabase(t)
	t.Cleanup(cleanup)
	api := newTestAPI(t)

	w := doJSON(t, api, http.MethodGet, "/api/products", nil)
	var products []models.Product
	decodeInto(t, w, &products)
	if len(products) != 5 {
		t.Fatalf("expected five products, got %d", len(products))
	}
}
