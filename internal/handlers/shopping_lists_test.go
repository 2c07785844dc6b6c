package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"mealminder/internal/apperr"
	"mealminder/models"
)

func createAnonymousList(t *testing.T, api http.Handler, items []map[string]any) models.ShoppingList {
	t.Helper()
	w := doJSON(t, api, http.MethodPost, "/api/shopping-list", map[string]any{"items": items})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var list models.ShoppingList
	decodeInto(t, w, &list)
	return list
}

func TestCreateShoppingList(t *testing.T) {
	_, cleanup := withSeededDatabase(t)
	t.Cleanup(cleanup)
	api := newTestAPI(t)

	list := createAnonymousList(t, api, []map[string]any{
		{"productId": 1, "quantity": 2, "supplierId": 1},
	})
	if list.Status != models.ShoppingListDraft || len(list.Items) != 1 || list.UserID != nil {
		t.Fatalf("unexpected list %+v", list)
	}

	w := doJSON(t, api, http.MethodGet, "/api/shopping-list", nil)
	var lists []models.ShoppingList
	decodeInto(t, w, &lists)
	if len(lists) != 1 || lists[0].ID != list.ID {
		t.Fatalf("expected only the anonymous list, got %+v", lists)
	}
}

func TestCreateShoppingListValidation(t *testing.T) {
	_, cleanup := withSeededDatabase(t)
	t.Cleanup(cleanup)
	api := newTestAPI(t)

	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{"zero quantity", map[string]any{"items": []map[string]any{{"productId": 1, "quantity": 0, "supplierId": 1}}}, "items[0].quantity"},
		{"missing product", map[string]any{"items": []map[string]any{{"quantity": 1, "supplierId": 1}}}, "items[0].productId"},
		{"unknown product", map[string]any{"items": []map[string]any{{"productId": 99, "quantity": 1, "supplierId": 1}}}, "items[0].productId"},
		{"wrong supplier", map[string]any{"items": []map[string]any{{"productId": 1, "quantity": 1, "supplierId": 2}}}, "items[0].supplierId"},
		{"ordered status", map[string]any{"items": []map[string]any{}, "status": "ordered"}, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, api, http.MethodPost, "/api/shopping-list", tt.body)
			body := expectError(t, w, http.StatusBadRequest, apperr.KindValidation)
			if !hasDetail(body, tt.field) {
				t.Fatalf("expected detail for %s, got %+v", tt.field, body.Details)
			}
		})
	}
}

func TestUpdateShoppingList(t *testing.T) {
	_, cleanup := withSeededDatabase(t)
	t.Cleanup(cleanup)
	api := newTestAPI(t)

	list := createAnonymousList(t, api, []map[string]any{{"productId": 1, "quantity": 1, "supplierId": 1}})
	path := fmt.Sprintf("/api/shopping-list/%d", list.ID)

	w := doJSON(t, api, http.MethodPatch, path, map[string]any{
		"items":  []map[string]any{{"productId": 5, "quantity": 3, "supplierId": 2}},
		"status": "pending",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var updated models.ShoppingList
	decodeInto(t, w, &updated)
	if updated.Status != models.ShoppingListPending || len(updated.Items) != 1 || updated.Items[0].ProductID != 5 {
		t.Fatalf("unexpected update %+v", updated)
	}

	w = doJSON(t, api, http.MethodPatch, path, map[string]any{"status": "ordered"})
	expectError(t, w, http.StatusBadRequest, apperr.KindValidation)

	w = doJSON(t, api, http.MethodPatch, "/api/shopping-list/999", map[string]any{"status": "pending"})
	expectError(t, w, http.StatusNotFound, apperr.KindNotFound)

	// the seeded list belongs to the demo user
	w = doJSON(t, api, http.MethodPatch, "/api/shopping-list/1", map[string]any{"status": "pending"})
	expectError(t, w, http.StatusNotFound, apperr.KindNotFound)
}

func TestCheckoutShoppingList(t *testing.T) {
	db, cleanup := withSeededDatabase(t)
	t.Cleanup(cleanup)
	api := newTestAPI(t)
	cookie := loginDemo(t, api)

	// seeded list: 1 × oil at GreenGrocer (450) and 2 × eggs at FreshMart (289)
	w := doJSON(t, api, http.MethodPost, "/api/shopping-list/1/checkout", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp checkoutResponse
	decodeInto(t, w, &resp)
	if resp.Total != 1028 || resp.Status != models.ShoppingListOrdered {
		t.Fatalf("unexpected checkout %+v", resp)
	}
	if len(resp.Transactions) != 2 {
		t.Fatalf("expected one transaction per supplier, got %d", len(resp.Transactions))
	}
	fresh, green := resp.Transactions[0], resp.Transactions[1]
	if fresh.SupplierID != 1 || fresh.Amount != 578 || fresh.Commission != 29 {
		t.Fatalf("unexpected FreshMart transaction %+v", fresh)
	}
	if green.SupplierID != 2 || green.Amount != 450 || green.Commission != 18 {
		t.Fatalf("unexpected GreenGrocer transaction %+v", green)
	}

	var supplier models.Supplier
	db.First(&supplier, 1)
	if supplier.TotalRevenue != 578 || supplier.TotalCommission != 29 {
		t.Fatalf("expected FreshMart totals to be incremented, got %+v", supplier)
	}
	var list models.ShoppingList
	db.First(&list, 1)
	if list.Status != models.ShoppingListOrdered {
		t.Fatalf("expected list to be ordered, got %s", list.Status)
	}

	w = doJSON(t, api, http.MethodPost, "/api/shopping-list/1/checkout", nil, cookie)
	expectError(t, w, http.StatusConflict, apperr.KindConflict)

	w = doJSON(t, api, http.MethodPatch, "/api/shopping-list/1", map[string]any{"status": "draft"}, cookie)
	expectError(t, w, http.StatusConflict, apperr.KindConflict)

	var count int64
	db.Model(&models.Transaction{}).Count(&count)
	if count != 2 {
		t.Fatalf("expected repeated checkout to add nothing, got %d transactions", count)
	}
}

func TestConcurrentCheckoutBillsOnce(t *testing.T) {
	db, cleanup := withSeededDatabase(t)
	t.Cleanup(cleanup)
	api := newTestAPI(t)

	list := createAnonymousList(t, api, []map[string]any{
		{"productId": 3, "quantity": 2, "supplierId": 3},
	})
	path := fmt.Sprintf("/api/shopping-list/%d/checkout", list.ID)

	const attempts = 4
	codes := make([]int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := httptest.NewRecorder()
			api.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
			codes[i] = w.Code
		}(i)
	}
	wg.Wait()

	var ok, conflict int
	for _, code := range codes {
		switch code {
		case http.StatusOK:
			ok++
		case http.StatusConflict:
			conflict++
		}
	}
	if ok != 1 || conflict != attempts-1 {
		t.Fatalf("expected one checkout and %d conflicts, got %v", attempts-1, codes)
	}

	var count int64
	db.Model(&models.Transaction{}).Where("shopping_list_id = ?", list.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected a single transaction, got %d", count)
	}
	var supplier models.Supplier
	db.First(&supplier, 3)
	if supplier.TotalRevenue != 1200 {
		t.Fatalf("expected revenue to be counted once, got %d", supplier.TotalRevenue)
	}
}

func TestCheckoutEmptyList(t *testing.T) {
	_, cleanup := withSeededDatabase(t)
	t.Cleanup(cleanup)
	api := newTestAPI(t)

	list := createAnonymousList(t, api, []map[string]any{})
	w := doJSON(t, api, http.MethodPost, fmt.Sprintf("/api/shopping-list/%d/checkout", list.ID), nil)
	expectError(t, w, http.StatusConflict, apperr.KindConflict)
}

func TestPrintShoppingList(t *testing.T) {
	_, cleanup := withSeededDatabase(t)
	t.Cleanup(cleanup)
	api := newTestAPI(t)
	cookie := loginDemo(t, api)

	w := doJSON(t, api, http.MethodGet, "/api/shopping-list/1/print", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected html, got %q", ct)
	}
	body := w.Body.String()
	for _, token := range []string{"Shopping list #1", "Olive oil 500ml", "GreenGrocer", "FreshMart", "5.78", "Total: 10.28"} {
		if !strings.Contains(body, token) {
			t.Fatalf("expected printable list to contain %q: %s", token, body)
		}
	}

	w = doJSON(t, api, http.MethodGet, "/api/shopping-list/1/print", nil)
	expectError(t, w, http.StatusNotFound, apperr.KindNotFound)
}
