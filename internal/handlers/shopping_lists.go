package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"mealminder/internal/apperr"
	applog "mealminder/internal/log"
	"mealminder/internal/metrics"
	"mealminder/internal/pricing"
	"mealminder/internal/validation"
	"mealminder/internal/views/pages"
	"mealminder/models"
)

type shoppingListItemRequest struct {
	ProductID  uint `json:"productId" validate:"required,gt=0"`
	Quantity   int  `json:"quantity" validate:"required,gte=1"`
	SupplierID uint `json:"supplierId" validate:"required,gt=0"`
}

type shoppingListCreateRequest struct {
	Items  []shoppingListItemRequest `json:"items" validate:"dive"`
	Status string                    `json:"status" validate:"omitempty,oneof=draft pending"`
}

type shoppingListUpdateRequest struct {
	Items  *[]shoppingListItemRequest `json:"items" validate:"omitempty,dive"`
	Status *string                    `json:"status" validate:"omitempty,oneof=draft pending"`
}

type checkoutResponse struct {
	ShoppingListID uint                 `json:"shoppingListId"`
	Status         string               `json:"status"`
	Transactions   []models.Transaction `json:"transactions"`
	Total          int64                `json:"total"`
}

// ListShoppingLists returns the caller's shopping lists, newest first.
func ListShoppingLists(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}

	lists := []models.ShoppingList{}
	query := ownedBy(r, database.WithContext(r.Context()).Model(&models.ShoppingList{}))
	if err := query.Order("id DESC").Find(&lists).Error; err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

// CreateShoppingList stores a new list. Every item must name a product its
// supplier actually sells.
func CreateShoppingList(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}

	var req shoppingListCreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(w, r, err)
		return
	}

	items, err := checkShoppingItems(database.WithContext(r.Context()), req.Items)
	if err != nil {
		writeError(w, r, err)
		return
	}

	list := models.ShoppingList{
		UserID: ownerID(r),
		Items:  items,
		Status: models.NormalizeShoppingListStatus(req.Status),
	}
	if err := database.WithContext(r.Context()).Create(&list).Error; err != nil {
		writeError(w, r, err)
		return
	}

	applog.Debug(r.Context(), "shopping list created", "shopping_list_id", list.ID, "items", len(list.Items))
	writeJSON(w, http.StatusCreated, list)
}

// UpdateShoppingList replaces the items and/or status of a list that has not been
// ordered yet.
func UpdateShoppingList(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req shoppingListUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(w, r, err)
		return
	}

	var list models.ShoppingList
	err = database.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := ownedBy(r, tx.Model(&models.ShoppingList{})).Where("id = ?", id).First(&list).Error; err != nil {
			return notFoundOr(err, "shopping list not found")
		}
		if list.Status == models.ShoppingListOrdered {
			return apperr.Conflict("shopping list has already been ordered")
		}

		updates := map[string]any{}
		if req.Items != nil {
			items, err := checkShoppingItems(tx, *req.Items)
			if err != nil {
				return err
			}
			updates["items"] = items
		}
		if req.Status != nil {
			updates["status"] = models.NormalizeShoppingListStatus(*req.Status)
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&list).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&list, list.ID).Error
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// PrintShoppingList renders a printable HTML page with line and grand totals.
func PrintShoppingList(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}

	list, err := loadShoppingList(r, database.WithContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, names, err := priceShoppingList(database.WithContext(r.Context()), list)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ShoppingListPrint(list, summary, names).Render(r.Context(), w); err != nil {
		applog.Error(r.Context(), "failed to render shopping list", "shopping_list_id", list.ID, "error", err)
		http.Error(w, "failed to render shopping list", http.StatusInternalServerError)
	}
}

// CheckoutShoppingList records one transaction per supplier, adds the amounts to
// the suppliers' running totals and marks the list ordered.
func CheckoutShoppingList(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}

	var resp checkoutResponse
	err := database.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		list, err := loadShoppingList(r, tx)
		if err != nil {
			return err
		}
		if list.Status == models.ShoppingListOrdered {
			return apperr.Conflict("shopping list has already been ordered")
		}
		if len(list.Items) == 0 {
			return apperr.Conflict("shopping list is empty")
		}

		// the conditional flip claims the list; a concurrent checkout matches no row
		claim := tx.Model(&models.ShoppingList{}).
			Where("id = ? AND status <> ?", list.ID, models.ShoppingListOrdered).
			Update("status", models.ShoppingListOrdered)
		if claim.Error != nil {
			return fmt.Errorf("mark shopping list %d ordered: %w", list.ID, claim.Error)
		}
		if claim.RowsAffected != 1 {
			return apperr.Conflict("shopping list has already been ordered")
		}

		summary, _, err := priceShoppingList(tx, list)
		if err != nil {
			return err
		}

		resp = checkoutResponse{ShoppingListID: list.ID, Status: models.ShoppingListOrdered, Total: summary.Total}
		for _, total := range summary.Suppliers {
			txn := models.Transaction{
				SupplierID:     total.SupplierID,
				UserID:         list.UserID,
				ShoppingListID: list.ID,
				Amount:         total.Amount,
				Commission:     total.Commission,
			}
			if err := tx.Create(&txn).Error; err != nil {
				return fmt.Errorf("record transaction for supplier %d: %w", total.SupplierID, err)
			}
			err := tx.Model(&models.Supplier{}).Where("id = ?", total.SupplierID).Updates(map[string]any{
				"total_revenue":    gorm.Expr("total_revenue + ?", total.Amount),
				"total_commission": gorm.Expr("total_commission + ?", total.Commission),
			}).Error
			if err != nil {
				return fmt.Errorf("update totals for supplier %d: %w", total.SupplierID, err)
			}
			resp.Transactions = append(resp.Transactions, txn)
		}

		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	metrics.CheckoutsTotal.Inc()
	for _, txn := range resp.Transactions {
		metrics.OrderRevenueCents.WithLabelValues(strconv.FormatUint(uint64(txn.SupplierID), 10)).Add(float64(txn.Amount))
	}
	applog.Info(r.Context(), "shopping list ordered", "shopping_list_id", resp.ShoppingListID, "total", resp.Total, "suppliers", len(resp.Transactions))
	writeJSON(w, http.StatusOK, resp)
}

func loadShoppingList(r *http.Request, db *gorm.DB) (models.ShoppingList, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return models.ShoppingList{}, err
	}
	var list models.ShoppingList
	if err := ownedBy(r, db.Model(&models.ShoppingList{})).Where("id = ?", id).First(&list).Error; err != nil {
		return models.ShoppingList{}, notFoundOr(err, "shopping list not found")
	}
	return list, nil
}

// checkShoppingItems verifies each item's product belongs to its supplier.
func checkShoppingItems(db *gorm.DB, items []shoppingListItemRequest) (datatypes.JSONSlice[models.ShoppingListItem], error) {
	out := make(datatypes.JSONSlice[models.ShoppingListItem], 0, len(items))
	if len(items) == 0 {
		return out, nil
	}

	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	var products []models.Product
	if err := db.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	supplierOf := make(map[uint]uint, len(products))
	for _, p := range products {
		supplierOf[p.ID] = p.SupplierID
	}

	var details []apperr.FieldError
	for i, item := range items {
		supplierID, ok := supplierOf[item.ProductID]
		switch {
		case !ok:
			details = append(details, apperr.FieldError{
				Field:   fmt.Sprintf("items[%d].productId", i),
				Message: fmt.Sprintf("product %d does not exist", item.ProductID),
			})
		case supplierID != item.SupplierID:
			details = append(details, apperr.FieldError{
				Field:   fmt.Sprintf("items[%d].supplierId", i),
				Message: fmt.Sprintf("product %d is not sold by supplier %d", item.ProductID, item.SupplierID),
			})
		default:
			out = append(out, models.ShoppingListItem{
				ProductID:  item.ProductID,
				Quantity:   item.Quantity,
				SupplierID: item.SupplierID,
			})
		}
	}
	if len(details) > 0 {
		return nil, apperr.Validation("invalid request body", details...)
	}
	return out, nil
}

// priceShoppingList prices every item at its product's current price. Items whose
// product has disappeared are priced at zero. names maps supplier id to name.
func priceShoppingList(db *gorm.DB, list models.ShoppingList) (pricing.Summary, map[uint]string, error) {
	productIDs := make([]uint, 0, len(list.Items))
	supplierIDs := make([]uint, 0, len(list.Items))
	for _, item := range list.Items {
		productIDs = append(productIDs, item.ProductID)
		supplierIDs = append(supplierIDs, item.SupplierID)
	}

	products := map[uint]models.Product{}
	suppliers := map[uint]models.Supplier{}
	if len(productIDs) > 0 {
		var found []models.Product
		if err := db.Where("id IN ?", productIDs).Find(&found).Error; err != nil {
			return pricing.Summary{}, nil, err
		}
		for _, p := range found {
			products[p.ID] = p
		}
		var vendors []models.Supplier
		if err := db.Where("id IN ?", supplierIDs).Find(&vendors).Error; err != nil {
			return pricing.Summary{}, nil, err
		}
		for _, s := range vendors {
			suppliers[s.ID] = s
		}
	}

	lines := make([]pricing.Line, 0, len(list.Items))
	rates := make(map[uint]float64, len(suppliers))
	names := make(map[uint]string, len(suppliers))
	for id, s := range suppliers {
		rates[id] = s.CommissionRate
		names[id] = s.Name
	}
	for _, item := range list.Items {
		line := pricing.Line{
			ProductID:  item.ProductID,
			SupplierID: item.SupplierID,
			Name:       fmt.Sprintf("Product #%d", item.ProductID),
			Quantity:   item.Quantity,
		}
		if p, ok := products[item.ProductID]; ok {
			line.Name = p.Name
			line.Unit = p.Unit
			line.UnitPrice = p.Price
		}
		lines = append(lines, line)
	}
	return pricing.Summarize(lines, rates), names, nil
}
